package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when none of the search paths holds a config file.
var ErrNoConfig = errors.New("config: no config.yml found")

// ErrInvalidStrategy is returned for an unknown merge offset strategy.
var ErrInvalidStrategy = errors.New("config: invalid merge offset strategy")

// DefaultPaths are searched in order when no explicit path is given.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// Load reads, validates and defaults a configuration. An empty path searches
// DefaultPaths.
func Load(path string) (AppConfig, error) {
	paths := DefaultPaths
	if path != "" {
		paths = []string{path}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("%w: %v", ErrNoConfig, err)
		}
		return AppConfig{}, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return AppConfig{}, err
	}
	if err := v.Struct(cfg.Merge); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidStrategy, err)
	}
	for _, section := range []any{cfg.Widget, cfg.Logging} {
		if err := v.Struct(section); err != nil {
			return AppConfig{}, err
		}
	}
	// sources are optional; if present validate each
	for _, s := range cfg.Sources {
		if err := v.Struct(s); err != nil {
			return AppConfig{}, err
		}
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16181
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 10000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		cfg.Server.WriteTimeoutMS = 10000
	}
	if cfg.Merge.OffsetStrategy == "" {
		cfg.Merge.OffsetStrategy = "matchIndex"
	}
	if cfg.Widget.Language == "" {
		cfg.Widget.Language = "en"
	}
	if cfg.Widget.Workers == 0 {
		cfg.Widget.Workers = 4
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "hkbuseta.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// SelectSource chooses a data sheet source by name, falling back to the
// first source and then to the top-level dataSheet section.
func (cfg AppConfig) SelectSource(name string) DataSheetConfig {
	if name != "" {
		for _, s := range cfg.Sources {
			if s.Name == name {
				return s
			}
		}
	}
	if len(cfg.Sources) > 0 {
		return cfg.Sources[0]
	}
	return cfg.DataSheet
}

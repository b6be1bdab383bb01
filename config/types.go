package config

// ServerConfig contains server configuration
type ServerConfig struct {
	Port           int `yaml:"port" validate:"gt=0"`
	ReadTimeoutMS  int `yaml:"readTimeoutMS" validate:"gte=0"`
	WriteTimeoutMS int `yaml:"writeTimeoutMS" validate:"gte=0"`
}

// DataSheetConfig describes where the route/stop data sheet comes from
type DataSheetConfig struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path" validate:"required_without=URL"`
	URL       string `yaml:"url" validate:"omitempty,url"`
	CachePath string `yaml:"cachePath"`
	Watch     bool   `yaml:"watch"` // reload when Path changes
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// MergeConfig tunes the branched stop list merge
type MergeConfig struct {
	OffsetStrategy         string `yaml:"offsetStrategy" validate:"omitempty,oneof=matchIndex afterMatch"`
	MergeToFrontIfNotFound *bool  `yaml:"mergeToFrontIfNotFound"`
}

// WidgetConfig contains precompute settings
type WidgetConfig struct {
	Language string `yaml:"language" validate:"omitempty,oneof=zh en"`
	Compress bool   `yaml:"compress"`
	Workers  int    `yaml:"workers" validate:"gte=0"`
}

// StoreConfig contains persistence settings
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig      `yaml:"server" validate:"required"`
	DataSheet DataSheetConfig   `yaml:"dataSheet"`
	Sources   []DataSheetConfig `yaml:"sources"`
	Merge     MergeConfig       `yaml:"merge"`
	Widget    WidgetConfig      `yaml:"widget"`
	Store     StoreConfig       `yaml:"store"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// MergeToFront returns the configured flag, true when unset.
func (m MergeConfig) MergeToFront() bool {
	return m.MergeToFrontIfNotFound == nil || *m.MergeToFrontIfNotFound
}

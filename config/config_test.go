package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig_Defaults tests that an almost empty file is filled with defaults
func TestConfig_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("dataSheet:\n  path: data.json\n"))
	require.NoError(t, err)

	assert.Equal(t, 16181, cfg.Server.Port)
	assert.Equal(t, "matchIndex", cfg.Merge.OffsetStrategy)
	assert.True(t, cfg.Merge.MergeToFront())
	assert.Equal(t, "en", cfg.Widget.Language)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "data.json", cfg.DataSheet.Path)

	t.Logf("✓ Defaults applied: port=%d strategy=%s", cfg.Server.Port, cfg.Merge.OffsetStrategy)
}

// TestConfig_LoadFromFile tests loading an explicit config path
func TestConfig_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
server:
  port: 8080
merge:
  offsetStrategy: afterMatch
  mergeToFrontIfNotFound: false
widget:
  language: zh
  compress: true
sources:
  - name: main
    path: /data/main.json
  - name: mirror
    url: https://data.hkbuseta.com/data.json.gz
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "afterMatch", cfg.Merge.OffsetStrategy)
	assert.False(t, cfg.Merge.MergeToFront())
	assert.Equal(t, "zh", cfg.Widget.Language)
	assert.True(t, cfg.Widget.Compress)

	assert.Equal(t, "https://data.hkbuseta.com/data.json.gz", cfg.SelectSource("mirror").URL)
	assert.Equal(t, "/data/main.json", cfg.SelectSource("unknown").Path)
}

// TestConfig_SelectSourceFallsBackToDataSheet tests the top-level section fallback
func TestConfig_SelectSourceFallsBackToDataSheet(t *testing.T) {
	cfg := AppConfig{DataSheet: DataSheetConfig{Path: "sheet.json"}}
	assert.Equal(t, "sheet.json", cfg.SelectSource("any").Path)
}

// TestConfig_MissingFile tests error handling for missing config
func TestConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoConfig)

	t.Logf("✓ Missing config returns error: %v", err)
}

// TestConfig_InvalidYAML tests error handling for invalid YAML
func TestConfig_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("invalid: yaml: content: [[["))
	assert.Error(t, err)
}

// TestConfig_Validation tests rejected values
func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"bad strategy", "merge:\n  offsetStrategy: nearest\n", ErrInvalidStrategy},
		{"bad port", "server:\n  port: -1\n", nil},
		{"bad language", "widget:\n  language: fr\n", nil},
		{"bad log format", "logging:\n  format: xml\n", nil},
		{"source without path or url", "sources:\n  - name: empty\n", nil},
		{"source with bad url", "sources:\n  - name: x\n    url: not a url\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

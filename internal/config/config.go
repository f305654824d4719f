package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (BOOKMAP_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables. The first underscore separates the
	// section from the key: BOOKMAP_SERVER_UPLOADS_DIR -> server.uploads_dir.
	if err := k.Load(env.Provider("BOOKMAP_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BOOKMAP_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.DataDir == "" {
		return fmt.Errorf("server data_dir is required")
	}
	if c.Server.UploadsDir == "" {
		return fmt.Errorf("server uploads_dir is required")
	}
	if c.Server.PagesDir == "" {
		return fmt.Errorf("server pages_dir is required")
	}
	if c.Geocoder.BaseURL == "" {
		return fmt.Errorf("geocoder base_url is required")
	}
	if c.Map.DebounceMs < 0 || c.Map.SearchDebounceMs < 0 || c.Map.FlyToSettleMs < 0 {
		return fmt.Errorf("map debounce intervals must be non-negative")
	}
	if c.Map.PaddingDeg < 0 {
		return fmt.Errorf("map padding_deg must be non-negative")
	}
	if c.Reader.SpreadMinWidth <= 0 || c.Reader.SpreadMinHeight <= 0 {
		return fmt.Errorf("reader spread thresholds must be positive")
	}
	if c.Reader.ThumbnailWidth <= 0 {
		return fmt.Errorf("reader thumbnail_width must be positive")
	}
	return nil
}

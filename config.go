package xwin

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes the window to create.
//
// Min/Max dimensions are part of the portable surface but are not
// supported by the X11 backend; constructing a window with any of them
// set is a programming error, not a recoverable failure.
type Config struct {
	Width  uint16 `yaml:"width"`
	Height uint16 `yaml:"height"`

	MinWidth  uint16 `yaml:"min_width"`
	MinHeight uint16 `yaml:"min_height"`
	MaxWidth  uint16 `yaml:"max_width"`
	MaxHeight uint16 `yaml:"max_height"`

	// Monitor selects fullscreen on the given monitor id. Nil means a
	// regular windowed surface.
	Monitor *int `yaml:"monitor"`

	Transparent bool   `yaml:"transparent"`
	Visible     bool   `yaml:"visible"`
	Title       string `yaml:"title"`
}

// DefaultConfig returns the baseline window configuration: an 800x600
// visible window with no fullscreen monitor.
func DefaultConfig() Config {
	return Config{
		Width:   800,
		Height:  600,
		Visible: true,
		Title:   "xwin",
	}
}

// LoadConfig reads a YAML window configuration, overlaying it on the
// defaults so absent keys keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Width == 0 {
		cfg.Width = 800
	}
	if cfg.Height == 0 {
		cfg.Height = 600
	}
	return cfg, nil
}

// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// MaxVisibleLimit is the hard cap on simultaneously visible notifications.
const MaxVisibleLimit = 7

// Default configuration values.
const (
	DefaultWidth        = 300
	DefaultHeight       = 65
	DefaultPadding      = 10
	DefaultDisplayTime  = 5 * time.Second
	DefaultContentReady = 5 * time.Second
	DefaultAnimation    = 150 * time.Millisecond
	DefaultAnimStep     = 5 * time.Millisecond
	DefaultTemplate     = "default"
)

// Config represents the toastd configuration.
// Loaded from ~/.config/toastd/toastd.toml
type Config struct {
	Display   DisplayConfig   `toml:"display" yaml:"display"`
	Timeouts  TimeoutConfig   `toml:"timeouts" yaml:"timeouts"`
	Animation AnimationConfig `toml:"animation" yaml:"animation"`
	Content   ContentConfig   `toml:"content" yaml:"content"`
}

// DisplayConfig contains slot sizing and placement settings.
type DisplayConfig struct {
	Width      int `toml:"width" yaml:"width"`             // Slot width in pixels
	Height     int `toml:"height" yaml:"height"`           // Slot height in pixels
	Padding    int `toml:"padding" yaml:"padding"`         // Gap added to each slot dimension
	OffsetX    int `toml:"offset_x" yaml:"offset_x"`       // Anchor offset from the right edge
	OffsetY    int `toml:"offset_y" yaml:"offset_y"`       // Anchor offset from the bottom edge
	MaxVisible int `toml:"max_visible" yaml:"max_visible"` // Upper bound, never above MaxVisibleLimit
}

// TimeoutConfig contains timeout settings.
// Durations can be specified as "5s", "10s", "1m", etc. or as integer milliseconds.
type TimeoutConfig struct {
	DisplayTime  Duration `toml:"display_time" yaml:"display_time"`   // Default auto-dismiss, 0 = never
	ContentReady Duration `toml:"content_ready" yaml:"content_ready"` // Reveal anyway after this long
}

// AnimationConfig controls the slide animation used when slots are backfilled.
type AnimationConfig struct {
	Duration Duration `toml:"duration" yaml:"duration"` // Total slide time, 0 = jump
	Step     Duration `toml:"step" yaml:"step"`         // Interval between frames
}

// ContentConfig contains settings for the toast content.
type ContentConfig struct {
	Template string `toml:"template" yaml:"template"` // Embedded template name or path to an XML file
	Icon     string `toml:"icon" yaml:"icon"`         // Default icon name or path
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Padding:    DefaultPadding,
			MaxVisible: MaxVisibleLimit,
		},
		Timeouts: TimeoutConfig{
			DisplayTime:  Duration(DefaultDisplayTime),
			ContentReady: Duration(DefaultContentReady),
		},
		Animation: AnimationConfig{
			Duration: Duration(DefaultAnimation),
			Step:     Duration(DefaultAnimStep),
		},
		Content: ContentConfig{
			Template: DefaultTemplate,
		},
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Path returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "toastd", "toastd.toml")
}

// TemplatesDir returns the directory searched for user content templates.
func TemplatesDir() string {
	p := Path()
	if p == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(p), "templates")
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Display.Width < 50 || c.Display.Width > 2000 {
		return fmt.Errorf("width must be between 50 and 2000, got %d", c.Display.Width)
	}
	if c.Display.Height < 20 || c.Display.Height > 1000 {
		return fmt.Errorf("height must be between 20 and 1000, got %d", c.Display.Height)
	}
	if c.Display.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", c.Display.Padding)
	}
	if c.Display.OffsetX < 0 || c.Display.OffsetY < 0 {
		return fmt.Errorf("offsets must not be negative, got %d,%d", c.Display.OffsetX, c.Display.OffsetY)
	}
	if c.Display.MaxVisible < 1 || c.Display.MaxVisible > MaxVisibleLimit {
		return fmt.Errorf("max_visible must be between 1 and %d, got %d", MaxVisibleLimit, c.Display.MaxVisible)
	}

	if c.Timeouts.DisplayTime < 0 {
		return fmt.Errorf("display_time must not be negative, got %s", c.Timeouts.DisplayTime)
	}
	if c.Timeouts.ContentReady <= 0 {
		return fmt.Errorf("content_ready must be positive, got %s", c.Timeouts.ContentReady)
	}

	if c.Animation.Duration < 0 {
		return fmt.Errorf("animation duration must not be negative, got %s", c.Animation.Duration)
	}
	if c.Animation.Duration > 0 && c.Animation.Step < Duration(time.Millisecond) {
		return fmt.Errorf("animation step must be at least 1ms, got %s", c.Animation.Step)
	}

	return nil
}

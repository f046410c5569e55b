// Package config handles configuration loading and validation for menukit.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete library configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Theme configuration for light/dark synchronization.
	Theme ThemeConfig `toml:"theme" json:"theme" yaml:"theme"`

	// Popup configuration for context menu placement.
	Popup PopupConfig `toml:"popup" json:"popup" yaml:"popup"`

	// Menu configuration for declarative definitions.
	Menu MenuConfig `toml:"menu" json:"menu" yaml:"menu"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// ThemeConfig holds theme synchronization configuration.
type ThemeConfig struct {
	// Default is the theme applied to windows without an explicit
	// override: "system", "light", or "dark".
	Default string `toml:"default" json:"default" yaml:"default"`

	// WatchSystem enables reacting to OS theme-change broadcasts.
	WatchSystem bool `toml:"watch_system" json:"watch_system" yaml:"watch_system"`
}

// PopupConfig holds context menu placement configuration.
type PopupConfig struct {
	// Align is the horizontal anchor relative to the requested point:
	// "left", "center", or "right".
	Align string `toml:"align" json:"align" yaml:"align"`

	// Button is the mouse button that selects items while tracking:
	// "right" or "left".
	Button string `toml:"button" json:"button" yaml:"button"`

	// OffsetX and OffsetY nudge the menu away from the requested point,
	// in pixels.
	OffsetX int `toml:"offset_x" json:"offset_x" yaml:"offset_x"`
	OffsetY int `toml:"offset_y" json:"offset_y" yaml:"offset_y"`
}

// MenuConfig holds declarative menu definition configuration.
type MenuConfig struct {
	// DefinitionPath is an optional JSON or YAML menu definition loaded
	// at startup.
	DefinitionPath string `toml:"definition_path" json:"definition_path" yaml:"definition_path"`

	// BaseCommandID is the first native command identifier assigned when
	// building a menu from a definition.
	BaseCommandID int `toml:"base_command_id" json:"base_command_id" yaml:"base_command_id"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", or a file path.
	Output string `toml:"output" json:"output" yaml:"output"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Theme: ThemeConfig{
			Default:     "system",
			WatchSystem: true,
		},
		Popup: PopupConfig{
			Align:  "left",
			Button: "right",
		},
		Menu: MenuConfig{
			BaseCommandID: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path. If the file doesn't
// exist, returns default configuration. Supports TOML, JSON, and YAML
// formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// loadConfigFromFile reads and parses a config file based on its extension.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()

	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		// Try TOML by default
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode config (unknown format): %w", err)
		}
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables are prefixed with MENUKIT_.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("MENUKIT_THEME"); v != "" {
		c.Theme.Default = v
	}
	if v := os.Getenv("MENUKIT_MENU_PATH"); v != "" {
		c.Menu.DefinitionPath = v
	}
	if v := os.Getenv("MENUKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MENUKIT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := Config{
		Version: c.Version,
		Theme:   c.Theme,
		Popup:   c.Popup,
		Menu:    c.Menu,
		Logging: c.Logging,
	}
	return &clone
}

// SaveConfig writes the configuration to the specified path as TOML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// LoadOrCreate loads the configuration from the specified path, creating a
// default configuration file if it doesn't exist. The bool reports whether
// a new file was written.
func LoadOrCreate(path string) (*Config, bool, error) {
	if path == "" {
		path = ConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, path); err != nil {
			return nil, false, fmt.Errorf("create default config: %w", err)
		}
		return cfg, true, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

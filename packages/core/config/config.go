package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the dotrun configuration
type Config struct {
	Command []string          `yaml:"command,omitempty"`
	Format  string            `yaml:"format,omitempty"` // go, tap or junit
	Dir     string            `yaml:"dir,omitempty"`
	EnvFile string            `yaml:"envFile,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	NoColor *bool             `yaml:"noColor,omitempty"`
	Bail    *bool             `yaml:"bail,omitempty"`
	Quiet   *bool             `yaml:"quiet,omitempty"`
	Watch   *WatchConfig      `yaml:"watch,omitempty"`
}

// WatchConfig configures re-running on file changes
type WatchConfig struct {
	Paths            []string `yaml:"paths,omitempty"`
	Extensions       []string `yaml:"extensions,omitempty"`
	Debounce         string   `yaml:"debounce,omitempty"` // duration, e.g. 300ms
	MaxRunsPerMinute int      `yaml:"maxRunsPerMinute,omitempty"`
}

// BoolPtr returns a pointer to b, for setting optional flags.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetQuiet returns the quiet setting, defaulting to false
func (c *Config) GetQuiet() bool {
	return getBool(c.Quiet, false)
}

// GetWatch returns the watch settings with defaults filled in
func (c *Config) GetWatch() *WatchConfig {
	w := DefaultWatchConfig()
	if c.Watch == nil {
		return w
	}
	if len(c.Watch.Paths) > 0 {
		w.Paths = c.Watch.Paths
	}
	if len(c.Watch.Extensions) > 0 {
		w.Extensions = c.Watch.Extensions
	}
	if c.Watch.Debounce != "" {
		w.Debounce = c.Watch.Debounce
	}
	if c.Watch.MaxRunsPerMinute > 0 {
		w.MaxRunsPerMinute = c.Watch.MaxRunsPerMinute
	}
	return w
}

// DebounceDuration parses Debounce, falling back to DefaultDebounce.
func (w *WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return DefaultDebounce, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid watch debounce %q: %w", w.Debounce, err)
	}
	return d, nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".dotrun.yaml",
	".dotrun.yml",
	"dotrun.yaml",
	"dotrun.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(config.Command) == 0 {
		config.Command = DefaultCommand()
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if len(other.Command) > 0 {
		result.Command = other.Command
	}
	if other.Format != "" {
		result.Format = other.Format
	}
	if other.Dir != "" {
		result.Dir = other.Dir
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Quiet != nil {
		result.Quiet = other.Quiet
	}
	if other.Watch != nil {
		result.Watch = other.Watch
	}

	// Merge env
	if len(other.Env) > 0 {
		env := make(map[string]string, len(c.Env)+len(other.Env))
		for k, v := range c.Env {
			env[k] = v
		}
		for k, v := range other.Env {
			env[k] = v
		}
		result.Env = env
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

package config

import "time"

const (
	// DefaultFormat is the result stream format of DefaultCommand
	DefaultFormat = "go"
	// DefaultDebounce is the quiet period before a watch re-run
	DefaultDebounce = 300 * time.Millisecond
	// DefaultMaxRunsPerMinute caps watch re-runs
	DefaultMaxRunsPerMinute = 30
)

// DefaultCommand returns the test command used when none is configured
func DefaultCommand() []string {
	return []string{"go", "test", "-json", "./..."}
}

// DefaultWatchConfig returns watch settings suitable for a Go module
func DefaultWatchConfig() *WatchConfig {
	return &WatchConfig{
		Paths:            []string{"."},
		Extensions:       []string{".go"},
		Debounce:         DefaultDebounce.String(),
		MaxRunsPerMinute: DefaultMaxRunsPerMinute,
	}
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Command: DefaultCommand(),
		Format:  DefaultFormat,
		NoColor: BoolPtr(false),
		Bail:    BoolPtr(false),
		Quiet:   BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	if len(c.Command) != len(defaults.Command) {
		return false
	}
	for i := range c.Command {
		if c.Command[i] != defaults.Command[i] {
			return false
		}
	}
	return c.Format == defaults.Format &&
		c.Dir == "" &&
		c.EnvFile == "" &&
		len(c.Env) == 0 &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.GetBail() == defaults.GetBail() &&
		c.GetQuiet() == defaults.GetQuiet() &&
		c.Watch == nil
}

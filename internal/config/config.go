package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete drawbridge configuration
type Config struct {
	Bridge     BridgeConfig     `mapstructure:"bridge" yaml:"bridge"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	TUI        TUIConfig        `mapstructure:"tui" yaml:"tui"`
}

// BridgeConfig controls the crossing policy
type BridgeConfig struct {
	// CritShips is the number of waiting ships that raises the bridge (default: 3)
	CritShips int `mapstructure:"crit_ships" yaml:"crit_ships" validate:"gte=1,lte=1000"`
}

// SimulationConfig controls the arrival plan and actor timing
type SimulationConfig struct {
	// Cars and Ships size a single shuffled wave when Waves is empty
	Cars  int `mapstructure:"cars" yaml:"cars" validate:"gte=0"`
	Ships int `mapstructure:"ships" yaml:"ships" validate:"gte=0"`
	// Waves lists explicit arrival waves in c/s notation, e.g. "cccss"
	Waves []string `mapstructure:"waves" yaml:"waves" validate:"dive,wave"`
	// Original replays the classroom schedule and ignores Cars, Ships and Waves
	Original bool `mapstructure:"original" yaml:"original"`
	// WaveGapMs is the pause between waves in milliseconds
	WaveGapMs int `mapstructure:"wave_gap_ms" yaml:"wave_gap_ms" validate:"gte=0"`
	// MinDelayMs and MaxDelayMs bound how long an actor holds the crossing
	MinDelayMs int `mapstructure:"min_delay_ms" yaml:"min_delay_ms" validate:"gte=0"`
	MaxDelayMs int `mapstructure:"max_delay_ms" yaml:"max_delay_ms" validate:"gtefield=MinDelayMs"`
	// Seed drives the population shuffle and crossing delays
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
	// TimeoutSeconds cancels the run after this long (0 = no timeout)
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
	// Drain lets ships short of the threshold cross once all cars are done
	Drain bool `mapstructure:"drain" yaml:"drain"`
	// Verify checks the recorded trace against the crossing rules
	Verify bool `mapstructure:"verify" yaml:"verify"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	// Format is the handler format: "json" or "text" (default: "text")
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
	// File receives log output; empty means stderr
	File string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Listen is the host:port for /metrics; empty disables the server
	Listen string `mapstructure:"listen" yaml:"listen" validate:"omitempty,hostname_port"`
}

// TUIConfig controls the live terminal view
type TUIConfig struct {
	// Enabled runs simulate with the live view instead of the event printer
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// EventLines is how many recent events the view keeps on screen
	EventLines int `mapstructure:"event_lines" yaml:"event_lines" validate:"gte=1,lte=100"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			CritShips: 3,
		},
		Simulation: SimulationConfig{
			Cars:           15,
			Ships:          4,
			WaveGapMs:      3000,
			MinDelayMs:     500,
			MaxDelayMs:     1000,
			Seed:           1,
			TimeoutSeconds: 0,
			Drain:          true,
			Verify:         false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		TUI: TUIConfig{
			EventLines: 12,
		},
	}
}

// MinDelay returns the minimum crossing time as a time.Duration
func (c *SimulationConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

// MaxDelay returns the maximum crossing time as a time.Duration
func (c *SimulationConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}

// WaveGap returns the pause between waves as a time.Duration
func (c *SimulationConfig) WaveGap() time.Duration {
	return time.Duration(c.WaveGapMs) * time.Millisecond
}

// Timeout returns the run timeout as a time.Duration (0 means none)
func (c *SimulationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Bridge defaults
	viper.SetDefault("bridge.crit_ships", defaults.Bridge.CritShips)

	// Simulation defaults
	viper.SetDefault("simulation.cars", defaults.Simulation.Cars)
	viper.SetDefault("simulation.ships", defaults.Simulation.Ships)
	viper.SetDefault("simulation.waves", defaults.Simulation.Waves)
	viper.SetDefault("simulation.original", defaults.Simulation.Original)
	viper.SetDefault("simulation.wave_gap_ms", defaults.Simulation.WaveGapMs)
	viper.SetDefault("simulation.min_delay_ms", defaults.Simulation.MinDelayMs)
	viper.SetDefault("simulation.max_delay_ms", defaults.Simulation.MaxDelayMs)
	viper.SetDefault("simulation.seed", defaults.Simulation.Seed)
	viper.SetDefault("simulation.timeout_seconds", defaults.Simulation.TimeoutSeconds)
	viper.SetDefault("simulation.drain", defaults.Simulation.Drain)
	viper.SetDefault("simulation.verify", defaults.Simulation.Verify)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.file", defaults.Logging.File)

	// Metrics defaults
	viper.SetDefault("metrics.listen", defaults.Metrics.Listen)

	// TUI defaults
	viper.SetDefault("tui.enabled", defaults.TUI.Enabled)
	viper.SetDefault("tui.event_lines", defaults.TUI.EventLines)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "drawbridge")
	}
	// Fall back to ~/.config/drawbridge
	home, err := os.UserHomeDir()
	if err != nil {
		return ".drawbridge"
	}
	return filepath.Join(home, ".config", "drawbridge")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

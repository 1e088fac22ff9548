// Package config provides configuration loading for pulsesim.
// It supports loading from a YAML file and environment variables; command
// line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults. These match the engine's own defaults.
const (
	DefaultPresses    = 1000
	DefaultMaxPresses = 100_000
	DefaultMaxPulses  = 1_000_000
	DefaultSink       = "rx"
)

// Config contains all pulsesim configuration settings.
type Config struct {
	// Simulation contains settings for count runs.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Horizon contains settings for long-horizon queries.
	Horizon HorizonConfig `json:"horizon" yaml:"horizon"`

	// Store contains settings for run recording.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig configures trigger runs.
type SimulationConfig struct {
	// Presses is how many triggers count runs by default.
	Presses int `json:"presses" yaml:"presses"`

	// MaxPulses bounds the pulses one trigger may deliver.
	MaxPulses int `json:"max_pulses" yaml:"max_pulses"`
}

// HorizonConfig configures the horizon detector.
type HorizonConfig struct {
	// Sink is the sink to query when none is given on the command line.
	Sink string `json:"sink" yaml:"sink"`

	// MaxPresses is how many triggers the detector runs before giving up.
	MaxPresses int64 `json:"max_presses" yaml:"max_presses"`
}

// StoreConfig configures the SQLite run store.
type StoreConfig struct {
	// Path of the database. Empty disables recording.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Record stores full pulse traces, not just per-press summaries.
	Record bool `json:"record" yaml:"record"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of "debug", "info" (default), "warn" or "error".
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Presses:   DefaultPresses,
			MaxPulses: DefaultMaxPulses,
		},
		Horizon: HorizonConfig{
			Sink:       DefaultSink,
			MaxPresses: DefaultMaxPresses,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the configuration for path, or the defaults when path is
// empty. Order: defaults -> file -> environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileConfig
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults. Unknown keys are rejected.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Store.Path = expandEnvVars(cfg.Store.Path)

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Simulation.Presses < 0 {
		return fmt.Errorf("presses must be non-negative, got %d", c.Simulation.Presses)
	}
	if c.Simulation.MaxPulses <= 0 {
		return fmt.Errorf("max_pulses must be positive, got %d", c.Simulation.MaxPulses)
	}
	if c.Horizon.MaxPresses <= 0 {
		return fmt.Errorf("max_presses must be positive, got %d", c.Horizon.MaxPresses)
	}
	if c.Store.Record && c.Store.Path == "" {
		return fmt.Errorf("record requires a store path")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a config level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", s)
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PULSESIM_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("PULSESIM_RECORD"); v != "" {
		cfg.Store.Record = v == "true" || v == "1"
	}
	if v := os.Getenv("PULSESIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PULSESIM_MAX_PULSES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PULSESIM_MAX_PULSES: %w", err)
		}
		cfg.Simulation.MaxPulses = n
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

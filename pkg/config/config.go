// Package config holds the runner configuration shared by the transports
// and the built-in collectors.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that serializes as a human-readable string
// like "30s" or "200ms".
type Duration time.Duration

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the plugin runner configuration. Every blocking wait a
// collector performs is bounded by one of these knobs; ExecuteTimeout is
// the registry-level backstop around a whole invocation.
type Config struct {
	// HTTP surface
	Address         string   `yaml:"address"`
	Port            int      `yaml:"port"`
	RateLimit       float64  `yaml:"rate_limit"`       // requests per second
	RateLimitBurst  int      `yaml:"rate_limit_burst"` // burst size
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// Invocation bounds
	ExecuteTimeout  Duration `yaml:"execute_timeout"` // 0 disables the registry deadline
	CPUSampleWindow Duration `yaml:"cpu_sample_window"`
	LookupTimeout   Duration `yaml:"lookup_timeout"`
	ProbeTimeout    Duration `yaml:"probe_timeout"`
	ProbeAddress    string   `yaml:"probe_address"`

	// Collector toggles
	DisableSystemd    bool `yaml:"disable_systemd"`
	DisableKubernetes bool `yaml:"disable_kubernetes"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns sensible defaults, with environment overrides for
// the knobs commonly set in container deployments.
func DefaultConfig() *Config {
	cfg := &Config{
		Address:         "",
		Port:            8080,
		RateLimit:       100,
		RateLimitBurst:  200,
		ReadTimeout:     Duration(10 * time.Second),
		WriteTimeout:    Duration(30 * time.Second),
		IdleTimeout:     Duration(120 * time.Second),
		ShutdownTimeout: Duration(30 * time.Second),
		ExecuteTimeout:  Duration(30 * time.Second),
		CPUSampleWindow: Duration(200 * time.Millisecond),
		LookupTimeout:   Duration(3 * time.Second),
		ProbeTimeout:    Duration(3 * time.Second),
		ProbeAddress:    "8.8.8.8:53",
		LogLevel:        slog.LevelInfo.String(),
	}

	if portStr := os.Getenv("FACTSD_PORT"); portStr != "" {
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err == nil {
			cfg.Port = port
		}
	}

	if logLevelStr := os.Getenv("FACTSD_LOG_LEVEL"); logLevelStr != "" {
		cfg.LogLevel = logLevelStr
	}

	return cfg
}

// Load reads the configuration file over the defaults. A missing path is
// not an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config file not found, using defaults", slog.String("path", path))
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}

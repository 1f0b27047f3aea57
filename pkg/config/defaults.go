package config

import (
	"strings"
	"time"

	"github.com/marmos91/tnfsd/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Default Strategy:
//   - Zero values (0, "", false) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 16384
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 600 * time.Second
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = 64
	}
	if cfg.MaxHandlesPerSession == 0 {
		cfg.MaxHandlesPerSession = 32
	}
	if cfg.ReadBlockMax == 0 {
		cfg.ReadBlockMax = bytesize.ByteSize(512)
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics); no listen address
	// unless the operator sets one.
	if cfg.Enabled && cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files and tests. The
// Root field is left blank; callers must supply a root directory via flag,
// config file, or environment variable before the server can start.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

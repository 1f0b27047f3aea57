package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 16384 {
		t.Errorf("Port = %d, want 16384", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 600*time.Second {
		t.Errorf("IdleTimeout = %v, want 600s", cfg.Server.IdleTimeout)
	}
	if cfg.Server.SweepInterval != 30*time.Second {
		t.Errorf("SweepInterval = %v, want 30s", cfg.Server.SweepInterval)
	}
	if cfg.Server.MaxSessions != 64 {
		t.Errorf("MaxSessions = %d, want 64", cfg.Server.MaxSessions)
	}
	if cfg.Server.MaxHandlesPerSession != 32 {
		t.Errorf("MaxHandlesPerSession = %d, want 32", cfg.Server.MaxHandlesPerSession)
	}
	if cfg.Server.ReadBlockMax != 512 {
		t.Errorf("ReadBlockMax = %d, want 512", cfg.Server.ReadBlockMax)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        9999,
			IdleTimeout: 10 * time.Second,
		},
	}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999 preserved", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 10*time.Second {
		t.Errorf("IdleTimeout = %v, want 10s preserved", cfg.Server.IdleTimeout)
	}
	// Untouched fields still get filled in.
	if cfg.Server.MaxSessions != 64 {
		t.Errorf("MaxSessions = %d, want 64", cfg.Server.MaxSessions)
	}
}

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Level = %q, want INFO", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Output = %q, want stdout", cfg.Logging.Output)
	}
}

func TestApplyDefaults_LoggingLevelNormalizedToUpper(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Level = %q, want DEBUG", cfg.Logging.Level)
	}
}

func TestApplyDefaults_MetricsAddrOnlySetWhenEnabled(t *testing.T) {
	disabled := &Config{}
	ApplyDefaults(disabled)
	if disabled.Metrics.Addr != "" {
		t.Errorf("Addr = %q, want empty when metrics disabled", disabled.Metrics.Addr)
	}

	enabled := &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(enabled)
	if enabled.Metrics.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090 when metrics enabled with no explicit addr", enabled.Metrics.Addr)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	if cfg.Server.Port != 16384 {
		t.Errorf("Port = %d, want 16384", cfg.Server.Port)
	}
	if cfg.Server.Root != "" {
		t.Errorf("Root = %q, want empty (must be supplied explicitly)", cfg.Server.Root)
	}
}

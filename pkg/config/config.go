package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/tnfsd/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the tnfsd daemon configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (TNFSD_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// An environment variable overrides only a key that the configuration
// file also sets; when no configuration file is found, LoadUnvalidated
// returns the built-in defaults and reads no TNFSD_* variables.
type Config struct {
	// Server controls the TNFS listener and session behavior.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig controls the UDP listener, the exported root, and session
// bookkeeping.
type ServerConfig struct {
	// Root is the directory exposed to clients. All client-supplied paths
	// are resolved and confined underneath it.
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	// Port is the UDP port to listen on.
	// Default: 16384
	Port int `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`

	// IdleTimeout is how long a session may go without a request before it
	// is reclaimed by the reaper.
	// Default: 600s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"required,gt=0" yaml:"idle_timeout"`

	// SweepInterval is how often the reaper scans the session table for
	// idle sessions.
	// Default: 30s
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required,gt=0" yaml:"sweep_interval"`

	// MaxSessions caps the number of concurrently mounted sessions.
	// Default: 64
	MaxSessions int `mapstructure:"max_sessions" validate:"required,gt=0" yaml:"max_sessions"`

	// MaxHandlesPerSession caps the number of open file and directory
	// handles a single session may hold at once.
	// Default: 32
	MaxHandlesPerSession int `mapstructure:"max_handles_per_session" validate:"required,gt=0" yaml:"max_handles_per_session"`

	// ReadBlockMax is the largest number of bytes a single read-block
	// reply returns; write blocks are not limited by it. Supports
	// human-readable sizes like "512B" or "1Ki".
	// Default: 512B
	ReadBlockMax bytesize.ByteSize `mapstructure:"read_block_max" validate:"required" yaml:"read_block_max"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
// When Enabled is false, no metrics are collected and no server is started.
type MetricsConfig struct {
	// Enabled controls whether the /metrics HTTP server runs.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Addr is the listen address for the metrics endpoint, e.g. ":9090".
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}

// Load loads configuration from file, environment, and defaults, then
// validates the result.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	cfg, err := LoadUnvalidated(configPath)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated loads and defaults configuration from file and
// environment without validating it. Callers that still need to inject
// values after loading (e.g. a CLI positional argument that supplies the
// required server root) should call Validate themselves once those
// values are in place.
func LoadUnvalidated(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions
// if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please create one, or pass a root directory directly:\n"+
				"  tnfsd /path/to/export\n\n"+
				"Or specify a custom config file:\n"+
				"  tnfsd --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML
// format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use TNFSD_ prefix and underscores.
	// Example: TNFSD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("TNFSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was
// found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
// This includes ByteSize and time.Duration parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts strings
// and integers to bytesize.ByteSize. This enables config files to use
// human-readable sizes like "512B", "1Ki", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable
// durations like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tnfsd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "tnfsd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default
// location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}

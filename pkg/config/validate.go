package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a Config for structural and semantic errors beyond what
// struct tags express: the root directory must exist and be a directory,
// and MaxHandlesPerSession must fit in the single-byte handle space the
// wire protocol uses.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	info, err := os.Stat(cfg.Server.Root)
	if err != nil {
		return fmt.Errorf("server root %q: %w", cfg.Server.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("server root %q is not a directory", cfg.Server.Root)
	}

	if cfg.Server.MaxHandlesPerSession > 255 {
		return fmt.Errorf("max_handles_per_session %d exceeds the 255 handles a session can address", cfg.Server.MaxHandlesPerSession)
	}

	return nil
}

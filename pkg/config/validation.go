package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid values.
//
// Struct-level rules (validate tags) cover log levels, formats, port
// ranges and timeouts; backend-specific rules are delegated to the
// database configuration itself.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	if cfg.Storage.Root == "" {
		return fmt.Errorf("storage root is required")
	}

	return nil
}

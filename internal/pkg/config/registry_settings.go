package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegistrySettings holds configuration for the operation registry
type RegistrySettings struct {
	VerifyInvariants bool   `mapstructure:"verify_invariants"`
	MetricsNamespace string `mapstructure:"metrics_namespace" validate:"required,alphanum"`
}

// Validate checks that all fields in RegistrySettings are valid
func (s *RegistrySettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for RegistrySettings: %w", err)
	}
	return nil
}

// EngineSettings holds configuration for the simulated crypto engine
type EngineSettings struct {
	Slots int `mapstructure:"slots" validate:"min=1,max=1024"`
}

// Validate checks that all fields in EngineSettings are valid
func (s *EngineSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for EngineSettings: %w", err)
	}
	return nil
}

// ServiceSettings holds configuration for the operation dispatcher
type ServiceSettings struct {
	MaxPruneAttempts int `mapstructure:"max_prune_attempts" validate:"min=1,max=64"`
}

// Validate checks that all fields in ServiceSettings are valid
func (s *ServiceSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for ServiceSettings: %w", err)
	}
	return nil
}

// DiagnosticsSettings holds configuration for the diagnostics HTTP endpoint
type DiagnosticsSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port" validate:"required,numeric"`
}

// Validate checks that all fields in DiagnosticsSettings are valid
func (s *DiagnosticsSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for DiagnosticsSettings: %w", err)
	}
	return nil
}

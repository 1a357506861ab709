package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding file settings,
// e.g. OPMAP_ENGINE_SLOTS overrides engine.slots.
const EnvPrefix = "OPMAP"

// AppConfig aggregates all settings of the operation map daemon
type AppConfig struct {
	Logger      LoggerSettings      `mapstructure:"logger"`
	Registry    RegistrySettings    `mapstructure:"registry"`
	Engine      EngineSettings      `mapstructure:"engine"`
	Service     ServiceSettings     `mapstructure:"service"`
	Diagnostics DiagnosticsSettings `mapstructure:"diagnostics"`
}

// Validate checks every settings section
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Service.Validate(); err != nil {
		return err
	}
	if c.Diagnostics.Enabled {
		if err := c.Diagnostics.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig reads the configuration file at path (optional, may be empty), applies
// environment overrides and defaults and validates the result.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)
	v.SetDefault("logger.file_path", "")
	v.SetDefault("logger.max_size", 0)
	v.SetDefault("logger.max_backups", 0)
	v.SetDefault("logger.max_age", 0)

	v.SetDefault("registry.verify_invariants", false)
	v.SetDefault("registry.metrics_namespace", "keystore")

	v.SetDefault("engine.slots", 16)

	v.SetDefault("service.max_prune_attempts", 8)

	v.SetDefault("diagnostics.enabled", false)
	v.SetDefault("diagnostics.port", "8090")
}

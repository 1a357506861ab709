package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Log level constants
const (
	LogLevelInfo     = "info"
	LogLevelDebug    = "debug"
	LogLevelError    = "error"
	LogLevelWarning  = "warning"
	LogLevelCritical = "critical"
)

// Log type constants
const (
	LogTypeConsole = "console"
	LogTypeFile    = "file"
)

// LoggerSettings holds configuration settings for logging, including log level, type and file rotation
type LoggerSettings struct {
	LogLevel   string `mapstructure:"log_level" validate:"required,oneof=info debug error warning critical"`
	LogType    string `mapstructure:"log_type" validate:"required,oneof=console file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Validate checks that all fields in LoggerSettings are valid
func (s *LoggerSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for LoggerSettings: %w", err)
	}

	if s.LogType == LogTypeFile {
		return s.validateFileRotation()
	}
	return nil
}

// validateFileRotation reports every out of range rotation setting at once
func (s *LoggerSettings) validateFileRotation() error {
	var errs []error
	if s.FilePath == "" {
		errs = append(errs, errors.New("file path is required for file logger"))
	}
	if s.MaxSize < 1 || s.MaxSize > 100 {
		errs = append(errs, errors.New("max size must be between 1 and 100 MB"))
	}
	if s.MaxBackups < 1 || s.MaxBackups > 10 {
		errs = append(errs, errors.New("max backups must be between 1 and 10"))
	}
	if s.MaxAge < 1 || s.MaxAge > 365 {
		errs = append(errs, errors.New("max age must be between 1 and 365 days"))
	}
	return errors.Join(errs...)
}

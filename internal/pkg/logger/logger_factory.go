package logger

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
)

var (
	shared     Logger
	sharedErr  error
	sharedOnce sync.Once
)

// levels maps configured level names onto slog levels. slog has no critical level, so
// critical messages are logged as errors.
var levels = map[string]slog.Level{
	config.LogLevelDebug:    slog.LevelDebug,
	config.LogLevelInfo:     slog.LevelInfo,
	config.LogLevelWarning:  slog.LevelWarn,
	config.LogLevelError:    slog.LevelError,
	config.LogLevelCritical: slog.LevelError,
}

// InitLogger builds the process wide logger from settings. Only the first call has an effect;
// later calls return the outcome of the first one.
func InitLogger(settings *config.LoggerSettings) error {
	sharedOnce.Do(func() {
		shared, sharedErr = NewLogger(settings)
	})
	return sharedErr
}

// GetLogger returns the process wide logger.
func GetLogger() (Logger, error) {
	if shared == nil {
		return nil, fmt.Errorf("logger not initialized: call InitLogger first")
	}
	return shared, nil
}

// NewLogger builds a standalone logger from settings without touching the process wide one.
func NewLogger(settings *config.LoggerSettings) (Logger, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger settings: %w", err)
	}

	switch settings.LogType {
	case config.LogTypeConsole:
		return NewConsoleLogger(settings.LogLevel), nil
	case config.LogTypeFile:
		return NewFileLogger(settings.LogLevel, settings.FilePath, settings.MaxSize, settings.MaxBackups, settings.MaxAge), nil
	default:
		return nil, fmt.Errorf("unsupported log type: %s", settings.LogType)
	}
}

func parseLevel(level string) slog.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return slog.LevelInfo
}

func formatArgs(args ...interface{}) string {
	return fmt.Sprint(args...)
}

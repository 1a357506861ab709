package testutil

import (
	"io"
	"testing"

	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/logger"
	"github.com/stretchr/testify/require"
)

// SetupTestLogger sets up the shared logger for testing purposes.
func SetupTestLogger(t *testing.T) logger.Logger {
	t.Helper()

	settings := &config.LoggerSettings{
		LogLevel: config.LogLevelInfo,
		LogType:  config.LogTypeConsole,
	}

	err := logger.InitLogger(settings)
	require.NoError(t, err)

	log, err := logger.GetLogger()
	require.NoError(t, err)

	return log
}

// NewDiscardLogger returns a debug level logger that writes nowhere. Tests exercising
// noisy paths use it instead of the shared console logger.
func NewDiscardLogger(t *testing.T) logger.Logger {
	t.Helper()
	return logger.NewTextLogger(io.Discard, config.LogLevelDebug)
}

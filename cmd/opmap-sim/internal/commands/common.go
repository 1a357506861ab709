package commands

import (
	"fmt"

	"github.com/Fusion-OS/android-system-security/internal/app"
	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/infrastructure/engine"
	"github.com/Fusion-OS/android-system-security/internal/infrastructure/liveness"
	"github.com/Fusion-OS/android-system-security/internal/infrastructure/registry"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// stack holds every wired component of the operation map
type stack struct {
	sessions *liveness.SessionTracker
	registry *registry.OperationRegistry
	engine   *engine.SlotEngine
	service  operations.OperationService
	metrics  *prometheus.Registry
	logger   logger.Logger
}

func setupLogger(settings *config.LoggerSettings) (logger.Logger, error) {
	if err := logger.InitLogger(settings); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loggerInstance, err := logger.GetLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to get logger instance: %w", err)
	}

	return loggerInstance, nil
}

// newStack builds the session tracker, registry, engine and operation service from cfg
func newStack(cfg *config.AppConfig, log logger.Logger) (*stack, error) {
	sessions := liveness.NewSessionTracker(log)

	promRegistry := prometheus.NewRegistry()
	metrics, err := registry.NewMetrics(cfg.Registry.MetricsNamespace, promRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry metrics: %w", err)
	}

	operationRegistry, err := registry.NewOperationRegistry(&cfg.Registry, sessions, metrics, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation registry: %w", err)
	}

	slotEngine, err := engine.NewSlotEngine(&cfg.Engine, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot engine: %w", err)
	}

	service, err := app.NewOperationService(operationRegistry, slotEngine, &cfg.Service, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation service: %w", err)
	}
	operationRegistry.SetReclaimListener(service)

	log.Info("Operation map initialized with ", cfg.Engine.Slots, " engine slots")
	return &stack{
		sessions: sessions,
		registry: operationRegistry,
		engine:   slotEngine,
		service:  service,
		metrics:  promRegistry,
		logger:   log,
	}, nil
}

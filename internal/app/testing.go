//go:build integration
// +build integration

package app

import (
	"testing"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/infrastructure/engine"
	"github.com/Fusion-OS/android-system-security/internal/infrastructure/liveness"
	"github.com/Fusion-OS/android-system-security/internal/infrastructure/registry"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/testutil"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stretchr/testify/require"
)

// Test constants for the in-process engine
const (
	TestEngineSlots      = 4
	TestMaxPruneAttempts = 8
)

// TestServices holds the operation service and every component behind it
type TestServices struct {
	OperationService operations.OperationService

	// Infrastructure
	Registry *registry.OperationRegistry
	Sessions *liveness.SessionTracker
	Engine   *engine.SlotEngine
	Metrics  *prometheus.Registry
}

// SetupTestServices wires a registry, session tracker and slot engine into an operation service
func SetupTestServices(t *testing.T) *TestServices {
	t.Helper()

	logger := testutil.SetupTestLogger(t)

	sessions := liveness.NewSessionTracker(logger)

	promRegistry := prometheus.NewRegistry()
	metrics, err := registry.NewMetrics("keystore", promRegistry)
	require.NoError(t, err, "Failed to create registry metrics")

	registrySettings := &config.RegistrySettings{
		VerifyInvariants: true,
		MetricsNamespace: "keystore",
	}
	operationRegistry, err := registry.NewOperationRegistry(registrySettings, sessions, metrics, logger)
	require.NoError(t, err, "Failed to create OperationRegistry")

	slotEngine, err := engine.NewSlotEngine(&config.EngineSettings{Slots: TestEngineSlots}, logger)
	require.NoError(t, err, "Failed to create SlotEngine")

	operationService, err := NewOperationService(
		operationRegistry,
		slotEngine,
		&config.ServiceSettings{MaxPruneAttempts: TestMaxPruneAttempts},
		logger,
	)
	require.NoError(t, err, "Failed to create OperationService")
	operationRegistry.SetReclaimListener(operationService)

	return &TestServices{
		OperationService: operationService,
		Registry:         operationRegistry,
		Sessions:         sessions,
		Engine:           slotEngine,
		Metrics:          promRegistry,
	}
}

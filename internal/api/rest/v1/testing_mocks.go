//go:build unit
// +build unit

package v1

import (
	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/stretchr/testify/mock"
)

// MockRegistryInspector is a mock implementation of RegistryInspector
type MockRegistryInspector struct {
	mock.Mock
}

func (m *MockRegistryInspector) Stats() operations.Stats {
	args := m.Called()
	return args.Get(0).(operations.Stats)
}

func (m *MockRegistryInspector) GetOperationsForClient(client operations.ClientID) []operations.Token {
	args := m.Called(client)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]operations.Token)
}

func (m *MockRegistryInspector) ReclaimClient(client operations.ClientID) int {
	args := m.Called(client)
	return args.Int(0)
}

func (m *MockRegistryInspector) Verify() error {
	args := m.Called()
	return args.Error(0)
}

//go:build unit
// +build unit

package app

import (
	"context"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/stretchr/testify/mock"
)

// MockEngine is a mock implementation of operations.Engine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Begin(ctx context.Context, params operations.BeginParams) (operations.EngineHandle, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(operations.EngineHandle), args.Error(1)
}

func (m *MockEngine) Update(ctx context.Context, handle operations.EngineHandle, input []byte) ([]byte, error) {
	args := m.Called(ctx, handle, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEngine) Finish(ctx context.Context, handle operations.EngineHandle, input, signature []byte) ([]byte, error) {
	args := m.Called(ctx, handle, input, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEngine) Abort(ctx context.Context, handle operations.EngineHandle) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

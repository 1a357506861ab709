//go:build unit
// +build unit

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/infrastructure/registry"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var signParams = operations.BeginParams{KeyAlias: "attestation", Purpose: operations.PurposeSign, Pruneable: true}

func newTestService(t *testing.T, engine operations.Engine, maxPruneAttempts int) (operations.OperationService, *registry.OperationRegistry) {
	t.Helper()

	log := testutil.NewDiscardLogger(t)
	reg, err := registry.NewOperationRegistry(&config.RegistrySettings{VerifyInvariants: true, MetricsNamespace: "test"}, nil, nil, log)
	require.NoError(t, err)

	svc, err := NewOperationService(reg, engine, &config.ServiceSettings{MaxPruneAttempts: maxPruneAttempts}, log)
	require.NoError(t, err)
	reg.SetReclaimListener(svc)
	return svc, reg
}

func TestNewOperationService_Errors(t *testing.T) {
	log := testutil.NewDiscardLogger(t)

	_, err := NewOperationService(nil, new(MockEngine), &config.ServiceSettings{MaxPruneAttempts: 1}, log)
	assert.Error(t, err)

	_, err = NewOperationService(nil, new(MockEngine), &config.ServiceSettings{MaxPruneAttempts: 0}, log)
	assert.Error(t, err)
}

func TestBegin_RegistersOperation(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(7), nil)
	svc, reg := newTestService(t, engine, 4)

	token, err := svc.Begin(context.Background(), "client-a", signParams)
	require.NoError(t, err)

	handle, gotEngine, ok := reg.GetOperation(token)
	require.True(t, ok)
	assert.Equal(t, operations.EngineHandle(7), handle)
	assert.Same(t, engine, gotEngine)
	assert.Equal(t, []operations.Token{token}, svc.ListOperations("client-a"))
	engine.AssertExpectations(t)
}

func TestBegin_InvalidParams(t *testing.T) {
	engine := new(MockEngine)
	svc, _ := newTestService(t, engine, 4)

	_, err := svc.Begin(context.Background(), "client-a", operations.BeginParams{Purpose: operations.PurposeSign})
	assert.Error(t, err)
	engine.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything)
}

func TestBegin_EngineFailure(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(0), errors.New("device unavailable"))
	svc, reg := newTestService(t, engine, 4)

	_, err := svc.Begin(context.Background(), "client-a", signParams)
	assert.ErrorContains(t, err, "device unavailable")
	assert.Equal(t, operations.Stats{}, reg.Stats())
}

func TestBegin_PrunesOldestWhenEngineIsFull(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(1), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(2), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(0), operations.ErrTooManyOperations).Once()
	engine.On("Abort", mock.Anything, operations.EngineHandle(1)).Return(nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(3), nil).Once()
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	first, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)
	second, err := svc.Begin(ctx, "client-b", signParams)
	require.NoError(t, err)

	third, err := svc.Begin(ctx, "client-c", signParams)
	require.NoError(t, err)

	_, _, ok := reg.GetOperation(first)
	assert.False(t, ok, "the least recently used operation is evicted")
	_, _, ok = reg.GetOperation(second)
	assert.True(t, ok)
	_, _, ok = reg.GetOperation(third)
	assert.True(t, ok)
	engine.AssertExpectations(t)
}

func TestBegin_NothingPruneable(t *testing.T) {
	pinned := operations.BeginParams{KeyAlias: "attestation", Purpose: operations.PurposeSign, Pruneable: false}

	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, pinned).Return(operations.EngineHandle(1), nil).Once()
	engine.On("Begin", mock.Anything, pinned).Return(operations.EngineHandle(0), operations.ErrTooManyOperations)
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	_, err := svc.Begin(ctx, "client-a", pinned)
	require.NoError(t, err)

	_, err = svc.Begin(ctx, "client-b", pinned)
	assert.ErrorIs(t, err, operations.ErrTooManyOperations)
	assert.Equal(t, 1, reg.Stats().Operations)
	engine.AssertNotCalled(t, "Abort", mock.Anything, mock.Anything)
}

func TestBegin_PruneAbortFailureKeepsVictim(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(1), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(0), operations.ErrTooManyOperations)
	engine.On("Abort", mock.Anything, operations.EngineHandle(1)).Return(errors.New("secure world busy"))
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	victim, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)

	_, err = svc.Begin(ctx, "client-b", signParams)
	assert.ErrorIs(t, err, operations.ErrPruneFailed)

	_, _, ok := reg.GetOperation(victim)
	assert.True(t, ok, "an operation whose abort failed must stay registered")
}

func TestBegin_FailedVictimMovesToBackOfPruneOrder(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(1), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(2), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(0), operations.ErrTooManyOperations).Twice()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(3), nil).Once()
	engine.On("Abort", mock.Anything, operations.EngineHandle(1)).Return(errors.New("secure world busy")).Once()
	engine.On("Abort", mock.Anything, operations.EngineHandle(2)).Return(nil).Once()
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	oldest, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)
	newer, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)

	_, err = svc.Begin(ctx, "client-b", signParams)
	require.ErrorIs(t, err, operations.ErrPruneFailed)

	// The failed victim was touched, so the next prune picks the other operation.
	_, err = svc.Begin(ctx, "client-b", signParams)
	require.NoError(t, err)

	_, _, ok := reg.GetOperation(oldest)
	assert.True(t, ok)
	_, _, ok = reg.GetOperation(newer)
	assert.False(t, ok)
	engine.AssertExpectations(t)
}

func TestBegin_GivesUpAfterMaxPruneAttempts(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(1), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(2), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(0), operations.ErrTooManyOperations)
	engine.On("Abort", mock.Anything, mock.Anything).Return(nil)
	svc, reg := newTestService(t, engine, 1)
	ctx := context.Background()

	_, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)
	_, err = svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)

	_, err = svc.Begin(ctx, "client-b", signParams)
	assert.ErrorIs(t, err, operations.ErrTooManyOperations)
	assert.Equal(t, 1, reg.Stats().Operations, "exactly one victim was pruned")
	engine.AssertNumberOfCalls(t, "Abort", 1)
}

func TestUpdateAndFinish(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(5), nil)
	engine.On("Update", mock.Anything, operations.EngineHandle(5), []byte("chunk")).Return([]byte("partial"), nil)
	engine.On("Finish", mock.Anything, operations.EngineHandle(5), []byte("tail"), []byte(nil)).Return([]byte("signature"), nil)
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	token, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)

	out, err := svc.Update(ctx, token, []byte("chunk"))
	require.NoError(t, err)
	assert.Equal(t, []byte("partial"), out)

	out, err = svc.Finish(ctx, token, []byte("tail"), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("signature"), out)

	_, _, ok := reg.GetOperation(token)
	assert.False(t, ok)

	_, err = svc.Update(ctx, token, []byte("late"))
	assert.ErrorIs(t, err, operations.ErrInvalidOperation)
	_, err = svc.Finish(ctx, token, nil, nil)
	assert.ErrorIs(t, err, operations.ErrInvalidOperation)
	assert.ErrorIs(t, svc.Abort(ctx, token), operations.ErrInvalidOperation)
}

func TestUpdate_EngineErrorEndsOperation(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(5), nil)
	engine.On("Update", mock.Anything, operations.EngineHandle(5), mock.Anything).Return(nil, errors.New("invalid input length"))
	engine.On("Abort", mock.Anything, operations.EngineHandle(5)).Return(operations.ErrUnknownEngineHandle)
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	token, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)

	_, err = svc.Update(ctx, token, []byte("x"))
	assert.ErrorContains(t, err, "invalid input length")

	_, _, ok := reg.GetOperation(token)
	assert.False(t, ok)
}

func TestAbort(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(5), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(6), nil).Once()
	engine.On("Abort", mock.Anything, operations.EngineHandle(5)).Return(nil)
	engine.On("Abort", mock.Anything, operations.EngineHandle(6)).Return(errors.New("secure world busy"))
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	aborted, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)
	stuck, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)

	require.NoError(t, svc.Abort(ctx, aborted))
	_, _, ok := reg.GetOperation(aborted)
	assert.False(t, ok)

	assert.Error(t, svc.Abort(ctx, stuck))
	_, _, ok = reg.GetOperation(stuck)
	assert.True(t, ok, "a failed abort leaves the operation registered")
}

func TestOperationsReclaimed_AbortsEngineSessions(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(1), nil).Once()
	engine.On("Begin", mock.Anything, signParams).Return(operations.EngineHandle(2), nil).Once()
	engine.On("Abort", mock.Anything, operations.EngineHandle(1)).Return(nil).Once()
	engine.On("Abort", mock.Anything, operations.EngineHandle(2)).Return(operations.ErrUnknownEngineHandle).Once()
	svc, reg := newTestService(t, engine, 4)
	ctx := context.Background()

	_, err := svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)
	_, err = svc.Begin(ctx, "client-a", signParams)
	require.NoError(t, err)

	assert.Equal(t, 2, reg.ReclaimClient("client-a"))
	assert.Empty(t, svc.ListOperations("client-a"))
	engine.AssertExpectations(t)
}

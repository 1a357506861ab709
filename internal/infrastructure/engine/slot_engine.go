package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/logger"
)

var _ operations.Engine = (*SlotEngine)(nil)

// session is the engine-side state of one operation
type session struct {
	params    operations.BeginParams
	processed int
}

// SlotEngine simulates an engine with a bounded number of operation slots.
type SlotEngine struct {
	mu       sync.Mutex
	slots    int
	sessions map[operations.EngineHandle]*session
	logger   logger.Logger
}

// NewSlotEngine creates an engine with settings.Slots free slots.
func NewSlotEngine(settings *config.EngineSettings, logger logger.Logger) (*SlotEngine, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate settings: %w", err)
	}

	return &SlotEngine{
		slots:    settings.Slots,
		sessions: make(map[operations.EngineHandle]*session, settings.Slots),
		logger:   logger,
	}, nil
}

// Begin occupies a slot for a new operation.
func (e *SlotEngine) Begin(ctx context.Context, params operations.BeginParams) (operations.EngineHandle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.sessions) >= e.slots {
		return 0, operations.ErrTooManyOperations
	}

	handle := e.newHandleLocked()
	e.sessions[handle] = &session{params: params}
	e.logger.Debug("Engine began ", params.Purpose, " operation with key ", params.KeyAlias)
	return handle, nil
}

// Update accounts input against the operation. No output is produced.
func (e *SlotEngine) Update(ctx context.Context, handle operations.EngineHandle, input []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[handle]
	if !ok {
		return nil, operations.ErrUnknownEngineHandle
	}
	s.processed += len(input)
	return nil, nil
}

// Finish completes the operation and frees its slot.
func (e *SlotEngine) Finish(ctx context.Context, handle operations.EngineHandle, input, _ []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[handle]
	if !ok {
		return nil, operations.ErrUnknownEngineHandle
	}
	delete(e.sessions, handle)

	e.logger.Debug("Engine finished ", s.params.Purpose, " operation after ", s.processed+len(input), " bytes")
	return nil, nil
}

// Abort frees the operation's slot.
func (e *SlotEngine) Abort(ctx context.Context, handle operations.EngineHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sessions[handle]; !ok {
		return operations.ErrUnknownEngineHandle
	}
	delete(e.sessions, handle)
	return nil
}

// InUse returns the number of occupied slots.
func (e *SlotEngine) InUse() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.sessions)
}

// newHandleLocked returns a non-zero handle not held by a running operation.
func (e *SlotEngine) newHandleLocked() operations.EngineHandle {
	for {
		handle := operations.EngineHandle(rand.Uint64())
		if handle == 0 {
			continue
		}
		if _, taken := e.sessions[handle]; !taken {
			return handle
		}
	}
}

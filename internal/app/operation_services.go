package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/logger"
)

// operationService implements the OperationService interface on top of an operation registry
// and a single crypto engine
type operationService struct {
	registry operations.Registry
	engine   operations.Engine
	settings *config.ServiceSettings
	logger   logger.Logger
}

// NewOperationService creates a new operationService instance
func NewOperationService(
	registry operations.Registry,
	engine operations.Engine,
	settings *config.ServiceSettings,
	logger logger.Logger,
) (operations.OperationService, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate settings: %w", err)
	}
	if registry == nil || engine == nil {
		return nil, fmt.Errorf("registry and engine are required")
	}

	return &operationService{
		registry: registry,
		engine:   engine,
		settings: settings,
		logger:   logger,
	}, nil
}

// Begin starts an operation on the engine. When the engine is out of slots the least recently
// used pruneable operation is aborted and forgotten, then the begin is retried.
func (s *operationService) Begin(ctx context.Context, client operations.ClientID, params operations.BeginParams) (operations.Token, error) {
	if err := params.Validate(); err != nil {
		return operations.Token{}, fmt.Errorf("invalid begin params: %w", err)
	}

	for attempt := 0; ; attempt++ {
		handle, err := s.engine.Begin(ctx, params)
		if err == nil {
			return s.registry.AddOperation(handle, s.engine, client, params.Pruneable), nil
		}
		if !errors.Is(err, operations.ErrTooManyOperations) {
			s.logger.Error("Engine failed to begin operation for client ", client, ": ", err)
			return operations.Token{}, fmt.Errorf("failed to begin operation: %w", err)
		}
		if attempt >= s.settings.MaxPruneAttempts {
			return operations.Token{}, fmt.Errorf("no slot after %d prune attempts: %w", attempt, operations.ErrTooManyOperations)
		}
		if err := s.pruneOldest(ctx); err != nil {
			return operations.Token{}, err
		}
	}
}

// Update feeds input into the operation. An engine failure ends the operation.
func (s *operationService) Update(ctx context.Context, token operations.Token, input []byte) ([]byte, error) {
	handle, engine, ok := s.registry.GetOperation(token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", operations.ErrInvalidOperation, token)
	}

	output, err := engine.Update(ctx, handle, input)
	if err != nil {
		s.discard(ctx, token, handle, engine)
		return nil, fmt.Errorf("failed to update operation %s: %w", token, err)
	}
	return output, nil
}

// Finish completes the operation. The token is forgotten whether or not the engine succeeds.
func (s *operationService) Finish(ctx context.Context, token operations.Token, input, signature []byte) ([]byte, error) {
	handle, engine, ok := s.registry.GetOperation(token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", operations.ErrInvalidOperation, token)
	}

	output, err := engine.Finish(ctx, handle, input, signature)
	if err != nil {
		s.discard(ctx, token, handle, engine)
		return nil, fmt.Errorf("failed to finish operation %s: %w", token, err)
	}

	s.registry.RemoveOperation(token)
	return output, nil
}

// Abort cancels the operation. If the engine cannot abort it the token stays valid.
func (s *operationService) Abort(ctx context.Context, token operations.Token) error {
	handle, engine, ok := s.registry.GetOperation(token)
	if !ok {
		return fmt.Errorf("%w: %s", operations.ErrInvalidOperation, token)
	}

	if err := engine.Abort(ctx, handle); err != nil && !errors.Is(err, operations.ErrUnknownEngineHandle) {
		return fmt.Errorf("failed to abort operation %s: %w", token, err)
	}

	s.registry.RemoveOperation(token)
	return nil
}

// ListOperations returns the tokens owned by client
func (s *operationService) ListOperations(client operations.ClientID) []operations.Token {
	return s.registry.GetOperationsForClient(client)
}

// OperationsReclaimed aborts the engine sessions of a client that went away. It runs on the
// liveness notification goroutine, after the registry has already forgotten the tokens.
func (s *operationService) OperationsReclaimed(client operations.ClientID, ops []operations.Operation) {
	ctx := context.Background()
	for _, op := range ops {
		if op.Engine == nil {
			continue
		}
		if err := op.Engine.Abort(ctx, op.Handle); err != nil && !errors.Is(err, operations.ErrUnknownEngineHandle) {
			s.logger.Warn("Failed to abort reclaimed operation of client ", client, ": ", err)
		}
	}
	s.logger.Info("Released ", len(ops), " engine sessions of client ", client)
}

// pruneOldest aborts the least recently used pruneable operation on its engine and then removes
// it from the registry. The engine call happens outside the registry lock.
func (s *operationService) pruneOldest(ctx context.Context) error {
	if !s.registry.HasPruneableOperation() {
		return operations.ErrTooManyOperations
	}

	victim, ok := s.registry.GetOldestPruneableOperation()
	if !ok {
		return operations.ErrTooManyOperations
	}

	// Resolving the victim marks it most recently used, so a victim whose abort fails is not
	// picked again by the next prune attempt. Keep the lookup ahead of the abort.
	handle, engine, ok := s.registry.GetOperation(victim)
	if !ok {
		// Finished or reclaimed in the meantime, its slot may already be free.
		return nil
	}

	if err := engine.Abort(ctx, handle); err != nil && !errors.Is(err, operations.ErrUnknownEngineHandle) {
		s.logger.Warn("Failed to abort operation ", victim, " while pruning: ", err)
		return fmt.Errorf("%w: %v", operations.ErrPruneFailed, err)
	}

	s.registry.RemoveOperation(victim)
	s.logger.Debug("Pruned operation ", victim, " to free an engine slot")
	return nil
}

// discard releases an operation the engine reported a failure for.
func (s *operationService) discard(ctx context.Context, token operations.Token, handle operations.EngineHandle, engine operations.Engine) {
	if err := engine.Abort(context.WithoutCancel(ctx), handle); err != nil && !errors.Is(err, operations.ErrUnknownEngineHandle) {
		s.logger.Warn("Failed to release engine handle of operation ", token, ": ", err)
	}
	s.registry.RemoveOperation(token)
}

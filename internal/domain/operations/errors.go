package operations

import "errors"

var (
	// ErrInvalidOperation is returned when a token no longer resolves to a live operation
	// (already finished, aborted, pruned or never minted by this process).
	ErrInvalidOperation = errors.New("operation no longer valid")

	// ErrTooManyOperations is returned when the engine has no free operation slot and
	// nothing can be pruned to make room.
	ErrTooManyOperations = errors.New("too many concurrent operations")

	// ErrPruneFailed is returned when the engine refused to abort the eviction victim.
	ErrPruneFailed = errors.New("failed to prune oldest operation")

	// ErrUnknownEngineHandle is returned by an engine for a handle it did not issue or already released.
	ErrUnknownEngineHandle = errors.New("unknown engine handle")

	// ErrClientAlreadyConnected is returned when a client identity is connected twice.
	ErrClientAlreadyConnected = errors.New("client already connected")
)

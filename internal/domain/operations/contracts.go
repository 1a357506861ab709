package operations

import "context"

// Registry maps opaque tokens to in-progress engine operations, tracks recency of pruneable
// operations for eviction and groups tokens by owning client for bulk reclamation.
// All methods are safe for concurrent use.
type Registry interface {
	// AddOperation registers a new operation and returns the token naming it.
	AddOperation(handle EngineHandle, engine Engine, owner ClientID, pruneable bool) Token

	// GetOperation resolves a token to its engine handle and engine.
	// A successful lookup of a pruneable operation marks it most recently used.
	GetOperation(token Token) (EngineHandle, Engine, bool)

	// RemoveOperation forgets the operation named by token.
	// It returns false and changes nothing if the token is unknown.
	RemoveOperation(token Token) bool

	// HasPruneableOperation reports whether any live operation is eligible for eviction.
	HasPruneableOperation() bool

	// GetOldestPruneableOperation returns the least recently used pruneable token without removing it.
	GetOldestPruneableOperation() (Token, bool)

	// GetOperationsForClient returns a snapshot of the tokens owned by client.
	GetOperationsForClient(client ClientID) []Token

	// ReclaimClient removes every operation owned by client and returns how many were removed.
	ReclaimClient(client ClientID) int

	// Stats returns current occupancy.
	Stats() Stats
}

// Engine is the crypto engine collaborator. The registry never calls it; the dispatcher does,
// using the values returned from Registry.GetOperation.
type Engine interface {
	// Begin starts an operation and returns the engine's handle for it.
	// It returns ErrTooManyOperations when no operation slot is free.
	Begin(ctx context.Context, params BeginParams) (EngineHandle, error)

	// Update feeds input into a running operation.
	Update(ctx context.Context, handle EngineHandle, input []byte) ([]byte, error)

	// Finish completes an operation and releases its slot.
	Finish(ctx context.Context, handle EngineHandle, input, signature []byte) ([]byte, error)

	// Abort cancels an operation and releases its slot.
	Abort(ctx context.Context, handle EngineHandle) error
}

// LivenessHook reports when a client goes away.
type LivenessHook interface {
	// Subscribe arranges for onGone to be called exactly once, on its own goroutine, when client
	// disconnects or is already gone. session names the client session the subscription is bound
	// to, zero if the client was not connected. The returned cancel detaches the subscription and
	// reports whether it stopped onGone from being called.
	Subscribe(client ClientID, onGone func()) (session uint64, cancel func() bool)

	// CurrentSession returns the live session of client, zero if it has none. Session numbers
	// are never reused, so a subscription whose session differs belongs to a session that ended.
	CurrentSession(client ClientID) uint64
}

// ReclaimListener is told which operations client reclamation removed so their engine sessions
// can be released. It is called after the registry lock has been released.
type ReclaimListener interface {
	OperationsReclaimed(client ClientID, ops []Operation)
}

// OperationService drives operations on behalf of clients: it starts them on the engine,
// evicts the oldest pruneable operation when the engine runs out of slots and resolves tokens
// on every subsequent step.
type OperationService interface {
	// Begin starts an operation for client and returns its token.
	Begin(ctx context.Context, client ClientID, params BeginParams) (Token, error)

	// Update feeds input into the operation named by token.
	Update(ctx context.Context, token Token, input []byte) ([]byte, error)

	// Finish completes the operation named by token. The token is invalid afterwards.
	Finish(ctx context.Context, token Token, input, signature []byte) ([]byte, error)

	// Abort cancels the operation named by token. The token is invalid afterwards.
	Abort(ctx context.Context, token Token) error

	// ListOperations returns the tokens currently owned by client.
	ListOperations(client ClientID) []Token

	// OperationsReclaimed aborts the engine sessions of operations reclaimed from a gone client.
	ReclaimListener
}

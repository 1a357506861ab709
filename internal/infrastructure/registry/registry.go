package registry

import (
	"fmt"
	"sync"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/logger"
)

var _ operations.Registry = (*OperationRegistry)(nil)

// OperationRegistry translates engine operation handles into opaque tokens bound to the client
// that created them. It never calls into an engine; eviction is driven by the caller through
// HasPruneableOperation and GetOldestPruneableOperation.
type OperationRegistry struct {
	mu sync.Mutex

	table   handleTable
	recency recencyOrder
	clients clientIndex

	lastSerial uint64
	lastEpoch  uint64

	hook     operations.LivenessHook
	listener operations.ReclaimListener
	metrics  *Metrics
	settings *config.RegistrySettings
	logger   logger.Logger
}

// NewOperationRegistry creates an empty registry. hook may be nil, in which case clients are
// only reclaimed through ReclaimClient; metrics may be nil to disable instrumentation.
// The hook must not block and must not call back into the registry from Subscribe or cancel.
func NewOperationRegistry(settings *config.RegistrySettings, hook operations.LivenessHook, metrics *Metrics, logger logger.Logger) (*OperationRegistry, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate settings: %w", err)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &OperationRegistry{
		table:    newHandleTable(),
		recency:  newRecencyOrder(),
		clients:  newClientIndex(),
		hook:     hook,
		metrics:  metrics,
		settings: settings,
		logger:   logger,
	}, nil
}

// AddOperation registers the operation and returns a fresh token for it. Operations the owner
// left behind in an earlier, already ended session are reclaimed first, so they never share a
// liveness subscription with operations of the live session.
func (r *OperationRegistry) AddOperation(handle operations.EngineHandle, engine operations.Engine, owner operations.ClientID, pruneable bool) operations.Token {
	token, stale, listener := r.addOperation(handle, engine, owner, pruneable)
	notifyReclaimed(listener, owner, stale)
	return token
}

func (r *OperationRegistry) addOperation(handle operations.EngineHandle, engine operations.Engine, owner operations.ClientID, pruneable bool) (operations.Token, []operations.Operation, operations.ReclaimListener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []operations.Operation
	if r.sessionEndedLocked(owner) {
		stale = r.reclaimLocked(owner)
		r.logger.Info("Client ", owner, " reconnected, reclaimed ", len(stale), " operations of its previous session")
	}

	r.lastSerial++
	token := operations.NewToken(r.lastSerial)

	rec := &record{op: operations.Operation{
		Handle:    handle,
		Engine:    engine,
		Owner:     owner,
		Pruneable: pruneable,
	}}
	if pruneable {
		rec.recency = r.recency.pushNewest(token)
	}
	r.table.put(token, rec)

	if entry, created := r.clients.add(owner, token); created {
		r.subscribeLocked(owner, entry)
	}

	r.metrics.operationAdded()
	r.afterMutationLocked()
	return token, stale, r.listener
}

// GetOperation returns the engine handle and engine for token. Looking up a pruneable
// operation moves it to the most recently used end of the recency order.
func (r *OperationRegistry) GetOperation(token operations.Token) (operations.EngineHandle, operations.Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.table.get(token)
	if !ok {
		return 0, nil, false
	}
	if rec.recency != nil {
		r.recency.touch(rec.recency)
	}
	return rec.op.Handle, rec.op.Engine, true
}

// RemoveOperation forgets token. It returns false if the token was unknown.
func (r *OperationRegistry) RemoveOperation(token operations.Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.removeLocked(token, operations.RemovalReasonExplicit); !ok {
		return false
	}
	r.afterMutationLocked()
	return true
}

// HasPruneableOperation reports whether at least one live operation may be evicted.
func (r *OperationRegistry) HasPruneableOperation() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.recency.len() > 0
}

// GetOldestPruneableOperation returns the least recently used pruneable token. The operation
// stays registered: the caller aborts it on the engine first and then calls RemoveOperation.
func (r *OperationRegistry) GetOldestPruneableOperation() (operations.Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.recency.oldest()
}

// GetOperationsForClient returns the tokens owned by client in no particular order.
func (r *OperationRegistry) GetOperationsForClient(client operations.ClientID) []operations.Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.clients.snapshot(client)
}

// ReclaimClient removes every operation owned by client, as if it had disconnected.
// It returns the number of operations removed; calling it for a client without
// operations is a no-op.
func (r *OperationRegistry) ReclaimClient(client operations.ClientID) int {
	ops, listener, _ := r.reclaim(client, 0)
	notifyReclaimed(listener, client, ops)
	return len(ops)
}

// SetReclaimListener registers l to learn about operations removed by client reclamation.
func (r *OperationRegistry) SetReclaimListener(l operations.ReclaimListener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listener = l
}

// Stats returns the current number of operations, pruneable operations and clients.
func (r *OperationRegistry) Stats() operations.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.statsLocked()
}

// Verify checks the consistency of the internal structures.
func (r *OperationRegistry) Verify() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.verifyLocked()
}

// clientGone is the liveness callback of the subscription identified by epoch.
func (r *OperationRegistry) clientGone(client operations.ClientID, epoch uint64) {
	ops, listener, ok := r.reclaim(client, epoch)
	if !ok {
		r.logger.Debug("Ignoring stale disconnect notification for client ", client)
		return
	}

	r.logger.Info("Client ", client, " disconnected, reclaimed ", len(ops), " operations")
	notifyReclaimed(listener, client, ops)
}

// reclaim removes client's operations. A non-zero epoch restricts it to the subscription
// with that epoch; ok is false when the notification is stale.
func (r *OperationRegistry) reclaim(client operations.ClientID, epoch uint64) (ops []operations.Operation, listener operations.ReclaimListener, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if epoch != 0 {
		entry, found := r.clients.get(client)
		if !found || entry.epoch != epoch {
			return nil, nil, false
		}
	}
	return r.reclaimLocked(client), r.listener, true
}

func notifyReclaimed(listener operations.ReclaimListener, client operations.ClientID, ops []operations.Operation) {
	if listener == nil || len(ops) == 0 {
		return
	}
	listener.OperationsReclaimed(client, ops)
}

func (r *OperationRegistry) subscribeLocked(client operations.ClientID, entry *clientEntry) {
	r.lastEpoch++
	epoch := r.lastEpoch
	entry.epoch = epoch

	if r.hook == nil {
		return
	}
	entry.session, entry.cancel = r.hook.Subscribe(client, func() {
		r.clientGone(client, epoch)
	})
}

// sessionEndedLocked reports whether client's operations are bound to a session that is no
// longer the client's current one. Its disconnect notification may still be in flight.
func (r *OperationRegistry) sessionEndedLocked(client operations.ClientID) bool {
	if r.hook == nil {
		return false
	}
	entry, ok := r.clients.get(client)
	if !ok {
		return false
	}
	return entry.session != r.hook.CurrentSession(client)
}

func (r *OperationRegistry) removeLocked(token operations.Token, reason string) (operations.Operation, bool) {
	rec, ok := r.table.get(token)
	if !ok {
		return operations.Operation{}, false
	}

	r.table.delete(token)
	if rec.recency != nil {
		r.recency.remove(rec.recency)
		rec.recency = nil
	}
	if emptied := r.clients.remove(rec.op.Owner, token); emptied != nil {
		emptied.detach()
	}

	r.metrics.operationRemoved(reason)
	return rec.op, true
}

func (r *OperationRegistry) reclaimLocked(client operations.ClientID) []operations.Operation {
	tokens := r.clients.snapshot(client)
	if len(tokens) == 0 {
		return nil
	}

	removed := make([]operations.Operation, 0, len(tokens))
	for _, token := range tokens {
		if op, ok := r.removeLocked(token, operations.RemovalReasonDisconnect); ok {
			removed = append(removed, op)
		}
	}

	r.metrics.clientReclaimed()
	r.afterMutationLocked()
	return removed
}

func (r *OperationRegistry) statsLocked() operations.Stats {
	return operations.Stats{
		Operations: r.table.len(),
		Pruneable:  r.recency.len(),
		Clients:    r.clients.len(),
	}
}

func (r *OperationRegistry) afterMutationLocked() {
	r.metrics.observe(r.statsLocked())

	if !r.settings.VerifyInvariants {
		return
	}
	if err := r.verifyLocked(); err != nil {
		r.logger.Panic("operation registry invariant violated: ", err)
	}
}

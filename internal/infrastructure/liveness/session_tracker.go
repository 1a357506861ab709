package liveness

import (
	"context"
	"fmt"
	"sync"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/pkg/logger"
)

var _ operations.LivenessHook = (*SessionTracker)(nil)

type session struct {
	id  uint64
	ctx context.Context
}

// SessionTracker tracks connected clients and notifies subscribers when they disconnect.
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[operations.ClientID]*session
	lastID   uint64
	logger   logger.Logger
}

// NewSessionTracker creates a tracker with no connected clients.
func NewSessionTracker(logger logger.Logger) *SessionTracker {
	return &SessionTracker{
		sessions: make(map[operations.ClientID]*session),
		logger:   logger,
	}
}

// Connect registers client as live until parent is done or disconnect is called.
// The returned context is the session context. disconnect is idempotent.
func (t *SessionTracker) Connect(parent context.Context, client operations.ClientID) (context.Context, context.CancelFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.sessions[client]; ok && existing.ctx.Err() == nil {
		return nil, nil, fmt.Errorf("%w: %s", operations.ErrClientAlreadyConnected, client)
	}

	ctx, cancel := context.WithCancel(parent)
	t.lastID++
	s := &session{id: t.lastID, ctx: ctx}
	t.sessions[client] = s

	context.AfterFunc(ctx, func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		// A later session may have reused the identity.
		if t.sessions[client] == s {
			delete(t.sessions, client)
		}
		t.logger.Debug("Client ", client, " disconnected from session ", s.id)
	})

	t.logger.Debug("Client ", client, " connected with session ", s.id)
	return ctx, cancel, nil
}

// Subscribe calls onGone once on its own goroutine when client's current session ends. If the
// client is not connected, onGone is called right away and the session is zero. cancel reports
// whether it prevented the call.
func (t *SessionTracker) Subscribe(client operations.ClientID, onGone func()) (uint64, func() bool) {
	t.mu.Lock()
	s, ok := t.sessions[client]
	t.mu.Unlock()

	if !ok {
		// Treat an unknown client like one whose session already ended.
		return 0, context.AfterFunc(doneContext, onGone)
	}
	return s.id, context.AfterFunc(s.ctx, onGone)
}

// CurrentSession returns the id of client's live session, zero if it is not connected.
func (t *SessionTracker) CurrentSession(client operations.ClientID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[client]
	if !ok || s.ctx.Err() != nil {
		return 0
	}
	return s.id
}

// Connected reports whether client currently has a live session.
func (t *SessionTracker) Connected(client operations.ClientID) bool {
	return t.CurrentSession(client) != 0
}

// Len returns the number of connected clients.
func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.sessions)
}

var doneContext = func() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}()

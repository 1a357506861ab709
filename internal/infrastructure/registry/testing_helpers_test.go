//go:build unit
// +build unit

package registry

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"
	"github.com/Fusion-OS/android-system-security/internal/pkg/logger"
	"github.com/stretchr/testify/require"
)

// stubEngine stands in for a crypto engine; the registry only stores references to it.
type stubEngine struct {
	name string
}

func (e *stubEngine) Begin(context.Context, operations.BeginParams) (operations.EngineHandle, error) {
	return 0, nil
}

func (e *stubEngine) Update(context.Context, operations.EngineHandle, []byte) ([]byte, error) {
	return nil, nil
}

func (e *stubEngine) Finish(context.Context, operations.EngineHandle, []byte, []byte) ([]byte, error) {
	return nil, nil
}

func (e *stubEngine) Abort(context.Context, operations.EngineHandle) error {
	return nil
}

// manualHook is a LivenessHook whose notifications are fired by the test. Every client is in
// session zero until the test moves it with setSession.
type manualHook struct {
	mu       sync.Mutex
	subs     map[operations.ClientID][]*manualSubscription
	sessions map[operations.ClientID]uint64
}

type manualSubscription struct {
	onGone    func()
	session   uint64
	cancelled bool
}

func newManualHook() *manualHook {
	return &manualHook{
		subs:     make(map[operations.ClientID][]*manualSubscription),
		sessions: make(map[operations.ClientID]uint64),
	}
}

func (h *manualHook) Subscribe(client operations.ClientID, onGone func()) (uint64, func() bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &manualSubscription{onGone: onGone, session: h.sessions[client]}
	h.subs[client] = append(h.subs[client], sub)
	return sub.session, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub.cancelled {
			return false
		}
		sub.cancelled = true
		return true
	}
}

// fire delivers the disconnect notification of every subscription ever made for client,
// including cancelled ones, to simulate late delivery.
func (h *manualHook) fire(client operations.ClientID) {
	h.mu.Lock()
	subs := append([]*manualSubscription(nil), h.subs[client]...)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.onGone()
	}
}

func (h *manualHook) CurrentSession(client operations.ClientID) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.sessions[client]
}

func (h *manualHook) setSession(client operations.ClientID, session uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[client] = session
}

// fireSession delivers the notifications of the subscriptions bound to session, cancelled or not.
func (h *manualHook) fireSession(client operations.ClientID, session uint64) {
	h.mu.Lock()
	var subs []*manualSubscription
	for _, sub := range h.subs[client] {
		if sub.session == session {
			subs = append(subs, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.onGone()
	}
}

func (h *manualHook) active(client operations.ClientID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, sub := range h.subs[client] {
		if !sub.cancelled {
			n++
		}
	}
	return n
}

func (h *manualHook) total(client operations.ClientID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[client])
}

func newTestRegistry(t *testing.T, hook operations.LivenessHook, metrics *Metrics) *OperationRegistry {
	t.Helper()

	settings := &config.RegistrySettings{
		VerifyInvariants: true,
		MetricsNamespace: "test",
	}
	r, err := NewOperationRegistry(settings, hook, metrics, logger.NewTextLogger(io.Discard, config.LogLevelDebug))
	require.NoError(t, err)
	return r
}

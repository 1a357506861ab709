package registry

import (
	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
)

// clientEntry holds the tokens of one client together with its liveness subscription.
type clientEntry struct {
	tokens  map[operations.Token]struct{}
	// epoch identifies the subscription; a notification carrying another epoch is stale.
	epoch   uint64
	// session is the liveness session the subscription is bound to.
	session uint64
	cancel  func() bool
}

// detach cancels the liveness subscription. Safe to call more than once.
func (e *clientEntry) detach() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

type clientIndex struct {
	clients map[operations.ClientID]*clientEntry
}

func newClientIndex() clientIndex {
	return clientIndex{clients: make(map[operations.ClientID]*clientEntry)}
}

func (c *clientIndex) get(client operations.ClientID) (*clientEntry, bool) {
	entry, ok := c.clients[client]
	return entry, ok
}

// add records token under client. created reports whether the client had no entry before.
func (c *clientIndex) add(client operations.ClientID, token operations.Token) (entry *clientEntry, created bool) {
	entry, ok := c.clients[client]
	if !ok {
		entry = &clientEntry{tokens: make(map[operations.Token]struct{})}
		c.clients[client] = entry
		created = true
	}
	entry.tokens[token] = struct{}{}
	return entry, created
}

// remove drops token from client's entry. When the entry becomes empty it is deleted
// and returned so the caller can detach its subscription.
func (c *clientIndex) remove(client operations.ClientID, token operations.Token) (emptied *clientEntry) {
	entry, ok := c.clients[client]
	if !ok {
		return nil
	}
	delete(entry.tokens, token)
	if len(entry.tokens) > 0 {
		return nil
	}
	delete(c.clients, client)
	return entry
}

// snapshot returns a copy of client's tokens; never nil.
func (c *clientIndex) snapshot(client operations.ClientID) []operations.Token {
	entry, ok := c.clients[client]
	if !ok {
		return []operations.Token{}
	}
	tokens := make([]operations.Token, 0, len(entry.tokens))
	for token := range entry.tokens {
		tokens = append(tokens, token)
	}
	return tokens
}

func (c *clientIndex) len() int {
	return len(c.clients)
}

package registry

import (
	"fmt"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
)

// verifyLocked checks that the handle table, the client index and the recency order agree.
// The caller must hold r.mu.
func (r *OperationRegistry) verifyLocked() error {
	indexed := 0
	for client, entry := range r.clients.clients {
		if len(entry.tokens) == 0 {
			return fmt.Errorf("client %q has an empty index entry", client)
		}
		for token := range entry.tokens {
			rec, ok := r.table.get(token)
			if !ok {
				return fmt.Errorf("client %q indexes token %s missing from the handle table", client, token)
			}
			if rec.op.Owner != client {
				return fmt.Errorf("token %s indexed under %q but owned by %q", token, client, rec.op.Owner)
			}
		}
		indexed += len(entry.tokens)
	}
	if indexed != r.table.len() {
		return fmt.Errorf("client index holds %d tokens, handle table holds %d", indexed, r.table.len())
	}

	pruneable := 0
	for token, rec := range r.table.records {
		if !rec.op.Pruneable {
			if rec.recency != nil {
				return fmt.Errorf("non-pruneable token %s is in the recency order", token)
			}
			continue
		}
		pruneable++
		if rec.recency == nil {
			return fmt.Errorf("pruneable token %s is missing from the recency order", token)
		}
	}

	seen := make(map[operations.Token]struct{}, r.recency.len())
	for e := r.recency.order.Front(); e != nil; e = e.Next() {
		token := e.Value.(operations.Token)
		if _, dup := seen[token]; dup {
			return fmt.Errorf("token %s appears twice in the recency order", token)
		}
		seen[token] = struct{}{}

		rec, ok := r.table.get(token)
		if !ok {
			return fmt.Errorf("recency order references token %s missing from the handle table", token)
		}
		if rec.recency != e {
			return fmt.Errorf("token %s points at a stale recency element", token)
		}
	}
	if len(seen) != pruneable {
		return fmt.Errorf("recency order holds %d tokens, handle table has %d pruneable", len(seen), pruneable)
	}

	return nil
}

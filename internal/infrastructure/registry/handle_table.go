package registry

import (
	"container/list"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
)

// record is the handle table entry of one live operation.
type record struct {
	op operations.Operation
	// recency is the operation's element in the recency order, nil unless pruneable.
	recency *list.Element
}

type handleTable struct {
	records map[operations.Token]*record
}

func newHandleTable() handleTable {
	return handleTable{records: make(map[operations.Token]*record)}
}

func (t *handleTable) get(token operations.Token) (*record, bool) {
	rec, ok := t.records[token]
	return rec, ok
}

func (t *handleTable) put(token operations.Token, rec *record) {
	t.records[token] = rec
}

func (t *handleTable) delete(token operations.Token) {
	delete(t.records, token)
}

func (t *handleTable) len() int {
	return len(t.records)
}

package registry

import (
	"container/list"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"
)

// recencyOrder keeps pruneable tokens ordered from least (front) to most (back) recently touched.
type recencyOrder struct {
	order *list.List
}

func newRecencyOrder() recencyOrder {
	return recencyOrder{order: list.New()}
}

// pushNewest appends token as the most recently used entry.
func (r *recencyOrder) pushNewest(token operations.Token) *list.Element {
	return r.order.PushBack(token)
}

// touch marks the entry as most recently used.
func (r *recencyOrder) touch(e *list.Element) {
	r.order.MoveToBack(e)
}

func (r *recencyOrder) remove(e *list.Element) {
	r.order.Remove(e)
}

// oldest returns the least recently used token.
func (r *recencyOrder) oldest() (operations.Token, bool) {
	front := r.order.Front()
	if front == nil {
		return operations.Token{}, false
	}
	return front.Value.(operations.Token), true
}

func (r *recencyOrder) len() int {
	return r.order.Len()
}

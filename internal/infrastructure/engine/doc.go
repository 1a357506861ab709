// Package engine provides SlotEngine, a stand-in for a hardware crypto engine that models only
// what the operation map depends on: a fixed number of concurrent operation slots and opaque
// handles that stay valid until the operation is finished or aborted.
package engine

// Package operations defines the core types and contracts for tracking in-progress cryptographic
// operations that a client started against a secure crypto engine, including the opaque capability
// tokens handed out in place of raw engine handles and the collaborators (engine, liveness hook)
// the operation registry is wired to.
package operations

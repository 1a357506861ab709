// Package registry implements the operation registry: the table translating opaque tokens into
// engine handles, the recency order used to pick eviction victims among pruneable operations and
// the per-client index used to reclaim everything a client owned when it disconnects.
//
// The three structures are only ever touched together under a single mutex, so the cross-structure
// invariants checked by Verify hold whenever no call is in flight.
package registry

// Package liveness provides a LivenessHook backed by session contexts: a transport connects a
// client identity for the lifetime of its connection and every subscriber learns, exactly once,
// when that connection ends.
package liveness

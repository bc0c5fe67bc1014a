package engine

import "sync/atomic"

// atomicFrame is the playhead's cross-thread mutable — the sole piece
// of state the audio callback and the controller goroutines share.
// Relaxed-equivalent load/store semantics would suffice, but
// atomic.Uint64 gives sequential consistency at no extra cost on the
// architectures this targets.
type atomicFrame struct {
	v atomic.Uint64
}

func (a *atomicFrame) load() uint64   { return a.v.Load() }
func (a *atomicFrame) store(f uint64) { a.v.Store(f) }

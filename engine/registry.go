package engine

import "sync"

// CancelRegistry is the process-wide map from a round's topic base to its
// cancellation flag. An out-of-band handler calls Cancel while the engine
// goroutine polls Cancelled, so all access is mutex-guarded. Within a round
// the flag is set-once: it never reverts to false before Forget.
type CancelRegistry struct {
	mu        sync.RWMutex
	cancelled map[string]struct{}
}

// NewCancelRegistry constructs an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{cancelled: make(map[string]struct{})}
}

// Cancel marks the round identified by topicBase as cancelled. Idempotent:
// repeated calls for the same round are no-ops.
func (r *CancelRegistry) Cancel(topicBase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled[topicBase] = struct{}{}
}

// Cancelled reports whether the round identified by topicBase has been
// cancelled. Safe to call from the engine goroutine while a handler cancels.
func (r *CancelRegistry) Cancelled(topicBase string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cancelled[topicBase]
	return ok
}

// Forget discards the entry for topicBase. The engine calls it on every
// round exit path so a reused topic base starts with a clean flag.
func (r *CancelRegistry) Forget(topicBase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancelled, topicBase)
}

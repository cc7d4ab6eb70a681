package invoker

import "sync"

const healthWindow = 20

// Health keeps a rolling success/failure record for one invoker. It is
// advisory display state consulted by the provider registry; it never blocks
// an invocation attempt.
type Health struct {
	mu       sync.Mutex
	outcomes []bool
	success  uint64
	failure  uint64
}

func (h *Health) record(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ok {
		h.success++
	} else {
		h.failure++
	}
	h.outcomes = append(h.outcomes, ok)
	if len(h.outcomes) > healthWindow {
		h.outcomes = h.outcomes[len(h.outcomes)-healthWindow:]
	}
}

// LastKnownHealthy reports whether the most recent invocation succeeded. An
// invoker with no history yet is assumed healthy.
func (h *Health) LastKnownHealthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.outcomes) == 0 {
		return true
	}
	return h.outcomes[len(h.outcomes)-1]
}

// Counts returns the lifetime success and failure totals.
func (h *Health) Counts() (success, failure uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.success, h.failure
}

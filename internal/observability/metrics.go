package observability

import "sync"

// Metrics provides basic in-memory counters for the sync engines.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
	}
}

// RecordPoll increments the issued-poll counter for a resource.
func (m *Metrics) RecordPoll(resource string) {
	m.add("poll|"+resource, 1)
}

// RecordPollFailure increments the failed-poll counter for a resource.
func (m *Metrics) RecordPollFailure(resource string) {
	m.add("poll_failure|"+resource, 1)
}

// RecordStaleDrop counts a poll response discarded as superseded.
func (m *Metrics) RecordStaleDrop(resource string) {
	m.add("stale_drop|"+resource, 1)
}

// RecordMerged counts messages newly merged into a thread log.
func (m *Metrics) RecordMerged(count int) {
	m.add("messages_merged", int64(count))
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

func (m *Metrics) add(key string, delta int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] += delta
}

package retry

import (
	"sync"
	"time"
)

// Snapshot is the point-in-time view of attempt counters. Counters are
// monotonic; the mean response time is the single mutable aggregate.
type Snapshot struct {
	Requests        int64         `json:"requests"`
	Successes       int64         `json:"successes"`
	Failures        int64         `json:"failures"`
	AvgResponseTime time.Duration `json:"avgResponseTime"`
}

// Tracker owns the retry-path running totals. One instance is constructed at
// start-up and shared by reference; reset happens only through Reset.
type Tracker struct {
	mu                sync.Mutex
	requests          int64
	successes         int64
	failures          int64
	totalResponseTime time.Duration
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) RecordRequest() {
	t.mu.Lock()
	t.requests++
	t.mu.Unlock()
}

func (t *Tracker) RecordSuccess(elapsed time.Duration) {
	t.mu.Lock()
	t.successes++
	t.totalResponseTime += elapsed
	t.mu.Unlock()
}

func (t *Tracker) RecordFailure(elapsed time.Duration) {
	t.mu.Lock()
	t.failures++
	t.totalResponseTime += elapsed
	t.mu.Unlock()
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Requests:  t.requests,
		Successes: t.successes,
		Failures:  t.failures,
	}
	if outcomes := t.successes + t.failures; outcomes > 0 {
		s.AvgResponseTime = t.totalResponseTime / time.Duration(outcomes)
	}
	return s
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	t.requests = 0
	t.successes = 0
	t.failures = 0
	t.totalResponseTime = 0
	t.mu.Unlock()
}

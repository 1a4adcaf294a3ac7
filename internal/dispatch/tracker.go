package dispatch

import "sync"

// Tracker counts calls the dispatcher currently has open against each
// worker. It backs the minimal selection strategy, which needs gateway-side
// concurrency rather than the workers' lagging self-reports.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]int64)}
}

func (t *Tracker) Inc(workerID string) {
	t.mu.Lock()
	t.counts[workerID]++
	t.mu.Unlock()
}

func (t *Tracker) Dec(workerID string) {
	t.mu.Lock()
	if t.counts[workerID] > 0 {
		t.counts[workerID]--
	}
	t.mu.Unlock()
}

func (t *Tracker) Get(workerID string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[workerID]
}

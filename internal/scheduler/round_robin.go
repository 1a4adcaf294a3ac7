package scheduler

import (
	"sync"

	"github.com/you/vllmgate/internal/registry"
)

// roundRobin keeps one rotating cursor per model. Each call returns the
// eligible set rotated so the next-in-line worker comes first, then advances
// the cursor. Cursor movement is serialized so concurrent calls rotate in
// order instead of skipping or repeating workers.
type roundRobin struct {
	mu      sync.Mutex
	cursors map[string]int
}

func newRoundRobin() *roundRobin {
	return &roundRobin{cursors: make(map[string]int)}
}

func (r *roundRobin) Name() string { return RoundRobin }

func (r *roundRobin) Rank(req Request, workers []*registry.Worker) []*registry.Worker {
	ordered := byID(workers)
	n := len(ordered)

	r.mu.Lock()
	c := r.cursors[req.Model] % n
	r.cursors[req.Model] = c + 1
	r.mu.Unlock()

	out := make([]*registry.Worker, 0, n)
	out = append(out, ordered[c:]...)
	out = append(out, ordered[:c]...)
	return out
}

package scheduler

import (
	"sort"

	"github.com/you/vllmgate/internal/registry"
)

// Default load score coefficients. Waiting requests cost more future latency
// per unit than already-running ones, so they weigh double.
const (
	DefaultRunningWeight = 1.0
	DefaultWaitingWeight = 2.0
	DefaultKVCacheWeight = 1.0
)

// leastLoad ranks by a linear score over the worker's self-reported capacity
// signal, lowest first. Zero coefficients fall back to the defaults.
type leastLoad struct {
	RunningWeight float64
	WaitingWeight float64
	KVCacheWeight float64
}

func (s *leastLoad) Name() string { return LeastLoad }

func (s *leastLoad) score(c registry.Capacity) float64 {
	a, b, k := s.RunningWeight, s.WaitingWeight, s.KVCacheWeight
	if a == 0 && b == 0 && k == 0 {
		a, b, k = DefaultRunningWeight, DefaultWaitingWeight, DefaultKVCacheWeight
	}
	return a*float64(c.Running) + b*float64(c.Waiting) + k*float64(c.KVCacheUsed)
}

func (s *leastLoad) Rank(_ Request, workers []*registry.Worker) []*registry.Worker {
	out := byID(workers)
	sort.SliceStable(out, func(i, j int) bool {
		return s.score(out[i].Capacity) < s.score(out[j].Capacity)
	})
	return out
}

// SetLoadWeights overrides the least_load coefficients. Negative values are
// ignored; capacity costs never rank a loaded worker ahead of an idle one.
func (e *Engine) SetLoadWeights(running, waiting, kvCache float64) {
	if running < 0 || waiting < 0 || kvCache < 0 {
		return
	}
	ll, ok := e.strategies[LeastLoad].(*leastLoad)
	if !ok {
		return
	}
	ll.RunningWeight = running
	ll.WaitingWeight = waiting
	ll.KVCacheWeight = kvCache
}

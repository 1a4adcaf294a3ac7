package scheduler

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/you/vllmgate/internal/registry"
)

// weighted ranks by weighted shuffle (Efraimidis-Spirakis): each worker draws
// a key of u^(1/weight) and candidates sort by key descending. Over many
// calls the first-rank distribution is proportional to weight, while any
// single call still yields a full failover order.
type weighted struct{}

func (weighted) Name() string { return Weighted }

func (weighted) Rank(_ Request, workers []*registry.Worker) []*registry.Worker {
	type keyed struct {
		w   *registry.Worker
		key float64
	}
	ordered := byID(workers)
	ks := make([]keyed, len(ordered))
	for i, w := range ordered {
		weight := w.Weight
		if weight <= 0 {
			weight = 1
		}
		u := rand.Float64()
		for u == 0 {
			u = rand.Float64()
		}
		ks[i] = keyed{w: w, key: math.Pow(u, 1/float64(weight))}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key > ks[j].key })
	out := make([]*registry.Worker, len(ks))
	for i, k := range ks {
		out[i] = k.w
	}
	return out
}

package scheduler

import (
	"sort"

	"github.com/you/vllmgate/internal/registry"
)

// minimal ranks by the dispatcher's own count of open calls per worker,
// lowest first. Self-reported running/waiting figures lag behind long-lived
// streaming responses; the gateway-side counter does not.
type minimal struct {
	inflight InFlight
}

func (s *minimal) Name() string { return Minimal }

func (s *minimal) Rank(_ Request, workers []*registry.Worker) []*registry.Worker {
	out := byID(workers)
	sort.SliceStable(out, func(i, j int) bool {
		return s.inflight.Get(out[i].ID) < s.inflight.Get(out[j].ID)
	})
	return out
}

package scheduler

import (
	"math/rand/v2"

	"github.com/you/vllmgate/internal/registry"
)

// random returns a uniformly shuffled ranking per call.
type random struct{}

func (random) Name() string { return Random }

func (random) Rank(_ Request, workers []*registry.Worker) []*registry.Worker {
	out := byID(workers)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

package scheduler

import (
	"errors"
	"sort"

	"github.com/you/vllmgate/internal/registry"
)

var (
	// ErrInvalidStrategy is returned for an unrecognized strategy name.
	ErrInvalidStrategy = errors.New("scheduler: invalid strategy")
	// ErrNoEligibleWorkers is returned when the candidate set is empty.
	ErrNoEligibleWorkers = errors.New("scheduler: no eligible workers")
)

// Request carries the context a strategy may need to rank candidates.
type Request struct {
	Model   string
	Prompt  string // prompt prefix source for affinity strategies
	TraceID string
}

// Strategy ranks eligible workers, best candidate first, so the dispatcher
// can fail over down the list without re-invoking selection. Implementations
// must not mutate the input slice's workers and must break ties by worker id
// ascending.
type Strategy interface {
	Name() string
	Rank(req Request, workers []*registry.Worker) []*registry.Worker
}

// InFlight exposes the dispatcher's own count of open calls per worker,
// used by the minimal strategy where self-reported load lags behind
// connection-level concurrency.
type InFlight interface {
	Get(workerID string) int64
}

// Strategy names accepted on requests. An empty strategy falls back to
// round robin.
const (
	RoundRobin = "round_robin"
	Weighted   = "weighted"
	LeastLoad  = "least_load"
	Random     = "random"
	Minimal    = "minimal"
	SimPrompt  = "sim_prompt"
)

// Engine holds one Strategy per name and routes ranking calls to it.
type Engine struct {
	strategies map[string]Strategy
	affinity   *simPrompt
}

// NewEngine constructs an engine with every built-in strategy registered.
func NewEngine(inflight InFlight, affinitySize int) *Engine {
	ll := &leastLoad{}
	sp := newSimPrompt(affinitySize, ll)
	e := &Engine{strategies: map[string]Strategy{}, affinity: sp}
	for _, s := range []Strategy{
		newRoundRobin(),
		&weighted{},
		ll,
		&random{},
		&minimal{inflight: inflight},
		sp,
	} {
		e.strategies[s.Name()] = s
	}
	return e
}

// Rank produces the candidate order for one request.
func (e *Engine) Rank(req Request, strategy string, workers []*registry.Worker) ([]*registry.Worker, error) {
	if strategy == "" {
		strategy = RoundRobin
	}
	s, ok := e.strategies[strategy]
	if !ok {
		return nil, ErrInvalidStrategy
	}
	if len(workers) == 0 {
		return nil, ErrNoEligibleWorkers
	}
	return s.Rank(req, workers), nil
}

// Observe records which worker ultimately served a request so that affinity
// strategies can learn from it.
func (e *Engine) Observe(req Request, workerID string) {
	e.affinity.record(req, workerID)
}

// byID returns a copy of workers sorted by id ascending, the canonical
// pre-ranking order every strategy starts from.
func byID(workers []*registry.Worker) []*registry.Worker {
	out := append([]*registry.Worker(nil), workers...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

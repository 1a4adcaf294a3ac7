package scheduler

import (
	"container/list"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/you/vllmgate/internal/registry"
)

// DefaultAffinitySize bounds the prompt affinity cache.
const DefaultAffinitySize = 1024

// prefixLen is how much of the normalized prompt feeds the affinity hash.
// Shared system prompts and few-shot preambles fit well within this.
const prefixLen = 256

// simPrompt remembers which worker last served a given prompt prefix so a
// follow-up request with the same prefix lands on the worker that still holds
// the KV cache for it. Entries are evicted least-recently-used. On a miss the
// ranking falls back to least_load.
type simPrompt struct {
	mu       sync.Mutex
	size     int
	order    *list.List               // front = most recently used
	entries  map[string]*list.Element // key -> element holding *affinityEntry
	fallback *leastLoad
}

type affinityEntry struct {
	key      string
	workerID string
}

func newSimPrompt(size int, fallback *leastLoad) *simPrompt {
	if size <= 0 {
		size = DefaultAffinitySize
	}
	return &simPrompt{
		size:     size,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		fallback: fallback,
	}
}

func (s *simPrompt) Name() string { return SimPrompt }

// affinityKey hashes the normalized prompt prefix, scoped by model.
func affinityKey(model, prompt string) string {
	p := strings.TrimSpace(prompt)
	if len(p) > prefixLen {
		p = p[:prefixLen]
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(p))
	return fmt.Sprintf("%s|%x", model, h.Sum64())
}

func (s *simPrompt) Rank(req Request, workers []*registry.Worker) []*registry.Worker {
	out := s.fallback.Rank(req, workers)

	key := affinityKey(req.Model, req.Prompt)
	s.mu.Lock()
	var hit string
	if el, ok := s.entries[key]; ok {
		s.order.MoveToFront(el)
		hit = el.Value.(*affinityEntry).workerID
	}
	s.mu.Unlock()
	if hit == "" {
		return out
	}

	// Promote the remembered worker if it is still eligible.
	for i, w := range out {
		if w.ID == hit {
			if i > 0 {
				promoted := out[i]
				copy(out[1:i+1], out[:i])
				out[0] = promoted
			}
			return out
		}
	}
	return out
}

// record stores the winning worker for the request's prefix hash. Concurrent
// misses on the same prefix may race; last writer wins.
func (s *simPrompt) record(req Request, workerID string) {
	key := affinityKey(req.Model, req.Prompt)
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		el.Value.(*affinityEntry).workerID = workerID
		s.order.MoveToFront(el)
		return
	}
	s.entries[key] = s.order.PushFront(&affinityEntry{key: key, workerID: workerID})
	if s.order.Len() > s.size {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*affinityEntry).key)
	}
}

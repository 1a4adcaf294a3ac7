package scheduler

import (
	"testing"

	"github.com/you/vllmgate/internal/registry"
)

type fakeInflight map[string]int64

func (f fakeInflight) Get(id string) int64 { return f[id] }

func workers(ids ...string) []*registry.Worker {
	out := make([]*registry.Worker, len(ids))
	for i, id := range ids {
		out[i] = &registry.Worker{ID: id, Weight: 1}
	}
	return out
}

func ranking(ws []*registry.Worker) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}

func TestEngineErrors(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	if _, err := e.Rank(Request{Model: "m"}, "bogus", workers("a")); err != ErrInvalidStrategy {
		t.Fatalf("expected ErrInvalidStrategy, got %v", err)
	}
	if _, err := e.Rank(Request{Model: "m"}, RoundRobin, nil); err != ErrNoEligibleWorkers {
		t.Fatalf("expected ErrNoEligibleWorkers, got %v", err)
	}
}

func TestEngineDefaultsToRoundRobin(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	first, err := e.Rank(Request{Model: "m"}, "", workers("b", "a"))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if first[0].ID != "a" {
		t.Fatalf("first = %s; want a", first[0].ID)
	}
}

func TestRoundRobinRotates(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	ws := workers("c", "a", "b")
	var firsts []string
	for i := 0; i < 6; i++ {
		ranked, err := e.Rank(Request{Model: "m"}, RoundRobin, ws)
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		if len(ranked) != 3 {
			t.Fatalf("ranking lost workers: %v", ranking(ranked))
		}
		firsts = append(firsts, ranked[0].ID)
	}
	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if firsts[i] != want[i] {
			t.Fatalf("rotation = %v; want %v", firsts, want)
		}
	}
}

func TestRoundRobinCursorPerModel(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	ws := workers("a", "b")
	r1, _ := e.Rank(Request{Model: "m1"}, RoundRobin, ws)
	r2, _ := e.Rank(Request{Model: "m2"}, RoundRobin, ws)
	if r1[0].ID != "a" || r2[0].ID != "a" {
		t.Fatalf("independent cursors expected, got %s / %s", r1[0].ID, r2[0].ID)
	}
}

func TestLeastLoadOrdering(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	idle := &registry.Worker{ID: "idle"}
	busy := &registry.Worker{ID: "busy", Capacity: registry.Capacity{Running: 5}}
	queued := &registry.Worker{ID: "queued", Capacity: registry.Capacity{Waiting: 3}}

	ranked, err := e.Rank(Request{Model: "m"}, LeastLoad, []*registry.Worker{busy, queued, idle})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	// idle: 0, busy: 5, queued: 6 (waiting weighs double)
	got := ranking(ranked)
	want := []string{"idle", "busy", "queued"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v; want %v", got, want)
		}
	}
}

func TestLeastLoadTieBreaksByID(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	ranked, _ := e.Rank(Request{Model: "m"}, LeastLoad, workers("b", "a", "c"))
	got := ranking(ranked)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v; want %v", got, want)
		}
	}
}

func TestRandomIsAPermutation(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	ws := workers("a", "b", "c", "d")
	ranked, err := e.Rank(Request{Model: "m"}, Random, ws)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	seen := map[string]bool{}
	for _, w := range ranked {
		seen[w.ID] = true
	}
	if len(seen) != 4 {
		t.Fatalf("not a permutation: %v", ranking(ranked))
	}
}

func TestMinimalRanksByOpenCalls(t *testing.T) {
	inflight := fakeInflight{"a": 4, "b": 0, "c": 2}
	e := NewEngine(inflight, 0)
	ranked, err := e.Rank(Request{Model: "m"}, Minimal, workers("a", "b", "c"))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	got := ranking(ranked)
	want := []string{"b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v; want %v", got, want)
		}
	}
}

func TestWeightedFavorsHeavierWorkers(t *testing.T) {
	e := NewEngine(fakeInflight{}, 0)
	heavy := &registry.Worker{ID: "heavy", Weight: 8}
	light := &registry.Worker{ID: "light", Weight: 1}

	heavyFirst := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		ranked, err := e.Rank(Request{Model: "m"}, Weighted, []*registry.Worker{light, heavy})
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		if len(ranked) != 2 {
			t.Fatalf("ranking lost workers: %v", ranking(ranked))
		}
		if ranked[0].ID == "heavy" {
			heavyFirst++
		}
	}
	// Expectation is 8/9 of trials; anything above a plain majority shows the
	// weighting took effect without making the test flaky.
	if heavyFirst <= trials*6/10 {
		t.Fatalf("heavy worker first in only %d/%d trials", heavyFirst, trials)
	}
	if heavyFirst == trials {
		t.Fatalf("light worker never ranked first; shuffle is not probabilistic")
	}
}

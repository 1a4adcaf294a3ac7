package registry

import (
	"context"
	"testing"
	"time"

	"github.com/you/vllmgate/internal/store"
)

func TestReportRefreshesWorker(t *testing.T) {
	reg := New(store.NewMemory())
	health := NewHealth(reg, 5)
	ctx := context.Background()
	created, _ := reg.Register(ctx, &Worker{ID: "w1", Address: "a", Port: 1})

	if err := health.Report(ctx, "w1", Capacity{Running: 2}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	got, _ := reg.Get("w1")
	if got.Capacity.Running != 2 || got.Status != StatusOnline {
		t.Fatalf("report not applied: %+v", got)
	}
	if got.LastUpdate.Before(created.LastUpdate) {
		t.Fatalf("last update not refreshed")
	}

	if err := health.Report(ctx, "nope", Capacity{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSweepMarksStaleOffline(t *testing.T) {
	reg := New(store.NewMemory())
	health := NewHealth(reg, 5)
	ctx := context.Background()
	_, _ = reg.Register(ctx, &Worker{ID: "stale", Address: "a", Port: 1})
	_, _ = reg.Register(ctx, &Worker{ID: "fresh", Address: "b", Port: 2})

	reg.mu.Lock()
	reg.workers["stale"].LastUpdate = time.Now().Add(-time.Minute)
	reg.mu.Unlock()

	ids := health.Sweep(ctx)
	if len(ids) != 1 || ids[0] != "stale" {
		t.Fatalf("sweep = %v; want [stale]", ids)
	}
	got, _ := reg.Get("stale")
	if got.Status != StatusOffline {
		t.Fatalf("status = %s; want offline", got.Status)
	}
	if got, _ := reg.Get("fresh"); got.Status != StatusOnline {
		t.Fatalf("fresh worker touched: %+v", got)
	}
	// Second sweep has nothing left to do.
	if ids := health.Sweep(ctx); len(ids) != 0 {
		t.Fatalf("second sweep = %v; want none", ids)
	}
}

func TestOutcomeDegradationAndRecovery(t *testing.T) {
	reg := New(store.NewMemory())
	health := NewHealth(reg, 3)
	ctx := context.Background()
	_, _ = reg.Register(ctx, &Worker{ID: "w1", Address: "a", Port: 1})

	fail := Outcome{WorkerID: "w1", Transport: true}
	health.RecordOutcome(ctx, fail)
	if got, _ := reg.Get("w1"); got.Status != StatusOnline {
		t.Fatalf("one failure should not demote, got %s", got.Status)
	}
	health.RecordOutcome(ctx, fail)
	if got, _ := reg.Get("w1"); got.Status != StatusDegraded {
		t.Fatalf("status = %s; want degraded", got.Status)
	}
	health.RecordOutcome(ctx, fail)
	if got, _ := reg.Get("w1"); got.Status != StatusOffline {
		t.Fatalf("status = %s; want offline after threshold", got.Status)
	}

	// A fresh capacity report clears the slate.
	if err := health.Report(ctx, "w1", Capacity{}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if got, _ := reg.Get("w1"); got.Status != StatusOnline {
		t.Fatalf("status = %s; want online after report", got.Status)
	}

	// Success after partial degradation also restores online.
	health.RecordOutcome(ctx, fail)
	health.RecordOutcome(ctx, fail)
	health.RecordOutcome(ctx, Outcome{WorkerID: "w1", OK: true})
	if got, _ := reg.Get("w1"); got.Status != StatusOnline {
		t.Fatalf("status = %s; want online after success", got.Status)
	}
}

func TestApplicationErrorsNotHeldAgainstWorker(t *testing.T) {
	reg := New(store.NewMemory())
	health := NewHealth(reg, 3)
	ctx := context.Background()
	_, _ = reg.Register(ctx, &Worker{ID: "w1", Address: "a", Port: 1})

	for i := 0; i < 10; i++ {
		health.RecordOutcome(ctx, Outcome{WorkerID: "w1", OK: false, Transport: false})
	}
	if got, _ := reg.Get("w1"); got.Status != StatusOnline {
		t.Fatalf("application errors demoted worker to %s", got.Status)
	}
}

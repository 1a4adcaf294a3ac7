package registry

import (
	"context"
	"time"

	"github.com/you/vllmgate/internal/logx"
)

// Outcome is the result of one dispatch attempt, fed back into health
// bookkeeping.
type Outcome struct {
	WorkerID  string
	OK        bool
	Transport bool // failure was connectivity/timeout, not an application error
	Latency   time.Duration
	TraceID   string
}

// Health tracks worker liveness. Capacity reports refresh records, the sweep
// reclassifies silent workers, and dispatch outcomes demote workers that keep
// failing at the transport level. All state lives in the registry itself so
// reports and outcome updates contend on the same per-record serialization.
type Health struct {
	reg          *Registry
	degradeAfter int
	offlineAfter int
}

// DefaultFailureThreshold is the consecutive transport failure count at
// which a worker is taken offline.
const DefaultFailureThreshold = 5

func NewHealth(reg *Registry, failureThreshold int) *Health {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	return &Health{reg: reg, degradeAfter: 2, offlineAfter: failureThreshold}
}

// Report merges a fresh capacity sample, marks the worker online and clears
// any accumulated failure count.
func (h *Health) Report(ctx context.Context, id string, cap Capacity) error {
	r := h.reg
	r.mu.Lock()
	w, ok := r.workers[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	w.Capacity = cap
	w.Status = StatusOnline
	w.failures = 0
	w.LastUpdate = time.Now()
	out := w.Clone()
	r.mu.Unlock()

	r.persist(ctx, out)
	return nil
}

// Sweep reclassifies workers whose last update exceeds their heartbeat
// timeout as offline and returns their ids. Selection already treats stale
// workers as offline, so the sweep only reconciles the stored status.
func (h *Health) Sweep(ctx context.Context) []string {
	now := time.Now()
	r := h.reg
	var marked []*Worker
	r.mu.Lock()
	for _, w := range r.workers {
		if w.Status != StatusOffline && w.Stale(now) {
			w.Status = StatusOffline
			marked = append(marked, w.Clone())
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(marked))
	for _, w := range marked {
		r.persist(ctx, w)
		ids = append(ids, w.ID)
		logx.Log.Warn().Str("node_id", w.ID).Time("last_update", w.LastUpdate).Msg("worker stale, marked offline")
	}
	return ids
}

// RecordOutcome applies one dispatch outcome. A success clears degradation;
// consecutive transport failures demote the worker to degraded and, past the
// failure threshold, offline. Application-level failures are not held against
// the worker.
func (h *Health) RecordOutcome(ctx context.Context, oc Outcome) {
	r := h.reg
	r.mu.Lock()
	w, ok := r.workers[oc.WorkerID]
	if !ok {
		r.mu.Unlock()
		return
	}
	changed := false
	if oc.OK {
		if w.failures != 0 || w.Status == StatusDegraded {
			w.failures = 0
			if w.Status == StatusDegraded {
				w.Status = StatusOnline
			}
			changed = true
		}
	} else if oc.Transport {
		w.failures++
		switch {
		case w.failures >= h.offlineAfter && w.Status != StatusOffline:
			w.Status = StatusOffline
			changed = true
		case w.failures >= h.degradeAfter && w.Status == StatusOnline:
			w.Status = StatusDegraded
			changed = true
		}
	}
	var out *Worker
	if changed {
		w.LastUpdate = time.Now()
		out = w.Clone()
	}
	r.mu.Unlock()

	if out != nil {
		r.persist(ctx, out)
		logx.Log.Warn().Str("trace_id", oc.TraceID).Str("node_id", out.ID).Str("node_status", string(out.Status)).Msg("worker status changed")
	}
}

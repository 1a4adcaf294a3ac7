package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/you/vllmgate/internal/logx"
	"github.com/you/vllmgate/internal/metrics"
	"github.com/you/vllmgate/internal/registry"
	"github.com/you/vllmgate/internal/scheduler"
)

// ErrNodeUnavailable is returned once every candidate has been attempted
// without a single worker accepting the call.
var ErrNodeUnavailable = errors.New("dispatch: no node available")

// DefaultMaxAttempts bounds failover within one request.
const DefaultMaxAttempts = 2

// defaultCallTimeout applies when neither the config nor the worker record
// provides a per-attempt deadline.
const defaultCallTimeout = 60 * time.Second

// Request is one inbound inference call.
type Request struct {
	TraceID  string
	Model    string
	Strategy string
	Prompt   string // prompt prefix for affinity strategies
	Path     string // forwarded verbatim, e.g. /v1/completions
	Body     []byte // opaque payload forwarded to the worker
}

// Result is the worker's HTTP response, handed back untouched. A non-2xx
// status is the worker's own application-level answer, never retried.
type Result struct {
	WorkerID   string
	StatusCode int
	Body       []byte
}

// Options tunes a Dispatcher.
type Options struct {
	MaxAttempts int
	// CallTimeout, when set, replaces the candidate's heartbeat timeout as
	// the per-attempt deadline.
	CallTimeout time.Duration
}

// Dispatcher routes one request to a worker: filter eligible candidates,
// rank them, forward with a deadline, and fail over down the ranking on
// transport failures, reporting every outcome to the health tracker.
type Dispatcher struct {
	reg         *registry.Registry
	health      *registry.Health
	engine      *scheduler.Engine
	tracker     *Tracker
	client      *http.Client
	maxAttempts int
	callTimeout time.Duration
}

func New(reg *registry.Registry, health *registry.Health, engine *scheduler.Engine, tracker *Tracker, opts Options) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{
		reg:         reg,
		health:      health,
		engine:      engine,
		tracker:     tracker,
		client:      &http.Client{},
		maxAttempts: opts.MaxAttempts,
		callTimeout: opts.CallTimeout,
	}
}

// Dispatch runs one request end to end. Scheduler errors (unknown strategy,
// empty eligible set) are fatal for the request; only connectivity and
// deadline failures enter the failover loop.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	eligible := d.reg.List(registry.Filter{Model: req.Model, MinStatus: registry.StatusOnline})
	sreq := scheduler.Request{Model: req.Model, Prompt: req.Prompt, TraceID: req.TraceID}
	ranked, err := d.engine.Rank(sreq, req.Strategy, eligible)
	if err != nil {
		return nil, err
	}
	metrics.RecordSelection(req.Strategy)

	attempts := d.maxAttempts
	if attempts > len(ranked) {
		attempts = len(ranked)
	}
	for i := 0; i < attempts; i++ {
		w := ranked[i]
		res, err := d.attempt(ctx, req, w)
		if err == nil {
			d.health.RecordOutcome(ctx, registry.Outcome{WorkerID: w.ID, OK: true, TraceID: req.TraceID})
			d.engine.Observe(sreq, w.ID)
			return res, nil
		}
		if ctx.Err() != nil {
			// Caller is gone; abandon failover without charging the worker.
			return nil, ctx.Err()
		}
		d.health.RecordOutcome(ctx, registry.Outcome{WorkerID: w.ID, OK: false, Transport: true, TraceID: req.TraceID})
		logx.Log.Warn().Str("trace_id", req.TraceID).Str("node_id", w.ID).Str("model", req.Model).Int("attempt", i+1).Err(err).Msg("dispatch attempt failed")
	}
	return nil, ErrNodeUnavailable
}

// attempt forwards the request to a single worker under a per-attempt
// deadline. Any returned error is a transport failure.
func (d *Dispatcher) attempt(ctx context.Context, req Request, w *registry.Worker) (*Result, error) {
	timeout := d.callTimeout
	if timeout <= 0 {
		timeout = w.HeartbeatTimeout
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(actx, http.MethodPost, w.URL()+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Trace-ID", req.TraceID)

	d.tracker.Inc(w.ID)
	defer d.tracker.Dec(w.ID)

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		metrics.RecordDispatch(w.ID, "transport_error")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordDispatch(w.ID, "transport_error")
		return nil, err
	}
	metrics.RecordDispatch(w.ID, "ok")
	metrics.ObserveRequestDuration(w.ID, req.Model, time.Since(start))
	return &Result{WorkerID: w.ID, StatusCode: resp.StatusCode, Body: body}, nil
}

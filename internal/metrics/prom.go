package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "vllmgate_build_info",
			Help:        "Build information",
			ConstLabels: prometheus.Labels{"component": "server"},
		},
		[]string{"date", "sha", "version"},
	)

	dispatchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vllmgate_dispatch_attempts_total",
			Help: "Dispatch attempts per worker by outcome",
		},
		[]string{"worker_id", "outcome"},
	)

	selections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vllmgate_strategy_selections_total",
			Help: "Selection engine invocations per strategy",
		},
		[]string{"strategy"},
	)

	workersOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vllmgate_workers_online",
			Help: "Workers currently considered online",
		},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vllmgate_request_duration_seconds",
			Help:    "Forwarded request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"worker_id", "model"},
	)
)

// Register registers all metrics with the provided registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, dispatchAttempts, selections, workersOnline, requestDuration)
}

// SetServerBuildInfo sets the build info metric for the server.
func SetServerBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RecordDispatch increments the dispatch attempt counter.
func RecordDispatch(workerID, outcome string) {
	dispatchAttempts.WithLabelValues(workerID, outcome).Inc()
}

// RecordSelection counts one selection engine invocation.
func RecordSelection(strategy string) {
	if strategy == "" {
		strategy = "round_robin"
	}
	selections.WithLabelValues(strategy).Inc()
}

// SetWorkersOnline updates the online worker gauge.
func SetWorkersOnline(n int) {
	workersOnline.Set(float64(n))
}

// ObserveRequestDuration records the duration of a forwarded request.
func ObserveRequestDuration(workerID, model string, d time.Duration) {
	requestDuration.WithLabelValues(workerID, model).Observe(d.Seconds())
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/you/vllmgate/internal/api"
	"github.com/you/vllmgate/internal/auth"
	"github.com/you/vllmgate/internal/config"
	"github.com/you/vllmgate/internal/dispatch"
	"github.com/you/vllmgate/internal/metrics"
	"github.com/you/vllmgate/internal/registry"
)

// New constructs the HTTP handler for the gateway.
func New(reg *registry.Registry, health *registry.Health, d *dispatch.Dispatcher, issuer *auth.JWT, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Mount("/", api.NewRouter(reg, health, d, issuer, cfg.AllowedOrigins))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// StartSweeper reconciles stale workers on a fixed interval until ctx ends.
// Selection treats stale workers as offline regardless, so the sweep only
// keeps the stored status and metrics honest.
func StartSweeper(ctx context.Context, health *registry.Health, reg *registry.Registry, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				health.Sweep(ctx)
				metrics.SetWorkersOnline(len(reg.List(registry.Filter{MinStatus: registry.StatusOnline})))
			case <-ctx.Done():
				return
			}
		}
	}()
}

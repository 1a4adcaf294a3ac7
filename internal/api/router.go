package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/you/vllmgate/internal/auth"
	"github.com/you/vllmgate/internal/dispatch"
	"github.com/you/vllmgate/internal/registry"
)

// NewRouter builds the public API router.
func NewRouter(reg *registry.Registry, health *registry.Health, d *dispatch.Dispatcher, issuer *auth.JWT, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type", TraceHeader},
		}))
	}
	r.Use(traceMiddleware, requestLogger)

	r.Post("/api/user/login", LoginHandler(issuer))

	r.Route("/api/node", func(r chi.Router) {
		r.Use(RequireAuth(issuer))
		r.Post("/register", RegisterNodeHandler(reg))
		r.Put("/update/{id}", UpdateNodeHandler(reg))
		r.Delete("/delete/{id}", DeleteNodeHandler(reg))
		r.Get("/status/{id}", GetNodeHandler(reg))
		r.Get("/get_node/{id}", GetNodeHandler(reg))
		r.Get("/all", ListNodesHandler(reg))
		r.Post("/report/{id}", ReportHandler(health))
	})

	r.Post("/v1/completions", CompletionsHandler(d, "/v1/completions"))
	r.Post("/v1/chat/completions", CompletionsHandler(d, "/v1/chat/completions"))
	return r
}

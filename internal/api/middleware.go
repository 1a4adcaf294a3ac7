package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/you/vllmgate/internal/auth"
	"github.com/you/vllmgate/internal/logx"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	usernameKey
)

// TraceHeader is the correlation header carried end to end.
const TraceHeader = "X-Trace-ID"

// TraceID returns the correlation id for the request.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// Username returns the authenticated caller identity, if any.
func Username(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}

// traceMiddleware reads X-Trace-ID, generates one when absent, and echoes it
// on the response.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := r.Header.Get(TraceHeader)
		if tid == "" {
			tid = uuid.NewString()
		}
		w.Header().Set(TraceHeader, tid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceIDKey, tid)))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logx.Log.Info().Str("trace_id", TraceID(r.Context())).Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

// RequireAuth validates the bearer credential on protected routes and makes
// the caller identity available downstream. Handlers never see raw tokens.
func RequireAuth(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				writeEnvelope(w, Failure(http.StatusUnauthorized, "unauthorized", "token required", TraceID(r.Context())))
				return
			}
			user, err := v.Verify(tok)
			if err != nil {
				writeEnvelope(w, FromError(err, TraceID(r.Context())))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, user)))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/you/vllmgate/internal/auth"
	"github.com/you/vllmgate/internal/dispatch"
	"github.com/you/vllmgate/internal/logx"
	"github.com/you/vllmgate/internal/registry"
	"github.com/you/vllmgate/internal/scheduler"
)

// Envelope is the canonical response shape. Data and Error are mutually
// exclusive and omitted when empty.
type Envelope struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	TraceID string `json:"trace_id"`
}

// Success wraps data in a 200 envelope.
func Success(data any, traceID string) Envelope {
	return Envelope{Message: "success", Status: "success", Code: http.StatusOK, Data: data, TraceID: traceID}
}

// Failure builds an error envelope with the given code and message.
func Failure(code int, message, detail, traceID string) Envelope {
	return Envelope{Message: message, Status: "error", Code: code, Error: detail, TraceID: traceID}
}

// FromError maps a domain error onto the envelope taxonomy.
func FromError(err error, traceID string) Envelope {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return Failure(http.StatusNotFound, "not found", err.Error(), traceID)
	case errors.Is(err, registry.ErrDuplicateID):
		return Failure(http.StatusConflict, "conflict", err.Error(), traceID)
	case errors.Is(err, scheduler.ErrInvalidStrategy):
		return Failure(http.StatusBadRequest, "invalid strategy", err.Error(), traceID)
	case errors.Is(err, scheduler.ErrNoEligibleWorkers):
		return Failure(http.StatusNotFound, "no eligible workers", err.Error(), traceID)
	case errors.Is(err, dispatch.ErrNodeUnavailable):
		return Failure(http.StatusServiceUnavailable, "node unavailable", err.Error(), traceID)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnknownUser):
		return Failure(http.StatusUnauthorized, "unauthorized", err.Error(), traceID)
	default:
		return Failure(http.StatusInternalServerError, "error", err.Error(), traceID)
	}
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logx.Log.Error().Str("trace_id", env.TraceID).Err(err).Msg("write envelope")
	}
}

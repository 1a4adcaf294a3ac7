package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/you/vllmgate/internal/registry"
)

// registerRequest is the validated schema for node registration. Unknown
// fields are rejected rather than silently dropped.
type registerRequest struct {
	ID                      string   `json:"node_id"`
	Kind                    string   `json:"node_type"`
	Address                 string   `json:"node_address"`
	Port                    int      `json:"node_port"`
	Models                  []string `json:"models"`
	Weight                  int      `json:"weight"`
	Remark                  string   `json:"remark"`
	HeartbeatTimeoutSeconds float64  `json:"heartbeat_timeout_seconds"`
}

type updateRequest struct {
	Kind                    *string            `json:"node_type"`
	Address                 *string            `json:"node_address"`
	Port                    *int               `json:"node_port"`
	Status                  *registry.Status   `json:"node_status"`
	Models                  *[]string          `json:"models"`
	Weight                  *int               `json:"weight"`
	Remark                  *string            `json:"remark"`
	Capacity                *registry.Capacity `json:"capacity"`
	HeartbeatTimeoutSeconds *float64           `json:"heartbeat_timeout_seconds"`
}

// decodeStrict parses a JSON body failing closed on unknown fields.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// RegisterNodeHandler handles POST /api/node/register.
func RegisterNodeHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := TraceID(r.Context())
		var req registerRequest
		if err := decodeStrict(r, &req); err != nil {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid params", err.Error(), tid))
			return
		}
		if req.Address == "" || req.Port <= 0 {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid params", "node_address and node_port are required", tid))
			return
		}
		worker := &registry.Worker{
			ID:               req.ID,
			Kind:             req.Kind,
			Address:          req.Address,
			Port:             req.Port,
			Models:           req.Models,
			Weight:           req.Weight,
			Remark:           req.Remark,
			HeartbeatTimeout: time.Duration(req.HeartbeatTimeoutSeconds * float64(time.Second)),
		}
		created, err := reg.Register(r.Context(), worker)
		if err != nil {
			writeEnvelope(w, FromError(err, tid))
			return
		}
		writeEnvelope(w, Success(created, tid))
	}
}

// UpdateNodeHandler handles PUT /api/node/update/{id}.
func UpdateNodeHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := TraceID(r.Context())
		var req updateRequest
		if err := decodeStrict(r, &req); err != nil {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid params", err.Error(), tid))
			return
		}
		patch := registry.Patch{
			Kind:     req.Kind,
			Address:  req.Address,
			Port:     req.Port,
			Status:   req.Status,
			Models:   req.Models,
			Weight:   req.Weight,
			Remark:   req.Remark,
			Capacity: req.Capacity,
		}
		if req.HeartbeatTimeoutSeconds != nil {
			d := time.Duration(*req.HeartbeatTimeoutSeconds * float64(time.Second))
			patch.HeartbeatTimeout = &d
		}
		updated, err := reg.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			writeEnvelope(w, FromError(err, tid))
			return
		}
		writeEnvelope(w, Success(updated, tid))
	}
}

// DeleteNodeHandler handles DELETE /api/node/delete/{id}. Deleting an unknown
// id is a no-op, not an error.
func DeleteNodeHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := TraceID(r.Context())
		id := chi.URLParam(r, "id")
		if err := reg.Delete(r.Context(), id); err != nil {
			writeEnvelope(w, FromError(err, tid))
			return
		}
		writeEnvelope(w, Success(id, tid))
	}
}

// GetNodeHandler handles GET /api/node/get_node/{id} and /api/node/status/{id}.
func GetNodeHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := TraceID(r.Context())
		worker, err := reg.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeEnvelope(w, FromError(err, tid))
			return
		}
		writeEnvelope(w, Success(worker, tid))
	}
}

// ListNodesHandler handles GET /api/node/all.
func ListNodesHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, Success(reg.List(registry.Filter{}), TraceID(r.Context())))
	}
}

// ReportHandler handles POST /api/node/report/{id}: a worker pushing a fresh
// capacity sample.
func ReportHandler(health *registry.Health) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := TraceID(r.Context())
		var c registry.Capacity
		if err := decodeStrict(r, &c); err != nil {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid params", err.Error(), tid))
			return
		}
		id := chi.URLParam(r, "id")
		if err := health.Report(r.Context(), id, c); err != nil {
			writeEnvelope(w, FromError(err, tid))
			return
		}
		writeEnvelope(w, Success(id, tid))
	}
}

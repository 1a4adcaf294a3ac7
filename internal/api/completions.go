package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/you/vllmgate/internal/dispatch"
	"github.com/you/vllmgate/internal/logx"
)

// completionMeta is the slice of the inference payload the gateway needs for
// routing. The rest of the body is forwarded opaquely.
type completionMeta struct {
	Model    string          `json:"model"`
	Strategy string          `json:"strategy"`
	Prompt   json.RawMessage `json:"prompt"`
	Messages []struct {
		Content string `json:"content"`
	} `json:"messages"`
}

// promptPrefix extracts the text the affinity cache keys on: the prompt for
// completions, the concatenated message contents for chat.
func (m completionMeta) promptPrefix() string {
	if len(m.Messages) > 0 {
		var b strings.Builder
		for _, msg := range m.Messages {
			b.WriteString(msg.Content)
		}
		return b.String()
	}
	var p string
	if err := json.Unmarshal(m.Prompt, &p); err == nil {
		return p
	}
	return string(m.Prompt)
}

// CompletionsHandler forwards POST /v1/completions and /v1/chat/completions
// through the dispatcher.
func CompletionsHandler(d *dispatch.Dispatcher, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := TraceID(r.Context())
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid request", "expected application/json", tid))
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid request", err.Error(), tid))
			return
		}
		var meta completionMeta
		if err := json.Unmarshal(body, &meta); err != nil {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid request", err.Error(), tid))
			return
		}
		if meta.Model == "" {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid model", "model is required", tid))
			return
		}

		res, err := d.Dispatch(r.Context(), dispatch.Request{
			TraceID:  tid,
			Model:    meta.Model,
			Strategy: meta.Strategy,
			Prompt:   meta.promptPrefix(),
			Path:     path,
			Body:     body,
		})
		if err != nil {
			if r.Context().Err() != nil {
				// Client went away; nothing sensible left to write.
				return
			}
			logx.Log.Error().Str("trace_id", tid).Str("model", meta.Model).Err(err).Msg("dispatch failed")
			writeEnvelope(w, FromError(err, tid))
			return
		}
		if res.StatusCode >= http.StatusBadRequest {
			// The worker's own rejection, passed through without retry.
			writeEnvelope(w, Failure(res.StatusCode, "error", string(res.Body), tid))
			return
		}
		writeEnvelope(w, Success(json.RawMessage(res.Body), tid))
	}
}

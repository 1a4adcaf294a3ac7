package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/you/vllmgate/internal/config"
	"github.com/you/vllmgate/internal/logx"
)

// Agent runs on each vLLM host: it registers the node with the gateway and
// pushes periodic capacity reports until the context ends.
type Agent struct {
	cfg    config.NodeConfig
	client *http.Client
	token  string
}

func New(cfg config.NodeConfig) *Agent {
	return &Agent{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

// Run logs in, registers the node, and then reports capacity on the
// configured heartbeat interval.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := a.register(ctx); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	logx.Log.Info().Str("node_id", a.cfg.NodeID).Str("server", a.cfg.ServerURL).Msg("node registered")

	ticker := time.NewTicker(a.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := a.report(ctx); err != nil {
				logx.Log.Warn().Err(err).Msg("capacity report failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *Agent) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"username": a.cfg.Username})
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := a.post(ctx, "/api/user/login", body, http.StatusOK, &env); err != nil {
		return err
	}
	a.token = env.Data.Token
	return nil
}

func (a *Agent) register(ctx context.Context) error {
	body, _ := json.Marshal(map[string]any{
		"node_id":                   a.cfg.NodeID,
		"node_type":                 a.cfg.Kind,
		"node_address":              a.cfg.Address,
		"node_port":                 a.cfg.Port,
		"models":                    a.cfg.Models,
		"weight":                    a.cfg.Weight,
		"heartbeat_timeout_seconds": a.cfg.HeartbeatTimeout.Seconds(),
	})
	err := a.post(ctx, "/api/node/register", body, http.StatusOK, nil)
	if err != nil && isConflict(err) {
		// Already registered from a previous run; reports take it from here.
		return nil
	}
	return err
}

func (a *Agent) report(ctx context.Context) error {
	c := SampleCapacity(ctx, a.client, a.cfg.VLLMMetricsURL)
	body, _ := json.Marshal(c)
	return a.post(ctx, "/api/node/report/"+a.cfg.NodeID, body, http.StatusOK, nil)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("gateway returned %d: %s", e.code, e.body) }

func isConflict(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusConflict
}

func (a *Agent) post(ctx context.Context, path string, body []byte, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		return &statusError{code: resp.StatusCode, body: string(b)}
	}
	if out != nil {
		return json.Unmarshal(b, out)
	}
	return nil
}

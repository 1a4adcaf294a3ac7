package registry

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a worker node.
type Status string

const (
	StatusOnline   Status = "online"
	StatusDegraded Status = "degraded"
	StatusDraining Status = "draining"
	StatusOffline  Status = "offline"
)

// rank orders statuses from least to most available so listings can filter
// by a minimum status.
func (s Status) rank() int {
	switch s {
	case StatusOnline:
		return 3
	case StatusDegraded:
		return 2
	case StatusDraining:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at least as available as min.
func (s Status) AtLeast(min Status) bool { return s.rank() >= min.rank() }

// Capacity is a worker's most recent self-reported load signal.
type Capacity struct {
	Running     uint64 `json:"running"`
	Waiting     uint64 `json:"waiting"`
	KVCacheUsed uint64 `json:"kv_cache_used"`
}

// Worker is one backend inference node as tracked by the registry.
// The JSON field names match the persisted record layout.
type Worker struct {
	ID               string        `json:"node_id"`
	Kind             string        `json:"node_type"`
	Address          string        `json:"node_address"`
	Port             int           `json:"node_port"`
	Status           Status        `json:"node_status"`
	Models           []string      `json:"models,omitempty"`
	Weight           int           `json:"weight,omitempty"`
	Remark           string        `json:"remark,omitempty"`
	Capacity         Capacity      `json:"capacity"`
	HeartbeatTimeout time.Duration `json:"heartbeat_timeout"`
	LastUpdate       time.Time     `json:"update_time"`
	CreatedAt        time.Time     `json:"create_time"`

	// consecutive transport failures observed by the dispatcher; not persisted
	failures int
}

// Stale reports whether the worker has gone silent past its heartbeat timeout.
func (w *Worker) Stale(now time.Time) bool {
	if w.HeartbeatTimeout <= 0 {
		return false
	}
	return now.Sub(w.LastUpdate) > w.HeartbeatTimeout
}

// EffectiveStatus returns the status used for routing decisions. A stale
// worker is treated as offline even if its stored status says otherwise.
func (w *Worker) EffectiveStatus(now time.Time) Status {
	if w.Stale(now) {
		return StatusOffline
	}
	return w.Status
}

// ServesModel reports whether the worker advertises the given model.
// A worker with an empty model list serves all models.
func (w *Worker) ServesModel(model string) bool {
	if len(w.Models) == 0 {
		return true
	}
	for _, m := range w.Models {
		if m == model {
			return true
		}
	}
	return false
}

// URL returns the worker's HTTP base URL.
func (w *Worker) URL() string {
	return fmt.Sprintf("http://%s:%d", w.Address, w.Port)
}

// Clone returns a deep copy, safe to hand out past the registry lock.
func (w *Worker) Clone() *Worker {
	cp := *w
	if w.Models != nil {
		cp.Models = append([]string(nil), w.Models...)
	}
	return &cp
}

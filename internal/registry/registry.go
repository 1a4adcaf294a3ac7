package registry

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/vllmgate/internal/logx"
	"github.com/you/vllmgate/internal/store"
)

var (
	// ErrNotFound is returned for operations on an unknown worker id.
	ErrNotFound = errors.New("registry: worker not found")
	// ErrDuplicateID is returned when registering an id that already exists.
	ErrDuplicateID = errors.New("registry: duplicate worker id")
)

// hashKey is the persisted hash holding one JSON record per worker id.
const hashKey = "nodes"

// DefaultHeartbeatTimeout applies to workers registered without one.
const DefaultHeartbeatTimeout = 15 * time.Second

// Registry is the single source of truth for worker records. All mutations
// happen under the registry lock; reads hand out deep copies so callers never
// observe a half-updated record. Records are mirrored to the KV store after
// each mutation, outside the lock.
type Registry struct {
	mu      sync.RWMutex
	workers map[string]*Worker
	kv      store.KV
}

func New(kv store.KV) *Registry {
	return &Registry{workers: make(map[string]*Worker), kv: kv}
}

// Load hydrates the registry from the KV store at startup.
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.kv.HashGetAll(ctx, hashKey)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range records {
		var w Worker
		if err := json.Unmarshal(b, &w); err != nil {
			logx.Log.Warn().Str("node_id", id).Err(err).Msg("skip corrupt worker record")
			continue
		}
		r.workers[w.ID] = &w
	}
	return nil
}

// Register adds a new worker. A missing id is assigned; a supplied id that
// already exists fails with ErrDuplicateID.
func (r *Registry) Register(ctx context.Context, w *Worker) (*Worker, error) {
	now := time.Now()
	cp := w.Clone()
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Kind == "" {
		cp.Kind = "worker"
	}
	if cp.Weight <= 0 {
		cp.Weight = 1
	}
	if cp.HeartbeatTimeout <= 0 {
		cp.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	cp.Status = StatusOnline
	cp.CreatedAt = now
	cp.LastUpdate = now
	cp.failures = 0

	r.mu.Lock()
	if _, ok := r.workers[cp.ID]; ok {
		r.mu.Unlock()
		return nil, ErrDuplicateID
	}
	r.workers[cp.ID] = cp
	out := cp.Clone()
	r.mu.Unlock()

	r.persist(ctx, out)
	return out, nil
}

// Patch describes a partial update; nil fields are left untouched.
type Patch struct {
	Kind             *string        `json:"node_type,omitempty"`
	Address          *string        `json:"node_address,omitempty"`
	Port             *int           `json:"node_port,omitempty"`
	Status           *Status        `json:"node_status,omitempty"`
	Models           *[]string      `json:"models,omitempty"`
	Weight           *int           `json:"weight,omitempty"`
	Remark           *string        `json:"remark,omitempty"`
	Capacity         *Capacity      `json:"capacity,omitempty"`
	HeartbeatTimeout *time.Duration `json:"heartbeat_timeout,omitempty"`
}

// Update merges the supplied fields into an existing record and refreshes
// its update time.
func (r *Registry) Update(ctx context.Context, id string, p Patch) (*Worker, error) {
	r.mu.Lock()
	w, ok := r.workers[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	if p.Kind != nil {
		w.Kind = *p.Kind
	}
	if p.Address != nil {
		w.Address = *p.Address
	}
	if p.Port != nil {
		w.Port = *p.Port
	}
	if p.Status != nil {
		w.Status = *p.Status
	}
	if p.Models != nil {
		w.Models = append([]string(nil), (*p.Models)...)
	}
	if p.Weight != nil && *p.Weight > 0 {
		w.Weight = *p.Weight
	}
	if p.Remark != nil {
		w.Remark = *p.Remark
	}
	if p.Capacity != nil {
		w.Capacity = *p.Capacity
	}
	if p.HeartbeatTimeout != nil && *p.HeartbeatTimeout > 0 {
		w.HeartbeatTimeout = *p.HeartbeatTimeout
	}
	w.LastUpdate = time.Now()
	out := w.Clone()
	r.mu.Unlock()

	r.persist(ctx, out)
	return out, nil
}

// Delete removes a worker. Deleting an unknown id is a no-op.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.workers, id)
	r.mu.Unlock()
	return r.kv.HashDelete(ctx, hashKey, id)
}

// Get returns a copy of the worker record.
func (r *Registry) Get(id string) (*Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w.Clone(), nil
}

// Filter narrows a listing. Model filters by advertised models; MinStatus
// drops workers whose effective status (staleness included) ranks below it.
type Filter struct {
	Model     string
	MinStatus Status
}

// List returns a consistent snapshot of matching workers, sorted by id.
// Staleness is evaluated lazily here so a silent worker drops out of
// eligibility even before the next sweep runs.
func (r *Registry) List(f Filter) []*Worker {
	now := time.Now()
	r.mu.RLock()
	out := make([]*Worker, 0, len(r.workers))
	for _, w := range r.workers {
		if f.Model != "" && !w.ServesModel(f.Model) {
			continue
		}
		if f.MinStatus != "" && !w.EffectiveStatus(now).AtLeast(f.MinStatus) {
			continue
		}
		out = append(out, w.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// persist mirrors a record to the KV store. Persistence failures are logged
// rather than surfaced: the in-memory registry remains authoritative.
func (r *Registry) persist(ctx context.Context, w *Worker) {
	b, err := json.Marshal(w)
	if err != nil {
		logx.Log.Error().Str("node_id", w.ID).Err(err).Msg("encode worker record")
		return
	}
	if err := r.kv.HashSet(ctx, hashKey, w.ID, b); err != nil {
		logx.Log.Error().Str("node_id", w.ID).Err(err).Msg("persist worker record")
	}
}

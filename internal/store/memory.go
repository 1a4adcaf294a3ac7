package store

import (
	"context"
	"sync"
)

// memoryKV implements KV in process memory. It is the default when no Redis
// address is configured, and doubles as the test store.
type memoryKV struct {
	mu     sync.RWMutex
	hashes map[string]map[string][]byte
}

// NewMemory returns an empty in-memory KV.
func NewMemory() KV {
	return &memoryKV{hashes: make(map[string]map[string][]byte)}
}

func (m *memoryKV) HashSet(_ context.Context, name, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[name]
	if !ok {
		h = make(map[string][]byte)
		m.hashes[name] = h
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	h[field] = cp
	return nil
}

func (m *memoryKV) HashGet(_ context.Context, name, field string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.hashes[name][field]
	if !ok {
		return nil, ErrMissing
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *memoryKV) HashGetAll(_ context.Context, name string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.hashes[name]))
	for k, v := range m.hashes[name] {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out, nil
}

func (m *memoryKV) HashDelete(_ context.Context, name, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes[name], field)
	return nil
}

func (m *memoryKV) Ping(context.Context) error { return nil }

func (m *memoryKV) Close() error { return nil }

package store

import (
	"context"
	"errors"
)

// ErrMissing is returned when a hash field does not exist.
var ErrMissing = errors.New("store: missing field")

// KV is the persistent hash-map collaborator. Worker records are kept in a
// single hash keyed by worker id, each value a JSON-encoded record.
type KV interface {
	HashSet(ctx context.Context, name, field string, value []byte) error
	HashGet(ctx context.Context, name, field string) ([]byte, error)
	HashGetAll(ctx context.Context, name string) (map[string][]byte, error)
	HashDelete(ctx context.Context, name, field string) error
	Ping(ctx context.Context) error
	Close() error
}

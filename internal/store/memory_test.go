package store

import (
	"context"
	"testing"
)

func TestMemoryHashOps(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	if _, err := kv.HashGet(ctx, "nodes", "a"); err != ErrMissing {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if err := kv.HashSet(ctx, "nodes", "a", []byte("1")); err != nil {
		t.Fatalf("HashSet: %v", err)
	}
	b, err := kv.HashGet(ctx, "nodes", "a")
	if err != nil || string(b) != "1" {
		t.Fatalf("HashGet = %q, %v", b, err)
	}
	if err := kv.HashSet(ctx, "nodes", "b", []byte("2")); err != nil {
		t.Fatalf("HashSet: %v", err)
	}
	all, err := kv.HashGetAll(ctx, "nodes")
	if err != nil || len(all) != 2 {
		t.Fatalf("HashGetAll = %v, %v", all, err)
	}
	if err := kv.HashDelete(ctx, "nodes", "a"); err != nil {
		t.Fatalf("HashDelete: %v", err)
	}
	if _, err := kv.HashGet(ctx, "nodes", "a"); err != ErrMissing {
		t.Fatalf("expected ErrMissing after delete, got %v", err)
	}
}

package store

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRedisHashOps(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	kv, err := NewRedis(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer func() { _ = kv.Close() }()

	if _, err := kv.HashGet(ctx, "nodes", "a"); err != ErrMissing {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if err := kv.HashSet(ctx, "nodes", "a", []byte(`{"node_id":"a"}`)); err != nil {
		t.Fatalf("HashSet: %v", err)
	}
	b, err := kv.HashGet(ctx, "nodes", "a")
	if err != nil || string(b) != `{"node_id":"a"}` {
		t.Fatalf("HashGet = %q, %v", b, err)
	}
	all, err := kv.HashGetAll(ctx, "nodes")
	if err != nil || len(all) != 1 {
		t.Fatalf("HashGetAll = %v, %v", all, err)
	}
	if err := kv.HashDelete(ctx, "nodes", "a"); err != nil {
		t.Fatalf("HashDelete: %v", err)
	}
	if _, err := kv.HashGet(ctx, "nodes", "a"); err != ErrMissing {
		t.Fatalf("expected ErrMissing after delete, got %v", err)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url    string
		addrs  int
		master string
		db     int
	}{
		{"localhost:6379", 1, "", 0},
		{"redis://:pass@localhost:6379/1", 1, "", 1},
		{"redis://host1:6379,host2:6379/0", 2, "", 0},
		{"redis-sentinel://host1:26379,host2:26379/mymaster?db=2", 2, "mymaster", 2},
	}
	for _, tt := range tests {
		opts, err := parseRedisURL(tt.url)
		if err != nil {
			t.Fatalf("%s: %v", tt.url, err)
		}
		if len(opts.Addrs) != tt.addrs {
			t.Fatalf("%s: addrs = %d; want %d", tt.url, len(opts.Addrs), tt.addrs)
		}
		if opts.MasterName != tt.master {
			t.Fatalf("%s: master = %q; want %q", tt.url, opts.MasterName, tt.master)
		}
		if opts.DB != tt.db {
			t.Fatalf("%s: db = %d; want %d", tt.url, opts.DB, tt.db)
		}
	}
	if _, err := parseRedisURL("http://nope"); err == nil {
		t.Fatalf("expected error for invalid scheme")
	}
}

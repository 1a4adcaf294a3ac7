package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestServerConfigDefaults(t *testing.T) {
	var c ServerConfig
	c.SetDefaults()
	if c.Port != 8080 || c.MetricsAddr != ":8080" || c.LogLevel != "info" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.MaxAttempts != 2 || c.FailureThreshold != 5 || c.TokenTTL != time.Hour {
		t.Fatalf("defaults = %+v", c)
	}
	if c.LoadRunning != 1 || c.LoadWaiting != 2 || c.LoadKVCache != 1 {
		t.Fatalf("load weights = %v/%v/%v", c.LoadRunning, c.LoadWaiting, c.LoadKVCache)
	}
}

func TestServerConfigApplyEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_USERS", "admin, user ,")
	t.Setenv("REQUEST_TIMEOUT", "30s")

	var c ServerConfig
	c.SetDefaults()
	c.ApplyEnv()
	if c.Port != 9090 {
		t.Fatalf("port = %d", c.Port)
	}
	if len(c.AuthUsers) != 2 || c.AuthUsers[0] != "admin" || c.AuthUsers[1] != "user" {
		t.Fatalf("users = %v", c.AuthUsers)
	}
	if c.RequestTimeout != 30*time.Second {
		t.Fatalf("timeout = %v", c.RequestTimeout)
	}
}

func TestServerConfigLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(path, []byte("port: 7070\nauth_secret: s3cret\nmax_attempts: 3\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var c ServerConfig
	c.SetDefaults()
	c.ConfigFile = path
	if err := c.LoadFile(); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Port != 7070 || c.AuthSecret != "s3cret" || c.MaxAttempts != 3 {
		t.Fatalf("loaded = %+v", c)
	}

	c.ConfigFile = filepath.Join(dir, "absent.yaml")
	if err := c.LoadFile(); err != nil {
		t.Fatalf("missing file should be tolerated: %v", err)
	}
}

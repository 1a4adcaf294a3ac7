package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the vllmgate server.
type ServerConfig struct {
	Port             int           `yaml:"port"`
	MetricsAddr      string        `yaml:"metrics_addr"`
	LogLevel         string        `yaml:"log_level"`
	ConfigFile       string        `yaml:"-"`
	RedisAddr        string        `yaml:"redis_addr"`
	AuthSecret       string        `yaml:"auth_secret"`
	AuthUsers        []string      `yaml:"auth_users"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxAttempts      int           `yaml:"max_attempts"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	FailureThreshold int           `yaml:"failure_threshold"`
	AffinitySize     int           `yaml:"affinity_size"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	LoadRunning      float64       `yaml:"load_running_weight"`
	LoadWaiting      float64       `yaml:"load_waiting_weight"`
	LoadKVCache      float64       `yaml:"load_kv_cache_weight"`
}

// SetDefaults initializes c with built-in defaults.
func (c *ServerConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = fmt.Sprintf(":%d", c.Port)
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 2
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 5 * time.Second
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.LoadRunning == 0 && c.LoadWaiting == 0 && c.LoadKVCache == 0 {
		c.LoadRunning, c.LoadWaiting, c.LoadKVCache = 1, 2, 1
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *ServerConfig) ApplyEnv() {
	if v := getEnv("CONFIG_FILE", ""); v != "" {
		c.ConfigFile = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := getEnv("METRICS_PORT", ""); v != "" {
		if strings.Contains(v, ":") {
			c.MetricsAddr = v
		} else {
			c.MetricsAddr = ":" + v
		}
	}
	if v := getEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := getEnv("AUTH_SECRET", ""); v != "" {
		c.AuthSecret = v
	}
	if v := getEnv("AUTH_USERS", ""); v != "" {
		c.AuthUsers = splitComma(v)
	}
	if v := getEnv("REQUEST_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := getEnv("MAX_ATTEMPTS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := getEnv("SWEEP_INTERVAL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SweepInterval = d
		}
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
}

// BindFlagsFromCurrent binds command line flags using the current config
// values as defaults.
func (c *ServerConfig) BindFlagsFromCurrent() {
	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	flag.IntVar(&c.Port, "port", c.Port, "HTTP listen port for the public API")
	flag.StringVar(&c.MetricsAddr, "metrics-port", c.MetricsAddr, "Prometheus metrics listen address or port; defaults to the value of --port")
	flag.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL for the node store; empty keeps records in memory")
	flag.StringVar(&c.AuthSecret, "auth-secret", c.AuthSecret, "shared secret used to sign bearer tokens")
	flag.DurationVar(&c.RequestTimeout, "request-timeout", c.RequestTimeout, "per-attempt call timeout; zero derives it from the worker's heartbeat timeout")
	flag.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "maximum dispatch attempts per request")
	flag.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "interval between staleness sweeps")
	flag.IntVar(&c.FailureThreshold, "failure-threshold", c.FailureThreshold, "consecutive transport failures before a worker is taken offline")
	flag.Func("auth-users", "comma separated usernames allowed to log in", func(v string) error {
		c.AuthUsers = splitComma(v)
		return nil
	})
	flag.Func("allowed-origins", "comma separated CORS origins", func(v string) error {
		c.AllowedOrigins = splitComma(v)
		return nil
	})
}

// LoadFile overlays YAML config file values, if a file is configured.
func (c *ServerConfig) LoadFile() error {
	if c.ConfigFile == "" {
		return nil
	}
	b, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(b, c)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func splitComma(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

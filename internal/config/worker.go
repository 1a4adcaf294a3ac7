package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NodeConfig holds configuration for the node agent that registers a vLLM
// host with the gateway and pushes capacity reports.
type NodeConfig struct {
	ServerURL         string
	Username          string
	NodeID            string
	Kind              string
	Address           string
	Port              int
	Models            []string
	Weight            int
	VLLMMetricsURL    string
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	LogLevel          string
}

func (c *NodeConfig) BindFlags() {
	c.ServerURL = getEnv("SERVER_URL", "http://localhost:8080")
	c.Username = getEnv("GATE_USER", "admin")
	c.Kind = getEnv("NODE_TYPE", "worker")
	c.Address = getEnv("NODE_ADDRESS", "")
	if c.Address == "" {
		if host, err := os.Hostname(); err == nil {
			c.Address = host
		}
	}
	if p, err := strconv.Atoi(getEnv("NODE_PORT", "8000")); err == nil {
		c.Port = p
	}
	c.VLLMMetricsURL = getEnv("VLLM_METRICS_URL", "http://127.0.0.1:8000/metrics")
	if d, err := time.ParseDuration(getEnv("HEARTBEAT_INTERVAL", "5s")); err == nil {
		c.HeartbeatInterval = d
	}
	if d, err := time.ParseDuration(getEnv("HEARTBEAT_TIMEOUT", "15s")); err == nil {
		c.HeartbeatTimeout = d
	}
	c.NodeID = getEnv("NODE_ID", "node-"+uuid.NewString()[:8])
	c.Weight = 1
	if w, err := strconv.Atoi(getEnv("NODE_WEIGHT", "1")); err == nil && w > 0 {
		c.Weight = w
	}
	if v := getEnv("NODE_MODELS", ""); v != "" {
		c.Models = splitComma(v)
	}
	c.LogLevel = getEnv("LOG_LEVEL", "info")

	flag.StringVar(&c.ServerURL, "server-url", c.ServerURL, "gateway base URL")
	flag.StringVar(&c.Username, "user", c.Username, "gateway login username")
	flag.StringVar(&c.NodeID, "node-id", c.NodeID, "node identifier")
	flag.StringVar(&c.Kind, "node-type", c.Kind, "node role tag")
	flag.StringVar(&c.Address, "node-address", c.Address, "address the gateway should reach this node at")
	flag.IntVar(&c.Port, "node-port", c.Port, "local vLLM HTTP port")
	flag.IntVar(&c.Weight, "weight", c.Weight, "selection weight for the weighted strategy")
	flag.StringVar(&c.VLLMMetricsURL, "vllm-metrics-url", c.VLLMMetricsURL, "local vLLM Prometheus metrics endpoint")
	flag.DurationVar(&c.HeartbeatInterval, "heartbeat-interval", c.HeartbeatInterval, "interval between capacity reports")
	flag.DurationVar(&c.HeartbeatTimeout, "heartbeat-timeout", c.HeartbeatTimeout, "staleness window the gateway applies to this node")
	flag.Func("models", "comma separated models this node serves; empty serves all", func(v string) error {
		c.Models = splitComma(v)
		return nil
	})
}

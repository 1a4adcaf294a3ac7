package agent

import (
	"bufio"
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/you/vllmgate/internal/logx"
	"github.com/you/vllmgate/internal/registry"
)

// vLLM exposes these on its Prometheus endpoint.
const (
	metricRunning = "vllm:num_requests_running"
	metricWaiting = "vllm:num_requests_waiting"
	metricKVUsage = "vllm:gpu_cache_usage_perc"
)

// SampleCapacity scrapes the local vLLM metrics endpoint for the capacity
// signal. When the engine is unreachable it falls back to host memory usage
// as a rough stand-in for KV cache pressure, so the gateway still sees a
// live, comparable load figure.
func SampleCapacity(ctx context.Context, client *http.Client, metricsURL string) registry.Capacity {
	c, err := scrapeVLLM(ctx, client, metricsURL)
	if err == nil {
		return c
	}
	logx.Log.Debug().Err(err).Msg("vllm metrics unavailable, falling back to host memory")
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		c.KVCacheUsed = uint64(vm.UsedPercent)
	}
	return c
}

func scrapeVLLM(ctx context.Context, client *http.Client, metricsURL string) (registry.Capacity, error) {
	var c registry.Capacity
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
	if err != nil {
		return c, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return c, err
	}
	defer func() { _ = resp.Body.Close() }()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := splitMetricLine(line)
		if !ok {
			continue
		}
		switch name {
		case metricRunning:
			c.Running = uint64(value)
		case metricWaiting:
			c.Waiting = uint64(value)
		case metricKVUsage:
			// reported as a 0..1 fraction
			c.KVCacheUsed = uint64(value * 100)
		}
	}
	return c, scanner.Err()
}

// splitMetricLine parses `name{labels} value` or `name value` lines.
func splitMetricLine(line string) (string, float64, bool) {
	sp := strings.LastIndexByte(line, ' ')
	if sp < 0 {
		return "", 0, false
	}
	name := line[:sp]
	if br := strings.IndexByte(name, '{'); br >= 0 {
		name = name[:br]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line[sp+1:]), 64)
	if err != nil || v < 0 {
		return "", 0, false
	}
	return name, v, true
}

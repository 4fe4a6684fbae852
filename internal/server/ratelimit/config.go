package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Default limits for the run endpoints
const (
	DefaultRunsPerMinute = 6
	DefaultRunBurst      = 2
)

// LoadConfig loads rate limiting configuration from environment variables:
// RATE_LIMIT_ENABLED, RATE_LIMIT_DEFAULT_LIMIT, RATE_LIMIT_DEFAULT_WINDOW,
// RATE_LIMIT_MAX_CLIENTS, RATE_LIMIT_RUNS_PER_MINUTE, RATE_LIMIT_WHITELIST and
// RATE_LIMIT_BLACKLIST.
func LoadConfig() *Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		MaxClients:      envInt("RATE_LIMIT_MAX_CLIENTS", DefaultMaxClients),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(envInt("RATE_LIMIT_RUNS_PER_MINUTE", DefaultRunsPerMinute)),
	}
}

// DefaultEndpointConfigs returns the endpoint limits. Pipeline runs call the
// reasoning and image models, so they get the strictest limit.
func DefaultEndpointConfigs(runsPerMinute int) []EndpointConfig {
	if runsPerMinute <= 0 {
		runsPerMinute = DefaultRunsPerMinute
	}
	return []EndpointConfig{
		{Path: "/runs", Method: http.MethodPost, Limit: runsPerMinute, Window: time.Minute, Burst: min(DefaultRunBurst, runsPerMinute)},
		{Path: "/runs/stream", Method: http.MethodPost, Limit: runsPerMinute, Window: time.Minute, Burst: min(DefaultRunBurst, runsPerMinute)},

		// Run lookups and image downloads
		{Path: "/runs/", Method: http.MethodGet, Limit: 300, Window: time.Minute, Burst: 60},

		// Health check is unlimited - handled by special case in matcher
	}
}

// WithRunLimit returns a copy of c whose run endpoints allow perMinute runs per client
func (c *Config) WithRunLimit(perMinute int) *Config {
	cp := *c
	if perMinute <= 0 || !c.Enabled {
		return &cp
	}
	cp.EndpointConfigs = make([]EndpointConfig, len(c.EndpointConfigs))
	for i, ec := range c.EndpointConfigs {
		if ec.Method == http.MethodPost && strings.HasPrefix(ec.Path, "/runs") {
			ec.Limit = perMinute
			ec.Burst = min(DefaultRunBurst, perMinute)
		}
		cp.EndpointConfigs[i] = ec
	}
	return &cp
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}

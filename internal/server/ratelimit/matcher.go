package ratelimit

import (
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found. An exact
// match wins; otherwise the longest configured prefix ending in "/" is used
// (e.g., "/runs/" matches "/runs/{id}/images/{shot_id}").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health check endpoint is unlimited
	if path == "/health" && method == "GET" {
		return &EndpointConfig{Path: "/health", Method: method}
	}

	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if config.Path == path {
			return config
		}
		if strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			if best == nil || len(config.Path) > len(best.Path) {
				best = config
			}
		}
	}
	return best
}

// Package ratelimit provides per-client request throttling for the HTTP API.
package ratelimit

import (
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultMaxClients bounds how many client limiters are kept in memory
const DefaultMaxClients = 10000

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	MaxClients      int
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter keeps one token bucket per client and endpoint. The least recently
// used buckets are evicted once MaxClients is reached.
type Limiter struct {
	config  *Config
	buckets *lru.Cache[string, *rate.Limiter]
	mu      sync.Mutex
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
			Whitelist:     make(map[string]bool),
			Blacklist:     make(map[string]bool),
		}
	}
	size := config.MaxClients
	if size <= 0 {
		size = DefaultMaxClients
	}
	// lru.New only fails for a non-positive size
	buckets, _ := lru.New[string, *rate.Limiter](size)

	return &Limiter{config: config, buckets: buckets}
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	// Find matching endpoint configuration
	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	key := clientID + ":" + method + ":"
	if endpointConfig == nil {
		endpointConfig = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
		key += "*"
	} else {
		key += endpointConfig.Path
	}

	// Unlimited endpoint (e.g., health check)
	if endpointConfig.Limit <= 0 || endpointConfig.Window <= 0 {
		return true, Info{Allowed: true}
	}

	bucket := l.bucket(key, endpointConfig)
	now := time.Now()
	allowed := bucket.AllowN(now, 1)
	tokens := bucket.TokensAt(now)
	perSecond := float64(bucket.Limit())

	info := Info{
		Allowed:   allowed,
		Limit:     endpointConfig.Limit,
		Remaining: max(0, int(math.Floor(tokens))),
		ResetTime: now,
	}
	if missing := float64(bucket.Burst()) - tokens; missing > 0 {
		info.ResetTime = now.Add(secondsToDuration(missing / perSecond))
	}
	if !allowed {
		info.RetryAfter = secondsToDuration((1 - tokens) / perSecond)
	}
	return allowed, info
}

func (l *Limiter) bucket(key string, cfg *EndpointConfig) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets.Get(key); ok {
		return b
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Limit
	}
	b := rate.NewLimiter(rate.Limit(float64(cfg.Limit)/cfg.Window.Seconds()), burst)
	l.buckets.Add(key, b)
	return b
}

// Clients returns the number of buckets currently held
func (l *Limiter) Clients() int {
	return l.buckets.Len()
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// Package server provides the HTTP API for submitting cases and retrieving the
// generated visualizations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jonathan/courtroom-viz/internal/db"
	"github.com/jonathan/courtroom-viz/internal/fetch"
	"github.com/jonathan/courtroom-viz/internal/pipeline"
	"github.com/jonathan/courtroom-viz/internal/server/ratelimit"
	"github.com/jonathan/courtroom-viz/internal/storage"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// Defaults for Config
const (
	DefaultRunCacheSize = 128
	DefaultMaxUploadMB  = 50
)

// Runner executes a case end to end. onProgress may be nil.
type Runner interface {
	Run(ctx context.Context, input *types.CaseInput, onProgress pipeline.ProgressCallback) (*types.ResultSet, error)
}

// RunStore reads persisted runs. *db.DB satisfies it.
type RunStore interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListShots(ctx context.Context, runID uuid.UUID) ([]types.GeneratedArtifact, error)
}

// PipelineRunner adapts a *pipeline.Orchestrator to Runner
type PipelineRunner struct {
	orchestrator *pipeline.Orchestrator
}

// NewPipelineRunner wraps o
func NewPipelineRunner(o *pipeline.Orchestrator) *PipelineRunner {
	return &PipelineRunner{orchestrator: o}
}

// Run implements Runner
func (p *PipelineRunner) Run(ctx context.Context, input *types.CaseInput, onProgress pipeline.ProgressCallback) (*types.ResultSet, error) {
	o := p.orchestrator
	if onProgress != nil {
		o = o.WithProgress(onProgress)
	}
	return o.Run(ctx, input)
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	runner         Runner
	store          storage.ImageStore
	runStore       RunStore
	runs           *lru.Cache[uuid.UUID, *types.ResultSet]
	rateLimiter    *ratelimit.Limiter
	logger         *slog.Logger
	maxUploadBytes int64
	defaultStyle   types.Style
	defaultQuality int
	fetchOptions   *fetch.Options
}

// Config holds server configuration
type Config struct {
	Addr         string
	Runner       Runner
	Store        storage.ImageStore
	RunStore     RunStore
	RateLimit    *ratelimit.Config
	RunCacheSize int
	MaxUploadMB  int
	// ReadHeaderTimeout defaults to 10s
	ReadHeaderTimeout time.Duration
	Logger            *slog.Logger
	// Applied when a request leaves style or quality unset
	DefaultStyle   types.Style
	DefaultQuality int
	// FetchOptions apply to document_urls. Defaults to fetch.PublicOptions.
	FetchOptions *fetch.Options
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.RunCacheSize <= 0 {
		cfg.RunCacheSize = DefaultRunCacheSize
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultMaxUploadMB
	}
	if cfg.DefaultStyle == "" {
		cfg.DefaultStyle = types.StyleProfessional
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = ratelimit.LoadConfig()
	}
	if cfg.FetchOptions == nil {
		cfg.FetchOptions = fetch.PublicOptions()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runs, err := lru.New[uuid.UUID, *types.ResultSet](cfg.RunCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create run cache: %w", err)
	}

	s := &Server{
		runner:         cfg.Runner,
		store:          cfg.Store,
		runStore:       cfg.RunStore,
		runs:           runs,
		rateLimiter:    ratelimit.NewLimiter(cfg.RateLimit),
		logger:         logger,
		maxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		defaultStyle:   cfg.DefaultStyle,
		defaultQuality: cfg.DefaultQuality,
		fetchOptions:   cfg.FetchOptions,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      15 * time.Minute, // Long timeout for pipeline runs
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /runs", s.handleRun)
	mux.HandleFunc("POST /runs/stream", s.handleRunStream)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/images/{shot_id}", s.handleGetImage)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response with the status derived from err
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), errorBody(err))
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded", "limit", info.Limit, "reset", info.ResetTime.Format(time.RFC3339))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

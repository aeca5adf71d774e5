// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the solver over HTTP.
//
// The server accepts problem documents, solves them, and returns the
// result as JSON. A websocket endpoint streams incumbent improvements
// while a solve is running, so long searches can report progress before
// the final result is known.
//
// # Usage
//
//	srv, err := server.New(server.Config{Addr: ":9190"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until the context is canceled, then drains in-flight
// requests before returning.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/stevedore/telemetry"
)

// Config holds solve server configuration.
//
// # Description
//
// Config centralizes all configuration for the HTTP server. The zero
// value is usable; New fills missing fields with defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Custom address with a tighter solve ceiling
//	cfg := Config{
//	    Addr:         ":8080",
//	    SolveTimeout: 5 * time.Second,
//	}
type Config struct {
	// Addr is the listen address. Default: ":9190"
	Addr string

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: "release"
	GinMode string

	// SolveTimeout is the wall clock ceiling for one solve request.
	// A request may ask for less via time_limit_ms but never more.
	// Default: 30s
	SolveTimeout time.Duration

	// MaxNodes caps the nodes one solve request may explore. A request
	// may ask for less via max_nodes but never more. Zero means no cap.
	MaxNodes int64

	// RateLimit is the sustained solve request rate allowed per client,
	// in requests per second. Negative disables rate limiting.
	// Default: 10
	RateLimit float64

	// RateBurst is the burst size allowed per client. Default: 20
	RateBurst int

	// ShutdownTimeout bounds the graceful shutdown drain. Default: 10s
	ShutdownTimeout time.Duration
}

// applyConfigDefaults backfills zero-valued Config fields with the defaults.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = ":9190"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = gin.ReleaseMode
	}
	if cfg.SolveTimeout == 0 {
		cfg.SolveTimeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 20
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return cfg
}

// Server is the solve HTTP server.
//
// # Thread Safety
//
// Thread-safe after construction. Run should be called at most once
// per instance.
type Server struct {
	config   Config
	logger   *slog.Logger
	router   *gin.Engine
	handlers *Handlers
	limiters *clientLimiters
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger for request logging and handlers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a solve server with the given configuration.
//
// # Description
//
// New applies configuration defaults, builds the Gin router with
// recovery, tracing, and request logging middleware, and registers all
// routes. The returned server is ready to Run.
//
// # Inputs
//
//   - cfg: Server configuration. Zero values use defaults.
//   - opts: Functional options applied on top of cfg.
//
// # Outputs
//
//   - *Server: Ready-to-run server.
//   - error: Non-nil if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Server, error) {
	cfg = applyConfigDefaults(cfg)

	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return nil, fmt.Errorf("invalid gin mode %q", cfg.GinMode)
	}
	if cfg.RateBurst < 0 {
		return nil, fmt.Errorf("invalid rate burst %d", cfg.RateBurst)
	}

	s := &Server{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handlers = NewHandlers(cfg, s.logger)
	if cfg.RateLimit > 0 {
		s.limiters = newClientLimiters(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	gin.SetMode(cfg.GinMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware("stevedore"))
	s.router.Use(requestLogger(s.logger))

	s.router.GET("/healthz", s.handlers.HandleHealth)
	s.router.GET("/readyz", s.handlers.HandleReady)
	s.router.GET("/metrics", func(c *gin.Context) {
		h := telemetry.MetricsHandler()
		if h == nil {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "Metrics are not enabled",
				Code:  "METRICS_DISABLED",
			})
			return
		}
		h.ServeHTTP(c.Writer, c.Request)
	})

	v1 := s.router.Group("/v1")
	if s.limiters != nil {
		v1.Use(s.rateLimit())
	}
	RegisterRoutes(v1, s.handlers)

	return s, nil
}

// Run starts the HTTP server and blocks until the context is canceled
// or the listener fails.
//
// # Description
//
// Serves on the configured address. When ctx is canceled, Run stops
// accepting connections and drains in-flight requests for up to
// ShutdownTimeout before returning.
//
// # Outputs
//
//   - error: Non-nil if the listener fails or the drain times out.
//     A context-triggered shutdown that drains cleanly returns nil.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("solve server listening", "addr", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down solve server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("solve server stopped")
	return nil
}

// Router exposes the Gin engine so tests can drive requests through httptest.
//
// # Assumptions
//
//   - Caller will not modify the router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// requestLogger logs one line per request. Health and metrics probes
// are skipped to keep the log readable under scraping.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	skip := map[string]struct{}{
		"/healthz": {},
		"/readyz":  {},
		"/metrics": {},
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if traceID := telemetry.TraceID(c.Request.Context()); traceID != "" {
			attrs = append(attrs, "trace_id", traceID)
		}
		logger.Info("request", attrs...)
	}
}

// rateLimit throttles solve requests per client IP.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiters.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// Limiter entries idle longer than staleAfter are dropped during the
// periodic sweep, so one-off clients do not accumulate.
const (
	limiterStaleAfter = 3 * time.Minute
	limiterSweepEvery = time.Minute
)

// clientLimiters tracks one token bucket per client IP.
//
// Thread Safety: Safe for concurrent use.
type clientLimiters struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(limit rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		limit:     limit,
		burst:     burst,
		clients:   make(map[string]*clientLimiter),
		lastSweep: time.Now(),
	}
}

// allow reports whether the client may proceed, consuming one token.
func (cl *clientLimiters) allow(clientIP string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	if now.Sub(cl.lastSweep) >= limiterSweepEvery {
		for ip, entry := range cl.clients {
			if now.Sub(entry.lastSeen) >= limiterStaleAfter {
				delete(cl.clients, ip)
			}
		}
		cl.lastSweep = now
	}

	entry, ok := cl.clients[clientIP]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[clientIP] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

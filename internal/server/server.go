// Package server exposes the job listing, job detail and cache administration
// endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/amishk599/oneofjob/internal/cache"
	"github.com/amishk599/oneofjob/internal/model"
	"github.com/amishk599/oneofjob/internal/ratelimit"
)

// JobCache is the part of the cache the handlers use.
type JobCache interface {
	Jobs(ctx context.Context) ([]model.Job, error)
	Companies(ctx context.Context) []string
	Info() cache.Info
	Stats() cache.Stats
	Invalidate()
}

// Config holds server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Environment string
	Enforce     bool // check admin credentials
	AdminAPIKey string
	// CrawlerWebhookSecret is sent by the crawler after each run.
	CrawlerWebhookSecret string
	InvalidateCooldown   time.Duration

	PageSize    int
	LatestCount int
}

// Server is the HTTP API.
type Server struct {
	cfg         Config
	cache       JobCache
	details     model.JobDetailFetcher
	invalidates *ratelimit.Limiter
	now         func() time.Time
	logger      *slog.Logger
	handler     http.Handler
}

// New builds a server over c. details serves job lookups that miss the cached
// listing.
func New(cfg Config, c JobCache, details model.JobDetailFetcher, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:         cfg,
		cache:       c,
		details:     details,
		invalidates: ratelimit.NewLimiter(cfg.InvalidateCooldown),
		now:         time.Now,
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/latest", s.handleLatestJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/companies", s.handleListCompanies)
	mux.HandleFunc("GET /api/cache", s.handleCacheStatus)
	mux.HandleFunc("POST /api/cache/invalidate", s.handleInvalidate)
	mux.HandleFunc("/api/cache/invalidate", s.handleMethodNotAllowed)

	s.handler = s.withRequestID(s.withLogging(mux))
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String(), "environment", s.cfg.Environment)
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Package server exposes the plugin contract over HTTP for hosts that
// drive plugins through a socket instead of a pipe. Request-level
// collector errors are always carried as 200 responses with an error
// document body; transport status codes are reserved for the transport
// itself.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/factsd/factsd/pkg/config"
	"github.com/factsd/factsd/pkg/registry"
)

// Server serves the plugin boundary.
type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	limiter  *rate.Limiter

	mu    sync.RWMutex
	ready bool
}

// New creates a server around the given registry.
func New(cfg *config.Config, reg *registry.Registry) *Server {
	return &Server{
		cfg:      cfg,
		registry: reg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// Run starts the server and blocks until the context is canceled or the
// listener fails. Shutdown is graceful within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Address, fmt.Sprintf("%d", s.cfg.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.cfg.ReadTimeout.Std(),
		WriteTimeout: s.cfg.WriteTimeout.Std(),
		IdleTimeout:  s.cfg.IdleTimeout.Std(),
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Std())
	defer cancel()
	slog.Info("shutting down", slog.Duration("timeout", s.cfg.ShutdownTimeout.Std()))
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Ready reports whether the server accepts traffic; used by the readiness
// probe and tests.
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// setReady is used by tests that drive the handler without Run.
func (s *Server) setReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// Package api exposes the recipe assistant over HTTP.
//
// Endpoints:
//
//	POST /api/chat         → single JSON answer
//	POST /api/chat/stream  → answer fragments as a text/event-stream
//	GET  /health           → liveness probe
//	GET  /ready            → readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery, CORS, request IDs, request logging
//   - chat.go: chat endpoints
//   - health.go: health check endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dapurkita/chefchimi/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to keep slow clients from
	// pinning connections.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP front for the assistant.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health *HealthHandler
	chat   *ChatHandler
}

// NewServer registers all routes and returns the server. health and chat
// carry their own dependencies, including any captured initialization
// failure that puts the service into degraded mode.
func NewServer(health *HealthHandler, chat *ChatHandler, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{mux: mux, logger: logger, health: health, chat: chat}
	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	return s
}

// Handler returns the routed handler with middleware applied.
// Order: recovery → CORS → request ID → logging → mux.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		corsMiddleware,
		requestIDMiddleware,
		loggingMiddleware(s.logger),
	)
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails. Shutdown is graceful within ShutdownTimeout.
//
// WriteTimeout stays unset: streaming responses hold the connection open
// for as long as synthesis runs.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

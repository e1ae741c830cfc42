package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bloblite/bloblite/internal/logger"
)

// Server is the blob endpoint HTTP server.
//
// It serves the protocol surface on /{account}/... plus the unauthenticated
// /health endpoints, and supports graceful shutdown with a configurable
// timeout.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates the blob endpoint server.
//
// The server is created in a stopped state; call Start() to begin serving.
// Defaults are applied here so the server works correctly even when created
// directly (e.g. in tests).
func NewServer(config Config, blobHandler http.Handler, health *HealthHandler) *Server {
	config.ApplyDefaults()

	server := &http.Server{
		Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Handler:      NewRouter(blobHandler, health),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled or
// an error occurs. Cancellation triggers graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("blob endpoint listening",
			"address", s.server.Addr,
			"endpoint", fmt.Sprintf("http://%s/devstoreaccount1", s.server.Addr),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("blob endpoint shutdown signal received")
		// Don't use the cancelled ctx, it would abort in-flight requests
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("blob endpoint failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("blob endpoint shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("blob endpoint shutdown error: %w", err)
			logger.Error("blob endpoint shutdown error", "error", err)
		} else {
			logger.Info("blob endpoint stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

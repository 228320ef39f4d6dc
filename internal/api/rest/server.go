package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vetolabs/veto-backend/internal/infrastructure/config"
)

// Server wraps the HTTP server with the full middleware chain
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the server from config and the registered handler
func NewServer(cfg config.ServerConfig, handler *Handler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	chained := Chain(mux,
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		TracingMiddleware(),
		LoggingMiddleware(logger),
		RateLimitMiddleware(cfg.RateLimit),
	)

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      chained,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  2 * time.Minute,
		},
		logger: logger,
	}
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("http server starting", slog.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}

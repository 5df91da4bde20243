package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wgfold/wgfold/internal/config"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/metrics"
	"github.com/wgfold/wgfold/internal/service"
)

// Server represents the API server.
type Server struct {
	httpServer *http.Server
}

// NewServer creates an API server listening on cfg.Server.ListenAddr.
func NewServer(cfg *config.Config, mgr *service.Manager, m *metrics.Metrics, version string) *Server {
	router := NewRouter(mgr, RouterOptions{
		Access:  cfg.Access,
		CORS:    cfg.CORS,
		Metrics: m,
		Version: version,
	})
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.ListenAddr,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("[API] Listening on http://%s", s.httpServer.Addr)
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Infof("[API] Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.httpServer.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	}
}

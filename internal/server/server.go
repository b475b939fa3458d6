// Package server exposes detection, records and filter options over HTTP with echo.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/metrics"
)

// Option configures Server.
type Option func(*Server)

// Server serves the HTTP API over the configured stores.
type Server struct {
	echo            *echo.Echo
	cfg             *contract.Config
	mgr             contract.StoreManager
	rec             *metrics.Recorder
	gatherer        prometheus.Gatherer
	shutdownTimeout time.Duration
}

// New creates a server. cfg supplies the defaults every request starts from.
func New(cfg *contract.Config, mgr contract.StoreManager, opts ...Option) *Server {
	s := &Server{
		cfg:             cfg,
		mgr:             mgr,
		rec:             metrics.Default(),
		gatherer:        prometheus.DefaultGatherer,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(recoverPanic())
	e.Use(requestLogging(s.rec))
	e.Use(corsOrigins(cfg.AllowOrigins))

	s.echo = e
	s.registerRoutes()
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return s
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start listens on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

// WithRecorder sets the metrics recorder. A nil recorder disables metrics.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(s *Server) {
		s.rec = rec
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithShutdownTimeout sets how long Start waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// Package server implements the HTTP surface of the rolldice service: the
// business endpoint, the metrics scrape endpoint, and a liveness probe.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayumi-labs/rolldice/internal/dice"
	"github.com/ayumi-labs/rolldice/internal/sysstats"
	"github.com/ayumi-labs/rolldice/internal/telemetry"
)

// Server is the rolldice HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// ServerConfig holds all dependencies and configuration for creating a Server.
type ServerConfig struct {
	// Required dependencies.
	Telemetry *telemetry.Provider
	Dice      *dice.Service
	Logger    *slog.Logger

	// Optional: CPU accounting source (nil = /proc/stat).
	CPUSampler *sysstats.Sampler

	// HTTP server settings.
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// New creates a new HTTP server with all routes configured and the service's
// metric instruments registered.
func New(cfg ServerConfig) (*Server, error) {
	sampler := cfg.CPUSampler
	if sampler == nil {
		sampler = sysstats.New("")
	}
	inst, err := newInstruments(cfg.Telemetry.Meter("rolldice/http"), sampler)
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		dice:    cfg.Dice,
		metrics: inst,
		logger:  cfg.Logger,
		version: cfg.Version,
	}

	tracer := cfg.Telemetry.Tracer("rolldice/http")

	mux := http.NewServeMux()
	// The business route carries the full middleware chain; the scrape and
	// liveness routes stay out of it so a scrape never mutates the request
	// instruments it is reporting.
	mux.Handle("GET /rolldice",
		requestIDMiddleware(
			tracingMiddleware(tracer, inst,
				loggingMiddleware(cfg.Logger,
					http.HandlerFunc(h.HandleRollDice)))))
	mux.Handle("GET /metrics", cfg.Telemetry.MetricsHandler())
	mux.HandleFunc("GET /health", h.HandleHealth)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: mux,
		logger:  cfg.Logger,
	}, nil
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Command rolldice runs an HTTP dice-roll service instrumented end to end:
// OTLP trace export, a Prometheus scrape endpoint, and trace-correlated logs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayumi-labs/rolldice/internal/config"
	"github.com/ayumi-labs/rolldice/internal/dice"
	"github.com/ayumi-labs/rolldice/internal/logging"
	"github.com/ayumi-labs/rolldice/internal/server"
	"github.com/ayumi-labs/rolldice/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLogs, err := logging.New(cfg.ServiceName, cfg.LogFile, cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = closeLogs() }()
	slog.SetDefault(logger)

	logger.Info("rolldice starting", "version", version, "host", cfg.Host, "port", cfg.Port)

	tel, err := telemetry.New(ctx, telemetry.Config{
		ServiceName:   cfg.ServiceName,
		Version:       version,
		TraceEndpoint: cfg.TraceEndpoint,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	svc := dice.New(tel.Tracer("rolldice/dice"), logger)

	srv, err := server.New(server.ServerConfig{
		Telemetry:    tel,
		Dice:         svc,
		Logger:       logger,
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown. Drain in-flight HTTP requests first (they may still
	// end spans), then give the exporters a bounded window for the final
	// flush; spans not flushed in time are dropped.
	logger.Info("rolldice shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.Shutdown(httpCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	httpCancel()

	telCtx, telCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := tel.Shutdown(telCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
	telCancel()

	logger.Info("rolldice stopped")
	return nil
}

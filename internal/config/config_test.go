package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Host != "0.0.0.0" {
		t.Fatalf("expected default host 0.0.0.0, got %q", cfg.Host)
	}
	if cfg.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.ServiceName != "rolldice" {
		t.Fatalf("expected default service name rolldice, got %q", cfg.ServiceName)
	}
	if cfg.TraceEndpoint != "localhost:4317" {
		t.Fatalf("expected default trace endpoint localhost:4317, got %q", cfg.TraceEndpoint)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Fatalf("expected default read timeout 30s, got %s", cfg.ReadTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_SERVICE_NAME", "dice-prod")
	t.Setenv("TRACE_ENDPOINT", "collector:4317")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ServiceName != "dice-prod" {
		t.Fatalf("expected service name dice-prod, got %q", cfg.ServiceName)
	}
	if cfg.TraceEndpoint != "collector:4317" {
		t.Fatalf("expected trace endpoint collector:4317, got %q", cfg.TraceEndpoint)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadMalformedPort(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-integer APP_PORT, got nil")
	}
}

func TestLoadMalformedTimeout(t *testing.T) {
	t.Setenv("APP_READ_TIMEOUT", "thirty seconds")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid APP_READ_TIMEOUT, got nil")
	}
}

func TestValidatePortRange(t *testing.T) {
	t.Setenv("APP_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range APP_PORT, got nil")
	}
}

func TestValidateLogLevel(t *testing.T) {
	t.Setenv("APP_LOG_LEVEL", "verbose")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown APP_LOG_LEVEL, got nil")
	}
}

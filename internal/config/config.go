// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Telemetry settings.
	ServiceName   string
	TraceEndpoint string // OTLP gRPC collector, host:port.

	// Logging settings.
	LogFile  string
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
// Missing variables take their defaults; malformed values are an error so the
// process fails at startup instead of running with a half-applied config.
func Load() (Config, error) {
	port, err := envInt("APP_PORT", 5000)
	if err != nil {
		return Config{}, err
	}
	readTimeout, err := envDuration("APP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := envDuration("APP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Host:          envStr("APP_HOST_NAME", "0.0.0.0"),
		Port:          port,
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		ServiceName:   envStr("APP_SERVICE_NAME", "rolldice"),
		TraceEndpoint: envStr("TRACE_ENDPOINT", "localhost:4317"),
		LogFile:       envStr("APP_LOG_FILE", "log/rolldice.log"),
		LogLevel:      envStr("APP_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("config: APP_SERVICE_NAME must not be empty")
	}
	if c.TraceEndpoint == "" {
		return fmt.Errorf("config: TRACE_ENDPOINT must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: APP_PORT %d is out of range", c.Port)
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("config: APP_LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// SlogLevel returns the configured log level as a slog.Level.
// Validate guarantees the value parses.
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch s {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}

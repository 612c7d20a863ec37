// Package logging builds the process logger: structured JSON records enriched
// with the active trace context and fanned out to a console and a file sink.
package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextHandler decorates a slog.Handler, injecting the calling context's
// trace identifiers and the service name into every record before it is
// formatted. With no active span the OTel zero identifiers format as the
// all-zero sentinel strings, so the fields are always present and fixed-width.
type ContextHandler struct {
	base    slog.Handler
	service string
}

// NewContextHandler wraps base with trace-context enrichment.
func NewContextHandler(base slog.Handler, service string) *ContextHandler {
	return &ContextHandler{base: base, service: service}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle clones the record (slog contract: records are shared between
// handlers) and appends the correlation fields.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	r = r.Clone()
	r.AddAttrs(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
		slog.Bool("trace_sampled", sc.IsSampled()),
		slog.String("service.name", h.service),
	)
	return h.base.Handle(ctx, r)
}

// WithAttrs returns a ContextHandler wrapping the derived base handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{base: h.base.WithAttrs(attrs), service: h.service}
}

// WithGroup returns a ContextHandler wrapping the derived base handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{base: h.base.WithGroup(name), service: h.service}
}

// MultiHandler fans every record out to all sinks. A failing sink never
// suppresses the others; errors are joined and reported together.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a MultiHandler over the given sinks.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports whether any sink would accept the record.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to every enabled sink.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs applies the attrs to every sink.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		derived[i] = hh.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: derived}
}

// WithGroup applies the group to every sink.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	derived := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		derived[i] = hh.WithGroup(name)
	}
	return &MultiHandler{handlers: derived}
}

// New builds the process logger: JSON to stdout plus JSON to a rotated file,
// both enriched with trace context. The returned close function flushes and
// closes the file sink.
func New(service, filePath string, level slog.Level) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	fileSink := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := NewContextHandler(
		NewMultiHandler(
			slog.NewJSONHandler(os.Stdout, opts),
			slog.NewJSONHandler(fileSink, opts),
		),
		service,
	)
	return slog.New(handler), fileSink.Close, nil
}

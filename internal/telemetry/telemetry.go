// Package telemetry initializes OpenTelemetry tracing and metrics providers.
//
// Spans are batched and exported over OTLP gRPC to a remote collector; metrics
// are pull-based, exposed through a private Prometheus registry scraped via
// MetricsHandler. Providers are constructed once and passed by reference —
// nothing is registered globally, so tests get fully isolated instances.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the provider construction settings.
type Config struct {
	ServiceName   string
	Version       string
	TraceEndpoint string // OTLP gRPC collector, host:port; scheme prefix tolerated.
}

// Provider owns the tracer and meter providers and the Prometheus registry
// backing the scrape endpoint.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *prometheus.Registry
}

// New builds the resource identity and both providers. The OTLP connection is
// established lazily, so construction succeeds even when the collector is not
// yet reachable; export failures are handled by the batch processor and never
// surface to request handlers.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(normalizeEndpoint(cfg.TraceEndpoint)),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp,
			sdktrace.WithBatchTimeout(5*time.Second),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	registry := prometheus.NewRegistry()
	promExp, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExp),
		sdkmetric.WithResource(res),
	)

	return &Provider{
		tracerProvider: tp,
		meterProvider:  mp,
		registry:       registry,
	}, nil
}

// Tracer returns a tracer for the given instrumentation scope.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tracerProvider.Tracer(name)
}

// Meter returns a meter for the given instrumentation scope.
func (p *Provider) Meter(name string) metric.Meter {
	return p.meterProvider.Meter(name)
}

// MetricsHandler returns the scrape endpoint handler. Every scrape pulls the
// current counter totals and invokes the registered observable callbacks.
func (p *Provider) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes pending spans and stops both providers. The caller bounds
// the attempt with the context deadline; spans not flushed in time are dropped.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := p.tracerProvider.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// normalizeEndpoint strips a scheme prefix; the gRPC exporter expects a bare
// host:port.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return endpoint
}

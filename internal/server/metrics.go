package server

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/ayumi-labs/rolldice/internal/sysstats"
)

// instruments holds the service's metric instruments. Counters are monotonic
// and safe under concurrent adds; the CPU-time observable is evaluated once
// per scrape by the registered callback.
type instruments struct {
	requestCount metric.Int64Counter
	httpRequests metric.Int64Counter
	httpDuration metric.Float64Histogram
}

func newInstruments(meter metric.Meter, sampler *sysstats.Sampler) (*instruments, error) {
	requestCount, err := meter.Int64Counter("request_counter",
		metric.WithDescription("Number of requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("server: create request counter: %w", err)
	}

	httpRequests, err := meter.Int64Counter("http.server.request_count",
		metric.WithDescription("HTTP requests by method, route and status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("server: create http request counter: %w", err)
	}

	httpDuration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("server: create http duration histogram: %w", err)
	}

	if _, err := meter.Int64ObservableCounter("system.cpu.time",
		metric.WithDescription("CPU time"),
		metric.WithUnit("s"),
		metric.WithInt64Callback(sampler.Observe),
	); err != nil {
		return nil, fmt.Errorf("server: register cpu time observable: %w", err)
	}

	return &instruments{
		requestCount: requestCount,
		httpRequests: httpRequests,
		httpDuration: httpDuration,
	}, nil
}

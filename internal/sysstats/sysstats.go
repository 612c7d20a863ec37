// Package sysstats reads per-CPU time accounting from the kernel and exposes
// it as OpenTelemetry metric observations.
package sysstats

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultPath is the kernel's CPU accounting pseudo-file.
const DefaultPath = "/proc/stat"

// ticksPerSecond converts USER_HZ ticks to seconds. Division truncates, which
// matches the granularity of the source accounting.
const ticksPerSecond = 100

const (
	stateUser   = "user"
	stateSystem = "system"
)

// CPUTime is one (cpu, state) reading in seconds.
type CPUTime struct {
	CPU     string
	State   string
	Seconds int64
}

// Sampler reads CPU time from a /proc/stat-formatted file. Each call reads the
// file from scratch, so concurrent scrapes never share state.
type Sampler struct {
	path string
}

// New creates a Sampler reading from path, or DefaultPath if path is empty.
func New(path string) *Sampler {
	if path == "" {
		path = DefaultPath
	}
	return &Sampler{path: path}
}

// Read parses the source file. The first line (the process-wide aggregate) is
// skipped; each following "cpuN" line yields a user and a system reading. The
// per-cpu block is contiguous, so scanning stops at the first line whose first
// field does not carry the cpu prefix.
func (s *Sampler) Read() ([]CPUTime, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("sysstats: open %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("sysstats: read %s: %w", s.path, err)
		}
		return nil, fmt.Errorf("sysstats: %s is empty", s.path)
	}

	var times []CPUTime
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "cpu") {
			break
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("sysstats: malformed row %q in %s", scanner.Text(), s.path)
		}
		user, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sysstats: parse user ticks for %s: %w", fields[0], err)
		}
		system, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sysstats: parse system ticks for %s: %w", fields[0], err)
		}
		times = append(times,
			CPUTime{CPU: fields[0], State: stateUser, Seconds: user / ticksPerSecond},
			CPUTime{CPU: fields[0], State: stateSystem, Seconds: system / ticksPerSecond},
		)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sysstats: read %s: %w", s.path, err)
	}
	return times, nil
}

// Observe adapts Read to an observable-counter callback. The returned error
// fails only this instrument's collection; other instruments in the same
// scrape are unaffected.
func (s *Sampler) Observe(_ context.Context, o metric.Int64Observer) error {
	times, err := s.Read()
	if err != nil {
		return err
	}
	for _, t := range times {
		o.Observe(t.Seconds, metric.WithAttributes(
			attribute.String("cpu", t.CPU),
			attribute.String("state", t.State),
		))
	}
	return nil
}

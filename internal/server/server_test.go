package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayumi-labs/rolldice/internal/dice"
	"github.com/ayumi-labs/rolldice/internal/server"
	"github.com/ayumi-labs/rolldice/internal/sysstats"
	"github.com/ayumi-labs/rolldice/internal/telemetry"
)

// newTestServer builds a fully wired server with a controllable dice roll and
// a fixture-backed CPU sampler.
func newTestServer(t *testing.T, roll func() int) *server.Server {
	t.Helper()

	p, err := telemetry.New(context.Background(), telemetry.Config{
		ServiceName:   "rolldice-test",
		Version:       "test",
		TraceEndpoint: "localhost:4317",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})

	statPath := filepath.Join(t.TempDir(), "stat")
	require.NoError(t, os.WriteFile(statPath,
		[]byte("cpu  1100 1200\ncpu0 500 600\ncpu1 700 800\n"), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := dice.NewWithRoll(p.Tracer("rolldice/dice"), logger, roll)

	srv, err := server.New(server.ServerConfig{
		Telemetry:  p,
		Dice:       svc,
		Logger:     logger,
		CPUSampler: sysstats.New(statPath),
		Host:       "127.0.0.1",
		Port:       0,
		Version:    "test",
	})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *server.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// counterTotal extracts the request_counter sample line, or "" when absent.
func counterTotal(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "request_counter_total") {
			return line
		}
	}
	return ""
}

func TestRollDiceValidResult(t *testing.T) {
	srv := newTestServer(t, func() int { return 3 })

	rec := get(t, srv, "/rolldice")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRollDiceOutOfRangeIsServerError(t *testing.T) {
	srv := newTestServer(t, func() int { return 7 })

	rec := get(t, srv, "/rolldice")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong!")
}

func TestRollDiceZeroIsServerError(t *testing.T) {
	// The declared dice range is 1..6; zero is out of contract.
	srv := newTestServer(t, func() int { return 0 })

	rec := get(t, srv, "/rolldice")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestCounterIncrementsOncePerCall(t *testing.T) {
	rolls := []int{2, 5, 7} // two valid, one out of range
	i := 0
	srv := newTestServer(t, func() int { v := rolls[i%len(rolls)]; i++; return v })

	for range rolls {
		get(t, srv, "/rolldice")
	}

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	line := counterTotal(rec.Body.String())
	require.NotEmpty(t, line, "request_counter missing from scrape:\n%s", rec.Body.String())
	// Every request counts, including the one that rolled out of range.
	assert.True(t, strings.HasSuffix(line, " 3"), "expected 3 requests counted, got %q", line)
}

func TestScrapeDoesNotIncrementRequestCounter(t *testing.T) {
	srv := newTestServer(t, func() int { return 4 })

	get(t, srv, "/rolldice")
	first := counterTotal(get(t, srv, "/metrics").Body.String())
	second := counterTotal(get(t, srv, "/metrics").Body.String())
	assert.Equal(t, first, second, "scraping must not mutate the request counter")
}

func TestMetricsExposeCPUTime(t *testing.T) {
	srv := newTestServer(t, func() int { return 1 })

	body := get(t, srv, "/metrics").Body.String()
	assert.Contains(t, body, "system_cpu_time_seconds_total")
	assert.Contains(t, body, `cpu="cpu0"`)
	assert.Contains(t, body, `cpu="cpu1"`)
	assert.Contains(t, body, `state="user"`)
	assert.Contains(t, body, `state="system"`)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, func() int { return 1 })

	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

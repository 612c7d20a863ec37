package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayumi-labs/rolldice/internal/dice"
)

// Handlers holds the route handlers and their dependencies.
type Handlers struct {
	dice    *dice.Service
	metrics *instruments
	logger  *slog.Logger
	version string
}

// HandleRollDice handles GET /rolldice: counts the request, rolls the dice in
// its own span, runs the companion job, and returns the result as plain text.
// A result outside the declared 1..6 range is a server error.
func (h *Handlers) HandleRollDice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "roll_dice: received a request on /rolldice")
	h.metrics.requestCount.Add(ctx, 1)

	result := h.dice.Roll(ctx)
	h.dice.ImportantJob(ctx)

	if !dice.Valid(result) {
		h.logger.ErrorContext(ctx, "roll_dice: invalid dice value received",
			slog.Int("value", result))
		trace.SpanFromContext(ctx).SetStatus(codes.Error, "dice value out of range")
		http.Error(w, "Something went wrong!", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "roll_dice: successfully completed",
		slog.Int("result", result))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d", result)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

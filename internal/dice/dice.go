// Package dice implements the instrumented dice-roll business logic.
package dice

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Declared valid range of a roll. The generator intentionally produces 1..7
// (the range the original service shipped with), so a result of 7 is the
// out-of-contract case handlers must surface as a server error.
const (
	MinValid = 1
	MaxValid = 6
)

// Valid reports whether v is within the declared dice range.
func Valid(v int) bool {
	return v >= MinValid && v <= MaxValid
}

// Service wraps the dice roll and its companion job with spans and logs.
type Service struct {
	tracer trace.Tracer
	logger *slog.Logger
	roll   func() int
}

// New creates a Service using the process RNG.
func New(tracer trace.Tracer, logger *slog.Logger) *Service {
	return NewWithRoll(tracer, logger, func() int { return rand.IntN(7) + 1 })
}

// NewWithRoll creates a Service with a custom roll source, letting tests force
// specific outcomes.
func NewWithRoll(tracer trace.Tracer, logger *slog.Logger, roll func() int) *Service {
	return &Service{tracer: tracer, logger: logger, roll: roll}
}

// Roll performs one dice roll inside its own span, parented to whatever span
// is active on ctx.
func (s *Service) Roll(ctx context.Context) int {
	s.logger.InfoContext(ctx, "do_roll: starting the function execution")
	ctx, span := s.tracer.Start(ctx, "do_roll")
	defer span.End()

	res := s.roll()
	s.logger.DebugContext(ctx, "do_roll: dice roll complete", slog.Int("value", res))
	span.SetAttributes(attribute.Int("roll.value", res))
	span.AddEvent("dice roll")
	s.logger.InfoContext(ctx, "do_roll: function execution completed")
	return res
}

// ImportantJob runs a secondary unit of work in a nested span, demonstrating
// sibling spans within one request trace.
func (s *Service) ImportantJob(ctx context.Context) {
	s.logger.InfoContext(ctx, "do_important_job: starting an important job")
	ctx, span := s.tracer.Start(ctx, "do_important_job")
	defer span.End()

	result := rand.IntN(10000) + 1
	span.SetAttributes(attribute.Int("important_job.result", result))
	span.AddEvent("important job completed", trace.WithTimestamp(time.Now()))
	s.logger.DebugContext(ctx, "do_important_job: job result", slog.Int("result", result))
	s.logger.InfoContext(ctx, "do_important_job: function execution completed")
}

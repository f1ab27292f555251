package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"zemo-bot/internal/metrics"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = time.Second
)

type admission interface {
	Acquire(ctx context.Context, recipientID int64) error
}

// Target identifies who an outbound call is addressed to. Unscoped targets
// (answers to pre-checkout queries, for instance) skip the admission gate.
type Target struct {
	RecipientID int64
	Scoped      bool
	Text        string
}

func To(recipientID int64, text string) Target {
	return Target{RecipientID: recipientID, Scoped: true, Text: text}
}

func Unscoped(description string) Target {
	return Target{Text: description}
}

// Executor runs outbound calls through the admission gate and retries calls
// that fail with a timeout, doubling the delay between attempts.
type Executor struct {
	gate         admission
	maxAttempts  int
	initialDelay time.Duration
	isTransient  func(error) bool
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger
	tracer       trace.Tracer
}

type ExecutorOption func(*Executor)

func WithMaxAttempts(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d >= 0 {
			e.initialDelay = d
		}
	}
}

// WithClassifier replaces IsTimeout as the test for retryable failures.
func WithClassifier(isTransient func(error) bool) ExecutorOption {
	return func(e *Executor) {
		if isTransient != nil {
			e.isTransient = isTransient
		}
	}
}

func NewExecutor(gate admission, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		gate:         gate,
		maxAttempts:  defaultMaxAttempts,
		initialDelay: defaultInitialDelay,
		isTransient:  IsTimeout,
		sleep:        sleepCtx,
		logger:       logger.With("component", "delivery"),
		tracer:       otel.Tracer("zemo-bot/delivery"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs call at most maxAttempts times. Scoped targets acquire an
// admission slot before every attempt, retries included. Non-timeout errors
// are returned unchanged without retrying.
func (e *Executor) Execute(ctx context.Context, target Target, call func(ctx context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "delivery.Execute", trace.WithAttributes(
		attribute.Int64("recipient_id", target.RecipientID),
		attribute.Bool("scoped", target.Scoped),
	))
	defer span.End()

	delay := e.initialDelay
	for attempt := 1; ; attempt++ {
		if target.Scoped {
			if err := e.gate.Acquire(ctx, target.RecipientID); err != nil {
				span.RecordError(err)
				return fmt.Errorf("acquire admission for %d: %w", target.RecipientID, err)
			}
		}

		err := call(ctx)
		if err == nil {
			metrics.DeliveryAttemptsTotal.WithLabelValues("success").Inc()
			span.SetAttributes(attribute.Int("attempts", attempt))
			return nil
		}

		if !e.isTransient(err) {
			metrics.DeliveryAttemptsTotal.WithLabelValues("error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		metrics.DeliveryAttemptsTotal.WithLabelValues("timeout").Inc()

		if attempt >= e.maxAttempts {
			metrics.DeliveryTimeoutsTotal.Inc()
			e.logger.Error("delivery failed after retries",
				"recipient_id", target.RecipientID,
				"attempts", attempt,
				"text", target.Text,
				"error", err,
			)
			timeoutErr := &TimeoutError{
				RecipientID: target.RecipientID,
				Attempts:    attempt,
				Text:        target.Text,
				Err:         err,
			}
			span.RecordError(timeoutErr)
			span.SetStatus(codes.Error, "delivery timed out")
			return timeoutErr
		}

		e.logger.Warn("delivery timed out, retrying",
			"recipient_id", target.RecipientID,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package schedule

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Log field names used by the drivers.
const (
	FieldRunID   = "run_id"
	FieldDriver  = "driver"
	FieldAttempt = "attempt"
	FieldDelay   = "delay"
)

// run carries the observability state of one driver call.
type run struct {
	cfg      *config
	driver   string
	log      *zap.Logger
	span     trace.Span
	attempts int
}

func (c *config) begin(ctx context.Context, driver string) (context.Context, *run) {
	id := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "schedule."+driver,
		trace.WithAttributes(
			attribute.String("schedule.driver", driver),
			attribute.String("schedule.run_id", id),
		),
	)
	return ctx, &run{
		cfg:    c,
		driver: driver,
		log:    c.logger.With(zap.String(FieldDriver, driver), zap.String(FieldRunID, id)),
		span:   span,
	}
}

func (r *run) attempted(err error) {
	r.attempts++
	r.cfg.metrics.attempt(r.driver, err)
}

func (r *run) retrying(ctx context.Context, err error, delay time.Duration) {
	r.log.Debug("retrying",
		zap.Int(FieldAttempt, r.attempts),
		zap.Duration(FieldDelay, delay),
		zap.Error(err),
	)
	r.span.AddEvent("retry", trace.WithAttributes(
		attribute.Int("schedule.attempt", r.attempts),
		attribute.Int64("schedule.delay_ns", int64(delay)),
		attribute.String("error", err.Error()),
	))
	r.cfg.metrics.delay(r.driver, delay)
	if r.cfg.onRetry != nil {
		r.cfg.onRetry(ctx, r.attempts, err, delay)
	}
}

func (r *run) repeating(ctx context.Context, delay time.Duration) {
	r.log.Debug("repeating",
		zap.Int(FieldAttempt, r.attempts),
		zap.Duration(FieldDelay, delay),
	)
	r.span.AddEvent("repeat", trace.WithAttributes(
		attribute.Int("schedule.attempt", r.attempts),
		attribute.Int64("schedule.delay_ns", int64(delay)),
	))
	r.cfg.metrics.delay(r.driver, delay)
	if r.cfg.onRepeat != nil {
		r.cfg.onRepeat(ctx, r.attempts, delay)
	}
}

func (r *run) succeeded(ctx context.Context) {
	r.log.Debug("finished", zap.Int(FieldAttempt, r.attempts))
	r.span.SetAttributes(attribute.Int("schedule.attempts", r.attempts))
	r.span.SetStatus(codes.Ok, "")
	r.cfg.metrics.run(r.driver, ResultSuccess)
	if r.cfg.onSuccess != nil {
		r.cfg.onSuccess(ctx, r.attempts)
	}
}

func (r *run) exhausted(ctx context.Context, err error) {
	r.log.Warn("schedule exhausted", zap.Int(FieldAttempt, r.attempts), zap.Error(err))
	r.span.SetAttributes(attribute.Int("schedule.attempts", r.attempts))
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, "schedule exhausted")
	r.cfg.metrics.run(r.driver, ResultExhausted)
	if r.cfg.onExhausted != nil {
		r.cfg.onExhausted(ctx, r.attempts, err)
	}
}

// failed records a terminal failure that is not schedule exhaustion: an
// action failure under Repeat, a Stop error, a schedule step failure, or
// cancellation.
func (r *run) failed(err error) {
	result := ResultFailed
	if isCancellation(err) {
		result = ResultCancelled
	}
	r.log.Debug("stopped", zap.Int(FieldAttempt, r.attempts), zap.String("result", result), zap.Error(err))
	r.span.SetAttributes(attribute.Int("schedule.attempts", r.attempts))
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, result)
	r.cfg.metrics.run(r.driver, result)
}

func (r *run) end() {
	r.span.End()
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

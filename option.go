package schedule

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// OnRetryFunc is called before each retry sleep.
type OnRetryFunc func(ctx context.Context, attempt int, err error, delay time.Duration)

// OnRepeatFunc is called before each repeat sleep.
type OnRepeatFunc func(ctx context.Context, attempt int, delay time.Duration)

// OnSuccessFunc is called when a driver finishes successfully.
type OnSuccessFunc func(ctx context.Context, attempts int)

// OnExhaustedFunc is called when Retry's schedule gives up.
type OnExhaustedFunc func(ctx context.Context, attempts int, err error)

// config holds driver configuration.
type config struct {
	clock   Clock
	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
	limiter *rate.Limiter

	onRetry     OnRetryFunc
	onRepeat    OnRepeatFunc
	onSuccess   OnSuccessFunc
	onExhausted OnExhaustedFunc
}

// Option configures a driver.
type Option func(*config)

var (
	defaultClock  = realClock{}
	defaultLogger = zap.NewNop()
	defaultTracer = noop.NewTracerProvider().Tracer(tracerName)
)

const tracerName = "github.com/bjaus/schedule"

func newConfig(opts []Option) config {
	cfg := config{
		clock:  defaultClock,
		logger: defaultLogger,
		tracer: defaultTracer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithClock sets the clock used to wait between attempts. Useful for testing.
func WithClock(clock Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger logs every step, success and exhaustion to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records attempts, outcomes and delays in m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer opens a span per driver call on tracer, with an event per step.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// OnRetry sets a hook that is called before each retry sleep.
func OnRetry(fn OnRetryFunc) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// OnRepeat sets a hook that is called before each repeat sleep.
func OnRepeat(fn OnRepeatFunc) Option {
	return func(c *config) {
		c.onRepeat = fn
	}
}

// OnSuccess sets a hook that is called when a driver finishes successfully.
func OnSuccess(fn OnSuccessFunc) Option {
	return func(c *config) {
		c.onSuccess = fn
	}
}

// OnExhausted sets a hook that is called when Retry's schedule gives up.
func OnExhausted(fn OnExhaustedFunc) Option {
	return func(c *config) {
		c.onExhausted = fn
	}
}

// WithOptions bundles several options into one, so infrastructure can hand
// a single value to call sites.
func WithOptions(opts ...Option) Option {
	return func(c *config) {
		for _, opt := range opts {
			opt(c)
		}
	}
}

package schedule

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Driver names used in logs, spans and metric labels.
const (
	DriverRepeat = "repeat"
	DriverRetry  = "retry"
)

// RepeatOrElseFunc recovers from an action failure under RepeatOrElse. last
// is the output of the most recent schedule step, or nil if the action failed
// before any step was taken.
type RepeatOrElseFunc[O any] func(ctx context.Context, err error, last *O) (O, error)

// RetryOrElseFunc recovers once RetryOrElse's schedule gives up. out is the
// schedule's final output.
type RetryOrElseFunc[A, O any] func(ctx context.Context, err error, out O) (A, error)

// Repeat runs action, then keeps running it for as long as s continues,
// feeding each result to s and waiting for the delay it asks for. It returns
// the output of the step that stopped.
//
// A failure of action ends the call at once and is returned as is. A failure
// of s, or of a limiter set with WithLimiter, is returned as is. If ctx ends,
// the context's error is returned.
func Repeat[A, O any](ctx context.Context, action Func[A], s Schedule[A, O], opts ...Option) (O, error) {
	return RepeatOrElse(ctx, action, s, nil, opts...)
}

// RepeatOrElse is Repeat with a fallback for action failures. A nil orElse
// behaves like Repeat.
func RepeatOrElse[A, O any](
	ctx context.Context,
	action Func[A],
	s Schedule[A, O],
	orElse RepeatOrElseFunc[O],
	opts ...Option,
) (O, error) {
	cfg := newConfig(opts)
	ctx, r := cfg.begin(ctx, DriverRepeat)
	defer r.end()

	var zero O
	state, err := s.Initial(ctx)
	if err != nil {
		r.failed(err)
		return zero, err
	}

	var last *O
	for {
		if err := ctx.Err(); err != nil {
			r.failed(err)
			return zero, err
		}

		a, err := action(ctx)
		r.attempted(err)
		if err != nil {
			r.failed(err)
			if orElse != nil && !isCancellation(err) {
				return orElse(ctx, err, last)
			}
			return zero, err
		}

		d, err := s.Update(ctx, a, state)
		if err != nil {
			r.failed(err)
			return zero, err
		}
		if !d.Continue {
			r.succeeded(ctx)
			return d.Finish(), nil
		}
		out := d.Finish()
		last = &out
		state = d.State

		delay, err := cfg.throttle(d.Delay)
		if err != nil {
			r.failed(err)
			return zero, err
		}
		r.repeating(ctx, delay)
		if err := cfg.clock.Sleep(ctx, delay); err != nil {
			r.failed(err)
			return zero, err
		}
	}
}

// Retry runs action until it succeeds or s gives up. Each failure is fed to
// s, and the call waits for the delay s asks for before trying again. A
// success is returned at once without consulting s.
//
// When s gives up, the failure that made it give up is returned. An error
// marked with Stop is unwrapped and returned without consulting s. A failure
// of s, or of a limiter set with WithLimiter, is returned as is. If ctx ends,
// the context's error is returned.
func Retry[A, O any](ctx context.Context, action Func[A], s Schedule[error, O], opts ...Option) (A, error) {
	return RetryOrElse(ctx, action, s, nil, opts...)
}

// RetryOrElse is Retry with a fallback that runs when s gives up. A nil
// orElse behaves like Retry.
func RetryOrElse[A, O any](
	ctx context.Context,
	action Func[A],
	s Schedule[error, O],
	orElse RetryOrElseFunc[A, O],
	opts ...Option,
) (A, error) {
	cfg := newConfig(opts)
	ctx, r := cfg.begin(ctx, DriverRetry)
	defer r.end()

	var zero A
	state, err := s.Initial(ctx)
	if err != nil {
		r.failed(err)
		return zero, err
	}

	for {
		if err := ctx.Err(); err != nil {
			r.failed(err)
			return zero, err
		}

		a, err := action(ctx)
		r.attempted(err)
		if err == nil {
			r.succeeded(ctx)
			return a, nil
		}

		var stopped *stopError
		if errors.As(err, &stopped) {
			err = stopped.Unwrap()
			r.failed(err)
			return zero, err
		}
		if isCancellation(err) && ctx.Err() != nil {
			r.failed(err)
			return zero, err
		}

		d, stepErr := s.Update(ctx, err, state)
		if stepErr != nil {
			r.failed(stepErr)
			return zero, stepErr
		}
		if !d.Continue {
			r.exhausted(ctx, err)
			if orElse != nil {
				return orElse(ctx, err, d.Finish())
			}
			return zero, err
		}
		state = d.State

		delay, limitErr := cfg.throttle(d.Delay)
		if limitErr != nil {
			r.failed(limitErr)
			return zero, limitErr
		}
		r.retrying(ctx, err, delay)
		if err := cfg.clock.Sleep(ctx, delay); err != nil {
			r.failed(err)
			return zero, err
		}
	}
}

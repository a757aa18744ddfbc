package schedule

import (
	"context"
	"time"
)

// Identity always continues immediately and outputs its input.
func Identity[I any]() Schedule[I, I] {
	return NewPure(Unit{}, func(in I, _ Unit) Decision[Unit, I] {
		return Next(0, Unit{}, Value(in))
	})
}

// Unfold always continues immediately. Each step replaces the state with
// next(state) and outputs the new state.
func Unfold[I, A any](initial A, next func(A) A) Schedule[I, A] {
	return NewPure(initial, func(_ I, state A) Decision[A, A] {
		n := next(state)
		return Next(0, n, Value(n))
	})
}

// Forever always continues immediately and counts its steps: 1, 2, 3, ...
func Forever[I any]() Schedule[I, int] {
	return Unfold[I](0, func(n int) int { return n + 1 })
}

// Recurs continues n times and stops on the following step. Its output is
// the number of continuing steps taken so far. A non-positive n stops on the
// first step.
func Recurs[I any](n int) Schedule[I, int] {
	return NewPure(0, func(_ I, count int) Decision[int, int] {
		if count < n {
			return Next(0, count+1, Value(count+1))
		}
		return Done(count, Value(count))
	})
}

// Once continues a single time.
func Once[I any]() Schedule[I, Unit] {
	return Void(Recurs[I](1))
}

// Never always continues with an Infinite delay. It never stops or proceeds
// on its own; a driver using it waits until its context is cancelled.
func Never[I any]() Schedule[I, Unit] {
	return NewPure(Unit{}, func(I, Unit) Decision[Unit, Unit] {
		return Next(Infinite, Unit{}, Value(Unit{}))
	})
}

// Spaced always continues after d. It outputs d. A negative d counts as zero.
func Spaced[I any](d time.Duration) Schedule[I, time.Duration] {
	d = max(d, 0)
	return NewPure(Unit{}, func(I, Unit) Decision[Unit, time.Duration] {
		return Next(d, Unit{}, Value(d))
	})
}

// Linear always continues; the delay grows by base each step:
// base, 2*base, 3*base, ... It outputs the current delay.
func Linear[I any](base time.Duration) Schedule[I, time.Duration] {
	return FromBackoff[I](BackoffFunc(func(n int) time.Duration {
		return mulDelay(base, int64(n))
	}))
}

// Exponential always continues; the delay doubles each step:
// 2*base, 4*base, 8*base, ... It outputs the current delay and saturates at
// Infinite.
func Exponential[I any](base time.Duration) Schedule[I, time.Duration] {
	return FromBackoff[I](BackoffFunc(func(n int) time.Duration {
		return pow2Delay(base, n)
	}))
}

// Fibonacci always continues; delays follow the Fibonacci sequence scaled
// by base: base, base, 2*base, 3*base, 5*base, ... It outputs the current
// delay.
func Fibonacci[I any](base time.Duration) Schedule[I, time.Duration] {
	base = max(base, 0)
	return NewPure(fib{b: base}, func(_ I, f fib) Decision[fib, time.Duration] {
		return Next(f.b, fib{a: f.b, b: addDelay(f.a, f.b)}, Value(f.b))
	})
}

type fib struct {
	a, b time.Duration
}

// Elapsed always continues immediately and outputs the time since the run
// started, as measured by clock.
func Elapsed[I any](clock Clock) Schedule[I, time.Duration] {
	return New(
		func(context.Context) (time.Time, error) {
			return clock.Now(), nil
		},
		func(_ context.Context, _ I, start time.Time) (Decision[time.Time, time.Duration], error) {
			return Next(0, start, Value(clock.Now().Sub(start))), nil
		},
	)
}

// Within continues immediately until limit has elapsed since the run
// started, as measured by clock. It outputs the elapsed time.
func Within[I any](clock Clock, limit time.Duration) Schedule[I, time.Duration] {
	return Elapsed[I](clock).WhileOutput(func(elapsed time.Duration) bool {
		return elapsed < limit
	})
}

func pow2Delay(base time.Duration, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	if n >= 63 || base > Infinite>>uint(n) {
		return Infinite
	}
	return base << uint(n)
}

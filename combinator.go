package schedule

import (
	"context"
	"time"
)

// Pair holds the outputs of two schedules run side by side.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Contramap adapts a schedule to a new input type.
func Contramap[I2, I, O any](s Schedule[I, O], f func(I2) I) Schedule[I2, O] {
	return Schedule[I2, O]{
		initial: s.Initial,
		update: func(ctx context.Context, in I2, state any) (Decision[any, O], error) {
			return s.Update(ctx, f(in), state)
		},
	}
}

// Map transforms the output of a schedule.
func Map[I, A, B any](s Schedule[I, A], f func(A) B) Schedule[I, B] {
	return Schedule[I, B]{
		initial: s.Initial,
		update: func(ctx context.Context, in I, state any) (Decision[any, B], error) {
			d, err := s.Update(ctx, in, state)
			if err != nil {
				return Decision[any, B]{}, err
			}
			return mapDecision(d, keep, f), nil
		},
	}
}

// Dimap transforms the input and the output of a schedule at once.
func Dimap[I2, I, A, B any](s Schedule[I, A], f func(I2) I, g func(A) B) Schedule[I2, B] {
	return Map(Contramap(s, f), g)
}

// Const replaces the output of a schedule with a fixed value.
func Const[I, A, B any](s Schedule[I, A], b B) Schedule[I, B] {
	return Map(s, func(A) B { return b })
}

// Void discards the output of a schedule.
func Void[I, O any](s Schedule[I, O]) Schedule[I, Unit] {
	return Const(s, Unit{})
}

// AndThen feeds the output of a into b.
//
// The composed schedule continues only while both do and waits for the sum
// of both delays. Its output is b's output. Identity is the unit of AndThen.
func AndThen[I, A, B any](a Schedule[I, A], b Schedule[A, B]) Schedule[I, B] {
	return Schedule[I, B]{
		initial: func(ctx context.Context) (any, error) {
			return initialPair(ctx, a, b)
		},
		update: func(ctx context.Context, in I, state any) (Decision[any, B], error) {
			p, err := pairOf(state)
			if err != nil {
				return Decision[any, B]{}, err
			}
			da, err := a.Update(ctx, in, p.left)
			if err != nil {
				return Decision[any, B]{}, err
			}
			db, err := b.Update(ctx, da.Finish(), p.right)
			if err != nil {
				return Decision[any, B]{}, err
			}
			return Decision[any, B]{
				Continue: da.Continue && db.Continue,
				Delay:    addDelay(da.Delay, db.Delay),
				State:    pair{left: da.State, right: db.State},
				finish:   db.finish,
			}, nil
		},
	}
}

// CombineWith runs a and b against the same input and merges their
// decisions with cont, delay and f.
func CombineWith[I, A, B, C any](
	a Schedule[I, A],
	b Schedule[I, B],
	cont func(x, y bool) bool,
	delay func(x, y time.Duration) time.Duration,
	f func(A, B) C,
) Schedule[I, C] {
	return Schedule[I, C]{
		initial: func(ctx context.Context) (any, error) {
			return initialPair(ctx, a, b)
		},
		update: func(ctx context.Context, in I, state any) (Decision[any, C], error) {
			p, err := pairOf(state)
			if err != nil {
				return Decision[any, C]{}, err
			}
			da, err := a.Update(ctx, in, p.left)
			if err != nil {
				return Decision[any, C]{}, err
			}
			db, err := b.Update(ctx, in, p.right)
			if err != nil {
				return Decision[any, C]{}, err
			}
			return NewDecision(
				cont(da.Continue, db.Continue),
				delay(da.Delay, db.Delay),
				any(pair{left: da.State, right: db.State}),
				func() C { return f(da.Finish(), db.Finish()) },
			), nil
		},
	}
}

// Combine runs a and b side by side. It continues while either side does,
// waits for the longer delay, and merges outputs with m.
//
// Combine and Empty form a monoid whenever m does.
func Combine[I, O any](m Monoid[O], a, b Schedule[I, O]) Schedule[I, O] {
	return CombineWith(a, b, or, maxDelay, m.Combine)
}

// Empty is the identity of Combine: it stops immediately with m's empty
// value and zero delay.
func Empty[I, O any](m Monoid[O]) Schedule[I, O] {
	return NewPure(Unit{}, func(I, Unit) Decision[Unit, O] {
		return Done(Unit{}, m.Empty)
	})
}

// And continues only while both schedules do, waiting for the longer delay.
func And[I, A, B any](a Schedule[I, A], b Schedule[I, B]) Schedule[I, Pair[A, B]] {
	return CombineWith(a, b, and, maxDelay, pairUp[A, B])
}

// Or continues while either schedule does, waiting for the shorter delay.
func Or[I, A, B any](a Schedule[I, A], b Schedule[I, B]) Schedule[I, Pair[A, B]] {
	return CombineWith(a, b, or, minDelay, pairUp[A, B])
}

// ZipLeft is And keeping only a's output.
func ZipLeft[I, A, B any](a Schedule[I, A], b Schedule[I, B]) Schedule[I, A] {
	return CombineWith(a, b, and, maxDelay, func(x A, _ B) A { return x })
}

// ZipRight is And keeping only b's output.
func ZipRight[I, A, B any](a Schedule[I, A], b Schedule[I, B]) Schedule[I, B] {
	return CombineWith(a, b, and, maxDelay, func(_ A, y B) B { return y })
}

// Succeed always continues immediately and always outputs o.
func Succeed[I, O any](o O) Schedule[I, O] {
	return Const(Forever[I](), o)
}

func keep(s any) any { return s }

func pairUp[A, B any](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

func and(x, y bool) bool { return x && y }

func or(x, y bool) bool { return x || y }

func maxDelay(x, y time.Duration) time.Duration { return max(x, y) }

func minDelay(x, y time.Duration) time.Duration { return min(x, y) }

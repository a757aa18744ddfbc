package schedule

import (
	"context"
	"math/rand/v2"
	"time"
)

// Check continues only while pred holds for the step's input and output.
func (s Schedule[I, O]) Check(pred func(in I, out O) bool) Schedule[I, O] {
	return Schedule[I, O]{
		initial: s.Initial,
		update: func(ctx context.Context, in I, state any) (Decision[any, O], error) {
			d, err := s.Update(ctx, in, state)
			if err != nil {
				return d, err
			}
			if d.Continue && !pred(in, d.Finish()) {
				d.Continue = false
				d.Delay = 0
			}
			return d, nil
		},
	}
}

// WhileInput continues only while pred holds for the input.
func (s Schedule[I, O]) WhileInput(pred func(I) bool) Schedule[I, O] {
	return s.Check(func(in I, _ O) bool { return pred(in) })
}

// UntilInput continues until pred holds for the input.
func (s Schedule[I, O]) UntilInput(pred func(I) bool) Schedule[I, O] {
	return s.Check(func(in I, _ O) bool { return !pred(in) })
}

// WhileOutput continues only while pred holds for the output.
func (s Schedule[I, O]) WhileOutput(pred func(O) bool) Schedule[I, O] {
	return s.Check(func(_ I, out O) bool { return pred(out) })
}

// UntilOutput continues until pred holds for the output.
func (s Schedule[I, O]) UntilOutput(pred func(O) bool) Schedule[I, O] {
	return s.Check(func(_ I, out O) bool { return !pred(out) })
}

// ModifyDelay replaces the delay of each continuing decision with
// f(output, delay). Negative results are treated as zero.
func (s Schedule[I, O]) ModifyDelay(f func(out O, d time.Duration) time.Duration) Schedule[I, O] {
	return Schedule[I, O]{
		initial: s.Initial,
		update: func(ctx context.Context, in I, state any) (Decision[any, O], error) {
			d, err := s.Update(ctx, in, state)
			if err != nil || !d.Continue {
				return d, err
			}
			d.Delay = max(f(d.Finish(), d.Delay), 0)
			return d, nil
		},
	}
}

// AddDelay adds f(output) to each delay.
func (s Schedule[I, O]) AddDelay(f func(O) time.Duration) Schedule[I, O] {
	return s.ModifyDelay(func(out O, d time.Duration) time.Duration {
		return addDelay(d, max(f(out), 0))
	})
}

// Capped limits each delay to at most limit.
func (s Schedule[I, O]) Capped(limit time.Duration) Schedule[I, O] {
	return s.ModifyDelay(func(_ O, d time.Duration) time.Duration {
		return min(d, limit)
	})
}

// Floor raises each delay to at least least.
func (s Schedule[I, O]) Floor(least time.Duration) Schedule[I, O] {
	return s.ModifyDelay(func(_ O, d time.Duration) time.Duration {
		return max(d, least)
	})
}

// Jittered randomizes each delay by up to ±factor of its value, where 0.2
// means ±20%. Infinite delays are left alone.
func (s Schedule[I, O]) Jittered(factor float64) Schedule[I, O] {
	if factor <= 0 {
		return s
	}
	return s.ModifyDelay(func(_ O, d time.Duration) time.Duration {
		if d == Infinite {
			return d
		}
		spread := float64(d) * factor
		jitter := (rand.Float64()*2 - 1) * spread
		j := float64(d) + jitter
		if j >= float64(Infinite) {
			return Infinite
		}
		return time.Duration(j)
	})
}

// Delays outputs the delay of each decision instead of its output.
func Delays[I, O any](s Schedule[I, O]) Schedule[I, time.Duration] {
	return Schedule[I, time.Duration]{
		initial: s.Initial,
		update: func(ctx context.Context, in I, state any) (Decision[any, time.Duration], error) {
			d, err := s.Update(ctx, in, state)
			if err != nil {
				return Decision[any, time.Duration]{}, err
			}
			return NewDecision(d.Continue, d.Delay, d.State, Value(d.Delay)), nil
		},
	}
}

// Fold accumulates every output of s into z with f.
func Fold[I, O, Z any](s Schedule[I, O], z Z, f func(Z, O) Z) Schedule[I, Z] {
	return Schedule[I, Z]{
		initial: func(ctx context.Context) (any, error) {
			inner, err := s.Initial(ctx)
			if err != nil {
				return nil, err
			}
			return pair{left: inner, right: z}, nil
		},
		update: func(ctx context.Context, in I, state any) (Decision[any, Z], error) {
			p, err := pairOf(state)
			if err != nil {
				return Decision[any, Z]{}, err
			}
			acc, err := stateAs[Z](p.right)
			if err != nil {
				return Decision[any, Z]{}, err
			}
			d, err := s.Update(ctx, in, p.left)
			if err != nil {
				return Decision[any, Z]{}, err
			}
			next := f(acc, d.Finish())
			return NewDecision(d.Continue, d.Delay, any(pair{left: d.State, right: next}), Value(next)), nil
		},
	}
}

// Collect outputs every output of s so far, oldest first.
func Collect[I, O any](s Schedule[I, O]) Schedule[I, []O] {
	return Fold(s, []O(nil), func(acc []O, o O) []O {
		// The full slice expression forces a copy so earlier states are
		// never written through.
		return append(acc[:len(acc):len(acc)], o)
	})
}

package schedule

import (
	"context"
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

// Infinite is the delay reported by schedules that never want to proceed on
// their own, such as Never. Delay arithmetic saturates at Infinite.
const Infinite = time.Duration(math.MaxInt64)

// Unit is the output of schedules that carry no information.
type Unit = struct{}

// Schedule decides whether, and after how long, an action should run again.
//
// A Schedule is an immutable pair of an initial-state effect and a transition
// function. The state type is fixed by New or NewPure and hidden from callers;
// every run starts from Initial and threads the returned state into the next
// Update. A Schedule value can be shared freely between goroutines.
//
// The zero Schedule stops on its first step.
type Schedule[I, O any] struct {
	initial func(ctx context.Context) (any, error)
	update  func(ctx context.Context, in I, state any) (Decision[any, O], error)
}

// New builds a Schedule from an effectful initial state and transition.
func New[S, I, O any](
	initial func(ctx context.Context) (S, error),
	update func(ctx context.Context, in I, state S) (Decision[S, O], error),
) Schedule[I, O] {
	return Schedule[I, O]{
		initial: func(ctx context.Context) (any, error) {
			return initial(ctx)
		},
		update: func(ctx context.Context, in I, state any) (Decision[any, O], error) {
			s, err := stateAs[S](state)
			if err != nil {
				return Decision[any, O]{}, err
			}
			d, err := update(ctx, in, s)
			if err != nil {
				return Decision[any, O]{}, err
			}
			return eraseDecision(d), nil
		},
	}
}

// NewPure builds a Schedule whose steps can neither fail nor suspend.
func NewPure[S, I, O any](initial S, update func(in I, state S) Decision[S, O]) Schedule[I, O] {
	return New(
		func(context.Context) (S, error) { return initial, nil },
		func(_ context.Context, in I, state S) (Decision[S, O], error) {
			return update(in, state), nil
		},
	)
}

// Initial produces a fresh state for a new run.
func (s Schedule[I, O]) Initial(ctx context.Context) (any, error) {
	if s.initial == nil {
		return nil, nil
	}
	return s.initial(ctx)
}

// Update advances the schedule by one step.
func (s Schedule[I, O]) Update(ctx context.Context, in I, state any) (Decision[any, O], error) {
	if s.update == nil {
		return Decision[any, O]{State: state}, nil
	}
	return s.update(ctx, in, state)
}

// Simulate runs the schedule from a fresh state, one step per input, and
// returns every decision. It stops after the first decision that does not
// continue.
func (s Schedule[I, O]) Simulate(ctx context.Context, inputs ...I) ([]Decision[any, O], error) {
	state, err := s.Initial(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Decision[any, O], 0, len(inputs))
	for _, in := range inputs {
		d, err := s.Update(ctx, in, state)
		if err != nil {
			return out, err
		}
		out = append(out, d)
		if !d.Continue {
			break
		}
		state = d.State
	}
	return out, nil
}

// Steps runs up to n steps feeding the same input each time.
func (s Schedule[I, O]) Steps(ctx context.Context, in I, n int) ([]Decision[any, O], error) {
	if n <= 0 {
		return nil, nil
	}
	inputs := make([]I, n)
	for i := range inputs {
		inputs[i] = in
	}
	return s.Simulate(ctx, inputs...)
}

func stateAs[S any](state any) (S, error) {
	if state == nil {
		var zero S
		return zero, nil
	}
	s, ok := state.(S)
	if !ok {
		var zero S
		return zero, errors.AssertionFailedf("schedule state has type %T, want %T", state, zero)
	}
	return s, nil
}

// pair is the state of a schedule built from two others.
type pair struct {
	left, right any
}

func pairOf(state any) (pair, error) {
	if state == nil {
		return pair{}, nil
	}
	p, ok := state.(pair)
	if !ok {
		return pair{}, errors.AssertionFailedf("schedule state has type %T, want a composed state", state)
	}
	return p, nil
}

func initialPair[A, B, C, D any](ctx context.Context, a Schedule[A, B], b Schedule[C, D]) (any, error) {
	left, err := a.Initial(ctx)
	if err != nil {
		return nil, err
	}
	right, err := b.Initial(ctx)
	if err != nil {
		return nil, err
	}
	return pair{left: left, right: right}, nil
}

// addDelay adds two delays, treating negative ones as zero and saturating at
// Infinite.
func addDelay(a, b time.Duration) time.Duration {
	a, b = max(a, 0), max(b, 0)
	if a >= Infinite-b {
		return Infinite
	}
	return a + b
}

func mulDelay(d time.Duration, n int64) time.Duration {
	if d <= 0 || n <= 0 {
		return 0
	}
	if d > Infinite/time.Duration(n) {
		return Infinite
	}
	return d * time.Duration(n)
}

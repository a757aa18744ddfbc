package schedule

import (
	"sync"
	"time"
)

// Decision is the outcome of a single schedule step.
//
// State is threaded to the next Update call and belongs to the schedule that
// produced it. The finish value is computed lazily, at most once, and only
// when Finish is called.
type Decision[S, O any] struct {
	Continue bool
	Delay    time.Duration
	State    S

	finish func() O
}

// NewDecision builds a Decision whose finish value is memoized. A negative
// delay is treated as zero.
func NewDecision[S, O any](cont bool, delay time.Duration, state S, finish func() O) Decision[S, O] {
	d := Decision[S, O]{
		Continue: cont,
		Delay:    max(delay, 0),
		State:    state,
	}
	if finish != nil {
		d.finish = sync.OnceValue(finish)
	}
	return d
}

// Next returns a continuing decision.
func Next[S, O any](delay time.Duration, state S, finish func() O) Decision[S, O] {
	return NewDecision(true, delay, state, finish)
}

// Done returns a stopping decision with zero delay.
func Done[S, O any](state S, finish func() O) Decision[S, O] {
	return NewDecision(false, 0, state, finish)
}

// Finish forces the decision's output. A zero Decision reports the zero O.
func (d Decision[S, O]) Finish() O {
	if d.finish == nil {
		var zero O
		return zero
	}
	return d.finish()
}

// Value wraps an already computed output for use as a finish thunk.
func Value[O any](o O) func() O {
	return func() O { return o }
}

func mapDecision[S, T, A, B any](d Decision[S, A], state func(S) T, f func(A) B) Decision[T, B] {
	return Decision[T, B]{
		Continue: d.Continue,
		Delay:    d.Delay,
		State:    state(d.State),
		finish: sync.OnceValue(func() B {
			return f(d.Finish())
		}),
	}
}

// eraseDecision hides a concrete state type behind any.
func eraseDecision[S, O any](d Decision[S, O]) Decision[any, O] {
	return Decision[any, O]{
		Continue: d.Continue,
		Delay:    d.Delay,
		State:    d.State,
		finish:   d.finish,
	}
}

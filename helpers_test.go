package schedule_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/schedule"
)

var errTest = errors.New("test error")

// observed is the visible part of a decision: state is opaque, so schedules
// are compared by the sequence of these.
type observed[O any] struct {
	Continue bool
	Delay    time.Duration
	Out      O
}

func observe[I, O any](t *testing.T, s schedule.Schedule[I, O], inputs ...I) []observed[O] {
	t.Helper()
	decisions, err := s.Simulate(context.Background(), inputs...)
	require.NoError(t, err)
	out := make([]observed[O], len(decisions))
	for i, d := range decisions {
		out[i] = observed[O]{Continue: d.Continue, Delay: d.Delay, Out: d.Finish()}
	}
	return out
}

func steps[I, O any](t *testing.T, s schedule.Schedule[I, O], in I, n int) []schedule.Decision[any, O] {
	t.Helper()
	decisions, err := s.Steps(context.Background(), in, n)
	require.NoError(t, err)
	return decisions
}

func totalDelay[S, O any](decisions []schedule.Decision[S, O]) time.Duration {
	var total time.Duration
	for _, d := range decisions {
		total += d.Delay
	}
	return total
}

// genSchedule picks a schedule over ints from a small family of policies and
// combinators. Not every schedule is reachable, but the family mixes
// stopping and non-stopping schedules with varied delays and outputs.
func genSchedule(r *rand.Rand) schedule.Schedule[int, int] {
	k := r.IntN(6)
	d := time.Duration(r.IntN(5)) * time.Millisecond
	c := r.IntN(100) - 50
	switch r.IntN(8) {
	case 0:
		return schedule.Forever[int]()
	case 1:
		return schedule.Recurs[int](k)
	case 2:
		return schedule.Identity[int]()
	case 3:
		return schedule.Map(schedule.Spaced[int](d), func(x time.Duration) int { return int(x) + c })
	case 4:
		return schedule.Map(schedule.Linear[int](d+time.Millisecond), func(x time.Duration) int { return int(x / time.Millisecond) })
	case 5:
		return schedule.Forever[int]().WhileInput(func(in int) bool { return in > c })
	case 6:
		return schedule.Const(schedule.Fibonacci[int](d+time.Millisecond), c)
	default:
		return schedule.ZipRight(schedule.Spaced[int](d), schedule.Unfold[int](c, func(x int) int { return x*3 + 1 }))
	}
}

func genInputs(r *rand.Rand, n int) []int {
	inputs := make([]int, n)
	for i := range inputs {
		inputs[i] = r.IntN(200) - 100
	}
	return inputs
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed*31+7))
}

// constant returns a schedule that makes the same decision on every step.
func constant[I any](cont bool, delay time.Duration, out int) schedule.Schedule[I, int] {
	return schedule.NewPure(0, func(I, int) schedule.Decision[int, int] {
		return schedule.NewDecision(cont, delay, 0, schedule.Value(out))
	})
}

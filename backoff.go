package schedule

import "time"

// Backoff calculates the delay before the given attempt, counting from 1.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// BackoffFunc is an adapter that allows a function to be used as a Backoff.
type BackoffFunc func(attempt int) time.Duration

// Delay implements Backoff.
func (f BackoffFunc) Delay(attempt int) time.Duration {
	return f(attempt)
}

// FromBackoff turns b into a schedule that always continues. The n-th step
// waits b.Delay(n) and outputs that delay.
func FromBackoff[I any](b Backoff) Schedule[I, time.Duration] {
	return NewPure(0, func(_ I, count int) Decision[int, time.Duration] {
		n := count + 1
		d := max(b.Delay(n), 0)
		return Next(d, n, Value(d))
	})
}

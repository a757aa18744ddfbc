package schedule

import "context"

// Func is a deferred, possibly failing computation: the actions that Repeat
// and Retry drive.
type Func[T any] func(ctx context.Context) (T, error)

// Pure lifts a value into a Func that always succeeds with it.
func Pure[T any](v T) Func[T] {
	return func(context.Context) (T, error) {
		return v, nil
	}
}

// MapFunc transforms the result of a successful fn.
func MapFunc[A, B any](fn Func[A], f func(A) B) Func[B] {
	return func(ctx context.Context) (B, error) {
		a, err := fn(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a), nil
	}
}

// FlatMapFunc runs fn, then the Func that f builds from its result.
func FlatMapFunc[A, B any](fn Func[A], f func(A) Func[B]) Func[B] {
	return func(ctx context.Context) (B, error) {
		a, err := fn(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a)(ctx)
	}
}

// Outcome is the result of a Func held as a value.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Attempt turns the failure of fn into a value, so the returned Func only
// fails if ctx is already done.
func Attempt[T any](fn Func[T]) Func[Outcome[T]] {
	return func(ctx context.Context) (Outcome[T], error) {
		if err := ctx.Err(); err != nil {
			return Outcome[T]{}, err
		}
		v, err := fn(ctx)
		return Outcome[T]{Value: v, Err: err}, nil
	}
}

// Future is the pending result of a Func started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn on its own goroutine. Cancelling ctx is the way to stop it.
func Go[T any](ctx context.Context, fn Func[T]) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result. If ctx ends first it returns ctx.Err(); the
// computation keeps running under the context it was started with.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

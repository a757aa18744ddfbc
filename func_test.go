package schedule_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/schedule"
)

func TestFunc(t *testing.T) {
	ctx := context.Background()

	t.Run("pure", func(t *testing.T) {
		v, err := schedule.Pure(42)(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("map", func(t *testing.T) {
		v, err := schedule.MapFunc(schedule.Pure(42), strconv.Itoa)(ctx)
		require.NoError(t, err)
		assert.Equal(t, "42", v)

		failing := func(context.Context) (int, error) { return 0, errTest }
		called := false
		_, err = schedule.MapFunc(failing, func(int) string {
			called = true
			return ""
		})(ctx)
		assert.Same(t, errTest, err)
		assert.False(t, called)
	})

	t.Run("flat map", func(t *testing.T) {
		half := func(n int) schedule.Func[int] {
			return func(context.Context) (int, error) {
				if n%2 != 0 {
					return 0, errTest
				}
				return n / 2, nil
			}
		}
		v, err := schedule.FlatMapFunc(schedule.Pure(8), half)(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, v)

		_, err = schedule.FlatMapFunc(schedule.Pure(7), half)(ctx)
		assert.Same(t, errTest, err)
	})

	t.Run("attempt", func(t *testing.T) {
		o, err := schedule.Attempt(func(context.Context) (int, error) { return 0, errTest })(ctx)
		require.NoError(t, err)
		assert.Same(t, errTest, o.Err)

		o, err = schedule.Attempt(schedule.Pure(3))(ctx)
		require.NoError(t, err)
		assert.Equal(t, schedule.Outcome[int]{Value: 3}, o)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = schedule.Attempt(schedule.Pure(3))(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("repeat until the attempt fails", func(t *testing.T) {
		calls := 0
		action := schedule.Attempt(func(context.Context) (int, error) {
			calls++
			if calls == 4 {
				return 0, errTest
			}
			return calls, nil
		})
		s := schedule.Forever[schedule.Outcome[int]]().WhileInput(func(o schedule.Outcome[int]) bool {
			return o.Err == nil
		})
		n, err := schedule.Repeat(ctx, action, s)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, 4, calls)
	})
}

func TestFuture(t *testing.T) {
	t.Run("await result", func(t *testing.T) {
		f := schedule.Go(context.Background(), schedule.Pure("done"))
		v, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "done", v)

		select {
		case <-f.Done():
		default:
			t.Fatal("future not done after await")
		}
	})

	t.Run("await failure", func(t *testing.T) {
		f := schedule.Go(context.Background(), func(context.Context) (int, error) {
			return 0, errTest
		})
		_, err := f.Await(context.Background())
		assert.Same(t, errTest, err)
	})

	t.Run("await gives up with its context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		f := schedule.Go(context.Background(), func(context.Context) (int, error) {
			<-release
			return 1, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := f.Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("retry in the background", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := 0
		f := schedule.Go(ctx, func(ctx context.Context) (int, error) {
			return schedule.Retry(ctx, func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, errTest
				}
				return calls, nil
			}, schedule.Spaced[error](time.Millisecond))
		})

		v, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})
}

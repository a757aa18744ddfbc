// Package schedule provides composable repeat and retry policies.
//
// A Schedule describes how many times, and with what delay, an action should
// run again. It is decoupled from the action: Repeat and Retry drive any
// Func with any Schedule.
//
//   - Composable: combine schedules sequentially, in parallel, or transform
//     their inputs and outputs
//   - Standard policies: Recurs, Spaced, Linear, Exponential, Fibonacci, ...
//   - Injectable Clock: control time in tests without real sleeps
//   - Lifecycle hooks, zap logging, Prometheus metrics and OpenTelemetry spans
//   - Cancellation through context.Context
//
// # Quick Start
//
// Retry a call up to five times with exponential backoff:
//
//	s := schedule.ZipLeft(
//	    schedule.Exponential[error](100*time.Millisecond),
//	    schedule.Recurs[error](5),
//	)
//	user, err := schedule.Retry(ctx, func(ctx context.Context) (*User, error) {
//	    return client.GetUser(ctx, id)
//	}, s)
//
// Poll a job every second until it reports done:
//
//	s := schedule.Spaced[Status](time.Second).UntilInput(Status.Done)
//	_, err := schedule.Repeat(ctx, func(ctx context.Context) (Status, error) {
//	    return client.JobStatus(ctx, id)
//	}, s)
//
// # Decisions and State
//
// Each step of a schedule takes an input (the action's result for Repeat, its
// error for Retry) and the state from the previous step, and returns a
// Decision: whether to continue, how long to wait, the next state and a
// lazily computed output. State is private to the schedule; a driver creates
// a fresh state with Initial at the start of every call, so a Schedule value
// can be reused and shared between goroutines.
//
// # Policies
//
//	schedule.Identity[I]()          // continue, output the input
//	schedule.Forever[I]()           // continue, count steps
//	schedule.Recurs[I](n)           // continue n times, then stop
//	schedule.Once[I]()              // continue once
//	schedule.Never[I]()             // wait forever; relies on cancellation
//	schedule.Spaced[I](d)           // d, d, d, ...
//	schedule.Linear[I](d)           // d, 2d, 3d, ...
//	schedule.Exponential[I](d)      // 2d, 4d, 8d, ...
//	schedule.Fibonacci[I](d)        // d, d, 2d, 3d, 5d, ...
//	schedule.Within[I](clock, max)  // continue until max has elapsed
//
// Never does not cap itself. Use it with a context deadline.
//
// # Combinators
//
// Sequential composition feeds one schedule's output into the next:
//
//	schedule.AndThen(a, b) // continue while both do, wait a+b
//
// Parallel composition runs two schedules on the same input:
//
//	schedule.And(a, b)        // continue while both do, wait max(a, b)
//	schedule.Or(a, b)         // continue while either does, wait min(a, b)
//	schedule.Combine(m, a, b) // continue while either does, wait max(a, b)
//
// Combine merges outputs with a Monoid and, together with Empty, forms a
// monoid itself. AndThen and Identity form a category. Map, Contramap and
// Dimap transform outputs and inputs.
//
// Schedules also have methods that adjust their decisions:
//
//	s.WhileInput(isTransient) // stop on a permanent error
//	s.Capped(10*time.Second)  // never wait longer than 10s
//	s.Jittered(0.2)           // ±20% random jitter
//
// Delays are never negative: negative delays count as zero.
//
// # Drivers
//
// Repeat runs the action, feeds its result to the schedule and runs it again
// while the schedule continues. A failure ends Repeat immediately.
//
// Retry runs the action and returns its first success. Each failure is fed to
// the schedule; when the schedule stops, the failure that stopped it is
// returned. Wrap an error with Stop to end Retry without consulting the
// schedule:
//
//	if errors.Is(err, ErrNotFound) {
//	    return nil, schedule.Stop(err)
//	}
//
// WithLimiter makes a driver wait for a rate.Limiter as well as for its
// schedule. The limiter lives outside the schedule, so one limiter can bound
// many driver calls while each call's schedule state stays private:
//
//	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
//	_, err := schedule.Retry(ctx, fn, s, schedule.WithLimiter(limiter))
//
// Both drivers return ctx.Err() when the context ends while they wait, so
// cancellation can always be told apart from a failure of the action.
//
// # Observability
//
//	metrics := schedule.NewMetrics(prometheus.DefaultRegisterer, "myapp")
//	_, err := schedule.Retry(ctx, fn, s,
//	    schedule.WithLogger(logger),
//	    schedule.WithMetrics(metrics),
//	    schedule.WithTracer(otel.Tracer("myapp")),
//	    schedule.OnRetry(func(ctx context.Context, attempt int, err error, delay time.Duration) {
//	        alerting.Note(attempt, err)
//	    }),
//	)
//
// # Testing
//
// Inject a VirtualClock to run drivers without real sleeps:
//
//	clock := schedule.NewVirtualClock(time.Now())
//	_, err := schedule.Retry(ctx, fn, schedule.Spaced[error](time.Second),
//	    schedule.WithClock(clock),
//	)
//	fmt.Println(clock.Sleeps())
//
// Use Simulate to inspect the decisions a schedule makes:
//
//	decisions, _ := schedule.Fibonacci[int](time.Second).Steps(ctx, 0, 5)
package schedule

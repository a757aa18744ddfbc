package main

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bjaus/schedule"
	"github.com/bjaus/schedule/config"
)

// step is one retry observed during a simulation.
type step struct {
	Attempt int
	Err     string
	Delay   time.Duration
	Elapsed time.Duration
}

// outcome is the result of a simulation.
type outcome struct {
	Steps    []step
	Attempts int
	Err      error
}

func newSimulateCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		configPath string
		steps      int
		failures   int
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a policy against a failing action on a virtual clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				policy *config.Policy
				err    error
			)
			if configPath != "" {
				policy, err = config.LoadFromFile(configPath)
			} else {
				policy, err = config.Load()
			}
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pterm.DefaultHeader.WithFullWidth().Printf("Policy %s", policy)
			out, err := simulate(ctx, policy, steps, failures, logger())
			if err != nil {
				return err
			}
			return render(out)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "policy file (yaml, toml or json)")
	cmd.Flags().IntVarP(&steps, "steps", "n", 10, "maximum number of retries to show")
	cmd.Flags().IntVar(&failures, "failures", -1, "failures before the action succeeds; -1 always fails")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "real time budget, bounds policies that wait forever")
	return cmd
}

// simulate drives Retry with a virtual clock so that no real time passes.
// Policy build errors are returned; the simulated action's outcome is
// reported in the result.
func simulate(ctx context.Context, policy *config.Policy, steps, failures int, logger *zap.Logger) (outcome, error) {
	clock := schedule.NewVirtualClock(time.Unix(0, 0).UTC())
	start := clock.Now()

	s, err := policy.Build(clock)
	if err != nil {
		return outcome{}, err
	}
	s = schedule.ZipLeft(s, schedule.Recurs[error](steps))

	var out outcome
	action := func(ctx context.Context) (int, error) {
		out.Attempts++
		if failures < 0 || out.Attempts <= failures {
			return 0, errors.Newf("simulated failure %d", out.Attempts)
		}
		return out.Attempts, nil
	}

	opts := append(policy.Options(),
		schedule.WithClock(clock),
		schedule.WithLogger(logger),
		schedule.OnRetry(func(ctx context.Context, attempt int, err error, delay time.Duration) {
			elapsed := schedule.Infinite
			if delay != schedule.Infinite {
				elapsed = clock.Now().Sub(start) + delay
			}
			out.Steps = append(out.Steps, step{
				Attempt: attempt,
				Err:     err.Error(),
				Delay:   delay,
				Elapsed: elapsed,
			})
		}),
	)
	_, out.Err = schedule.Retry(ctx, action, s, opts...)
	return out, nil
}

func render(out outcome) error {
	data := pterm.TableData{{"attempt", "error", "delay", "elapsed"}}
	for _, s := range out.Steps {
		data = append(data, []string{
			strconv.Itoa(s.Attempt),
			s.Err,
			formatDelay(s.Delay),
			formatDelay(s.Elapsed),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return errors.Wrap(err, "failed to render table")
	}

	switch {
	case out.Err == nil:
		pterm.Success.Printfln("succeeded after %d attempts", out.Attempts)
	case errors.Is(out.Err, context.DeadlineExceeded):
		pterm.Warning.Printfln("still waiting after %d attempts when the timeout expired", out.Attempts)
	default:
		pterm.Error.Printfln("gave up after %d attempts: %v", out.Attempts, out.Err)
	}
	return nil
}

func formatDelay(d time.Duration) string {
	if d == schedule.Infinite {
		return "forever"
	}
	return d.String()
}

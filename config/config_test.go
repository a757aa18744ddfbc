package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/schedule"
)

var errTest = errors.New("test error")

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance, no environment or files.
	v := viper.New()
	SetDefaults(v)

	p, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, KindExponential, p.Kind)
	assert.Equal(t, 100*time.Millisecond, p.Base)
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 10*time.Second, p.MaxDelay)
	assert.Zero(t, p.MaxElapsed)
	assert.Zero(t, p.MinDelay)
	assert.Zero(t, p.Jitter)
	assert.Zero(t, p.RatePerSecond)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SCHEDULE_POLICY_KIND", KindFibonacci)
	t.Setenv("SCHEDULE_POLICY_BASE", "250ms")
	t.Setenv("SCHEDULE_POLICY_MAX_RETRIES", "-1")

	p, err := Load()
	require.NoError(t, err)

	assert.Equal(t, KindFibonacci, p.Kind)
	assert.Equal(t, 250*time.Millisecond, p.Base)
	assert.Equal(t, Unlimited, p.MaxRetries)
	assert.Equal(t, 10*time.Second, p.MaxDelay)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `policy:
  kind: linear
  base: 2s
  max_retries: 5
  max_elapsed: 1m
  min_delay: 1s
  max_delay: 30s
  jitter: 0.25
  rate_per_second: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, Policy{
		Kind:          KindLinear,
		Base:          2 * time.Second,
		MaxRetries:    5,
		MaxElapsed:    time.Minute,
		MinDelay:      time.Second,
		MaxDelay:      30 * time.Second,
		Jitter:        0.25,
		RatePerSecond: 2,
	}, *p)

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("SCHEDULE_POLICY_MAX_RETRIES", "9")
		p, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 9, p.MaxRetries)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid file contents", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("policy:\n  kind: sometimes\n"), 0o600))
		_, err := LoadFromFile(bad)
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})
}

func TestValidate(t *testing.T) {
	valid := Policy{Kind: KindExponential, Base: time.Second, MaxRetries: 3}

	tests := []struct {
		name    string
		modify  func(p *Policy)
		wantErr bool
	}{
		{name: "valid", modify: func(*Policy) {}},
		{name: "unknown kind", modify: func(p *Policy) { p.Kind = "sometimes" }, wantErr: true},
		{name: "empty kind", modify: func(p *Policy) { p.Kind = "" }, wantErr: true},
		{name: "zero base", modify: func(p *Policy) { p.Base = 0 }, wantErr: true},
		{name: "zero base is fine for immediate", modify: func(p *Policy) { p.Kind, p.Base = KindImmediate, 0 }},
		{name: "zero base is fine for never", modify: func(p *Policy) { p.Kind, p.Base = KindNever, 0 }},
		{name: "unlimited retries", modify: func(p *Policy) { p.MaxRetries = Unlimited }},
		{name: "zero retries", modify: func(p *Policy) { p.MaxRetries = 0 }},
		{name: "retries below unlimited", modify: func(p *Policy) { p.MaxRetries = -2 }, wantErr: true},
		{name: "negative max elapsed", modify: func(p *Policy) { p.MaxElapsed = -time.Second }, wantErr: true},
		{name: "negative min delay", modify: func(p *Policy) { p.MinDelay = -time.Second }, wantErr: true},
		{name: "negative max delay", modify: func(p *Policy) { p.MaxDelay = -time.Second }, wantErr: true},
		{name: "min above max", modify: func(p *Policy) { p.MinDelay, p.MaxDelay = 2*time.Second, time.Second }, wantErr: true},
		{name: "min with no max", modify: func(p *Policy) { p.MinDelay = 2 * time.Second }},
		{name: "jitter above one", modify: func(p *Policy) { p.Jitter = 1.5 }, wantErr: true},
		{name: "negative jitter", modify: func(p *Policy) { p.Jitter = -0.1 }, wantErr: true},
		{name: "negative rate", modify: func(p *Policy) { p.RatePerSecond = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.modify(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func delaysOf(t *testing.T, p Policy, clock schedule.Clock, n int) ([]time.Duration, bool) {
	t.Helper()
	s, err := p.Build(clock)
	require.NoError(t, err)
	decisions, err := s.Steps(context.Background(), errTest, n)
	require.NoError(t, err)

	var delays []time.Duration
	for _, d := range decisions {
		if !d.Continue {
			return delays, true
		}
		assert.Equal(t, d.Delay, d.Finish())
		delays = append(delays, d.Delay)
	}
	return delays, false
}

func TestBuild(t *testing.T) {
	clock := schedule.NewVirtualClock(time.Unix(0, 0))

	t.Run("defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		p, err := LoadWithViper(v)
		require.NoError(t, err)

		delays, stopped := delaysOf(t, *p, clock, 10)
		assert.True(t, stopped)
		assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}, delays)
	})

	t.Run("kinds", func(t *testing.T) {
		tests := []struct {
			kind string
			want []time.Duration
		}{
			{KindSpaced, []time.Duration{time.Second, time.Second, time.Second}},
			{KindLinear, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}},
			{KindExponential, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}},
			{KindFibonacci, []time.Duration{time.Second, time.Second, 2 * time.Second}},
			{KindImmediate, []time.Duration{0, 0, 0}},
			{KindNever, []time.Duration{schedule.Infinite, schedule.Infinite, schedule.Infinite}},
		}
		for _, tt := range tests {
			t.Run(tt.kind, func(t *testing.T) {
				p := Policy{Kind: tt.kind, Base: time.Second, MaxRetries: Unlimited}
				delays, stopped := delaysOf(t, p, clock, 3)
				assert.False(t, stopped)
				assert.Equal(t, tt.want, delays)
			})
		}
	})

	t.Run("clamped delays", func(t *testing.T) {
		p := Policy{Kind: KindExponential, Base: 100 * time.Millisecond, MaxRetries: 5, MinDelay: 300 * time.Millisecond, MaxDelay: time.Second}
		delays, stopped := delaysOf(t, p, clock, 10)
		assert.True(t, stopped)
		assert.Equal(t, []time.Duration{
			300 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second, time.Second,
		}, delays)
	})

	t.Run("jitter", func(t *testing.T) {
		p := Policy{Kind: KindSpaced, Base: time.Second, MaxRetries: 100, Jitter: 0.5}
		delays, _ := delaysOf(t, p, clock, 100)
		for _, d := range delays {
			assert.GreaterOrEqual(t, d, 500*time.Millisecond)
			assert.LessOrEqual(t, d, 1500*time.Millisecond)
		}
	})

	t.Run("max elapsed", func(t *testing.T) {
		clock := schedule.NewVirtualClock(time.Unix(0, 0))
		p := Policy{Kind: KindSpaced, Base: time.Second, MaxRetries: Unlimited, MaxElapsed: 3 * time.Second}
		s, err := p.Build(clock)
		require.NoError(t, err)

		calls := 0
		_, err = schedule.Retry(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, errTest
		}, s, schedule.WithClock(clock))

		assert.Same(t, errTest, err)
		assert.Equal(t, 4, calls)
		assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, clock.Sleeps())
	})

	t.Run("rate limit", func(t *testing.T) {
		clock := schedule.NewVirtualClock(time.Unix(1000, 0))
		p := Policy{Kind: KindImmediate, MaxRetries: 3, RatePerSecond: 1}
		s, err := p.Build(clock)
		require.NoError(t, err)

		opts := append(p.Options(), schedule.WithClock(clock))
		_, err = schedule.Retry(context.Background(), func(context.Context) (int, error) {
			return 0, errTest
		}, s, opts...)

		assert.Same(t, errTest, err)
		assert.Equal(t, []time.Duration{0, time.Second, time.Second}, clock.Sleeps())
	})

	t.Run("rate limit leaves the schedule stateless", func(t *testing.T) {
		p := Policy{Kind: KindImmediate, MaxRetries: 3, RatePerSecond: 1}
		s, err := p.Build(clock)
		require.NoError(t, err)

		first, err := s.Steps(context.Background(), errTest, 10)
		require.NoError(t, err)
		second, err := s.Steps(context.Background(), errTest, 10)
		require.NoError(t, err)

		require.Len(t, first, 4)
		require.Len(t, second, 4)
		for i := range first {
			assert.Equal(t, first[i].Continue, second[i].Continue)
			assert.Zero(t, first[i].Delay)
			assert.Zero(t, second[i].Delay)
		}
	})

	t.Run("invalid policy", func(t *testing.T) {
		_, err := Policy{Kind: KindSpaced}.Build(nil)
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})

	t.Run("nil clock means the real clock", func(t *testing.T) {
		s, err := Policy{Kind: KindSpaced, Base: time.Millisecond, MaxRetries: 1, MaxElapsed: time.Hour}.Build(nil)
		require.NoError(t, err)
		decisions, err := s.Steps(context.Background(), errTest, 3)
		require.NoError(t, err)
		assert.Len(t, decisions, 2)
	})
}

func TestPolicy_Options(t *testing.T) {
	assert.Empty(t, Policy{Kind: KindSpaced, Base: time.Second}.Options())
	assert.Len(t, Policy{Kind: KindSpaced, Base: time.Second, RatePerSecond: 2}.Options(), 1)
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "exponential(100ms) retries=3 max=10s",
		Policy{Kind: KindExponential, Base: 100 * time.Millisecond, MaxRetries: 3, MaxDelay: 10 * time.Second}.String())
	assert.Equal(t, "spaced(1s) within=1m0s min=500ms jitter=0.2 rate=5/s",
		Policy{Kind: KindSpaced, Base: time.Second, MaxRetries: Unlimited, MaxElapsed: time.Minute, MinDelay: 500 * time.Millisecond, Jitter: 0.2, RatePerSecond: 5}.String())
}

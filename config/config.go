// Package config builds retry schedules from declarative configuration.
//
// A policy is read with viper from a file, the environment (prefix
// SCHEDULE_, e.g. SCHEDULE_POLICY_BASE=250ms) or any viper instance:
//
//	policy:
//	  kind: exponential
//	  base: 100ms
//	  max_retries: 5
//	  max_delay: 10s
//	  jitter: 0.2
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/bjaus/schedule"
)

// Policy kinds.
const (
	KindSpaced      = "spaced"
	KindLinear      = "linear"
	KindExponential = "exponential"
	KindFibonacci   = "fibonacci"
	KindImmediate   = "immediate"
	KindNever       = "never"
)

// Unlimited disables the retry count limit when used as MaxRetries.
const Unlimited = -1

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SCHEDULE"

// ErrInvalidPolicy is wrapped by every validation error.
var ErrInvalidPolicy = errors.New("invalid policy")

var kinds = []string{KindSpaced, KindLinear, KindExponential, KindFibonacci, KindImmediate, KindNever}

// Config is the root of a configuration file.
type Config struct {
	Policy Policy `mapstructure:"policy"`
}

// Policy describes a retry schedule.
type Policy struct {
	// Kind selects the delay sequence.
	Kind string `mapstructure:"kind"`
	// Base is the unit of the delay sequence. Ignored by immediate and never.
	Base time.Duration `mapstructure:"base"`
	// MaxRetries bounds the number of retries; Unlimited disables the bound.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxElapsed stops retrying once this much time has passed. Zero disables.
	MaxElapsed time.Duration `mapstructure:"max_elapsed"`
	// MinDelay and MaxDelay clamp each delay. Zero disables.
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
	// Jitter randomizes each delay by ±Jitter of its value.
	Jitter float64 `mapstructure:"jitter"`
	// RatePerSecond bounds attempts across every driver call sharing the
	// limiter returned by Options. Zero disables.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// SetDefaults configures default values for every policy option.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("policy.kind", KindExponential)
	v.SetDefault("policy.base", "100ms")
	v.SetDefault("policy.max_retries", 3)
	v.SetDefault("policy.max_elapsed", "0s")
	v.SetDefault("policy.min_delay", "0s")
	v.SetDefault("policy.max_delay", "10s")
	v.SetDefault("policy.jitter", 0.0)
	v.SetDefault("policy.rate_per_second", 0.0)
}

// Load reads the policy from defaults and the environment only.
func Load() (*Policy, error) {
	v := viper.New()
	bindEnv(v)
	SetDefaults(v)
	return LoadWithViper(v)
}

// LoadWithViper reads and validates the policy held by v.
func LoadWithViper(v *viper.Viper) (*Policy, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal policy")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	return &cfg.Policy, nil
}

// LoadFromFile reads a policy from a file, with defaults and environment
// overrides applied. The format follows the file extension.
func LoadFromFile(path string) (*Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	bindEnv(v)
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return LoadWithViper(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate checks that the policy can be built.
func (p Policy) Validate() error {
	switch p.Kind {
	case KindSpaced, KindLinear, KindExponential, KindFibonacci:
		if p.Base <= 0 {
			return invalid("policy.base must be > 0 for %s, got %s", p.Kind, p.Base)
		}
	case KindImmediate, KindNever:
	default:
		return errors.WithHintf(
			invalid("unknown policy.kind %q", p.Kind),
			"use one of: %s", strings.Join(kinds, ", "),
		)
	}

	if p.MaxRetries < Unlimited {
		return errors.WithHint(
			invalid("policy.max_retries must be >= %d, got %d", Unlimited, p.MaxRetries),
			"use -1 to retry without a count limit",
		)
	}
	if p.MaxElapsed < 0 {
		return invalid("policy.max_elapsed must be >= 0, got %s", p.MaxElapsed)
	}
	if p.MinDelay < 0 {
		return invalid("policy.min_delay must be >= 0, got %s", p.MinDelay)
	}
	if p.MaxDelay < 0 {
		return invalid("policy.max_delay must be >= 0, got %s", p.MaxDelay)
	}
	if p.MaxDelay > 0 && p.MinDelay > p.MaxDelay {
		return invalid("policy.min_delay (%s) must not exceed policy.max_delay (%s)", p.MinDelay, p.MaxDelay)
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		return invalid("policy.jitter must be within [0, 1], got %g", p.Jitter)
	}
	if p.RatePerSecond < 0 {
		return invalid("policy.rate_per_second must be >= 0, got %g", p.RatePerSecond)
	}
	return nil
}

// Build validates the policy and turns it into a retry schedule whose output
// is the delay of each step. clock is used by max_elapsed; nil means the real
// clock. rate_per_second is not part of the schedule, see Options.
func (p Policy) Build(clock schedule.Clock) (schedule.Schedule[error, time.Duration], error) {
	if err := p.Validate(); err != nil {
		return schedule.Schedule[error, time.Duration]{}, err
	}
	if clock == nil {
		clock = schedule.RealClock()
	}

	var s schedule.Schedule[error, time.Duration]
	switch p.Kind {
	case KindSpaced:
		s = schedule.Spaced[error](p.Base)
	case KindLinear:
		s = schedule.Linear[error](p.Base)
	case KindExponential:
		s = schedule.Exponential[error](p.Base)
	case KindFibonacci:
		s = schedule.Fibonacci[error](p.Base)
	case KindImmediate:
		s = schedule.Spaced[error](0)
	case KindNever:
		s = schedule.Const(schedule.Never[error](), schedule.Infinite)
	}

	if p.MinDelay > 0 {
		s = s.Floor(p.MinDelay)
	}
	if p.MaxDelay > 0 {
		s = s.Capped(p.MaxDelay)
	}
	if p.Jitter > 0 {
		s = s.Jittered(p.Jitter)
	}
	s = schedule.Delays(s)
	if p.MaxRetries != Unlimited {
		s = schedule.ZipLeft(s, schedule.Recurs[error](p.MaxRetries))
	}
	if p.MaxElapsed > 0 {
		s = schedule.ZipLeft(s, schedule.Within[error](clock, p.MaxElapsed))
	}
	return s, nil
}

// Options returns the driver options the policy implies. When
// rate_per_second is set, it holds a WithLimiter option whose limiter is
// created here, so every driver call given the same options shares one
// attempt budget.
func (p Policy) Options() []schedule.Option {
	if p.RatePerSecond <= 0 {
		return nil
	}
	return []schedule.Option{
		schedule.WithLimiter(rate.NewLimiter(rate.Limit(p.RatePerSecond), 1)),
	}
}

// String describes the policy on one line.
func (p Policy) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)", p.Kind, p.Base)
	if p.MaxRetries != Unlimited {
		fmt.Fprintf(&b, " retries=%d", p.MaxRetries)
	}
	if p.MaxElapsed > 0 {
		fmt.Fprintf(&b, " within=%s", p.MaxElapsed)
	}
	if p.MinDelay > 0 {
		fmt.Fprintf(&b, " min=%s", p.MinDelay)
	}
	if p.MaxDelay > 0 {
		fmt.Fprintf(&b, " max=%s", p.MaxDelay)
	}
	if p.Jitter > 0 {
		fmt.Fprintf(&b, " jitter=%g", p.Jitter)
	}
	if p.RatePerSecond > 0 {
		fmt.Fprintf(&b, " rate=%g/s", p.RatePerSecond)
	}
	return b.String()
}

func invalid(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidPolicy, format, args...)
}

package schedule

import (
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// WithLimiter makes a driver respect limiter: before each wait, a reservation
// is taken at the clock's current time and the wait is stretched to cover
// it. A limiter may be shared by many driver calls to bound their combined
// attempt rate. A nil limiter disables throttling.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *config) {
		c.limiter = limiter
	}
}

// throttle returns the wait before the next attempt: delay, raised to zero if
// negative and stretched to honour the limiter. Reservations are only taken for attempts that will
// happen, so it must be called after the schedule decided to continue.
func (c *config) throttle(delay time.Duration) (time.Duration, error) {
	delay = max(delay, 0)
	if c.limiter == nil || delay == Infinite {
		return delay, nil
	}
	now := c.clock.Now()
	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return 0, errors.WithHint(
			errors.Newf("rate limiter with burst %d cannot admit an attempt", c.limiter.Burst()),
			"use a limiter with a burst of at least 1",
		)
	}
	return max(delay, r.DelayFrom(now)), nil
}

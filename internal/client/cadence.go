// Package client holds the patient-side loop: local validation, a
// fixed-rate accuracy publisher, and the visible feedback queue.
package client

import (
	"context"
	"time"
)

const defaultInterval = 2 * time.Second

// Cadence fires on an absolute schedule anchored at Run's start, so
// the tick rate does not drift with handler latency. When a handler
// overruns, missed ticks are skipped rather than delivered in a burst.
type Cadence struct {
	interval time.Duration
	now      func() time.Time
}

// CadenceOption applies a configuration option to the Cadence.
type CadenceOption func(*Cadence)

// WithCadenceClock replaces the time source, for tests.
func WithCadenceClock(clock func() time.Time) CadenceOption {
	return func(c *Cadence) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewCadence creates a fixed-rate scheduler. Intervals below one
// millisecond fall back to the default.
func NewCadence(interval time.Duration, opts ...CadenceOption) *Cadence {
	if interval < time.Millisecond {
		interval = defaultInterval
	}
	c := &Cadence{interval: interval, now: time.Now}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Interval returns the configured tick interval.
func (c *Cadence) Interval() time.Duration {
	return c.interval
}

// Run invokes fn once per interval until ctx is done. The tick time
// passed to fn is the scheduled time, not the wall time the handler
// started.
func (c *Cadence) Run(ctx context.Context, fn func(time.Time)) {
	start := c.now()
	next := start.Add(c.interval)
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		fn(next)

		// Advance past any ticks the handler ran through.
		now := c.now()
		for !next.After(now) {
			next = next.Add(c.interval)
		}
		timer.Reset(next.Sub(now))
	}
}

// Package testutil provides shared helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// ManualClock is a thread-safe fake time source for tests.
//
// Each call to Now advances the clock by a fixed step, so code that stamps
// started/finished times produces deterministic, strictly increasing
// values without sleeping.
type ManualClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

// NewManualClock creates a clock starting at start, advancing by step on
// every Now call.
func NewManualClock(start time.Time, step time.Duration) *ManualClock {
	return &ManualClock{t: start, step: step}
}

// Now returns the current fake time and advances the clock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

// Current returns the clock's position without advancing it.
func (c *ManualClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

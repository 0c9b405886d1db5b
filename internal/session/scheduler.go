package session

import "time"

// ReconnectClock paces session setup attempts to a fixed interval. It is a
// deliberate non-feature that there is no backoff and no jitter; the device
// reconnects at a constant, predictable cadence.
//
// The zero lastAttempt makes the first attempt due immediately.
type ReconnectClock struct {
	lastAttempt time.Time
	interval    time.Duration
}

// NewReconnectClock returns a clock with the given fixed interval.
func NewReconnectClock(interval time.Duration) *ReconnectClock {
	return &ReconnectClock{interval: interval}
}

// Due reports whether a new attempt may be issued at now.
func (c *ReconnectClock) Due(now time.Time) bool {
	return now.Sub(c.lastAttempt) >= c.interval
}

// Stamp records that an attempt was issued at now.
func (c *ReconnectClock) Stamp(now time.Time) {
	c.lastAttempt = now
}

// Interval returns the fixed pacing interval.
func (c *ReconnectClock) Interval() time.Duration {
	return c.interval
}

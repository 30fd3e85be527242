// Package clock provides a time abstraction for deterministic testing.
//
// The deploy pipeline both timestamps state transitions and sleeps for the
// fixed post-launch delay before the health probe; routing both through the
// Clock interface keeps pipeline tests instant.
package clock

import "time"

// Clock provides an abstraction for time operations to enable deterministic testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the current goroutine for at least the duration d.
	Sleep(d time.Duration)
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current system time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Sleep pauses for the given duration.
func (c *RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// FakeClock implements Clock with a fixed time for testing.
// Sleep advances the fixed time instead of blocking and records the
// requested durations.
type FakeClock struct {
	current time.Time

	// Slept records every duration passed to Sleep, in order.
	Slept []time.Duration
}

// NewFakeClock creates a new FakeClock with the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// Now returns the fixed time.
func (c *FakeClock) Now() time.Time {
	return c.current
}

// Sleep records the duration and advances the fixed time without blocking.
func (c *FakeClock) Sleep(d time.Duration) {
	c.Slept = append(c.Slept, d)
	c.current = c.current.Add(d)
}

// Set updates the fixed time.
func (c *FakeClock) Set(t time.Time) {
	c.current = t
}

// Advance moves the fixed time forward by the given duration.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Package timeutil provides a testable clock and frame-index timestamps.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides an abstraction over wall time for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by the given duration.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FrameClock maps frame indices to timestamps at a fixed frame rate. The
// tracking core counts frames, not seconds; timestamps are only for
// persistence and reports.
type FrameClock struct {
	Start time.Time
	Rate  float64 // frames per second
}

// NewFrameClock starts a frame clock at clock.Now().
func NewFrameClock(clock Clock, rate float64) FrameClock {
	return FrameClock{Start: clock.Now(), Rate: rate}
}

// FrameDuration returns the duration of one frame, or zero if the rate is
// not positive.
func (fc FrameClock) FrameDuration() time.Duration {
	if fc.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fc.Rate)
}

// Timestamp returns the time of the given frame index.
func (fc FrameClock) Timestamp(frame int) time.Time {
	if fc.Rate <= 0 {
		return fc.Start
	}
	return fc.Start.Add(time.Duration(float64(frame) * float64(time.Second) / fc.Rate))
}

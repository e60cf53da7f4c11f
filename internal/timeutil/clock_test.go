package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	got := clock.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("RealClock.Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("MockClock.Now() = %v, want %v", got, start)
	}

	clock.Advance(5 * time.Second)
	if got := clock.Now(); !got.Equal(start.Add(5 * time.Second)) {
		t.Errorf("after Advance, Now() = %v, want %v", got, start.Add(5*time.Second))
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("after Set, Now() = %v, want %v", got, later)
	}
}

func TestFrameClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	fc := NewFrameClock(NewMockClock(start), 25)

	if got := fc.FrameDuration(); got != 40*time.Millisecond {
		t.Errorf("FrameDuration() = %v, want 40ms", got)
	}
	if got := fc.Timestamp(0); !got.Equal(start) {
		t.Errorf("Timestamp(0) = %v, want %v", got, start)
	}
	if got := fc.Timestamp(50); !got.Equal(start.Add(2 * time.Second)) {
		t.Errorf("Timestamp(50) = %v, want %v", got, start.Add(2*time.Second))
	}

	zero := FrameClock{Start: start}
	if zero.FrameDuration() != 0 || !zero.Timestamp(10).Equal(start) {
		t.Error("zero-rate FrameClock should pin every frame to Start")
	}
}

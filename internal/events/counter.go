package events

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/juggle.report/internal/monitoring"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

// DefaultMinWindow is the number of frames the window must exceed before
// peak detection runs.
const DefaultMinWindow = 10

// Mode selects the counting rule.
type Mode string

const (
	// ModeHysteresis counts an apex followed by a trough (canonical).
	ModeHysteresis Mode = "hysteresis"
	// ModeSingle counts every qualifying apex immediately.
	ModeSingle Mode = "single"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHysteresis, ModeSingle:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown counter mode %q (want %q or %q)", s, ModeHysteresis, ModeSingle)
}

// ResetScope selects which histories are cleared on a confirmed cycle.
type ResetScope string

const (
	ResetAll   ResetScope = "all"   // every tracked point
	ResetPoint ResetScope = "point" // the designated point only
)

// ParseResetScope validates a reset scope name.
func ParseResetScope(s string) (ResetScope, error) {
	switch ResetScope(s) {
	case ResetAll, ResetPoint:
		return ResetScope(s), nil
	}
	return "", fmt.Errorf("unknown reset scope %q (want %q or %q)", s, ResetAll, ResetPoint)
}

// CounterConfig configures a Counter.
type CounterConfig struct {
	Point         string          // designated point id
	Axis          trajectory.Axis // axis of the designated point to watch
	Negate        bool            // negate the series before peak search (image Y grows downward)
	Mode          Mode
	MinWindow     int     // detection runs once the window length exceeds this
	MinProminence float64 // 0 disables the prominence filter
	ResetScope    ResetScope
}

// DefaultCounterConfig returns the ball-bounce configuration.
func DefaultCounterConfig() CounterConfig {
	return CounterConfig{
		Point:      trajectory.PointBall,
		Axis:       trajectory.AxisY,
		Negate:     true,
		Mode:       ModeHysteresis,
		MinWindow:  DefaultMinWindow,
		ResetScope: ResetAll,
	}
}

// Counter detects motion reversals in the designated series and keeps a
// cumulative count. Its only state is the count and the ascending flag.
type Counter struct {
	Config CounterConfig

	count     int
	ascending bool
}

// NewCounter creates a counter with a zero count.
func NewCounter(cfg CounterConfig) *Counter {
	return &Counter{Config: cfg}
}

// Update inspects the designated point in pred and returns the current
// count and whether a cycle was confirmed on this call. On confirmation
// pred and every set in also are cleared according to the reset scope.
func (c *Counter) Update(pred *trajectory.Histories, also ...*trajectory.Histories) (count int, fired bool) {
	cfg := c.Config
	if pred.Len(cfg.Point) <= cfg.MinWindow {
		return c.count, false
	}

	series, ok := pred.Values(cfg.Point, cfg.Axis)
	if !ok {
		monitoring.Debugf("[events] %s series has missing values, skipping peak search", cfg.Point)
		return c.count, false
	}
	if cfg.Negate {
		floats.Scale(-1, series)
	}

	apexes := FindPeaks(series, cfg.MinProminence)

	switch cfg.Mode {
	case ModeSingle:
		fired = len(apexes) > 0
	default:
		if !c.ascending {
			if len(apexes) == 0 {
				return c.count, false
			}
			c.ascending = true
		}
		// A trough after the latest apex confirms the cycle, including one
		// already in the window that armed the flag.
		lastApex := -1
		if len(apexes) > 0 {
			lastApex = apexes[len(apexes)-1]
		}
		inverted := append([]float64(nil), series...)
		floats.Scale(-1, inverted)
		for _, t := range FindPeaks(inverted, cfg.MinProminence) {
			if t > lastApex {
				fired = true
				break
			}
		}
	}

	if !fired {
		return c.count, false
	}

	c.count++
	c.ascending = false
	c.reset(pred, also)
	monitoring.Debugf("[events] cycle confirmed on %s, count=%d", cfg.Point, c.count)
	return c.count, true
}

func (c *Counter) reset(pred *trajectory.Histories, also []*trajectory.Histories) {
	var ids []string
	if c.Config.ResetScope == ResetPoint {
		ids = []string{c.Config.Point}
	}
	pred.Reset(ids...)
	for _, h := range also {
		if h != nil {
			h.Reset(ids...)
		}
	}
}

// Count returns the cumulative count.
func (c *Counter) Count() int { return c.count }

// Ascending reports whether an apex has been seen without a confirming
// trough yet.
func (c *Counter) Ascending() bool { return c.ascending }

// Reset clears the count and the ascending flag.
func (c *Counter) Reset() {
	c.count = 0
	c.ascending = false
}

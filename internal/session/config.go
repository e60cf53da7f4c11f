package session

import (
	"errors"
	"fmt"

	"github.com/banshee-data/juggle.report/internal/config"
	"github.com/banshee-data/juggle.report/internal/events"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

// ErrInvalidConfig is wrapped by every configuration error returned at
// session construction.
var ErrInvalidConfig = errors.New("invalid session config")

// Config holds the typed parameters of one tracking session.
type Config struct {
	Points     []string // tracked point ids, fixed for the session
	MaxHistory int      // rolling window length in frames
	FrameRate  float64  // frames per second, timestamps only

	ProcessVariance     float64
	MeasurementVariance float64

	ExtrapolationEnabled    bool
	ExtrapolationWindow     int
	ExtrapolationMinSamples int

	Counter             events.CounterConfig
	ResetFiltersOnEvent bool
}

// DefaultConfig returns ball-tracking defaults.
func DefaultConfig() Config {
	return Config{
		Points:                  []string{trajectory.PointBall},
		MaxHistory:              trajectory.DefaultMaxHistoryLength,
		FrameRate:               30,
		ProcessVariance:         trajectory.DefaultProcessVariance,
		MeasurementVariance:     trajectory.DefaultMeasurementVariance,
		ExtrapolationEnabled:    true,
		ExtrapolationWindow:     trajectory.DefaultExtrapolationWindow,
		ExtrapolationMinSamples: trajectory.DefaultExtrapolationMinSamples,
		Counter:                 events.DefaultCounterConfig(),
	}
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) (Config, error) {
	mode, err := events.ParseMode(cfg.GetCounterMode())
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	axis, err := trajectory.ParseAxis(cfg.GetCounterAxis())
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	scope, err := events.ParseResetScope(cfg.GetResetScope())
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return Config{
		Points:                  cfg.GetTrackedPoints(),
		MaxHistory:              cfg.GetHistoryMaxLen(),
		FrameRate:               cfg.GetFrameRate(),
		ProcessVariance:         cfg.GetProcessVariance(),
		MeasurementVariance:     cfg.GetMeasurementVariance(),
		ExtrapolationEnabled:    cfg.GetExtrapolationEnabled(),
		ExtrapolationWindow:     cfg.GetExtrapolationWindow(),
		ExtrapolationMinSamples: cfg.GetExtrapolationMinSamples(),
		Counter: events.CounterConfig{
			Point:         cfg.GetCounterPoint(),
			Axis:          axis,
			Negate:        cfg.GetCounterNegate(),
			Mode:          mode,
			MinWindow:     cfg.GetPeakMinWindow(),
			MinProminence: cfg.GetPeakProminence(),
			ResetScope:    scope,
		},
		ResetFiltersOnEvent: cfg.GetResetFiltersOnEvent(),
	}, nil
}

// Validate checks window sizes, noise variances and point ids.
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if len(c.Points) == 0 {
		return invalid("no tracked points")
	}
	seen := make(map[string]bool, len(c.Points))
	for _, id := range c.Points {
		if id == "" {
			return invalid("empty point id")
		}
		if seen[id] {
			return invalid("duplicate point id %q", id)
		}
		seen[id] = true
	}
	if c.MaxHistory < 1 {
		return invalid("max history %d < 1", c.MaxHistory)
	}
	if c.FrameRate < 0 {
		return invalid("negative frame rate %f", c.FrameRate)
	}
	if c.ProcessVariance < 0 {
		return invalid("negative process variance %f", c.ProcessVariance)
	}
	if c.MeasurementVariance <= 0 {
		return invalid("measurement variance must be positive, got %f", c.MeasurementVariance)
	}
	if c.ExtrapolationMinSamples < 3 {
		return invalid("extrapolation min samples %d < 3", c.ExtrapolationMinSamples)
	}
	if c.ExtrapolationWindow < c.ExtrapolationMinSamples {
		return invalid("extrapolation window %d < min samples %d", c.ExtrapolationWindow, c.ExtrapolationMinSamples)
	}

	cc := c.Counter
	if !seen[cc.Point] {
		return invalid("counter point %q is not tracked", cc.Point)
	}
	if cc.Axis != trajectory.AxisX && cc.Axis != trajectory.AxisY {
		return invalid("counter axis %v", cc.Axis)
	}
	if _, err := events.ParseMode(string(cc.Mode)); err != nil {
		return invalid("%v", err)
	}
	if _, err := events.ParseResetScope(string(cc.ResetScope)); err != nil {
		return invalid("%v", err)
	}
	if cc.MinWindow < 2 {
		return invalid("peak min window %d < 2", cc.MinWindow)
	}
	if cc.MinProminence < 0 {
		return invalid("negative prominence %f", cc.MinProminence)
	}
	return nil
}

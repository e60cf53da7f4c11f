package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/juggle.report/internal/config"
	"github.com/banshee-data/juggle.report/internal/events"
	"github.com/banshee-data/juggle.report/internal/testutil"
	"github.com/banshee-data/juggle.report/internal/timeutil"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s, err := New(cfg, WithClock(timeutil.NewMockClock(testStart)), WithID("test-session"))
	require.NoError(t, err)
	return s
}

// ballFrames converts y samples into frames; NaN samples become misses.
func ballFrames(ys []float64) []trajectory.Frame {
	frames := make([]trajectory.Frame, len(ys))
	for i, y := range ys {
		frames[i] = trajectory.Frame{trajectory.PointBall: trajectory.NewObservation(0.5, y, 0.04, 0.04)}
	}
	return frames
}

func run(s *Session, frames []trajectory.Frame) []FrameResult {
	out := make([]FrameResult, len(frames))
	for i, f := range frames {
		out[i] = s.Step(f)
	}
	return out
}

func firedAt(results []FrameResult) []int {
	var idx []int
	for _, r := range results {
		if r.Fired {
			idx = append(idx, r.Index)
		}
	}
	return idx
}

func TestSession_OneBounce(t *testing.T) {
	s := newTestSession(t, DefaultConfig())

	results := run(s, ballFrames(testutil.Bounce(24, 20, 0.8, 0.5)))

	assert.Equal(t, []int{21}, firedAt(results))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 24, s.Frames())
	assert.Equal(t, 1, results[23].Count)
	assert.Equal(t, trajectory.PointBall, results[21].CounterPoint)
}

func TestSession_RepeatedBounces(t *testing.T) {
	s := newTestSession(t, DefaultConfig())

	results := run(s, ballFrames(testutil.Bounce(200, 20, 0.8, 0.5)))

	assert.Equal(t, []int{21, 41, 61, 81, 101, 121, 141, 161, 181}, firedAt(results))
	assert.Equal(t, 9, s.Count())
}

func TestSession_BouncesWithMissedDetections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Counter.MinProminence = 0.05
	s := newTestSession(t, cfg)

	ys := testutil.WithGaps(testutil.Bounce(200, 20, 0.8, 0.5), 7, 3)
	run(s, ballFrames(ys))

	assert.Equal(t, 9, s.Count())
}

func TestSession_MonotonicNeverCounts(t *testing.T) {
	s := newTestSession(t, DefaultConfig())

	results := run(s, ballFrames(testutil.Ramp(60, 0.9, -0.01)))

	assert.Empty(t, firedAt(results))
	assert.Zero(t, s.Count())
}

func TestSession_HistoriesStayAligned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Points = []string{trajectory.PointBall, trajectory.PointHead}
	cfg.MaxHistory = 15
	s := newTestSession(t, cfg)

	ys := testutil.WithGaps(testutil.Bounce(120, 20, 0.8, 0.5), 5, 2)
	for i, f := range ballFrames(ys) {
		res := s.Step(f)
		meas, pred, ext := s.Measurements(), s.Predictions(), s.Extrapolations()
		for _, id := range cfg.Points {
			assert.Len(t, pred[id], len(meas[id]), "frame %d %s", i, id)
			assert.Len(t, ext[id], len(meas[id]), "frame %d %s", i, id)
			assert.LessOrEqual(t, len(meas[id]), cfg.MaxHistory)

			require.Contains(t, res.Predictions, id)
			assert.True(t, res.Predictions[id].Valid(), "predictions are never missing")
		}
		assert.False(t, res.Measurements[trajectory.PointHead].Valid())
	}
}

func TestSession_EventClearsAllHistories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Points = append([]string(nil), trajectory.DefaultPoints...)
	s := newTestSession(t, cfg)

	ys := testutil.Bounce(200, 20, 0.8, 0.5)
	var fired []int
	for i, y := range ys {
		frame := trajectory.Frame{}
		for j, id := range cfg.Points {
			frame[id] = trajectory.NewObservation(0.1*float64(j+1), 0.9, 0.04, 0.04)
		}
		frame[trajectory.PointBall] = trajectory.NewObservation(0.5, y, 0.04, 0.04)

		res := s.Step(frame)
		if !res.Fired {
			continue
		}
		fired = append(fired, i)
		meas, pred, ext := s.Measurements(), s.Predictions(), s.Extrapolations()
		for _, id := range cfg.Points {
			assert.Empty(t, meas[id], "frame %d measurements %s", i, id)
			assert.Empty(t, pred[id], "frame %d predictions %s", i, id)
			assert.Empty(t, ext[id], "frame %d extrapolations %s", i, id)
		}
	}

	assert.Equal(t, []int{21, 41, 61, 81, 101, 121, 141, 161, 181}, fired)
	assert.Equal(t, 9, s.Count())
}

func TestSession_FrameResultLatestValues(t *testing.T) {
	s := newTestSession(t, DefaultConfig())

	s.Step(trajectory.Frame{trajectory.PointBall: trajectory.NewObservation(0.2, 0.3, 0.05, 0.06)})
	res := s.Step(trajectory.Frame{})

	assert.Equal(t, 1, res.Index)
	assert.Equal(t, testStart.Add(time.Second/30), res.Timestamp)
	assert.False(t, res.Measurements[trajectory.PointBall].Valid())

	ext := res.Extrapolated[trajectory.PointBall]
	assert.False(t, ext.Valid(), "one prior sample is too few to extrapolate")

	pred := res.Predictions[trajectory.PointBall]
	x, _ := pred.X.Get()
	assert.InDelta(t, 0.2, x, 1e-9)
	assert.Equal(t, 0.05, pred.Width)
}

func TestSession_ExtrapolationDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtrapolationEnabled = false
	s := newTestSession(t, cfg)

	res := s.Step(trajectory.Frame{trajectory.PointBall: trajectory.NewObservation(0.5, 0.5, 0, 0)})
	assert.Nil(t, res.Extrapolated)
	assert.Nil(t, s.Extrapolations())
}

func TestSession_ResetFiltersOnEvent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResetFiltersOnEvent = true
	s := newTestSession(t, cfg)

	frames := ballFrames(testutil.Bounce(22, 20, 0.8, 0.5))
	run(s, frames)
	require.Equal(t, 1, s.Count())

	kf := s.Filter(trajectory.PointBall, trajectory.AxisY)
	require.NotNil(t, kf)
	assert.False(t, kf.Initialised())
}

func TestSession_Reset(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	run(s, ballFrames(testutil.Bounce(30, 20, 0.8, 0.5)))
	require.Equal(t, 1, s.Count())

	s.Reset()

	assert.Zero(t, s.Count())
	assert.Zero(t, s.Frames())
	assert.Empty(t, s.Measurements()[trajectory.PointBall])
	assert.Nil(t, s.Filter(trajectory.PointBall, trajectory.AxisY))
	assert.Equal(t, "test-session", s.ID)
	assert.Equal(t, testStart, s.StartedAt)
}

func TestSession_IndependentInstances(t *testing.T) {
	a := newTestSession(t, DefaultConfig())
	b := newTestSession(t, DefaultConfig())

	run(a, ballFrames(testutil.Bounce(30, 20, 0.8, 0.5)))

	assert.Equal(t, 1, a.Count())
	assert.Zero(t, b.Count())
	assert.Zero(t, b.Frames())
}

func TestNew_GeneratesID(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)
	assert.False(t, s.StartedAt.IsZero())
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no points", func(c *Config) { c.Points = nil }},
		{"empty point id", func(c *Config) { c.Points = []string{""} }},
		{"duplicate point", func(c *Config) { c.Points = []string{"Ball", "Ball"} }},
		{"zero history", func(c *Config) { c.MaxHistory = 0 }},
		{"negative frame rate", func(c *Config) { c.FrameRate = -1 }},
		{"negative process variance", func(c *Config) { c.ProcessVariance = -0.1 }},
		{"zero measurement variance", func(c *Config) { c.MeasurementVariance = 0 }},
		{"too few extrapolation samples", func(c *Config) { c.ExtrapolationMinSamples = 2 }},
		{"window below min samples", func(c *Config) { c.ExtrapolationWindow = 2 }},
		{"untracked counter point", func(c *Config) { c.Counter.Point = trajectory.PointHead }},
		{"bad axis", func(c *Config) { c.Counter.Axis = trajectory.Axis(7) }},
		{"bad mode", func(c *Config) { c.Counter.Mode = "sometimes" }},
		{"bad reset scope", func(c *Config) { c.Counter.ResetScope = "" }},
		{"tiny min window", func(c *Config) { c.Counter.MinWindow = 1 }},
		{"negative prominence", func(c *Config) { c.Counter.MinProminence = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestConfigFromTuning_Defaults(t *testing.T) {
	got, err := ConfigFromTuning(config.DefaultTuningConfig())
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("ConfigFromTuning(defaults) mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigFromTuning_Overrides(t *testing.T) {
	mode, axis, scope := "single", "x", "point"
	negate, reset := false, true
	prom := 0.02
	tc := config.EmptyTuningConfig()
	tc.TrackedPoints = []string{trajectory.PointLeftWrist, trajectory.PointHead}
	tc.CounterPoint = &[]string{trajectory.PointLeftWrist}[0]
	tc.CounterMode = &mode
	tc.CounterAxis = &axis
	tc.CounterNegate = &negate
	tc.ResetScope = &scope
	tc.ResetFiltersOnEvent = &reset
	tc.PeakProminence = &prom

	got, err := ConfigFromTuning(tc)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	want := events.CounterConfig{
		Point:         trajectory.PointLeftWrist,
		Axis:          trajectory.AxisX,
		Negate:        false,
		Mode:          events.ModeSingle,
		MinWindow:     events.DefaultMinWindow,
		MinProminence: 0.02,
		ResetScope:    events.ResetPoint,
	}
	if diff := cmp.Diff(want, got.Counter); diff != "" {
		t.Errorf("counter config mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.ResetFiltersOnEvent)
	assert.Equal(t, []string{trajectory.PointLeftWrist, trajectory.PointHead}, got.Points)
}

func TestConfigFromTuning_BadEnum(t *testing.T) {
	mode := "bogus"
	tc := config.EmptyTuningConfig()
	tc.CounterMode = &mode

	_, err := ConfigFromTuning(tc)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

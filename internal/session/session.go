// Package session wires the trajectory and event packages into one
// explicit per-run object. Nothing here is global: a new Session is built
// for every run and owns its filter bank, histories and count.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/juggle.report/internal/events"
	"github.com/banshee-data/juggle.report/internal/monitoring"
	"github.com/banshee-data/juggle.report/internal/timeutil"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

// FrameResult is the per-frame output: the newest entry of every history
// plus the cumulative count. Latest values are captured before any
// event-triggered history reset.
type FrameResult struct {
	Index        int
	Timestamp    time.Time
	Measurements map[string]trajectory.Observation
	Predictions  map[string]trajectory.Observation
	Extrapolated map[string]trajectory.Observation // nil when extrapolation is disabled
	Count        int
	Fired        bool
	CounterPoint string
}

// Session is one continuous tracking run.
type Session struct {
	ID        string
	Config    Config
	StartedAt time.Time

	mu sync.RWMutex

	buffer       *trajectory.MeasurementBuffer
	predictor    *trajectory.Predictor
	extrapolator *trajectory.Extrapolator
	extrapolated *trajectory.Histories
	counter      *events.Counter
	frames       timeutil.FrameClock
	frameIndex   int
}

// Option customises a Session at construction.
type Option func(*Session)

// WithClock sets the clock used for StartedAt and frame timestamps.
func WithClock(clock timeutil.Clock) Option {
	return func(s *Session) {
		s.StartedAt = clock.Now()
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		s.ID = id
	}
}

// New validates cfg and builds a session.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Points = append([]string(nil), cfg.Points...)

	s := &Session{
		ID:     uuid.New().String(),
		Config: cfg,
	}
	s.StartedAt = timeutil.RealClock{}.Now()
	for _, opt := range opts {
		opt(s)
	}
	s.frames = timeutil.FrameClock{Start: s.StartedAt, Rate: cfg.FrameRate}
	s.build()

	monitoring.Logf("[session] %s started: points=%v max_history=%d mode=%s counter=%s/%s",
		s.ID, cfg.Points, cfg.MaxHistory, cfg.Counter.Mode, cfg.Counter.Point, cfg.Counter.Axis)
	return s, nil
}

func (s *Session) build() {
	cfg := s.Config
	s.buffer = trajectory.NewMeasurementBuffer(cfg.MaxHistory, cfg.Points)
	s.predictor = trajectory.NewPredictor(cfg.MaxHistory, cfg.Points, cfg.ProcessVariance, cfg.MeasurementVariance)
	s.extrapolator = nil
	s.extrapolated = nil
	if cfg.ExtrapolationEnabled {
		s.extrapolator = &trajectory.Extrapolator{
			Window:     cfg.ExtrapolationWindow,
			MinSamples: cfg.ExtrapolationMinSamples,
		}
		s.extrapolated = trajectory.NewHistories(cfg.MaxHistory, cfg.Points)
	}
	s.counter = events.NewCounter(cfg.Counter)
	s.frameIndex = 0
}

// Step processes one frame. It never fails: missing detections, short
// histories and degenerate fits are all encoded in the returned data.
func (s *Session) Step(frame trajectory.Frame) FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	meas := s.buffer.History()
	s.buffer.Ingest(frame)
	s.predictor.Step(meas)
	if s.extrapolator != nil {
		s.extrapolator.PredictFrame(meas, s.extrapolated)
	}

	res := FrameResult{
		Index:        s.frameIndex,
		Timestamp:    s.frames.Timestamp(s.frameIndex),
		Measurements: latest(meas),
		Predictions:  latest(s.predictor.History()),
		CounterPoint: s.Config.Counter.Point,
	}
	if s.extrapolated != nil {
		res.Extrapolated = latest(s.extrapolated)
	}

	res.Count, res.Fired = s.counter.Update(s.predictor.History(), meas, s.extrapolated)
	if res.Fired {
		monitoring.Logf("[session] %s frame %d: event %d on %s", s.ID, s.frameIndex, res.Count, s.Config.Counter.Point)
		if s.Config.ResetFiltersOnEvent {
			if s.Config.Counter.ResetScope == events.ResetPoint {
				s.predictor.ResetFilters(s.Config.Counter.Point)
			} else {
				s.predictor.ResetFilters()
			}
		}
	}

	s.frameIndex++
	return res
}

// Reset restarts the session in place: empty histories, fresh filters and
// a zero count. The id and start time are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.build()
}

// Count returns the cumulative event count.
func (s *Session) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter.Count()
}

// Frames returns the number of frames processed.
func (s *Session) Frames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameIndex
}

// Points returns the tracked point ids.
func (s *Session) Points() []string {
	return append([]string(nil), s.Config.Points...)
}

// Measurements returns a copy of the measurement histories.
func (s *Session) Measurements() map[string][]trajectory.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.History().Snapshot()
}

// Predictions returns a copy of the Kalman prediction histories.
func (s *Session) Predictions() map[string][]trajectory.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.predictor.History().Snapshot()
}

// Extrapolations returns a copy of the extrapolated histories, or nil when
// extrapolation is disabled.
func (s *Session) Extrapolations() map[string][]trajectory.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.extrapolated == nil {
		return nil
	}
	return s.extrapolated.Snapshot()
}

// Filter exposes the filter for (point, axis), or nil before the point
// has been processed.
func (s *Session) Filter(id string, axis trajectory.Axis) *trajectory.ScalarKalman {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.predictor.Filter(id, axis)
}

func latest(h *trajectory.Histories) map[string]trajectory.Observation {
	out := make(map[string]trajectory.Observation)
	for _, id := range h.Points() {
		if obs, ok := h.Latest(id); ok {
			out[id] = obs
		}
	}
	return out
}

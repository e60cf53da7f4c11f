// Package report renders offline trajectory charts for a finished run:
// one PNG per tracked point (gonum/plot) and one HTML page with
// interactive charts for every point (go-echarts).
package report

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/juggle.report/internal/session"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

// Sample is the recorded state of one point in one frame.
type Sample struct {
	Frame        int
	Measurement  trajectory.Observation
	Prediction   trajectory.Observation
	Extrapolated trajectory.Observation
}

// Event is one counted cycle.
type Event struct {
	Frame int
	Count int
}

// Recorder accumulates the full run from per-frame results. Session
// histories are bounded and cleared on events; the recorder keeps
// everything so the report covers the whole run.
type Recorder struct {
	Title string
	Axis  trajectory.Axis // axis drawn in the PNG reports

	mu      sync.Mutex
	samples map[string][]Sample
	events  []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder(title string, axis trajectory.Axis) *Recorder {
	return &Recorder{
		Title:   title,
		Axis:    axis,
		samples: make(map[string][]Sample),
	}
}

// Record appends one frame result.
func (r *Recorder) Record(res session.FrameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, meas := range res.Measurements {
		s := Sample{
			Frame:        res.Index,
			Measurement:  meas,
			Prediction:   res.Predictions[id],
			Extrapolated: res.Extrapolated[id],
		}
		r.samples[id] = append(r.samples[id], s)
	}
	if res.Fired {
		r.events = append(r.events, Event{Frame: res.Index, Count: res.Count})
	}
}

// Points returns the recorded point ids in sorted order.
func (r *Recorder) Points() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.samples))
	for id := range r.samples {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Samples returns a copy of one point's samples.
func (r *Recorder) Samples(id string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples[id]...)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Frames returns the number of frames recorded for the longest point.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.samples {
		if len(s) > n {
			n = len(s)
		}
	}
	return n
}

// Range returns the min and max of every present measured and predicted
// value on one axis of a point. ok is false when there are none.
func (r *Recorder) Range(id string, axis trajectory.Axis) (lo, hi float64, ok bool) {
	var vals []float64
	for _, s := range r.Samples(id) {
		for _, obs := range []trajectory.Observation{s.Measurement, s.Prediction} {
			if v, present := obs.Coord(axis).Get(); present {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

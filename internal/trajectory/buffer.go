package trajectory

import (
	"github.com/banshee-data/juggle.report/internal/monitoring"
)

// MeasurementBuffer records exactly one raw observation per tracked point
// per frame so every point's history stays frame-aligned.
type MeasurementBuffer struct {
	points  []string
	history *Histories

	// ids seen in input but not tracked, logged once each
	ignored map[string]struct{}
}

// NewMeasurementBuffer creates a buffer for a fixed set of points.
func NewMeasurementBuffer(maxLen int, points []string) *MeasurementBuffer {
	return &MeasurementBuffer{
		points:  append([]string(nil), points...),
		history: NewHistories(maxLen, points),
		ignored: make(map[string]struct{}),
	}
}

// Ingest appends one frame. Points absent from the frame get the missing
// marker; points not tracked by the buffer are dropped.
func (b *MeasurementBuffer) Ingest(frame Frame) {
	for _, id := range b.points {
		obs, ok := frame[id]
		if !ok {
			obs = MissingObservation()
		}
		b.history.Append(id, normalise(obs))
	}
	for id := range frame {
		if b.history.Has(id) {
			continue
		}
		if _, seen := b.ignored[id]; !seen {
			b.ignored[id] = struct{}{}
			monitoring.Logf("[trajectory] ignoring untracked point %q", id)
		}
	}
	b.history.Trim()
}

// History exposes the measurement histories.
func (b *MeasurementBuffer) History() *Histories { return b.history }

// Points returns the tracked point ids in construction order.
func (b *MeasurementBuffer) Points() []string {
	return append([]string(nil), b.points...)
}

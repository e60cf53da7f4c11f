package trajectory

import "sort"

// DefaultMaxHistoryLength is the default rolling window in frames.
const DefaultMaxHistoryLength = 100

// Histories holds one bounded, insertion-ordered observation sequence per
// point. Appending never trims; callers trim explicitly once per frame.
type Histories struct {
	maxLen int
	series map[string][]Observation
}

// NewHistories creates an empty set with the given bound and an empty
// sequence for every listed point.
func NewHistories(maxLen int, points []string) *Histories {
	h := &Histories{
		maxLen: maxLen,
		series: make(map[string][]Observation, len(points)),
	}
	for _, id := range points {
		h.series[id] = nil
	}
	return h
}

// MaxLen returns the configured bound.
func (h *Histories) MaxLen() int { return h.maxLen }

// Append adds one observation to the end of a point's sequence.
func (h *Histories) Append(id string, obs Observation) {
	h.series[id] = append(h.series[id], obs)
}

// Trim evicts the oldest entries so no sequence exceeds MaxLen.
func (h *Histories) Trim() {
	for id, s := range h.series {
		if over := len(s) - h.maxLen; over > 0 {
			// Copy down so the backing array does not grow without bound.
			n := copy(s, s[over:])
			h.series[id] = s[:n]
		}
	}
}

// Len returns the number of entries held for a point.
func (h *Histories) Len(id string) int { return len(h.series[id]) }

// Has reports whether the point is tracked by this set.
func (h *Histories) Has(id string) bool {
	_, ok := h.series[id]
	return ok
}

// Latest returns the newest entry for a point.
func (h *Histories) Latest(id string) (Observation, bool) {
	s := h.series[id]
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// LastValid returns the newest entry with a present position.
func (h *Histories) LastValid(id string) (Observation, bool) {
	s := h.series[id]
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid() {
			return s[i], true
		}
	}
	return Observation{}, false
}

// Series returns a copy of one axis of a point's sequence.
func (h *Histories) Series(id string, axis Axis) []Coord {
	s := h.series[id]
	out := make([]Coord, len(s))
	for i, obs := range s {
		out[i] = obs.Coord(axis)
	}
	return out
}

// Values returns one axis of a point's sequence as plain floats. ok is
// false if any entry is missing, in which case values is nil.
func (h *Histories) Values(id string, axis Axis) (values []float64, ok bool) {
	s := h.series[id]
	values = make([]float64, len(s))
	for i, obs := range s {
		v, valid := obs.Coord(axis).Get()
		if !valid {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// Observations returns a copy of a point's sequence.
func (h *Histories) Observations(id string) []Observation {
	return append([]Observation(nil), h.series[id]...)
}

// Points returns the tracked point ids in sorted order.
func (h *Histories) Points() []string {
	ids := make([]string, 0, len(h.series))
	for id := range h.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset empties the sequences of the given points, or of every point when
// none are given. Points stay tracked.
func (h *Histories) Reset(ids ...string) {
	if len(ids) == 0 {
		for id := range h.series {
			h.series[id] = nil
		}
		return
	}
	for _, id := range ids {
		if _, ok := h.series[id]; ok {
			h.series[id] = nil
		}
	}
}

// Snapshot returns a deep copy keyed by point id.
func (h *Histories) Snapshot() map[string][]Observation {
	out := make(map[string][]Observation, len(h.series))
	for id, s := range h.series {
		out[id] = append([]Observation(nil), s...)
	}
	return out
}

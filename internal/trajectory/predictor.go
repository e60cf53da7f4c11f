package trajectory

// filterKey identifies one scalar filter in the bank.
type filterKey struct {
	point string
	axis  Axis
}

type boxSize struct {
	width, height float64
}

// Predictor runs an independent ScalarKalman per (point, axis) against
// the measurement histories and emits exactly one prediction per point per
// frame. Axes are decoupled: each filter is one-dimensional.
type Predictor struct {
	ProcessVariance     float64
	MeasurementVariance float64

	filters  map[filterKey]*ScalarKalman
	lastSize map[string]boxSize
	history  *Histories
}

// NewPredictor creates a predictor whose PredictionHistory tracks the
// given points with the given bound.
func NewPredictor(maxLen int, points []string, processVariance, measurementVariance float64) *Predictor {
	return &Predictor{
		ProcessVariance:     processVariance,
		MeasurementVariance: measurementVariance,
		filters:             make(map[filterKey]*ScalarKalman),
		lastSize:            make(map[string]boxSize),
		history:             NewHistories(maxLen, points),
	}
}

// Step consumes the latest measurement of every point and appends one
// prediction per point. A point whose latest value is missing coasts
// on its motion model.
func (p *Predictor) Step(meas *Histories) {
	for _, id := range meas.Points() {
		latest, _ := meas.Latest(id)

		var est Observation
		for _, axis := range Axes {
			kf := p.filter(id, axis)
			if z, ok := latest.Coord(axis).Get(); ok {
				kf.Update(z)
			}
			pred := Some(kf.Predict())
			if axis == AxisX {
				est.X = pred
			} else {
				est.Y = pred
			}
		}

		if latest.Valid() {
			p.lastSize[id] = boxSize{width: latest.Width, height: latest.Height}
		}
		size := p.lastSize[id]
		est.Width, est.Height = size.width, size.height

		p.history.Append(id, est)
	}
	p.history.Trim()
}

// filter returns the filter for (point, axis), creating it on first use.
func (p *Predictor) filter(id string, axis Axis) *ScalarKalman {
	key := filterKey{point: id, axis: axis}
	kf, ok := p.filters[key]
	if !ok {
		kf = NewScalarKalman(p.ProcessVariance, p.MeasurementVariance)
		p.filters[key] = kf
	}
	return kf
}

// Filter returns the filter for (point, axis), or nil if none exists yet.
func (p *Predictor) Filter(id string, axis Axis) *ScalarKalman {
	return p.filters[filterKey{point: id, axis: axis}]
}

// ResetFilters returns the filters of the given points (all points when
// none are given) to their uninitialised state.
func (p *Predictor) ResetFilters(ids ...string) {
	if len(ids) == 0 {
		for _, kf := range p.filters {
			kf.Reset()
		}
		p.lastSize = make(map[string]boxSize)
		return
	}
	for _, id := range ids {
		for _, axis := range Axes {
			if kf := p.filters[filterKey{point: id, axis: axis}]; kf != nil {
				kf.Reset()
			}
		}
		delete(p.lastSize, id)
	}
}

// History exposes the prediction histories.
func (p *Predictor) History() *Histories { return p.history }

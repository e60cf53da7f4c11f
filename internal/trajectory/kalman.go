package trajectory

// Default noise parameters for the scalar filter.
const (
	DefaultProcessVariance     = 0.01
	DefaultMeasurementVariance = 0.1
)

// ScalarKalman is a constant-velocity Kalman filter over one coordinate.
// One frame is one unit time step.
type ScalarKalman struct {
	// State [position, velocity]
	pos float64
	vel float64

	// Covariance (2x2, row-major)
	P [4]float64

	processVariance     float64 // Q = q * I
	measurementVariance float64 // R, must be > 0

	initialised bool
}

// NewScalarKalman creates a filter with zero state and identity covariance.
// measurementVariance must be strictly positive; config validation
// guarantees this for session-built filters.
func NewScalarKalman(processVariance, measurementVariance float64) *ScalarKalman {
	kf := &ScalarKalman{
		processVariance:     processVariance,
		measurementVariance: measurementVariance,
	}
	kf.Reset()
	return kf
}

// Reset returns the filter to its uninitialised zero state.
func (kf *ScalarKalman) Reset() {
	kf.pos = 0
	kf.vel = 0
	kf.P = [4]float64{1, 0, 0, 1}
	kf.initialised = false
}

// Predict advances the state one frame and returns the predicted position.
func (kf *ScalarKalman) Predict() float64 {
	// F = [1 1]
	//     [0 1]
	kf.pos += kf.vel

	// P' = F * P * F^T + Q, expanded for the 2x2 case
	p00, p01, p10, p11 := kf.P[0], kf.P[1], kf.P[2], kf.P[3]
	kf.P[0] = p00 + p01 + p10 + p11 + kf.processVariance
	kf.P[1] = p01 + p11
	kf.P[2] = p10 + p11
	kf.P[3] = p11 + kf.processVariance

	return kf.pos
}

// Update corrects the state with a position measurement. The first
// measurement seeds position directly with zero velocity so the filter
// does not make a large correction from its zero prior.
func (kf *ScalarKalman) Update(z float64) {
	if !kf.initialised {
		kf.pos = z
		kf.vel = 0
		kf.initialised = true
	}

	// H = [1 0]
	y := z - kf.pos
	s := kf.P[0] + kf.measurementVariance
	if s <= 0 {
		return
	}
	k0 := kf.P[0] / s
	k1 := kf.P[2] / s

	kf.pos += k0 * y
	kf.vel += k1 * y

	// P = (I - K*H) * P
	p00, p01, p10, p11 := kf.P[0], kf.P[1], kf.P[2], kf.P[3]
	kf.P[0] = (1 - k0) * p00
	kf.P[1] = (1 - k0) * p01
	kf.P[2] = p10 - k1*p00
	kf.P[3] = p11 - k1*p01
}

// Initialised reports whether the filter has seen a measurement.
func (kf *ScalarKalman) Initialised() bool { return kf.initialised }

// Position returns the current position estimate.
func (kf *ScalarKalman) Position() float64 { return kf.pos }

// Velocity returns the current velocity estimate (units per frame).
func (kf *ScalarKalman) Velocity() float64 { return kf.vel }

// Covariance returns a copy of the error covariance, row-major.
func (kf *ScalarKalman) Covariance() [4]float64 { return kf.P }

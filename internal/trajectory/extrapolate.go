package trajectory

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Extrapolation defaults.
const (
	DefaultExtrapolationWindow     = 5
	DefaultExtrapolationMinSamples = 3

	quadraticTerms = 3
)

// ErrDegenerateFit is returned when a polynomial cannot be fitted.
var ErrDegenerateFit = errors.New("degenerate polynomial fit")

// Polynomial holds quadratic coefficients, lowest order first:
// p(t) = C[0] + C[1]*t + C[2]*t².
type Polynomial struct {
	C [quadraticTerms]float64
}

// Eval evaluates the polynomial at t.
func (p Polynomial) Eval(t float64) float64 {
	return p.C[0] + t*(p.C[1]+t*p.C[2])
}

// FitQuadratic least-squares fits a degree-2 polynomial to ys sampled at
// t = 0, 1, ..., len(ys)-1.
func FitQuadratic(ys []float64) (Polynomial, error) {
	n := len(ys)
	if n < quadraticTerms {
		return Polynomial{}, fmt.Errorf("%w: need %d samples, got %d", ErrDegenerateFit, quadraticTerms, n)
	}

	// Vandermonde design matrix, columns [1, t, t²]
	a := mat.NewDense(n, quadraticTerms, nil)
	for i := 0; i < n; i++ {
		t := float64(i)
		a.Set(i, 0, 1)
		a.Set(i, 1, t)
		a.Set(i, 2, t*t)
	}
	b := mat.NewVecDense(n, append([]float64(nil), ys...))

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(a, b); err != nil {
		return Polynomial{}, fmt.Errorf("%w: %v", ErrDegenerateFit, err)
	}

	var p Polynomial
	for i := range p.C {
		c := coeffs.AtVec(i)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Polynomial{}, fmt.Errorf("%w: non-finite coefficient", ErrDegenerateFit)
		}
		p.C[i] = c
	}
	return p, nil
}

// Extrapolator fills gaps on one axis with a quadratic fit over recent
// valid samples. It diverges quickly beyond ~5 consecutive missing frames.
type Extrapolator struct {
	Window     int // most recent valid samples used for the fit
	MinSamples int // valid samples required before fitting
}

// NewExtrapolator returns an extrapolator with the default window.
func NewExtrapolator() *Extrapolator {
	return &Extrapolator{
		Window:     DefaultExtrapolationWindow,
		MinSamples: DefaultExtrapolationMinSamples,
	}
}

// Extrapolate returns the latest sample when present, otherwise the fitted
// value one step beyond the recent valid samples. Insufficient or
// degenerate input yields a missing Coord.
func (e *Extrapolator) Extrapolate(series []Coord) Coord {
	if len(series) == 0 {
		return Missing()
	}
	if latest := series[len(series)-1]; latest.Valid() {
		return latest
	}

	valid := make([]float64, 0, len(series))
	for _, c := range series {
		if v, ok := c.Get(); ok {
			valid = append(valid, v)
		}
	}
	if len(valid) < e.MinSamples {
		return Missing()
	}
	if e.Window > 0 && len(valid) > e.Window {
		valid = valid[len(valid)-e.Window:]
	}

	poly, err := FitQuadratic(valid)
	if err != nil {
		return Missing()
	}
	return Some(poly.Eval(float64(len(valid))))
}

// PredictFrame extrapolates the latest frame of every point in meas and
// appends the result to out, then trims out. Width and height carry the
// last observed bounding-box size.
func (e *Extrapolator) PredictFrame(meas, out *Histories) {
	for _, id := range meas.Points() {
		est := Observation{
			X: e.Extrapolate(meas.Series(id, AxisX)),
			Y: e.Extrapolate(meas.Series(id, AxisY)),
		}
		if last, ok := meas.LastValid(id); ok {
			est.Width, est.Height = last.Width, last.Height
		}
		out.Append(id, normalise(est))
	}
	out.Trim()
}

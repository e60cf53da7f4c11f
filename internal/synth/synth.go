// Package synth generates synthetic trajectories: parabolic bounces,
// ramps, seeded noise and missed detections. Values are plain coordinate
// slices; NaN marks a missed detection.
package synth

import (
	"math"
	"math/rand"
)

// Bounce returns n samples of a repeated parabolic arc in image
// coordinates: the value starts at floor, rises (decreases) by depth at
// mid-period and returns to floor every period frames.
func Bounce(n, period int, floor, depth float64) []float64 {
	out := make([]float64, n)
	T := float64(period)
	for i := range out {
		p := float64(i % period)
		out[i] = floor - depth*4*p*(T-p)/(T*T)
	}
	return out
}

// Ramp returns n samples of start + slope*i.
func Ramp(n int, start, slope float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + slope*float64(i)
	}
	return out
}

// Noisy returns a copy of ys with Gaussian noise of the given standard
// deviation, reproducible for a given seed.
func Noisy(ys []float64, sigma float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(ys))
	for i, y := range ys {
		out[i] = y + rng.NormFloat64()*sigma
	}
	return out
}

// WithGaps returns a copy of ys with every nth sample replaced by NaN,
// starting at index offset. NaN marks a missed detection.
func WithGaps(ys []float64, every, offset int) []float64 {
	out := append([]float64(nil), ys...)
	if every <= 0 {
		return out
	}
	for i := offset; i < len(out); i += every {
		out[i] = math.NaN()
	}
	return out
}

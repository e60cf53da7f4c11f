package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBounce(t *testing.T) {
	ys := Bounce(41, 20, 0.8, 0.5)

	assert.InDelta(t, 0.8, ys[0], 1e-12)
	assert.InDelta(t, 0.3, ys[10], 1e-12)
	assert.InDelta(t, 0.8, ys[20], 1e-12)
	assert.InDelta(t, 0.3, ys[30], 1e-12)
	for _, y := range ys {
		assert.GreaterOrEqual(t, y, 0.3-1e-12)
		assert.LessOrEqual(t, y, 0.8+1e-12)
	}
}

func TestRamp(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2, 2.5}, Ramp(4, 1, 0.5))
}

func TestNoisy_Reproducible(t *testing.T) {
	base := Ramp(50, 0, 0.01)
	a := Noisy(base, 0.01, 7)
	b := Noisy(base, 0.01, 7)
	assert.Equal(t, a, b)
	assert.NotEqual(t, base, a)
	assert.Equal(t, Ramp(50, 0, 0.01), base, "input must not be modified")
}

func TestWithGaps(t *testing.T) {
	ys := WithGaps(Ramp(10, 0, 1), 3, 1)
	for i, y := range ys {
		if i%3 == 1 {
			assert.True(t, math.IsNaN(y), "index %d", i)
		} else {
			assert.Equal(t, float64(i), y)
		}
	}
	assert.Equal(t, Ramp(3, 0, 1), WithGaps(Ramp(3, 0, 1), 0, 0))
}

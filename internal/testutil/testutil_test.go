package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/juggle.report/internal/synth"
)

func TestAssertNoError_NilErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertNoError(fakeT, nil)
	assert.False(t, fakeT.Failed())
}

func TestAssertError_WithErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertError(fakeT, errors.New("something wrong"))
	assert.False(t, fakeT.Failed())
}

func TestGeneratorsReexported(t *testing.T) {
	assert.Equal(t, synth.Ramp(4, 1, 0.5), Ramp(4, 1, 0.5))
	assert.Equal(t, synth.Bounce(30, 20, 0.8, 0.5), Bounce(30, 20, 0.8, 0.5))
}

// Package testutil provides shared test utilities and re-exports the
// synthetic trajectory generators for tests.
package testutil

import (
	"testing"

	"github.com/banshee-data/juggle.report/internal/synth"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Generators from internal/synth.
var (
	Bounce   = synth.Bounce
	Ramp     = synth.Ramp
	Noisy    = synth.Noisy
	WithGaps = synth.WithGaps
)

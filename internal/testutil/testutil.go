// Package testutil provides shared test helpers for spectra and
// spectrum files.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/spectro/internal/spectrum"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SpectraNear reports the first index where got and want differ by more
// than tol, or -1 when they match. A length difference reports the shorter
// length.
func SpectraNear(got, want []float64, tol float64) int {
	n := len(got)
	if len(want) < n {
		n = len(want)
	}
	for i := 0; i < n; i++ {
		if math.Abs(got[i]-want[i]) > tol || math.IsNaN(got[i]) != math.IsNaN(want[i]) {
			return i
		}
	}
	if len(got) != len(want) {
		return n
	}
	return -1
}

// AssertSpectrumNear fails the test unless got matches want element-wise
// within tol.
func AssertSpectrumNear(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	i := SpectraNear(got, want, tol)
	if i < 0 {
		return
	}
	if len(got) != len(want) {
		t.Fatalf("spectrum length = %d, want %d", len(got), len(want))
	}
	t.Fatalf("pixel %d = %g, want %g (tol %g)", i, got[i], want[i], tol)
}

// WriteSpectrumFile writes s to dir/name in the saved-spectrum text format
// and returns the path.
func WriteSpectrumFile(t testing.TB, dir, name string, s []float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	AssertNoError(t, err)
	defer f.Close()
	AssertNoError(t, spectrum.Write(f, s))
	return path
}

// Package spectrum holds the per-pixel intensity series produced by a capture
// and the pixel-wise arithmetic applied to it by the capture pipeline.
package spectrum

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrLengthMismatch is returned when two spectra of different lengths are
	// combined pixel-wise.
	ErrLengthMismatch = errors.New("spectrum length mismatch")
	// ErrEmpty is returned when an operation needs at least one frame.
	ErrEmpty = errors.New("no frames")
)

// Spectrum is an ordered series of intensity readings, one per detector pixel.
// It is always interpreted against the wavelength table of the session that
// produced it.
type Spectrum []float64

// DiscardFirst drops channel 0 of a raw device reading. That channel is known
// to be defective on the supported detectors, so every downstream spectrum has
// one fewer pixel than the device reports.
func DiscardFirst(raw []float64) Spectrum {
	if len(raw) <= 1 {
		return Spectrum{}
	}
	out := make(Spectrum, len(raw)-1)
	copy(out, raw[1:])
	return out
}

// Clone returns a copy of s.
func (s Spectrum) Clone() Spectrum {
	if s == nil {
		return nil
	}
	out := make(Spectrum, len(s))
	copy(out, s)
	return out
}

// Mean averages frames pixel by pixel. A single frame is returned as a copy.
func Mean(frames []Spectrum) (Spectrum, error) {
	if len(frames) == 0 {
		return nil, ErrEmpty
	}
	n := len(frames[0])
	sum := make(Spectrum, n)
	for i, f := range frames {
		if len(f) != n {
			return nil, fmt.Errorf("frame %d has %d pixels, want %d: %w", i, len(f), n, ErrLengthMismatch)
		}
		floats.Add(sum, f)
	}
	if len(frames) > 1 {
		floats.Scale(1/float64(len(frames)), sum)
	}
	return sum, nil
}

// Subtract returns a - b.
func Subtract(a, b Spectrum) (Spectrum, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("subtract %d from %d pixels: %w", len(b), len(a), ErrLengthMismatch)
	}
	out := make(Spectrum, len(a))
	floats.SubTo(out, a, b)
	return out, nil
}

// Divide returns a / b. Wherever b is exactly zero the quotient is zero,
// whatever the numerator.
func Divide(a, b Spectrum) (Spectrum, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("divide %d by %d pixels: %w", len(a), len(b), ErrLengthMismatch)
	}
	out := make(Spectrum, len(a))
	for i := range a {
		if b[i] == 0 {
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out, nil
}

package smoothing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/spectro/internal/spectrum"
)

// Boxcar is a moving average over Radius pixels either side of each point.
// The window is clamped at the ends of the spectrum, so edge pixels average
// fewer samples instead of reading padded or mirrored values.
type Boxcar struct {
	Radius int
}

// NewBoxcar returns a Boxcar filter. radius must not be negative; zero is
// the identity.
func NewBoxcar(radius int) (Boxcar, error) {
	b := Boxcar{Radius: radius}
	if err := b.Validate(); err != nil {
		return Boxcar{}, err
	}
	return b, nil
}

// Validate rejects a negative radius.
func (b Boxcar) Validate() error {
	if b.Radius < 0 {
		return fmt.Errorf("boxcar radius must be >= 0, got %d: %w", b.Radius, ErrInvalidParam)
	}
	return nil
}

// Smooth applies the filter. wavelengths is not used.
func (b Boxcar) Smooth(y spectrum.Spectrum, _ []float64) (spectrum.Spectrum, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	n := len(y)
	// any radius past n already covers the whole spectrum
	r := min(b.Radius, n)
	out := make(spectrum.Spectrum, n)
	for i := range y {
		lo := max(i-r, 0)
		hi := min(i+r, n-1)
		window := y[lo : hi+1]
		out[i] = floats.Sum(window) / float64(len(window))
	}
	return out, nil
}

func (b Boxcar) String() string { return fmt.Sprintf("%s(radius=%d)", NameBoxcar, b.Radius) }

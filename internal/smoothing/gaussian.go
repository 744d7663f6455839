package smoothing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/spectro/internal/spectrum"
)

// Gaussian replaces each point with the average of the whole spectrum
// weighted by exp(-½((x0-x)/Tau)²), where x0 is the point's wavelength.
// The kernel spans the full domain rather than a window, so the cost is
// quadratic in the pixel count. Tau is in wavelength units.
type Gaussian struct {
	Tau float64
}

// NewGaussian returns a Gaussian filter. tau must be positive and finite.
func NewGaussian(tau float64) (Gaussian, error) {
	g := Gaussian{Tau: tau}
	if err := g.Validate(); err != nil {
		return Gaussian{}, err
	}
	return g, nil
}

// Validate rejects a tau that is not positive and finite.
func (g Gaussian) Validate() error {
	if !(g.Tau > 0) || math.IsInf(g.Tau, 0) {
		return fmt.Errorf("gaussian tau must be positive and finite, got %v: %w", g.Tau, ErrInvalidParam)
	}
	return nil
}

// Smooth applies the filter. wavelengths must be the same length as y.
func (g Gaussian) Smooth(y spectrum.Spectrum, wavelengths []float64) (spectrum.Spectrum, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(wavelengths) != len(y) {
		return nil, fmt.Errorf("gaussian needs one wavelength per pixel, got %d for %d: %w",
			len(wavelengths), len(y), spectrum.ErrLengthMismatch)
	}

	out := make(spectrum.Spectrum, len(y))
	weight := make([]float64, len(y))
	for i, x0 := range wavelengths {
		for j, x := range wavelengths {
			d := (x0 - x) / g.Tau
			weight[j] = math.Exp(-0.5 * d * d)
		}
		// weight[i] is exp(0) = 1, so the normaliser is never zero.
		out[i] = floats.Dot(y, weight) / floats.Sum(weight)
	}
	return out, nil
}

func (g Gaussian) String() string { return fmt.Sprintf("%s(tau=%g)", NameGaussian, g.Tau) }

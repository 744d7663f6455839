package capture

import (
	"fmt"

	"github.com/banshee-data/spectro/internal/smoothing"
	"github.com/banshee-data/spectro/internal/spectrum"
)

// DefaultCompareSmoother is the filter used for the comparison view when the
// caller does not choose one.
var DefaultCompareSmoother smoothing.Smoother = smoothing.Boxcar{Radius: 10}

// Comparison holds the three series shown side by side when checking a
// measurement against its standard.
type Comparison struct {
	Wavelengths spectrum.Spectrum
	Sample      spectrum.Spectrum
	Standard    spectrum.Spectrum
	// Ratio is Sample divided by Standard, zero where Standard is zero.
	Ratio spectrum.Spectrum
	// Smoothed is Ratio passed through Smoother.
	Smoothed spectrum.Spectrum
	Smoother string
}

// Compare builds the comparison view. y is expected to be dark-subtracted
// already. The standard is used as given: unlike Capture it is not
// dark-subtracted before dividing, which matches how existing comparison
// plots were produced.
func Compare(y, standard, wavelengths spectrum.Spectrum, s smoothing.Smoother) (Comparison, error) {
	if s == nil {
		s = DefaultCompareSmoother
	}
	if err := smoothing.Validate(s); err != nil {
		return Comparison{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if len(wavelengths) != len(y) {
		return Comparison{}, fmt.Errorf("%w: %d wavelengths for %d pixels", spectrum.ErrLengthMismatch, len(wavelengths), len(y))
	}
	ratio, err := spectrum.Divide(y, standard)
	if err != nil {
		return Comparison{}, fmt.Errorf("divide by standard: %w", err)
	}
	smoothed, err := s.Smooth(ratio, wavelengths)
	if err != nil {
		return Comparison{}, fmt.Errorf("smooth ratio: %w", err)
	}
	return Comparison{
		Wavelengths: wavelengths.Clone(),
		Sample:      y.Clone(),
		Standard:    standard.Clone(),
		Ratio:       ratio,
		Smoothed:    smoothed,
		Smoother:    s.String(),
	}, nil
}

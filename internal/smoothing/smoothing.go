// Package smoothing implements the filters that can be applied to a captured
// spectrum. Each filter is a variant of the Smoother interface and is checked
// when it is constructed, so an invalid choice never reaches the device.
package smoothing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/spectro/internal/spectrum"
)

// Filter names accepted by Parse.
const (
	NameNone     = "none"
	NameGaussian = "gaussian"
	NameBoxcar   = "boxcar"
)

// ValidNames lists the accepted filter names.
var ValidNames = []string{NameGaussian, NameBoxcar, NameNone}

var (
	// ErrUnknownSmoother is returned by Parse for a name outside ValidNames.
	ErrUnknownSmoother = errors.New("invalid smoother type")
	// ErrInvalidParam is returned when a filter parameter is out of range.
	ErrInvalidParam = errors.New("invalid smoother parameter")
)

// Smoother transforms a spectrum into a smoothed spectrum of the same length.
// wavelengths is the session wavelength table aligned with y; filters that
// work in pixel space ignore it.
type Smoother interface {
	Smooth(y spectrum.Spectrum, wavelengths []float64) (spectrum.Spectrum, error)
	String() string
}

// None leaves the spectrum unchanged.
type None struct{}

// Smooth returns a copy of y.
func (None) Smooth(y spectrum.Spectrum, _ []float64) (spectrum.Spectrum, error) {
	return y.Clone(), nil
}

func (None) String() string { return NameNone }

// Parse builds a Smoother from a filter name and its numeric parameter: the
// kernel width tau for gaussian, the half-width in pixels for boxcar. The
// empty name selects None and ignores param.
func Parse(name string, param float64) (Smoother, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameNone:
		return None{}, nil
	case NameGaussian:
		g, err := NewGaussian(param)
		if err != nil {
			return nil, err
		}
		return g, nil
	case NameBoxcar:
		if param != math.Trunc(param) || math.IsInf(param, 0) {
			return nil, fmt.Errorf("boxcar radius must be a whole number of pixels, got %v: %w", param, ErrInvalidParam)
		}
		b, err := NewBoxcar(int(param))
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w %q. Expected one of: %s", ErrUnknownSmoother, name, strings.Join(ValidNames, ", "))
	}
}

// Validate checks the parameters of s. Struct literals bypass the
// constructors, so callers accepting a Smoother check it here before use.
// Nil is valid and means no smoothing.
func Validate(s Smoother) error {
	switch v := s.(type) {
	case nil:
		return nil
	case *Gaussian:
		if v == nil {
			return fmt.Errorf("nil gaussian: %w", ErrInvalidParam)
		}
	case *Boxcar:
		if v == nil {
			return fmt.Errorf("nil boxcar: %w", ErrInvalidParam)
		}
	}
	if v, ok := s.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

// IsNone reports whether s performs no smoothing.
func IsNone(s Smoother) bool {
	if s == nil {
		return true
	}
	switch s.(type) {
	case None, *None:
		return true
	}
	return false
}

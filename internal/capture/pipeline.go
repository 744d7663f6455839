// Package capture turns raw spectrometer readings into corrected spectra:
// frame averaging, bad pixel correction, dark subtraction, division by a
// standard and optional smoothing.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/spectro/internal/monitoring"
	"github.com/banshee-data/spectro/internal/smoothing"
	"github.com/banshee-data/spectro/internal/spectrometer"
	"github.com/banshee-data/spectro/internal/spectrum"
)

// ErrInvalidOptions is returned when capture options are rejected before the
// device is touched.
var ErrInvalidOptions = errors.New("invalid capture options")

// DefaultIntegration is the exposure used when Options.Integration is zero.
const DefaultIntegration = 500 * time.Millisecond

// Options control a single capture. The zero value captures one frame at
// DefaultIntegration with no corrections beyond the bad pixel fix.
type Options struct {
	Frames      int
	Integration time.Duration
	// Smoother is applied last. Nil means no smoothing.
	Smoother smoothing.Smoother
	// Dark is subtracted from the measurement and from Standard. Empty means
	// no dark correction.
	Dark spectrum.Spectrum
	// Standard divides the measurement after dark correction. Empty means no
	// normalisation.
	Standard spectrum.Spectrum
}

func (o Options) normalize() (Options, error) {
	if o.Frames == 0 {
		o.Frames = 1
	}
	if o.Frames < 0 {
		return o, fmt.Errorf("%w: frames must be at least 1, got %d", ErrInvalidOptions, o.Frames)
	}
	if o.Integration == 0 {
		o.Integration = DefaultIntegration
	}
	if o.Integration < time.Microsecond {
		return o, fmt.Errorf("%w: integration time %v below 1us", ErrInvalidOptions, o.Integration)
	}
	if err := smoothing.Validate(o.Smoother); err != nil {
		return o, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if o.Smoother == nil {
		o.Smoother = smoothing.None{}
	}
	if len(o.Dark) > 0 && len(o.Standard) > 0 && len(o.Dark) != len(o.Standard) {
		return o, fmt.Errorf("%w: dark has %d pixels, standard has %d", spectrum.ErrLengthMismatch, len(o.Dark), len(o.Standard))
	}
	return o, nil
}

// Pipeline runs captures against one spectrometer session. The session is
// owned by the caller. Integration time is device state, so a Pipeline
// serialises its captures and leaves the last integration time in effect.
type Pipeline struct {
	session   spectrometer.Session
	badPixels BadPixels

	mu          sync.Mutex
	wavelengths spectrum.Spectrum
}

// New returns a pipeline over session.
func New(session spectrometer.Session, badPixels BadPixels) *Pipeline {
	return &Pipeline{session: session, badPixels: badPixels}
}

// Wavelengths returns the wavelength of every pixel of a captured spectrum,
// with channel 0 discarded like the intensities. The table is read once.
func (p *Pipeline) Wavelengths(ctx context.Context) (spectrum.Spectrum, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wavelengthsLocked(ctx)
}

func (p *Pipeline) wavelengthsLocked(ctx context.Context) (spectrum.Spectrum, error) {
	if p.wavelengths == nil {
		raw, err := p.session.Wavelengths(ctx)
		if err != nil {
			return nil, fmt.Errorf("read wavelengths: %w", err)
		}
		p.wavelengths = spectrum.DiscardFirst(raw)
	}
	return p.wavelengths.Clone(), nil
}

// Capture acquires opts.Frames readings and applies the correction chain.
// Options are validated before any device call. Device errors propagate
// wrapped with the failing stage; nothing is retried.
func (p *Pipeline) Capture(ctx context.Context, opts Options) (spectrum.Spectrum, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if err := p.badPixels.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wavelengths != nil {
		if err := checkLength("dark", opts.Dark, len(p.wavelengths)); err != nil {
			return nil, err
		}
		if err := checkLength("standard", opts.Standard, len(p.wavelengths)); err != nil {
			return nil, err
		}
	}

	micros := opts.Integration.Microseconds()
	if err := p.session.SetIntegrationTime(micros); err != nil {
		return nil, fmt.Errorf("configure integration time: %w", err)
	}
	monitoring.Logf("capture: %d frame(s) at %v, smoother %s", opts.Frames, opts.Integration, opts.Smoother)

	frames := make([]spectrum.Spectrum, 0, opts.Frames)
	for i := 0; i < opts.Frames; i++ {
		raw, err := p.session.Intensities(ctx)
		if err != nil {
			return nil, fmt.Errorf("read frame %d of %d: %w", i+1, opts.Frames, err)
		}
		frames = append(frames, spectrum.DiscardFirst(raw))
		monitoring.Debugf("capture: frame %d/%d, %d pixels", i+1, opts.Frames, len(raw))
	}
	result, err := spectrum.Mean(frames)
	if err != nil {
		return nil, fmt.Errorf("average frames: %w", err)
	}

	result, fixed := p.badPixels.Apply(result)
	if len(fixed) > 0 {
		monitoring.Debugf("capture: corrected bad pixels %v (%s)", fixed, p.badPixels.Strategy)
	}

	if len(opts.Dark) > 0 {
		if result, err = spectrum.Subtract(result, opts.Dark); err != nil {
			return nil, fmt.Errorf("subtract dark: %w", err)
		}
	}

	if len(opts.Standard) > 0 {
		standard := opts.Standard
		if len(opts.Dark) > 0 {
			if standard, err = spectrum.Subtract(standard, opts.Dark); err != nil {
				return nil, fmt.Errorf("subtract dark from standard: %w", err)
			}
		}
		if result, err = spectrum.Divide(result, standard); err != nil {
			return nil, fmt.Errorf("divide by standard: %w", err)
		}
	}

	if smoothing.IsNone(opts.Smoother) {
		return result, nil
	}
	wavelengths, err := p.wavelengthsLocked(ctx)
	if err != nil {
		return nil, err
	}
	smoothed, err := opts.Smoother.Smooth(result, wavelengths)
	if err != nil {
		return nil, fmt.Errorf("smooth: %w", err)
	}
	return smoothed, nil
}

func checkLength(name string, s spectrum.Spectrum, want int) error {
	if len(s) > 0 && len(s) != want {
		return fmt.Errorf("%w: %s has %d pixels, capture has %d", spectrum.ErrLengthMismatch, name, len(s), want)
	}
	return nil
}

// Package fixtures embeds a recorded measurement set for offline use: a
// fluorescence sample, its dark frame, a standard frame and the wavelength
// table of the spectrometer they were taken on. All four are single frames at
// 500ms with channel 0 already discarded.
package fixtures

import (
	"bytes"
	"embed"
	"fmt"
	"path"

	"github.com/banshee-data/spectro/internal/spectrum"
)

//go:embed data/*.txt
var files embed.FS

// Fixture names, usable with Load.
const (
	SampleName      = "sample"
	DarkName        = "dark"
	StandardName    = "standard"
	WavelengthsName = "wavelengths"
)

// Load parses the named fixture.
func Load(name string) (spectrum.Spectrum, error) {
	data, err := files.ReadFile(path.Join("data", name+".txt"))
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", name, err)
	}
	return spectrum.Read(bytes.NewReader(data))
}

func mustLoad(name string) spectrum.Spectrum {
	s, err := Load(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Sample returns the fluorescence measurement.
func Sample() spectrum.Spectrum { return mustLoad(SampleName) }

// Dark returns the dark frame.
func Dark() spectrum.Spectrum { return mustLoad(DarkName) }

// Standard returns the standard frame. It is not dark-subtracted.
func Standard() spectrum.Spectrum { return mustLoad(StandardName) }

// Wavelengths returns the wavelength of each fixture pixel, in nm.
func Wavelengths() spectrum.Spectrum { return mustLoad(WavelengthsName) }

// RawFrames returns the sample, dark and standard frames plus the wavelength
// table as a device would report them, with a zero channel 0 prepended, for
// replay through a fake session.
func RawFrames() (wavelengths []float64, sample, dark, standard []float64) {
	raw := func(s spectrum.Spectrum) []float64 {
		return append([]float64{0}, s...)
	}
	wl := Wavelengths()
	// extrapolate one pixel so the table stays monotonic
	first := wl[0] - (wl[1] - wl[0])
	return append([]float64{first}, wl...), raw(Sample()), raw(Dark()), raw(Standard())
}

package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spectro/internal/spectrum"
)

const pixels = 2047

func TestFixturesShareLength(t *testing.T) {
	for _, s := range []spectrum.Spectrum{Sample(), Dark(), Standard(), Wavelengths()} {
		assert.Len(t, s, pixels)
	}
}

func TestWavelengthsIncrease(t *testing.T) {
	wl := Wavelengths()
	for i := 1; i < len(wl); i++ {
		require.Greater(t, wl[i], wl[i-1], "pixel %d", i)
	}
	assert.InDelta(t, 340, wl[0], 5)
	assert.InDelta(t, 1064, wl[len(wl)-1], 5)
}

func TestDarkBelowSample(t *testing.T) {
	s, err := spectrum.Subtract(Standard(), Dark())
	require.NoError(t, err)
	var sum float64
	for _, v := range s {
		sum += v
	}
	assert.Positive(t, sum)
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("missing")
	assert.Error(t, err)
}

func TestRawFrames(t *testing.T) {
	wl, sample, dark, standard := RawFrames()
	for _, raw := range [][]float64{wl, sample, dark, standard} {
		assert.Len(t, raw, pixels+1)
	}
	assert.Zero(t, sample[0])
	assert.Equal(t, Sample(), spectrum.DiscardFirst(sample))
	assert.Equal(t, Wavelengths(), spectrum.DiscardFirst(wl))
	assert.Less(t, wl[0], wl[1])
}

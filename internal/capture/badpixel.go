package capture

import (
	"fmt"
	"strings"

	"github.com/banshee-data/spectro/internal/spectrum"
)

// Strategy selects how a defective pixel is replaced.
type Strategy string

const (
	// DuplicateLeft averages the left neighbour with itself, which reduces to
	// copying it. Existing calibration data was recorded with this correction.
	DuplicateLeft Strategy = "duplicate_left"
	// FlankingMean replaces the pixel with the mean of both neighbours.
	FlankingMean Strategy = "flanking_mean"
)

// DefaultBadPixel is the known defective detector element, as an index into
// the spectrum after channel 0 has been discarded.
const DefaultBadPixel = 1268

// ParseStrategy accepts the strategy names used in configuration files.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateLeft:
		return DuplicateLeft, nil
	case FlankingMean:
		return FlankingMean, nil
	default:
		return "", fmt.Errorf("unknown bad pixel strategy %q: expected %s or %s", s, DuplicateLeft, FlankingMean)
	}
}

// BadPixels lists defective pixels and how to correct them.
type BadPixels struct {
	Indices  []int
	Strategy Strategy
}

// DefaultBadPixels returns the factory correction for the spectrometer.
func DefaultBadPixels() BadPixels {
	return BadPixels{Indices: []int{DefaultBadPixel}, Strategy: DuplicateLeft}
}

// Validate rejects negative indices and unknown strategies.
func (b BadPixels) Validate() error {
	for _, i := range b.Indices {
		if i < 0 {
			return fmt.Errorf("bad pixel index %d must not be negative", i)
		}
	}
	_, err := ParseStrategy(string(b.Strategy))
	return err
}

// Apply returns a corrected copy of s and the indices that were replaced.
// Indices outside s are skipped. Replacement values are computed from the
// uncorrected input so adjacent bad pixels do not feed each other. A missing
// neighbour at either edge falls back to the one that exists.
func (b BadPixels) Apply(s spectrum.Spectrum) (spectrum.Spectrum, []int) {
	out := s.Clone()
	var applied []int
	for _, i := range b.Indices {
		if i < 0 || i >= len(s) || len(s) < 2 {
			continue
		}
		left, right := i-1, i+1
		if left < 0 {
			left = right
		}
		if right >= len(s) {
			right = left
		}

		switch b.Strategy {
		case FlankingMean:
			out[i] = (s[left] + s[right]) / 2
		default:
			out[i] = s[left]
		}
		applied = append(applied, i)
	}
	return out, applied
}

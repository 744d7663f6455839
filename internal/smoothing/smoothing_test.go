package smoothing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spectro/internal/spectrum"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func mean(y []float64) float64 {
	s := 0.0
	for _, v := range y {
		s += v
	}
	return s / float64(len(y))
}

func TestBoxcar_KnownValues(t *testing.T) {
	b, err := NewBoxcar(1)
	require.NoError(t, err)

	got, err := b.Smooth(spectrum.Spectrum{1, 2, 3, 4, 5}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2, 3, 4, 4.5}, []float64(got), 1e-12)
}

func TestBoxcar_ZeroRadiusIsIdentity(t *testing.T) {
	y := spectrum.Spectrum{3, -1, 4, 1, -5, 9, 2.5}
	got, err := Boxcar{}.Smooth(y, nil)
	require.NoError(t, err)
	assert.Equal(t, y, got)
}

func TestBoxcar_LengthPreserved(t *testing.T) {
	y := spectrum.Spectrum(ramp(17, 0, 1))
	for _, p := range []int{0, 1, 2, 5, 16, 17, 100} {
		got, err := Boxcar{Radius: p}.Smooth(y, nil)
		require.NoError(t, err)
		assert.Len(t, got, len(y), "radius %d", p)
	}
}

func TestBoxcar_WideWindowIsGlobalMean(t *testing.T) {
	y := spectrum.Spectrum{2, 7, 1, 8, 2, 8, 1, 8}
	want := mean(y)
	for _, p := range []int{len(y), len(y) + 1, 10 * len(y), math.MaxInt} {
		got, err := Boxcar{Radius: p}.Smooth(y, nil)
		require.NoError(t, err)
		for i, v := range got {
			assert.InDelta(t, want, v, 1e-12, "radius %d index %d", p, i)
		}
	}
}

func TestBoxcar_Empty(t *testing.T) {
	got, err := Boxcar{Radius: 3}.Smooth(spectrum.Spectrum{}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGaussian_SmallTauIsIdentity(t *testing.T) {
	wl := ramp(50, 400, 0.5)
	y := spectrum.Spectrum(ramp(50, 10, 3))
	y[20] = 500

	g, err := NewGaussian(0.01)
	require.NoError(t, err)
	got, err := g.Smooth(y, wl)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64(y), []float64(got), 1e-9)
}

func TestGaussian_ConstantInputUnchanged(t *testing.T) {
	wl := ramp(30, 500, 1)
	y := make(spectrum.Spectrum, 30)
	for i := range y {
		y[i] = 42
	}
	got, err := Gaussian{Tau: 3}.Smooth(y, wl)
	require.NoError(t, err)
	for _, v := range got {
		assert.InDelta(t, 42, v, 1e-9)
	}
}

func TestGaussian_WideTauApproachesMean(t *testing.T) {
	wl := ramp(20, 600, 0.25)
	y := spectrum.Spectrum(ramp(20, 0, 1))
	got, err := Gaussian{Tau: 1e6}.Smooth(y, wl)
	require.NoError(t, err)
	for _, v := range got {
		assert.InDelta(t, mean(y), v, 1e-6)
	}
}

func TestGaussian_SpikeIsSpread(t *testing.T) {
	wl := ramp(21, 0, 1)
	y := make(spectrum.Spectrum, 21)
	y[10] = 1

	got, err := Gaussian{Tau: 2}.Smooth(y, wl)
	require.NoError(t, err)

	assert.Less(t, got[10], 1.0)
	assert.Greater(t, got[9], 0.0)
	assert.InDelta(t, got[9], got[11], 1e-12)
	assert.Greater(t, got[10], got[9])
}

func TestGaussian_LengthMismatch(t *testing.T) {
	_, err := Gaussian{Tau: 1}.Smooth(spectrum.Spectrum{1, 2, 3}, []float64{1, 2})
	assert.ErrorIs(t, err, spectrum.ErrLengthMismatch)
}

func TestNewGaussian_RejectsBadTau(t *testing.T) {
	for _, tau := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewGaussian(tau)
		assert.ErrorIs(t, err, ErrInvalidParam, "tau %v", tau)
	}
}

func TestNewBoxcar_RejectsNegative(t *testing.T) {
	_, err := NewBoxcar(-1)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestNewBoxcar_MaxRadius(t *testing.T) {
	b, err := NewBoxcar(math.MaxInt)
	require.NoError(t, err)
	got, err := b.Smooth(spectrum.Spectrum{1, 2, 3, 4}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.5, 2.5, 2.5, 2.5}, []float64(got), 1e-12)
}

func TestSmooth_InvalidLiterals(t *testing.T) {
	y := spectrum.Spectrum{1, 2, 3}
	wl := []float64{500, 501, 502}
	tests := []struct {
		name string
		s    Smoother
	}{
		{"negative boxcar", Boxcar{Radius: -1}},
		{"zero tau", Gaussian{Tau: 0}},
		{"negative tau", Gaussian{Tau: -2}},
		{"nan tau", Gaussian{Tau: math.NaN()}},
		{"negative boxcar pointer", &Boxcar{Radius: -1}},
		{"zero tau pointer", &Gaussian{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.s), ErrInvalidParam)
			got, err := tt.s.Smooth(y, wl)
			assert.ErrorIs(t, err, ErrInvalidParam)
			assert.Nil(t, got)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(None{}))
	assert.NoError(t, Validate(Boxcar{Radius: 2}))
	assert.NoError(t, Validate(&Gaussian{Tau: 1}))

	var nilBoxcar *Boxcar
	assert.ErrorIs(t, Validate(nilBoxcar), ErrInvalidParam)
	var nilGaussian *Gaussian
	assert.ErrorIs(t, Validate(nilGaussian), ErrInvalidParam)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		param   float64
		want    Smoother
		wantErr error
	}{
		{name: "empty is none", input: "", param: 7, want: None{}},
		{name: "none", input: "none", param: 1, want: None{}},
		{name: "gaussian", input: "gaussian", param: 2.5, want: Gaussian{Tau: 2.5}},
		{name: "case insensitive", input: " Boxcar ", param: 10, want: Boxcar{Radius: 10}},
		{name: "unknown", input: "median", param: 1, wantErr: ErrUnknownSmoother},
		{name: "fractional boxcar", input: "boxcar", param: 1.5, wantErr: ErrInvalidParam},
		{name: "negative boxcar", input: "boxcar", param: -2, wantErr: ErrInvalidParam},
		{name: "zero tau", input: "gaussian", param: 0, wantErr: ErrInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, tt.param)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_UnknownListsAcceptedNames(t *testing.T) {
	_, err := Parse("savgol", 3)
	require.Error(t, err)
	for _, name := range ValidNames {
		assert.Contains(t, err.Error(), name)
	}
}

func TestIsNone(t *testing.T) {
	assert.True(t, IsNone(nil))
	assert.True(t, IsNone(None{}))
	assert.True(t, IsNone(&None{}))
	assert.False(t, IsNone(Boxcar{Radius: 1}))
}

func TestString(t *testing.T) {
	assert.Equal(t, "none", None{}.String())
	assert.Equal(t, "gaussian(tau=1.5)", Gaussian{Tau: 1.5}.String())
	assert.Equal(t, "boxcar(radius=4)", Boxcar{Radius: 4}.String())
}

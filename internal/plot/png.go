// Package plot renders the three-panel comparison of a measurement against
// its standard: as a static PNG figure and as an interactive HTML page.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/spectro/internal/capture"
	"github.com/banshee-data/spectro/internal/monitoring"
	"github.com/banshee-data/spectro/internal/spectrum"
)

// Panel titles and axis labels shared by both renderers.
const (
	TitleOriginals = "Originals"
	TitleDivided   = "Standard divided"
	TitleSmoothed  = "Smoothed"
	LabelX         = "Wavelength (nm)"
	LabelY         = "Counts"
)

// Figure size of the PNG output.
const (
	Width  = 20 * vg.Inch
	Height = 5 * vg.Inch
)

var (
	sampleColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	standardColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// WritePNG draws the comparison as a 1x3 figure and encodes it as PNG.
func WritePNG(w io.Writer, c capture.Comparison) error {
	panels, err := panels(c)
	if err != nil {
		return err
	}

	img := vgimg.New(Width, Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(panels),
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{panels}, tiles, dc)
	for j, p := range panels {
		p.Draw(canvases[0][j])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG writes the figure to path, creating parent directories.
func SavePNG(path string, c capture.Comparison) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	monitoring.Logf("comparison plot written to %s", path)
	return nil
}

func panels(c capture.Comparison) ([]*plot.Plot, error) {
	pOrig := newPanel(TitleOriginals)
	if err := addLine(pOrig, "sample", c.Wavelengths, c.Sample, sampleColor); err != nil {
		return nil, err
	}
	if err := addLine(pOrig, "standard", c.Wavelengths, c.Standard, standardColor); err != nil {
		return nil, err
	}

	pDiv := newPanel(TitleDivided)
	if err := addLine(pDiv, "", c.Wavelengths, c.Ratio, sampleColor); err != nil {
		return nil, err
	}

	pSmooth := newPanel(TitleSmoothed)
	if err := addLine(pSmooth, c.Smoother, c.Wavelengths, c.Smoothed, sampleColor); err != nil {
		return nil, err
	}
	return []*plot.Plot{pOrig, pDiv, pSmooth}, nil
}

func newPanel(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = LabelX
	p.Y.Label.Text = LabelY
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func addLine(p *plot.Plot, label string, x, y spectrum.Spectrum, c color.Color) error {
	pts, err := xys(x, y)
	if err != nil {
		return err
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return nil
}

func xys(x, y spectrum.Spectrum) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d wavelengths for %d values", spectrum.ErrLengthMismatch, len(x), len(y))
	}
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i] = plotter.XY{X: x[i], Y: y[i]}
	}
	return pts, nil
}

package plot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/spectro/internal/capture"
	"github.com/banshee-data/spectro/internal/spectrum"
)

// WriteHTML renders the comparison as a self-contained page with three
// interactive line charts.
func WriteHTML(w io.Writer, c capture.Comparison) error {
	orig, err := lineChart(TitleOriginals, c.Wavelengths, series{"sample", c.Sample}, series{"standard", c.Standard})
	if err != nil {
		return err
	}
	div, err := lineChart(TitleDivided, c.Wavelengths, series{"sample / standard", c.Ratio})
	if err != nil {
		return err
	}
	smooth, err := lineChart(TitleSmoothed, c.Wavelengths, series{c.Smoother, c.Smoothed})
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(orig, div, smooth)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

type series struct {
	name   string
	values spectrum.Spectrum
}

func lineChart(title string, wavelengths spectrum.Spectrum, ss ...series) (*charts.Line, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: LabelX, NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: LabelY, NameLocation: "middle", NameGap: 45, Scale: opts.Bool(true)}),
	)
	for _, s := range ss {
		if len(s.values) != len(wavelengths) {
			return nil, fmt.Errorf("%s: %w: %d wavelengths for %d values", title, spectrum.ErrLengthMismatch, len(wavelengths), len(s.values))
		}
		data := make([]opts.LineData, len(s.values))
		for i, v := range s.values {
			data[i] = opts.LineData{Value: []interface{}{wavelengths[i], v}}
		}
		line.AddSeries(s.name, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	return line, nil
}

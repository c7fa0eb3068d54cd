package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost serves the echarts javascript. Override it for offline use.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// WriteHTML renders s as a page with the intensity histogram of the filled
// region and a bar chart of the fill counters.
func WriteHTML(w io.Writer, title string, s Summary) error {
	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.PageTitle = title
	page.AddCharts(histogramChart(title, s), countersChart(s))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func histogramChart(title string, s Summary) *charts.Bar {
	x := make([]string, len(s.Histogram))
	y := make([]opts.BarData, len(s.Histogram))
	for i, b := range s.Histogram {
		x[i] = fmt.Sprintf("%.4g", (b.Lo+b.Hi)/2)
		y[i] = opts.BarData{Value: b.Count, Name: fmt.Sprintf("[%.4g, %.4g)", b.Lo, b.Hi)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Subtitle: fmt.Sprintf("seed=%.4g band=[%.4g, %.4g] mean=%.4g sd=%.4g median=%.4g",
				s.SeedValue, s.Lo, s.Hi, s.Mean, s.StdDev, s.Median),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "intensity", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "voxels"}),
	)
	bar.SetXAxis(x).AddSeries("filled", y)
	return bar
}

func countersChart(s Summary) *charts.Bar {
	x := []string{"Visited", "Set"}
	y := []opts.BarData{
		{Value: s.Visited},
		{Value: s.PixelsSet},
	}
	sub := "completed"
	if s.CutoffHit {
		sub = "stopped at maxPixels"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "300px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Fill", Subtitle: sub}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("fill", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
	"fraudlens/internal/dashboard"
)

type renderer interface {
	Render(w io.Writer) error
}

// WriteChartHTML writes a standalone interactive page for the chart's
// current analysis
func WriteChartHTML(w io.Writer, c *dashboard.Chart, canvas Canvas) error {
	size := charts.WithInitializationOpts(opts.Initialization{
		PageTitle: c.Title(),
		Width:     fmt.Sprintf("%dpx", canvas.Width),
		Height:    fmt.Sprintf("%dpx", canvas.Height),
	})
	title := charts.WithTitleOpts(opts.Title{Title: c.Title()})

	var page renderer
	switch a := c.Analysis().(type) {
	case dashboard.BinnedAnalysis:
		page = binnedPage(a, c.Color(), size, title)
	case dashboard.CompareAnalysis:
		page = comparePage(a, size, title)
	case dashboard.OutlierAnalysis:
		page = outlierPage(a, size, title)
	default:
		return fmt.Errorf("%w: chart %s has nothing to export", core.ErrInsufficientData, c.ID)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

func rangeLabel(lo, hi float64) string {
	return fmt.Sprintf("%.4g-%.4g", lo, hi)
}

func binnedPage(a dashboard.BinnedAnalysis, color string, global ...charts.GlobalOpts) renderer {
	labels := make([]string, len(a.Bins))
	ratios := make([]opts.BarData, len(a.Bins))
	for i, b := range a.Bins {
		labels[i] = rangeLabel(b.X0, b.X1)
		ratios[i] = opts.BarData{Value: b.FraudRatio}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(global,
		charts.WithYAxisOpts(opts.YAxis{Name: "Fraud ratio", Max: a.YMax}),
		charts.WithColorsOpts(opts.Colors{color}),
	)...)
	bar.SetXAxis(labels).AddSeries("Fraud ratio", ratios)

	if a.Regression != nil {
		trend := make([]opts.LineData, len(a.Bins))
		for i, b := range a.Bins {
			trend[i] = opts.LineData{Value: a.Regression.At(b.XMid)}
		}
		line := charts.NewLine()
		line.SetXAxis(labels).AddSeries("Trend", trend)
		bar.Overlap(line)
	}
	return bar
}

func comparePage(a dashboard.CompareAnalysis, global ...charts.GlobalOpts) renderer {
	h := a.Histogram
	labels := make([]string, len(h.DensityA))
	fraud := make([]opts.BarData, len(h.DensityA))
	legit := make([]opts.BarData, len(h.DensityB))
	for i := range h.DensityA {
		labels[i] = rangeLabel(h.Edges[i], h.Edges[i+1])
		fraud[i] = opts.BarData{Value: h.DensityA[i]}
		legit[i] = opts.BarData{Value: h.DensityB[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(global,
		charts.WithYAxisOpts(opts.YAxis{Name: "Density"}),
		charts.WithLegendOpts(opts.Legend{Bottom: "0"}),
	)...)
	bar.SetXAxis(labels).
		AddSeries("Fraud", fraud).
		AddSeries(fmt.Sprintf("Legitimate (KS D=%.3f, p=%.4f)", a.Comparison.Statistic, a.Comparison.PValue), legit)
	return bar
}

func outlierPage(a dashboard.OutlierAnalysis, global ...charts.GlobalOpts) renderer {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(global,
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Value"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Flag", Min: -0.5, Max: 1.5}),
	)...)
	scatter.AddSeries("Within fences", scatterPoints(a.Result.NonOutliers)).
		AddSeries("Outliers", scatterPoints(a.Result.Outliers))
	return scatter
}

func scatterPoints(points []stats.OutlierPoint) []opts.ScatterData {
	sorted := append([]stats.OutlierPoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Row < sorted[j].Row })
	out := make([]opts.ScatterData, len(sorted))
	for i, p := range sorted {
		out[i] = opts.ScatterData{Value: []float64{p.Value, float64(p.Flag) + jitter(p.Row)}}
	}
	return out
}

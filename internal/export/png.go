package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
	"fraudlens/internal/config"
	"fraudlens/internal/dashboard"
)

var (
	fraudColor = drawing.ColorFromHex("D62728")
	legitColor = drawing.ColorFromHex("1F77B4")
	trendColor = drawing.ColorBlack
	fenceColor = drawing.ColorFromHex("7F7F7F")
)

// Canvas is the pixel geometry of one rendered chart
type Canvas struct {
	Width   int
	Height  int
	Margins config.Margins
}

// CanvasFromConfig reads the chart geometry from configuration
func CanvasFromConfig(c config.ChartConfig) Canvas {
	return Canvas{Width: c.Width, Height: c.Height, Margins: c.Margins}
}

func (c Canvas) background() chart.Style {
	return chart.Style{
		Padding: chart.Box{
			Top:    c.Margins.Top,
			Right:  c.Margins.Right,
			Bottom: c.Margins.Bottom,
			Left:   c.Margins.Left,
		},
		FillColor: drawing.ColorWhite,
	}
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func tickFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return ""
}

// axisRange widens a degenerate range so the chart can scale it
func axisRange(lo, hi float64) *chart.ContinuousRange {
	if hi <= lo {
		lo, hi = lo-0.5, hi+0.5
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// stepSeries traces bars as a filled step outline over shared edges
func stepSeries(name string, edges, heights []float64, color drawing.Color) *chart.ContinuousSeries {
	xs := make([]float64, 0, 2*len(heights)+2)
	ys := make([]float64, 0, 2*len(heights)+2)
	xs = append(xs, edges[0])
	ys = append(ys, 0)
	for i, h := range heights {
		xs = append(xs, edges[i], edges[i+1])
		ys = append(ys, h, h)
	}
	xs = append(xs, edges[len(edges)-1])
	ys = append(ys, 0)
	return &chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: 1,
			FillColor:   color.WithAlpha(110),
		},
	}
}

// RenderChart draws the chart's current analysis
func RenderChart(c *dashboard.Chart, canvas Canvas) (image.Image, error) {
	var graph chart.Chart
	switch a := c.Analysis().(type) {
	case dashboard.BinnedAnalysis:
		graph = binnedGraph(a, c.Domain(), c.Color())
	case dashboard.CompareAnalysis:
		graph = compareGraph(a)
	case dashboard.OutlierAnalysis:
		graph = outlierGraph(a)
	default:
		return nil, fmt.Errorf("%w: chart %s has nothing to render", core.ErrInsufficientData, c.ID)
	}
	graph.Title = c.Title()
	graph.Width = canvas.Width
	graph.Height = canvas.Height
	graph.Background = canvas.background()
	graph.XAxis.Name = c.Variable()
	return render(graph)
}

// RenderMerged draws both sources of a merged chart over the shared domain
func RenderMerged(m *dashboard.MergedChart, canvas Canvas) (image.Image, error) {
	var series []chart.Series
	for _, src := range m.Sources {
		if len(src.Bins) == 0 {
			continue
		}
		edges, heights := binOutline(src.Bins)
		series = append(series, stepSeries(src.DatasetName, edges, heights, hexColor(src.Color)))
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: merged chart %s has no bins", core.ErrInsufficientData, m.ID)
	}

	graph := chart.Chart{
		Title:      fmt.Sprintf("Merged: %s", m.Variable),
		Width:      canvas.Width,
		Height:     canvas.Height,
		Background: canvas.background(),
		XAxis: chart.XAxis{
			Name:           m.Variable,
			Range:          axisRange(m.Domain.Min, m.Domain.Max),
			ValueFormatter: tickFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Fraud ratio",
			Range:          axisRange(0, m.YMax),
			ValueFormatter: tickFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(graph)
}

func binOutline(bins []stats.Bin) (edges, heights []float64) {
	edges = make([]float64, 0, len(bins)+1)
	heights = make([]float64, len(bins))
	for i, b := range bins {
		edges = append(edges, b.X0)
		heights[i] = b.FraudRatio
	}
	edges = append(edges, bins[len(bins)-1].X1)
	return edges, heights
}

func binnedGraph(a dashboard.BinnedAnalysis, domain stats.Domain, color string) chart.Chart {
	var series []chart.Series
	if len(a.Bins) > 0 {
		edges, heights := binOutline(a.Bins)
		series = append(series, stepSeries("Fraud ratio", edges, heights, hexColor(color)))
	}
	if a.Regression != nil {
		series = append(series, &chart.ContinuousSeries{
			Name:    "Trend",
			XValues: []float64{domain.Min, domain.Max},
			YValues: []float64{a.Regression.At(domain.Min), a.Regression.At(domain.Max)},
			Style: chart.Style{
				StrokeColor:     trendColor,
				StrokeWidth:     2,
				StrokeDashArray: []float64{5, 5},
			},
		})
	}
	yMin := 0.0
	if a.Regression != nil {
		yMin = math.Min(0, math.Min(a.Regression.At(domain.Min), a.Regression.At(domain.Max)))
	}
	return chart.Chart{
		XAxis: chart.XAxis{
			Range:          axisRange(domain.Min, domain.Max),
			ValueFormatter: tickFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Fraud ratio",
			Range:          axisRange(yMin, a.YMax),
			ValueFormatter: tickFormatter,
		},
		Series: series,
	}
}

func compareGraph(a dashboard.CompareAnalysis) chart.Chart {
	h := a.Histogram
	top := 0.0
	for i := range h.DensityA {
		top = math.Max(top, math.Max(h.DensityA[i], h.DensityB[i]))
	}
	series := []chart.Series{
		stepSeries("Fraud", h.Edges, h.DensityA, fraudColor),
		stepSeries("Legitimate", h.Edges, h.DensityB, legitColor),
	}
	return chart.Chart{
		XAxis: chart.XAxis{
			Range:          axisRange(a.Domain.Min, a.Domain.Max),
			ValueFormatter: tickFormatter,
		},
		YAxis: chart.YAxis{
			Name:           fmt.Sprintf("Density (KS D=%.3f, p=%.4f)", a.Comparison.Statistic, a.Comparison.PValue),
			Range:          axisRange(0, top*1.1),
			ValueFormatter: tickFormatter,
		},
		Series: series,
	}
}

// outlierGraph plots values on a strip, fraud above legitimate, with the
// IQR fences as vertical lines
func outlierGraph(a dashboard.OutlierAnalysis) chart.Chart {
	res := a.Result
	lo, hi := res.Bounds.LowerBound, res.Bounds.UpperBound
	var series []chart.Series
	for _, group := range []struct {
		name   string
		points []stats.OutlierPoint
		color  drawing.Color
	}{
		{"Within fences", res.NonOutliers, legitColor},
		{"Outliers", res.Outliers, fraudColor},
	} {
		if len(group.points) == 0 {
			continue
		}
		xs := make([]float64, len(group.points))
		ys := make([]float64, len(group.points))
		for i, p := range group.points {
			xs[i] = p.Value
			ys[i] = float64(p.Flag) + jitter(p.Row)
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
		series = append(series, &chart.ContinuousSeries{
			Name:    group.name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    2,
				DotColor:    group.color,
			},
		})
	}
	for _, fence := range []float64{res.Bounds.LowerBound, res.Bounds.UpperBound} {
		series = append(series, &chart.ContinuousSeries{
			XValues: []float64{fence, fence},
			YValues: []float64{-0.5, 1.5},
			Style: chart.Style{
				StrokeColor:     fenceColor,
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 4},
			},
		})
	}
	return chart.Chart{
		XAxis: chart.XAxis{
			Range:          axisRange(lo, hi),
			ValueFormatter: tickFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Flag",
			Range: axisRange(-0.5, 1.5),
			Ticks: []chart.Tick{{Value: 0, Label: "legit"}, {Value: 1, Label: "fraud"}},
		},
		Series: series,
	}
}

// jitter spreads points vertically within their band, stable per row
func jitter(row int) float64 {
	h := uint32(row)*2654435761 + 1
	return (float64(h%1000)/1000 - 0.5) * 0.6
}

func render(graph chart.Chart) (image.Image, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered chart: %w", err)
	}
	return img, nil
}

// WritePNG encodes img as PNG
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

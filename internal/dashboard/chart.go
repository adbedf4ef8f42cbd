// Package dashboard holds the interactive analysis state: charts bound to
// datasets, their chart-type dispatch and zoom, merged comparison charts, and
// the workspace controller that owns them all.
package dashboard

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"fraudlens/domain/core"
	"fraudlens/domain/dataset"
	"fraudlens/domain/stats"
	"fraudlens/internal/config"
	"fraudlens/ports"
)

// DefaultColor is the bar color of a new chart
const DefaultColor = "#F68D2E"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// State is the position of a chart in its lifecycle
type State int

const (
	StateEmpty State = iota
	StateVariableSelected
	StateHistogrammed
	StateCompared
	StateOutlierAnalyzed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateVariableSelected:
		return "variable-selected"
	case StateHistogrammed:
		return "histogrammed"
	case StateCompared:
		return "compared"
	case StateOutlierAnalyzed:
		return "outlier-analyzed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Chart is one analysis panel. It references its dataset by ID and keeps
// its own copy of the selected variable's series, so the dataset list can
// change underneath it without corrupting the chart.
type Chart struct {
	ID core.ChartID

	engine ports.AnalysisEngine

	datasetID   core.DatasetID
	datasetName string
	variable    string
	series      dataset.Series

	binCount  int
	chartType ChartType
	color     string

	initialDomain stats.Domain
	domain        stats.Domain
	zoomed        bool

	analysis Analysis
}

// NewChart creates an empty histogram chart
func NewChart(engine ports.AnalysisEngine, binCount int) *Chart {
	return &Chart{
		ID:        core.NewChartID(),
		engine:    engine,
		binCount:  binCount,
		chartType: Histogram,
		color:     DefaultColor,
	}
}

// State derives the lifecycle state from what the chart holds
func (c *Chart) State() State {
	if c.variable == "" {
		return StateEmpty
	}
	if c.analysis == nil {
		return StateVariableSelected
	}
	switch c.analysis.Mode() {
	case ModeCompare:
		return StateCompared
	case ModeOutlier:
		return StateOutlierAnalyzed
	}
	return StateHistogrammed
}

func (c *Chart) DatasetID() core.DatasetID { return c.datasetID }
func (c *Chart) DatasetName() string { return c.datasetName }
func (c *Chart) Variable() string { return c.variable }
func (c *Chart) Series() dataset.Series { return c.series }
func (c *Chart) BinCount() int { return c.binCount }
func (c *Chart) ChartType() ChartType { return c.chartType }
func (c *Chart) Color() string { return c.color }
func (c *Chart) Domain() stats.Domain { return c.domain }
func (c *Chart) InitialDomain() stats.Domain { return c.initialDomain }
func (c *Chart) IsZoomed() bool { return c.zoomed }
func (c *Chart) Analysis() Analysis { return c.analysis }
func (c *Chart) HasData() bool { return c.variable != "" && c.series.Len() > 0 }

// Regression returns the trend line of a binned chart, nil otherwise
func (c *Chart) Regression() *stats.Regression {
	if a, ok := c.analysis.(BinnedAnalysis); ok {
		return a.Regression
	}
	return nil
}

// Bins returns the bins of a binned chart, nil otherwise
func (c *Chart) Bins() []stats.Bin {
	if a, ok := c.analysis.(BinnedAnalysis); ok {
		return a.Bins
	}
	return nil
}

// Title names the variable and the dataset it comes from
func (c *Chart) Title() string {
	if c.variable == "" {
		return "Analysis: Select a variable"
	}
	return fmt.Sprintf("Analysis: %s (%s)", c.variable, c.datasetName)
}

// BindDataset points the chart at ds. The selected variable is kept and
// recomputed when ds has it; otherwise the chart returns to empty.
func (c *Chart) BindDataset(ds *dataset.Dataset) error {
	c.datasetID = ds.ID
	c.datasetName = ds.Name
	if c.variable == "" {
		return nil
	}
	if !ds.HasVariable(c.variable) {
		c.clearVariable()
		return nil
	}
	return c.SelectVariable(ds, c.variable)
}

// SelectVariable loads variable from ds, resets the zoom to the full range
// of its valid values and recomputes. On failure the chart is left empty.
func (c *Chart) SelectVariable(ds *dataset.Dataset, variable string) error {
	if ds.ID != c.datasetID {
		c.datasetID = ds.ID
		c.datasetName = ds.Name
	}
	series, err := ds.Series(variable)
	if err != nil {
		c.clearVariable()
		return err
	}
	domain, err := series.Domain()
	if err != nil {
		c.clearVariable()
		return err
	}

	c.variable = variable
	c.series = series
	c.initialDomain = domain
	c.domain = domain
	c.zoomed = false
	return c.recompute()
}

func (c *Chart) clearVariable() {
	c.variable = ""
	c.series = dataset.Series{}
	c.initialDomain = stats.Domain{}
	c.domain = stats.Domain{}
	c.zoomed = false
	c.analysis = nil
}

// SetBinCount changes the number of bins and recomputes in place
func (c *Chart) SetBinCount(n int) error {
	if n < config.MinBinCount || n > config.MaxBinCount {
		return fmt.Errorf("%w: bin count must be between %d and %d, got %d",
			core.ErrInvalidInput, config.MinBinCount, config.MaxBinCount, n)
	}
	c.binCount = n
	if !c.HasData() {
		return nil
	}
	return c.recompute()
}

// SetChartType switches the presentation. Any trend line is dropped before
// the recompute so a stale overlay never survives a switch.
func (c *Chart) SetChartType(t ChartType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: chart type %d", core.ErrInvalidInput, int(t))
	}
	c.chartType = t
	c.analysis = nil
	if !t.Zoomable() && c.zoomed {
		c.domain = c.initialDomain
		c.zoomed = false
	}
	if !c.HasData() {
		return nil
	}
	return c.recompute()
}

// SetColor sets the bar color, a #RRGGBB hex string
func (c *Chart) SetColor(color string) error {
	color = strings.TrimSpace(color)
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("%w: color must be #RRGGBB, got %q", core.ErrInvalidInput, color)
	}
	c.color = strings.ToUpper(color)
	return nil
}

// Brush zooms into [lo, hi] (in either order). It reports false and changes
// nothing when the chart has no data, is not zoomable, or the range is empty.
func (c *Chart) Brush(lo, hi float64) (bool, error) {
	if !c.HasData() || !c.chartType.Zoomable() {
		return false, nil
	}
	domain := stats.Domain{Min: lo, Max: hi}.Normalized()
	if !domain.Valid() {
		return false, fmt.Errorf("%w: brush range [%v, %v]", core.ErrInvalidInput, lo, hi)
	}
	if domain.Width() == 0 {
		return false, nil
	}
	c.domain = domain
	c.zoomed = true
	return true, c.recompute()
}

// ResetZoom returns to the full range of the current valid values, computed
// afresh from the series. It reports false when not applicable.
func (c *Chart) ResetZoom() (bool, error) {
	if !c.HasData() || !c.chartType.Zoomable() {
		return false, nil
	}
	domain, err := c.series.Domain()
	if err != nil {
		return false, err
	}
	c.initialDomain = domain
	c.domain = domain
	c.zoomed = false
	return true, c.recompute()
}

// recompute rebuilds the cached analysis for the current inputs. On error
// the analysis is cleared and the chart stays renderable.
func (c *Chart) recompute() error {
	c.analysis = nil

	switch c.chartType.Mode() {
	case ModeBinned:
		bins, err := c.engine.Bins(c.series.Values, c.series.Flags, c.domain, c.binCount)
		if err != nil {
			return err
		}
		reg, err := c.engine.Trend(bins)
		if err != nil {
			return err
		}
		c.analysis = BinnedAnalysis{
			Bins:       bins,
			Regression: reg,
			YMax:       yExtent(bins, reg, c.domain),
		}

	case ModeCompare:
		fraud, legit := c.series.Split()
		res, err := c.engine.Compare(fraud, legit)
		if err != nil {
			return err
		}
		c.analysis = CompareAnalysis{
			Comparison: res.Comparison,
			Histogram:  res.Histogram,
			Domain:     res.Domain,
			FraudKDE:   res.FraudKDE,
			LegitKDE:   res.LegitKDE,
		}

	case ModeOutlier:
		res, err := c.engine.Outliers(c.series.Points())
		if err != nil {
			return err
		}
		c.analysis = OutlierAnalysis{Result: res}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

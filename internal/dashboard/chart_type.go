package dashboard

import (
	"fmt"

	"fraudlens/domain/core"
)

// ChartType selects how a chart presents its variable
type ChartType int

const (
	Histogram ChartType = iota
	Line
	Area
	Scatter
	HorizontalBar
	SmoothLine
	Step
	Dot
	CompareHistogram
	OutlierDetection
)

var chartTypeNames = [...]string{
	Histogram:        "histogram",
	Line:             "line",
	Area:             "area",
	Scatter:          "scatter",
	HorizontalBar:    "bar-horizontal",
	SmoothLine:       "smooth-line",
	Step:             "step",
	Dot:              "dot",
	CompareHistogram: "compare-histogram",
	OutlierDetection: "outlier-detection",
}

// ChartTypes lists every chart type in menu order
func ChartTypes() []ChartType {
	types := make([]ChartType, len(chartTypeNames))
	for i := range types {
		types[i] = ChartType(i)
	}
	return types
}

// Valid reports whether t is a known chart type
func (t ChartType) Valid() bool {
	return t >= Histogram && t <= OutlierDetection
}

// String returns the wire name
func (t ChartType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ChartType(%d)", int(t))
	}
	return chartTypeNames[t]
}

// ParseChartType maps a wire name to its chart type
func ParseChartType(name string) (ChartType, error) {
	for i, n := range chartTypeNames {
		if n == name {
			return ChartType(i), nil
		}
	}
	return Histogram, fmt.Errorf("%w: unknown chart type %q", core.ErrInvalidInput, name)
}

func (t ChartType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: chart type %d", core.ErrInvalidInput, int(t))
	}
	return []byte(t.String()), nil
}

func (t *ChartType) UnmarshalText(text []byte) error {
	parsed, err := ParseChartType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Mode is the analysis family a chart type routes to
type Mode int

const (
	ModeBinned Mode = iota
	ModeCompare
	ModeOutlier
)

func (m Mode) String() string {
	switch m {
	case ModeBinned:
		return "binned"
	case ModeCompare:
		return "compare"
	case ModeOutlier:
		return "outlier"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Mode returns the analysis family of t. Binned modes allow zoom and draw a
// trend line; the other two do neither.
func (t ChartType) Mode() Mode {
	switch t {
	case Histogram, Line, Area, Scatter, HorizontalBar, SmoothLine, Step, Dot:
		return ModeBinned
	case CompareHistogram:
		return ModeCompare
	case OutlierDetection:
		return ModeOutlier
	}
	panic(fmt.Sprintf("dashboard: unhandled chart type %d", int(t)))
}

// Zoomable reports whether brushing and reset apply to t
func (t ChartType) Zoomable() bool {
	return t.Mode() == ModeBinned
}

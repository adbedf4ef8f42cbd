package dashboard

import (
	"fmt"
	"math"

	"fraudlens/domain/core"
	"fraudlens/domain/dataset"
	"fraudlens/domain/stats"
	"fraudlens/ports"
)

// MergeSource is one side of a merged chart
type MergeSource struct {
	ChartID     core.ChartID   `json:"chart_id"`
	DatasetID   core.DatasetID `json:"dataset_id"`
	DatasetName string         `json:"dataset_name"`
	Color       string         `json:"color"`
	Series      dataset.Series `json:"-"`
	Bins        []stats.Bin    `json:"bins"`
}

// MergedChart overlays the same variable from two charts on shared bins.
// Each source keeps its own fraud-rate baseline.
type MergedChart struct {
	ID       core.MergedChartID `json:"id"`
	Variable string             `json:"variable"`
	BinCount int                `json:"bin_count"`
	Sources  [2]MergeSource     `json:"sources"`

	InitialDomain stats.Domain `json:"initial_domain"`
	Domain        stats.Domain `json:"domain"`
	Zoomed        bool         `json:"zoomed"`
	YMax          float64      `json:"y_max"`

	engine ports.AnalysisEngine
}

// NewMergedChart merges two distinct charts showing the same variable
func NewMergedChart(engine ports.AnalysisEngine, a, b *Chart) (*MergedChart, error) {
	if a == nil || b == nil || a.ID == b.ID {
		return nil, fmt.Errorf("%w: merge needs two different charts", core.ErrInvalidInput)
	}
	if !a.HasData() || !b.HasData() {
		return nil, fmt.Errorf("%w: both charts need a selected variable", core.ErrInsufficientData)
	}
	if a.Variable() != b.Variable() {
		return nil, fmt.Errorf("%w: cannot merge %q with %q", core.ErrInvalidInput, a.Variable(), b.Variable())
	}

	m := &MergedChart{
		ID:       core.NewMergedChartID(),
		Variable: a.Variable(),
		BinCount: max(a.BinCount(), b.BinCount()),
		engine:   engine,
	}
	for i, c := range []*Chart{a, b} {
		m.Sources[i] = MergeSource{
			ChartID:     c.ID,
			DatasetID:   c.DatasetID(),
			DatasetName: c.DatasetName(),
			Color:       c.Color(),
			Series:      c.Series(),
		}
	}

	domain, err := m.fullDomain()
	if err != nil {
		return nil, err
	}
	m.InitialDomain = domain
	m.Domain = domain
	if err := m.recompute(); err != nil {
		return nil, err
	}
	return m, nil
}

// References reports whether either source came from dataset id
func (m *MergedChart) References(id core.DatasetID) bool {
	return m.Sources[0].DatasetID == id || m.Sources[1].DatasetID == id
}

// Brush zooms both sources into [lo, hi]
func (m *MergedChart) Brush(lo, hi float64) (bool, error) {
	domain := stats.Domain{Min: lo, Max: hi}.Normalized()
	if !domain.Valid() {
		return false, fmt.Errorf("%w: brush range [%v, %v]", core.ErrInvalidInput, lo, hi)
	}
	if domain.Width() == 0 {
		return false, nil
	}
	m.Domain = domain
	m.Zoomed = true
	return true, m.recompute()
}

// ResetZoom returns to the combined range of both sources
func (m *MergedChart) ResetZoom() error {
	domain, err := m.fullDomain()
	if err != nil {
		return err
	}
	m.InitialDomain = domain
	m.Domain = domain
	m.Zoomed = false
	return m.recompute()
}

func (m *MergedChart) fullDomain() (stats.Domain, error) {
	da, err := m.Sources[0].Series.Domain()
	if err != nil {
		return stats.Domain{}, err
	}
	db, err := m.Sources[1].Series.Domain()
	if err != nil {
		return stats.Domain{}, err
	}
	return stats.Domain{Min: math.Min(da.Min, db.Min), Max: math.Max(da.Max, db.Max)}, nil
}

func (m *MergedChart) recompute() error {
	top := 0.0
	for i := range m.Sources {
		src := &m.Sources[i]
		bins, err := m.engine.Bins(src.Series.Values, src.Series.Flags, m.Domain, m.BinCount)
		if err != nil {
			return err
		}
		src.Bins = bins
		for _, b := range bins {
			top = math.Max(top, b.FraudRatio)
		}
	}
	m.YMax = 1
	if top > 0 {
		m.YMax = top * yHeadroom
	}
	return nil
}

package dashboard

import (
	"fraudlens/domain/core"
	"fraudlens/domain/stats"
)

// ChartSnapshot is the read model handed to the rendering layer. Only the
// field for the chart's current mode is set.
type ChartSnapshot struct {
	ID            core.ChartID   `json:"id"`
	DatasetID     core.DatasetID `json:"dataset_id,omitempty"`
	DatasetName   string         `json:"dataset_name,omitempty"`
	Variable      string         `json:"variable,omitempty"`
	Title         string         `json:"title"`
	State         State          `json:"state"`
	ChartType     ChartType      `json:"chart_type"`
	Mode          Mode           `json:"mode"`
	BinCount      int            `json:"bin_count"`
	Color         string         `json:"color"`
	Domain        stats.Domain   `json:"domain"`
	InitialDomain stats.Domain   `json:"initial_domain"`
	Zoomed        bool           `json:"zoomed"`
	Zoomable      bool           `json:"zoomable"`
	TotalPoints   int            `json:"total_points"`

	Binned   *BinnedAnalysis  `json:"binned,omitempty"`
	Compare  *CompareAnalysis `json:"compare,omitempty"`
	Outliers *OutlierAnalysis `json:"outliers,omitempty"`
}

// Snapshot captures the chart's current state
func (c *Chart) Snapshot() ChartSnapshot {
	s := ChartSnapshot{
		ID:            c.ID,
		DatasetID:     c.datasetID,
		DatasetName:   c.datasetName,
		Variable:      c.variable,
		Title:         c.Title(),
		State:         c.State(),
		ChartType:     c.chartType,
		Mode:          c.chartType.Mode(),
		BinCount:      c.binCount,
		Color:         c.color,
		Domain:        c.domain,
		InitialDomain: c.initialDomain,
		Zoomed:        c.zoomed,
		Zoomable:      c.chartType.Zoomable(),
		TotalPoints:   c.series.Len(),
	}
	switch a := c.analysis.(type) {
	case BinnedAnalysis:
		s.Binned = &a
	case CompareAnalysis:
		s.Compare = &a
	case OutlierAnalysis:
		s.Outliers = &a
	}
	return s
}

// Package export serializes charts: bin tables as CSV, single charts as PNG
// and several rendered charts as one composed PNG grid.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
	"fraudlens/internal/dashboard"
)

var (
	binnedHeader  = []string{"x0", "x1", "x_mid", "count", "fraud_count", "fraud_rate", "fraud_ratio", "trend"}
	compareHeader = []string{"edge_lo", "edge_hi", "density_fraud", "density_legit"}
	outlierHeader = []string{"row", "value", "flag", "outlier"}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteChartCSV writes the current analysis of c in the layout of its mode
func WriteChartCSV(w io.Writer, c *dashboard.Chart) error {
	if c.Analysis() == nil {
		return fmt.Errorf("%w: chart %s has nothing to export", core.ErrInsufficientData, c.ID)
	}

	cw := csv.NewWriter(w)
	var records [][]string
	switch a := c.Analysis().(type) {
	case dashboard.BinnedAnalysis:
		records = append(records, binnedHeader)
		records = append(records, binRecords(a.Bins, a.Regression)...)
	case dashboard.CompareAnalysis:
		records = append(records, compareHeader)
		h := a.Histogram
		for i := range h.DensityA {
			records = append(records, []string{
				formatFloat(h.Edges[i]),
				formatFloat(h.Edges[i+1]),
				formatFloat(h.DensityA[i]),
				formatFloat(h.DensityB[i]),
			})
		}
	case dashboard.OutlierAnalysis:
		records = append(records, outlierHeader)
		records = append(records, outlierRecords(a.Result)...)
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func binRecords(bins []stats.Bin, reg *stats.Regression) [][]string {
	records := make([][]string, 0, len(bins))
	for _, b := range bins {
		trend := ""
		if reg != nil {
			trend = formatFloat(reg.At(b.XMid))
		}
		records = append(records, []string{
			formatFloat(b.X0),
			formatFloat(b.X1),
			formatFloat(b.XMid),
			strconv.Itoa(b.Count),
			strconv.Itoa(b.FraudCount),
			formatFloat(b.FraudRate),
			formatFloat(b.FraudRatio),
			trend,
		})
	}
	return records
}

// outlierRecords lists every point in source row order
func outlierRecords(res stats.OutlierResult) [][]string {
	type marked struct {
		point   stats.OutlierPoint
		outlier bool
	}
	all := make([]marked, 0, len(res.Outliers)+len(res.NonOutliers))
	for _, p := range res.Outliers {
		all = append(all, marked{p, true})
	}
	for _, p := range res.NonOutliers {
		all = append(all, marked{p, false})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].point.Row < all[j].point.Row })

	records := make([][]string, len(all))
	for i, m := range all {
		records[i] = []string{
			strconv.Itoa(m.point.Row),
			formatFloat(m.point.Value),
			strconv.Itoa(int(m.point.Flag)),
			strconv.FormatBool(m.outlier),
		}
	}
	return records
}

// WriteMergedCSV writes one bin block per source, tagged by dataset name
func WriteMergedCSV(w io.Writer, m *dashboard.MergedChart) error {
	cw := csv.NewWriter(w)
	header := append([]string{"dataset"}, binnedHeader[:len(binnedHeader)-1]...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	for _, src := range m.Sources {
		for _, rec := range binRecords(src.Bins, nil) {
			if err := cw.Write(append([]string{src.DatasetName}, rec[:len(rec)-1]...)); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

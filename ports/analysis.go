package ports

import (
	"fraudlens/domain/stats"
)

// AnalysisEngine computes the per-chart statistics. Implementations must be
// pure: no shared state, identical inputs give identical results.
type AnalysisEngine interface {
	// Bins partitions domain into binCount intervals with fraud ratios
	Bins(values []float64, flags []uint8, domain stats.Domain, binCount int) ([]stats.Bin, error)

	// Trend fits the fraud-ratio line across bins; nil when nothing is finite
	Trend(bins []stats.Bin) (*stats.Regression, error)

	// Compare runs the two-sample comparison between fraud and legitimate values
	Compare(fraud, legit []float64) (stats.CompareResult, error)

	// Outliers applies the IQR fences
	Outliers(points []stats.OutlierPoint) (stats.OutlierResult, error)
}

// Package engine implements the fraud-ratio statistics: equal-width binning,
// the least-squares trend over bins, the two-sample Kolmogorov-Smirnov
// comparison with its density estimates, and IQR outlier detection.
//
// Every function here is pure. Inputs are never mutated and repeated calls
// with the same arguments return identical results.
package engine

import (
	"fmt"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
)

// Defaults for the comparison view
const (
	DefaultCompareBins  = 30
	DefaultKDEGridSize  = 100
	DefaultKDEBandwidth = 0.1
)

// Config tunes the visual estimates of the comparator. Bandwidth is a fixed
// constant; there is no data-driven bandwidth selection.
type Config struct {
	CompareBins  int     `json:"compare_bins" yaml:"compare_bins"`
	KDEGridSize  int     `json:"kde_grid_size" yaml:"kde_grid_size"`
	KDEBandwidth float64 `json:"kde_bandwidth" yaml:"kde_bandwidth"`
}

// DefaultConfig returns the comparator defaults
func DefaultConfig() Config {
	return Config{
		CompareBins:  DefaultCompareBins,
		KDEGridSize:  DefaultKDEGridSize,
		KDEBandwidth: DefaultKDEBandwidth,
	}
}

// StatsEngine exposes the statistics functions behind one injectable value
type StatsEngine struct {
	config Config
}

// NewStatsEngine creates a new statistical engine, filling unset options
// with defaults
func NewStatsEngine(config Config) *StatsEngine {
	if config.CompareBins < 1 {
		config.CompareBins = DefaultCompareBins
	}
	if config.KDEGridSize < 1 {
		config.KDEGridSize = DefaultKDEGridSize
	}
	if config.KDEBandwidth <= 0 {
		config.KDEBandwidth = DefaultKDEBandwidth
	}
	return &StatsEngine{config: config}
}

// Config returns the effective configuration
func (e *StatsEngine) Config() Config {
	return e.config
}

// Bins delegates to ComputeBins
func (e *StatsEngine) Bins(values []float64, flags []uint8, domain stats.Domain, binCount int) ([]stats.Bin, error) {
	return ComputeBins(values, flags, domain, binCount)
}

// Trend fits the fraud-ratio trend across bins. It returns nil when no bin
// yields a finite point, so callers can skip drawing the line.
func (e *StatsEngine) Trend(bins []stats.Bin) (*stats.Regression, error) {
	points := TrendPoints(bins)
	if len(points) == 0 {
		return nil, nil
	}
	reg, err := FitLinear(points)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Compare runs the KS test on the fraud and legitimate subpopulations and
// builds their shared-edge density histograms and kernel density curves
func (e *StatsEngine) Compare(fraud, legit []float64) (stats.CompareResult, error) {
	if len(fraud) == 0 || len(legit) == 0 {
		return stats.CompareResult{}, fmt.Errorf("%w: comparison needs both fraud and legitimate values (got %d and %d)",
			core.ErrInsufficientData, len(fraud), len(legit))
	}

	cmp, err := KSTest(fraud, legit)
	if err != nil {
		return stats.CompareResult{}, err
	}
	hist, err := DensityHistograms(fraud, legit, e.config.CompareBins)
	if err != nil {
		return stats.CompareResult{}, err
	}
	domain := stats.Domain{Min: hist.Edges[0], Max: hist.Edges[len(hist.Edges)-1]}

	return stats.CompareResult{
		Comparison: cmp,
		Histogram:  hist,
		Domain:     domain,
		FraudKDE:   GaussianKDE(fraud, domain, e.config.KDEGridSize, e.config.KDEBandwidth),
		LegitKDE:   GaussianKDE(legit, domain, e.config.KDEGridSize, e.config.KDEBandwidth),
	}, nil
}

// Outliers delegates to DetectOutliers
func (e *StatsEngine) Outliers(points []stats.OutlierPoint) (stats.OutlierResult, error) {
	return DetectOutliers(points)
}

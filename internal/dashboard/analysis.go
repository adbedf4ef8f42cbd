package dashboard

import (
	"fraudlens/domain/stats"
)

// Analysis is the cached result of a chart's last recompute. Exactly one of
// the concrete types below, matching the chart's mode.
type Analysis interface {
	Mode() Mode
}

// BinnedAnalysis backs every binned chart type
type BinnedAnalysis struct {
	Bins       []stats.Bin       `json:"bins"`
	Regression *stats.Regression `json:"regression,omitempty"`
	YMax       float64           `json:"y_max"`
}

func (BinnedAnalysis) Mode() Mode { return ModeBinned }

// CompareAnalysis backs the compare-histogram chart type
type CompareAnalysis struct {
	Comparison stats.Comparison       `json:"comparison"`
	Histogram  stats.DensityHistogram `json:"histogram"`
	Domain     stats.Domain           `json:"domain"`
	FraudKDE   []stats.DensityPoint   `json:"fraud_kde"`
	LegitKDE   []stats.DensityPoint   `json:"legit_kde"`
}

func (CompareAnalysis) Mode() Mode { return ModeCompare }

// OutlierAnalysis backs the outlier-detection chart type
type OutlierAnalysis struct {
	Result stats.OutlierResult `json:"result"`
}

func (OutlierAnalysis) Mode() Mode { return ModeOutlier }

// yHeadroom scales the tallest mark so it never touches the top edge
const yHeadroom = 1.1

// yExtent returns the top of the fraud-ratio axis: the tallest bar or trend
// end, padded, and 1 when nothing is drawn
func yExtent(bins []stats.Bin, reg *stats.Regression, domain stats.Domain) float64 {
	top := 0.0
	for _, b := range bins {
		if b.FraudRatio > top {
			top = b.FraudRatio
		}
	}
	if reg != nil {
		for _, x := range []float64{domain.Min, domain.Max} {
			if y := reg.At(x); finite(y) && y > top {
				top = y
			}
		}
	}
	if top <= 0 || !finite(top) {
		return 1
	}
	return top * yHeadroom
}

// Package stats holds the result types produced by the statistics engine and
// consumed by chart state, export and the HTTP transport.
package stats

import "math"

// Domain is a closed numeric range [Min, Max] on a variable axis
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Width returns Max-Min
func (d Domain) Width() float64 {
	return d.Max - d.Min
}

// Lerp returns the point a fraction t of the way from Min to Max. It stays
// finite whenever both bounds are, even when Width overflows.
func (d Domain) Lerp(t float64) float64 {
	if t <= 0 {
		return d.Min
	}
	if t >= 1 {
		return d.Max
	}
	return d.Min*(1-t) + d.Max*t
}

// Mid returns the midpoint of the domain without overflowing
func (d Domain) Mid() float64 {
	return d.Min/2 + d.Max/2
}

// Valid reports whether the domain is finite and ordered
func (d Domain) Valid() bool {
	return isFinite(d.Min) && isFinite(d.Max) && d.Min <= d.Max
}

// Contains reports whether v falls inside the closed domain
func (d Domain) Contains(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// Normalized returns the domain with its bounds in ascending order
func (d Domain) Normalized() Domain {
	if d.Min > d.Max {
		return Domain{Min: d.Max, Max: d.Min}
	}
	return d
}

// Bin is one equal-width interval of the binned variable. Count covers
// [X0, X1) except for the last bin of a partition, which is closed at X1.
type Bin struct {
	X0         float64 `json:"x0"`
	X1         float64 `json:"x1"`
	XMid       float64 `json:"x_mid"`
	Count      int     `json:"count"`
	FraudCount int     `json:"fraud_count"`
	FraudRate  float64 `json:"fraud_rate"`
	FraudRatio float64 `json:"fraud_ratio"`
}

// Point is an (x, y) pair fed to the trend fitter
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Regression is an ordinary least-squares line y = Slope*x + Intercept
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the fitted line at x
func (r Regression) At(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Comparison is the outcome of a two-sample Kolmogorov-Smirnov test
type Comparison struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	SizeA     int     `json:"size_a"`
	SizeB     int     `json:"size_b"`
}

// DensityHistogram holds two series histogrammed on shared edges.
// Edges has len(DensityA)+1 entries.
type DensityHistogram struct {
	Edges    []float64 `json:"edges"`
	DensityA []float64 `json:"density_a"`
	DensityB []float64 `json:"density_b"`
}

// DensityPoint is one grid point of a kernel density estimate
type DensityPoint struct {
	X       float64 `json:"x"`
	Density float64 `json:"density"`
}

// OutlierPoint is a value with the row metadata the outlier strip needs
type OutlierPoint struct {
	Value float64 `json:"value"`
	Flag  uint8   `json:"flag"`
	Row   int     `json:"row"`
}

// OutlierBounds are the quartiles and Tukey fences of a series
type OutlierBounds struct {
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// IsOutlier reports whether v lies strictly outside the fences
func (b OutlierBounds) IsOutlier(v float64) bool {
	return v < b.LowerBound || v > b.UpperBound
}

// OutlierResult partitions points by the IQR fences
type OutlierResult struct {
	Bounds      OutlierBounds  `json:"bounds"`
	Outliers    []OutlierPoint `json:"outliers"`
	NonOutliers []OutlierPoint `json:"non_outliers"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CompareResult bundles the KS test with the two visual density estimates
// for a fraud vs legitimate comparison
type CompareResult struct {
	Comparison Comparison       `json:"comparison"`
	Histogram  DensityHistogram `json:"histogram"`
	Domain     Domain           `json:"domain"`
	FraudKDE   []DensityPoint   `json:"fraud_kde"`
	LegitKDE   []DensityPoint   `json:"legit_kde"`
}

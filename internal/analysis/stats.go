// Package analysis extracts statistics, key metrics and presentation series
// from completed simulation results. Nothing here mutates a result.
package analysis

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoData is returned when a result carries no data points.
	ErrNoData = errors.New("analysis: no data points")
	// ErrNoSimulations is returned for an empty multi-run collection.
	ErrNoSimulations = errors.New("analysis: no simulations")
	// ErrLengthMismatch is returned when per-run series differ in length.
	ErrLengthMismatch = errors.New("analysis: series length mismatch")
)

// Percentiles holds the standard reporting percentiles of a distribution.
type Percentiles struct {
	P10 decimal.Decimal `json:"p10"`
	P25 decimal.Decimal `json:"p25"`
	P50 decimal.Decimal `json:"p50"`
	P75 decimal.Decimal `json:"p75"`
	P90 decimal.Decimal `json:"p90"`
}

// percentileIndex is the nearest-rank index floor(p*n), clamped to the last element.
func percentileIndex(p float64, n int) int {
	i := int(math.Floor(p * float64(n)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// Percentile returns the nearest-rank percentile p (0..1) of values sorted
// ascending.
func Percentile(sorted []decimal.Decimal, p float64) (decimal.Decimal, error) {
	if len(sorted) == 0 {
		return decimal.Zero, ErrNoData
	}
	return sorted[percentileIndex(p, len(sorted))], nil
}

// PercentileFloat is Percentile for float samples.
func PercentileFloat(sorted []float64, p float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, ErrNoData
	}
	return sorted[percentileIndex(p, len(sorted))], nil
}

// SortedDecimals returns an ascending copy of values.
func SortedDecimals(values []decimal.Decimal) []decimal.Decimal {
	out := append([]decimal.Decimal(nil), values...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

// ComputePercentiles sorts values and extracts p10 through p90.
func ComputePercentiles(values []decimal.Decimal) (Percentiles, error) {
	if len(values) == 0 {
		return Percentiles{}, ErrNoData
	}
	s := SortedDecimals(values)
	at := func(p float64) decimal.Decimal { return s[percentileIndex(p, len(s))] }
	return Percentiles{
		P10: at(0.10),
		P25: at(0.25),
		P50: at(0.50),
		P75: at(0.75),
		P90: at(0.90),
	}, nil
}

// GeometricMean is the compound average of periodic rates: the n-th root of
// the product of (1+r), minus one. A period losing everything yields -1.
func GeometricMean(rates []float64) (float64, error) {
	if len(rates) == 0 {
		return 0, ErrNoData
	}
	logSum := 0.0
	for _, r := range rates {
		if 1+r <= 0 {
			return -1, nil
		}
		logSum += math.Log1p(r)
	}
	return math.Expm1(logSum / float64(len(rates))), nil
}

// Mean is the arithmetic mean; zero for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

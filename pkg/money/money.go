package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Epsilon is the near-zero threshold used to clean up residual rounding in
// cash-flow reconciliation. Balances, shortfalls and debts at or below it are
// treated as zero.
var Epsilon = decimal.New(1, -2)

var twelve = decimal.NewFromInt(12)

// IsNearZero reports whether |d| <= Epsilon.
func IsNearZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// ClampZero returns d, or zero if d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Clean snaps near-zero values to exactly zero.
func Clean(d decimal.Decimal) decimal.Decimal {
	if IsNearZero(d) {
		return decimal.Zero
	}
	return d
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Monthly converts an annual amount to monthly
func Monthly(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(twelve)
}

// Annual converts a monthly amount to annual
func Annual(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(twelve)
}

// MonthlyCompounded converts an annual rate to the monthly rate that
// compounds to it: (1+annual)^(1/12) - 1. A loss of 100% or more is a
// total loss every month; NaN stays NaN for the caller to reject.
func MonthlyCompounded(annual float64) float64 {
	if annual <= -1 {
		return -1
	}
	return math.Pow(1+annual, 1.0/12.0) - 1
}

// IsFinite reports whether r is neither NaN nor infinite.
func IsFinite(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0)
}

// MonthlySimple divides an annual rate evenly across twelve months.
func MonthlySimple(annual float64) float64 {
	return annual / 12.0
}

// RealRate applies the Fisher equation: (1+nominal)/(1+inflation) - 1.
func RealRate(nominal, inflation float64) float64 {
	return (1+nominal)/(1+inflation) - 1
}

// Float returns d as a float64, for statistics over currency values.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

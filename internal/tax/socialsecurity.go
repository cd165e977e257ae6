package tax

import (
	"github.com/shopspring/decimal"
)

var (
	half          = decimal.NewFromFloat(0.5)
	eightyFivePct = decimal.NewFromFloat(0.85)
)

// ProvisionalIncome = other income + tax-exempt interest + 1/2 of Social Security benefits
func ProvisionalIncome(otherIncome, taxExemptInterest, benefits decimal.Decimal) decimal.Decimal {
	return otherIncome.Add(taxExemptInterest).Add(benefits.Mul(half))
}

// TaxableSocialSecurity returns the taxable portion of annual benefits.
//   - Provisional income <= threshold 1: 0% taxable
//   - Between thresholds: lesser of 50% of benefits or 50% of the excess over threshold 1
//   - Above threshold 2: lesser of 85% of benefits or
//     85% of the excess over threshold 2 plus the tier-1 amount (capped at 50% of benefits)
func TaxableSocialSecurity(benefits, provisional decimal.Decimal, tables FilingTables) decimal.Decimal {
	if !benefits.IsPositive() || provisional.LessThanOrEqual(tables.SSThreshold1) {
		return decimal.Zero
	}
	if provisional.LessThanOrEqual(tables.SSThreshold2) {
		return decimal.Min(benefits.Mul(half), provisional.Sub(tables.SSThreshold1).Mul(half))
	}
	tier1 := decimal.Min(benefits.Mul(half), tables.SSThreshold2.Sub(tables.SSThreshold1).Mul(half))
	tier2 := provisional.Sub(tables.SSThreshold2).Mul(eightyFivePct)
	return decimal.Min(benefits.Mul(eightyFivePct), tier1.Add(tier2))
}

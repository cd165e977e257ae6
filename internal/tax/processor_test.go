package tax

import (
	"testing"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func assertDecimal(t *testing.T, want float64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Sub(d(want)).Abs().LessThan(d(0.005)), "want %v got %s %v", want, got.String(), msgAndArgs)
}

func TestProcessor_WagesOnlySingle(t *testing.T) {
	p := NewProcessor(domain.FilingSingle)
	result := p.Process(0, Inputs{Wages: d(100000), Withholding: d(15000)})

	assertDecimal(t, 100000, result.AdjustedGrossIncome)
	assertDecimal(t, 85000, result.TaxableOrdinaryIncome)
	// 1192.50 + 4386 + 8035.50
	assertDecimal(t, 13614, result.IncomeTax)
	assertDecimal(t, 7650, result.FICATax)
	assertDecimal(t, 21264, result.TotalTax)
	assertDecimal(t, 6264, result.AmountDue)
	assert.True(t, result.CapitalGainsTax.IsZero())
	assert.True(t, result.NIIT.IsZero())
}

func TestProcessor_RefundWhenOverWithheld(t *testing.T) {
	p := NewProcessor(domain.FilingMarriedJointly)
	result := p.Process(0, Inputs{OtherOrdinary: d(40000), Withholding: d(5000)})
	// taxable 10000 at 10%
	assertDecimal(t, 1000, result.IncomeTax)
	assertDecimal(t, -4000, result.AmountDue)
}

func TestProcessor_PreTaxContributionsReduceOrdinaryIncome(t *testing.T) {
	p := NewProcessor(domain.FilingSingle)
	result := p.Process(0, Inputs{Wages: d(60000), PreTaxContributions: d(20000)})
	assertDecimal(t, 40000, result.OrdinaryIncome)
	assertDecimal(t, 25000, result.TaxableOrdinaryIncome)
	// FICA is levied on gross wages
	assertDecimal(t, 4590, result.FICATax)
}

func TestProcessor_SocialSecurityFoldedIntoOrdinary(t *testing.T) {
	p := NewProcessor(domain.FilingMarriedJointly)
	result := p.Process(0, Inputs{OtherOrdinary: d(30000), SocialSecurity: d(40000)})

	assertDecimal(t, 50000, result.ProvisionalIncome)
	assertDecimal(t, 11100, result.TaxableSocialSecurity)
	assertDecimal(t, 41100, result.OrdinaryIncome)
	assertDecimal(t, 11100, result.TaxableOrdinaryIncome)
	assertDecimal(t, 1110, result.IncomeTax)
}

func TestProcessor_DeductionAbsorbedByOrdinaryFirst(t *testing.T) {
	p := NewProcessor(domain.FilingSingle)
	result := p.Process(0, Inputs{OtherOrdinary: d(5000), RealizedGains: d(20000)})

	assert.True(t, result.TaxableOrdinaryIncome.IsZero())
	assertDecimal(t, 10000, result.TaxableCapitalGains)
	assert.True(t, result.CapitalGainsTax.IsZero(), "gains inside the 0%% band")
	assertDecimal(t, 25000, result.AdjustedGrossIncome)
}

func TestProcessor_CapitalLossCarryover(t *testing.T) {
	p := NewProcessor(domain.FilingSingle)

	year0 := p.Process(0, Inputs{Wages: d(50000), RealizedGains: d(-10000)})
	assertDecimal(t, 3000, year0.CapitalLossDeduction)
	assertDecimal(t, 7000, year0.CapitalLossCarryover)
	assertDecimal(t, 47000, year0.OrdinaryIncome)
	assert.True(t, year0.CapitalLossDeduction.LessThanOrEqual(CapitalLossDeductionCap))

	// Same year again is cached and must not consume more carryover.
	again := p.Process(0, Inputs{Wages: d(50000), RealizedGains: d(-10000)})
	assert.True(t, again.CapitalLossCarryover.Equal(year0.CapitalLossCarryover))
	assertDecimal(t, 7000, p.Carryover())

	year1 := p.Process(1, Inputs{Wages: d(50000)})
	assertDecimal(t, 3000, year1.CapitalLossDeduction)
	assertDecimal(t, 4000, year1.CapitalLossCarryover)

	year2 := p.Process(2, Inputs{Wages: d(50000), RealizedGains: d(5000)})
	assertDecimal(t, 1000, year2.NetCapitalGains)
	assert.True(t, year2.CapitalLossDeduction.IsZero())
	assert.True(t, year2.CapitalLossCarryover.IsZero())
}

func TestProcessor_Penalties(t *testing.T) {
	p := NewProcessor(domain.FilingSingle)
	result := p.Process(0, Inputs{
		TaxDeferredWithdrawals:      d(11000),
		EarlyTaxDeferredWithdrawals: d(10000),
		TaxableRothEarnings:         d(2000),
		EarlyRothEarnings:           d(2000),
		EarlyHSAWithdrawals:         d(1000),
	})
	assertDecimal(t, 1200, result.EarlyWithdrawalPenalty)
	assertDecimal(t, 200, result.HSAPenalty)
	assertDecimal(t, 13000, result.OrdinaryIncome)
}

func TestProcessor_NIIT(t *testing.T) {
	p := NewProcessor(domain.FilingSingle)
	result := p.Process(0, Inputs{Wages: d(180000), Dividends: d(20000), RealizedGains: d(30000)})
	// AGI 230000, NII 50000, excess 30000
	assertDecimal(t, 230000, result.AdjustedGrossIncome)
	assertDecimal(t, 1140, result.NIIT)
}

func TestCalculateCapitalGainsTax_StacksOnOrdinary(t *testing.T) {
	tables := TablesFor(domain.FilingSingle)
	got := CalculateCapitalGainsTax(d(40000), d(20000), tables.CapitalGainsBrackets)
	assertDecimal(t, 1747.5, got)
	assert.True(t, CalculateCapitalGainsTax(d(40000), d(-5), tables.CapitalGainsBrackets).IsZero())
}

func TestEffectiveRateIsNonDecreasing(t *testing.T) {
	for _, status := range []domain.FilingStatus{domain.FilingSingle, domain.FilingMarriedJointly, domain.FilingHeadOfHousehold} {
		tables := TablesFor(status)
		prev := decimal.Zero
		for income := int64(1000); income <= 2000000; income += 7919 {
			taxable := decimal.NewFromInt(income)
			rate := CalculateProgressiveTax(taxable, tables.OrdinaryBrackets).Div(taxable)
			require.True(t, rate.GreaterThanOrEqual(prev), "%s: rate fell at %d", status, income)
			prev = rate
		}
	}
}

func TestCalculateNIITBelowThreshold(t *testing.T) {
	assert.True(t, CalculateNIIT(d(10000), d(150000), d(200000)).IsZero())
	assertDecimal(t, 380, CalculateNIIT(d(10000), d(300000), d(200000)))
}

func TestCalculateFICA(t *testing.T) {
	tests := []struct {
		name  string
		wages float64
		want  float64
	}{
		{"no wages", 0, 0},
		{"below wage base", 50000, 3825},
		// 176100*0.062 + 300000*0.0145 + 100000*0.009
		{"above wage base and additional threshold", 300000, 10918.2 + 4350 + 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, CalculateFICA(d(tt.wages), d(200000)))
		})
	}
}

package tax

import (
	"testing"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTablesAreContiguous(t *testing.T) {
	for _, status := range []domain.FilingStatus{domain.FilingSingle, domain.FilingMarriedJointly, domain.FilingHeadOfHousehold} {
		tables := TablesFor(status)
		for _, set := range [][]TaxBracket{tables.OrdinaryBrackets, tables.CapitalGainsBrackets} {
			assert.True(t, set[0].Min.IsZero())
			for i := 1; i < len(set); i++ {
				assert.True(t, set[i].Min.Equal(set[i-1].Max), "%s bracket %d", status, i)
				assert.True(t, set[i].Rate.GreaterThan(set[i-1].Rate))
			}
		}
	}
	assert.Equal(t, domain.FilingSingle, TablesFor("unknown").Status)
}

func TestAnnualContributionLimit(t *testing.T) {
	tests := []struct {
		name  string
		group ContributionGroup
		age   float64
		want  int64
	}{
		{"401k base", Group401k, 35, 23500},
		{"401k catch-up", Group401k, 50, 31000},
		{"401k super catch-up", Group401k, 61, 34750},
		{"401k after super catch-up window", Group401k, 64, 31000},
		{"ira base", GroupIRA, 49.9, 7000},
		{"ira catch-up", GroupIRA, 50, 8000},
		{"hsa base", GroupHSA, 40, 4300},
		{"hsa catch-up", GroupHSA, 55, 5300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, ok := AnnualContributionLimit(tt.group, tt.age)
			assert.True(t, ok)
			assert.Equal(t, tt.want, limit.IntPart())
		})
	}
	_, ok := AnnualContributionLimit(GroupNone, 40)
	assert.False(t, ok)
}

func TestGroupsAndTreatment(t *testing.T) {
	assert.Equal(t, Group401k, GroupFor(domain.AccountRoth401k))
	assert.Equal(t, GroupIRA, GroupFor(domain.AccountRothIRA))
	assert.Equal(t, GroupNone, GroupFor(domain.AccountSavings))
	assert.True(t, IsPreTax(domain.AccountHSA))
	assert.False(t, IsPreTax(domain.AccountRothIRA))
	assert.True(t, IsRMDEligible(domain.AccountIRA))
	assert.False(t, IsRMDEligible(domain.AccountHSA))
}

func TestRMDCalculator(t *testing.T) {
	calc := NewRMDCalculator(1955)
	assert.Equal(t, 73, calc.StartAge())
	assert.True(t, calc.RequiredDistribution(d(100000), 72).IsZero())
	assertDecimal(t, 100000/26.5, calc.RequiredDistribution(d(100000), 73))
	assertDecimal(t, 100000/6.0, calc.RequiredDistribution(d(100000), 101))
	assertDecimal(t, 100000/4.9, calc.RequiredDistribution(d(100000), 104))
	assertDecimal(t, 100000/2.3, calc.RequiredDistribution(d(100000), 119))
	assertDecimal(t, 100000/2.0, calc.RequiredDistribution(d(100000), 120))
	assertDecimal(t, 100000/2.0, calc.RequiredDistribution(d(100000), 127))
	for age := 73; age < maxTableAge; age++ {
		assert.True(t, uniformLifetimeTable[age+1].LessThan(uniformLifetimeTable[age]), "period should shrink after age %d", age)
	}
	assert.True(t, calc.RequiredDistribution(d(0), 80).IsZero())
}

func TestTaxableSocialSecurity(t *testing.T) {
	single := TablesFor(domain.FilingSingle)
	tests := []struct {
		name        string
		benefits    float64
		provisional float64
		want        float64
	}{
		{"below first threshold", 20000, 24000, 0},
		{"between thresholds", 20000, 30000, 2500},
		{"above second threshold", 30000, 50000, 4500 + 13600},
		{"capped at 85 percent", 20000, 200000, 17000},
		{"no benefits", 0, 90000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, TaxableSocialSecurity(d(tt.benefits), d(tt.provisional), single))
		})
	}
	assertDecimal(t, 50000, ProvisionalIncome(d(30000), d(0), d(40000)))
}

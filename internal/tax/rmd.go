package tax

import (
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// maxTableAge is the last listed age; older ages use its period.
const maxTableAge = 120

// uniformLifetimeTable holds IRS Uniform Lifetime Table distribution periods.
var uniformLifetimeTable = map[int]decimal.Decimal{
	72:  decimal.NewFromFloat(27.4),
	73:  decimal.NewFromFloat(26.5),
	74:  decimal.NewFromFloat(25.5),
	75:  decimal.NewFromFloat(24.6),
	76:  decimal.NewFromFloat(23.7),
	77:  decimal.NewFromFloat(22.9),
	78:  decimal.NewFromFloat(22.0),
	79:  decimal.NewFromFloat(21.1),
	80:  decimal.NewFromFloat(20.2),
	81:  decimal.NewFromFloat(19.4),
	82:  decimal.NewFromFloat(18.5),
	83:  decimal.NewFromFloat(17.7),
	84:  decimal.NewFromFloat(16.8),
	85:  decimal.NewFromFloat(16.0),
	86:  decimal.NewFromFloat(15.2),
	87:  decimal.NewFromFloat(14.4),
	88:  decimal.NewFromFloat(13.7),
	89:  decimal.NewFromFloat(12.9),
	90:  decimal.NewFromFloat(12.2),
	91:  decimal.NewFromFloat(11.5),
	92:  decimal.NewFromFloat(10.8),
	93:  decimal.NewFromFloat(10.1),
	94:  decimal.NewFromFloat(9.5),
	95:  decimal.NewFromFloat(8.9),
	96:  decimal.NewFromFloat(8.4),
	97:  decimal.NewFromFloat(7.8),
	98:  decimal.NewFromFloat(7.3),
	99:  decimal.NewFromFloat(6.8),
	100: decimal.NewFromFloat(6.4),
	101: decimal.NewFromFloat(6.0),
	102: decimal.NewFromFloat(5.6),
	103: decimal.NewFromFloat(5.2),
	104: decimal.NewFromFloat(4.9),
	105: decimal.NewFromFloat(4.6),
	106: decimal.NewFromFloat(4.3),
	107: decimal.NewFromFloat(4.1),
	108: decimal.NewFromFloat(3.9),
	109: decimal.NewFromFloat(3.7),
	110: decimal.NewFromFloat(3.5),
	111: decimal.NewFromFloat(3.4),
	112: decimal.NewFromFloat(3.3),
	113: decimal.NewFromFloat(3.1),
	114: decimal.NewFromFloat(3.0),
	115: decimal.NewFromFloat(2.9),
	116: decimal.NewFromFloat(2.8),
	117: decimal.NewFromFloat(2.7),
	118: decimal.NewFromFloat(2.5),
	119: decimal.NewFromFloat(2.3),
	120: decimal.NewFromFloat(2.0),
}

// RMDCalculator calculates Required Minimum Distributions
type RMDCalculator struct {
	BirthYear int
}

// NewRMDCalculator creates a new RMD calculator
func NewRMDCalculator(birthYear int) *RMDCalculator {
	return &RMDCalculator{BirthYear: birthYear}
}

// StartAge returns the age when RMDs start for this birth year
func (rmd *RMDCalculator) StartAge() int {
	return dateutil.GetRMDAge(rmd.BirthYear)
}

// RequiredDistribution returns the annual RMD for a prior-year-end balance.
func (rmd *RMDCalculator) RequiredDistribution(balance decimal.Decimal, age int) decimal.Decimal {
	if age < rmd.StartAge() || !balance.IsPositive() {
		return decimal.Zero
	}
	if period, ok := uniformLifetimeTable[age]; ok {
		return balance.Div(period)
	}
	if age > maxTableAge {
		return balance.Div(uniformLifetimeTable[maxTableAge])
	}
	return decimal.Zero
}

// IsRMDEligible reports whether an account type is subject to RMDs.
func IsRMDEligible(t domain.AccountType) bool {
	return t == domain.Account401k || t == domain.AccountIRA
}

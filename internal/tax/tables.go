package tax

import (
	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX TABLE ASSUMPTIONS:
//
// 1. Federal brackets, capital-gains brackets and standard deductions use 2025
//    figures (Rev. Proc. 2024-40) for every projection year. The simulation runs
//    in real dollars, so constant tables behave as if inflation-indexed.
//
// 2. NIIT, Social Security taxability and Additional Medicare thresholds are
//    statutory and not indexed.
//
// 3. Contribution limits use 2025 IRS limits including SECURE 2.0 catch-up rules.

// TaxBracket represents one marginal-rate band
type TaxBracket struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// unbounded caps the top bracket.
var unbounded = decimal.New(1, 15)

// FilingTables is the set of thresholds that depend on filing status.
type FilingTables struct {
	Status                      domain.FilingStatus
	OrdinaryBrackets            []TaxBracket
	CapitalGainsBrackets        []TaxBracket
	StandardDeduction           decimal.Decimal
	NIITThreshold               decimal.Decimal
	SSThreshold1                decimal.Decimal
	SSThreshold2                decimal.Decimal
	AdditionalMedicareThreshold decimal.Decimal
}

// Rates and caps shared by every filing status.
var (
	NIITRate                   = decimal.NewFromFloat(0.038)
	CapitalLossDeductionCap    = decimal.NewFromInt(3000)
	EarlyWithdrawalPenaltyRate = decimal.NewFromFloat(0.10)
	HSAPenaltyRate             = decimal.NewFromFloat(0.20)

	SSWageBase             = decimal.NewFromInt(176100)
	SSTaxRate              = decimal.NewFromFloat(0.062)
	MedicareTaxRate        = decimal.NewFromFloat(0.0145)
	AdditionalMedicareRate = decimal.NewFromFloat(0.009)
)

const (
	// EarlyWithdrawalAge is the age below which retirement-account withdrawals are penalized.
	EarlyWithdrawalAge = 59.5
	// HSAPenaltyAge is the age below which non-medical HSA withdrawals are penalized.
	HSAPenaltyAge = 65.0
)

func brackets(rates []float64, bounds ...int64) []TaxBracket {
	out := make([]TaxBracket, len(rates))
	lower := decimal.Zero
	for i, r := range rates {
		upper := unbounded
		if i < len(bounds) {
			upper = decimal.NewFromInt(bounds[i])
		}
		out[i] = TaxBracket{Min: lower, Max: upper, Rate: decimal.NewFromFloat(r)}
		lower = upper
	}
	return out
}

var ordinaryRates = []float64{0.10, 0.12, 0.22, 0.24, 0.32, 0.35, 0.37}
var capitalGainsRates = []float64{0, 0.15, 0.20}

var filingTables = map[domain.FilingStatus]FilingTables{
	domain.FilingSingle: {
		Status:                      domain.FilingSingle,
		OrdinaryBrackets:            brackets(ordinaryRates, 11925, 48475, 103350, 197300, 250525, 626350),
		CapitalGainsBrackets:        brackets(capitalGainsRates, 48350, 533400),
		StandardDeduction:           decimal.NewFromInt(15000),
		NIITThreshold:               decimal.NewFromInt(200000),
		SSThreshold1:                decimal.NewFromInt(25000),
		SSThreshold2:                decimal.NewFromInt(34000),
		AdditionalMedicareThreshold: decimal.NewFromInt(200000),
	},
	domain.FilingMarriedJointly: {
		Status:                      domain.FilingMarriedJointly,
		OrdinaryBrackets:            brackets(ordinaryRates, 23850, 96950, 206700, 394600, 501050, 751600),
		CapitalGainsBrackets:        brackets(capitalGainsRates, 96700, 600050),
		StandardDeduction:           decimal.NewFromInt(30000),
		NIITThreshold:               decimal.NewFromInt(250000),
		SSThreshold1:                decimal.NewFromInt(32000),
		SSThreshold2:                decimal.NewFromInt(44000),
		AdditionalMedicareThreshold: decimal.NewFromInt(250000),
	},
	domain.FilingHeadOfHousehold: {
		Status:                      domain.FilingHeadOfHousehold,
		OrdinaryBrackets:            brackets(ordinaryRates, 17000, 64850, 103350, 197300, 250500, 626350),
		CapitalGainsBrackets:        brackets(capitalGainsRates, 64750, 566700),
		StandardDeduction:           decimal.NewFromInt(22500),
		NIITThreshold:               decimal.NewFromInt(200000),
		SSThreshold1:                decimal.NewFromInt(25000),
		SSThreshold2:                decimal.NewFromInt(34000),
		AdditionalMedicareThreshold: decimal.NewFromInt(200000),
	},
}

// TablesFor returns the tables for a filing status, defaulting to single.
func TablesFor(status domain.FilingStatus) FilingTables {
	if t, ok := filingTables[status]; ok {
		return t
	}
	return filingTables[domain.FilingSingle]
}

// ContributionGroup is a set of account types sharing one statutory limit.
type ContributionGroup string

const (
	GroupNone ContributionGroup = ""
	Group401k ContributionGroup = "401k"
	GroupIRA  ContributionGroup = "ira"
	GroupHSA  ContributionGroup = "hsa"
)

// GroupFor maps an account type to its statutory limit group.
func GroupFor(t domain.AccountType) ContributionGroup {
	switch t {
	case domain.Account401k, domain.AccountRoth401k:
		return Group401k
	case domain.AccountIRA, domain.AccountRothIRA:
		return GroupIRA
	case domain.AccountHSA:
		return GroupHSA
	default:
		return GroupNone
	}
}

// AnnualContributionLimit returns the group's limit for someone of the given age.
// The second return is false when the group has no statutory limit.
func AnnualContributionLimit(group ContributionGroup, age float64) (decimal.Decimal, bool) {
	switch group {
	case Group401k:
		limit := decimal.NewFromInt(23500)
		switch {
		case age >= 60 && age < 64:
			limit = limit.Add(decimal.NewFromInt(11250))
		case age >= 50:
			limit = limit.Add(decimal.NewFromInt(7500))
		}
		return limit, true
	case GroupIRA:
		limit := decimal.NewFromInt(7000)
		if age >= 50 {
			limit = limit.Add(decimal.NewFromInt(1000))
		}
		return limit, true
	case GroupHSA:
		limit := decimal.NewFromInt(4300)
		if age >= 55 {
			limit = limit.Add(decimal.NewFromInt(1000))
		}
		return limit, true
	default:
		return decimal.Zero, false
	}
}

// IsPreTax reports whether contributions to the account type reduce ordinary income.
func IsPreTax(t domain.AccountType) bool {
	switch t {
	case domain.Account401k, domain.AccountIRA, domain.AccountHSA:
		return true
	default:
		return false
	}
}

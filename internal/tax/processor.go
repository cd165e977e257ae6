package tax

import (
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// Inputs accumulates one simulated year's tax-relevant flows.
type Inputs struct {
	Wages          decimal.Decimal
	OtherOrdinary  decimal.Decimal
	SocialSecurity decimal.Decimal
	TaxExempt      decimal.Decimal

	TaxableInterest decimal.Decimal
	Dividends       decimal.Decimal

	// TaxDeferredWithdrawals includes RMDs and HSA withdrawals.
	TaxDeferredWithdrawals decimal.Decimal
	// TaxableRothEarnings are Roth earnings withdrawn before qualifying age.
	TaxableRothEarnings decimal.Decimal
	RealizedGains       decimal.Decimal
	PreTaxContributions decimal.Decimal
	Withholding         decimal.Decimal

	EarlyTaxDeferredWithdrawals decimal.Decimal
	EarlyRothEarnings           decimal.Decimal
	EarlyHSAWithdrawals         decimal.Decimal
}

// Processor computes annual tax liabilities for one run. It owns the
// capital-loss carryover, so a Processor must never be shared across runs.
type Processor struct {
	tables    FilingTables
	carryover decimal.Decimal

	cached   *domain.TaxesData
	lastYear int
}

// NewProcessor creates a processor for the filing status.
func NewProcessor(status domain.FilingStatus) *Processor {
	return &Processor{tables: TablesFor(status), lastYear: -1}
}

// Tables exposes the filing tables in use.
func (p *Processor) Tables() FilingTables {
	return p.tables
}

// Carryover returns the capital loss carried into the next year.
func (p *Processor) Carryover() decimal.Decimal {
	return p.carryover
}

// Process computes the given simulation year's taxes. Calling it again for
// the same year returns the cached result without touching the carryover.
func (p *Processor) Process(year int, in Inputs) domain.TaxesData {
	if p.cached != nil && p.lastYear == year {
		return *p.cached
	}

	ordinary := money.Sum(in.Wages, in.OtherOrdinary, in.TaxableInterest, in.Dividends,
		in.TaxDeferredWithdrawals, in.TaxableRothEarnings).Sub(in.PreTaxContributions)
	ordinary = money.ClampZero(ordinary)

	netGains, lossDeduction, carryover := applyCarryover(in.RealizedGains, p.carryover)
	ordinary = money.ClampZero(ordinary.Sub(lossDeduction))

	provisional := ProvisionalIncome(ordinary.Add(netGains), in.TaxExempt, in.SocialSecurity)
	taxableSS := TaxableSocialSecurity(in.SocialSecurity, provisional, p.tables)
	ordinary = ordinary.Add(taxableSS)

	agi := ordinary.Add(netGains)

	// Deduction is absorbed by ordinary income first, the remainder against gains.
	deduction := p.tables.StandardDeduction
	taxableOrdinary := money.ClampZero(ordinary.Sub(deduction))
	remainingDeduction := money.ClampZero(deduction.Sub(ordinary))
	taxableGains := money.ClampZero(netGains.Sub(remainingDeduction))

	incomeTax := CalculateProgressiveTax(taxableOrdinary, p.tables.OrdinaryBrackets)
	gainsTax := CalculateCapitalGainsTax(taxableOrdinary, taxableGains, p.tables.CapitalGainsBrackets)

	nii := money.Sum(in.TaxableInterest, in.Dividends, netGains)
	niit := CalculateNIIT(nii, agi, p.tables.NIITThreshold)

	earlyPenalty := in.EarlyTaxDeferredWithdrawals.Add(in.EarlyRothEarnings).Mul(EarlyWithdrawalPenaltyRate)
	hsaPenalty := in.EarlyHSAWithdrawals.Mul(HSAPenaltyRate)
	fica := CalculateFICA(in.Wages, p.tables.AdditionalMedicareThreshold)

	total := money.Sum(incomeTax, gainsTax, niit, earlyPenalty, hsaPenalty, fica)

	effective := decimal.Zero
	if taxableOrdinary.IsPositive() {
		effective = incomeTax.Div(taxableOrdinary)
	}

	result := domain.TaxesData{
		Year:                   year,
		OrdinaryIncome:         ordinary,
		ProvisionalIncome:      provisional,
		TaxableSocialSecurity:  taxableSS,
		NetCapitalGains:        netGains,
		CapitalLossDeduction:   lossDeduction,
		CapitalLossCarryover:   carryover,
		AdjustedGrossIncome:    agi,
		StandardDeduction:      deduction,
		TaxableOrdinaryIncome:  taxableOrdinary,
		TaxableCapitalGains:    taxableGains,
		NetInvestmentIncome:    nii,
		IncomeTax:              incomeTax,
		CapitalGainsTax:        gainsTax,
		NIIT:                   niit,
		EarlyWithdrawalPenalty: earlyPenalty,
		HSAPenalty:             hsaPenalty,
		FICATax:                fica,
		TotalTax:               total,
		Withholding:            in.Withholding,
		AmountDue:              total.Sub(in.Withholding),
		EffectiveIncomeTaxRate: effective,
	}

	p.carryover = carryover
	p.cached = &result
	p.lastYear = year
	return result
}

// applyCarryover nets realized gains against the loss carried in. It returns
// the taxable net gain, the loss deducted against ordinary income this year
// (never above the annual cap) and the loss carried forward.
func applyCarryover(realized, carryIn decimal.Decimal) (gains, deduction, carryOut decimal.Decimal) {
	net := realized.Sub(carryIn)
	if !net.IsNegative() {
		return net, decimal.Zero, decimal.Zero
	}
	loss := net.Neg()
	deduction = decimal.Min(loss, CapitalLossDeductionCap)
	return decimal.Zero, deduction, loss.Sub(deduction)
}

// CalculateProgressiveTax sums (min(income, max) - min) * rate over the brackets below income.
func CalculateProgressiveTax(income decimal.Decimal, brackets []TaxBracket) decimal.Decimal {
	total := decimal.Zero
	for _, bracket := range brackets {
		if income.LessThanOrEqual(bracket.Min) {
			break
		}
		inBracket := decimal.Min(income, bracket.Max).Sub(bracket.Min)
		if inBracket.IsPositive() {
			total = total.Add(inBracket.Mul(bracket.Rate))
		}
	}
	return total
}

// CalculateCapitalGainsTax stacks gains on top of ordinary taxable income and
// taxes only the gains slice at the gains rates.
func CalculateCapitalGainsTax(ordinaryTaxable, gains decimal.Decimal, brackets []TaxBracket) decimal.Decimal {
	if !gains.IsPositive() {
		return decimal.Zero
	}
	low := ordinaryTaxable
	high := ordinaryTaxable.Add(gains)
	total := decimal.Zero
	for _, bracket := range brackets {
		from := decimal.Max(low, bracket.Min)
		to := decimal.Min(high, bracket.Max)
		if to.GreaterThan(from) {
			total = total.Add(to.Sub(from).Mul(bracket.Rate))
		}
	}
	return total
}

// CalculateNIIT returns 3.8% of the lesser of net investment income and AGI over the threshold.
func CalculateNIIT(nii, agi, threshold decimal.Decimal) decimal.Decimal {
	excess := agi.Sub(threshold)
	if !excess.IsPositive() || !nii.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(nii, excess).Mul(NIITRate)
}

// CalculateFICA calculates Social Security and Medicare payroll taxes on wages.
func CalculateFICA(wages, additionalThreshold decimal.Decimal) decimal.Decimal {
	if !wages.IsPositive() {
		return decimal.Zero
	}
	ssTax := decimal.Min(wages, SSWageBase).Mul(SSTaxRate)
	medicareTax := wages.Mul(MedicareTaxRate)
	additional := money.ClampZero(wages.Sub(additionalThreshold)).Mul(AdditionalMedicareRate)
	return ssTax.Add(medicareTax).Add(additional)
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Phase is the household's lifecycle phase.
type Phase string

const (
	PhaseAccumulation Phase = "accumulation"
	PhaseRetirement   Phase = "retirement"
)

// SimulationMode identifies how returns were generated for a run.
type SimulationMode string

const (
	ModeDeterministic    SimulationMode = "deterministic"
	ModeMonteCarlo       SimulationMode = "monte_carlo"
	ModeHistorical       SimulationMode = "historical_backtest"
	ModeSeededHistorical SimulationMode = "seeded_historical"
)

// AssetAmounts splits a currency amount across asset classes.
type AssetAmounts struct {
	Stocks decimal.Decimal `json:"stocks"`
	Bonds  decimal.Decimal `json:"bonds"`
	Cash   decimal.Decimal `json:"cash"`
}

// Total returns the sum across asset classes.
func (a AssetAmounts) Total() decimal.Decimal {
	return a.Stocks.Add(a.Bonds).Add(a.Cash)
}

// Add returns the element-wise sum.
func (a AssetAmounts) Add(b AssetAmounts) AssetAmounts {
	return AssetAmounts{
		Stocks: a.Stocks.Add(b.Stocks),
		Bonds:  a.Bonds.Add(b.Bonds),
		Cash:   a.Cash.Add(b.Cash),
	}
}

// AssetRates holds one rate per asset class as annual or monthly fractions.
type AssetRates struct {
	Stocks float64 `json:"stocks"`
	Bonds  float64 `json:"bonds"`
	Cash   float64 `json:"cash"`
}

// AccountSnapshot is one account's state at the end of a period.
type AccountSnapshot struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              AccountType     `json:"type"`
	Balance           decimal.Decimal `json:"balance"`
	Assets            AssetAmounts    `json:"assets"`
	CostBasis         decimal.Decimal `json:"cost_basis,omitempty"`
	ContributionBasis decimal.Decimal `json:"contribution_basis,omitempty"`
	// Cumulative totals since simulation start.
	TotalContributions     decimal.Decimal `json:"total_contributions"`
	TotalWithdrawals       decimal.Decimal `json:"total_withdrawals"`
	TotalRealizedGains     decimal.Decimal `json:"total_realized_gains"`
	TotalRMDs              decimal.Decimal `json:"total_rmds"`
	TotalEarningsWithdrawn decimal.Decimal `json:"total_earnings_withdrawn"`
	TotalReturns           decimal.Decimal `json:"total_returns"`
}

// PortfolioSnapshot aggregates all accounts plus the period's flows.
type PortfolioSnapshot struct {
	TotalValue decimal.Decimal   `json:"total_value"`
	Assets     AssetAmounts      `json:"assets"`
	Accounts   []AccountSnapshot `json:"accounts"`
	// Flows during the period.
	Contributions     decimal.Decimal `json:"contributions"`
	Withdrawals       decimal.Decimal `json:"withdrawals"`
	RealizedGains     decimal.Decimal `json:"realized_gains"`
	EarningsWithdrawn decimal.Decimal `json:"earnings_withdrawn"`
	RMDs              decimal.Decimal `json:"rmds"`
}

// IncomesSnapshot is the period's income by tax category.
type IncomesSnapshot struct {
	TotalGross     decimal.Decimal            `json:"total_gross"`
	Withholding    decimal.Decimal            `json:"withholding"`
	Wages          decimal.Decimal            `json:"wages"`
	SocialSecurity decimal.Decimal            `json:"social_security"`
	Pension        decimal.Decimal            `json:"pension"`
	Exempt         decimal.Decimal            `json:"exempt"`
	ByID           map[string]decimal.Decimal `json:"by_id,omitempty"`
}

// ExpensesSnapshot is the period's outflows excluding taxes.
type ExpensesSnapshot struct {
	Total             decimal.Decimal            `json:"total"`
	DebtPayments      decimal.Decimal            `json:"debt_payments"`
	LoanPayments      decimal.Decimal            `json:"loan_payments"`
	AssetPurchases    decimal.Decimal            `json:"asset_purchases"`
	AssetSaleProceeds decimal.Decimal            `json:"asset_sale_proceeds"`
	ByID              map[string]decimal.Decimal `json:"by_id,omitempty"`
}

// DebtStatus is a debt's lifecycle state.
type DebtStatus string

const (
	DebtPending DebtStatus = "pending"
	DebtActive  DebtStatus = "active"
	DebtPaidOff DebtStatus = "paid_off"
)

// DebtSnapshot is a debt's state at the end of a period.
type DebtSnapshot struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         DebtStatus      `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	UnpaidInterest decimal.Decimal `json:"unpaid_interest"`
	InterestPaid   decimal.Decimal `json:"interest_paid"`
	PrincipalPaid  decimal.Decimal `json:"principal_paid"`
}

// AssetStatus is a physical asset's lifecycle state.
type AssetStatus string

const (
	AssetPending AssetStatus = "pending"
	AssetOwned   AssetStatus = "owned"
	AssetSold    AssetStatus = "sold"
)

// AssetSnapshot is a physical asset's state at the end of a period.
type AssetSnapshot struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       AssetStatus     `json:"status"`
	MarketValue  decimal.Decimal `json:"market_value"`
	LoanBalance  decimal.Decimal `json:"loan_balance"`
	Equity       decimal.Decimal `json:"equity"`
	SaleProceeds decimal.Decimal `json:"sale_proceeds,omitempty"`
	CapitalGain  decimal.Decimal `json:"capital_gain,omitempty"`
}

// ReturnsSnapshot records the annual rates in force and the amounts they produced.
type ReturnsSnapshot struct {
	Rates          AssetRates   `json:"rates"`
	Yields         AssetRates   `json:"yields"`
	Inflation      float64      `json:"inflation"`
	Amounts        AssetAmounts `json:"amounts"`
	YieldAmounts   AssetAmounts `json:"yield_amounts"`
	HistoricalYear int          `json:"historical_year,omitempty"`
}

// TaxesData is one simulated year's computed tax picture.
type TaxesData struct {
	Year                  int             `json:"year"`
	OrdinaryIncome        decimal.Decimal `json:"ordinary_income"`
	ProvisionalIncome     decimal.Decimal `json:"provisional_income"`
	TaxableSocialSecurity decimal.Decimal `json:"taxable_social_security"`
	NetCapitalGains       decimal.Decimal `json:"net_capital_gains"`
	CapitalLossDeduction  decimal.Decimal `json:"capital_loss_deduction"`
	CapitalLossCarryover  decimal.Decimal `json:"capital_loss_carryover"`
	AdjustedGrossIncome   decimal.Decimal `json:"adjusted_gross_income"`
	StandardDeduction     decimal.Decimal `json:"standard_deduction"`
	TaxableOrdinaryIncome decimal.Decimal `json:"taxable_ordinary_income"`
	TaxableCapitalGains   decimal.Decimal `json:"taxable_capital_gains"`
	NetInvestmentIncome   decimal.Decimal `json:"net_investment_income"`

	IncomeTax              decimal.Decimal `json:"income_tax"`
	CapitalGainsTax        decimal.Decimal `json:"capital_gains_tax"`
	NIIT                   decimal.Decimal `json:"niit"`
	EarlyWithdrawalPenalty decimal.Decimal `json:"early_withdrawal_penalty"`
	HSAPenalty             decimal.Decimal `json:"hsa_penalty"`
	FICATax                decimal.Decimal `json:"fica_tax"`
	TotalTax               decimal.Decimal `json:"total_tax"`
	Withholding            decimal.Decimal `json:"withholding"`
	// AmountDue is positive when owed and negative for a refund.
	AmountDue              decimal.Decimal `json:"amount_due"`
	EffectiveIncomeTaxRate decimal.Decimal `json:"effective_income_tax_rate"`
}

// SimulationDataPoint is an immutable snapshot of one reporting period.
type SimulationDataPoint struct {
	Date           time.Time         `json:"date"`
	Age            float64           `json:"age"`
	Year           int               `json:"year"`
	Phase          Phase             `json:"phase"`
	Portfolio      PortfolioSnapshot `json:"portfolio"`
	Incomes        IncomesSnapshot   `json:"incomes"`
	Expenses       ExpensesSnapshot  `json:"expenses"`
	Debts          []DebtSnapshot    `json:"debts,omitempty"`
	PhysicalAssets []AssetSnapshot   `json:"physical_assets,omitempty"`
	Taxes          *TaxesData        `json:"taxes,omitempty"`
	Returns        ReturnsSnapshot   `json:"returns"`
	// Shortfall is cash demand the portfolio could not cover.
	Shortfall decimal.Decimal `json:"shortfall"`
}

// PhaseTransition records a change of lifecycle phase.
type PhaseTransition struct {
	Age  float64   `json:"age"`
	Date time.Time `json:"date"`
	From Phase     `json:"from"`
	To   Phase     `json:"to"`
}

// HistoricalSpan is a contiguous run of dataset years replayed by a provider.
type HistoricalSpan struct {
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year"`
}

// SimulationContext describes how a result was produced. It holds only
// values derived from the run's inputs, so rerunning with the same inputs
// reproduces it exactly.
type SimulationContext struct {
	RunID              uuid.UUID          `json:"run_id"`
	Mode               SimulationMode     `json:"mode"`
	Seed               int64              `json:"seed"`
	StartDate          time.Time          `json:"start_date"`
	StartAge           float64            `json:"start_age"`
	LifeExpectancy     float64            `json:"life_expectancy"`
	RetirementStrategy RetirementStrategy `json:"retirement_strategy"`
	HistoricalSpans    []HistoricalSpan   `json:"historical_spans,omitempty"`
	PhaseTransitions   []PhaseTransition  `json:"phase_transitions,omitempty"`
	// Depleted is set when the portfolio ran out before the horizon.
	Depleted     bool    `json:"depleted"`
	DepletionAge float64 `json:"depletion_age,omitempty"`
}

// SimulationResult is the ordered output of one run.
type SimulationResult struct {
	Context SimulationContext     `json:"context"`
	Data    []SimulationDataPoint `json:"data"`
}

// Final returns the last data point, or false when there is none.
func (r *SimulationResult) Final() (SimulationDataPoint, bool) {
	if r == nil || len(r.Data) == 0 {
		return SimulationDataPoint{}, false
	}
	return r.Data[len(r.Data)-1], true
}

// SeededResult pairs a trial seed (or historical start year) with its result.
type SeededResult struct {
	Seed   int64             `json:"seed"`
	Result *SimulationResult `json:"result"`
}

// MultiSimulationResult is a seed-indexed collection of runs.
type MultiSimulationResult struct {
	BatchID     uuid.UUID      `json:"batch_id"`
	Mode        SimulationMode `json:"mode"`
	GeneratedAt time.Time      `json:"generated_at"`
	Simulations []SeededResult `json:"simulations"`
}

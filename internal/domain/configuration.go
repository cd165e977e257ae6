package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilingStatus selects the tax tables used for a household.
type FilingStatus string

const (
	FilingSingle          FilingStatus = "single"
	FilingMarriedJointly  FilingStatus = "married_filing_jointly"
	FilingHeadOfHousehold FilingStatus = "head_of_household"
)

// Configuration is the complete, validated input to a simulation run.
type Configuration struct {
	Timeline             Timeline              `yaml:"timeline" json:"timeline"`
	FilingStatus         FilingStatus          `yaml:"filing_status" json:"filing_status"`
	MarketAssumptions    MarketAssumptions     `yaml:"market_assumptions" json:"market_assumptions"`
	Historical           HistoricalSettings    `yaml:"historical,omitempty" json:"historical,omitempty"`
	Accounts             []AccountConfig       `yaml:"accounts" json:"accounts"`
	Incomes              []IncomeConfig        `yaml:"incomes,omitempty" json:"incomes,omitempty"`
	Expenses             []ExpenseConfig       `yaml:"expenses,omitempty" json:"expenses,omitempty"`
	Debts                []DebtConfig          `yaml:"debts,omitempty" json:"debts,omitempty"`
	PhysicalAssets       []PhysicalAssetConfig `yaml:"physical_assets,omitempty" json:"physical_assets,omitempty"`
	ContributionRules    []ContributionRule    `yaml:"contribution_rules,omitempty" json:"contribution_rules,omitempty"`
	ContributionSettings ContributionSettings  `yaml:"contribution_settings,omitempty" json:"contribution_settings,omitempty"`
	// WithdrawalOrder overrides the default shortfall liquidation order by account ID.
	WithdrawalOrder []string `yaml:"withdrawal_order,omitempty" json:"withdrawal_order,omitempty"`
}

// RetirementStrategyType selects how the phase identifier decides retirement.
type RetirementStrategyType string

const (
	StrategyFixedAge  RetirementStrategyType = "fixed_age"
	StrategySWRTarget RetirementStrategyType = "swr_target"
)

// RetirementStrategy configures the accumulation/retirement state machine.
type RetirementStrategy struct {
	Type               RetirementStrategyType `yaml:"type" json:"type"`
	RetirementAge      float64                `yaml:"retirement_age,omitempty" json:"retirement_age,omitempty"`
	SafeWithdrawalRate float64                `yaml:"safe_withdrawal_rate,omitempty" json:"safe_withdrawal_rate,omitempty"`
}

// Timeline bounds the simulated horizon.
type Timeline struct {
	CurrentAge     float64 `yaml:"current_age" json:"current_age"`
	LifeExpectancy float64 `yaml:"life_expectancy" json:"life_expectancy"`
	// StartDate defaults to the first day of the current month when zero.
	StartDate          time.Time          `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	RetirementStrategy RetirementStrategy `yaml:"retirement_strategy" json:"retirement_strategy"`
}

// TotalMonths returns the number of simulated months in the horizon.
func (t Timeline) TotalMonths() int {
	months := int((t.LifeExpectancy - t.CurrentAge) * 12)
	if months < 0 {
		return 0
	}
	return months
}

// MarketAssumptions holds nominal expected returns, yields and volatilities.
// All rates are annual fractions (0.07 = 7%).
type MarketAssumptions struct {
	StockReturn         float64 `yaml:"stock_return" json:"stock_return"`
	BondReturn          float64 `yaml:"bond_return" json:"bond_return"`
	CashReturn          float64 `yaml:"cash_return" json:"cash_return"`
	Inflation           float64 `yaml:"inflation" json:"inflation"`
	StockYield          float64 `yaml:"stock_yield" json:"stock_yield"`
	BondYield           float64 `yaml:"bond_yield" json:"bond_yield"`
	CashYield           float64 `yaml:"cash_yield" json:"cash_yield"`
	StockVolatility     float64 `yaml:"stock_volatility" json:"stock_volatility"`
	BondVolatility      float64 `yaml:"bond_volatility" json:"bond_volatility"`
	CashVolatility      float64 `yaml:"cash_volatility" json:"cash_volatility"`
	InflationVolatility float64 `yaml:"inflation_volatility" json:"inflation_volatility"`
}

// DefaultMarketAssumptions returns long-run US market assumptions.
func DefaultMarketAssumptions() MarketAssumptions {
	return MarketAssumptions{
		StockReturn:         0.10,
		BondReturn:          0.05,
		CashReturn:          0.03,
		Inflation:           0.03,
		StockYield:          0.02,
		BondYield:           0.04,
		CashYield:           0.03,
		StockVolatility:     0.18,
		BondVolatility:      0.06,
		CashVolatility:      0.01,
		InflationVolatility: 0.015,
	}
}

// HistoricalSettings configures the historical backtest providers.
type HistoricalSettings struct {
	// StartYear is the first dataset year replayed by a single backtest run.
	StartYear int `yaml:"start_year,omitempty" json:"start_year,omitempty"`
	// ResampleOnRetirement draws a fresh random start year when retirement begins.
	ResampleOnRetirement bool `yaml:"resample_on_retirement,omitempty" json:"resample_on_retirement,omitempty"`
}

// AccountType identifies the tax treatment of an account.
type AccountType string

const (
	AccountSavings          AccountType = "savings"
	AccountTaxableBrokerage AccountType = "taxable_brokerage"
	Account401k             AccountType = "401k"
	AccountRoth401k         AccountType = "roth_401k"
	AccountIRA              AccountType = "ira"
	AccountRothIRA          AccountType = "roth_ira"
	AccountHSA              AccountType = "hsa"
)

// Allocation is a stocks/bonds/cash split expressed as fractions summing to 1.
type Allocation struct {
	Stocks float64 `yaml:"stocks" json:"stocks"`
	Bonds  float64 `yaml:"bonds" json:"bonds"`
	Cash   float64 `yaml:"cash" json:"cash"`
}

// Sum returns the total of the three fractions.
func (a Allocation) Sum() float64 {
	return a.Stocks + a.Bonds + a.Cash
}

// CashOnly is the allocation of a savings account.
var CashOnly = Allocation{Cash: 1}

// AccountConfig describes one account at simulation start.
type AccountConfig struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	Type       AccountType     `yaml:"type" json:"type"`
	Balance    decimal.Decimal `yaml:"balance" json:"balance"`
	Allocation Allocation      `yaml:"allocation,omitempty" json:"allocation,omitempty"`
	// CostBasis applies to taxable brokerage accounts; nil means equal to balance.
	CostBasis *decimal.Decimal `yaml:"cost_basis,omitempty" json:"cost_basis,omitempty"`
	// ContributionBasis applies to Roth accounts; nil means equal to balance.
	ContributionBasis *decimal.Decimal `yaml:"contribution_basis,omitempty" json:"contribution_basis,omitempty"`
	RebalanceAnnually bool             `yaml:"rebalance_annually,omitempty" json:"rebalance_annually,omitempty"`
}

// Frequency is how often a configured amount recurs.
type Frequency string

const (
	FrequencyMonthly  Frequency = "monthly"
	FrequencyYearly   Frequency = "yearly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyOneTime  Frequency = "one_time"
)

// PeriodsPerYear returns how many payments of the frequency occur in a year.
// One-time amounts report 1.
func (f Frequency) PeriodsPerYear() int64 {
	switch f {
	case FrequencyYearly, FrequencyOneTime:
		return 1
	case FrequencyBiweekly:
		return 26
	case FrequencyWeekly:
		return 52
	default:
		return 12
	}
}

// IncomeType determines how an income is taxed.
type IncomeType string

const (
	IncomeWage           IncomeType = "wage"
	IncomeSocialSecurity IncomeType = "social_security"
	IncomePension        IncomeType = "pension"
	IncomeExempt         IncomeType = "exempt"
)

// IncomeConfig is a recurring or one-time income source.
type IncomeConfig struct {
	ID     string          `yaml:"id" json:"id"`
	Name   string          `yaml:"name" json:"name"`
	Type   IncomeType      `yaml:"type" json:"type"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
	// Frequency defaults to monthly.
	Frequency  Frequency `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	GrowthRate float64   `yaml:"growth_rate,omitempty" json:"growth_rate,omitempty"`
	// GrowthLimit caps the annualized amount; zero means uncapped.
	GrowthLimit     decimal.Decimal `yaml:"growth_limit,omitempty" json:"growth_limit,omitempty"`
	WithholdingRate float64         `yaml:"withholding_rate,omitempty" json:"withholding_rate,omitempty"`
	TimeFrame       TimeFrame       `yaml:"time_frame" json:"time_frame"`
}

// ExpenseConfig is a recurring or one-time expense.
type ExpenseConfig struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	Frequency   Frequency       `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	GrowthRate  float64         `yaml:"growth_rate,omitempty" json:"growth_rate,omitempty"`
	GrowthLimit decimal.Decimal `yaml:"growth_limit,omitempty" json:"growth_limit,omitempty"`
	TimeFrame   TimeFrame       `yaml:"time_frame" json:"time_frame"`
}

// InterestType selects how a debt accrues interest.
type InterestType string

const (
	InterestSimple   InterestType = "simple"
	InterestCompound InterestType = "compound"
)

// CompoundingPeriod applies to compound-interest debts.
type CompoundingPeriod string

const (
	CompoundingMonthly CompoundingPeriod = "monthly"
	CompoundingDaily   CompoundingPeriod = "daily"
)

// DebtConfig is an amortizing liability with a fixed nominal payment.
type DebtConfig struct {
	ID      string          `yaml:"id" json:"id"`
	Name    string          `yaml:"name" json:"name"`
	Balance decimal.Decimal `yaml:"balance" json:"balance"`
	// Principal is the original principal for simple interest; zero means balance.
	Principal      decimal.Decimal   `yaml:"principal,omitempty" json:"principal,omitempty"`
	APR            float64           `yaml:"apr" json:"apr"`
	InterestType   InterestType      `yaml:"interest_type" json:"interest_type"`
	Compounding    CompoundingPeriod `yaml:"compounding,omitempty" json:"compounding,omitempty"`
	MonthlyPayment decimal.Decimal   `yaml:"monthly_payment" json:"monthly_payment"`
	Start          TimePoint         `yaml:"start" json:"start"`
}

// LoanConfig finances a physical asset.
type LoanConfig struct {
	// DownPayment is paid in cash at purchase; the rest of the price is financed.
	DownPayment decimal.Decimal `yaml:"down_payment,omitempty" json:"down_payment,omitempty"`
	// Balance is the outstanding balance for assets already owned at start.
	Balance        decimal.Decimal   `yaml:"balance,omitempty" json:"balance,omitempty"`
	APR            float64           `yaml:"apr" json:"apr"`
	InterestType   InterestType      `yaml:"interest_type" json:"interest_type"`
	Compounding    CompoundingPeriod `yaml:"compounding,omitempty" json:"compounding,omitempty"`
	MonthlyPayment decimal.Decimal   `yaml:"monthly_payment" json:"monthly_payment"`
}

// PhysicalAssetConfig is a house, vehicle or other appreciating/depreciating asset.
type PhysicalAssetConfig struct {
	ID            string          `yaml:"id" json:"id"`
	Name          string          `yaml:"name" json:"name"`
	PurchasePrice decimal.Decimal `yaml:"purchase_price" json:"purchase_price"`
	// MarketValue is the current value of an asset owned at start; zero means purchase price.
	MarketValue      decimal.Decimal `yaml:"market_value,omitempty" json:"market_value,omitempty"`
	AppreciationRate float64         `yaml:"appreciation_rate" json:"appreciation_rate"`
	Purchase         TimePoint       `yaml:"purchase" json:"purchase"`
	Sale             *TimePoint      `yaml:"sale,omitempty" json:"sale,omitempty"`
	Loan             *LoanConfig     `yaml:"loan,omitempty" json:"loan,omitempty"`
}

// ContributionType is how a rule sizes its contribution.
type ContributionType string

const (
	ContributionDollarAmount     ContributionType = "dollar_amount"
	ContributionPercentRemaining ContributionType = "percent_remaining"
	ContributionUnlimited        ContributionType = "unlimited"
)

// ContributionRule is one ranked step of the surplus waterfall.
type ContributionRule struct {
	ID        string           `yaml:"id" json:"id"`
	AccountID string           `yaml:"account_id" json:"account_id"`
	Rank      int              `yaml:"rank" json:"rank"`
	Type      ContributionType `yaml:"type" json:"type"`
	// DollarAmount is an annual target for dollar_amount rules.
	DollarAmount decimal.Decimal `yaml:"dollar_amount,omitempty" json:"dollar_amount,omitempty"`
	// Percentage of the remaining surplus for percent_remaining rules (0.5 = 50%).
	Percentage float64 `yaml:"percentage,omitempty" json:"percentage,omitempty"`
	// MaxBalance stops contributions once the account reaches it; zero means no cap.
	MaxBalance decimal.Decimal `yaml:"max_balance,omitempty" json:"max_balance,omitempty"`
	// IncomeIDs restricts contributions to the gross of these incomes when set.
	IncomeIDs []string `yaml:"income_ids,omitempty" json:"income_ids,omitempty"`
}

// BaseContributionRule decides what happens to surplus left after all rules.
type BaseContributionRule string

const (
	BaseRuleSpend BaseContributionRule = "spend"
	BaseRuleSave  BaseContributionRule = "save"
)

// ContributionSettings configures the waterfall's leftover handling.
type ContributionSettings struct {
	BaseRule BaseContributionRule `yaml:"base_rule,omitempty" json:"base_rule,omitempty"`
	// DefaultAccountID receives saved leftovers, RMD proceeds and tax refunds;
	// empty means the first savings account.
	DefaultAccountID string `yaml:"default_account_id,omitempty" json:"default_account_id,omitempty"`
}

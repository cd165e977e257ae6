package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rpgo/finsim/internal/account"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of input configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads configuration from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a YAML document. Market assumptions and the
// filing status start from their defaults, so a file may override only
// the fields it cares about.
func (ip *InputParser) Parse(data []byte) (*domain.Configuration, error) {
	config := domain.Configuration{
		FilingStatus:      domain.FilingSingle,
		MarketAssumptions: domain.DefaultMarketAssumptions(),
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// ValidateConfiguration validates the loaded configuration
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if err := ip.validateTimeline(&config.Timeline); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	switch config.FilingStatus {
	case domain.FilingSingle, domain.FilingMarriedJointly, domain.FilingHeadOfHousehold:
	default:
		return fmt.Errorf("unknown filing status %q", config.FilingStatus)
	}
	if err := ip.validateMarketAssumptions(&config.MarketAssumptions); err != nil {
		return fmt.Errorf("market assumptions: %w", err)
	}
	if config.Historical.StartYear < 0 {
		return fmt.Errorf("historical start year cannot be negative")
	}

	if len(config.Accounts) == 0 {
		return fmt.Errorf("no accounts provided")
	}
	accounts := make(map[string]domain.AccountType, len(config.Accounts))
	for i, a := range config.Accounts {
		if err := ip.validateAccount(&a); err != nil {
			return fmt.Errorf("account %d (%s): %w", i, a.ID, err)
		}
		if _, dup := accounts[a.ID]; dup {
			return fmt.Errorf("duplicate account id %q", a.ID)
		}
		accounts[a.ID] = a.Type
	}

	incomes := make(map[string]bool, len(config.Incomes))
	for i, in := range config.Incomes {
		if err := ip.validateIncome(&in); err != nil {
			return fmt.Errorf("income %d (%s): %w", i, in.ID, err)
		}
		if incomes[in.ID] {
			return fmt.Errorf("duplicate income id %q", in.ID)
		}
		incomes[in.ID] = true
	}

	expenses := make(map[string]bool, len(config.Expenses))
	for i, e := range config.Expenses {
		if err := ip.validateExpense(&e); err != nil {
			return fmt.Errorf("expense %d (%s): %w", i, e.ID, err)
		}
		if expenses[e.ID] {
			return fmt.Errorf("duplicate expense id %q", e.ID)
		}
		expenses[e.ID] = true
	}

	for i, d := range config.Debts {
		if err := ip.validateDebt(&d); err != nil {
			return fmt.Errorf("debt %d (%s): %w", i, d.ID, err)
		}
	}
	for i, pa := range config.PhysicalAssets {
		if err := ip.validatePhysicalAsset(&pa); err != nil {
			return fmt.Errorf("physical asset %d (%s): %w", i, pa.ID, err)
		}
	}

	for i, r := range config.ContributionRules {
		if err := ip.validateContributionRule(&r, accounts, incomes); err != nil {
			return fmt.Errorf("contribution rule %d (%s): %w", i, r.ID, err)
		}
	}
	switch config.ContributionSettings.BaseRule {
	case "", domain.BaseRuleSpend, domain.BaseRuleSave:
	default:
		return fmt.Errorf("base rule must be 'spend' or 'save'")
	}
	if id := config.ContributionSettings.DefaultAccountID; id != "" {
		t, ok := accounts[id]
		if !ok {
			return fmt.Errorf("default account %q does not exist", id)
		}
		if kind, _ := account.KindOf(t); kind != account.KindSavings && kind != account.KindTaxableBrokerage {
			return fmt.Errorf("default account %q must be savings or taxable brokerage, not %s", id, t)
		}
	}
	for _, id := range config.WithdrawalOrder {
		if _, ok := accounts[id]; !ok {
			return fmt.Errorf("withdrawal order references unknown account %q", id)
		}
	}

	return nil
}

func (ip *InputParser) validateTimeline(tl *domain.Timeline) error {
	if tl.CurrentAge <= 0 {
		return fmt.Errorf("current age must be positive")
	}
	if tl.LifeExpectancy <= tl.CurrentAge {
		return fmt.Errorf("life expectancy must be greater than current age")
	}
	if tl.LifeExpectancy > 120 {
		return fmt.Errorf("life expectancy cannot exceed 120")
	}

	rs := tl.RetirementStrategy
	switch rs.Type {
	case domain.StrategyFixedAge:
		if rs.RetirementAge <= 0 {
			return fmt.Errorf("fixed_age strategy requires a positive retirement age")
		}
	case domain.StrategySWRTarget:
		if rs.SafeWithdrawalRate <= 0 || rs.SafeWithdrawalRate > 1 {
			return fmt.Errorf("safe withdrawal rate must be between 0 and 100%%")
		}
	default:
		return fmt.Errorf("retirement strategy must be 'fixed_age' or 'swr_target'")
	}
	return nil
}

func (ip *InputParser) validateMarketAssumptions(m *domain.MarketAssumptions) error {
	for name, r := range map[string]float64{
		"stock return": m.StockReturn,
		"bond return":  m.BondReturn,
		"cash return":  m.CashReturn,
		"inflation":    m.Inflation,
	} {
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= -1 {
			return fmt.Errorf("%s must be greater than -100%%", name)
		}
	}
	for name, v := range map[string]float64{
		"stock yield":          m.StockYield,
		"bond yield":           m.BondYield,
		"cash yield":           m.CashYield,
		"stock volatility":     m.StockVolatility,
		"bond volatility":      m.BondVolatility,
		"cash volatility":      m.CashVolatility,
		"inflation volatility": m.InflationVolatility,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	return nil
}

func (ip *InputParser) validateAccount(a *domain.AccountConfig) error {
	if a.ID == "" {
		return fmt.Errorf("account id is required")
	}
	kind, err := account.KindOf(a.Type)
	if err != nil {
		return err
	}
	if a.Balance.IsNegative() {
		return fmt.Errorf("balance cannot be negative")
	}
	if kind != account.KindSavings {
		al := a.Allocation
		if al.Stocks < 0 || al.Bonds < 0 || al.Cash < 0 {
			return fmt.Errorf("allocation fractions cannot be negative")
		}
		if math.Abs(al.Sum()-1) > 1e-6 {
			return fmt.Errorf("allocation must sum to 1, got %.4f", al.Sum())
		}
	}
	if a.CostBasis != nil {
		if kind != account.KindTaxableBrokerage {
			return fmt.Errorf("cost basis applies to taxable brokerage accounts only")
		}
		if a.CostBasis.IsNegative() {
			return fmt.Errorf("cost basis cannot be negative")
		}
	}
	if a.ContributionBasis != nil {
		if kind != account.KindTaxFree {
			return fmt.Errorf("contribution basis applies to roth accounts only")
		}
		if a.ContributionBasis.IsNegative() || a.ContributionBasis.GreaterThan(a.Balance) {
			return fmt.Errorf("contribution basis must be between 0 and the balance")
		}
	}
	return nil
}

func validateFrequency(f domain.Frequency) error {
	switch f {
	case "", domain.FrequencyMonthly, domain.FrequencyYearly, domain.FrequencyBiweekly,
		domain.FrequencyWeekly, domain.FrequencyOneTime:
		return nil
	}
	return fmt.Errorf("unknown frequency %q", f)
}

func validateTimeFrame(tf domain.TimeFrame) error {
	if err := tf.Start.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if tf.End != nil {
		if err := tf.End.Validate(); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}
	return nil
}

func (ip *InputParser) validateIncome(in *domain.IncomeConfig) error {
	if in.ID == "" {
		return fmt.Errorf("income id is required")
	}
	switch in.Type {
	case domain.IncomeWage, domain.IncomeSocialSecurity, domain.IncomePension, domain.IncomeExempt:
	default:
		return fmt.Errorf("unknown income type %q", in.Type)
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("amount cannot be negative")
	}
	if err := validateFrequency(in.Frequency); err != nil {
		return err
	}
	if in.GrowthRate <= -1 {
		return fmt.Errorf("growth rate must be greater than -100%%")
	}
	if in.GrowthLimit.IsNegative() {
		return fmt.Errorf("growth limit cannot be negative")
	}
	if in.WithholdingRate < 0 || in.WithholdingRate > 1 {
		return fmt.Errorf("withholding rate must be between 0 and 1")
	}
	return validateTimeFrame(in.TimeFrame)
}

func (ip *InputParser) validateExpense(e *domain.ExpenseConfig) error {
	if e.ID == "" {
		return fmt.Errorf("expense id is required")
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("amount cannot be negative")
	}
	if err := validateFrequency(e.Frequency); err != nil {
		return err
	}
	if e.GrowthRate <= -1 {
		return fmt.Errorf("growth rate must be greater than -100%%")
	}
	if e.GrowthLimit.IsNegative() {
		return fmt.Errorf("growth limit cannot be negative")
	}
	return validateTimeFrame(e.TimeFrame)
}

func validateInterest(apr float64, it domain.InterestType, comp domain.CompoundingPeriod, payment decimal.Decimal) error {
	if apr < 0 {
		return fmt.Errorf("APR cannot be negative")
	}
	switch it {
	case domain.InterestSimple, domain.InterestCompound:
	default:
		return fmt.Errorf("interest type must be 'simple' or 'compound'")
	}
	switch comp {
	case "", domain.CompoundingMonthly, domain.CompoundingDaily:
	default:
		return fmt.Errorf("compounding must be 'monthly' or 'daily'")
	}
	if payment.IsNegative() {
		return fmt.Errorf("monthly payment cannot be negative")
	}
	return nil
}

func (ip *InputParser) validateDebt(d *domain.DebtConfig) error {
	if d.ID == "" {
		return fmt.Errorf("debt id is required")
	}
	if d.Balance.IsNegative() {
		return fmt.Errorf("balance cannot be negative")
	}
	if d.Principal.IsNegative() {
		return fmt.Errorf("principal cannot be negative")
	}
	if err := validateInterest(d.APR, d.InterestType, d.Compounding, d.MonthlyPayment); err != nil {
		return err
	}
	if err := d.Start.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

func (ip *InputParser) validatePhysicalAsset(pa *domain.PhysicalAssetConfig) error {
	if pa.ID == "" {
		return fmt.Errorf("asset id is required")
	}
	if !pa.PurchasePrice.IsPositive() {
		return fmt.Errorf("purchase price must be positive")
	}
	if pa.MarketValue.IsNegative() {
		return fmt.Errorf("market value cannot be negative")
	}
	if pa.AppreciationRate <= -1 {
		return fmt.Errorf("appreciation rate must be greater than -100%%")
	}
	if err := pa.Purchase.Validate(); err != nil {
		return fmt.Errorf("purchase: %w", err)
	}
	if pa.Sale != nil {
		if err := pa.Sale.Validate(); err != nil {
			return fmt.Errorf("sale: %w", err)
		}
	}
	if l := pa.Loan; l != nil {
		if l.DownPayment.IsNegative() || l.DownPayment.GreaterThan(pa.PurchasePrice) {
			return fmt.Errorf("loan down payment must be between 0 and the purchase price")
		}
		if l.Balance.IsNegative() {
			return fmt.Errorf("loan balance cannot be negative")
		}
		if err := validateInterest(l.APR, l.InterestType, l.Compounding, l.MonthlyPayment); err != nil {
			return fmt.Errorf("loan: %w", err)
		}
	}
	return nil
}

func (ip *InputParser) validateContributionRule(r *domain.ContributionRule, accounts map[string]domain.AccountType, incomes map[string]bool) error {
	if _, ok := accounts[r.AccountID]; !ok {
		return fmt.Errorf("account %q does not exist", r.AccountID)
	}
	switch r.Type {
	case domain.ContributionDollarAmount:
		if !r.DollarAmount.IsPositive() {
			return fmt.Errorf("dollar_amount rule requires a positive dollar amount")
		}
	case domain.ContributionPercentRemaining:
		if r.Percentage <= 0 || r.Percentage > 1 {
			return fmt.Errorf("percent_remaining rule requires a percentage in (0, 1]")
		}
	case domain.ContributionUnlimited:
	default:
		return fmt.Errorf("unknown contribution type %q", r.Type)
	}
	if r.MaxBalance.IsNegative() {
		return fmt.Errorf("max balance cannot be negative")
	}
	for _, id := range r.IncomeIDs {
		if !incomes[id] {
			return fmt.Errorf("income %q does not exist", id)
		}
	}
	return nil
}

// CreateExampleConfiguration returns a complete, valid configuration: a
// working household saving through a 401k, a Roth IRA and a brokerage
// account, carrying a mortgage and retiring at 65.
func (ip *InputParser) CreateExampleConfiguration() *domain.Configuration {
	d := decimal.NewFromInt
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	atRetirement := domain.AtRetirement()
	until80 := domain.AtAge(80)
	basis := d(60000)

	return &domain.Configuration{
		Timeline: domain.Timeline{
			CurrentAge:     40,
			LifeExpectancy: 95,
			StartDate:      start,
			RetirementStrategy: domain.RetirementStrategy{
				Type:          domain.StrategyFixedAge,
				RetirementAge: 65,
			},
		},
		FilingStatus:      domain.FilingMarriedJointly,
		MarketAssumptions: domain.DefaultMarketAssumptions(),
		Accounts: []domain.AccountConfig{
			{ID: "emergency", Name: "Emergency Fund", Type: domain.AccountSavings, Balance: d(30000)},
			{ID: "brokerage", Name: "Brokerage", Type: domain.AccountTaxableBrokerage, Balance: d(80000),
				Allocation: domain.Allocation{Stocks: 0.7, Bonds: 0.3}, CostBasis: &basis, RebalanceAnnually: true},
			{ID: "401k", Name: "Workplace 401k", Type: domain.Account401k, Balance: d(250000),
				Allocation: domain.Allocation{Stocks: 0.8, Bonds: 0.2}},
			{ID: "roth", Name: "Roth IRA", Type: domain.AccountRothIRA, Balance: d(60000),
				Allocation: domain.Allocation{Stocks: 0.9, Bonds: 0.1}},
		},
		Incomes: []domain.IncomeConfig{
			{ID: "salary", Name: "Salary", Type: domain.IncomeWage, Amount: d(12500), Frequency: domain.FrequencyMonthly,
				WithholdingRate: 0.18, TimeFrame: domain.TimeFrame{Start: domain.Now(), End: &atRetirement}},
			{ID: "social_security", Name: "Social Security", Type: domain.IncomeSocialSecurity, Amount: d(3200),
				Frequency: domain.FrequencyMonthly, WithholdingRate: 0.1, TimeFrame: domain.TimeFrame{Start: domain.AtAge(67)}},
		},
		Expenses: []domain.ExpenseConfig{
			{ID: "living", Name: "Living Expenses", Amount: d(5000), Frequency: domain.FrequencyMonthly,
				TimeFrame: domain.TimeFrame{Start: domain.Now()}},
			{ID: "travel", Name: "Travel", Amount: d(8000), Frequency: domain.FrequencyYearly,
				TimeFrame: domain.TimeFrame{Start: domain.AtRetirement(), End: &until80}},
		},
		PhysicalAssets: []domain.PhysicalAssetConfig{{
			ID:               "home",
			Name:             "Home",
			PurchasePrice:    d(400000),
			MarketValue:      d(450000),
			AppreciationRate: 0.03,
			Purchase:         domain.Now(),
			Loan: &domain.LoanConfig{
				Balance:        d(280000),
				APR:            0.055,
				InterestType:   domain.InterestCompound,
				Compounding:    domain.CompoundingMonthly,
				MonthlyPayment: d(2100),
			},
		}},
		ContributionRules: []domain.ContributionRule{
			{ID: "401k_max", AccountID: "401k", Rank: 1, Type: domain.ContributionUnlimited, IncomeIDs: []string{"salary"}},
			{ID: "roth_max", AccountID: "roth", Rank: 2, Type: domain.ContributionUnlimited, IncomeIDs: []string{"salary"}},
			{ID: "brokerage_half", AccountID: "brokerage", Rank: 3, Type: domain.ContributionPercentRemaining, Percentage: 0.5},
		},
		ContributionSettings: domain.ContributionSettings{BaseRule: domain.BaseRuleSave, DefaultAccountID: "emergency"},
	}
}

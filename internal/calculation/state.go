package calculation

import (
	"time"

	"github.com/rpgo/finsim/internal/account"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/tax"
	"github.com/rpgo/finsim/pkg/dateutil"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// obligationWindow is how many trailing months feed the safe-withdrawal test.
const obligationWindow = 12

// SimulationState is the mutable state of one run. It is created by
// Engine.Run, threaded through every processor, and never shared.
type SimulationState struct {
	StartDate      time.Time
	StartAge       float64
	LifeExpectancy float64

	// Month is the zero-based index of the month being simulated.
	Month int
	Date  time.Time
	Age   float64
	Phase domain.Phase

	Portfolio *account.Portfolio
	// Sink receives saved leftovers, RMD proceeds and tax refunds. May be nil.
	Sink *account.Account

	Annual annualTotals

	// yearStartBalances are account balances at the start of the simulation year.
	yearStartBalances map[string]decimal.Decimal
	// obligations are trailing monthly expenses plus debt and loan payments.
	obligations []decimal.Decimal
}

func newSimulationState(startDate time.Time, startAge, lifeExpectancy float64, portfolio *account.Portfolio, sink *account.Account) *SimulationState {
	return &SimulationState{
		StartDate:      startDate,
		StartAge:       startAge,
		LifeExpectancy: lifeExpectancy,
		Date:           startDate,
		Age:            startAge,
		Phase:          domain.PhaseAccumulation,
		Portfolio:      portfolio,
		Sink:           sink,
		Annual:         newAnnualTotals(),
	}
}

// Year is the zero-based simulation year: twelve-month blocks from the start date.
func (s *SimulationState) Year() int {
	return s.Month / dateutil.MonthsPerYear
}

// IsYearEnd reports whether the current month closes a simulation year.
func (s *SimulationState) IsYearEnd() bool {
	return (s.Month+1)%dateutil.MonthsPerYear == 0
}

// EndOfMonthAge is the age reached when the current month completes.
func (s *SimulationState) EndOfMonthAge() float64 {
	return dateutil.AgeAfterMonths(s.StartAge, s.Month+1)
}

// EndOfMonthDate is the first day of the following month.
func (s *SimulationState) EndOfMonthDate() time.Time {
	return dateutil.AddMonths(s.StartDate, s.Month+1)
}

// Retired reports whether the household is in the retirement phase.
func (s *SimulationState) Retired() bool {
	return s.Phase == domain.PhaseRetirement
}

// Moment is the view time points are resolved against.
func (s *SimulationState) Moment() domain.Moment {
	return domain.Moment{
		Age:            s.Age,
		Date:           s.Date,
		Retired:        s.Retired(),
		LifeExpectancy: s.LifeExpectancy,
	}
}

// beginMonth positions the state at the start of month m. A month that opens
// a simulation year resets the annual accumulators.
func (s *SimulationState) beginMonth(m int) {
	s.Month = m
	s.Date = dateutil.AddMonths(s.StartDate, m)
	s.Age = dateutil.AgeAfterMonths(s.StartAge, m)
	if m%dateutil.MonthsPerYear == 0 {
		s.Annual = newAnnualTotals()
		s.yearStartBalances = make(map[string]decimal.Decimal, len(s.Portfolio.Accounts()))
		for _, a := range s.Portfolio.Accounts() {
			s.yearStartBalances[a.ID] = a.Balance()
		}
	}
}

func (s *SimulationState) recordObligations(amount decimal.Decimal) {
	s.obligations = append(s.obligations, amount)
	if len(s.obligations) > obligationWindow {
		s.obligations = s.obligations[len(s.obligations)-obligationWindow:]
	}
}

// MeanAnnualObligations annualizes the mean of the trailing monthly
// obligations. The second return is false before any month has completed.
func (s *SimulationState) MeanAnnualObligations() (decimal.Decimal, bool) {
	if len(s.obligations) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Sum(decimal.Zero, s.obligations...)
	return money.Annual(sum.Div(decimal.NewFromInt(int64(len(s.obligations))))), true
}

// annualTotals accumulate one simulation year's flows. They feed the tax
// processor, the contribution limits and the year's data point.
type annualTotals struct {
	Tax      tax.Inputs
	Incomes  domain.IncomesSnapshot
	Expenses domain.ExpensesSnapshot

	Contributions     decimal.Decimal
	Withdrawals       decimal.Decimal
	RealizedGains     decimal.Decimal
	EarningsWithdrawn decimal.Decimal
	RMDs              decimal.Decimal
	Shortfall         decimal.Decimal

	Returns domain.AssetAmounts
	Yields  domain.AssetAmounts

	accountContributions map[string]decimal.Decimal
	accountWithdrawals   map[string]decimal.Decimal
	groupContributions   map[tax.ContributionGroup]decimal.Decimal
	ruleContributions    map[string]decimal.Decimal
}

func newAnnualTotals() annualTotals {
	return annualTotals{
		Incomes:              domain.IncomesSnapshot{ByID: map[string]decimal.Decimal{}},
		Expenses:             domain.ExpensesSnapshot{ByID: map[string]decimal.Decimal{}},
		accountContributions: map[string]decimal.Decimal{},
		accountWithdrawals:   map[string]decimal.Decimal{},
		groupContributions:   map[tax.ContributionGroup]decimal.Decimal{},
		ruleContributions:    map[string]decimal.Decimal{},
	}
}

func addTo[K comparable](m map[K]decimal.Decimal, key K, amount decimal.Decimal) {
	m[key] = m[key].Add(amount)
}

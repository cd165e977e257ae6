package calculation

import (
	"math"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// AnnualizedAmount grows a configured amount to simulation year `year` and
// applies the growth limit: an upper bound for positive growth and a lower
// bound for negative growth. A zero limit means uncapped.
func AnnualizedAmount(amount decimal.Decimal, freq domain.Frequency, growthRate float64, limit decimal.Decimal, year int) decimal.Decimal {
	annual := amount.Mul(decimal.NewFromInt(freq.PeriodsPerYear()))
	if growthRate != 0 && year > 0 {
		annual = annual.Mul(decimal.NewFromFloat(math.Pow(1+growthRate, float64(year))))
	}
	if limit.IsZero() {
		return annual
	}
	if growthRate >= 0 && annual.GreaterThan(limit) {
		return limit
	}
	if growthRate < 0 && annual.LessThan(limit) {
		return limit
	}
	return annual
}

// recurring tracks the per-year cache and one-time state shared by incomes
// and expenses.
type recurring struct {
	annual   map[string]decimal.Decimal
	lastYear int
	paid     map[string]bool
}

func newRecurring() recurring {
	return recurring{annual: map[string]decimal.Decimal{}, lastYear: -1, paid: map[string]bool{}}
}

// monthly returns this month's amount for an item, or zero when the item is
// inactive. One-time items pay their full amount in their first active month.
func (r *recurring) monthly(s *SimulationState, id string, amount decimal.Decimal, freq domain.Frequency,
	growthRate float64, limit decimal.Decimal, frame domain.TimeFrame) decimal.Decimal {
	if year := s.Year(); year != r.lastYear {
		r.annual = map[string]decimal.Decimal{}
		r.lastYear = year
	}
	if !frame.Active(s.Moment()) {
		return decimal.Zero
	}
	annual, ok := r.annual[id]
	if !ok {
		annual = AnnualizedAmount(amount, freq, growthRate, limit, s.Year())
		r.annual[id] = annual
	}
	if freq == domain.FrequencyOneTime {
		if r.paid[id] {
			return decimal.Zero
		}
		r.paid[id] = true
		return annual
	}
	return money.Monthly(annual)
}

// IncomesProcessor produces gross income by tax category and the cash it
// leaves after withholding.
type IncomesProcessor struct {
	incomes []domain.IncomeConfig
	state   recurring
}

// NewIncomesProcessor creates a processor over the configured incomes.
func NewIncomesProcessor(incomes []domain.IncomeConfig) *IncomesProcessor {
	return &IncomesProcessor{incomes: incomes, state: newRecurring()}
}

// Process records the month's incomes and returns the net cash received.
func (ip *IncomesProcessor) Process(s *SimulationState) decimal.Decimal {
	net := decimal.Zero
	for _, inc := range ip.incomes {
		gross := ip.state.monthly(s, inc.ID, inc.Amount, inc.Frequency, inc.GrowthRate, inc.GrowthLimit, inc.TimeFrame)
		if !gross.IsPositive() {
			continue
		}
		withheld := gross.Mul(decimal.NewFromFloat(inc.WithholdingRate))

		snap := &s.Annual.Incomes
		snap.TotalGross = snap.TotalGross.Add(gross)
		snap.Withholding = snap.Withholding.Add(withheld)
		addTo(snap.ByID, inc.ID, gross)

		in := &s.Annual.Tax
		in.Withholding = in.Withholding.Add(withheld)
		switch inc.Type {
		case domain.IncomeWage:
			snap.Wages = snap.Wages.Add(gross)
			in.Wages = in.Wages.Add(gross)
		case domain.IncomeSocialSecurity:
			snap.SocialSecurity = snap.SocialSecurity.Add(gross)
			in.SocialSecurity = in.SocialSecurity.Add(gross)
		case domain.IncomeExempt:
			snap.Exempt = snap.Exempt.Add(gross)
			in.TaxExempt = in.TaxExempt.Add(gross)
		default:
			snap.Pension = snap.Pension.Add(gross)
			in.OtherOrdinary = in.OtherOrdinary.Add(gross)
		}
		net = net.Add(gross.Sub(withheld))
	}
	return net
}

// ExpensesProcessor produces the month's living expenses.
type ExpensesProcessor struct {
	expenses []domain.ExpenseConfig
	state    recurring
}

// NewExpensesProcessor creates a processor over the configured expenses.
func NewExpensesProcessor(expenses []domain.ExpenseConfig) *ExpensesProcessor {
	return &ExpensesProcessor{expenses: expenses, state: newRecurring()}
}

// Process records the month's expenses and returns their total.
func (ep *ExpensesProcessor) Process(s *SimulationState) decimal.Decimal {
	total := decimal.Zero
	for _, exp := range ep.expenses {
		amount := ep.state.monthly(s, exp.ID, exp.Amount, exp.Frequency, exp.GrowthRate, exp.GrowthLimit, exp.TimeFrame)
		if !amount.IsPositive() {
			continue
		}
		addTo(s.Annual.Expenses.ByID, exp.ID, amount)
		total = total.Add(amount)
	}
	s.Annual.Expenses.Total = s.Annual.Expenses.Total.Add(total)
	return total
}

package calculation

import (
	"math"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// amortizer carries a balance paid down by a fixed nominal payment. Interest
// accrues at the real rate, and the payment shrinks with inflation each month.
type amortizer struct {
	interestType domain.InterestType
	compounding  domain.CompoundingPeriod
	apr          float64

	balance        decimal.Decimal
	principal      decimal.Decimal
	unpaidInterest decimal.Decimal
	payment        decimal.Decimal

	interestPaid  decimal.Decimal
	principalPaid decimal.Decimal
}

func newAmortizer(balance, principal decimal.Decimal, apr float64, it domain.InterestType,
	comp domain.CompoundingPeriod, payment decimal.Decimal) *amortizer {
	if principal.IsZero() {
		principal = balance
	}
	return &amortizer{
		interestType: it,
		compounding:  comp,
		apr:          apr,
		balance:      balance,
		principal:    principal,
		payment:      payment,
	}
}

// realMonthlyRate converts the APR to a monthly rate in real terms.
func (a *amortizer) realMonthlyRate(monthlyInflation float64) float64 {
	nominal := a.apr / 12
	if a.interestType == domain.InterestCompound && a.compounding == domain.CompoundingDaily {
		nominal = math.Pow(1+a.apr/365, 365.0/12) - 1
	}
	return money.RealRate(nominal, monthlyInflation)
}

func (a *amortizer) paidOff() bool {
	return money.IsNearZero(a.balance) && money.IsNearZero(a.unpaidInterest)
}

// step accrues one month of interest and makes the payment, capped at what is
// owed. It returns the amount paid.
func (a *amortizer) step(monthlyInflation float64) decimal.Decimal {
	if a.paidOff() {
		return decimal.Zero
	}
	rate := decimal.NewFromFloat(a.realMonthlyRate(monthlyInflation))

	var paid decimal.Decimal
	if a.interestType == domain.InterestSimple {
		paid = a.stepSimple(rate)
	} else {
		paid = a.stepCompound(rate)
	}

	if a.paidOff() {
		a.balance = decimal.Zero
		a.unpaidInterest = decimal.Zero
	}
	a.payment = a.payment.Div(decimal.NewFromFloat(1 + monthlyInflation))
	return paid
}

// stepSimple accrues on the original principal only. Payments go to this
// month's interest, then unpaid interest, then principal.
func (a *amortizer) stepSimple(rate decimal.Decimal) decimal.Decimal {
	interest := money.ClampZero(a.principal.Mul(rate))
	owed := money.Sum(a.balance, a.unpaidInterest, interest)
	pay := money.ClampZero(decimal.Min(a.payment, owed))

	toCurrent := decimal.Min(pay, interest)
	rest := pay.Sub(toCurrent)
	toUnpaid := decimal.Min(rest, a.unpaidInterest)
	toPrincipal := decimal.Min(rest.Sub(toUnpaid), a.balance)

	a.unpaidInterest = a.unpaidInterest.Sub(toUnpaid).Add(interest.Sub(toCurrent))
	a.balance = a.balance.Sub(toPrincipal)
	a.interestPaid = a.interestPaid.Add(toCurrent).Add(toUnpaid)
	a.principalPaid = a.principalPaid.Add(toPrincipal)
	return pay
}

// stepCompound accrues on the full balance. A payment below the interest
// adds the difference to the balance; any excess reduces it.
func (a *amortizer) stepCompound(rate decimal.Decimal) decimal.Decimal {
	interest := a.balance.Mul(rate)
	owed := a.balance.Add(interest)
	pay := money.ClampZero(decimal.Min(a.payment, owed))

	a.balance = a.balance.Add(interest).Sub(pay)
	if interest.IsPositive() {
		toInterest := decimal.Min(pay, interest)
		a.interestPaid = a.interestPaid.Add(toInterest)
		a.principalPaid = a.principalPaid.Add(pay.Sub(toInterest))
	} else {
		a.principalPaid = a.principalPaid.Add(pay)
	}
	return pay
}

type debt struct {
	cfg    domain.DebtConfig
	status domain.DebtStatus
	loan   *amortizer
}

// DebtsProcessor activates debts at their start time point and pays them down.
type DebtsProcessor struct {
	debts  []*debt
	logger Logger
}

// NewDebtsProcessor creates pending debts from configuration.
func NewDebtsProcessor(cfgs []domain.DebtConfig, logger Logger) *DebtsProcessor {
	dp := &DebtsProcessor{logger: logger}
	for _, cfg := range cfgs {
		dp.debts = append(dp.debts, &debt{cfg: cfg, status: domain.DebtPending})
	}
	return dp
}

// Process makes the month's payments and returns their total.
func (dp *DebtsProcessor) Process(s *SimulationState, monthlyInflation float64) decimal.Decimal {
	total := decimal.Zero
	for _, d := range dp.debts {
		if d.status == domain.DebtPending {
			if !d.cfg.Start.Reached(s.Moment()) {
				continue
			}
			d.status = domain.DebtActive
			d.loan = newAmortizer(d.cfg.Balance, d.cfg.Principal, d.cfg.APR, d.cfg.InterestType, d.cfg.Compounding, d.cfg.MonthlyPayment)
		}
		if d.status != domain.DebtActive {
			continue
		}
		total = total.Add(d.loan.step(monthlyInflation))
		if d.loan.paidOff() {
			d.status = domain.DebtPaidOff
			dp.logger.Debugf("debt %s paid off at age %.2f", d.cfg.ID, s.EndOfMonthAge())
		}
	}
	s.Annual.Expenses.DebtPayments = s.Annual.Expenses.DebtPayments.Add(total)
	s.Annual.Expenses.Total = s.Annual.Expenses.Total.Add(total)
	return total
}

// Snapshot captures every debt.
func (dp *DebtsProcessor) Snapshot() []domain.DebtSnapshot {
	out := make([]domain.DebtSnapshot, 0, len(dp.debts))
	for _, d := range dp.debts {
		snap := domain.DebtSnapshot{ID: d.cfg.ID, Name: d.cfg.Name, Status: d.status}
		if d.loan != nil {
			snap.Balance = d.loan.balance
			snap.UnpaidInterest = d.loan.unpaidInterest
			snap.InterestPaid = d.loan.interestPaid
			snap.PrincipalPaid = d.loan.principalPaid
		} else {
			snap.Balance = d.cfg.Balance
		}
		out = append(out, snap)
	}
	return out
}

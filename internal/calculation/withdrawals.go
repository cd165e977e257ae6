package calculation

import (
	"fmt"

	"github.com/rpgo/finsim/internal/account"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/tax"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// recordWithdrawal books a withdrawal's flows and its tax character at the
// current age.
func recordWithdrawal(s *SimulationState, a *account.Account, res account.WithdrawalResult, rmd bool) {
	ann := &s.Annual
	ann.Withdrawals = ann.Withdrawals.Add(res.Amount)
	addTo(ann.accountWithdrawals, a.ID, res.Amount)
	if rmd {
		ann.RMDs = ann.RMDs.Add(res.Amount)
	}

	in := &ann.Tax
	switch a.Kind {
	case account.KindTaxableBrokerage:
		in.RealizedGains = in.RealizedGains.Add(res.RealizedGains)
		ann.RealizedGains = ann.RealizedGains.Add(res.RealizedGains)
	case account.KindTaxDeferred:
		in.TaxDeferredWithdrawals = in.TaxDeferredWithdrawals.Add(res.Amount)
		if a.Type == domain.AccountHSA {
			if s.Age < tax.HSAPenaltyAge {
				in.EarlyHSAWithdrawals = in.EarlyHSAWithdrawals.Add(res.Amount)
			}
		} else if s.Age < tax.EarlyWithdrawalAge {
			in.EarlyTaxDeferredWithdrawals = in.EarlyTaxDeferredWithdrawals.Add(res.Amount)
		}
	case account.KindTaxFree:
		ann.EarningsWithdrawn = ann.EarningsWithdrawn.Add(res.EarningsWithdrawn)
		if s.Age < tax.EarlyWithdrawalAge && res.EarningsWithdrawn.IsPositive() {
			in.TaxableRothEarnings = in.TaxableRothEarnings.Add(res.EarningsWithdrawn)
			in.EarlyRothEarnings = in.EarlyRothEarnings.Add(res.EarningsWithdrawn)
		}
	}
}

// coverShortfall liquidates accounts in order and returns the part that could
// not be covered.
func coverShortfall(s *SimulationState, amount decimal.Decimal, order []*account.Account) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, nil
	}
	liq, err := s.Portfolio.CoverShortfall(amount, order)
	for _, w := range liq.Withdrawals {
		recordWithdrawal(s, w.Account, w.Result, false)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("covering shortfall of %s: %w", amount.StringFixed(2), err)
	}
	uncovered := money.Clean(liq.Uncovered)
	s.Annual.Shortfall = s.Annual.Shortfall.Add(uncovered)
	return uncovered, nil
}

// deposit moves cash into the sink. Without a sink the cash is spent.
func deposit(s *SimulationState, amount decimal.Decimal) error {
	if s.Sink == nil || !amount.IsPositive() {
		return nil
	}
	if err := s.Sink.ApplyContribution(amount, account.ContributionDeposit, nil); err != nil {
		return err
	}
	s.Annual.Contributions = s.Annual.Contributions.Add(amount)
	return nil
}

// takeRMDs withdraws whatever part of each eligible account's required
// distribution has not been withdrawn this year. Proceeds go to the sink.
func takeRMDs(s *SimulationState, calc *tax.RMDCalculator, logger Logger) error {
	age := int(s.EndOfMonthAge())
	if age < calc.StartAge() {
		return nil
	}
	for _, a := range s.Portfolio.Accounts() {
		if !tax.IsRMDEligible(a.Type) {
			continue
		}
		required := calc.RequiredDistribution(s.yearStartBalances[a.ID], age)
		due := decimal.Min(required.Sub(s.Annual.accountWithdrawals[a.ID]), a.Balance())
		if !due.IsPositive() {
			continue
		}
		res, err := a.ApplyWithdrawal(due, account.WithdrawalRMD, nil)
		if err != nil {
			return fmt.Errorf("rmd from %s: %w", a.ID, err)
		}
		recordWithdrawal(s, a, res, true)
		logger.Debugf("rmd of %s from %s at age %d", due.StringFixed(2), a.ID, age)
		if err := deposit(s, due); err != nil {
			return fmt.Errorf("depositing rmd from %s: %w", a.ID, err)
		}
	}
	return nil
}

// settleTaxes pays last year's net liability as a shortfall or deposits a
// refund. It returns the uncovered amount.
func settleTaxes(s *SimulationState, due decimal.Decimal, order []*account.Account) (decimal.Decimal, error) {
	if due.IsNegative() {
		return decimal.Zero, deposit(s, due.Neg())
	}
	return coverShortfall(s, due, order)
}

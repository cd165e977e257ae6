package calculation

import (
	"fmt"
	"sort"

	"github.com/rpgo/finsim/internal/account"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/tax"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// ContributionRules allocates monthly surplus cash through a ranked waterfall.
type ContributionRules struct {
	rules    []domain.ContributionRule
	baseRule domain.BaseContributionRule
}

// NewContributionRules orders rules by ascending rank, keeping configuration
// order for equal ranks.
func NewContributionRules(rules []domain.ContributionRule, settings domain.ContributionSettings) *ContributionRules {
	sorted := append([]domain.ContributionRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	base := settings.BaseRule
	if base == "" {
		base = domain.BaseRuleSave
	}
	return &ContributionRules{rules: sorted, baseRule: base}
}

// Allocation is the outcome of one waterfall pass.
type Allocation struct {
	Contributed decimal.Decimal
	ByAccount   map[string]decimal.Decimal
	// Leftover is surplus no rule took; Saved is the part deposited in the sink.
	Leftover decimal.Decimal
	Saved    decimal.Decimal
}

// Allocate runs the waterfall over surplus and applies the base rule to what
// remains.
func (cr *ContributionRules) Allocate(s *SimulationState, surplus decimal.Decimal) (Allocation, error) {
	out := Allocation{ByAccount: map[string]decimal.Decimal{}}
	remaining := money.ClampZero(surplus)

	for _, rule := range cr.rules {
		if !remaining.IsPositive() {
			break
		}
		acct, err := s.Portfolio.Get(rule.AccountID)
		if err != nil {
			return out, fmt.Errorf("contribution rule %s: %w", rule.ID, err)
		}
		amount := cr.ruleAmount(s, rule, acct, remaining)
		if !amount.IsPositive() {
			continue
		}
		if err := acct.ApplyContribution(amount, account.ContributionRegular, nil); err != nil {
			return out, fmt.Errorf("contribution rule %s: %w", rule.ID, err)
		}
		cr.record(s, rule, acct, amount)
		addTo(out.ByAccount, acct.ID, amount)
		out.Contributed = out.Contributed.Add(amount)
		remaining = remaining.Sub(amount)
	}

	out.Leftover = remaining
	if cr.baseRule == domain.BaseRuleSave && remaining.IsPositive() && s.Sink != nil {
		if err := s.Sink.ApplyContribution(remaining, account.ContributionDeposit, nil); err != nil {
			return out, fmt.Errorf("saving leftover surplus: %w", err)
		}
		s.Annual.Contributions = s.Annual.Contributions.Add(remaining)
		out.Saved = remaining
	}
	return out, nil
}

// ruleAmount sizes one rule's contribution and caps it, most restrictive
// first, by the remaining surplus, the account's max balance, the group's
// statutory limit net of this year's contributions, and eligible income.
func (cr *ContributionRules) ruleAmount(s *SimulationState, rule domain.ContributionRule, acct *account.Account, remaining decimal.Decimal) decimal.Decimal {
	var desired decimal.Decimal
	switch rule.Type {
	case domain.ContributionDollarAmount:
		desired = rule.DollarAmount.Sub(s.Annual.accountContributions[acct.ID])
	case domain.ContributionPercentRemaining:
		desired = remaining.Mul(decimal.NewFromFloat(rule.Percentage))
	default:
		desired = remaining
	}

	amount := decimal.Min(desired, remaining)
	if rule.MaxBalance.IsPositive() {
		amount = decimal.Min(amount, rule.MaxBalance.Sub(acct.Balance()))
	}
	group := tax.GroupFor(acct.Type)
	if limit, ok := tax.AnnualContributionLimit(group, s.Age); ok {
		amount = decimal.Min(amount, limit.Sub(s.Annual.groupContributions[group]))
	}
	if len(rule.IncomeIDs) > 0 {
		eligible := decimal.Zero
		for _, id := range rule.IncomeIDs {
			eligible = eligible.Add(s.Annual.Incomes.ByID[id])
		}
		amount = decimal.Min(amount, eligible.Sub(s.Annual.ruleContributions[rule.ID]))
	}
	return money.ClampZero(amount)
}

func (cr *ContributionRules) record(s *SimulationState, rule domain.ContributionRule, acct *account.Account, amount decimal.Decimal) {
	a := &s.Annual
	a.Contributions = a.Contributions.Add(amount)
	addTo(a.accountContributions, acct.ID, amount)
	addTo(a.ruleContributions, rule.ID, amount)
	if group := tax.GroupFor(acct.Type); group != tax.GroupNone {
		addTo(a.groupContributions, group, amount)
	}
	if tax.IsPreTax(acct.Type) {
		a.Tax.PreTaxContributions = a.Tax.PreTaxContributions.Add(amount)
	}
}

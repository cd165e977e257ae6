package account

import (
	"fmt"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// Portfolio is an ordered collection of accounts. It has no state of its own
// beyond the accounts it holds.
type Portfolio struct {
	accounts []*Account
	byID     map[string]*Account
}

// NewPortfolio builds accounts from configuration, preserving order.
func NewPortfolio(cfgs []domain.AccountConfig) (*Portfolio, error) {
	p := &Portfolio{byID: make(map[string]*Account, len(cfgs))}
	for _, cfg := range cfgs {
		if _, dup := p.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate account id %q", cfg.ID)
		}
		a, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", cfg.ID, err)
		}
		p.accounts = append(p.accounts, a)
		p.byID[cfg.ID] = a
	}
	return p, nil
}

// Accounts returns the accounts in configuration order.
func (p *Portfolio) Accounts() []*Account {
	return p.accounts
}

// Get looks up an account by ID.
func (p *Portfolio) Get(id string) (*Account, error) {
	a, ok := p.byID[id]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", id, ErrUnknownAccount)
	}
	return a, nil
}

// FirstOfKind returns the first account of a kind, or nil.
func (p *Portfolio) FirstOfKind(kind Kind) *Account {
	for _, a := range p.accounts {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

// TotalValue is the sum of all account balances.
func (p *Portfolio) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.accounts {
		total = total.Add(a.Balance())
	}
	return total
}

// Assets sums sub-balances across accounts.
func (p *Portfolio) Assets() domain.AssetAmounts {
	var total domain.AssetAmounts
	for _, a := range p.accounts {
		total = total.Add(a.Assets())
	}
	return total
}

// IsDepleted reports whether the total value is within the near-zero epsilon.
func (p *Portfolio) IsDepleted() bool {
	return p.TotalValue().LessThanOrEqual(money.Epsilon)
}

// ApplyReturns grows every account and returns the aggregate amounts.
func (p *Portfolio) ApplyReturns(monthly domain.AssetRates) domain.AssetAmounts {
	var total domain.AssetAmounts
	for _, a := range p.accounts {
		total = total.Add(a.ApplyReturns(monthly).ForPeriod)
	}
	return total
}

// YieldSummary splits the month's yields by tax character.
type YieldSummary struct {
	Total           domain.AssetAmounts
	TaxableInterest decimal.Decimal
	Dividends       decimal.Decimal
}

// ApplyYields computes yields for every account. Only savings and taxable
// brokerage yields are taxable income.
func (p *Portfolio) ApplyYields(monthly domain.AssetRates) YieldSummary {
	var s YieldSummary
	for _, a := range p.accounts {
		y := a.ApplyYields(monthly)
		s.Total = s.Total.Add(y)
		switch a.Kind {
		case KindSavings:
			s.TaxableInterest = s.TaxableInterest.Add(y.Total())
		case KindTaxableBrokerage:
			s.Dividends = s.Dividends.Add(y.Stocks)
			s.TaxableInterest = s.TaxableInterest.Add(y.Bonds).Add(y.Cash)
		}
	}
	return s
}

func liquidationRank(a *Account) int {
	switch a.Kind {
	case KindSavings:
		return 0
	case KindTaxableBrokerage:
		return 1
	case KindTaxDeferred:
		if a.Type == domain.AccountHSA {
			return 4
		}
		return 2
	default:
		return 3
	}
}

// LiquidationOrder returns accounts in shortfall-cover order. Accounts named
// in override come first in the given order; the rest follow the default
// savings, brokerage, tax-deferred, tax-free, HSA order.
func (p *Portfolio) LiquidationOrder(override []string) ([]*Account, error) {
	order := make([]*Account, 0, len(p.accounts))
	seen := make(map[string]bool, len(p.accounts))
	for _, id := range override {
		a, err := p.Get(id)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			order = append(order, a)
			seen[id] = true
		}
	}
	for rank := 0; rank <= 4; rank++ {
		for _, a := range p.accounts {
			if !seen[a.ID] && liquidationRank(a) == rank {
				order = append(order, a)
				seen[a.ID] = true
			}
		}
	}
	return order, nil
}

// Withdrawal is one account's part in covering a shortfall.
type Withdrawal struct {
	Account *Account
	Result  WithdrawalResult
}

// Liquidation is the outcome of covering a shortfall.
type Liquidation struct {
	Withdrawals []Withdrawal
	Covered     decimal.Decimal
	Uncovered   decimal.Decimal
}

// CoverShortfall withdraws amount across accounts in order, each account
// giving up to its full balance. Whatever cannot be covered is reported as
// Uncovered.
func (p *Portfolio) CoverShortfall(amount decimal.Decimal, order []*Account) (Liquidation, error) {
	if amount.IsNegative() {
		return Liquidation{}, fmt.Errorf("shortfall: %w", ErrNegativeAmount)
	}
	remaining := amount
	var liq Liquidation
	for _, a := range order {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, a.Balance())
		if !take.IsPositive() {
			continue
		}
		res, err := a.ApplyWithdrawal(take, WithdrawalRegular, nil)
		if err != nil {
			return liq, err
		}
		liq.Withdrawals = append(liq.Withdrawals, Withdrawal{Account: a, Result: res})
		liq.Covered = liq.Covered.Add(take)
		remaining = remaining.Sub(take)
	}
	liq.Uncovered = money.ClampZero(remaining)
	return liq, nil
}

// Snapshot captures every account.
func (p *Portfolio) Snapshot() []domain.AccountSnapshot {
	out := make([]domain.AccountSnapshot, len(p.accounts))
	for i, a := range p.accounts {
		out[i] = a.Snapshot()
	}
	return out
}

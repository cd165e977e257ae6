package account

import (
	"errors"
	"fmt"
	"math"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/tax"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrRMDIneligible     = errors.New("account type is not eligible for required minimum distributions")
	ErrUnknownAccount    = errors.New("unknown account")
)

// Kind is the discriminant of the Account tagged union.
type Kind int

const (
	KindSavings Kind = iota
	KindTaxableBrokerage
	KindTaxDeferred
	KindTaxFree
)

func (k Kind) String() string {
	switch k {
	case KindSavings:
		return "savings"
	case KindTaxableBrokerage:
		return "taxable_brokerage"
	case KindTaxDeferred:
		return "tax_deferred"
	case KindTaxFree:
		return "tax_free"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindOf maps a configured account type to its variant.
func KindOf(t domain.AccountType) (Kind, error) {
	switch t {
	case domain.AccountSavings:
		return KindSavings, nil
	case domain.AccountTaxableBrokerage:
		return KindTaxableBrokerage, nil
	case domain.Account401k, domain.AccountIRA, domain.AccountHSA:
		return KindTaxDeferred, nil
	case domain.AccountRoth401k, domain.AccountRothIRA:
		return KindTaxFree, nil
	default:
		return 0, fmt.Errorf("unknown account type %q", t)
	}
}

// ContributionType labels the origin of money entering an account.
type ContributionType string

const (
	// ContributionRegular is a waterfall contribution from surplus cash.
	ContributionRegular ContributionType = "regular"
	// ContributionDeposit is a transfer in: RMD proceeds, tax refunds, sale proceeds, saved leftovers.
	ContributionDeposit ContributionType = "deposit"
)

// WithdrawalType labels why money leaves an account.
type WithdrawalType string

const (
	WithdrawalRegular WithdrawalType = "regular"
	WithdrawalRMD     WithdrawalType = "rmd"
)

// Totals are cumulative flows since simulation start.
type Totals struct {
	Contributions     decimal.Decimal
	Deposits          decimal.Decimal
	Withdrawals       decimal.Decimal
	RealizedGains     decimal.Decimal
	RMDs              decimal.Decimal
	EarningsWithdrawn decimal.Decimal
	Returns           decimal.Decimal
}

// ReturnsResult reports the growth applied by one ApplyReturns call.
type ReturnsResult struct {
	ForPeriod  domain.AssetAmounts
	Cumulative decimal.Decimal
}

// WithdrawalResult reports how a withdrawal was sourced and its tax character.
type WithdrawalResult struct {
	Amount decimal.Decimal
	Taken  domain.AssetAmounts
	// RealizedGains is the gain (negative for a loss) on a brokerage withdrawal.
	RealizedGains decimal.Decimal
	// EarningsWithdrawn is the Roth earnings portion beyond contribution basis.
	EarningsWithdrawn decimal.Decimal
}

type brokeragePayload struct {
	costBasis decimal.Decimal
}

type taxFreePayload struct {
	contributionBasis decimal.Decimal
}

// Account is a single account. Behavior is dispatched on Kind; brokerage and
// taxFree carry the variant-specific basis state and are nil for other kinds.
type Account struct {
	ID   string
	Name string
	Type domain.AccountType
	Kind Kind

	assets    domain.AssetAmounts
	target    domain.Allocation
	rebalance bool

	brokerage *brokeragePayload
	taxFree   *taxFreePayload

	totals Totals
}

// New builds an account from its configuration.
func New(cfg domain.AccountConfig) (*Account, error) {
	kind, err := KindOf(cfg.Type)
	if err != nil {
		return nil, err
	}
	if cfg.Balance.IsNegative() {
		return nil, fmt.Errorf("account %s: %w", cfg.ID, ErrNegativeAmount)
	}

	target := cfg.Allocation
	if kind == KindSavings || target.Sum() == 0 {
		target = domain.CashOnly
	}

	a := &Account{
		ID:        cfg.ID,
		Name:      cfg.Name,
		Type:      cfg.Type,
		Kind:      kind,
		target:    target,
		rebalance: cfg.RebalanceAnnually && kind != KindSavings,
		assets:    split(cfg.Balance, target),
	}

	switch kind {
	case KindTaxableBrokerage:
		basis := cfg.Balance
		if cfg.CostBasis != nil {
			basis = *cfg.CostBasis
		}
		a.brokerage = &brokeragePayload{costBasis: basis}
	case KindTaxFree:
		basis := cfg.Balance
		if cfg.ContributionBasis != nil {
			basis = *cfg.ContributionBasis
		}
		a.taxFree = &taxFreePayload{contributionBasis: basis}
	}
	return a, nil
}

// split divides amount by allocation, assigning rounding residue to cash so
// the parts always sum exactly to amount.
func split(amount decimal.Decimal, alloc domain.Allocation) domain.AssetAmounts {
	total := alloc.Sum()
	if total <= 0 {
		return domain.AssetAmounts{Cash: amount}
	}
	if math.Abs(total-1) > 1e-9 {
		alloc = domain.Allocation{Stocks: alloc.Stocks / total, Bonds: alloc.Bonds / total}
	}
	stocks := amount.Mul(decimal.NewFromFloat(alloc.Stocks))
	bonds := amount.Mul(decimal.NewFromFloat(alloc.Bonds))
	return domain.AssetAmounts{Stocks: stocks, Bonds: bonds, Cash: amount.Sub(stocks).Sub(bonds)}
}

// Balance is the sum of the asset-class sub-balances.
func (a *Account) Balance() decimal.Decimal {
	return a.assets.Total()
}

// Assets returns the current sub-balances.
func (a *Account) Assets() domain.AssetAmounts {
	return a.assets
}

// Totals returns the cumulative flow totals.
func (a *Account) Totals() Totals {
	return a.totals
}

// TargetAllocation is the configured allocation used for new money.
func (a *Account) TargetAllocation() domain.Allocation {
	return a.target
}

// RebalancesAnnually reports whether the account is reset to target each year.
func (a *Account) RebalancesAnnually() bool {
	return a.rebalance
}

// CostBasis returns the brokerage cost basis, zero for other kinds.
func (a *Account) CostBasis() decimal.Decimal {
	if a.brokerage == nil {
		return decimal.Zero
	}
	return a.brokerage.costBasis
}

// ContributionBasis returns the Roth contribution basis, zero for other kinds.
func (a *Account) ContributionBasis() decimal.Decimal {
	if a.taxFree == nil {
		return decimal.Zero
	}
	return a.taxFree.contributionBasis
}

// Allocation returns the current drifted allocation, or the target when empty.
func (a *Account) Allocation() domain.Allocation {
	balance := a.Balance()
	if !balance.IsPositive() {
		return a.target
	}
	s := money.Float(a.assets.Stocks.Div(balance))
	b := money.Float(a.assets.Bonds.Div(balance))
	return domain.Allocation{Stocks: s, Bonds: b, Cash: 1 - s - b}
}

// grow returns the change in amount at rate. Non-finite rates leave the
// amount unchanged; the returns processor rejects them before they get here.
func grow(amount decimal.Decimal, rate float64) decimal.Decimal {
	if !money.IsFinite(rate) {
		return decimal.Zero
	}
	if rate < -1 {
		rate = -1
	}
	return amount.Mul(decimal.NewFromFloat(rate))
}

// ApplyReturns grows each sub-balance by its monthly rate. The allocation is
// left to drift.
func (a *Account) ApplyReturns(monthly domain.AssetRates) ReturnsResult {
	period := domain.AssetAmounts{
		Stocks: grow(a.assets.Stocks, monthly.Stocks),
		Bonds:  grow(a.assets.Bonds, monthly.Bonds),
		Cash:   grow(a.assets.Cash, monthly.Cash),
	}
	a.assets = a.assets.Add(period)
	a.totals.Returns = a.totals.Returns.Add(period.Total())
	return ReturnsResult{ForPeriod: period, Cumulative: a.totals.Returns}
}

// ApplyYields reports the income generated by each sub-balance. Yields are
// part of the total return and never change the balance.
func (a *Account) ApplyYields(monthly domain.AssetRates) domain.AssetAmounts {
	return domain.AssetAmounts{
		Stocks: a.assets.Stocks.Mul(decimal.NewFromFloat(monthly.Stocks)),
		Bonds:  a.assets.Bonds.Mul(decimal.NewFromFloat(monthly.Bonds)),
		Cash:   a.assets.Cash.Mul(decimal.NewFromFloat(monthly.Cash)),
	}
}

// ApplyContribution adds money split by targetAllocation (the account's own
// target when nil). Savings accounts always receive cash.
func (a *Account) ApplyContribution(amount decimal.Decimal, ctype ContributionType, targetAllocation *domain.Allocation) error {
	if amount.IsNegative() {
		return fmt.Errorf("contribution to %s: %w", a.ID, ErrNegativeAmount)
	}
	if amount.IsZero() {
		return nil
	}

	alloc := a.target
	if targetAllocation != nil && a.Kind != KindSavings {
		alloc = *targetAllocation
	}
	a.assets = a.assets.Add(split(amount, alloc))

	switch a.Kind {
	case KindTaxableBrokerage:
		a.brokerage.costBasis = a.brokerage.costBasis.Add(amount)
	case KindTaxFree:
		a.taxFree.contributionBasis = a.taxFree.contributionBasis.Add(amount)
	}

	if ctype == ContributionDeposit {
		a.totals.Deposits = a.totals.Deposits.Add(amount)
	} else {
		a.totals.Contributions = a.totals.Contributions.Add(amount)
	}
	return nil
}

// ApplyWithdrawal removes amount, draining cash first and then blending bonds
// and stocks per sourceAllocation. With a nil sourceAllocation bonds drain
// before stocks.
func (a *Account) ApplyWithdrawal(amount decimal.Decimal, wtype WithdrawalType, sourceAllocation *domain.Allocation) (WithdrawalResult, error) {
	if amount.IsNegative() {
		return WithdrawalResult{}, fmt.Errorf("withdrawal from %s: %w", a.ID, ErrNegativeAmount)
	}
	if wtype == WithdrawalRMD && !tax.IsRMDEligible(a.Type) {
		return WithdrawalResult{}, fmt.Errorf("withdrawal from %s (%s): %w", a.ID, a.Type, ErrRMDIneligible)
	}
	balance := a.Balance()
	if amount.GreaterThan(balance) {
		return WithdrawalResult{}, fmt.Errorf("withdrawal of %s from %s with balance %s: %w",
			amount.StringFixed(2), a.ID, balance.StringFixed(2), ErrInsufficientFunds)
	}
	if amount.IsZero() {
		return WithdrawalResult{}, nil
	}

	taken := a.source(amount, sourceAllocation)
	result := WithdrawalResult{Amount: amount, Taken: taken}

	switch a.Kind {
	case KindTaxableBrokerage:
		basisPortion := a.brokerage.costBasis
		if amount.LessThan(balance) {
			basisPortion = a.brokerage.costBasis.Mul(amount).Div(balance)
		}
		a.brokerage.costBasis = a.brokerage.costBasis.Sub(basisPortion)
		result.RealizedGains = amount.Sub(basisPortion)
		a.totals.RealizedGains = a.totals.RealizedGains.Add(result.RealizedGains)
	case KindTaxFree:
		principal := decimal.Min(amount, a.taxFree.contributionBasis)
		a.taxFree.contributionBasis = a.taxFree.contributionBasis.Sub(principal)
		result.EarningsWithdrawn = amount.Sub(principal)
		a.totals.EarningsWithdrawn = a.totals.EarningsWithdrawn.Add(result.EarningsWithdrawn)
	}

	a.assets = domain.AssetAmounts{
		Stocks: a.assets.Stocks.Sub(taken.Stocks),
		Bonds:  a.assets.Bonds.Sub(taken.Bonds),
		Cash:   a.assets.Cash.Sub(taken.Cash),
	}
	a.totals.Withdrawals = a.totals.Withdrawals.Add(amount)
	if wtype == WithdrawalRMD {
		a.totals.RMDs = a.totals.RMDs.Add(amount)
	}
	return result, nil
}

// source decides how much each class contributes to a withdrawal. Cash is
// used first. The remainder takes the larger of the requested bond amount and
// the part stocks alone cannot cover, bounded by the bonds available; stocks
// supply the rest.
func (a *Account) source(amount decimal.Decimal, sourceAllocation *domain.Allocation) domain.AssetAmounts {
	fromCash := decimal.Min(amount, a.assets.Cash)
	remaining := amount.Sub(fromCash)
	if !remaining.IsPositive() {
		return domain.AssetAmounts{Cash: fromCash}
	}

	bondShare := decimal.NewFromInt(1)
	if sourceAllocation != nil {
		invested := sourceAllocation.Stocks + sourceAllocation.Bonds
		if invested > 0 {
			bondShare = decimal.NewFromFloat(sourceAllocation.Bonds / invested)
		}
	}
	requestedBonds := remaining.Mul(bondShare)
	unaffordableFromStocks := remaining.Sub(a.assets.Stocks)
	fromBonds := decimal.Min(a.assets.Bonds, decimal.Max(requestedBonds, unaffordableFromStocks))
	if fromBonds.IsNegative() {
		fromBonds = decimal.Zero
	}
	return domain.AssetAmounts{Cash: fromCash, Bonds: fromBonds, Stocks: remaining.Sub(fromBonds)}
}

// Rebalance resets the sub-balances to the target allocation. Sales inside a
// taxable brokerage account realize gains pro rata to the unrealized gain; the
// realized amount steps up the basis. The balance is unchanged.
func (a *Account) Rebalance() decimal.Decimal {
	balance := a.Balance()
	if !balance.IsPositive() || a.Kind == KindSavings {
		return decimal.Zero
	}
	next := split(balance, a.target)

	sold := decimal.Zero
	for _, diff := range []decimal.Decimal{
		a.assets.Stocks.Sub(next.Stocks),
		a.assets.Bonds.Sub(next.Bonds),
		a.assets.Cash.Sub(next.Cash),
	} {
		if diff.IsPositive() {
			sold = sold.Add(diff)
		}
	}

	gain := decimal.Zero
	if a.Kind == KindTaxableBrokerage && sold.IsPositive() {
		unrealized := balance.Sub(a.brokerage.costBasis)
		gain = sold.Mul(unrealized).Div(balance)
		a.brokerage.costBasis = a.brokerage.costBasis.Add(gain)
		a.totals.RealizedGains = a.totals.RealizedGains.Add(gain)
	}
	a.assets = next
	return gain
}

// Snapshot captures the account for a data point.
func (a *Account) Snapshot() domain.AccountSnapshot {
	return domain.AccountSnapshot{
		ID:                     a.ID,
		Name:                   a.Name,
		Type:                   a.Type,
		Balance:                a.Balance(),
		Assets:                 a.assets,
		CostBasis:              a.CostBasis(),
		ContributionBasis:      a.ContributionBasis(),
		TotalContributions:     a.totals.Contributions.Add(a.totals.Deposits),
		TotalWithdrawals:       a.totals.Withdrawals,
		TotalRealizedGains:     a.totals.RealizedGains,
		TotalRMDs:              a.totals.RMDs,
		TotalEarningsWithdrawn: a.totals.EarningsWithdrawn,
		TotalReturns:           a.totals.Returns,
	}
}

package calculation

import (
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

type physicalAsset struct {
	cfg    domain.PhysicalAssetConfig
	status domain.AssetStatus

	marketValue  decimal.Decimal
	loan         *amortizer
	saleProceeds decimal.Decimal
	capitalGain  decimal.Decimal
}

func (pa *physicalAsset) loanBalance() decimal.Decimal {
	if pa.loan == nil {
		return decimal.Zero
	}
	return pa.loan.balance.Add(pa.loan.unpaidInterest)
}

// AssetFlows are one month's cash effects of physical assets.
type AssetFlows struct {
	Purchases    decimal.Decimal
	LoanPayments decimal.Decimal
	SaleProceeds decimal.Decimal
}

// PhysicalAssetsProcessor runs the pending, owned, sold lifecycle.
type PhysicalAssetsProcessor struct {
	assets []*physicalAsset
	logger Logger
}

// NewPhysicalAssetsProcessor creates assets from configuration. An asset whose
// purchase time point is "now" is already owned at simulation start: it
// carries its market value and outstanding loan balance and costs no cash.
func NewPhysicalAssetsProcessor(cfgs []domain.PhysicalAssetConfig, logger Logger) *PhysicalAssetsProcessor {
	ap := &PhysicalAssetsProcessor{logger: logger}
	for _, cfg := range cfgs {
		pa := &physicalAsset{cfg: cfg, status: domain.AssetPending}
		if cfg.Purchase.Type == domain.TimePointNow {
			pa.status = domain.AssetOwned
			pa.marketValue = cfg.MarketValue
			if pa.marketValue.IsZero() {
				pa.marketValue = cfg.PurchasePrice
			}
			if l := cfg.Loan; l != nil {
				balance := l.Balance
				if balance.IsZero() {
					balance = money.ClampZero(cfg.PurchasePrice.Sub(l.DownPayment))
				}
				pa.loan = newAmortizer(balance, decimal.Zero, l.APR, l.InterestType, l.Compounding, l.MonthlyPayment)
			}
		}
		ap.assets = append(ap.assets, pa)
	}
	return ap
}

// Process advances every asset one month. Appreciation uses the real rate.
func (ap *PhysicalAssetsProcessor) Process(s *SimulationState, annualInflation, monthlyInflation float64) AssetFlows {
	var flows AssetFlows
	m := s.Moment()
	for _, pa := range ap.assets {
		switch pa.status {
		case domain.AssetPending:
			if pa.cfg.Purchase.Reached(m) {
				flows.Purchases = flows.Purchases.Add(ap.purchase(pa))
				ap.logger.Debugf("asset %s purchased at age %.2f", pa.cfg.ID, s.Age)
			}
		case domain.AssetOwned:
			if pa.cfg.Sale != nil && pa.cfg.Sale.Reached(m) {
				flows.SaleProceeds = flows.SaleProceeds.Add(ap.sell(s, pa))
				ap.logger.Debugf("asset %s sold at age %.2f for %s", pa.cfg.ID, s.Age, pa.saleProceeds.StringFixed(2))
				continue
			}
			rate := money.MonthlyCompounded(money.RealRate(pa.cfg.AppreciationRate, annualInflation))
			pa.marketValue = pa.marketValue.Mul(decimal.NewFromFloat(1 + rate))
			if pa.loan != nil {
				flows.LoanPayments = flows.LoanPayments.Add(pa.loan.step(monthlyInflation))
			}
		}
	}

	e := &s.Annual.Expenses
	e.AssetPurchases = e.AssetPurchases.Add(flows.Purchases)
	e.LoanPayments = e.LoanPayments.Add(flows.LoanPayments)
	e.AssetSaleProceeds = e.AssetSaleProceeds.Add(flows.SaleProceeds)
	e.Total = money.Sum(e.Total, flows.Purchases, flows.LoanPayments)
	return flows
}

// purchase returns the cash paid: the down payment when financed, the full
// price otherwise.
func (ap *PhysicalAssetsProcessor) purchase(pa *physicalAsset) decimal.Decimal {
	pa.status = domain.AssetOwned
	pa.marketValue = pa.cfg.PurchasePrice
	l := pa.cfg.Loan
	if l == nil {
		return pa.cfg.PurchasePrice
	}
	financed := money.ClampZero(pa.cfg.PurchasePrice.Sub(l.DownPayment))
	pa.loan = newAmortizer(financed, decimal.Zero, l.APR, l.InterestType, l.Compounding, l.MonthlyPayment)
	return decimal.Min(l.DownPayment, pa.cfg.PurchasePrice)
}

// sell settles the loan from the market value. Proceeds may be negative when
// the loan is under water. A positive gain is a realized capital gain.
func (ap *PhysicalAssetsProcessor) sell(s *SimulationState, pa *physicalAsset) decimal.Decimal {
	pa.status = domain.AssetSold
	pa.saleProceeds = pa.marketValue.Sub(pa.loanBalance())
	pa.capitalGain = pa.marketValue.Sub(pa.cfg.PurchasePrice)
	if pa.loan != nil {
		pa.loan.principalPaid = pa.loan.principalPaid.Add(pa.loan.balance)
		pa.loan.balance = decimal.Zero
		pa.loan.unpaidInterest = decimal.Zero
	}
	if pa.capitalGain.IsPositive() {
		s.Annual.Tax.RealizedGains = s.Annual.Tax.RealizedGains.Add(pa.capitalGain)
		s.Annual.RealizedGains = s.Annual.RealizedGains.Add(pa.capitalGain)
	}
	return pa.saleProceeds
}

// Snapshot captures every asset.
func (ap *PhysicalAssetsProcessor) Snapshot() []domain.AssetSnapshot {
	out := make([]domain.AssetSnapshot, 0, len(ap.assets))
	for _, pa := range ap.assets {
		snap := domain.AssetSnapshot{
			ID:           pa.cfg.ID,
			Name:         pa.cfg.Name,
			Status:       pa.status,
			SaleProceeds: pa.saleProceeds,
			CapitalGain:  pa.capitalGain,
		}
		if pa.status == domain.AssetOwned {
			snap.MarketValue = pa.marketValue
			snap.LoanBalance = pa.loanBalance()
			snap.Equity = pa.marketValue.Sub(snap.LoanBalance)
		}
		out = append(out, snap)
	}
	return out
}

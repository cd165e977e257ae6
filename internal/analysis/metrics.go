package analysis

import (
	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
)

// KeyMetrics are the scalar outcomes of one run.
type KeyMetrics struct {
	Success  bool    `json:"success"`
	StartAge float64 `json:"start_age"`
	// RetirementAge and YearsToRetirement are nil when retirement was never reached.
	RetirementAge     *float64 `json:"retirement_age,omitempty"`
	YearsToRetirement *float64 `json:"years_to_retirement,omitempty"`
	// BankruptcyAge is the depletion age, nil for a successful run.
	BankruptcyAge         *float64        `json:"bankruptcy_age,omitempty"`
	PortfolioAtRetirement decimal.Decimal `json:"portfolio_at_retirement"`
	FinalPortfolio        decimal.Decimal `json:"final_portfolio"`

	LifetimeTaxes         decimal.Decimal `json:"lifetime_taxes"`
	LifetimeContributions decimal.Decimal `json:"lifetime_contributions"`
	LifetimeWithdrawals   decimal.Decimal `json:"lifetime_withdrawals"`

	// Geometric means of the annual real rates applied over the run.
	AverageStockReturn float64 `json:"average_stock_return"`
	AverageBondReturn  float64 `json:"average_bond_return"`
	AverageCashReturn  float64 `json:"average_cash_return"`
	AverageInflation   float64 `json:"average_inflation"`
}

// periods returns the data points that close a simulated year (or the
// partial year a run ended in). The initial snapshot carries no taxes.
func periods(r *domain.SimulationResult) []domain.SimulationDataPoint {
	out := make([]domain.SimulationDataPoint, 0, len(r.Data))
	for _, dp := range r.Data {
		if dp.Taxes != nil {
			out = append(out, dp)
		}
	}
	return out
}

// RetirementAge is the age retirement began: the start age when the run
// starts retired, the first transition into retirement otherwise.
func RetirementAge(r *domain.SimulationResult) (float64, bool) {
	if len(r.Data) > 0 && r.Data[0].Phase == domain.PhaseRetirement {
		return r.Context.StartAge, true
	}
	for _, t := range r.Context.PhaseTransitions {
		if t.To == domain.PhaseRetirement {
			return t.Age, true
		}
	}
	return 0, false
}

// ComputeKeyMetrics extracts the scalar outcomes of a completed run.
func ComputeKeyMetrics(r *domain.SimulationResult) (KeyMetrics, error) {
	if r == nil || len(r.Data) == 0 {
		return KeyMetrics{}, ErrNoData
	}
	final, _ := r.Final()
	km := KeyMetrics{
		Success:        !r.Context.Depleted,
		StartAge:       r.Context.StartAge,
		FinalPortfolio: final.Portfolio.TotalValue,
	}
	if r.Context.Depleted {
		age := r.Context.DepletionAge
		km.BankruptcyAge = &age
	}
	if age, ok := RetirementAge(r); ok {
		years := age - km.StartAge
		km.RetirementAge = &age
		km.YearsToRetirement = &years
		for _, dp := range r.Data {
			if dp.Age+1e-9 >= age {
				km.PortfolioAtRetirement = dp.Portfolio.TotalValue
				break
			}
		}
	}

	var stocks, bonds, cash, inflation []float64
	for _, dp := range periods(r) {
		km.LifetimeTaxes = km.LifetimeTaxes.Add(dp.Taxes.TotalTax)
		km.LifetimeContributions = km.LifetimeContributions.Add(dp.Portfolio.Contributions)
		km.LifetimeWithdrawals = km.LifetimeWithdrawals.Add(dp.Portfolio.Withdrawals)
		stocks = append(stocks, dp.Returns.Rates.Stocks)
		bonds = append(bonds, dp.Returns.Rates.Bonds)
		cash = append(cash, dp.Returns.Rates.Cash)
		inflation = append(inflation, dp.Returns.Inflation)
	}
	if len(stocks) > 0 {
		km.AverageStockReturn, _ = GeometricMean(stocks)
		km.AverageBondReturn, _ = GeometricMean(bonds)
		km.AverageCashReturn, _ = GeometricMean(cash)
		km.AverageInflation, _ = GeometricMean(inflation)
	}
	return km, nil
}

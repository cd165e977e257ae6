package calculation

import (
	"errors"
	"fmt"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/returns"
	"github.com/rpgo/finsim/pkg/money"
)

// ErrNonFiniteRate is returned when a provider yields a rate that cannot be
// applied to a balance.
var ErrNonFiniteRate = errors.New("non-finite return rate")

// ReturnsProcessor asks the provider for rates once per simulation year and
// applies them monthly: compounded for returns, simply divided for yields.
type ReturnsProcessor struct {
	provider *returns.Provider

	cached   returns.ReturnsData
	lastYear int

	monthlyReturns   domain.AssetRates
	monthlyYields    domain.AssetRates
	monthlyInflation float64
}

// NewReturnsProcessor wraps a provider owned by one run.
func NewReturnsProcessor(p *returns.Provider) *ReturnsProcessor {
	return &ReturnsProcessor{provider: p, lastYear: -1}
}

// Rates returns the annual rates in force for the state's year, drawing new
// ones on year rollover.
func (rp *ReturnsProcessor) Rates(s *SimulationState) returns.ReturnsData {
	if year := s.Year(); year != rp.lastYear {
		rp.cached = rp.provider.GetReturns(returns.PhaseData{Phase: s.Phase, Year: year})
		rp.lastYear = year
		rp.monthlyReturns = domain.AssetRates{
			Stocks: money.MonthlyCompounded(rp.cached.Returns.Stocks),
			Bonds:  money.MonthlyCompounded(rp.cached.Returns.Bonds),
			Cash:   money.MonthlyCompounded(rp.cached.Returns.Cash),
		}
		rp.monthlyYields = domain.AssetRates{
			Stocks: money.MonthlySimple(rp.cached.Yields.Stocks),
			Bonds:  money.MonthlySimple(rp.cached.Yields.Bonds),
			Cash:   money.MonthlySimple(rp.cached.Yields.Cash),
		}
		rp.monthlyInflation = money.MonthlyCompounded(rp.cached.InflationRate)
	}
	return rp.cached
}

// MonthlyInflation is the compounded monthly equivalent of the year's inflation.
func (rp *ReturnsProcessor) MonthlyInflation() float64 {
	return rp.monthlyInflation
}

// Process applies one month of returns, then records the month's yields as
// taxable income without touching balances.
func (rp *ReturnsProcessor) Process(s *SimulationState) error {
	rp.Rates(s)
	if err := rp.checkRates(); err != nil {
		return err
	}

	amounts := s.Portfolio.ApplyReturns(rp.monthlyReturns)
	s.Annual.Returns = s.Annual.Returns.Add(amounts)

	yields := s.Portfolio.ApplyYields(rp.monthlyYields)
	s.Annual.Yields = s.Annual.Yields.Add(yields.Total)
	s.Annual.Tax.TaxableInterest = s.Annual.Tax.TaxableInterest.Add(yields.TaxableInterest)
	s.Annual.Tax.Dividends = s.Annual.Tax.Dividends.Add(yields.Dividends)
	return nil
}

func (rp *ReturnsProcessor) checkRates() error {
	named := []struct {
		name string
		rate float64
	}{
		{"stocks", rp.monthlyReturns.Stocks},
		{"bonds", rp.monthlyReturns.Bonds},
		{"cash", rp.monthlyReturns.Cash},
		{"stock yield", rp.monthlyYields.Stocks},
		{"bond yield", rp.monthlyYields.Bonds},
		{"cash yield", rp.monthlyYields.Cash},
		{"inflation", rp.monthlyInflation},
	}
	for _, n := range named {
		if !money.IsFinite(n.rate) {
			return fmt.Errorf("year %d %s: %w", rp.lastYear, n.name, ErrNonFiniteRate)
		}
	}
	return nil
}

// Snapshot reports the year's rates and the amounts they produced so far.
func (rp *ReturnsProcessor) Snapshot(s *SimulationState) domain.ReturnsSnapshot {
	return domain.ReturnsSnapshot{
		Rates:          rp.cached.Returns,
		Yields:         rp.cached.Yields,
		Inflation:      rp.cached.InflationRate,
		Amounts:        s.Annual.Returns,
		YieldAmounts:   s.Annual.Yields,
		HistoricalYear: rp.cached.HistoricalYear,
	}
}

package output

import (
	"fmt"

	"github.com/rpgo/finsim/internal/domain"
)

// DefaultAssumptions lists modeling assumptions that hold for every run.
var DefaultAssumptions = []string{
	"All amounts are in today's dollars; returns and growth rates are real",
	"Tax brackets, deductions and contribution limits: 2025 levels held constant",
	"Taxes are settled in the first month of the following year",
}

// GenerateAssumptions creates the assumptions list from actual config values.
func GenerateAssumptions(cfg *domain.Configuration) []string {
	if cfg == nil {
		return DefaultAssumptions
	}
	m := cfg.MarketAssumptions
	rs := cfg.Timeline.RetirementStrategy
	strategy := fmt.Sprintf("Retirement at age %.1f", rs.RetirementAge)
	if rs.Type == domain.StrategySWRTarget {
		strategy = fmt.Sprintf("Retirement once %s of the portfolio covers mean annual obligations", FormatRate(rs.SafeWithdrawalRate))
	}
	out := []string{
		fmt.Sprintf("Nominal returns: stocks %s, bonds %s, cash %s", FormatRate(m.StockReturn), FormatRate(m.BondReturn), FormatRate(m.CashReturn)),
		fmt.Sprintf("Yields: stocks %s, bonds %s, cash %s", FormatRate(m.StockYield), FormatRate(m.BondYield), FormatRate(m.CashYield)),
		fmt.Sprintf("Inflation: %s annually", FormatRate(m.Inflation)),
		strategy,
		fmt.Sprintf("Filing status: %s", cfg.FilingStatus),
	}
	return append(out, DefaultAssumptions...)
}

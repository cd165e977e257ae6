package calculation

import (
	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
)

// PhaseInputs is what the phase identifier looks at.
type PhaseInputs struct {
	Age            float64
	PortfolioValue decimal.Decimal
	// MeanAnnualObligations is annualized trailing expenses plus debt and loan
	// payments; HasObligations is false before any month has completed.
	MeanAnnualObligations decimal.Decimal
	HasObligations        bool
}

// PhaseIdentifier classifies each month as accumulation or retirement.
type PhaseIdentifier struct {
	strategy domain.RetirementStrategy
	retired  bool
}

// NewPhaseIdentifier creates an identifier for the strategy.
func NewPhaseIdentifier(strategy domain.RetirementStrategy) *PhaseIdentifier {
	return &PhaseIdentifier{strategy: strategy}
}

// Identify returns the phase for the inputs. A fixed-age strategy is
// re-derived on every call; a safe-withdrawal target never leaves retirement
// once reached.
func (pi *PhaseIdentifier) Identify(in PhaseInputs) domain.Phase {
	switch pi.strategy.Type {
	case domain.StrategySWRTarget:
		if !pi.retired && in.HasObligations {
			safe := in.PortfolioValue.Mul(decimal.NewFromFloat(pi.strategy.SafeWithdrawalRate))
			pi.retired = safe.GreaterThanOrEqual(in.MeanAnnualObligations)
		}
	default:
		pi.retired = in.Age+1e-9 >= pi.strategy.RetirementAge
	}
	if pi.retired {
		return domain.PhaseRetirement
	}
	return domain.PhaseAccumulation
}

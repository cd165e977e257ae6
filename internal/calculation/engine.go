package calculation

import (
	"errors"
	"fmt"
	"time"

	"github.com/rpgo/finsim/internal/account"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/returns"
	"github.com/rpgo/finsim/internal/tax"
	"github.com/rpgo/finsim/pkg/dateutil"
	"github.com/rpgo/finsim/pkg/money"
	"github.com/shopspring/decimal"
)

// ErrInvalidSink is returned when the default deposit account is not a
// savings or taxable brokerage account.
var ErrInvalidSink = errors.New("default account cannot receive deposits")

// DefaultWorkers bounds concurrent trials in multi-run modes.
const DefaultWorkers = 10

// CalculationEngine runs simulations for one configuration. It holds no
// per-run state, so a single engine may run many trials concurrently.
type CalculationEngine struct {
	Config  *domain.Configuration
	Workers int
	Logger  Logger

	now  func() time.Time
	seed func() int64
}

// NewCalculationEngine creates an engine for a validated configuration.
func NewCalculationEngine(cfg *domain.Configuration) *CalculationEngine {
	return &CalculationEngine{
		Config:  cfg,
		Workers: DefaultWorkers,
		Logger:  NopLogger{},
		now:     time.Now,
		seed:    systemSeed,
	}
}

// SetLogger sets the logger for the calculation engine. If nil is provided, a no-op logger is used.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

func (ce *CalculationEngine) log() Logger {
	if ce.Logger == nil {
		return NopLogger{}
	}
	return ce.Logger
}

// StartDate is the configured start date, or the first of the current month.
func (ce *CalculationEngine) StartDate() time.Time {
	if ce.Config != nil && !ce.Config.Timeline.StartDate.IsZero() {
		return ce.Config.Timeline.StartDate
	}
	return dateutil.FirstOfMonth(ce.clock())
}

// RunSimulation runs one trial to the horizon or to depletion. The provider
// must not be shared with any other run.
func (ce *CalculationEngine) RunSimulation(provider *returns.Provider, mode domain.SimulationMode, seed int64) (*domain.SimulationResult, error) {
	run, err := ce.newRun(provider, mode, seed)
	if err != nil {
		return nil, err
	}
	if err := run.execute(); err != nil {
		return nil, fmt.Errorf("%s run (seed %d): %w", mode, seed, err)
	}
	return run.result, nil
}

// RunDeterministic runs once with constant returns from the market assumptions.
func (ce *CalculationEngine) RunDeterministic() (*domain.SimulationResult, error) {
	if ce.Config == nil {
		return nil, fmt.Errorf("no configuration")
	}
	return ce.RunSimulation(returns.NewFixed(ce.Config.MarketAssumptions), domain.ModeDeterministic, 0)
}

// simulationRun owns everything one trial mutates.
type simulationRun struct {
	cfg      *domain.Configuration
	logger   Logger
	provider *returns.Provider
	state    *SimulationState

	returns       *ReturnsProcessor
	incomes       *IncomesProcessor
	expenses      *ExpensesProcessor
	debts         *DebtsProcessor
	assets        *PhysicalAssetsProcessor
	contributions *ContributionRules
	phase         *PhaseIdentifier
	taxes         *tax.Processor
	rmd           *tax.RMDCalculator
	order         []*account.Account

	pendingDue decimal.Decimal
	result     *domain.SimulationResult
}

func (ce *CalculationEngine) newRun(provider *returns.Provider, mode domain.SimulationMode, seed int64) (*simulationRun, error) {
	cfg := ce.Config
	if cfg == nil {
		return nil, fmt.Errorf("no configuration")
	}
	if provider == nil {
		return nil, fmt.Errorf("no returns provider")
	}
	portfolio, err := account.NewPortfolio(cfg.Accounts)
	if err != nil {
		return nil, fmt.Errorf("building portfolio: %w", err)
	}
	sink, err := resolveSink(portfolio, cfg.ContributionSettings.DefaultAccountID)
	if err != nil {
		return nil, fmt.Errorf("default account: %w", err)
	}
	order, err := portfolio.LiquidationOrder(cfg.WithdrawalOrder)
	if err != nil {
		return nil, fmt.Errorf("withdrawal order: %w", err)
	}

	logger := ce.log()
	tl := cfg.Timeline
	start := ce.StartDate()

	return &simulationRun{
		cfg:           cfg,
		logger:        logger,
		provider:      provider,
		state:         newSimulationState(start, tl.CurrentAge, tl.LifeExpectancy, portfolio, sink),
		returns:       NewReturnsProcessor(provider),
		incomes:       NewIncomesProcessor(cfg.Incomes),
		expenses:      NewExpensesProcessor(cfg.Expenses),
		debts:         NewDebtsProcessor(cfg.Debts, logger),
		assets:        NewPhysicalAssetsProcessor(cfg.PhysicalAssets, logger),
		contributions: NewContributionRules(cfg.ContributionRules, cfg.ContributionSettings),
		phase:         NewPhaseIdentifier(tl.RetirementStrategy),
		taxes:         tax.NewProcessor(cfg.FilingStatus),
		rmd:           tax.NewRMDCalculator(dateutil.BirthYear(start, tl.CurrentAge)),
		order:         order,
		result: &domain.SimulationResult{
			Context: domain.SimulationContext{
				RunID:              runID(mode, seed, start, tl.CurrentAge),
				Mode:               mode,
				Seed:               seed,
				StartDate:          start,
				StartAge:           tl.CurrentAge,
				LifeExpectancy:     tl.LifeExpectancy,
				RetirementStrategy: tl.RetirementStrategy,
			},
		},
	}, nil
}

// resolveSink picks the account receiving deposits: the configured default,
// else the first savings account, else the first taxable brokerage account.
// Only those two kinds may receive deposits.
func resolveSink(p *account.Portfolio, id string) (*account.Account, error) {
	if id != "" {
		a, err := p.Get(id)
		if err != nil {
			return nil, err
		}
		if a.Kind != account.KindSavings && a.Kind != account.KindTaxableBrokerage {
			return nil, fmt.Errorf("%s is a %s account: %w", id, a.Kind, ErrInvalidSink)
		}
		return a, nil
	}
	if a := p.FirstOfKind(account.KindSavings); a != nil {
		return a, nil
	}
	return p.FirstOfKind(account.KindTaxableBrokerage), nil
}

func (r *simulationRun) execute() error {
	s := r.state
	months := r.cfg.Timeline.TotalMonths()
	r.logger.Infof("starting %s run: seed=%d months=%d start=%s",
		r.result.Context.Mode, r.result.Context.Seed, months, s.StartDate.Format("2006-01-02"))

	s.Phase = r.phase.Identify(PhaseInputs{Age: s.Age, PortfolioValue: s.Portfolio.TotalValue()})
	r.emit(nil, s.StartDate, s.StartAge)

	for m := 0; m < months; m++ {
		done, err := r.step(m, m == months-1)
		if err != nil {
			return fmt.Errorf("month %d: %w", m, err)
		}
		if done {
			break
		}
	}
	r.result.Context.HistoricalSpans = r.provider.Spans()
	return nil
}

// step simulates month m: returns, incomes and expenses, debts and assets,
// contributions or withdrawals, taxes, then phase. It reports whether the
// run has ended in depletion.
func (r *simulationRun) step(m int, last bool) (bool, error) {
	s := r.state
	s.beginMonth(m)
	uncovered := decimal.Zero

	if m > 0 && m%dateutil.MonthsPerYear == 0 && !r.pendingDue.IsZero() {
		u, err := settleTaxes(s, r.pendingDue, r.order)
		if err != nil {
			return false, fmt.Errorf("settling taxes: %w", err)
		}
		uncovered = uncovered.Add(u)
		r.pendingDue = decimal.Zero
	}

	if err := r.returns.Process(s); err != nil {
		return false, fmt.Errorf("applying returns: %w", err)
	}
	rates := r.returns.Rates(s)

	income := r.incomes.Process(s)
	expenses := r.expenses.Process(s)

	debtPayments := r.debts.Process(s, r.returns.MonthlyInflation())
	assetFlows := r.assets.Process(s, rates.InflationRate, r.returns.MonthlyInflation())

	obligations := money.Sum(expenses, debtPayments, assetFlows.LoanPayments)
	s.recordObligations(obligations)

	cash := income.Add(assetFlows.SaleProceeds).Sub(obligations).Sub(assetFlows.Purchases)
	switch {
	case cash.IsPositive():
		if _, err := r.contributions.Allocate(s, cash); err != nil {
			return false, err
		}
	case cash.IsNegative():
		u, err := coverShortfall(s, cash.Neg(), r.order)
		if err != nil {
			return false, err
		}
		uncovered = uncovered.Add(u)
	}

	yearEnd := s.IsYearEnd()
	if yearEnd {
		if err := takeRMDs(s, r.rmd, r.logger); err != nil {
			return false, err
		}
		r.rebalance()
	}

	depleted := uncovered.IsPositive()
	var taxes *domain.TaxesData
	if yearEnd || last || depleted {
		taxes = r.processTaxes()
	}

	r.identifyPhase()
	if !depleted && s.Retired() && s.Portfolio.IsDepleted() {
		depleted = true
		if taxes == nil {
			taxes = r.processTaxes()
		}
	}

	if taxes != nil {
		r.emit(taxes, s.EndOfMonthDate(), s.EndOfMonthAge())
		if yearEnd {
			r.pendingDue = taxes.AmountDue
		}
	}
	if depleted {
		r.result.Context.Depleted = true
		r.result.Context.DepletionAge = s.EndOfMonthAge()
		r.logger.Warnf("portfolio depleted at age %.2f (uncovered %s)", s.EndOfMonthAge(), uncovered.StringFixed(2))
		return true, nil
	}
	return false, nil
}

func (r *simulationRun) processTaxes() *domain.TaxesData {
	t := r.taxes.Process(r.state.Year(), r.state.Annual.Tax)
	return &t
}

func (r *simulationRun) rebalance() {
	s := r.state
	for _, a := range s.Portfolio.Accounts() {
		if !a.RebalancesAnnually() {
			continue
		}
		if gain := a.Rebalance(); !gain.IsZero() {
			s.Annual.Tax.RealizedGains = s.Annual.Tax.RealizedGains.Add(gain)
			s.Annual.RealizedGains = s.Annual.RealizedGains.Add(gain)
		}
	}
}

func (r *simulationRun) identifyPhase() {
	s := r.state
	mean, ok := s.MeanAnnualObligations()
	next := r.phase.Identify(PhaseInputs{
		Age:                   s.EndOfMonthAge(),
		PortfolioValue:        s.Portfolio.TotalValue(),
		MeanAnnualObligations: mean,
		HasObligations:        ok,
	})
	if next == s.Phase {
		return
	}
	r.result.Context.PhaseTransitions = append(r.result.Context.PhaseTransitions, domain.PhaseTransition{
		Age:  s.EndOfMonthAge(),
		Date: s.EndOfMonthDate(),
		From: s.Phase,
		To:   next,
	})
	r.logger.Infof("phase %s -> %s at age %.2f", s.Phase, next, s.EndOfMonthAge())
	s.Phase = next
}

func (r *simulationRun) emit(taxes *domain.TaxesData, date time.Time, age float64) {
	s := r.state
	a := s.Annual
	r.result.Data = append(r.result.Data, domain.SimulationDataPoint{
		Date:  date,
		Age:   age,
		Year:  s.Year(),
		Phase: s.Phase,
		Portfolio: domain.PortfolioSnapshot{
			TotalValue:        s.Portfolio.TotalValue(),
			Assets:            s.Portfolio.Assets(),
			Accounts:          s.Portfolio.Snapshot(),
			Contributions:     a.Contributions,
			Withdrawals:       a.Withdrawals,
			RealizedGains:     a.RealizedGains,
			EarningsWithdrawn: a.EarningsWithdrawn,
			RMDs:              a.RMDs,
		},
		Incomes:        a.Incomes,
		Expenses:       a.Expenses,
		Debts:          r.debts.Snapshot(),
		PhysicalAssets: r.assets.Snapshot(),
		Taxes:          taxes,
		Returns:        r.returns.Snapshot(s),
		Shortfall:      a.Shortfall,
	})
}

package calculation

import (
	"bytes"
	"testing"

	"github.com/rpgo/finsim/internal/account"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, age float64, cfgs ...domain.AccountConfig) *SimulationState {
	t.Helper()
	p, err := account.NewPortfolio(cfgs)
	require.NoError(t, err)
	s := newSimulationState(testStart, age, 90, p, p.FirstOfKind(account.KindSavings))
	s.beginMonth(0)
	return s
}

func balanceOf(t *testing.T, s *SimulationState, id string) decimal.Decimal {
	t.Helper()
	a, err := s.Portfolio.Get(id)
	require.NoError(t, err)
	return a.Balance()
}

func TestAnnualizedAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		freq   domain.Frequency
		growth float64
		limit  float64
		year   int
		want   float64
	}{
		{"monthly base year", 5000, domain.FrequencyMonthly, 1.0, 72000, 0, 60000},
		{"growth capped", 5000, domain.FrequencyMonthly, 1.0, 72000, 1, 72000},
		{"uncapped growth", 5000, domain.FrequencyMonthly, 1.0, 0, 1, 120000},
		{"biweekly", 1000, domain.FrequencyBiweekly, 0, 0, 3, 26000},
		{"weekly", 100, domain.FrequencyWeekly, 0, 0, 0, 5200},
		{"yearly", 12000, domain.FrequencyYearly, 0, 0, 0, 12000},
		{"negative growth floored", 10000, domain.FrequencyYearly, -0.5, 6000, 1, 6000},
		{"negative growth above floor", 10000, domain.FrequencyYearly, -0.5, 4000, 1, 5000},
		{"default frequency is monthly", 100, "", 0, 0, 0, 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualizedAmount(d(tt.amount), tt.freq, tt.growth, d(tt.limit), tt.year)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %v", got, tt.want)
		})
	}
}

func TestIncomesProcessor(t *testing.T) {
	s := newTestState(t, 60)
	ip := NewIncomesProcessor([]domain.IncomeConfig{
		{ID: "wage", Type: domain.IncomeWage, Amount: d(6000), WithholdingRate: 0.25,
			TimeFrame: domain.TimeFrame{Start: domain.Now(), End: tp(domain.AtAge(60.25))}},
		{ID: "ss", Type: domain.IncomeSocialSecurity, Amount: d(2000),
			TimeFrame: domain.TimeFrame{Start: domain.AtAge(60.25)}},
		{ID: "bonus", Type: domain.IncomePension, Amount: d(5000), Frequency: domain.FrequencyOneTime,
			TimeFrame: domain.TimeFrame{Start: domain.Now()}},
		{ID: "gift", Type: domain.IncomeExempt, Amount: d(1200), Frequency: domain.FrequencyYearly,
			TimeFrame: domain.TimeFrame{Start: domain.Now()}},
	})

	net := ip.Process(s)
	assert.True(t, net.Equal(d(4500+5000+100)), "net %s", net)

	s.beginMonth(1)
	net = ip.Process(s)
	assert.True(t, net.Equal(d(4500+100)), "one-time income paid twice: %s", net)

	for m := 2; m < 4; m++ {
		s.beginMonth(m)
		ip.Process(s)
	}

	in := s.Annual.Tax
	assert.True(t, in.Wages.Equal(d(18000)))
	assert.True(t, in.SocialSecurity.Equal(d(2000)))
	assert.True(t, in.OtherOrdinary.Equal(d(5000)))
	assert.True(t, in.TaxExempt.Equal(d(400)))
	assert.True(t, in.Withholding.Equal(d(4500)))
	assert.True(t, s.Annual.Incomes.ByID["wage"].Equal(d(18000)))
	assert.True(t, s.Annual.Incomes.TotalGross.Equal(d(25400)))
}

func TestContributionWaterfall(t *testing.T) {
	s := newTestState(t, 30,
		domain.AccountConfig{ID: "cash", Type: domain.AccountSavings},
		domain.AccountConfig{ID: "401k", Type: domain.Account401k},
		domain.AccountConfig{ID: "roth", Type: domain.AccountRothIRA},
		domain.AccountConfig{ID: "brokerage", Type: domain.AccountTaxableBrokerage},
	)
	cr := NewContributionRules([]domain.ContributionRule{
		{ID: "b", AccountID: "brokerage", Rank: 3, Type: domain.ContributionPercentRemaining, Percentage: 0.5},
		{ID: "k", AccountID: "401k", Rank: 1, Type: domain.ContributionDollarAmount, DollarAmount: d(30000)},
		{ID: "r", AccountID: "roth", Rank: 2, Type: domain.ContributionUnlimited},
	}, domain.ContributionSettings{BaseRule: domain.BaseRuleSave})

	out, err := cr.Allocate(s, d(30000))
	require.NoError(t, err)
	assert.True(t, out.Contributed.Equal(d(30000)))
	assert.True(t, balanceOf(t, s, "401k").Equal(d(23500)), "401k capped by the statutory limit")
	assert.True(t, balanceOf(t, s, "roth").Equal(d(6500)))
	assert.True(t, out.Leftover.IsZero())

	out, err = cr.Allocate(s, d(10000))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, s, "401k").Equal(d(23500)))
	assert.True(t, balanceOf(t, s, "roth").Equal(d(7000)))
	assert.True(t, balanceOf(t, s, "brokerage").Equal(d(4750)))
	assert.True(t, out.Saved.Equal(d(4750)))
	assert.True(t, balanceOf(t, s, "cash").Equal(d(4750)))

	assert.True(t, s.Annual.Tax.PreTaxContributions.Equal(d(23500)))
	assert.True(t, s.Annual.Contributions.Equal(d(40000)))

	// A new simulation year resets the statutory headroom.
	s.beginMonth(12)
	_, err = cr.Allocate(s, d(1000))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, s, "401k").Equal(d(24500)))
}

func TestContributionCaps(t *testing.T) {
	t.Run("max balance", func(t *testing.T) {
		s := newTestState(t, 40, domain.AccountConfig{ID: "brokerage", Type: domain.AccountTaxableBrokerage, Balance: d(800)})
		cr := NewContributionRules([]domain.ContributionRule{
			{ID: "b", AccountID: "brokerage", Type: domain.ContributionUnlimited, MaxBalance: d(1000)},
		}, domain.ContributionSettings{BaseRule: domain.BaseRuleSpend})
		out, err := cr.Allocate(s, d(500))
		require.NoError(t, err)
		assert.True(t, out.Contributed.Equal(d(200)))
		assert.True(t, out.Leftover.Equal(d(300)))
		assert.True(t, out.Saved.IsZero())
	})

	t.Run("eligible income", func(t *testing.T) {
		s := newTestState(t, 40, domain.AccountConfig{ID: "roth", Type: domain.AccountRoth401k})
		s.Annual.Incomes.ByID["side"] = d(1000)
		cr := NewContributionRules([]domain.ContributionRule{
			{ID: "r", AccountID: "roth", Type: domain.ContributionUnlimited, IncomeIDs: []string{"side"}},
		}, domain.ContributionSettings{BaseRule: domain.BaseRuleSpend})
		out, err := cr.Allocate(s, d(5000))
		require.NoError(t, err)
		assert.True(t, out.Contributed.Equal(d(1000)))
		out, err = cr.Allocate(s, d(5000))
		require.NoError(t, err)
		assert.True(t, out.Contributed.IsZero())
	})

	t.Run("catch-up at 50", func(t *testing.T) {
		s := newTestState(t, 52, domain.AccountConfig{ID: "ira", Type: domain.AccountIRA})
		cr := NewContributionRules([]domain.ContributionRule{
			{ID: "i", AccountID: "ira", Type: domain.ContributionUnlimited},
		}, domain.ContributionSettings{})
		out, err := cr.Allocate(s, d(20000))
		require.NoError(t, err)
		assert.True(t, out.Contributed.Equal(d(8000)))
	})
}

func TestAmortizer(t *testing.T) {
	t.Run("compound applies excess to balance", func(t *testing.T) {
		a := newAmortizer(d(1000), decimal.Zero, 0.12, domain.InterestCompound, domain.CompoundingMonthly, d(100))
		paid := a.step(0)
		assert.True(t, paid.Equal(d(100)))
		assert.InDelta(t, 910, a.balance.InexactFloat64(), 1e-6)
		assert.InDelta(t, 10, a.interestPaid.InexactFloat64(), 1e-6)
		assert.InDelta(t, 90, a.principalPaid.InexactFloat64(), 1e-6)
	})

	t.Run("compound shortfall grows balance", func(t *testing.T) {
		a := newAmortizer(d(1000), decimal.Zero, 0.12, domain.InterestCompound, domain.CompoundingMonthly, d(4))
		a.step(0)
		assert.InDelta(t, 1006, a.balance.InexactFloat64(), 1e-6)
	})

	t.Run("daily compounding accrues more than monthly", func(t *testing.T) {
		daily := newAmortizer(d(1000), decimal.Zero, 0.12, domain.InterestCompound, domain.CompoundingDaily, decimal.Zero)
		monthly := newAmortizer(d(1000), decimal.Zero, 0.12, domain.InterestCompound, domain.CompoundingMonthly, decimal.Zero)
		daily.step(0)
		monthly.step(0)
		assert.True(t, daily.balance.GreaterThan(monthly.balance))
	})

	t.Run("simple interest accrues on principal only", func(t *testing.T) {
		a := newAmortizer(d(1000), decimal.Zero, 0.12, domain.InterestSimple, "", d(5))
		a.step(0)
		assert.InDelta(t, 1000, a.balance.InexactFloat64(), 1e-9)
		assert.InDelta(t, 5, a.unpaidInterest.InexactFloat64(), 1e-6)

		a.step(0)
		assert.InDelta(t, 10, a.unpaidInterest.InexactFloat64(), 1e-6)

		a.payment = d(25)
		a.step(0)
		// 10 current interest, 10 unpaid, 5 principal.
		assert.InDelta(t, 995, a.balance.InexactFloat64(), 1e-6)
		assert.InDelta(t, 0, a.unpaidInterest.InexactFloat64(), 1e-6)
		assert.InDelta(t, 30, a.interestPaid.InexactFloat64(), 1e-6)
	})

	t.Run("inflation shrinks payment and real rate", func(t *testing.T) {
		a := newAmortizer(d(1000), decimal.Zero, 0, domain.InterestSimple, "", d(100))
		a.step(0.01)
		assert.InDelta(t, 100/1.01, a.payment.InexactFloat64(), 1e-9)
		assert.True(t, a.unpaidInterest.IsZero())
		assert.InDelta(t, 900, a.balance.InexactFloat64(), 1e-9)
	})

	t.Run("payment capped at what is owed", func(t *testing.T) {
		a := newAmortizer(d(50), decimal.Zero, 0, domain.InterestCompound, domain.CompoundingMonthly, d(100))
		paid := a.step(0)
		assert.True(t, paid.Equal(d(50)))
		assert.True(t, a.paidOff())
		assert.True(t, a.step(0).IsZero())
	})
}

func TestDebtsProcessorLifecycle(t *testing.T) {
	s := newTestState(t, 40)
	dp := NewDebtsProcessor([]domain.DebtConfig{{
		ID:             "car",
		Balance:        d(300),
		InterestType:   domain.InterestCompound,
		MonthlyPayment: d(100),
		Start:          domain.AtAge(40 + 1.0/12),
	}}, NopLogger{})

	assert.True(t, dp.Process(s, 0).IsZero())
	assert.Equal(t, domain.DebtPending, dp.Snapshot()[0].Status)

	paid := decimal.Zero
	for m := 1; m <= 4; m++ {
		s.beginMonth(m)
		paid = paid.Add(dp.Process(s, 0))
	}
	snap := dp.Snapshot()[0]
	assert.Equal(t, domain.DebtPaidOff, snap.Status)
	assert.True(t, paid.Equal(d(300)))
	assert.True(t, snap.Balance.IsZero())
	assert.True(t, s.Annual.Expenses.DebtPayments.Equal(d(300)))
}

func TestPhysicalAssetsLifecycle(t *testing.T) {
	s := newTestState(t, 30)
	sale := domain.AtAge(30 + 2.0/12)
	ap := NewPhysicalAssetsProcessor([]domain.PhysicalAssetConfig{
		{
			ID:            "house",
			PurchasePrice: d(200000),
			MarketValue:   d(300000),
			Purchase:      domain.Now(),
			Sale:          &sale,
			Loan:          &domain.LoanConfig{Balance: d(100000), InterestType: domain.InterestCompound},
		},
		{
			ID:            "car",
			PurchasePrice: d(20000),
			Purchase:      domain.AtAge(30 + 1.0/12),
		},
		{
			ID:            "cabin",
			PurchasePrice: d(80000),
			Purchase:      domain.AtAge(30 + 1.0/12),
			Loan:          &domain.LoanConfig{DownPayment: d(16000), InterestType: domain.InterestSimple},
		},
	}, NopLogger{})

	flows := ap.Process(s, 0, 0)
	assert.True(t, flows.Purchases.IsZero())
	snaps := ap.Snapshot()
	assert.Equal(t, domain.AssetOwned, snaps[0].Status)
	assert.True(t, snaps[0].Equity.Equal(d(200000)))
	assert.Equal(t, domain.AssetPending, snaps[1].Status)

	s.beginMonth(1)
	flows = ap.Process(s, 0, 0)
	assert.True(t, flows.Purchases.Equal(d(36000)))
	snaps = ap.Snapshot()
	assert.True(t, snaps[2].LoanBalance.Equal(d(64000)))

	s.beginMonth(2)
	flows = ap.Process(s, 0, 0)
	assert.True(t, flows.SaleProceeds.Equal(d(200000)))
	snaps = ap.Snapshot()
	assert.Equal(t, domain.AssetSold, snaps[0].Status)
	assert.True(t, snaps[0].CapitalGain.Equal(d(100000)))
	assert.True(t, s.Annual.Tax.RealizedGains.Equal(d(100000)))
	assert.True(t, s.Annual.Expenses.AssetPurchases.Equal(d(36000)))
}

func TestPhysicalAssetAppreciatesInRealTerms(t *testing.T) {
	s := newTestState(t, 30)
	ap := NewPhysicalAssetsProcessor([]domain.PhysicalAssetConfig{{
		ID: "house", PurchasePrice: d(100000), AppreciationRate: 0.03, Purchase: domain.Now(),
	}}, NopLogger{})
	for m := 0; m < 12; m++ {
		s.beginMonth(m)
		ap.Process(s, 0.03, 0)
	}
	assert.InDelta(t, 100000, ap.Snapshot()[0].MarketValue.InexactFloat64(), 1e-6)
}

func TestPhaseIdentifier(t *testing.T) {
	t.Run("fixed age is re-derived", func(t *testing.T) {
		pi := NewPhaseIdentifier(domain.RetirementStrategy{Type: domain.StrategyFixedAge, RetirementAge: 65})
		assert.Equal(t, domain.PhaseAccumulation, pi.Identify(PhaseInputs{Age: 64.9}))
		assert.Equal(t, domain.PhaseRetirement, pi.Identify(PhaseInputs{Age: 65}))
		assert.Equal(t, domain.PhaseAccumulation, pi.Identify(PhaseInputs{Age: 60}))
	})

	t.Run("safe withdrawal target is sticky", func(t *testing.T) {
		pi := NewPhaseIdentifier(domain.RetirementStrategy{Type: domain.StrategySWRTarget, SafeWithdrawalRate: 0.04})
		assert.Equal(t, domain.PhaseAccumulation, pi.Identify(PhaseInputs{PortfolioValue: d(1000000)}))
		assert.Equal(t, domain.PhaseAccumulation, pi.Identify(PhaseInputs{
			PortfolioValue: d(1000000), MeanAnnualObligations: d(50000), HasObligations: true}))
		assert.Equal(t, domain.PhaseRetirement, pi.Identify(PhaseInputs{
			PortfolioValue: d(1000000), MeanAnnualObligations: d(40000), HasObligations: true}))
		assert.Equal(t, domain.PhaseRetirement, pi.Identify(PhaseInputs{
			PortfolioValue: decimal.Zero, MeanAnnualObligations: d(40000), HasObligations: true}))
	})
}

func TestMeanAnnualObligations(t *testing.T) {
	s := newTestState(t, 40)
	_, ok := s.MeanAnnualObligations()
	assert.False(t, ok)
	for i := 0; i < 15; i++ {
		s.recordObligations(d(float64(1000 * (i + 1))))
	}
	mean, ok := s.MeanAnnualObligations()
	require.True(t, ok)
	// Months 4..15 remain: mean 9500, annualized.
	assert.True(t, mean.Equal(d(114000)), "mean %s", mean)
}

func TestSWRTargetRun(t *testing.T) {
	cfg := flatConfiguration(40, 45, 0, d(1000000))
	cfg.Timeline.RetirementStrategy = domain.RetirementStrategy{Type: domain.StrategySWRTarget, SafeWithdrawalRate: 0.04}
	cfg.Expenses = []domain.ExpenseConfig{{ID: "living", Amount: d(3000), TimeFrame: domain.TimeFrame{Start: domain.Now()}}}
	res, err := NewCalculationEngine(cfg).RunDeterministic()
	require.NoError(t, err)
	require.Len(t, res.Context.PhaseTransitions, 1)
	assert.InDelta(t, 40+1.0/12, res.Context.PhaseTransitions[0].Age, 1e-9)
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)

	logger := NewLogrusLogger(l).WithField("seed", 42)
	logger.Debugf("hidden %d", 1)
	logger.Infof("phase %s", "retirement")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"phase retirement"`)
	assert.Contains(t, out, `"component":"engine"`)
	assert.Contains(t, out, `"seed":42`)

	engine := NewCalculationEngine(createTestConfiguration())
	engine.SetLogger(nil)
	assert.IsType(t, NopLogger{}, engine.Logger)
	engine.SetLogger(logger)
	assert.Same(t, logger, engine.Logger)
}

package calculation

import (
	"time"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func tp(t domain.TimePoint) *domain.TimePoint { return &t }

// createTestConfiguration is a working household: salary until retirement,
// four accounts and a three-step waterfall.
func createTestConfiguration() *domain.Configuration {
	return &domain.Configuration{
		Timeline: domain.Timeline{
			CurrentAge:     30,
			LifeExpectancy: 40,
			StartDate:      testStart,
			RetirementStrategy: domain.RetirementStrategy{
				Type:          domain.StrategyFixedAge,
				RetirementAge: 65,
			},
		},
		FilingStatus:      domain.FilingSingle,
		MarketAssumptions: domain.DefaultMarketAssumptions(),
		Accounts: []domain.AccountConfig{
			{ID: "cash", Name: "Emergency Fund", Type: domain.AccountSavings, Balance: d(20000)},
			{ID: "401k", Name: "Workplace 401k", Type: domain.Account401k, Balance: d(50000),
				Allocation: domain.Allocation{Stocks: 0.8, Bonds: 0.2}},
			{ID: "roth", Name: "Roth IRA", Type: domain.AccountRothIRA, Balance: d(10000),
				Allocation: domain.Allocation{Stocks: 1}},
			{ID: "brokerage", Name: "Brokerage", Type: domain.AccountTaxableBrokerage, Balance: d(30000),
				Allocation: domain.Allocation{Stocks: 0.6, Bonds: 0.3, Cash: 0.1}, RebalanceAnnually: true},
		},
		Incomes: []domain.IncomeConfig{{
			ID:              "salary",
			Name:            "Salary",
			Type:            domain.IncomeWage,
			Amount:          d(10000),
			Frequency:       domain.FrequencyMonthly,
			WithholdingRate: 0.2,
			TimeFrame:       domain.TimeFrame{Start: domain.Now(), End: tp(domain.AtRetirement())},
		}},
		Expenses: []domain.ExpenseConfig{{
			ID:        "living",
			Name:      "Living",
			Amount:    d(4000),
			Frequency: domain.FrequencyMonthly,
			TimeFrame: domain.TimeFrame{Start: domain.Now()},
		}},
		ContributionRules: []domain.ContributionRule{
			{ID: "k", AccountID: "401k", Rank: 1, Type: domain.ContributionUnlimited},
			{ID: "r", AccountID: "roth", Rank: 2, Type: domain.ContributionUnlimited},
			{ID: "b", AccountID: "brokerage", Rank: 3, Type: domain.ContributionPercentRemaining, Percentage: 0.5},
		},
		ContributionSettings: domain.ContributionSettings{BaseRule: domain.BaseRuleSave},
	}
}

// flatConfiguration has zero returns, yields and inflation and a single
// savings account.
func flatConfiguration(age, lifeExpectancy, retirementAge float64, savings decimal.Decimal) *domain.Configuration {
	return &domain.Configuration{
		Timeline: domain.Timeline{
			CurrentAge:     age,
			LifeExpectancy: lifeExpectancy,
			StartDate:      testStart,
			RetirementStrategy: domain.RetirementStrategy{
				Type:          domain.StrategyFixedAge,
				RetirementAge: retirementAge,
			},
		},
		FilingStatus: domain.FilingSingle,
		Accounts: []domain.AccountConfig{
			{ID: "cash", Name: "Savings", Type: domain.AccountSavings, Balance: savings},
		},
	}
}

const testDatasetCSV = `year,stocks,bonds,cash,inflation
2000,-0.091,0.117,0.058,0.034
2001,-0.119,0.084,0.038,0.028
2002,-0.221,0.103,0.016,0.016
2003,0.287,0.041,0.010,0.023
2004,0.109,0.043,0.014,0.027
`

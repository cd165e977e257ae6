package analysis

import (
	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
)

// PortfolioPoint is the portfolio split by asset class at one data point.
type PortfolioPoint struct {
	Year   int             `json:"year"`
	Age    float64         `json:"age"`
	Stocks decimal.Decimal `json:"stocks"`
	Bonds  decimal.Decimal `json:"bonds"`
	Cash   decimal.Decimal `json:"cash"`
	Total  decimal.Decimal `json:"total"`
}

// CashFlowPoint is one period's money in and out of the household.
type CashFlowPoint struct {
	Year           int             `json:"year"`
	Age            float64         `json:"age"`
	Income         decimal.Decimal `json:"income"`
	Expenses       decimal.Decimal `json:"expenses"`
	DebtPayments   decimal.Decimal `json:"debt_payments"`
	LoanPayments   decimal.Decimal `json:"loan_payments"`
	AssetPurchases decimal.Decimal `json:"asset_purchases"`
	Contributions  decimal.Decimal `json:"contributions"`
	Withdrawals    decimal.Decimal `json:"withdrawals"`
}

// TaxPoint is one period's tax liability by component.
type TaxPoint struct {
	Year            int             `json:"year"`
	Age             float64         `json:"age"`
	IncomeTax       decimal.Decimal `json:"income_tax"`
	CapitalGainsTax decimal.Decimal `json:"capital_gains_tax"`
	NIIT            decimal.Decimal `json:"niit"`
	FICA            decimal.Decimal `json:"fica"`
	Penalties       decimal.Decimal `json:"penalties"`
	Total           decimal.Decimal `json:"total"`
	EffectiveRate   decimal.Decimal `json:"effective_rate"`
}

// YearlyRow is one row of the yearly table of a run.
type YearlyRow struct {
	Year           int             `json:"year"`
	Age            float64         `json:"age"`
	Phase          domain.Phase    `json:"phase"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	GrossIncome    decimal.Decimal `json:"gross_income"`
	Expenses       decimal.Decimal `json:"expenses"`
	Taxes          decimal.Decimal `json:"taxes"`
	Contributions  decimal.Decimal `json:"contributions"`
	Withdrawals    decimal.Decimal `json:"withdrawals"`
	RMDs           decimal.Decimal `json:"rmds"`
	Shortfall      decimal.Decimal `json:"shortfall"`
	StockReturn    float64         `json:"stock_return"`
	Inflation      float64         `json:"inflation"`
}

// PortfolioSeries includes the initial snapshot.
func PortfolioSeries(r *domain.SimulationResult) ([]PortfolioPoint, error) {
	if r == nil || len(r.Data) == 0 {
		return nil, ErrNoData
	}
	out := make([]PortfolioPoint, len(r.Data))
	for i, dp := range r.Data {
		a := dp.Portfolio.Assets
		out[i] = PortfolioPoint{
			Year:   dp.Year,
			Age:    dp.Age,
			Stocks: a.Stocks,
			Bonds:  a.Bonds,
			Cash:   a.Cash,
			Total:  dp.Portfolio.TotalValue,
		}
	}
	return out, nil
}

func CashFlowSeries(r *domain.SimulationResult) ([]CashFlowPoint, error) {
	if r == nil || len(r.Data) == 0 {
		return nil, ErrNoData
	}
	ps := periods(r)
	out := make([]CashFlowPoint, len(ps))
	for i, dp := range ps {
		out[i] = CashFlowPoint{
			Year:           dp.Year,
			Age:            dp.Age,
			Income:         dp.Incomes.TotalGross,
			Expenses:       dp.Expenses.Total,
			DebtPayments:   dp.Expenses.DebtPayments,
			LoanPayments:   dp.Expenses.LoanPayments,
			AssetPurchases: dp.Expenses.AssetPurchases,
			Contributions:  dp.Portfolio.Contributions,
			Withdrawals:    dp.Portfolio.Withdrawals,
		}
	}
	return out, nil
}

func TaxSeries(r *domain.SimulationResult) ([]TaxPoint, error) {
	if r == nil || len(r.Data) == 0 {
		return nil, ErrNoData
	}
	ps := periods(r)
	out := make([]TaxPoint, len(ps))
	for i, dp := range ps {
		t := dp.Taxes
		out[i] = TaxPoint{
			Year:            dp.Year,
			Age:             dp.Age,
			IncomeTax:       t.IncomeTax,
			CapitalGainsTax: t.CapitalGainsTax,
			NIIT:            t.NIIT,
			FICA:            t.FICATax,
			Penalties:       t.EarlyWithdrawalPenalty.Add(t.HSAPenalty),
			Total:           t.TotalTax,
			EffectiveRate:   t.EffectiveIncomeTaxRate,
		}
	}
	return out, nil
}

// YearlyRows flattens a run into one table row per period.
func YearlyRows(r *domain.SimulationResult) ([]YearlyRow, error) {
	if r == nil || len(r.Data) == 0 {
		return nil, ErrNoData
	}
	ps := periods(r)
	out := make([]YearlyRow, len(ps))
	for i, dp := range ps {
		out[i] = YearlyRow{
			Year:           dp.Year,
			Age:            dp.Age,
			Phase:          dp.Phase,
			PortfolioValue: dp.Portfolio.TotalValue,
			GrossIncome:    dp.Incomes.TotalGross,
			Expenses:       dp.Expenses.Total,
			Taxes:          dp.Taxes.TotalTax,
			Contributions:  dp.Portfolio.Contributions,
			Withdrawals:    dp.Portfolio.Withdrawals,
			RMDs:           dp.Portfolio.RMDs,
			Shortfall:      dp.Shortfall,
			StockReturn:    dp.Returns.Rates.Stocks,
			Inflation:      dp.Returns.Inflation,
		}
	}
	return out, nil
}

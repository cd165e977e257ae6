package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVSummarizer writes one row per simulated year for a single run, or one
// row per trial for a multi-run report.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if report.IsMultiRun() {
		if err := w.Write([]string{"Seed", "Success", "FinalValue", "RetirementAge", "BankruptcyAge", "LifetimeTaxes"}); err != nil {
			return nil, err
		}
		for _, tr := range report.Statistics.Trials {
			row := []string{
				strconv.FormatInt(tr.Seed, 10),
				boolToString(tr.Success),
				tr.FinalValue.StringFixed(2),
				formatAge(tr.RetirementAge),
				formatAge(tr.BankruptcyAge),
				tr.LifetimeTaxes.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
		w.Flush()
		return buf.Bytes(), w.Error()
	}

	header := []string{"Year", "Age", "Phase", "PortfolioValue", "GrossIncome", "Expenses", "Taxes",
		"Contributions", "Withdrawals", "RMDs", "Shortfall", "StockReturn", "Inflation"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range report.Rows {
		row := []string{
			intToString(r.Year),
			strconv.FormatFloat(r.Age, 'f', 2, 64),
			string(r.Phase),
			r.PortfolioValue.StringFixed(2),
			r.GrossIncome.StringFixed(2),
			r.Expenses.StringFixed(2),
			r.Taxes.StringFixed(2),
			r.Contributions.StringFixed(2),
			r.Withdrawals.StringFixed(2),
			r.RMDs.StringFixed(2),
			r.Shortfall.StringFixed(2),
			floatToString(r.StockReturn),
			floatToString(r.Inflation),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

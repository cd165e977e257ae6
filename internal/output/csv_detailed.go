package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVDetailedExporter provides raw per-account detail for every data point of
// a single run, or the yearly portfolio percentile bands of a multi-run report.
type CSVDetailedExporter struct{}

func (c CSVDetailedExporter) Name() string { return "detailed-csv" }

func (c CSVDetailedExporter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if report.IsMultiRun() {
		if err := w.Write([]string{"Year", "Age", "P10", "P25", "P50", "P75", "P90"}); err != nil {
			return nil, err
		}
		for _, b := range report.Statistics.YearlyBands {
			row := []string{
				intToString(b.Year),
				strconv.FormatFloat(b.Age, 'f', 2, 64),
				b.P10.StringFixed(2),
				b.P25.StringFixed(2),
				b.P50.StringFixed(2),
				b.P75.StringFixed(2),
				b.P90.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
		w.Flush()
		return buf.Bytes(), w.Error()
	}

	header := []string{"Date", "Year", "Age", "Account", "Type", "Balance", "Stocks", "Bonds", "Cash",
		"CostBasis", "TotalContributions", "TotalWithdrawals", "TotalReturns", "TotalRMDs"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, dp := range report.Result.Data {
		for _, a := range dp.Portfolio.Accounts {
			row := []string{
				dp.Date.Format("2006-01-02"),
				intToString(dp.Year),
				strconv.FormatFloat(dp.Age, 'f', 2, 64),
				a.ID,
				string(a.Type),
				a.Balance.StringFixed(2),
				a.Assets.Stocks.StringFixed(2),
				a.Assets.Bonds.StringFixed(2),
				a.Assets.Cash.StringFixed(2),
				a.CostBasis.StringFixed(2),
				a.TotalContributions.StringFixed(2),
				a.TotalWithdrawals.StringFixed(2),
				a.TotalReturns.StringFixed(2),
				a.TotalRMDs.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

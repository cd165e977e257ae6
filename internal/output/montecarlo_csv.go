package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// SummaryCSVFormatter exports aggregate statistics as Metric,Value,Description
// rows. A single run is summarized from its key metrics.
type SummaryCSVFormatter struct{}

func (s SummaryCSVFormatter) Name() string { return "summary-csv" }

func (s SummaryCSVFormatter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"Metric", "Value", "Description"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	var rows [][]string
	if report.IsMultiRun() {
		st := report.Statistics
		rows = [][]string{
			{"Mode", string(st.Mode), "How returns were generated"},
			{"Number of Simulations", strconv.Itoa(st.Simulations), "Total number of simulations run"},
			{"Success Rate", FormatRate(st.SuccessRate), "Percentage of simulations that did not deplete"},
			{"10th Percentile Final Value", "$" + st.FinalPortfolio.P10.StringFixed(0), "10th percentile of the final portfolio"},
			{"25th Percentile Final Value", "$" + st.FinalPortfolio.P25.StringFixed(0), "25th percentile of the final portfolio"},
			{"Median Final Value", "$" + st.FinalPortfolio.P50.StringFixed(0), "Median final portfolio"},
			{"75th Percentile Final Value", "$" + st.FinalPortfolio.P75.StringFixed(0), "75th percentile of the final portfolio"},
			{"90th Percentile Final Value", "$" + st.FinalPortfolio.P90.StringFixed(0), "90th percentile of the final portfolio"},
			{"Median Retirement Age", strconv.FormatFloat(st.RetirementAges.P50, 'f', 2, 64), "Median age at which retirement began"},
			{"Never Retired", strconv.Itoa(st.NeverRetired), "Simulations that ended still accumulating"},
			{"Median Bankruptcy Age", strconv.FormatFloat(st.BankruptcyAges.P50, 'f', 2, 64), "Median depletion age among failed simulations"},
		}
	} else {
		km := report.Metrics
		rows = [][]string{
			{"Success", boolToString(km.Success), "Portfolio lasted to the horizon"},
			{"Start Age", strconv.FormatFloat(km.StartAge, 'f', 2, 64), "Age at simulation start"},
			{"Retirement Age", formatAge(km.RetirementAge), "Age at which retirement began"},
			{"Years to Retirement", formatAge(km.YearsToRetirement), "Years spent accumulating"},
			{"Bankruptcy Age", formatAge(km.BankruptcyAge), "Age at which the portfolio was depleted"},
			{"Portfolio at Retirement", "$" + km.PortfolioAtRetirement.StringFixed(0), "Portfolio value when retirement began"},
			{"Final Portfolio", "$" + km.FinalPortfolio.StringFixed(0), "Portfolio value at the end of the run"},
			{"Lifetime Taxes", "$" + km.LifetimeTaxes.StringFixed(0), "Total tax liability"},
			{"Lifetime Contributions", "$" + km.LifetimeContributions.StringFixed(0), "Total contributions to accounts"},
			{"Lifetime Withdrawals", "$" + km.LifetimeWithdrawals.StringFixed(0), "Total withdrawals from accounts"},
			{"Average Stock Return", FormatRate(km.AverageStockReturn), "Geometric mean real stock return"},
			{"Average Inflation", FormatRate(km.AverageInflation), "Geometric mean inflation"},
		}
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write data row: %w", err)
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

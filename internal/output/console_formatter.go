package output

import (
	"bytes"
	"fmt"
)

// ConsoleFormatter provides a concise console style summary via the formatter interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "FINANCIAL SIMULATION SUMMARY")
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintln(&buf, report.Title)
	fmt.Fprintln(&buf)

	if report.IsMultiRun() {
		st := report.Statistics
		fmt.Fprintf(&buf, "Success Rate: %s (%d/%d)\n", FormatRate(st.SuccessRate), st.Successes, st.Simulations)
		fmt.Fprintf(&buf, "Final Portfolio: P10=%s P50=%s P90=%s\n",
			FormatCurrency(st.FinalPortfolio.P10), FormatCurrency(st.FinalPortfolio.P50), FormatCurrency(st.FinalPortfolio.P90))
		if h, ok := AnalyzeTrials(st); ok {
			fmt.Fprintf(&buf, "Worst trial: seed %d (%s)  Best trial: seed %d (%s)\n",
				h.Worst.Seed, FormatCurrency(h.Worst.FinalValue), h.Best.Seed, FormatCurrency(h.Best.FinalValue))
		}
		return buf.Bytes(), nil
	}

	km := report.Metrics
	status := "SUCCESS"
	if !km.Success {
		status = "DEPLETED at age " + formatAge(km.BankruptcyAge)
	}
	fmt.Fprintf(&buf, "Outcome: %s\n", status)
	fmt.Fprintf(&buf, "Retirement Age: %s  Portfolio at Retirement: %s\n", formatAge(km.RetirementAge), FormatCurrency(km.PortfolioAtRetirement))
	fmt.Fprintf(&buf, "Final Portfolio: %s  Lifetime Taxes: %s\n", FormatCurrency(km.FinalPortfolio), FormatCurrency(km.LifetimeTaxes))
	return buf.Bytes(), nil
}

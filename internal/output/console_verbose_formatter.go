package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// ConsoleVerboseFormatter renders the detailed console report via the pluggable interface.
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

func (c ConsoleVerboseFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, strings.Repeat("=", 96))
	fmt.Fprintln(&buf, "DETAILED FINANCIAL SIMULATION REPORT")
	fmt.Fprintln(&buf, strings.Repeat("=", 96))
	fmt.Fprintln(&buf, strings.ToUpper(report.Title))
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "KEY ASSUMPTIONS:")
	for _, a := range GenerateAssumptions(report.Config) {
		fmt.Fprintf(&buf, "• %s\n", a)
	}
	fmt.Fprintln(&buf)

	if report.IsMultiRun() {
		writeMultiRun(&buf, report)
	} else {
		writeSingleRun(&buf, report)
	}
	return buf.Bytes(), nil
}

func writeSingleRun(w io.Writer, report *Report) {
	km := report.Metrics
	ctx := report.Result.Context

	fmt.Fprintln(w, "KEY METRICS")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "  Run ID:                  %s\n", ctx.RunID)
	fmt.Fprintf(w, "  Start:                   %s at age %.2f\n", ctx.StartDate.Format("2006-01-02"), ctx.StartAge)
	fmt.Fprintf(w, "  Success:                 %t\n", km.Success)
	fmt.Fprintf(w, "  Retirement Age:          %s\n", formatAge(km.RetirementAge))
	fmt.Fprintf(w, "  Years to Retirement:     %s\n", formatAge(km.YearsToRetirement))
	fmt.Fprintf(w, "  Bankruptcy Age:          %s\n", formatAge(km.BankruptcyAge))
	fmt.Fprintf(w, "  Portfolio at Retirement: %s\n", FormatCurrency(km.PortfolioAtRetirement))
	fmt.Fprintf(w, "  Final Portfolio:         %s\n", FormatCurrency(km.FinalPortfolio))
	fmt.Fprintf(w, "  Lifetime Taxes:          %s\n", FormatCurrency(km.LifetimeTaxes))
	fmt.Fprintf(w, "  Lifetime Contributions:  %s\n", FormatCurrency(km.LifetimeContributions))
	fmt.Fprintf(w, "  Lifetime Withdrawals:    %s\n", FormatCurrency(km.LifetimeWithdrawals))
	fmt.Fprintf(w, "  Avg Real Stock Return:   %s\n", FormatRate(km.AverageStockReturn))
	fmt.Fprintf(w, "  Avg Inflation:           %s\n", FormatRate(km.AverageInflation))
	fmt.Fprintln(w)

	if len(ctx.PhaseTransitions) > 0 {
		fmt.Fprintln(w, "PHASE TRANSITIONS")
		for _, t := range ctx.PhaseTransitions {
			fmt.Fprintf(w, "  %s  age %.2f  %s -> %s\n", t.Date.Format("2006-01"), t.Age, t.From, t.To)
		}
		fmt.Fprintln(w)
	}
	for _, s := range ctx.HistoricalSpans {
		fmt.Fprintf(w, "Historical span: %d-%d\n", s.StartYear, s.EndYear)
	}

	fmt.Fprintln(w, "YEARLY DETAIL")
	fmt.Fprintf(w, "%-5s %-7s %-13s %16s %14s %14s %14s %14s\n",
		"Year", "Age", "Phase", "Portfolio", "Income", "Expenses", "Taxes", "Shortfall")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, r := range report.Rows {
		fmt.Fprintf(w, "%-5d %-7.2f %-13s %16s %14s %14s %14s %14s\n",
			r.Year, r.Age, r.Phase,
			FormatCurrency(r.PortfolioValue),
			FormatCurrency(r.GrossIncome),
			FormatCurrency(r.Expenses),
			FormatCurrency(r.Taxes),
			FormatCurrency(r.Shortfall))
	}
}

func writeMultiRun(w io.Writer, report *Report) {
	st := report.Statistics

	fmt.Fprintln(w, "OUTCOMES")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "  Batch ID:        %s\n", report.Multi.BatchID)
	if !report.Multi.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "  Generated:       %s\n", report.Multi.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "  Simulations:     %d\n", st.Simulations)
	fmt.Fprintf(w, "  Success Rate:    %s\n", FormatRate(st.SuccessRate))
	fmt.Fprintf(w, "  Never Retired:   %d\n", st.NeverRetired)
	if st.RetirementAges.Count > 0 {
		fmt.Fprintf(w, "  Retirement Age:  P10 %.2f  P50 %.2f  P90 %.2f\n", st.RetirementAges.P10, st.RetirementAges.P50, st.RetirementAges.P90)
	}
	if st.BankruptcyAges.Count > 0 {
		fmt.Fprintf(w, "  Bankruptcy Age:  P10 %.2f  P50 %.2f  P90 %.2f (%d runs)\n",
			st.BankruptcyAges.P10, st.BankruptcyAges.P50, st.BankruptcyAges.P90, st.BankruptcyAges.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FINAL PORTFOLIO PERCENTILES")
	p := st.FinalPortfolio
	fmt.Fprintf(w, "  P10 %s  P25 %s  P50 %s  P75 %s  P90 %s\n",
		FormatCurrency(p.P10), FormatCurrency(p.P25), FormatCurrency(p.P50), FormatCurrency(p.P75), FormatCurrency(p.P90))
	if h, ok := AnalyzeTrials(st); ok {
		fmt.Fprintf(w, "  Worst seed %d, median seed %d, best seed %d\n", h.Worst.Seed, h.Median.Seed, h.Best.Seed)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PORTFOLIO BANDS")
	fmt.Fprintf(w, "%-5s %-7s %16s %16s %16s\n", "Year", "Age", "P10", "P50", "P90")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, b := range st.YearlyBands {
		fmt.Fprintf(w, "%-5d %-7.2f %16s %16s %16s\n", b.Year, b.Age, FormatCurrency(b.P10), FormatCurrency(b.P50), FormatCurrency(b.P90))
	}
}

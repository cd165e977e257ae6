package output

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatCurrency formats a decimal as USD currency with 2 decimals.
// Kept here so it can be reused by multiple formatters and unit tested in isolation.
func FormatCurrency(amount decimal.Decimal) string { return "$" + amount.StringFixed(2) }

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }

// FormatRate formats a fractional rate (0.07) as a percentage (7.00%).
func FormatRate(rate float64) string { return fmt.Sprintf("%.2f%%", rate*100) }

// formatAge renders an optional age, "-" when absent.
func formatAge(age *float64) string {
	if age == nil {
		return "-"
	}
	return strconv.FormatFloat(*age, 'f', 2, 64)
}

func intToString(v int) string { return strconv.Itoa(v) }

func boolToString(v bool) string { return strconv.FormatBool(v) }

func floatToString(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

package dateutil

import (
	"math"
	"time"
)

// MonthsPerYear is the number of simulation steps in one simulated year.
const MonthsPerYear = 12

// AgeAfterMonths returns the fractional age reached after the given number of months.
func AgeAfterMonths(startAge float64, months int) float64 {
	return startAge + float64(months)/MonthsPerYear
}

// BirthYear derives a birth year from a start date and the age held on that date.
func BirthYear(startDate time.Time, currentAge float64) int {
	return startDate.Year() - int(math.Floor(currentAge))
}

// FirstOfMonth truncates a date to midnight on the first day of its month.
func FirstOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// AddMonths adds a specified number of months to a date
func AddMonths(date time.Time, months int) time.Time {
	return date.AddDate(0, months, 0)
}

// GetRMDAge returns the age when RMDs start for a given birth year
func GetRMDAge(birthYear int) int {
	switch {
	case birthYear <= 1950:
		return 72
	case birthYear >= 1951 && birthYear <= 1959:
		return 73
	default: // 1960 and later
		return 75
	}
}

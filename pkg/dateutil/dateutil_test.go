package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthArithmetic(t *testing.T) {
	assert.InDelta(t, 31.0, AgeAfterMonths(30, 12), 1e-12)
	assert.InDelta(t, 30.5, AgeAfterMonths(30, 6), 1e-12)

	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), AddMonths(start, 3))
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), FirstOfMonth(time.Date(2025, 11, 17, 13, 0, 0, 0, time.UTC)))
}

func TestBirthYearAndRMDAge(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1995, BirthYear(start, 30))
	assert.Equal(t, 1994, BirthYear(start, 30.5+0.9))

	tests := []struct {
		birthYear int
		want      int
	}{
		{1949, 72},
		{1950, 72},
		{1951, 73},
		{1959, 73},
		{1960, 75},
		{1995, 75},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetRMDAge(tt.birthYear), "birth year %d", tt.birthYear)
	}
}

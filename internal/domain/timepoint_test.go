package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimePointReached(t *testing.T) {
	date := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		tp     TimePoint
		moment Moment
		want   bool
	}{
		{"now always reached", Now(), Moment{Age: 30}, true},
		{"empty type behaves like now", TimePoint{}, Moment{Age: 30}, true},
		{"custom age before", AtAge(65), Moment{Age: 64.9}, false},
		{"custom age exact after month drift", AtAge(65), Moment{Age: 30 + 420.0/12}, true},
		{"custom date before", TimePoint{Type: TimePointCustomDate, Date: date}, Moment{Date: date.AddDate(0, -1, 0)}, false},
		{"custom date on", TimePoint{Type: TimePointCustomDate, Date: date}, Moment{Date: date}, true},
		{"retirement pending", AtRetirement(), Moment{Retired: false}, false},
		{"retirement reached", AtRetirement(), Moment{Retired: true}, true},
		{"life expectancy", TimePoint{Type: TimePointAtLifeExpectancy}, Moment{Age: 89, LifeExpectancy: 90}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tp.Reached(tt.moment))
		})
	}
}

func TestTimeFrameActive(t *testing.T) {
	end := AtRetirement()
	wages := TimeFrame{Start: Now(), End: &end}
	assert.True(t, wages.Active(Moment{Age: 40}))
	assert.False(t, wages.Active(Moment{Age: 66, Retired: true}))

	ssEnd := AtAge(95)
	ss := TimeFrame{Start: AtAge(67), End: &ssEnd}
	assert.False(t, ss.Active(Moment{Age: 66}))
	assert.True(t, ss.Active(Moment{Age: 67}))
	assert.False(t, ss.Active(Moment{Age: 95}))
}

func TestTimePointValidate(t *testing.T) {
	assert.NoError(t, Now().Validate())
	assert.NoError(t, AtAge(50).Validate())
	assert.Error(t, TimePoint{Type: TimePointCustomAge}.Validate())
	assert.Error(t, TimePoint{Type: TimePointCustomDate}.Validate())
	assert.Error(t, TimePoint{Type: "someday"}.Validate())
}

func TestTimelineAndFrequency(t *testing.T) {
	assert.Equal(t, 720, Timeline{CurrentAge: 30, LifeExpectancy: 90}.TotalMonths())
	assert.Equal(t, 0, Timeline{CurrentAge: 95, LifeExpectancy: 90}.TotalMonths())

	assert.Equal(t, int64(12), FrequencyMonthly.PeriodsPerYear())
	assert.Equal(t, int64(12), Frequency("").PeriodsPerYear())
	assert.Equal(t, int64(26), FrequencyBiweekly.PeriodsPerYear())
	assert.Equal(t, int64(52), FrequencyWeekly.PeriodsPerYear())
	assert.Equal(t, int64(1), FrequencyYearly.PeriodsPerYear())
	assert.InDelta(t, 1.0, DefaultMarketAssumptions().StockReturn*10, 1e-12)
	assert.InDelta(t, 1.0, Allocation{Stocks: 0.6, Bonds: 0.3, Cash: 0.1}.Sum(), 1e-12)
}

package domain

import (
	"fmt"
	"time"
)

// TimePointType names an event on the simulated timeline.
type TimePointType string

const (
	TimePointNow              TimePointType = "now"
	TimePointAtRetirement     TimePointType = "at_retirement"
	TimePointAtLifeExpectancy TimePointType = "at_life_expectancy"
	TimePointCustomAge        TimePointType = "custom_age"
	TimePointCustomDate       TimePointType = "custom_date"
)

// TimePoint is a resolvable moment: an age, a date, or a lifecycle event.
type TimePoint struct {
	Type TimePointType `yaml:"type" json:"type"`
	Age  float64       `yaml:"age,omitempty" json:"age,omitempty"`
	Date time.Time     `yaml:"date,omitempty" json:"date,omitempty"`
}

// Now is the time point at simulation start.
func Now() TimePoint { return TimePoint{Type: TimePointNow} }

// AtAge is a custom-age time point.
func AtAge(age float64) TimePoint { return TimePoint{Type: TimePointCustomAge, Age: age} }

// AtRetirement is the time point at which the retirement phase begins.
func AtRetirement() TimePoint { return TimePoint{Type: TimePointAtRetirement} }

// Moment is the slice of simulation state a time point is resolved against.
type Moment struct {
	Age     float64
	Date    time.Time
	Retired bool
	// LifeExpectancy is the horizon age.
	LifeExpectancy float64
}

// Reached reports whether the time point has occurred at the given moment.
func (tp TimePoint) Reached(m Moment) bool {
	switch tp.Type {
	case TimePointNow, "":
		return true
	case TimePointAtRetirement:
		return m.Retired
	case TimePointAtLifeExpectancy:
		return m.Age >= m.LifeExpectancy
	case TimePointCustomAge:
		// Ages are accumulated in twelfths; allow for float drift.
		return m.Age+1e-9 >= tp.Age
	case TimePointCustomDate:
		return !m.Date.Before(tp.Date)
	default:
		return false
	}
}

// Validate checks that the variant-specific payload is present. An empty
// type means now.
func (tp TimePoint) Validate() error {
	switch tp.Type {
	case TimePointNow, "", TimePointAtRetirement, TimePointAtLifeExpectancy:
		return nil
	case TimePointCustomAge:
		if tp.Age <= 0 {
			return fmt.Errorf("custom_age time point requires a positive age")
		}
		return nil
	case TimePointCustomDate:
		if tp.Date.IsZero() {
			return fmt.Errorf("custom_date time point requires a date")
		}
		return nil
	default:
		return fmt.Errorf("unknown time point type %q", tp.Type)
	}
}

// TimeFrame bounds when an income or expense is active. A nil End runs to
// the end of the simulation.
type TimeFrame struct {
	Start TimePoint  `yaml:"start" json:"start"`
	End   *TimePoint `yaml:"end,omitempty" json:"end,omitempty"`
}

// Active reports whether the frame covers the given moment.
func (tf TimeFrame) Active(m Moment) bool {
	if !tf.Start.Reached(m) {
		return false
	}
	return tf.End == nil || !tf.End.Reached(m)
}

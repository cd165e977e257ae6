package calculation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpgo/finsim/internal/domain"
)

// runNamespace scopes the name-based run identifiers.
var runNamespace = uuid.MustParse("5b0e6f3a-8d2c-4b71-9e45-c1a7d03f6e28")

// runID derives a run identifier from the inputs that select a run's
// returns path, so a repeated run gets the same id.
func runID(mode domain.SimulationMode, seed int64, start time.Time, startAge float64) uuid.UUID {
	name := fmt.Sprintf("%s|%d|%s|%g", mode, seed, start.UTC().Format(time.RFC3339), startAge)
	return uuid.NewSHA1(runNamespace, []byte(name))
}

func systemSeed() int64 { return time.Now().UnixNano() }

// SetClock overrides the time source behind the default start date and batch
// timestamps. nil restores the system clock.
func (ce *CalculationEngine) SetClock(now func() time.Time) {
	ce.now = now
}

// SetSeedSource overrides where a stochastic batch started without a seed
// gets its base seed. nil restores the time-based source.
func (ce *CalculationEngine) SetSeedSource(seed func() int64) {
	ce.seed = seed
}

func (ce *CalculationEngine) clock() time.Time {
	if ce.now == nil {
		return time.Now()
	}
	return ce.now()
}

func (ce *CalculationEngine) baseSeed() int64 {
	if ce.seed == nil {
		return systemSeed()
	}
	return ce.seed()
}

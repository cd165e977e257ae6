package analysis

import (
	"fmt"
	"sort"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/shopspring/decimal"
)

// YearBand is the cross-run distribution of portfolio value at one year.
type YearBand struct {
	Year int     `json:"year"`
	Age  float64 `json:"age"`
	Percentiles
}

// AgeDistribution summarizes the ages at which some event happened across runs.
type AgeDistribution struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P10   float64 `json:"p10"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
}

// TrialRow is the per-trial summary line of a multi-run report.
type TrialRow struct {
	Seed          int64           `json:"seed"`
	Success       bool            `json:"success"`
	FinalValue    decimal.Decimal `json:"final_value"`
	RetirementAge *float64        `json:"retirement_age,omitempty"`
	BankruptcyAge *float64        `json:"bankruptcy_age,omitempty"`
	LifetimeTaxes decimal.Decimal `json:"lifetime_taxes"`
}

// MultiRunStatistics aggregates a completed multi-run collection.
type MultiRunStatistics struct {
	Mode           domain.SimulationMode `json:"mode"`
	Simulations    int                   `json:"simulations"`
	Successes      int                   `json:"successes"`
	SuccessRate    float64               `json:"success_rate"`
	FinalPortfolio Percentiles           `json:"final_portfolio"`
	YearlyBands    []YearBand            `json:"yearly_bands"`
	RetirementAges AgeDistribution       `json:"retirement_ages"`
	BankruptcyAges AgeDistribution       `json:"bankruptcy_ages"`
	// NeverRetired counts runs that ended still accumulating.
	NeverRetired int        `json:"never_retired"`
	Trials       []TrialRow `json:"trials"`
}

// SuccessRate is the fraction of runs that did not deplete.
func SuccessRate(multi *domain.MultiSimulationResult) (float64, error) {
	if multi == nil || len(multi.Simulations) == 0 {
		return 0, ErrNoSimulations
	}
	ok := 0
	for _, s := range multi.Simulations {
		if s.Result != nil && !s.Result.Context.Depleted {
			ok++
		}
	}
	return float64(ok) / float64(len(multi.Simulations)), nil
}

// YearlyPortfolioValues returns a run's portfolio value at the initial
// snapshot and each period end, zero-padded to length n for runs that
// ended early.
func YearlyPortfolioValues(r *domain.SimulationResult, n int) ([]decimal.Decimal, error) {
	if r == nil || len(r.Data) == 0 {
		return nil, ErrNoData
	}
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	for i, dp := range r.Data {
		if i >= n {
			break
		}
		out[i] = dp.Portfolio.TotalValue
	}
	return out, nil
}

// PortfolioBands computes per-index percentiles across equally long series.
func PortfolioBands(series [][]decimal.Decimal) ([]Percentiles, error) {
	if len(series) == 0 {
		return nil, ErrNoSimulations
	}
	n := len(series[0])
	for i, s := range series {
		if len(s) != n {
			return nil, fmt.Errorf("%w: series %d has %d values, want %d", ErrLengthMismatch, i, len(s), n)
		}
	}
	bands := make([]Percentiles, n)
	column := make([]decimal.Decimal, len(series))
	for y := 0; y < n; y++ {
		for i, s := range series {
			column[i] = s[y]
		}
		p, err := ComputePercentiles(column)
		if err != nil {
			return nil, err
		}
		bands[y] = p
	}
	return bands, nil
}

func ageDistribution(ages []float64) AgeDistribution {
	if len(ages) == 0 {
		return AgeDistribution{}
	}
	sort.Float64s(ages)
	d := AgeDistribution{Count: len(ages), Mean: Mean(ages)}
	d.P10, _ = PercentileFloat(ages, 0.10)
	d.P50, _ = PercentileFloat(ages, 0.50)
	d.P90, _ = PercentileFloat(ages, 0.90)
	return d
}

// AnalyzeMultiRun reduces a multi-run collection to its statistics.
func AnalyzeMultiRun(multi *domain.MultiSimulationResult) (*MultiRunStatistics, error) {
	if multi == nil || len(multi.Simulations) == 0 {
		return nil, ErrNoSimulations
	}
	stats := &MultiRunStatistics{
		Mode:        multi.Mode,
		Simulations: len(multi.Simulations),
		Trials:      make([]TrialRow, 0, len(multi.Simulations)),
	}

	// The longest run defines the band horizon and its ages.
	var longest *domain.SimulationResult
	for i, s := range multi.Simulations {
		if s.Result == nil || len(s.Result.Data) == 0 {
			return nil, fmt.Errorf("simulation %d (seed %d): %w", i, s.Seed, ErrNoData)
		}
		if longest == nil || len(s.Result.Data) > len(longest.Data) {
			longest = s.Result
		}
	}

	finals := make([]decimal.Decimal, 0, len(multi.Simulations))
	series := make([][]decimal.Decimal, 0, len(multi.Simulations))
	var retirementAges, bankruptcyAges []float64
	for _, s := range multi.Simulations {
		km, err := ComputeKeyMetrics(s.Result)
		if err != nil {
			return nil, err
		}
		if km.Success {
			stats.Successes++
		}
		finals = append(finals, km.FinalPortfolio)
		if km.RetirementAge != nil {
			retirementAges = append(retirementAges, *km.RetirementAge)
		} else {
			stats.NeverRetired++
		}
		if km.BankruptcyAge != nil {
			bankruptcyAges = append(bankruptcyAges, *km.BankruptcyAge)
		}
		values, err := YearlyPortfolioValues(s.Result, len(longest.Data))
		if err != nil {
			return nil, err
		}
		series = append(series, values)
		stats.Trials = append(stats.Trials, TrialRow{
			Seed:          s.Seed,
			Success:       km.Success,
			FinalValue:    km.FinalPortfolio,
			RetirementAge: km.RetirementAge,
			BankruptcyAge: km.BankruptcyAge,
			LifetimeTaxes: km.LifetimeTaxes,
		})
	}

	stats.SuccessRate = float64(stats.Successes) / float64(stats.Simulations)
	var err error
	if stats.FinalPortfolio, err = ComputePercentiles(finals); err != nil {
		return nil, err
	}
	bands, err := PortfolioBands(series)
	if err != nil {
		return nil, err
	}
	stats.YearlyBands = make([]YearBand, len(bands))
	for i, b := range bands {
		dp := longest.Data[i]
		stats.YearlyBands[i] = YearBand{Year: dp.Year, Age: dp.Age, Percentiles: b}
	}
	stats.RetirementAges = ageDistribution(retirementAges)
	stats.BankruptcyAges = ageDistribution(bankruptcyAges)
	return stats, nil
}

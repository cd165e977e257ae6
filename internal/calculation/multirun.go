package calculation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/returns"
)

// trial is one independent run of a multi-run batch.
type trial struct {
	seed        int64
	newProvider func() (*returns.Provider, error)
}

// RunMonteCarlo runs n trials with stochastic returns. Trial i uses seed
// baseSeed+i; a zero baseSeed draws one from the seed provider.
func (ce *CalculationEngine) RunMonteCarlo(ctx context.Context, n int, baseSeed int64) (*domain.MultiSimulationResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("number of simulations must be positive, got %d", n)
	}
	if baseSeed == 0 {
		baseSeed = ce.baseSeed()
	}
	m := ce.Config.MarketAssumptions
	trials := make([]trial, n)
	for i := range trials {
		seed := baseSeed + int64(i)
		trials[i] = trial{seed: seed, newProvider: func() (*returns.Provider, error) {
			return returns.NewStochastic(m, seed), nil
		}}
	}
	return ce.runTrials(ctx, domain.ModeMonteCarlo, trials)
}

// RunHistorical runs one backtest from startYear, or from the configured
// start year (else the first dataset year) when startYear is zero.
func (ce *CalculationEngine) RunHistorical(data *returns.Dataset, startYear int) (*domain.SimulationResult, error) {
	if data == nil {
		return nil, fmt.Errorf("historical run requires a dataset")
	}
	if startYear == 0 {
		startYear = ce.Config.Historical.StartYear
	}
	if startYear == 0 {
		startYear = data.MinYear
	}
	p, err := returns.NewHistorical(data, startYear, ce.Config.MarketAssumptions)
	if err != nil {
		return nil, err
	}
	return ce.RunSimulation(p, domain.ModeHistorical, int64(startYear))
}

// RunHistoricalBacktest runs one trial per dataset start year. Each result is
// keyed by its start year.
func (ce *CalculationEngine) RunHistoricalBacktest(ctx context.Context, data *returns.Dataset) (*domain.MultiSimulationResult, error) {
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("historical backtest requires a dataset")
	}
	m := ce.Config.MarketAssumptions
	years := data.Years()
	trials := make([]trial, len(years))
	for i, year := range years {
		year := year
		trials[i] = trial{seed: int64(year), newProvider: func() (*returns.Provider, error) {
			return returns.NewHistorical(data, year, m)
		}}
	}
	return ce.runTrials(ctx, domain.ModeHistorical, trials)
}

// RunSeededHistorical runs n trials replaying the dataset from seeded random
// start years.
func (ce *CalculationEngine) RunSeededHistorical(ctx context.Context, data *returns.Dataset, n int, baseSeed int64) (*domain.MultiSimulationResult, error) {
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("seeded historical run requires a dataset")
	}
	if n <= 0 {
		return nil, fmt.Errorf("number of simulations must be positive, got %d", n)
	}
	if baseSeed == 0 {
		baseSeed = ce.baseSeed()
	}
	m := ce.Config.MarketAssumptions
	resample := ce.Config.Historical.ResampleOnRetirement
	trials := make([]trial, n)
	for i := range trials {
		seed := baseSeed + int64(i)
		trials[i] = trial{seed: seed, newProvider: func() (*returns.Provider, error) {
			return returns.NewSeededHistorical(data, seed, m, resample)
		}}
	}
	return ce.runTrials(ctx, domain.ModeSeededHistorical, trials)
}

// runTrials runs trials on a bounded pool and collects results in trial
// order. Cancellation is checked before each trial starts; a started trial
// always runs to completion.
func (ce *CalculationEngine) runTrials(ctx context.Context, mode domain.SimulationMode, trials []trial) (*domain.MultiSimulationResult, error) {
	if ce.Config == nil {
		return nil, fmt.Errorf("no configuration")
	}
	workers := ce.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ce.log().Infof("running %d %s trials on %d workers", len(trials), mode, workers)

	results := make([]domain.SeededResult, len(trials))
	errs := make([]error, len(trials))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers) // Limit concurrent simulations

	for i := range trials {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire semaphore
			defer func() { <-semaphore }() // Release semaphore

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			t := trials[idx]
			provider, err := t.newProvider()
			if err != nil {
				errs[idx] = err
				return
			}
			res, err := ce.RunSimulation(provider, mode, t.seed)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = domain.SeededResult{Seed: t.seed, Result: res}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("trial %d (seed %d): %w", i, trials[i].seed, err)
		}
	}
	return &domain.MultiSimulationResult{
		BatchID:     uuid.New(),
		Mode:        mode,
		GeneratedAt: ce.clock(),
		Simulations: results,
	}, nil
}

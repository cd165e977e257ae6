package main

import (
	"errors"
	"fmt"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/output"
	"github.com/rpgo/finsim/internal/returns"
	"github.com/spf13/cobra"
)

func newBacktestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical returns",
		Long: "Replay a historical dataset once from every start year, or with --seeded N, " +
			"run N trials from seeded random start years.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.settings.GetString("data")
			if path == "" {
				return errors.New("backtest requires --data")
			}
			cfg, err := a.loadConfiguration()
			if err != nil {
				return err
			}
			ds, err := returns.LoadDatasetFile(path)
			if err != nil {
				return err
			}
			a.logger.WithField("years", fmt.Sprintf("%d-%d", ds.MinYear, ds.MaxYear)).Info("dataset loaded")

			eng := a.newEngine(cfg)
			var multi *domain.MultiSimulationResult
			if n := a.settings.GetInt("seeded"); n > 0 {
				multi, err = eng.RunSeededHistorical(cmd.Context(), ds, n, a.settings.GetInt64("seed"))
			} else {
				multi, err = eng.RunHistoricalBacktest(cmd.Context(), ds)
			}
			if err != nil {
				return fmt.Errorf("backtest: %w", err)
			}
			report, err := output.NewMultiRunReport(cfg, multi)
			if err != nil {
				return err
			}
			return a.emit(cmd, report)
		},
	}
	cmd.Flags().String("data", "", "historical returns CSV (year,stocks,bonds,cash,inflation)")
	cmd.Flags().Int("seeded", 0, "run this many seeded random-start trials instead of every start year")
	cmd.Flags().Int64("seed", 0, "base seed for --seeded trials (0 picks one)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/output"
	"github.com/rpgo/finsim/internal/returns"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single simulation",
		Long: "Run one deterministic simulation using the configured fixed returns, or, when --data is given, " +
			"one historical backtest starting at --start-year (default: the configured or first dataset year).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfiguration()
			if err != nil {
				return err
			}
			eng := a.newEngine(cfg)

			var result *domain.SimulationResult
			if path := a.settings.GetString("data"); path != "" {
				ds, err := returns.LoadDatasetFile(path)
				if err != nil {
					return err
				}
				result, err = eng.RunHistorical(ds, a.settings.GetInt("start-year"))
				if err != nil {
					return fmt.Errorf("historical run: %w", err)
				}
			} else {
				result, err = eng.RunDeterministic()
				if err != nil {
					return fmt.Errorf("deterministic run: %w", err)
				}
			}

			report, err := output.NewSimulationReport(cfg, result)
			if err != nil {
				return err
			}
			return a.emit(cmd, report)
		},
	}
	cmd.Flags().String("data", "", "historical returns CSV (year,stocks,bonds,cash,inflation)")
	cmd.Flags().Int("start-year", 0, "first dataset year of a historical run")
	return cmd
}

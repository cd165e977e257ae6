package main

import (
	"fmt"

	"github.com/rpgo/finsim/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMonteCarloCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "montecarlo",
		Aliases: []string{"mc"},
		Short:   "Run Monte Carlo trials with correlated stochastic returns",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfiguration()
			if err != nil {
				return err
			}
			n := a.settings.GetInt("simulations")
			seed := a.settings.GetInt64("seed")
			a.logger.WithFields(logrus.Fields{"simulations": n, "seed": seed}).Info("starting monte carlo")

			multi, err := a.newEngine(cfg).RunMonteCarlo(cmd.Context(), n, seed)
			if err != nil {
				return fmt.Errorf("monte carlo: %w", err)
			}
			report, err := output.NewMultiRunReport(cfg, multi)
			if err != nil {
				return err
			}
			return a.emit(cmd, report)
		},
	}
	cmd.Flags().IntP("simulations", "n", 1000, "number of trials")
	cmd.Flags().Int64("seed", 0, "base seed; trial i uses seed+i (0 picks one)")
	return cmd
}

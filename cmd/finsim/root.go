package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	settings := viper.New()
	a := &app{settings: settings}

	rootCmd := &cobra.Command{
		Use:   "finsim",
		Short: "Month-by-month personal finance simulator",
		Long: "finsim projects accounts, incomes, expenses, debts and physical assets month by month " +
			"through accumulation and retirement, under fixed, Monte Carlo or historical returns.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.wire(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "simulation configuration file (YAML)")
	flags.String("settings", "", "settings file providing defaults for any flag")
	flags.StringP("format", "f", "console", "report format")
	flags.StringP("output", "o", "", "write the report to this file instead of stdout")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Int("workers", 0, "concurrent trials for multi-run modes (0 uses the engine default)")

	rootCmd.AddCommand(
		newRunCmd(a),
		newMonteCarloCmd(a),
		newBacktestCmd(a),
		newValidateCmd(a),
		newInitCmd(a),
		newFormatsCmd(),
	)
	return rootCmd
}

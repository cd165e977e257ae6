package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rpgo/finsim/internal/output"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfiguration()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"Configuration is valid: age %.1f to %.1f, %s retirement, %d accounts, %d incomes, %d expenses, %d debts, %d assets\n",
				cfg.Timeline.CurrentAge, cfg.Timeline.LifeExpectancy, cfg.Timeline.RetirementStrategy.Type,
				len(cfg.Accounts), len(cfg.Incomes), len(cfg.Expenses), len(cfg.Debts), len(cfg.PhysicalAssets))
			return err
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write an example configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "finsim.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := output.SaveConfiguration(a.parser.CreateExampleConfiguration(), path); err != nil {
				return fmt.Errorf("write example configuration: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Example configuration written to %s\n", path)
			return err
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List report formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Formats: %s\nAliases: %s\n",
				strings.Join(output.AvailableFormatterNames(), ", "),
				strings.Join(output.AvailableFormatAliases(), ", "))
			return err
		},
	}
}

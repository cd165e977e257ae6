package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpgo/finsim/internal/calculation"
	"github.com/rpgo/finsim/internal/config"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "FINSIM"

var errNoConfig = errors.New("no configuration file given (use --config or FINSIM_CONFIG)")

// app carries what every command needs once flags, environment and the
// optional settings file have been merged.
type app struct {
	settings *viper.Viper
	logger   *logrus.Logger
	parser   *config.InputParser
}

// wire resolves settings for cmd and builds the logger. Precedence is
// flag, then FINSIM_* environment variable, then settings file, then the
// flag default.
func (a *app) wire(cmd *cobra.Command) error {
	v := a.settings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("settings"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	logger, err := newLogger(v.GetString("log-level"), v.GetString("log-format"))
	if err != nil {
		return err
	}
	logger.SetOutput(cmd.ErrOrStderr())
	a.logger = logger
	a.parser = config.NewInputParser()
	return nil
}

func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// loadConfiguration reads and validates the configuration named by --config.
func (a *app) loadConfiguration() (*domain.Configuration, error) {
	path := a.settings.GetString("config")
	if path == "" {
		return nil, errNoConfig
	}
	cfg, err := a.parser.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.WithField("config", path).Debug("configuration loaded")
	return cfg, nil
}

// newEngine builds an engine for cfg logging through the CLI logger.
func (a *app) newEngine(cfg *domain.Configuration) *calculation.CalculationEngine {
	eng := calculation.NewCalculationEngine(cfg)
	eng.SetLogger(calculation.NewLogrusLogger(a.logger))
	if w := a.settings.GetInt("workers"); w > 0 {
		eng.Workers = w
	}
	return eng
}

// emit renders the report in the configured format, to --output when set
// and to the command's stdout otherwise.
func (a *app) emit(cmd *cobra.Command, report *output.Report) error {
	f, err := output.ResolveFormatter(a.settings.GetString("format"))
	if err != nil {
		return err
	}
	if path := a.settings.GetString("output"); path != "" {
		written, err := output.WriteFormatted(f, report, path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", written)
		return err
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("%s formatter: %w", f.Name(), err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

package output

import (
	"fmt"
	"io"
	"os"

	"github.com/rpgo/finsim/internal/analysis"
	"github.com/rpgo/finsim/internal/domain"
	"gopkg.in/yaml.v3"
)

// Report is what every formatter renders: either one run with its metrics
// and yearly rows, or a multi-run collection with its statistics.
type Report struct {
	Title  string                `json:"title"`
	Config *domain.Configuration `json:"-"`

	Result  *domain.SimulationResult `json:"result,omitempty"`
	Metrics *analysis.KeyMetrics     `json:"metrics,omitempty"`
	Rows    []analysis.YearlyRow     `json:"-"`

	Multi      *domain.MultiSimulationResult `json:"-"`
	Statistics *analysis.MultiRunStatistics  `json:"statistics,omitempty"`
}

// IsMultiRun reports whether the report covers several trials.
func (r *Report) IsMultiRun() bool { return r.Multi != nil }

// NewSimulationReport analyzes a single run.
func NewSimulationReport(cfg *domain.Configuration, result *domain.SimulationResult) (*Report, error) {
	km, err := analysis.ComputeKeyMetrics(result)
	if err != nil {
		return nil, fmt.Errorf("key metrics: %w", err)
	}
	rows, err := analysis.YearlyRows(result)
	if err != nil {
		return nil, fmt.Errorf("yearly rows: %w", err)
	}
	return &Report{
		Title:   fmt.Sprintf("%s simulation", result.Context.Mode),
		Config:  cfg,
		Result:  result,
		Metrics: &km,
		Rows:    rows,
	}, nil
}

// NewMultiRunReport analyzes a multi-run collection.
func NewMultiRunReport(cfg *domain.Configuration, multi *domain.MultiSimulationResult) (*Report, error) {
	stats, err := analysis.AnalyzeMultiRun(multi)
	if err != nil {
		return nil, fmt.Errorf("multi-run statistics: %w", err)
	}
	return &Report{
		Title:      fmt.Sprintf("%s (%d trials)", multi.Mode, len(multi.Simulations)),
		Config:     cfg,
		Multi:      multi,
		Statistics: stats,
	}, nil
}

// GenerateReport renders the report in the named format to w.
func GenerateReport(report *Report, format string, w io.Writer) error {
	f, err := ResolveFormatter(format)
	if err != nil {
		return err
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("%s formatter: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

// SaveConfiguration writes a configuration as YAML.
func SaveConfiguration(config *domain.Configuration, filename string) error {
	b, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}

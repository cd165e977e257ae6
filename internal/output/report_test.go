package output_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	stddec "github.com/shopspring/decimal"

	"github.com/rpgo/finsim/internal/config"
	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/internal/output"
)

func TestFormatters(t *testing.T) {
	if got := output.FormatCurrency(stddec.NewFromFloat(123.45)); got != "$123.45" {
		t.Fatalf("FormatCurrency = %q", got)
	}
	if got := output.FormatPercentage(stddec.NewFromFloat(12.34)); got != "12.34%" {
		t.Fatalf("FormatPercentage = %q", got)
	}
	if got := output.FormatRate(0.0725); got != "7.25%" {
		t.Fatalf("FormatRate = %q", got)
	}
}

func TestSaveConfigurationRoundTrip(t *testing.T) {
	parser := config.NewInputParser()
	cfg := parser.CreateExampleConfiguration()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := output.SaveConfiguration(cfg, path); err != nil {
		t.Fatalf("SaveConfiguration error: %v", err)
	}

	loaded, err := parser.LoadFromFile(path)
	if err != nil {
		t.Fatalf("reload saved configuration: %v", err)
	}
	if len(loaded.Accounts) != len(cfg.Accounts) {
		t.Fatalf("accounts = %d, want %d", len(loaded.Accounts), len(cfg.Accounts))
	}
	if !loaded.Accounts[1].Balance.Equal(cfg.Accounts[1].Balance) {
		t.Fatalf("balance = %s, want %s", loaded.Accounts[1].Balance, cfg.Accounts[1].Balance)
	}
	if loaded.Incomes[0].TimeFrame.End == nil || loaded.Incomes[0].TimeFrame.End.Type != domain.TimePointAtRetirement {
		t.Fatalf("salary end time point lost in round trip")
	}
}

func TestGenerateReport(t *testing.T) {
	result := &domain.SimulationResult{
		Context: domain.SimulationContext{Mode: domain.ModeDeterministic, StartAge: 50},
		Data: []domain.SimulationDataPoint{
			{Age: 50, Portfolio: domain.PortfolioSnapshot{TotalValue: stddec.NewFromInt(1000)}},
			{Age: 51, Portfolio: domain.PortfolioSnapshot{TotalValue: stddec.NewFromInt(1100)}, Taxes: &domain.TaxesData{}},
		},
	}
	rep, err := output.NewSimulationReport(nil, result)
	if err != nil {
		t.Fatalf("NewSimulationReport: %v", err)
	}

	for _, format := range []string{"json", "csv", "console", "summary"} {
		var buf bytes.Buffer
		if err := output.GenerateReport(rep, format, &buf); err != nil {
			t.Fatalf("GenerateReport %s error: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("GenerateReport %s wrote nothing", format)
		}
	}

	err = output.GenerateReport(rep, "pdf", &bytes.Buffer{})
	if !errors.Is(err, output.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "console-lite") {
		t.Fatalf("error should list available formatters: %v", err)
	}
}

func TestNewReportsRejectEmptyInput(t *testing.T) {
	if _, err := output.NewSimulationReport(nil, &domain.SimulationResult{}); err == nil {
		t.Fatalf("expected error for empty result")
	}
	if _, err := output.NewMultiRunReport(nil, &domain.MultiSimulationResult{}); err == nil {
		t.Fatalf("expected error for empty collection")
	}
}

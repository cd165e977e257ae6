package output

import (
	"testing"
	"time"

	"github.com/rpgo/finsim/internal/calculation"
	"github.com/rpgo/finsim/internal/config"
)

// TestEngineSnapshot runs the example configuration end to end and checks
// that the rendered yearly table is reproducible.
func TestEngineSnapshot(t *testing.T) {
	parser := config.NewInputParser()
	cfg, err := parser.LoadFromFile("../../example_config.yaml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	render := func() string {
		eng := calculation.NewCalculationEngine(cfg)
		eng.SetClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })
		res, err := eng.RunDeterministic()
		if err != nil {
			t.Fatalf("run deterministic: %v", err)
		}
		rep, err := NewSimulationReport(cfg, res)
		if err != nil {
			t.Fatalf("report: %v", err)
		}
		data, err := CSVSummarizer{}.Format(rep)
		if err != nil {
			t.Fatalf("format: %v", err)
		}
		return string(data)
	}

	first := render()
	if first == "" {
		t.Fatalf("empty snapshot")
	}
	if second := render(); first != second {
		t.Fatalf("engine snapshot drift between identical runs\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

package output

import (
	"testing"

	"github.com/rpgo/finsim/internal/analysis"
	"github.com/shopspring/decimal"
)

func TestAnalyzeTrials_OrdersByFinalValueThenSeed(t *testing.T) {
	stats := &analysis.MultiRunStatistics{Trials: []analysis.TrialRow{
		{Seed: 3, FinalValue: decimal.NewFromInt(50)},
		{Seed: 1, FinalValue: decimal.NewFromInt(10)},
		{Seed: 2, FinalValue: decimal.NewFromInt(10)},
		{Seed: 4, FinalValue: decimal.NewFromInt(90)},
	}}
	h, ok := AnalyzeTrials(stats)
	if !ok {
		t.Fatalf("expected highlights")
	}
	if h.Worst.Seed != 1 || h.Median.Seed != 3 || h.Best.Seed != 4 {
		t.Fatalf("unexpected highlights: %+v", h)
	}
	// Input order is left untouched.
	if stats.Trials[0].Seed != 3 {
		t.Fatalf("AnalyzeTrials reordered the caller's trials")
	}
}

func TestAnalyzeTrials_SingleAndEmpty(t *testing.T) {
	one := &analysis.MultiRunStatistics{Trials: []analysis.TrialRow{{Seed: 9, FinalValue: decimal.NewFromInt(5)}}}
	h, ok := AnalyzeTrials(one)
	if !ok || h.Worst.Seed != 9 || h.Median.Seed != 9 || h.Best.Seed != 9 {
		t.Fatalf("single trial highlights: %+v", h)
	}
	if _, ok := AnalyzeTrials(&analysis.MultiRunStatistics{}); ok {
		t.Fatalf("no trials should report false")
	}
	if _, ok := AnalyzeTrials(nil); ok {
		t.Fatalf("nil statistics should report false")
	}
}

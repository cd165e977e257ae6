package output

import (
	"sort"

	"github.com/rpgo/finsim/internal/analysis"
)

// Highlights picks the trials worth calling out in a multi-run summary.
type Highlights struct {
	Best   analysis.TrialRow
	Median analysis.TrialRow
	Worst  analysis.TrialRow
}

// AnalyzeTrials ranks trials by final portfolio value, breaking ties by
// seed so the selection is stable. ok is false when there are no trials.
func AnalyzeTrials(stats *analysis.MultiRunStatistics) (Highlights, bool) {
	if stats == nil || len(stats.Trials) == 0 {
		return Highlights{}, false
	}
	ranked := append([]analysis.TrialRow(nil), stats.Trials...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalValue.Equal(ranked[j].FinalValue) {
			return ranked[i].Seed < ranked[j].Seed
		}
		return ranked[i].FinalValue.LessThan(ranked[j].FinalValue)
	})
	return Highlights{
		Worst:  ranked[0],
		Median: ranked[len(ranked)/2],
		Best:   ranked[len(ranked)-1],
	}, true
}

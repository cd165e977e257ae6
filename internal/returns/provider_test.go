package returns

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `year,stocks,bonds,cash,inflation
2000,-0.091,0.117,0.058,0.034
2001,-0.119,0.084,0.038,0.028
2002,-0.221,0.103,0.016,0.016
2003,0.287,0.041,0.010,0.023
2004,0.109,0.043,0.014,0.027
`

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "returns.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0644))
	ds, err := LoadDatasetFile(path)
	require.NoError(t, err)
	return ds
}

func TestFixedProviderUsesFisherEquation(t *testing.T) {
	m := domain.DefaultMarketAssumptions()
	p := NewFixed(m)
	assert.Equal(t, KindFixed, p.Kind())

	r := p.GetReturns(PhaseData{})
	assert.InDelta(t, 1.10/1.03-1, r.Returns.Stocks, 1e-12)
	assert.InDelta(t, 1.05/1.03-1, r.Returns.Bonds, 1e-12)
	assert.InDelta(t, 0, r.Returns.Cash, 1e-12)
	assert.Equal(t, m.StockYield, r.Yields.Stocks)
	assert.Equal(t, m.Inflation, r.InflationRate)
	assert.Equal(t, r, p.GetReturns(PhaseData{Year: 10}))
	assert.Nil(t, p.Spans())
}

func TestStochasticProviderIsDeterministicBySeed(t *testing.T) {
	m := domain.DefaultMarketAssumptions()
	a := NewStochastic(m, 12345)
	b := NewStochastic(m, 12345)
	c := NewStochastic(m, 54321)

	differs := false
	for year := 0; year < 200; year++ {
		ra := a.GetReturns(PhaseData{Year: year})
		rb := b.GetReturns(PhaseData{Year: year})
		rc := c.GetReturns(PhaseData{Year: year})
		require.Equal(t, ra, rb)
		if ra != rc {
			differs = true
		}
		nominalStocks := (1+ra.Returns.Stocks)*(1+ra.InflationRate) - 1
		require.Greater(t, nominalStocks, -1.0)
	}
	assert.True(t, differs)
}

func TestStochasticProviderBoundsWideVolatility(t *testing.T) {
	m := domain.DefaultMarketAssumptions()
	m.StockVolatility = 0.9
	m.BondVolatility = 0.6
	m.CashVolatility = 0.6
	m.InflationVolatility = 0.6

	for seed := int64(1); seed <= 25; seed++ {
		p := NewStochastic(m, seed)
		for year := 0; year < 80; year++ {
			r := p.GetReturns(PhaseData{Year: year})
			for name, rate := range map[string]float64{
				"stocks":    r.Returns.Stocks,
				"bonds":     r.Returns.Bonds,
				"cash":      r.Returns.Cash,
				"inflation": r.InflationRate,
			} {
				require.False(t, math.IsNaN(rate) || math.IsInf(rate, 0), "seed %d year %d %s not finite", seed, year, name)
				require.Greater(t, rate, -1.0, "seed %d year %d %s", seed, year, name)
			}
		}
	}
}

func TestStochasticProviderMatchesAssumptions(t *testing.T) {
	m := domain.DefaultMarketAssumptions()
	p := NewStochastic(m, 2024)
	const years = 20000
	stocks, inflation := 0.0, 0.0
	for i := 0; i < years; i++ {
		r := p.GetReturns(PhaseData{})
		stocks += (1+r.Returns.Stocks)*(1+r.InflationRate) - 1
		inflation += r.InflationRate
	}
	assert.InDelta(t, m.StockReturn, stocks/years, 0.01)
	assert.InDelta(t, m.Inflation, inflation/years, 0.002)
}

func TestHistoricalProviderWrapsAround(t *testing.T) {
	ds := testDataset(t)
	p, err := NewHistorical(ds, 2003, domain.DefaultMarketAssumptions())
	require.NoError(t, err)

	var years []int
	for i := 0; i < 4; i++ {
		years = append(years, p.GetReturns(PhaseData{Year: i}).HistoricalYear)
	}
	assert.Equal(t, []int{2003, 2004, 2000, 2001}, years)
	assert.Equal(t, []domain.HistoricalSpan{{StartYear: 2003, EndYear: 2004}, {StartYear: 2000, EndYear: 2001}}, p.Spans())

	first, err := NewHistorical(ds, 2003, domain.DefaultMarketAssumptions())
	require.NoError(t, err)
	r := first.GetReturns(PhaseData{})
	assert.InDelta(t, 1.287/1.023-1, r.Returns.Stocks, 1e-12)
	assert.InDelta(t, 0.023, r.InflationRate, 1e-12)

	_, err = NewHistorical(ds, 1999, domain.DefaultMarketAssumptions())
	assert.ErrorIs(t, err, ErrStartYearOutOfRange)
	_, err = NewHistorical(ds, 2005, domain.DefaultMarketAssumptions())
	assert.ErrorIs(t, err, ErrStartYearOutOfRange)
}

func TestSeededHistoricalProvider(t *testing.T) {
	ds := testDataset(t)
	m := domain.DefaultMarketAssumptions()

	a, err := NewSeededHistorical(ds, 77, m, false)
	require.NoError(t, err)
	b, err := NewSeededHistorical(ds, 77, m, false)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		ra := a.GetReturns(PhaseData{Year: i})
		require.Equal(t, ra, b.GetReturns(PhaseData{Year: i}))
		require.True(t, ra.HistoricalYear >= 2000 && ra.HistoricalYear <= 2004)
	}
	spans := a.Spans()
	assert.Equal(t, spans, b.Spans())
	require.Greater(t, len(spans), 1)
	total := 0
	for _, s := range spans {
		assert.LessOrEqual(t, s.StartYear, s.EndYear)
		total += s.EndYear - s.StartYear + 1
	}
	assert.Equal(t, 30, total)
	// Every span but the last runs to the end of the dataset.
	for _, s := range spans[:len(spans)-1] {
		assert.Equal(t, 2004, s.EndYear)
	}
}

func TestSeededHistoricalResamplesOnRetirement(t *testing.T) {
	ds := testDataset(t)
	p, err := NewSeededHistorical(ds, 5, domain.DefaultMarketAssumptions(), true)
	require.NoError(t, err)

	p.GetReturns(PhaseData{Phase: domain.PhaseAccumulation})
	before := len(p.Spans())
	p.GetReturns(PhaseData{Phase: domain.PhaseRetirement})
	assert.Equal(t, before+1, len(p.Spans()))
	p.GetReturns(PhaseData{Phase: domain.PhaseRetirement})
	assert.LessOrEqual(t, len(p.Spans()), before+2)

	// Retired from the first call: the unused initial span is replaced.
	q, err := NewSeededHistorical(ds, 5, domain.DefaultMarketAssumptions(), true)
	require.NoError(t, err)
	q.GetReturns(PhaseData{Phase: domain.PhaseRetirement})
	assert.Len(t, q.Spans(), 1)
}

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset(strings.NewReader(testCSV), "test")
	require.NoError(t, err)
	assert.Equal(t, 2000, ds.MinYear)
	assert.Equal(t, 2004, ds.MaxYear)
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, []int{2000, 2001, 2002, 2003, 2004}, ds.Years())
	assert.Equal(t, 5, ds.Statistics.Count)
	assert.InDelta(t, -0.091, ds.Statistics.Stocks.Median, 1e-12)
	assert.InDelta(t, 0.287, ds.Statistics.Stocks.Max, 1e-12)
	assert.InDelta(t, 0.0256, ds.Statistics.Inflation.Mean, 1e-12)

	rec, err := ds.Record(2002)
	require.NoError(t, err)
	assert.InDelta(t, -0.221, rec.Stocks, 1e-12)
	_, err = ds.Record(2010)
	assert.ErrorIs(t, err, ErrStartYearOutOfRange)

	tests := []struct {
		name string
		csv  string
	}{
		{"gap", "year,stocks,bonds,cash,inflation\n2000,0.1,0.1,0.1,0.1\n2002,0.1,0.1,0.1,0.1\n"},
		{"bad value", "year,stocks,bonds,cash,inflation\n2000,abc,0.1,0.1,0.1\n"},
		{"short header", "year,stocks\n2000,0.1\n"},
		{"empty", "year,stocks,bonds,cash,inflation\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDataset(strings.NewReader(tt.csv), tt.name)
			assert.Error(t, err)
		})
	}

	_, err = LoadDatasetFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

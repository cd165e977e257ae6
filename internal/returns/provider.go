package returns

import (
	"fmt"
	"math"

	"github.com/rpgo/finsim/internal/domain"
	"github.com/rpgo/finsim/pkg/money"
)

// Kind is the discriminant of the Provider tagged union.
type Kind int

const (
	KindFixed Kind = iota
	KindStochastic
	KindHistorical
	KindSeededHistorical
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindStochastic:
		return "stochastic"
	case KindHistorical:
		return "historical"
	case KindSeededHistorical:
		return "seeded_historical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PhaseData is what a provider may consult when producing a year's rates.
type PhaseData struct {
	Phase domain.Phase
	Year  int
}

// ReturnsData is one simulated year's real returns, yields and inflation.
type ReturnsData struct {
	Returns       domain.AssetRates
	Yields        domain.AssetRates
	InflationRate float64
	// HistoricalYear is the dataset year replayed, zero for synthetic returns.
	HistoricalYear int
}

// Provider yields annual rates. Each variant keeps its own RNG or cursor, so
// a Provider belongs to exactly one run.
type Provider struct {
	kind Kind

	fixed      *ReturnsData
	stochastic *stochasticState
	historical *historicalState
}

// minNormalDraw floors the normally drawn nominal rates so a wide
// volatility can never produce a loss of 100% or more.
const minNormalDraw = -0.99

type stochasticState struct {
	assumptions domain.MarketAssumptions
	normals     *NormalSource
	lnMu        float64
	lnSigma     float64
}

type historicalState struct {
	data   *Dataset
	yields domain.AssetRates
	cursor int

	// seeded random-start only
	picker               *LCG
	resampleOnRetirement bool
	resampled            bool

	spans    []domain.HistoricalSpan
	spanUsed bool
}

func yieldsOf(m domain.MarketAssumptions) domain.AssetRates {
	return domain.AssetRates{Stocks: m.StockYield, Bonds: m.BondYield, Cash: m.CashYield}
}

// NewFixed converts nominal assumptions to constant real returns.
func NewFixed(m domain.MarketAssumptions) *Provider {
	return &Provider{
		kind: KindFixed,
		fixed: &ReturnsData{
			Returns: domain.AssetRates{
				Stocks: money.RealRate(m.StockReturn, m.Inflation),
				Bonds:  money.RealRate(m.BondReturn, m.Inflation),
				Cash:   money.RealRate(m.CashReturn, m.Inflation),
			},
			Yields:        yieldsOf(m),
			InflationRate: m.Inflation,
		},
	}
}

// NewStochastic draws correlated returns from a seeded generator. Stocks are
// log-normal with the configured arithmetic mean and volatility.
func NewStochastic(m domain.MarketAssumptions, seed int64) *Provider {
	sigma2 := math.Log(1 + (m.StockVolatility*m.StockVolatility)/((1+m.StockReturn)*(1+m.StockReturn)))
	return &Provider{
		kind: KindStochastic,
		stochastic: &stochasticState{
			assumptions: m,
			normals:     NewNormalSource(seed),
			lnMu:        math.Log(1+m.StockReturn) - sigma2/2,
			lnSigma:     math.Sqrt(sigma2),
		},
	}
}

// NewHistorical replays the dataset from startYear, wrapping to the first
// dataset year after the last.
func NewHistorical(data *Dataset, startYear int, m domain.MarketAssumptions) (*Provider, error) {
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("historical provider requires a dataset")
	}
	if startYear < data.MinYear || startYear > data.MaxYear {
		return nil, fmt.Errorf("start year %d not in %d-%d: %w", startYear, data.MinYear, data.MaxYear, ErrStartYearOutOfRange)
	}
	return &Provider{
		kind: KindHistorical,
		historical: &historicalState{
			data:   data,
			yields: yieldsOf(m),
			cursor: startYear,
			spans:  []domain.HistoricalSpan{{StartYear: startYear, EndYear: startYear}},
		},
	}, nil
}

// NewSeededHistorical replays contiguous spans from seeded random start years.
// A new span starts when the dataset is exhausted or, if resampleOnRetirement
// is set, the first time the retirement phase is seen.
func NewSeededHistorical(data *Dataset, seed int64, m domain.MarketAssumptions, resampleOnRetirement bool) (*Provider, error) {
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("historical provider requires a dataset")
	}
	h := &historicalState{
		data:                 data,
		yields:               yieldsOf(m),
		picker:               NewLCG(seed),
		resampleOnRetirement: resampleOnRetirement,
	}
	h.startSpan()
	return &Provider{kind: KindSeededHistorical, historical: h}, nil
}

// Kind reports the provider variant.
func (p *Provider) Kind() Kind {
	return p.kind
}

// Spans returns the dataset spans replayed so far.
func (p *Provider) Spans() []domain.HistoricalSpan {
	if p.historical == nil {
		return nil
	}
	return append([]domain.HistoricalSpan(nil), p.historical.spans...)
}

// GetReturns produces the next simulated year's rates.
func (p *Provider) GetReturns(phase PhaseData) ReturnsData {
	switch p.kind {
	case KindFixed:
		return *p.fixed
	case KindStochastic:
		return p.stochastic.next()
	case KindHistorical:
		return p.historical.nextExhaustive()
	case KindSeededHistorical:
		return p.historical.nextSeeded(phase)
	default:
		panic(fmt.Sprintf("returns: unknown provider kind %d", p.kind))
	}
}

func (s *stochasticState) next() ReturnsData {
	z := []float64{s.normals.Next(), s.normals.Next(), s.normals.Next(), s.normals.Next()}
	c := correlate(defaultCholesky, z)
	m := s.assumptions

	stocks := math.Exp(s.lnMu+s.lnSigma*c[0]) - 1
	bonds := math.Max(m.BondReturn+m.BondVolatility*c[1], minNormalDraw)
	cash := math.Max(m.CashReturn+m.CashVolatility*c[2], minNormalDraw)
	inflation := math.Max(m.Inflation+m.InflationVolatility*c[3], minNormalDraw)

	return ReturnsData{
		Returns: domain.AssetRates{
			Stocks: money.RealRate(stocks, inflation),
			Bonds:  money.RealRate(bonds, inflation),
			Cash:   money.RealRate(cash, inflation),
		},
		Yields:        yieldsOf(m),
		InflationRate: inflation,
	}
}

func (h *historicalState) emit(year int) ReturnsData {
	rec := h.data.Records[year-h.data.MinYear]
	h.spans[len(h.spans)-1].EndYear = year
	h.spanUsed = true
	return ReturnsData{
		Returns: domain.AssetRates{
			Stocks: money.RealRate(rec.Stocks, rec.Inflation),
			Bonds:  money.RealRate(rec.Bonds, rec.Inflation),
			Cash:   money.RealRate(rec.Cash, rec.Inflation),
		},
		Yields:         h.yields,
		InflationRate:  rec.Inflation,
		HistoricalYear: rec.Year,
	}
}

func (h *historicalState) nextExhaustive() ReturnsData {
	if h.cursor > h.data.MaxYear {
		h.cursor = h.data.MinYear
		h.spans = append(h.spans, domain.HistoricalSpan{StartYear: h.cursor, EndYear: h.cursor})
		h.spanUsed = false
	}
	out := h.emit(h.cursor)
	h.cursor++
	return out
}

func (h *historicalState) startSpan() {
	start := h.data.MinYear + int(h.picker.Float64()*float64(h.data.Len()))
	h.cursor = start
	span := domain.HistoricalSpan{StartYear: start, EndYear: start}
	if len(h.spans) > 0 && !h.spanUsed {
		h.spans[len(h.spans)-1] = span
	} else {
		h.spans = append(h.spans, span)
	}
	h.spanUsed = false
}

func (h *historicalState) nextSeeded(phase PhaseData) ReturnsData {
	if h.resampleOnRetirement && !h.resampled && phase.Phase == domain.PhaseRetirement {
		h.resampled = true
		h.startSpan()
	} else if h.cursor > h.data.MaxYear {
		h.startSpan()
	}
	out := h.emit(h.cursor)
	h.cursor++
	return out
}

package returns

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCGSequence(t *testing.T) {
	g := NewLCG(0)
	assert.Equal(t, uint32(1013904223), g.Next())

	g = NewLCG(1)
	assert.Equal(t, uint32(1015568748), g.Next())

	a, b := NewLCG(42), NewLCG(42)
	for i := 0; i < 1000; i++ {
		va, vb := a.Float64(), b.Float64()
		require.Equal(t, va, vb)
		require.True(t, va >= 0 && va < 1)
	}
}

func TestNormalSourceMoments(t *testing.T) {
	n := NewNormalSource(7)
	const draws = 20000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < draws; i++ {
		v := n.Next()
		sum += v
		sumSq += v * v
	}
	mean := sum / draws
	std := math.Sqrt(sumSq/draws - mean*mean)
	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 1, std, 0.05)
}

func TestCholeskyReconstructs(t *testing.T) {
	l, err := Cholesky(DefaultCorrelation)
	require.NoError(t, err)
	for i := range DefaultCorrelation {
		for j := range DefaultCorrelation {
			sum := 0.0
			for k := range l {
				sum += l[i][k] * l[j][k]
			}
			assert.InDelta(t, DefaultCorrelation[i][j], sum, 1e-12)
		}
		for j := i + 1; j < len(l); j++ {
			assert.Zero(t, l[i][j])
		}
	}

	_, err = Cholesky([][]float64{{1, 2}, {2, 1}})
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)
	_, err = Cholesky([][]float64{{1, 0}, {0}})
	assert.Error(t, err)
}

func TestCorrelatedDrawsFollowMatrix(t *testing.T) {
	n := NewNormalSource(99)
	const draws = 40000
	var xs, ys []float64
	for i := 0; i < draws; i++ {
		c := correlate(defaultCholesky, []float64{n.Next(), n.Next(), n.Next(), n.Next()})
		xs = append(xs, c[2])
		ys = append(ys, c[3])
	}
	assert.InDelta(t, DefaultCorrelation[2][3], pearson(xs, ys), 0.03)
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sx, sy, sxx, syy, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		syy += ys[i] * ys[i]
		sxy += xs[i] * ys[i]
	}
	cov := sxy/n - (sx/n)*(sy/n)
	return cov / math.Sqrt((sxx/n-(sx/n)*(sx/n))*(syy/n-(sy/n)*(sy/n)))
}

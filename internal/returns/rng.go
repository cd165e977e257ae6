package returns

import (
	"errors"
	"math"
)

// ErrNotPositiveDefinite is returned when a correlation matrix has no Cholesky factor.
var ErrNotPositiveDefinite = errors.New("matrix is not positive definite")

// Linear congruential generator constants (Numerical Recipes).
const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// LCG is a seeded linear-congruential generator. It is a value owned by a
// single provider; copies evolve independently.
type LCG struct {
	state uint64
}

// NewLCG seeds a generator. Only the low 32 bits of the seed are significant.
func NewLCG(seed int64) *LCG {
	return &LCG{state: uint64(seed) % lcgModulus}
}

// Next advances the generator and returns the new state.
func (g *LCG) Next() uint32 {
	g.state = (lcgMultiplier*g.state + lcgIncrement) % lcgModulus
	return uint32(g.state)
}

// Float64 returns a uniform value in [0, 1).
func (g *LCG) Float64() float64 {
	return float64(g.Next()) / lcgModulus
}

// NormalSource turns uniform draws into standard normals with the Box-Muller
// transform, caching the second value of each pair.
type NormalSource struct {
	uniform  *LCG
	spare    float64
	hasSpare bool
}

// NewNormalSource creates a standard-normal source from a seed.
func NewNormalSource(seed int64) *NormalSource {
	return &NormalSource{uniform: NewLCG(seed)}
}

// Next returns the next standard-normal draw.
func (n *NormalSource) Next() float64 {
	if n.hasSpare {
		n.hasSpare = false
		return n.spare
	}
	u1 := n.uniform.Float64()
	if u1 == 0 {
		u1 = 1.0 / lcgModulus
	}
	u2 := n.uniform.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	n.spare = r * math.Sin(theta)
	n.hasSpare = true
	return r * math.Cos(theta)
}

// Cholesky returns the lower-triangular L with L*Lᵀ = m.
func Cholesky(m [][]float64) ([][]float64, error) {
	n := len(m)
	l := make([][]float64, n)
	for i := range l {
		if len(m[i]) != n {
			return nil, errors.New("matrix is not square")
		}
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := 0.0
			for k := 0; k < j; k++ {
				sum += l[i][k] * l[j][k]
			}
			if i == j {
				v := m[i][i] - sum
				if v <= 0 {
					return nil, ErrNotPositiveDefinite
				}
				l[i][j] = math.Sqrt(v)
			} else {
				l[i][j] = (m[i][j] - sum) / l[j][j]
			}
		}
	}
	return l, nil
}

// DefaultCorrelation is the empirical correlation of annual stocks, bonds,
// cash and inflation, in that order.
var DefaultCorrelation = [][]float64{
	{1.00, 0.10, 0.05, -0.10},
	{0.10, 1.00, 0.30, -0.20},
	{0.05, 0.30, 1.00, 0.40},
	{-0.10, -0.20, 0.40, 1.00},
}

var defaultCholesky = mustCholesky(DefaultCorrelation)

func mustCholesky(m [][]float64) [][]float64 {
	l, err := Cholesky(m)
	if err != nil {
		panic(err)
	}
	return l
}

// correlate applies a lower-triangular factor to independent draws.
func correlate(l [][]float64, z []float64) []float64 {
	out := make([]float64, len(z))
	for i := range l {
		for j := 0; j <= i; j++ {
			out[i] += l[i][j] * z[j]
		}
	}
	return out
}

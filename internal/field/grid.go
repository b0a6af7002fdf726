package field

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Grid holds the sampled field components. X and Y are the axis
// coordinates; Ex and Ey are N×N with rows along Y.
type Grid struct {
	Bound float64
	N     int
	X, Y  []float64
	Ex    *mat.Dense
	Ey    *mat.Dense
	eps   float64
}

// At returns the field vector at row i, column j.
func (g *Grid) At(i, j int) (ex, ey float64) {
	return g.Ex.At(i, j), g.Ey.At(i, j)
}

// Magnitude returns |E| at every grid point.
func (g *Grid) Magnitude() *mat.Dense {
	m := mat.NewDense(g.N, g.N, nil)
	m.Apply(func(i, j int, _ float64) float64 {
		return math.Hypot(g.Ex.At(i, j), g.Ey.At(i, j))
	}, m)
	return m
}

// LogStrength returns log(Ex² + Ey² + eps), the quantity drawn by the
// heatmap. The softening keeps empty regions finite.
func (g *Grid) LogStrength() *mat.Dense {
	m := mat.NewDense(g.N, g.N, nil)
	m.Apply(func(i, j int, _ float64) float64 {
		ex, ey := g.At(i, j)
		return math.Log(ex*ex + ey*ey + g.eps)
	}, m)
	return m
}

// Range returns the smallest and largest finite values of m.
func Range(m *mat.Dense) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i)[:c] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

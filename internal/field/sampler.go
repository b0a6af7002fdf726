package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

// Sampler evaluates the field of point charges. The zero value is not
// usable; use NewSampler or set Constants.
type Sampler struct {
	Constants physics.Constants
	// Workers bounds the goroutines used for rows. 1 is serial, <= 0
	// uses every CPU.
	Workers int
}

func NewSampler(c physics.Constants) *Sampler {
	return &Sampler{Constants: c, Workers: 1}
}

// Sample evaluates the field on an n×n grid spanning [-bound, bound] on
// both axes. state holds (x, y, vx, vy) per particle; velocities are
// ignored.
func (s *Sampler) Sample(state, charges []float64, bound float64, n int) (*Grid, error) {
	if err := s.Constants.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("grid size %d: %w", n, dynamo.ErrInvalidGrid)
	}
	if !(bound > 0) || math.IsInf(bound, 0) {
		return nil, fmt.Errorf("grid bound %v: %w", bound, dynamo.ErrInvalidGrid)
	}
	if len(charges) == 0 {
		return nil, fmt.Errorf("need at least one particle: %w", dynamo.ErrParameterBounds)
	}
	if len(state) != 4*len(charges) {
		return nil, fmt.Errorf("state has %d entries for %d charges: %w", len(state), len(charges), dynamo.ErrDimensionMismatch)
	}
	if !dynamo.State(state).IsValid() {
		return nil, dynamo.ErrInvalidState
	}

	axis := linspace(-bound, bound, n)
	g := &Grid{
		Bound: bound,
		N:     n,
		X:     axis,
		Y:     append([]float64(nil), axis...),
		Ex:    mat.NewDense(n, n, nil),
		Ey:    mat.NewDense(n, n, nil),
		eps:   s.Constants.Eps,
	}

	dynamo.ParallelFor(n, 4, s.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			s.sampleRow(g, i, state, charges)
		}
	})

	return g, nil
}

// sampleRow fills row i of g. Particles are summed in index order.
func (s *Sampler) sampleRow(g *Grid, i int, state, charges []float64) {
	k, eps := s.Constants.K, s.Constants.Eps
	ex := g.Ex.RawRowView(i)
	ey := g.Ey.RawRowView(i)
	py := g.Y[i]

	for j, px := range g.X {
		var sx, sy float64
		for p, q := range charges {
			dx := px - state[p*4]
			dy := py - state[p*4+1]
			d := math.Pow(dx*dx+dy*dy, 1.5) + eps
			sx += k * q * dx / d
			sy += k * q * dy / d
		}
		ex[j] = sx
		ey[j] = sy
	}
}

func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

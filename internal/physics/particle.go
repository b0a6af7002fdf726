package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/coulomb/internal/dynamo"
)

// Particle is a point charge. Positions are in pm, velocities in pm/s, mass
// in MeV and charge in units of the elementary charge.
type Particle struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	VX     float64 `yaml:"vx" json:"vx"`
	VY     float64 `yaml:"vy" json:"vy"`
	Mass   float64 `yaml:"mass" json:"mass"`
	Charge float64 `yaml:"charge" json:"charge"`
}

// Ensemble is an ordered set of particles; index order is state order.
type Ensemble []Particle

// State packs (x, y, vx, vy) of every particle into one vector.
func (e Ensemble) State() dynamo.State {
	x := make(dynamo.State, len(e)*4)
	for i, p := range e {
		x[i*4] = p.X
		x[i*4+1] = p.Y
		x[i*4+2] = p.VX
		x[i*4+3] = p.VY
	}
	return x
}

func (e Ensemble) Masses() []float64 {
	m := make([]float64, len(e))
	for i, p := range e {
		m[i] = p.Mass
	}
	return m
}

func (e Ensemble) Charges() []float64 {
	q := make([]float64, len(e))
	for i, p := range e {
		q[i] = p.Charge
	}
	return q
}

// WithState returns a copy of e whose positions and velocities come from x.
func (e Ensemble) WithState(x dynamo.State) (Ensemble, error) {
	if len(x) != len(e)*4 {
		return nil, fmt.Errorf("state has %d entries for %d particles: %w", len(x), len(e), dynamo.ErrDimensionMismatch)
	}
	out := make(Ensemble, len(e))
	for i, p := range e {
		p.X, p.Y, p.VX, p.VY = x[i*4], x[i*4+1], x[i*4+2], x[i*4+3]
		out[i] = p
	}
	return out, nil
}

func (e Ensemble) Validate() error {
	if len(e) == 0 {
		return fmt.Errorf("ensemble is empty: %w", dynamo.ErrParameterBounds)
	}
	for i, p := range e {
		if !(p.Mass > 0) {
			return fmt.Errorf("particle %d mass %v must be positive: %w", i, p.Mass, dynamo.ErrParameterBounds)
		}
		for _, v := range []float64{p.X, p.Y, p.VX, p.VY, p.Charge} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("particle %d: %w", i, dynamo.ErrInvalidState)
			}
		}
	}
	return nil
}

// System builds the Coulomb system for the ensemble.
func (e Ensemble) System(c Constants) (*Coulomb, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return NewCoulomb(e.Masses(), e.Charges(), c)
}

package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/coulomb/internal/dynamo"
)

const (
	// CoulombK is Coulomb's constant in MeV·pm³/(e²·s²).
	CoulombK = 2.533e38
	// DefaultEps softens every inverse-distance-cubed denominator.
	DefaultEps = 1e-12

	// Below this particle count the pairwise loop is always serial.
	parallelMinBodies = 64
)

// Constants carries the unit-system values used by the force law and the
// field sampler. They are passed in explicitly so tests can override them.
type Constants struct {
	K   float64 `yaml:"k" json:"k"`
	Eps float64 `yaml:"eps" json:"eps"`
}

func DefaultConstants() Constants {
	return Constants{K: CoulombK, Eps: DefaultEps}
}

func (c Constants) Validate() error {
	if math.IsNaN(c.K) || math.IsInf(c.K, 0) {
		return fmt.Errorf("coulomb constant %v: %w", c.K, dynamo.ErrParameterBounds)
	}
	if !(c.Eps > 0) || math.IsInf(c.Eps, 0) {
		return fmt.Errorf("softening must be positive, got %v: %w", c.Eps, dynamo.ErrParameterBounds)
	}
	return nil
}

// AccelerationComponent returns the acceleration along the first axis of the
// particle at (x1, y1) with charge q1 and mass m1 due to a charge q2 at
// (x2, y2). Call it with the axes swapped, (y1, y2, x1, x2, ...), for the
// second axis.
func (c Constants) AccelerationComponent(x1, x2, y1, y2, q1, q2, m1 float64) float64 {
	dx := x1 - x2
	r := math.Hypot(dx, y1-y2)
	return c.K * q1 * q2 * dx / (m1*r*r*r + c.Eps)
}

// Derivative returns d(state)/dt for the ensemble described by masses and
// charges. state holds (x, y, vx, vy) per particle.
func Derivative(c Constants, state, masses, charges []float64) []float64 {
	d := make([]float64, len(state))
	deriveRange(c, d, state, masses, charges, 0, len(masses))
	return d
}

// deriveRange fills d for particles [start, end). Each particle's partners
// are visited in index order, so the sum is independent of how ranges are
// split across workers.
func deriveRange(c Constants, d, x, masses, charges []float64, start, end int) {
	n := len(masses)
	for i := start; i < end; i++ {
		xi, yi := x[i*4], x[i*4+1]
		qi, mi := charges[i], masses[i]

		ax, ay := 0.0, 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			xj, yj := x[j*4], x[j*4+1]
			ax += c.AccelerationComponent(xi, xj, yi, yj, qi, charges[j], mi)
			ay += c.AccelerationComponent(yi, yj, xi, xj, qi, charges[j], mi)
		}

		d[i*4] = x[i*4+2]
		d[i*4+1] = x[i*4+3]
		d[i*4+2] = ax
		d[i*4+3] = ay
	}
}

// Coulomb is a set of charged point particles interacting pairwise. Masses
// and charges are fixed for the lifetime of the value; only the state vector
// passed to Derive changes.
type Coulomb struct {
	Constants
	Masses  []float64
	Charges []float64
	// Workers > 1 splits the pairwise loop across goroutines once the
	// ensemble is large enough. Results are bit-identical to the serial loop.
	Workers int
}

// NewCoulomb validates masses and charges and returns a system ready for
// integration. The slices are copied.
func NewCoulomb(masses, charges []float64, c Constants) (*Coulomb, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(masses) == 0 {
		return nil, fmt.Errorf("need at least one particle: %w", dynamo.ErrParameterBounds)
	}
	if len(masses) != len(charges) {
		return nil, fmt.Errorf("%d masses but %d charges: %w", len(masses), len(charges), dynamo.ErrDimensionMismatch)
	}
	for i, m := range masses {
		if !(m > 0) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("particle %d mass %v must be positive: %w", i, m, dynamo.ErrParameterBounds)
		}
	}
	for i, q := range charges {
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return nil, fmt.Errorf("particle %d charge %v: %w", i, q, dynamo.ErrParameterBounds)
		}
	}

	return &Coulomb{
		Constants: c,
		Masses:    append([]float64(nil), masses...),
		Charges:   append([]float64(nil), charges...),
		Workers:   1,
	}, nil
}

func (cs *Coulomb) NumParticles() int { return len(cs.Masses) }
func (cs *Coulomb) StateDim() int     { return len(cs.Masses) * 4 }
func (cs *Coulomb) ControlDim() int   { return 0 }

// CheckState reports whether x is a usable state vector for this system.
func (cs *Coulomb) CheckState(x dynamo.State) error {
	if len(x) != cs.StateDim() {
		return fmt.Errorf("state has %d entries, want %d: %w", len(x), cs.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

func (cs *Coulomb) Derive(x dynamo.State, _ dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	cs.DeriveInto(dx, x, t)
	return dx
}

func (cs *Coulomb) DeriveInto(dst, x dynamo.State, _ float64) {
	n := len(cs.Masses)
	if cs.Workers <= 1 || n < parallelMinBodies {
		deriveRange(cs.Constants, dst, x, cs.Masses, cs.Charges, 0, n)
		return
	}
	dynamo.ParallelFor(n, parallelMinBodies/4, cs.Workers, func(start, end int) {
		deriveRange(cs.Constants, dst, x, cs.Masses, cs.Charges, start, end)
	})
}

// Energy returns kinetic plus electrostatic potential energy in
// MeV·pm²/s², the unit implied by K.
func (cs *Coulomb) Energy(x dynamo.State) float64 {
	n := len(cs.Masses)
	ke := 0.0
	pe := 0.0

	for i := 0; i < n; i++ {
		vx, vy := x[i*4+2], x[i*4+3]
		ke += 0.5 * cs.Masses[i] * (vx*vx + vy*vy)

		for j := i + 1; j < n; j++ {
			r := math.Hypot(x[j*4]-x[i*4], x[j*4+1]-x[i*4+1])
			pe += cs.K * cs.Charges[i] * cs.Charges[j] / (r + cs.Eps)
		}
	}

	return ke + pe
}

func (cs *Coulomb) Momentum(x dynamo.State) (px, py float64) {
	for i := range cs.Masses {
		px += cs.Masses[i] * x[i*4+2]
		py += cs.Masses[i] * x[i*4+3]
	}
	return
}

func (cs *Coulomb) AngularMomentum(x dynamo.State) float64 {
	L := 0.0
	for i := range cs.Masses {
		xi, yi := x[i*4], x[i*4+1]
		vx, vy := x[i*4+2], x[i*4+3]
		L += cs.Masses[i] * (xi*vy - yi*vx)
	}
	return L
}

// MinSeparation returns the smallest pairwise distance, or +Inf for a
// single particle.
func MinSeparation(x dynamo.State) float64 {
	n := len(x) / 4
	best := math.Inf(1)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			best = math.Min(best, math.Hypot(x[j*4]-x[i*4], x[j*4+1]-x[i*4+1]))
		}
	}
	return best
}

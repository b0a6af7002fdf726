package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/coulomb/internal/dynamo"
)

// RK4 is the classical fixed-step fourth-order Runge-Kutta method.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) derive(dst dynamo.State, dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64) {
	if ip, ok := dyn.(dynamo.InPlaceSystem); ok {
		ip.DeriveInto(dst, x, t)
		return
	}
	copy(dst, dyn.Derive(x, u, t))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	r.derive(r.k1, dyn, x, u, t)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	r.derive(r.k2, dyn, r.scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	r.derive(r.k3, dyn, r.scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	r.derive(r.k4, dyn, r.scratch, u, t+dt)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

// Fixed drives a fixed-step Integrator through the Stepper interface. Each
// advance is split into the fewest equal sub-steps no longer than MaxStep.
type Fixed struct {
	MaxStep float64
	Bound   float64

	integ dynamo.Integrator
	dyn   dynamo.System
	t     float64
	x     dynamo.State
	steps int
}

func NewFixed(integ dynamo.Integrator, dyn dynamo.System, x0 dynamo.State, t0, maxStep float64) (*Fixed, error) {
	if !(maxStep > 0) || math.IsInf(maxStep, 0) {
		return nil, fmt.Errorf("max step must be positive, got %v: %w", maxStep, dynamo.ErrParameterBounds)
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("state has %d entries, want %d: %w", len(x0), dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return nil, &dynamo.SimulationError{Time: t0, State: x0.Clone(), Wrapped: dynamo.ErrInvalidState}
	}
	return &Fixed{MaxStep: maxStep, integ: integ, dyn: dyn, t: t0, x: x0.Clone()}, nil
}

func (f *Fixed) Time() float64       { return f.t }
func (f *Fixed) State() dynamo.State { return f.x }

func (f *Fixed) AdvanceBy(dt float64) error { return f.AdvanceTo(f.t + dt) }

func (f *Fixed) AdvanceTo(target float64) error {
	if math.IsNaN(target) || target < f.t {
		return fmt.Errorf("cannot advance from t=%g to t=%g: %w", f.t, target, dynamo.ErrParameterBounds)
	}
	if f.Bound > 0 && target > f.Bound {
		return &dynamo.SimulationError{Step: f.steps, Time: f.t, State: f.x.Clone(), Wrapped: dynamo.ErrPastBound}
	}

	span := target - f.t
	if span == 0 {
		return nil
	}
	n := int(math.Ceil(span / f.MaxStep))
	h := span / float64(n)

	for i := 0; i < n; i++ {
		next := f.integ.Step(f.dyn, f.x, nil, f.t, h)
		if !next.IsValid() {
			return &dynamo.SimulationError{Step: f.steps, Time: f.t, State: f.x.Clone(), Wrapped: dynamo.ErrInvalidState}
		}
		f.x = next
		f.t += h
		f.steps++
	}
	f.t = target

	return nil
}

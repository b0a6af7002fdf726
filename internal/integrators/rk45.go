package integrators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/coulomb/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const (
	DefaultRtol = 1e-3
	DefaultAtol = 1e-6
)

// RK45 is an adaptive Dormand-Prince 5(4) integrator. It owns the current
// time, state and proposed internal step, and advances them through
// AdvanceTo. The internal step never exceeds MaxStep.
type RK45 struct {
	Rtol    float64
	Atol    float64
	MaxStep float64
	// MinStep is an optional floor on the internal step. Steps below
	// max(MinStep, 10 ulp(t)) are reported as ErrStepTooSmall.
	MinStep float64
	// Bound, when positive, is the latest time the integrator may reach.
	Bound float64

	safety   float64
	minScale float64
	maxScale float64

	dyn     dynamo.System
	inPlace dynamo.InPlaceSystem

	t float64
	h float64
	x dynamo.State
	f dynamo.State

	k2, k3, k4, k5, k6 dynamo.State
	xNew, fNew         dynamo.State
	scratch            dynamo.State

	accepted int
	rejected int
	evals    int
}

// NewRK45 prepares an integrator at (t0, x0). x0 is copied. The initial
// internal step is chosen from the local derivative scale and capped at
// maxStep.
func NewRK45(dyn dynamo.System, x0 dynamo.State, t0, maxStep, rtol, atol float64) (*RK45, error) {
	if !(maxStep > 0) || math.IsInf(maxStep, 0) {
		return nil, fmt.Errorf("max step must be positive, got %v: %w", maxStep, dynamo.ErrParameterBounds)
	}
	if rtol == 0 && atol == 0 {
		rtol, atol = DefaultRtol, DefaultAtol
	}
	if !(rtol > 0) || !(atol > 0) {
		return nil, fmt.Errorf("tolerances must be positive (rtol=%v atol=%v): %w", rtol, atol, dynamo.ErrParameterBounds)
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("state has %d entries, want %d: %w", len(x0), dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return nil, &dynamo.SimulationError{Time: t0, State: x0.Clone(), Wrapped: dynamo.ErrInvalidState}
	}

	n := len(x0)
	r := &RK45{
		Rtol:     rtol,
		Atol:     atol,
		MaxStep:  maxStep,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		dyn:      dyn,
		t:        t0,
		x:        x0.Clone(),
		f:        make(dynamo.State, n),
		k2:       make(dynamo.State, n),
		k3:       make(dynamo.State, n),
		k4:       make(dynamo.State, n),
		k5:       make(dynamo.State, n),
		k6:       make(dynamo.State, n),
		xNew:     make(dynamo.State, n),
		fNew:     make(dynamo.State, n),
		scratch:  make(dynamo.State, n),
	}
	if ip, ok := dyn.(dynamo.InPlaceSystem); ok {
		r.inPlace = ip
	}

	r.derive(r.f, r.x, t0)
	if !r.f.IsValid() {
		return nil, &dynamo.SimulationError{Time: t0, State: x0.Clone(), Wrapped: dynamo.ErrInvalidState}
	}
	r.h = r.initialStep()

	return r, nil
}

func (r *RK45) Time() float64       { return r.t }
func (r *RK45) State() dynamo.State { return r.x }

// NextStep is the internal step the integrator will try next.
func (r *RK45) NextStep() float64 { return math.Min(r.h, r.MaxStep) }

func (r *RK45) Stats() (accepted, rejected, evaluations int) {
	return r.accepted, r.rejected, r.evals
}

func (r *RK45) AdvanceBy(dt float64) error {
	return r.AdvanceTo(r.t + dt)
}

// AdvanceTo integrates until the internal time equals target exactly, taking
// as many accepted sub-steps as the error control requires.
func (r *RK45) AdvanceTo(target float64) error {
	if math.IsNaN(target) || target < r.t {
		return fmt.Errorf("cannot advance from t=%g to t=%g: %w", r.t, target, dynamo.ErrParameterBounds)
	}
	if r.Bound > 0 && target > r.Bound {
		return &dynamo.SimulationError{Step: r.accepted, Time: r.t, State: r.x.Clone(), Wrapped: dynamo.ErrPastBound}
	}

	rejectedLast := false
	for r.t < target {
		h := math.Min(r.h, r.MaxStep)
		if math.IsNaN(h) || h < r.minStep() {
			return &dynamo.SimulationError{Step: r.accepted, Time: r.t, State: r.x.Clone(), Wrapped: dynamo.ErrStepTooSmall}
		}

		truncated := false
		if r.t+h >= target {
			h = target - r.t
			truncated = true
		}

		errNorm := r.attempt(h)

		if errNorm <= 1 {
			factor := r.maxScale
			if errNorm > 0 {
				factor = math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
			}
			if rejectedLast {
				factor = math.Min(1, factor)
			}

			if truncated {
				r.t = target
			} else {
				r.t += h
			}
			r.x, r.xNew = r.xNew, r.x
			r.f, r.fNew = r.fNew, r.f
			r.accepted++
			rejectedLast = false

			if !truncated || factor < 1 {
				r.h = h * factor
			}
			r.h = math.Min(r.h, r.MaxStep)
			continue
		}

		// NaN norms land here too and shrink the step as hard as allowed.
		factor := r.minScale
		if !math.IsNaN(errNorm) {
			factor = math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.2))
		}
		r.h = h * factor
		r.rejected++
		rejectedLast = true
	}

	return nil
}

func (r *RK45) minStep() float64 {
	ulp := math.Nextafter(r.t, math.Inf(1)) - r.t
	return math.Max(r.MinStep, 10*ulp)
}

func (r *RK45) derive(dst, x dynamo.State, t float64) {
	r.evals++
	if r.inPlace != nil {
		r.inPlace.DeriveInto(dst, x, t)
		return
	}
	copy(dst, r.dyn.Derive(x, nil, t))
}

// attempt computes a trial step of size h into xNew/fNew and returns the
// scaled RMS error norm. The current state is left untouched.
func (r *RK45) attempt(h float64) float64 {
	n := len(r.x)
	x, k1, t := r.x, r.f, r.t
	s := r.scratch

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*b21*k1[i]
	}
	r.derive(r.k2, s, t+a2*h)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b31*k1[i]+b32*r.k2[i])
	}
	r.derive(r.k3, s, t+a3*h)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b41*k1[i]+b42*r.k2[i]+b43*r.k3[i])
	}
	r.derive(r.k4, s, t+a4*h)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b51*k1[i]+b52*r.k2[i]+b53*r.k3[i]+b54*r.k4[i])
	}
	r.derive(r.k5, s, t+a5*h)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b61*k1[i]+b62*r.k2[i]+b63*r.k3[i]+b64*r.k4[i]+b65*r.k5[i])
	}
	r.derive(r.k6, s, t+h)

	for i := 0; i < n; i++ {
		r.xNew[i] = x[i] + h*(c1*k1[i]+c3*r.k3[i]+c4*r.k4[i]+c5*r.k5[i]+c6*r.k6[i])
	}
	if !r.xNew.IsValid() {
		return math.NaN()
	}

	// First-same-as-last: k7 is the derivative at the new point.
	r.derive(r.fNew, r.xNew, t+h)
	if !r.fNew.IsValid() {
		return math.NaN()
	}

	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*r.k3[i] + dc4*r.k4[i] + dc5*r.k5[i] + dc6*r.k6[i] + dc7*r.fNew[i])
		s[i] = errEst / (r.Atol + r.Rtol*math.Max(math.Abs(x[i]), math.Abs(r.xNew[i])))
	}
	return rms(s)
}

// rms is the root mean square of v. floats.Norm scales internally, so
// ratios near the float64 limit do not overflow.
func rms(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2) / math.Sqrt(float64(len(v)))
}

// initialStep follows Hairer, Norsett & Wanner: compare the state and
// derivative scales, probe one explicit Euler step, and size h so the
// leading error term matches the tolerance.
func (r *RK45) initialStep() float64 {
	n := len(r.x)
	if n == 0 {
		return r.MaxStep
	}

	scale := make([]float64, n)
	ratio := make([]float64, n)
	for i := 0; i < n; i++ {
		scale[i] = r.Atol + math.Abs(r.x[i])*r.Rtol
	}
	floats.DivTo(ratio, r.x, scale)
	d0 := rms(ratio)
	floats.DivTo(ratio, r.f, scale)
	d1 := rms(ratio)

	h0 := 0.01 * d0 / d1
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	}
	if !(h0 > 0) || math.IsInf(h0, 0) {
		h0 = r.MaxStep
	}
	h0 = math.Min(h0, r.MaxStep)

	floats.AddScaledTo(r.scratch, r.x, h0, r.f)
	r.derive(r.fNew, r.scratch, r.t+h0)

	floats.SubTo(ratio, r.fNew, r.f)
	floats.Div(ratio, scale)
	d2 := rms(ratio) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5.0)
	}

	h := math.Min(100*h0, h1)
	if !(h > 0) || math.IsNaN(h) {
		h = h0
	}
	return math.Min(h, r.MaxStep)
}

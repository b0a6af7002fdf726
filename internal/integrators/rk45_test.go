package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }
func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// blowUp is dx/dt = x², whose solution 1/(1-t) diverges at t = 1.
type blowUp struct{}

func (b *blowUp) StateDim() int   { return 1 }
func (b *blowUp) ControlDim() int { return 0 }
func (b *blowUp) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[0] * x[0]}
}

type nanSystem struct{}

func (n *nanSystem) StateDim() int   { return 1 }
func (n *nanSystem) ControlDim() int { return 0 }
func (n *nanSystem) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{math.NaN()}
}

func hydrogenOrbit() (state, masses, charges []float64) {
	const r = 52.9
	masses = []float64{938, 0.511}
	charges = []float64{1, -1}
	v := math.Sqrt(physics.CoulombK / (r * masses[1]))
	state = []float64{
		0, 0, 0, 0,
		r, 0, 0, v,
	}
	return
}

func TestRK45_Accuracy(t *testing.T) {
	g := NewWithT(t)

	tr, err := Integrate(&harmonicOscillator{}, dynamo.State{1, 0}, dynamo.Config{
		Dt: 0.01, Steps: 100, Rtol: 1e-9, Atol: 1e-12,
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tr.Len()).To(Equal(101))

	final := tr.Final()
	g.Expect(final[0]).To(BeNumerically("~", math.Cos(1), 1e-7))
	g.Expect(final[1]).To(BeNumerically("~", -math.Sin(1), 1e-7))
}

func TestRK45_EnergyConservation(t *testing.T) {
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	tr, err := Integrate(dyn, x0, dynamo.Config{Dt: 0.01, Steps: 10000, Rtol: 1e-10, Atol: 1e-12})
	if err != nil {
		t.Fatal(err)
	}

	drift := math.Abs(dyn.Energy(tr.Final())-dyn.Energy(x0)) / dyn.Energy(x0)
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_NeverExceedsMaxStep(t *testing.T) {
	r, err := NewRK45(&harmonicOscillator{}, dynamo.State{1, 0}, 0, 0.05, 1e-3, 1e-6)
	if err != nil {
		t.Fatal(err)
	}

	var target float64
	for i := 1; i <= 40; i++ {
		target = float64(i) * 0.05
		if err := r.AdvanceTo(target); err != nil {
			t.Fatal(err)
		}
		if r.NextStep() > 0.05 {
			t.Fatalf("internal step %g exceeds max step", r.NextStep())
		}
	}

	accepted, _, _ := r.Stats()
	if accepted < 40 {
		t.Errorf("expected at least one accepted step per advance, got %d", accepted)
	}
	if r.Time() != target {
		t.Errorf("time should land exactly on target, got %v", r.Time())
	}
}

func TestDrive_RecordsEveryStep(t *testing.T) {
	g := NewWithT(t)

	st, err := NewAdaptive(&harmonicOscillator{}, dynamo.State{1, 0}, dynamo.Config{Dt: 0.1, Steps: 5})
	g.Expect(err).NotTo(HaveOccurred())

	var seen []int
	tr, err := Drive(context.Background(), st, 0.1, 5, func(step int, x dynamo.State, t float64) {
		seen = append(seen, step)
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tr.Len()).To(Equal(6))
	g.Expect(seen).To(Equal([]int{0, 1, 2, 3, 4, 5}))
	g.Expect(tr.At(0)).To(Equal(dynamo.State{1, 0}))
	for i, tm := range tr.Times {
		g.Expect(tm).To(Equal(float64(i) * 0.1))
	}
}

func TestDrive_Canceled(t *testing.T) {
	st, _ := NewAdaptive(&harmonicOscillator{}, dynamo.State{1, 0}, dynamo.Config{Dt: 0.1, Steps: 5})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := Drive(ctx, st, 0.1, 5, nil)
	if !errors.Is(err, context.Canceled) || tr != nil {
		t.Errorf("expected cancellation without trajectory, got %v, %v", tr, err)
	}
}

func TestIntegrate_ZeroSteps(t *testing.T) {
	tr, err := Integrate(&harmonicOscillator{}, dynamo.State{1, 0}, dynamo.Config{Dt: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 1 {
		t.Errorf("expected only the initial state, got %d", tr.Len())
	}
}

func TestIntegrate_Deterministic(t *testing.T) {
	state, masses, charges := hydrogenOrbit()
	c := physics.DefaultConstants()

	a, err := IntegrateCoulomb(c, state, masses, charges, 1e-19, 300)
	if err != nil {
		t.Fatal(err)
	}
	b, err := IntegrateCoulomb(c, state, masses, charges, 1e-19, 300)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.States {
		for j := range a.States[i] {
			if math.Float64bits(a.States[i][j]) != math.Float64bits(b.States[i][j]) {
				t.Fatalf("step %d component %d differs", i, j)
			}
		}
	}
}

func TestIntegrate_HydrogenFirstStep(t *testing.T) {
	g := NewWithT(t)
	state := []float64{
		0, 0, 0, 0,
		52.9, 0, 0, 0,
	}

	tr, err := IntegrateCoulomb(physics.DefaultConstants(), state, []float64{938, 0.511}, []float64{1, -1}, 1e-19, 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tr.Len()).To(Equal(2))

	x := tr.At(1)
	g.Expect(x[2]).To(BeNumerically(">", 0), "proton pulled toward +x")
	g.Expect(x[6]).To(BeNumerically("<", 0), "electron pulled toward -x")
	g.Expect(x[4]).To(BeNumerically("<", 52.9))
	g.Expect(x[3]).To(BeZero())
	g.Expect(x[7]).To(BeZero())

	// Over one short step the velocity change is a·h to first order.
	want := -physics.CoulombK / (52.9 * 52.9 * 0.511) * 1e-19
	g.Expect(x[6]).To(BeNumerically("~", want, math.Abs(want)*1e-3))
}

func TestIntegrate_MomentumConserved(t *testing.T) {
	state, masses, charges := hydrogenOrbit()
	sys, _ := physics.NewCoulomb(masses, charges, physics.DefaultConstants())

	tr, err := Integrate(sys, state, dynamo.Config{Dt: 1e-19, Steps: 500})
	if err != nil {
		t.Fatal(err)
	}

	px0, py0 := sys.Momentum(tr.At(0))
	p0 := math.Hypot(px0, py0)
	e0 := sys.Energy(tr.At(0))
	for i := range tr.States {
		px, py := sys.Momentum(tr.At(i))
		if d := math.Hypot(px-px0, py-py0) / p0; d > 1e-9 {
			t.Fatalf("momentum drift %e at step %d", d, i)
		}
	}

	if d := math.Abs(sys.Energy(tr.Final())-e0) / math.Abs(e0); d > 1e-6 {
		t.Errorf("energy drift %e", d)
	}
}

func TestIntegrate_InvalidInput(t *testing.T) {
	c := physics.DefaultConstants()
	tests := []struct {
		name    string
		state   []float64
		masses  []float64
		charges []float64
		h       float64
		steps   int
		want    error
	}{
		{"mismatched state", []float64{0, 0, 0}, []float64{1}, []float64{1}, 1e-19, 1, dynamo.ErrDimensionMismatch},
		{"mismatched charges", []float64{0, 0, 0, 0}, []float64{1}, []float64{1, 1}, 1e-19, 1, dynamo.ErrDimensionMismatch},
		{"zero mass", []float64{0, 0, 0, 0}, []float64{0}, []float64{1}, 1e-19, 1, dynamo.ErrParameterBounds},
		{"zero step", []float64{0, 0, 0, 0}, []float64{1}, []float64{1}, 0, 1, dynamo.ErrParameterBounds},
		{"negative steps", []float64{0, 0, 0, 0}, []float64{1}, []float64{1}, 1e-19, -1, dynamo.ErrParameterBounds},
		{"nan state", []float64{math.NaN(), 0, 0, 0}, []float64{1}, []float64{1}, 1e-19, 1, dynamo.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := IntegrateCoulomb(c, tt.state, tt.masses, tt.charges, tt.h, tt.steps)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tr != nil {
				t.Error("no partial trajectory expected")
			}
		})
	}
}

func TestRK45_StepCollapse(t *testing.T) {
	tr, err := Integrate(&blowUp{}, dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 20})
	if !errors.Is(err, dynamo.ErrStepTooSmall) {
		t.Fatalf("expected ErrStepTooSmall, got %v", err)
	}
	if tr != nil {
		t.Error("failed run must not return a trajectory")
	}

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
	if simErr.Step != 10 || !simErr.State.IsValid() {
		t.Errorf("expected failure in step 10 with a finite state, got step %d state %v", simErr.Step, simErr.State)
	}
}

func TestRK45_MinStepFloor(t *testing.T) {
	r, err := NewRK45(&harmonicOscillator{}, dynamo.State{1, 0}, 0, 0.1, 1e-300, 1e-300)
	if err != nil {
		t.Fatal(err)
	}
	r.MinStep = 1e-6

	if err := r.AdvanceBy(0.1); !errors.Is(err, dynamo.ErrStepTooSmall) {
		t.Errorf("expected ErrStepTooSmall, got %v", err)
	}
}

func TestRK45_NonFiniteDerivative(t *testing.T) {
	_, err := NewRK45(&nanSystem{}, dynamo.State{1}, 0, 0.1, 1e-3, 1e-6)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestRK45_PastBound(t *testing.T) {
	st, err := NewAdaptive(&harmonicOscillator{}, dynamo.State{1, 0}, dynamo.Config{Dt: 0.1, Steps: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.AdvanceTo(0.3); err != nil {
		t.Errorf("advancing to the bound should succeed, got %v", err)
	}
	if err := st.AdvanceTo(0.5); !errors.Is(err, dynamo.ErrPastBound) {
		t.Errorf("expected ErrPastBound, got %v", err)
	}
	if err := st.AdvanceTo(0.1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds going backwards, got %v", err)
	}
}

func BenchmarkRK45_Hydrogen(b *testing.B) {
	state, masses, charges := hydrogenOrbit()
	sys, _ := physics.NewCoulomb(masses, charges, physics.DefaultConstants())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Integrate(sys, state, dynamo.Config{Dt: 1e-19, Steps: 100}); err != nil {
			b.Fatal(err)
		}
	}
}

package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

func pair(t *testing.T) *physics.Coulomb {
	t.Helper()
	sys, err := physics.NewCoulomb([]float64{1, 2}, []float64{1, -1}, physics.Constants{K: 1, Eps: 1e-12})
	if err != nil {
		t.Fatal(err)
	}
	return sys
}

func TestEnergy(t *testing.T) {
	sys := pair(t)
	m := NewEnergy(sys)

	x := dynamo.State{0, 0, 1, 0, 2, 0, 0, 0}
	m.Observe(x, 0)

	// ke = 0.5*1*1, pe = -1/2
	if got := m.Value(); math.Abs(got-0) > 1e-9 {
		t.Errorf("expected zero total energy, got %g", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	sys := pair(t)
	m := NewEnergyDrift(sys)

	m.Observe(dynamo.State{0, 0, 0, 0, 2, 0, 0, 0}, 0)
	if m.Value() != 0 {
		t.Errorf("first sample should not drift, got %g", m.Value())
	}

	// pe goes from -0.5 to -1.
	m.Observe(dynamo.State{0, 0, 0, 0, 1, 0, 0, 0}, 1)
	if got := m.Value(); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected drift 1, got %g", got)
	}

	m.Observe(dynamo.State{0, 0, 0, 0, 2, 0, 0, 0}, 2)
	if got := m.Value(); math.Abs(got-1) > 1e-9 {
		t.Errorf("drift should keep its maximum, got %g", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestMomentumDrift(t *testing.T) {
	sys := pair(t)
	m := NewMomentumDrift(sys)

	m.Observe(dynamo.State{0, 0, 2, 0, 1, 0, 0, 0}, 0)
	m.Observe(dynamo.State{0, 0, 2, 0, 1, 0, 0, 1}, 1)

	// p0 = (2, 0); p1 = (2, 2)
	if got := m.Value(); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected relative drift 1, got %g", got)
	}

	m.Reset()
	m.Observe(dynamo.State{0, 0, 0, 0, 1, 0, 0, 0}, 0)
	m.Observe(dynamo.State{0, 0, 0, 3, 1, 0, 0, 0}, 1)
	if got := m.Value(); got != 3 {
		t.Errorf("expected absolute drift 3 from rest, got %g", got)
	}
}

func TestMinSeparationAndSpeed(t *testing.T) {
	sep := NewMinSeparation()
	speed := NewMaxSpeed()

	states := []dynamo.State{
		{0, 0, 3, 4, 10, 0, 0, 0},
		{0, 0, 0, 1, 3, 4, 0, 0},
		{0, 0, 0, 0, 7, 0, 0, 0},
	}
	for i, x := range states {
		sep.Observe(x, float64(i))
		speed.Observe(x, float64(i))
	}

	if sep.Value() != 5 {
		t.Errorf("min separation = %g, want 5", sep.Value())
	}
	if speed.Value() != 5 {
		t.Errorf("max speed = %g, want 5", speed.Value())
	}

	sep.Reset()
	if !math.IsInf(sep.Value(), 1) {
		t.Error("expected +Inf after reset")
	}
}

func TestEvaluate(t *testing.T) {
	sys := pair(t)
	tr := dynamo.NewTrajectory(2, 1)
	tr.Append(dynamo.State{0, 0, 0, 0, 2, 0, 0, 0}, 0)
	tr.Append(dynamo.State{0, 0, 0, 0, 1, 0, 0, 0}, 1)

	ms := Standard(sys)
	got := Evaluate(ms, tr)

	for _, name := range []string{"energy", "energy_drift", "momentum_drift", "min_separation", "max_speed"} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing metric %q", name)
		}
	}
	if got["min_separation"] != 1 {
		t.Errorf("min_separation = %g", got["min_separation"])
	}

	again := Evaluate(ms, tr)
	if again["energy_drift"] != got["energy_drift"] {
		t.Error("Evaluate should reset metrics between runs")
	}
}

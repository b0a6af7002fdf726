package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/coulomb/internal/dynamo"
)

func TestEnsemblePacking(t *testing.T) {
	e := Ensemble{
		{X: 1, Y: 2, VX: 3, VY: 4, Mass: 938, Charge: 1},
		{X: 5, Y: 6, VX: 7, VY: 8, Mass: 0.511, Charge: -1},
	}

	x := e.State()
	want := dynamo.State{1, 2, 3, 4, 5, 6, 7, 8}
	for i := range want {
		if x[i] != want[i] {
			t.Fatalf("state[%d] = %g, want %g", i, x[i], want[i])
		}
	}

	if m := e.Masses(); m[0] != 938 || m[1] != 0.511 {
		t.Errorf("unexpected masses %v", m)
	}
	if q := e.Charges(); q[0] != 1 || q[1] != -1 {
		t.Errorf("unexpected charges %v", q)
	}

	moved, err := e.WithState(dynamo.State{0, 0, 0, 0, 9, 9, 9, 9})
	if err != nil {
		t.Fatal(err)
	}
	if moved[1].X != 9 || moved[1].Mass != 0.511 || e[1].X != 5 {
		t.Errorf("WithState should copy and keep mass/charge: %+v", moved)
	}
	if _, err := e.WithState(dynamo.State{1}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

func TestEnsembleValidate(t *testing.T) {
	tests := []struct {
		name string
		e    Ensemble
		want error
	}{
		{"empty", Ensemble{}, dynamo.ErrParameterBounds},
		{"zero mass", Ensemble{{Mass: 0, Charge: 1}}, dynamo.ErrParameterBounds},
		{"nan position", Ensemble{{X: math.NaN(), Mass: 1}}, dynamo.ErrInvalidState},
		{"ok", Ensemble{{Mass: 1, Charge: 1}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	sys, err := Ensemble{{Mass: 1, Charge: 2}}.System(DefaultConstants())
	if err != nil || sys.NumParticles() != 1 {
		t.Errorf("System() = %v, %v", sys, err)
	}
}

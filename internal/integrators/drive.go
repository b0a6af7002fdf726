package integrators

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

// Stepper owns a state and advances it in time. State returns the live
// buffer; callers that keep it must clone it.
type Stepper interface {
	Time() float64
	State() dynamo.State
	AdvanceTo(target float64) error
}

// Observer is called after every recorded step.
type Observer func(step int, x dynamo.State, t float64)

// Drive advances st to t0 + i*dt for i = 1..steps and records every state,
// starting with the initial one, so the trajectory has steps+1 entries. Any
// failure discards the partial trajectory.
func Drive(ctx context.Context, st Stepper, dt float64, steps int, observe Observer) (*dynamo.Trajectory, error) {
	tr := dynamo.NewTrajectory(steps+1, dt)
	t0 := st.Time()
	tr.Append(st.State(), t0)
	if observe != nil {
		observe(0, st.State(), t0)
	}

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := st.AdvanceTo(t0 + float64(i)*dt); err != nil {
			var simErr *dynamo.SimulationError
			if errors.As(err, &simErr) {
				simErr.Step = i
			}
			return nil, err
		}

		tr.Append(st.State(), st.Time())
		if observe != nil {
			observe(i, st.State(), st.Time())
		}
	}

	return tr, nil
}

func validateConfig(cfg dynamo.Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %v: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if cfg.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d: %w", cfg.Steps, dynamo.ErrParameterBounds)
	}
	if cfg.Rtol < 0 || cfg.Atol < 0 {
		return fmt.Errorf("tolerances must not be negative: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

// NewAdaptive builds the Dormand-Prince stepper for a run described by cfg:
// internal steps never exceed cfg.MaxStep (cfg.Dt when unset) and the
// integration is bounded at Dt*(Steps+1).
func NewAdaptive(dyn dynamo.System, x0 dynamo.State, cfg dynamo.Config) (*RK45, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	maxStep := cfg.MaxStep
	if maxStep <= 0 {
		maxStep = cfg.Dt
	}
	r, err := NewRK45(dyn, x0, 0, maxStep, cfg.Rtol, cfg.Atol)
	if err != nil {
		return nil, err
	}
	r.Bound = cfg.Dt * float64(cfg.Steps+1)
	return r, nil
}

// Integrate runs the adaptive integrator from x0 for cfg.Steps steps of
// cfg.Dt and returns the recorded trajectory.
func Integrate(dyn dynamo.System, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Trajectory, error) {
	st, err := NewAdaptive(dyn, x0, cfg)
	if err != nil {
		return nil, err
	}
	return Drive(context.Background(), st, cfg.Dt, cfg.Steps, nil)
}

// IntegrateCoulomb integrates charged particles with the default tolerances.
func IntegrateCoulomb(c physics.Constants, state0, masses, charges []float64, h float64, steps int) (*dynamo.Trajectory, error) {
	sys, err := physics.NewCoulomb(masses, charges, c)
	if err != nil {
		return nil, err
	}
	if err := sys.CheckState(state0); err != nil {
		return nil, err
	}
	return Integrate(sys, state0, dynamo.Config{Dt: h, Steps: steps})
}

package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/coulomb/internal/dynamo"
)

// Perturb returns a copy of x with component i shifted by delta.
func Perturb(x dynamo.State, i int, delta float64) (dynamo.State, error) {
	if i < 0 || i >= len(x) {
		return nil, fmt.Errorf("component %d outside state of %d: %w", i, len(x), dynamo.ErrDimensionMismatch)
	}
	out := x.Clone()
	out[i] += delta
	return out, nil
}

// Separations is the Euclidean distance between a and b at every recorded
// step. Both trajectories must have the same length and state size.
func Separations(a, b *dynamo.Trajectory) ([]float64, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("trajectories have %d and %d states: %w", a.Len(), b.Len(), dynamo.ErrDimensionMismatch)
	}
	seps := make([]float64, a.Len())
	for k := range seps {
		x, y := a.At(k), b.At(k)
		if len(x) != len(y) {
			return nil, fmt.Errorf("step %d: state sizes %d and %d: %w", k, len(x), len(y), dynamo.ErrDimensionMismatch)
		}
		seps[k] = floats.Distance(x, y, 2)
	}
	return seps, nil
}

// Divergence fits ln(separation) against time and returns the slope in
// 1/s together with the raw separations. Steps where the trajectories
// coincide are left out of the fit.
func Divergence(a, b *dynamo.Trajectory) (rate float64, seps []float64, err error) {
	seps, err = Separations(a, b)
	if err != nil {
		return 0, nil, err
	}

	var ts, logs []float64
	for k, d := range seps {
		if d > 0 && !math.IsInf(d, 0) {
			ts = append(ts, a.Times[k])
			logs = append(logs, math.Log(d))
		}
	}
	if len(ts) < 2 {
		return 0, seps, fmt.Errorf("need 2 separated samples, got %d: %w", len(ts), dynamo.ErrParameterBounds)
	}

	_, rate = stat.LinearRegression(ts, logs, nil, false)
	return rate, seps, nil
}

// Package metrics accumulates scalar observables over a trajectory.
package metrics

import (
	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

// Standard returns the metrics recorded for every run of sys.
func Standard(sys *physics.Coulomb) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(sys),
		NewEnergyDrift(sys),
		NewMomentumDrift(sys),
		NewMinSeparation(),
		NewMaxSpeed(),
	}
}

// Evaluate resets ms, feeds them every state of tr and returns the values
// keyed by metric name.
func Evaluate(ms []dynamo.Metric, tr *dynamo.Trajectory) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i, x := range tr.States {
		for _, m := range ms {
			m.Observe(x, tr.Times[i])
		}
	}
	return Values(ms)
}

func Values(ms []dynamo.Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

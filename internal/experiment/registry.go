package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/coulomb/internal/config"
	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/integrators"
	"github.com/san-kum/coulomb/internal/metrics"
	"github.com/san-kum/coulomb/internal/physics"
)

// StepperFactory builds a stepper positioned at (0, x0) for a run of cfg.
type StepperFactory func(sys dynamo.System, x0 dynamo.State, cfg dynamo.Config) (integrators.Stepper, error)

type Registry struct {
	integrators map[string]StepperFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]StepperFactory),
	}

	r.integrators[config.IntegratorDopri] = func(sys dynamo.System, x0 dynamo.State, cfg dynamo.Config) (integrators.Stepper, error) {
		return integrators.NewAdaptive(sys, x0, cfg)
	}
	r.integrators[config.IntegratorRK4] = func(sys dynamo.System, x0 dynamo.State, cfg dynamo.Config) (integrators.Stepper, error) {
		f, err := integrators.NewFixed(integrators.NewRK4(), sys, x0, 0, cfg.Dt)
		if err != nil {
			return nil, err
		}
		f.Bound = cfg.Dt * float64(cfg.Steps+1)
		return f, nil
	}

	return r
}

func (r *Registry) Register(name string, fn StepperFactory) {
	r.integrators[name] = fn
}

func (r *Registry) GetIntegrator(name string) (StepperFactory, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q: %w", name, dynamo.ErrParameterBounds)
	}
	return fn, nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(sys *physics.Coulomb) []dynamo.Metric {
	return metrics.Standard(sys)
}

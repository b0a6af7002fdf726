// Package experiment turns a scenario config into a finished run: it builds
// the particle system and stepper, drives the integration and collects
// metrics.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/coulomb/internal/config"
	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/integrators"
	"github.com/san-kum/coulomb/internal/metrics"
)

type Runner struct {
	registry  *Registry
	log       logrus.FieldLogger
	observers []integrators.Observer
}

func NewRunner(log logrus.FieldLogger) *Runner {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Runner{
		registry: NewRegistry(),
		log:      log,
	}
}

func (r *Runner) Registry() *Registry { return r.registry }

// AddObserver registers fn to be called after every recorded step.
func (r *Runner) AddObserver(fn integrators.Observer) {
	r.observers = append(r.observers, fn)
}

// Run integrates the scenario in cfg. The context is checked between
// recorded steps; a canceled run returns no result.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := r.log.WithFields(logrus.Fields{
		"scenario":  cfg.Name,
		"particles": len(cfg.Particles),
		"steps":     cfg.Steps,
	})

	ensemble := cfg.Ensemble()
	sys, err := ensemble.System(cfg.Constants)
	if err != nil {
		return nil, err
	}
	sys.Workers = cfg.Workers

	build, err := r.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	st, err := build(sys, ensemble.State(), cfg.Dynamo())
	if err != nil {
		return nil, err
	}

	log.WithField("integrator", cfg.Integrator).Debug("starting run")
	start := time.Now()

	tr, err := integrators.Drive(ctx, st, cfg.Dt, cfg.Steps, r.observe)
	if err != nil {
		log.WithError(err).Warn("run failed")
		return nil, fmt.Errorf("run %s: %w", cfg.Name, err)
	}

	res := &dynamo.Result{
		Trajectory: tr,
		Metrics:    metrics.Evaluate(r.registry.DefaultMetrics(sys), tr),
		StepsTaken: tr.Len() - 1,
	}
	if s, ok := st.(interface{ Stats() (int, int, int) }); ok {
		res.SubSteps, res.Rejected, _ = s.Stats()
	}

	log.WithFields(logrus.Fields{
		"elapsed":      time.Since(start).Round(time.Millisecond),
		"substeps":     res.SubSteps,
		"rejected":     res.Rejected,
		"energy_drift": res.Metrics["energy_drift"],
	}).Info("run complete")

	return res, nil
}

func (r *Runner) observe(step int, x dynamo.State, t float64) {
	for _, fn := range r.observers {
		fn(step, x, t)
	}
}

package metrics

import (
	"math"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/physics"
)

// MinSeparation records the closest approach of any two particles.
type MinSeparation struct {
	name string
	best float64
}

func NewMinSeparation() *MinSeparation {
	return &MinSeparation{
		name: "min_separation",
		best: math.Inf(1),
	}
}

func (s *MinSeparation) Name() string { return s.name }

func (s *MinSeparation) Observe(x dynamo.State, t float64) {
	s.best = math.Min(s.best, physics.MinSeparation(x))
}

func (s *MinSeparation) Value() float64 { return s.best }

func (s *MinSeparation) Reset() { s.best = math.Inf(1) }

// MaxSpeed records the largest particle speed seen.
type MaxSpeed struct {
	name string
	peak float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (s *MaxSpeed) Name() string { return s.name }

func (s *MaxSpeed) Observe(x dynamo.State, t float64) {
	for i := 0; i+3 < len(x); i += 4 {
		s.peak = math.Max(s.peak, math.Hypot(x[i+2], x[i+3]))
	}
}

func (s *MaxSpeed) Value() float64 { return s.peak }

func (s *MaxSpeed) Reset() { s.peak = 0 }

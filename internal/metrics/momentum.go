package metrics

import (
	"math"

	"github.com/san-kum/coulomb/internal/dynamo"
)

// Momentum is implemented by systems with a conserved linear momentum.
type Momentum interface {
	Momentum(x dynamo.State) (px, py float64)
}

// MomentumDrift tracks the largest change of total momentum relative to the
// first observed state. When the initial momentum is zero the drift is
// absolute.
type MomentumDrift struct {
	name     string
	sys      Momentum
	px0, py0 float64
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift(sys Momentum) *MomentumDrift {
	return &MomentumDrift{
		name: "momentum_drift",
		sys:  sys,
	}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(x dynamo.State, t float64) {
	px, py := m.sys.Momentum(x)
	if m.samples == 0 {
		m.px0, m.py0 = px, py
		m.scale = math.Hypot(px, py)
		if m.scale == 0 {
			m.scale = 1
		}
	}
	m.samples++

	m.maxDrift = math.Max(m.maxDrift, math.Hypot(px-m.px0, py-m.py0)/m.scale)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.px0, m.py0 = 0, 0
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}

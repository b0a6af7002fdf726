package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// InPlaceSystem is implemented by systems that can write their derivative into
// a caller-owned buffer. Adaptive integrators prefer it to avoid allocating on
// every stage.
type InPlaceSystem interface {
	System
	DeriveInto(dst, x State, t float64)
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Trajectory is the ordered sequence of recorded states of one run. States[0]
// is the initial state and Times[i] is the simulation time of States[i].
type Trajectory struct {
	States []State
	Times  []float64
	Step   float64
}

func NewTrajectory(capacity int, step float64) *Trajectory {
	return &Trajectory{
		States: make([]State, 0, capacity),
		Times:  make([]float64, 0, capacity),
		Step:   step,
	}
}

func (tr *Trajectory) Append(x State, t float64) {
	tr.States = append(tr.States, x.Clone())
	tr.Times = append(tr.Times, t)
}

func (tr *Trajectory) Len() int { return len(tr.States) }

func (tr *Trajectory) At(i int) State { return tr.States[i] }

func (tr *Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Positions returns the (x, y) pairs of every particle at recorded step i.
func (tr *Trajectory) Positions(i int) [][2]float64 {
	x := tr.States[i]
	n := len(x) / 4
	pos := make([][2]float64, n)
	for p := 0; p < n; p++ {
		pos[p] = [2]float64{x[p*4], x[p*4+1]}
	}
	return pos
}

// Series extracts one state component across the whole trajectory.
func (tr *Trajectory) Series(component int) []float64 {
	out := make([]float64, len(tr.States))
	for i, x := range tr.States {
		if component < len(x) {
			out[i] = x[component]
		}
	}
	return out
}

// Config drives one integration run. MaxStep <= 0 means MaxStep = Dt.
type Config struct {
	Dt      float64
	Steps   int
	Rtol    float64
	Atol    float64
	MaxStep float64
}

func DefaultConfig() Config {
	return Config{
		Dt:    1e-19,
		Steps: 5000,
		Rtol:  1e-3,
		Atol:  1e-6,
	}
}

type Result struct {
	Trajectory *Trajectory
	Metrics    map[string]float64
	StepsTaken int
	SubSteps   int
	Rejected   int
}

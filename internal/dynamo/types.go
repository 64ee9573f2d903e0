package dynamo

import (
	"math"
)

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

type Control []float64

// System is a plant: dX/dt = f(X, u, t) with a scalar measured output.
type System interface {
	Derive(x State, u Control, t float64) State
	Output(x State) float64
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Sample is one closed-loop sample as seen by metrics and observers.
type Sample struct {
	Step        int
	Time        float64
	Setpoint    float64
	Measurement float64
	Output      float64 // controller output after its own limits
	Raw         float64 // before saturation
	Applied     float64 // after actuator limits, what the plant received
}

func (s Sample) Error() float64 {
	return s.Setpoint - s.Measurement
}

func (s Sample) Saturated() bool {
	return s.Output != s.Raw
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(s Sample)
}

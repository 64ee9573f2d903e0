package plant

import (
	"fmt"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

const (
	DefaultGain = 100.0
	DefaultTau  = 0.3
)

// FirstOrder is a first-order lag: dy/dt = (-1/tau)*y + (k/tau)*u.
type FirstOrder struct {
	Gain float64
	Tau  float64
}

func NewFirstOrder(gain, tau float64) *FirstOrder {
	return &FirstOrder{Gain: gain, Tau: tau}
}

func (p *FirstOrder) StateDim() int   { return 1 }
func (p *FirstOrder) ControlDim() int { return 1 }

func (p *FirstOrder) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	in := 0.0
	if len(u) > 0 {
		in = u[0]
	}
	return dynamo.State{-(1/p.Tau)*x[0] + (p.Gain/p.Tau)*in}
}

func (p *FirstOrder) Output(x dynamo.State) float64 {
	return x[0]
}

func (p *FirstOrder) GetParams() map[string]float64 {
	return map[string]float64{
		"gain": p.Gain,
		"tau":  p.Tau,
	}
}

func (p *FirstOrder) SetParam(name string, value float64) error {
	switch name {
	case "gain":
		p.Gain = value
	case "tau":
		if value <= 0 {
			return fmt.Errorf("%w: tau=%g", dynamo.ErrParameterBounds, value)
		}
		p.Tau = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
	}
	return nil
}

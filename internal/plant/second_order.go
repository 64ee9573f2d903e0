package plant

import (
	"fmt"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

const (
	DefaultOmega = 2.0
	DefaultZeta  = 0.5
)

// SecondOrder has state [y, v] with v' = k*w^2*u - 2*zeta*w*v - w^2*y.
type SecondOrder struct {
	Gain  float64
	Omega float64
	Zeta  float64
}

func NewSecondOrder(gain, omega, zeta float64) *SecondOrder {
	return &SecondOrder{Gain: gain, Omega: omega, Zeta: zeta}
}

func (p *SecondOrder) StateDim() int   { return 2 }
func (p *SecondOrder) ControlDim() int { return 1 }

func (p *SecondOrder) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	in := 0.0
	if len(u) > 0 {
		in = u[0]
	}
	w2 := p.Omega * p.Omega
	return dynamo.State{
		x[1],
		p.Gain*w2*in - 2*p.Zeta*p.Omega*x[1] - w2*x[0],
	}
}

func (p *SecondOrder) Output(x dynamo.State) float64 {
	return x[0]
}

func (p *SecondOrder) GetParams() map[string]float64 {
	return map[string]float64{
		"gain":  p.Gain,
		"omega": p.Omega,
		"zeta":  p.Zeta,
	}
}

func (p *SecondOrder) SetParam(name string, value float64) error {
	switch name {
	case "gain":
		p.Gain = value
	case "omega":
		if value <= 0 {
			return fmt.Errorf("%w: omega=%g", dynamo.ErrParameterBounds, value)
		}
		p.Omega = value
	case "zeta":
		if value < 0 {
			return fmt.Errorf("%w: zeta=%g", dynamo.ErrParameterBounds, value)
		}
		p.Zeta = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
	}
	return nil
}

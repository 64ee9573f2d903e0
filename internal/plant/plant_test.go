package plant

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

func TestFirstOrderDerivative(t *testing.T) {
	p := NewFirstOrder(DefaultGain, DefaultTau)

	dx := p.Derive(dynamo.State{0}, dynamo.Control{1}, 0)
	expected := DefaultGain / DefaultTau
	if math.Abs(dx[0]-expected) > 1e-9 {
		t.Errorf("expected %f, got %f", expected, dx[0])
	}

	dx = p.Derive(dynamo.State{3}, dynamo.Control{0}, 0)
	if math.Abs(dx[0]+10) > 1e-9 {
		t.Errorf("expected decay -10, got %f", dx[0])
	}
}

func TestFirstOrderEquilibrium(t *testing.T) {
	p := NewFirstOrder(2, 0.5)
	// y = k*u is a fixed point
	dx := p.Derive(dynamo.State{1}, dynamo.Control{0.5}, 0)
	if math.Abs(dx[0]) > 1e-12 {
		t.Errorf("expected zero derivative at equilibrium, got %f", dx[0])
	}
}

func TestFirstOrderParams(t *testing.T) {
	p := NewFirstOrder(1, 1)
	if err := p.SetParam("tau", 0.2); err != nil {
		t.Fatalf("set tau: %v", err)
	}
	if p.GetParams()["tau"] != 0.2 {
		t.Errorf("tau not updated")
	}
	if err := p.SetParam("tau", 0); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if err := p.SetParam("mass", 1); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestSecondOrderDimensions(t *testing.T) {
	p := NewSecondOrder(1, DefaultOmega, DefaultZeta)
	if p.StateDim() != 2 {
		t.Errorf("expected state dim 2, got %d", p.StateDim())
	}
	if p.ControlDim() != 1 {
		t.Errorf("expected control dim 1, got %d", p.ControlDim())
	}
}

func TestSecondOrderDerivative(t *testing.T) {
	p := NewSecondOrder(1, 2, 0.5)
	dx := p.Derive(dynamo.State{1, 0}, dynamo.Control{0}, 0)
	if dx[0] != 0 {
		t.Errorf("expected zero velocity, got %f", dx[0])
	}
	if math.Abs(dx[1]+4) > 1e-9 {
		t.Errorf("expected acceleration -4, got %f", dx[1])
	}
	if p.Output(dynamo.State{0.7, 3}) != 0.7 {
		t.Error("output should be the position")
	}
}

func TestActuatorLimits(t *testing.T) {
	var none ActuatorLimits
	if none.Apply(42) != 42 {
		t.Error("zero limits should not clip")
	}

	a := ActuatorLimits{Min: 0, Max: 0.5}
	tests := []struct{ in, want float64 }{
		{-1, 0},
		{0.25, 0.25},
		{1, 0.5},
	}
	for _, tt := range tests {
		if got := a.Apply(tt.in); got != tt.want {
			t.Errorf("Apply(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

type oscillator struct{}

func (s *oscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *oscillator) Output(x dynamo.State) float64 { return x[0] }
func (s *oscillator) StateDim() int                 { return 2 }
func (s *oscillator) ControlDim() int               { return 0 }

type lag struct{ tau, gain float64 }

func (l *lag) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-(1/l.tau)*x[0] + (l.gain/l.tau)*u[0]}
}

func (l *lag) Output(x dynamo.State) float64 { return x[0] }
func (l *lag) StateDim() int                 { return 1 }
func (l *lag) ControlDim() int               { return 1 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &oscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestHeunOrder(t *testing.T) {
	dyn := &oscillator{}
	exact := math.Cos(1.0)

	errAt := func(dt float64) float64 {
		integ := NewHeun()
		x := dynamo.State{1.0, 0.0}
		n := int(math.Round(1.0 / dt))
		for i := 0; i < n; i++ {
			x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
		}
		return math.Abs(x[0] - exact)
	}

	ratio := errAt(0.02) / errAt(0.01)
	if ratio < 3.5 || ratio > 4.5 {
		t.Errorf("halving dt should quarter the error, got ratio %.2f", ratio)
	}
}

func TestRK4Stages(t *testing.T) {
	if got := NewRK4().Stages(); got != 4 {
		t.Errorf("expected 4 stages, got %d", got)
	}
	if got := NewHeun().Stages(); got != 2 {
		t.Errorf("expected 2 stages, got %d", got)
	}
}

func TestRK4ReusesAcrossDimensions(t *testing.T) {
	integ := NewRK4()
	_ = integ.Step(&oscillator{}, dynamo.State{1, 0}, nil, 0, 0.01)
	x := integ.Step(&lag{tau: 0.3, gain: 100}, dynamo.State{0}, dynamo.Control{1}, 0, 0.001)
	if len(x) != 1 || x[0] <= 0 {
		t.Errorf("unexpected lag step: %v", x)
	}
}

func TestEulerMatchesHandRolledUpdate(t *testing.T) {
	dyn := &lag{tau: 0.3, gain: 100}
	integ := NewEuler()
	ts := 0.015

	x := dynamo.State{0}
	meas := 0.0
	for i := 0; i < 10; i++ {
		x = integ.Step(dyn, x, dynamo.Control{1}, 0, ts)
		meas = meas + ts*((-(1.0/0.3))*meas+(100/0.3)*1)
		if math.Abs(x[0]-meas) > 1e-9 {
			t.Fatalf("step %d: got %f, expected %f", i, x[0], meas)
		}
	}
}

func TestEulerDoesNotMutateInput(t *testing.T) {
	x := dynamo.State{1, 0}
	_ = NewEuler().Step(&oscillator{}, x, nil, 0, 0.1)
	if x[0] != 1 || x[1] != 0 {
		t.Errorf("input state mutated: %v", x)
	}
}

package integrators

import "github.com/san-kum/pidctrl/internal/dynamo"

// Tableau is the Butcher tableau of an explicit Runge-Kutta method. A is
// strictly lower triangular.
type Tableau struct {
	A [][]float64
	B []float64
	C []float64
}

var (
	// EulerTableau gives x + dt*f(x, u, t).
	EulerTableau = Tableau{
		A: [][]float64{{}},
		B: []float64{1},
		C: []float64{0},
	}
	HeunTableau = Tableau{
		A: [][]float64{{}, {1}},
		B: []float64{0.5, 0.5},
		C: []float64{0, 1},
	}
	RK4Tableau = Tableau{
		A: [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		C: []float64{0, 0.5, 0.5, 1},
	}
)

// RungeKutta steps with a fixed tableau. Stage buffers are reused between
// calls, so one value must not be shared across goroutines.
type RungeKutta struct {
	tab     Tableau
	k       []dynamo.State
	scratch dynamo.State
}

func NewRungeKutta(tab Tableau) *RungeKutta {
	return &RungeKutta{tab: tab}
}

func NewEuler() *RungeKutta { return NewRungeKutta(EulerTableau) }
func NewHeun() *RungeKutta  { return NewRungeKutta(HeunTableau) }
func NewRK4() *RungeKutta   { return NewRungeKutta(RK4Tableau) }

func (r *RungeKutta) Stages() int {
	return len(r.tab.B)
}

func (r *RungeKutta) ensureScratch(n int) {
	if len(r.scratch) == n && len(r.k) == r.Stages() {
		return
	}
	r.k = make([]dynamo.State, r.Stages())
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

func (r *RungeKutta) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	for s := range r.k {
		copy(r.scratch, x)
		for j, a := range r.tab.A[s] {
			if a == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				r.scratch[i] += dt * a * r.k[j][i]
			}
		}
		copy(r.k[s], dyn.Derive(r.scratch, u, t+r.tab.C[s]*dt))
	}

	result := x.Clone()
	for s, b := range r.tab.B {
		for i := 0; i < n; i++ {
			result[i] += dt * b * r.k[s][i]
		}
	}
	return result
}

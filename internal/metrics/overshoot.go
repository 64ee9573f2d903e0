package metrics

import (
	"math"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

// Overshoot is the largest excursion past the setpoint, in the direction
// of the initial error, relative to the setpoint magnitude. It is zero
// when the setpoint is zero or never crossed.
type Overshoot struct {
	dir      float64
	setpoint float64
	peak     float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{}
}

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(s dynamo.Sample) {
	if m.dir == 0 {
		e := s.Error()
		if e == 0 {
			return
		}
		m.dir = math.Copysign(1, e)
		m.setpoint = s.Setpoint
	}
	past := (s.Measurement - m.setpoint) * m.dir
	if past > m.peak {
		m.peak = past
	}
}

func (m *Overshoot) Value() float64 {
	if m.setpoint == 0 {
		return 0
	}
	return m.peak / math.Abs(m.setpoint)
}

func (m *Overshoot) Reset() {
	m.dir = 0
	m.setpoint = 0
	m.peak = 0
}

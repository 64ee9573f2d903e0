package pid

import (
	"fmt"
	"strings"
)

// Strategy selects how a step keeps the integral accumulator from winding
// up while the output is saturated.
type Strategy int

const (
	None Strategy = iota
	Clamp
	BackCalculation
	ConditionalIntegration
	Tracking
)

var strategyNames = map[Strategy]string{
	None:                   "none",
	Clamp:                  "clamp",
	BackCalculation:        "backcalc",
	ConditionalIntegration: "condint",
	Tracking:               "tracking",
}

// Strategies lists every known strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{None, Clamp, BackCalculation, ConditionalIntegration, Tracking}
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a name such as "backcalc" to its Strategy. The empty
// string selects None.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Step runs one sample with the given strategy. Tracking follows the
// controller's own previous saturated output; use StepTracking to track a
// measured actuator instead.
func (c *Controller) Step(s Strategy, setpoint, measurement float64) (float64, error) {
	switch s {
	case None:
		return c.StepNoAW(setpoint, measurement), nil
	case Clamp:
		return c.StepClamp(setpoint, measurement), nil
	case BackCalculation:
		return c.StepBackCalc(setpoint, measurement), nil
	case ConditionalIntegration:
		return c.StepCondInt(setpoint, measurement), nil
	case Tracking:
		return c.StepTracking(setpoint, measurement, c.tel.OutputSat), nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
}

// StepClamp keeps the integral accumulator itself inside the output
// limits.
func (c *Controller) StepClamp(setpoint, measurement float64) float64 {
	e := setpoint - measurement
	p := e * c.gains.Kp
	c.integral = Limit(c.integral+c.gains.Ki*e*c.ts, c.limits.Lower, c.limits.Upper)
	d := c.derivative(e)

	return c.record(e, Terms{P: p, I: c.integral, D: d})
}

// StepBackCalc feeds the saturation excess back into the integral with
// gain Ksat: I += Ksat * (sat - raw) * Ts.
func (c *Controller) StepBackCalc(setpoint, measurement float64) float64 {
	e := setpoint - measurement
	p := e * c.gains.Kp
	c.integral += c.gains.Ki * e * c.ts
	d := c.derivative(e)

	terms := Terms{P: p, I: c.integral, D: d}
	raw := terms.P + terms.I + terms.D
	sat := Limit(raw, c.limits.Lower, c.limits.Upper)
	c.integral += c.gains.Ksat * (sat - raw) * c.ts

	return c.record(e, terms)
}

// StepCondInt drops this sample's integral increment when the output is
// beyond a limit and the increment would push it further out.
func (c *Controller) StepCondInt(setpoint, measurement float64) float64 {
	e := setpoint - measurement
	p := e * c.gains.Kp
	inc := c.gains.Ki * e * c.ts
	d := c.derivative(e)

	raw := p + c.integral + inc + d
	if !((raw > c.limits.Upper && inc > 0) || (raw < c.limits.Lower && inc < 0)) {
		c.integral += inc
	}

	return c.record(e, Terms{P: p, I: c.integral, D: d})
}

// StepTracking corrects the integral towards the actuator value that was
// actually applied to the process: I += Ksat * (actuator - raw) * Ts.
func (c *Controller) StepTracking(setpoint, measurement, actuator float64) float64 {
	e := setpoint - measurement
	p := e * c.gains.Kp
	c.integral += c.gains.Ki * e * c.ts
	d := c.derivative(e)

	terms := Terms{P: p, I: c.integral, D: d}
	raw := terms.P + terms.I + terms.D
	c.integral += c.gains.Ksat * (actuator - raw) * c.ts

	return c.record(e, terms)
}

package pid

import "errors"

// Gains are the controller coefficients. Ksat is the anti-windup
// correction gain used by the back-calculation and tracking variants.
type Gains struct {
	Kp   float64 `json:"kp" yaml:"kp"`
	Ki   float64 `json:"ki" yaml:"ki"`
	Kd   float64 `json:"kd" yaml:"kd"`
	Ksat float64 `json:"ksat" yaml:"ksat"`
}

// Limits is the closed interval the output is saturated into.
type Limits struct {
	Upper float64 `json:"upper" yaml:"upper"`
	Lower float64 `json:"lower" yaml:"lower"`
}

// Terms holds the contribution of each PID term to one output.
type Terms struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
}

// Telemetry is a read-only snapshot of the last step. None of it feeds
// back into the next step.
type Telemetry struct {
	Output     float64 `json:"output"`
	OutputSat  float64 `json:"output_sat"`
	Terms      Terms   `json:"terms"`
	PrevOutput float64 `json:"prev_output"`
	PrevTerms  Terms   `json:"prev_terms"`
	Error      float64 `json:"error"`
	PrevError  float64 `json:"prev_error"`
	ErrorSum   float64 `json:"error_sum"`
	Steps      int     `json:"steps"`
}

// Saturated reports whether the last output was clipped.
func (t Telemetry) Saturated() bool {
	return t.Output != t.OutputSat
}

// Controller is a single scalar PID controller.
type Controller struct {
	gains  Gains
	limits Limits
	ts     float64

	// controlling state
	integral  float64
	prevError float64

	tel Telemetry
}

// New returns a controller with the given gains. Limits and sample time
// stay zero until SetConfig is called; stepping before that is degenerate.
func New(kp, ki, kd, ksat float64) *Controller {
	return &Controller{
		gains: Gains{Kp: kp, Ki: ki, Kd: kd, Ksat: ksat},
	}
}

// SetConstants overwrites the gains. They take effect on the next step.
func (c *Controller) SetConstants(kp, ki, kd, ksat float64) {
	c.gains = Gains{Kp: kp, Ki: ki, Kd: kd, Ksat: ksat}
}

// SetConfig sets the output limits and the sample period. Nothing is
// validated here; see Validate.
func (c *Controller) SetConfig(upper, lower, ts float64) {
	c.setLimits(upper, lower)
	c.setSampleTime(ts)
}

func (c *Controller) setLimits(upper, lower float64) {
	c.limits = Limits{Upper: upper, Lower: lower}
}

func (c *Controller) setSampleTime(ts float64) {
	c.ts = ts
}

// Validate checks the configuration the steps rely on. The controller
// itself never calls it.
func (c *Controller) Validate() error {
	var errs []error
	if c.ts <= 0 {
		errs = append(errs, ErrSampleTime)
	}
	if c.limits.Upper < c.limits.Lower {
		errs = append(errs, ErrInvertedLimits)
	}
	if len(errs) == 0 {
		return nil
	}
	return &ConfigError{
		Upper:      c.limits.Upper,
		Lower:      c.limits.Lower,
		SampleTime: c.ts,
		Wrapped:    errors.Join(errs...),
	}
}

// Reset clears the integral accumulator, the previous error and the
// telemetry. Gains, limits and sample time are kept.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
	c.tel = Telemetry{}
}

// Gains returns the current coefficients.
func (c *Controller) Gains() Gains {
	return c.gains
}

// Limits returns the current output limits.
func (c *Controller) Limits() Limits {
	return c.limits
}

// SampleTime returns the configured sample period in seconds.
func (c *Controller) SampleTime() float64 {
	return c.ts
}

// Integral returns the integral accumulator, which is also the integral
// term of the next output before that step's increment.
func (c *Controller) Integral() float64 {
	return c.integral
}

// Telemetry returns a snapshot of the last step.
func (c *Controller) Telemetry() Telemetry {
	return c.tel
}

// StepNoAW runs one sample without anti-windup and returns the saturated
// output. The integral accumulator is unbounded. A zero sample time makes
// the derivative term divide by zero; the resulting Inf or NaN is passed
// through unchanged.
func (c *Controller) StepNoAW(setpoint, measurement float64) float64 {
	e := setpoint - measurement
	p := e * c.gains.Kp
	c.integral += c.gains.Ki * e * c.ts
	d := c.derivative(e)

	return c.record(e, Terms{P: p, I: c.integral, D: d})
}

func (c *Controller) derivative(e float64) float64 {
	return ((e - c.prevError) / c.ts) * c.gains.Kd
}

// record saturates the sum of the terms, rolls the telemetry and the
// previous error forward and returns the saturated output.
func (c *Controller) record(e float64, terms Terms) float64 {
	out := terms.P + terms.I + terms.D
	sat := Limit(out, c.limits.Lower, c.limits.Upper)

	c.tel.PrevOutput = c.tel.Output
	c.tel.PrevTerms = c.tel.Terms
	c.tel.Output = out
	c.tel.OutputSat = sat
	c.tel.Terms = terms
	c.tel.PrevError = c.prevError
	c.tel.Error = e
	c.tel.ErrorSum += e
	c.tel.Steps++

	c.prevError = e
	return sat
}

// Package pid implements a discrete-time PID controller for fixed-rate
// control loops.
//
// A [Controller] is created with its gains, configured with output limits
// and a sample period, then stepped once per sample:
//
//	c := pid.New(0.3, 0.6, 0.0, 0.0) // Kp, Ki, Kd, Ksat
//	c.SetConfig(1.0, -1.0, 0.015)    // upper limit, lower limit, Ts
//	u := c.StepNoAW(setpoint, measurement)
//
// The integral term uses forward Euler integration and the derivative term
// a backward difference, both over the configured sample period. The output
// is clamped into [lower, upper] with [Limit].
//
// Besides the plain step, the controller offers four anti-windup variants
// selected by [Strategy]: integrator clamping, back-calculation,
// conditional integration and actuator tracking.
//
// # Thread Safety
//
// A Controller is a plain mutable value. Every step depends on the state
// left by the previous one, so callers sharing an instance between
// goroutines must serialize access themselves.
package pid

// Package dynamo provides the primitives shared by the closed-loop
// simulation packages.
//
//   - [State], [Control]: plant state and actuator vectors
//   - [System]: plant model (dX/dt = f(X, u, t)) with a measured output
//   - [Integrator]: numerical stepper for a [System]
//   - [Sample]: one controller sample (setpoint, measurement, output)
//   - [Metric], [Observer]: consumers of samples
//
// The controller itself lives in pkg/pid; this package only describes what
// it is connected to.
package dynamo

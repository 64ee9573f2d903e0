// Package plant provides the process models a controller is tested
// against.
//
//   - [FirstOrder]: first-order lag, tau*y' = -y + k*u
//   - [SecondOrder]: damped second-order system
//
// Both satisfy [dynamo.System] and [dynamo.Configurable] so gains and
// time constants can be tuned while a loop is running.
package plant

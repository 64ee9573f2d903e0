// Package loop drives a PID controller against a plant model.
//
// Each sample the [Runner] reads the plant's measured output, steps the
// controller with the configured anti-windup strategy, applies the
// actuator value to the plant and integrates it over one sample period.
// Samples are fed to metrics and observers and collected into a [Result].
//
// With Config.Pace set, samples are spaced in wall-clock time the way an
// embedded loop polls its sensor; otherwise the run is as fast as possible.
package loop

// Package analysis characterizes closed-loop responses recorded by the
// control loop.
//
//   - [Step]: rise time, peak, overshoot, settling time and steady-state
//     error of a setpoint step
//   - [DominantFrequency]: ringing frequency of a signal via [FFT]
//
// # Step Response
//
//	resp, err := analysis.Step(result.Samples(), analysis.DefaultSettlingBand)
//	if err == nil && resp.Settled {
//	    fmt.Println(resp.SettlingTime)
//	}
package analysis

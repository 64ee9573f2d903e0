// Package viz renders control loops in the terminal.
//
// [Model] is a Bubble Tea program that steps a [loop.Runner] once per
// tick and charts the measurement against the setpoint and the
// controller output against its limits.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	R       - Reset loop and gains
//	Tab     - Cycle selected gain
//	Up/K    - Increase selected gain (+5%)
//	Down/J  - Decrease selected gain (-5%)
//	+/-     - Raise/lower the setpoint
//	T       - Cycle color themes
//	?       - Show help overlay
//	Q       - Quit
package viz

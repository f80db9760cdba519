// Package viz provides the terminal monitor for a running universe.
//
// The monitor is a Bubble Tea program that advances a [sim.Universe] on
// every tick and shows throughput and conserved-quantity diagnostics. It
// does not draw particles.
//
// # Key Bindings
//
//	Space - Pause/Resume stepping
//	M     - Switch between sequential and parallel stepping
//	R     - Reset to the initial state
//	+/-   - More/fewer steps per frame
//	Q     - Quit
package viz

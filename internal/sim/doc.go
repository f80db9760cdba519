// Package sim holds the double-buffered N-body simulation state.
//
// A [Universe] owns two particle buffers of equal, fixed length. At even
// step counts the first buffer is current and the second is written; at
// odd step counts the roles swap. Every step reads only the current buffer
// and writes only the other one, so the parallel step needs no locks:
//
//	u := sim.NewSeeded(1024, 42)
//	view := u.StepParallel()
//
// [Universe.StepSequential] and [Universe.StepParallel] compute the same
// update with semi-implicit Euler; results may differ in the last bits
// because the parallel path runs on a [compute.Backend].
//
// A Universe is not safe for concurrent use.
package sim

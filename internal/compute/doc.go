// Package compute provides the execution backends the simulation runs on.
//
// A [Backend] partitions an index range into contiguous chunks and runs a
// function over each chunk:
//
//   - [Serial]: one chunk covering the whole range, on the calling goroutine
//   - [CPU]: one chunk per worker, fork-join over a bounded goroutine group
//
// Both backends are synchronous: For returns only after every chunk has
// been processed. Callers are expected to give each chunk exclusive write
// access to its own slice of the output, so no locking is needed.
package compute

package compute

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const DefaultMinChunk = 64

type CPU struct {
	workers  int
	minChunk int
}

type CPUOption func(*CPU)

// WithMinChunk sets the smallest range a worker is handed. Ranges shorter
// than this run on the calling goroutine.
func WithMinChunk(n int) CPUOption {
	return func(c *CPU) {
		if n > 0 {
			c.minChunk = n
		}
	}
}

// NewCPU returns a fork-join backend with the given number of workers.
// workers <= 0 sizes the pool to GOMAXPROCS.
func NewCPU(workers int, opts ...CPUOption) *CPU {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c := &CPU{
		workers:  workers,
		minChunk: DefaultMinChunk,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CPU) Name() string { return fmt.Sprintf("cpu(%d)", c.workers) }
func (c *CPU) Workers() int { return c.workers }

func (c *CPU) Partition(n int) (int, int) {
	if n <= 0 {
		return 0, 0
	}
	workers := c.workers
	if n/c.minChunk < workers {
		workers = n / c.minChunk
	}
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	return (n + size - 1) / size, size
}

func (c *CPU) For(n int, fn func(start, end int)) {
	chunks, size := c.Partition(n)
	if chunks == 0 {
		return
	}
	if chunks == 1 {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}

// Package bench times the sequential and parallel step paths of a
// universe over a sweep of sizes.
package bench

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	ModeSequential = "seq"
	ModeParallel   = "par"
)

type Timing struct {
	Particles   int
	Mode        string
	Steps       int
	Elapsed     time.Duration
	StepsPerSec float64
	// PairsPerSec counts force evaluations, n² per step.
	PairsPerSec float64
}

// Point holds both timings for one size and how far the two paths drifted
// apart after the same number of steps.
type Point struct {
	Particles  int
	Sequential Timing
	Parallel   Timing
	Divergence float64
}

func (p Point) Speedup() float64 {
	if p.Parallel.Elapsed == 0 {
		return 0
	}
	return float64(p.Sequential.Elapsed) / float64(p.Parallel.Elapsed)
}

type Result struct {
	Backend string
	Workers int
	Points  []Point
}

type Runner struct {
	Sizes   []int
	Steps   int
	Warmup  int
	Seed    uint64
	Options []sim.Option
	Log     logr.Logger
}

// Run measures every size in order. It stops between measurements when ctx
// is done and returns the points collected so far.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Steps <= 0 {
		return nil, fmt.Errorf("bench: steps must be positive, got %d", r.Steps)
	}
	log := r.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	result := &Result{Points: make([]Point, 0, len(r.Sizes))}
	for _, n := range r.Sizes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		base := sim.NewSeeded(n, r.Seed, r.Options...)
		result.Backend = base.Backend().Name()
		result.Workers = base.Backend().Workers()

		seq, par := base.Clone(), base.Clone()
		for i := 0; i < r.Warmup; i++ {
			seq.StepSequential()
			par.StepParallel()
		}

		p := Point{
			Particles:  n,
			Sequential: r.measure(n, ModeSequential, seq.StepSequential),
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p.Parallel = r.measure(n, ModeParallel, par.StepParallel)
		p.Divergence = Divergence(seq.Current(), par.Current())

		log.Info("measured", "particles", n,
			"seqStepsPerSec", p.Sequential.StepsPerSec,
			"parStepsPerSec", p.Parallel.StepsPerSec,
			"speedup", p.Speedup(),
			"divergence", p.Divergence)
		result.Points = append(result.Points, p)
	}
	return result, nil
}

func (r *Runner) measure(n int, mode string, step func() sim.Particles) Timing {
	start := time.Now()
	for i := 0; i < r.Steps; i++ {
		step()
	}
	elapsed := time.Since(start)

	t := Timing{Particles: n, Mode: mode, Steps: r.Steps, Elapsed: elapsed}
	if secs := elapsed.Seconds(); secs > 0 {
		t.StepsPerSec = float64(r.Steps) / secs
		t.PairsPerSec = float64(r.Steps) * float64(n) * float64(n) / secs
	}
	return t
}

// Divergence is the largest absolute component difference in position or
// velocity between two buffers of equal length.
func Divergence(a, b sim.Particles) float64 {
	d := 0.0
	for i := range a {
		if i >= len(b) {
			break
		}
		dp := a[i].Position.Sub(b[i].Position)
		dv := a[i].Velocity.Sub(b[i].Velocity)
		d = max(d, math.Abs(dp.X), math.Abs(dp.Y), math.Abs(dv.X), math.Abs(dv.Y))
	}
	return d
}

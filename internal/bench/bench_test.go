package bench

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vec2"
)

func TestRunnerRun(t *testing.T) {
	r := &Runner{
		Sizes:   []int{0, 8, 64},
		Steps:   3,
		Warmup:  1,
		Seed:    1,
		Options: []sim.Option{sim.WithBackend(compute.NewCPU(4, compute.WithMinChunk(1)))},
	}

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(result.Points))
	}
	if result.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", result.Workers)
	}

	for i, p := range result.Points {
		if p.Particles != r.Sizes[i] {
			t.Errorf("point %d: expected %d particles, got %d", i, r.Sizes[i], p.Particles)
		}
		if p.Sequential.Mode != ModeSequential || p.Parallel.Mode != ModeParallel {
			t.Errorf("point %d: wrong modes %q %q", i, p.Sequential.Mode, p.Parallel.Mode)
		}
		if p.Sequential.Steps != 3 || p.Parallel.Steps != 3 {
			t.Errorf("point %d: expected 3 steps per mode", i)
		}
		if p.Divergence > 1e-9 {
			t.Errorf("point %d: seq and par diverged by %g", i, p.Divergence)
		}
	}
}

func TestRunnerRejectsZeroSteps(t *testing.T) {
	r := &Runner{Sizes: []int{4}}
	if _, err := r.Run(context.Background()); err == nil {
		t.Error("expected error for zero steps")
	}
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Sizes: []int{4, 8}, Steps: 1}
	result, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || len(result.Points) != 0 {
		t.Errorf("expected empty partial result, got %+v", result)
	}
}

func TestDivergence(t *testing.T) {
	a := sim.Particles{{Position: vec2.New(1, 1), Velocity: vec2.New(0, 0)}}
	b := sim.Particles{{Position: vec2.New(1, 1.5), Velocity: vec2.New(-2, 0)}}

	if d := Divergence(a, b); d != 2 {
		t.Errorf("expected divergence 2, got %g", d)
	}
	if d := Divergence(a, a); d != 0 {
		t.Errorf("expected zero divergence, got %g", d)
	}
	if d := Divergence(a, nil); d != 0 {
		t.Errorf("expected zero divergence for empty buffer, got %g", d)
	}
}

func TestSpeedup(t *testing.T) {
	p := Point{
		Sequential: Timing{Elapsed: 400},
		Parallel:   Timing{Elapsed: 100},
	}
	if s := p.Speedup(); s != 4 {
		t.Errorf("expected speedup 4, got %g", s)
	}
	if s := (Point{}).Speedup(); s != 0 {
		t.Errorf("expected zero speedup without timings, got %g", s)
	}
}

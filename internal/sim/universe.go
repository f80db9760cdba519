package sim

import (
	"math/rand/v2"

	"github.com/go-logr/logr"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/vec2"
)

// DefaultDt is the integration step.
const DefaultDt = 1e-7

type Universe struct {
	time    int
	bodies  [2]Particles
	dt      float64
	field   gravity.Field
	backend compute.Backend
	log     logr.Logger
}

type Option func(*Universe)

func WithDt(dt float64) Option {
	return func(u *Universe) { u.dt = dt }
}

func WithSoftening(eps float64) Option {
	return func(u *Universe) { u.field = gravity.New(eps) }
}

// WithBackend sets the backend StepParallel and AccelerationAt run on.
func WithBackend(b compute.Backend) Option {
	return func(u *Universe) { u.backend = b }
}

func WithLogger(l logr.Logger) Option {
	return func(u *Universe) { u.log = l }
}

// New samples n particles from rng into both buffers. n == 0 is valid.
func New(n int, rng *rand.Rand, opts ...Option) *Universe {
	return FromParticles(Sample(n, rng), opts...)
}

func NewSeeded(n int, seed uint64, opts ...Option) *Universe {
	return New(n, NewRand(seed), opts...)
}

// FromParticles starts a universe at time 0 from a copy of ps.
func FromParticles(ps Particles, opts ...Option) *Universe {
	u := &Universe{
		bodies:  [2]Particles{ps.Clone(), ps.Clone()},
		dt:      DefaultDt,
		field:   gravity.New(gravity.DefaultSoftening),
		backend: compute.NewCPU(0),
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.log.V(1).Info("universe created",
		"particles", len(ps), "dt", u.dt, "softening", u.field.Softening, "backend", u.backend.Name())
	return u
}

func (u *Universe) Len() int                 { return len(u.bodies[0]) }
func (u *Universe) Time() int                { return u.time }
func (u *Universe) Dt() float64              { return u.dt }
func (u *Universe) Softening() float64       { return u.field.Softening }
func (u *Universe) Field() gravity.Field     { return u.field }
func (u *Universe) Backend() compute.Backend { return u.backend }

// Current returns the authoritative buffer. The view is overwritten two
// steps later.
func (u *Universe) Current() Particles {
	in, _ := u.buffers()
	return in
}

func (u *Universe) buffers() (in, out Particles) {
	if u.time&1 == 0 {
		return u.bodies[0], u.bodies[1]
	}
	return u.bodies[1], u.bodies[0]
}

// StepSequential advances one step on the calling goroutine and returns the
// new current buffer.
func (u *Universe) StepSequential() Particles {
	in, out := u.buffers()
	u.advance(in, out, 0, len(out))
	u.time++
	u.log.V(2).Info("step", "mode", "sequential", "t", u.time)
	return out
}

// StepParallel advances one step with the output range split across the
// backend's workers. It returns once every worker is done.
func (u *Universe) StepParallel() Particles {
	in, out := u.buffers()
	u.backend.For(len(out), func(start, end int) {
		u.advance(in, out, start, end)
	})
	u.time++
	u.log.V(2).Info("step", "mode", "parallel", "t", u.time, "backend", u.backend.Name())
	return out
}

// advance writes out[start:end] from the whole of in. The self term is
// included in the sum and contributes zero.
func (u *Universe) advance(in, out Particles, start, end int) {
	for i := start; i < end; i++ {
		prev := in[i]
		a := u.field.At(prev.Position, in)
		v := prev.Velocity.Add(a.Scale(u.dt))
		out[i] = Particle{
			Position: prev.Position.Add(v),
			Velocity: v,
			Mass:     prev.Mass,
		}
	}
}

// AccelerationAt evaluates the field of the current buffer at pos using the
// parallel reduction.
func (u *Universe) AccelerationAt(pos vec2.Vec) vec2.Vec {
	return u.field.AtParallel(pos, u.Current(), u.backend)
}

// Clone returns an independent copy sharing the backend and logger.
func (u *Universe) Clone() *Universe {
	c := *u
	c.bodies = [2]Particles{u.bodies[0].Clone(), u.bodies[1].Clone()}
	return &c
}

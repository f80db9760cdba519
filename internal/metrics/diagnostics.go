// Package metrics computes conserved-quantity diagnostics over a particle
// buffer.
package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vec2"
)

func KineticEnergy(ps sim.Particles) float64 {
	ke := 0.0
	for _, p := range ps {
		ke += 0.5 * p.Mass * p.Velocity.NormSqr()
	}
	return ke
}

// PotentialEnergy sums the softened pair potential -m_i m_j / sqrt(r² + eps),
// the potential of the force law the simulation integrates.
func PotentialEnergy(ps sim.Particles, softening float64) float64 {
	pe := 0.0
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			r2 := ps[j].Position.Sub(ps[i].Position).NormSqr()
			pe -= ps[i].Mass * ps[j].Mass / math.Sqrt(r2+softening)
		}
	}
	return pe
}

func Momentum(ps sim.Particles) vec2.Vec {
	var p vec2.Vec
	for _, q := range ps {
		p = p.Add(q.Velocity.Scale(q.Mass))
	}
	return p
}

// CenterOfMass returns the zero vector for an empty buffer.
func CenterOfMass(ps sim.Particles) vec2.Vec {
	var c vec2.Vec
	m := 0.0
	for _, p := range ps {
		c = c.Add(p.Position.Scale(p.Mass))
		m += p.Mass
	}
	if m == 0 {
		return vec2.Zero()
	}
	return c.Scale(1 / m)
}

func TotalMass(ps sim.Particles) float64 {
	m := 0.0
	for _, p := range ps {
		m += p.Mass
	}
	return m
}

// AllFinite reports whether no position or velocity is NaN or Inf.
func AllFinite(ps sim.Particles) bool {
	for _, p := range ps {
		if !p.Position.IsFinite() || !p.Velocity.IsFinite() {
			return false
		}
	}
	return true
}

type Summary struct {
	Particles    int
	Time         int
	Mass         float64
	Kinetic      float64
	Potential    float64
	Momentum     vec2.Vec
	CenterOfMass vec2.Vec
	Finite       bool
}

func (s Summary) Energy() float64 { return s.Kinetic + s.Potential }

// Summarize reads the current buffer of u.
func Summarize(u *sim.Universe) Summary {
	ps := u.Current()
	return Summary{
		Particles:    len(ps),
		Time:         u.Time(),
		Mass:         TotalMass(ps),
		Kinetic:      KineticEnergy(ps),
		Potential:    PotentialEnergy(ps, u.Softening()),
		Momentum:     Momentum(ps),
		CenterOfMass: CenterOfMass(ps),
		Finite:       AllFinite(ps),
	}
}

// Drift is the relative change of total energy from a to b.
func Drift(a, b Summary) float64 {
	if a.Energy() == 0 {
		return 0
	}
	return math.Abs(b.Energy()-a.Energy()) / math.Abs(a.Energy())
}

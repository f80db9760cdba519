package sim

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/gravsim/internal/qtree"
	"github.com/san-kum/gravsim/internal/vec2"
)

// Initial conditions: particles sit uniformly by area in a disk.
const (
	DiskCenter = 0.5
	DiskRadius = 0.3
	MinMass    = 0.1
	MaxMass    = 1.5
)

type Particle struct {
	Position vec2.Vec
	Velocity vec2.Vec
	Mass     float64
}

// Bounds is a zero-extent box at the particle's position.
func (p Particle) Bounds() qtree.Bounds {
	return qtree.Bounds{X: p.Position.X, Y: p.Position.Y}
}

// Particles is a view of one buffer. It satisfies gravity.Bodies.
type Particles []Particle

func (ps Particles) Len() int                { return len(ps) }
func (ps Particles) Position(i int) vec2.Vec { return ps[i].Position }
func (ps Particles) Mass(i int) float64      { return ps[i].Mass }

func (ps Particles) Clone() Particles {
	c := make(Particles, len(ps))
	copy(c, ps)
	return c
}

// Sample draws n particles at rest, uniformly by area inside the disk of
// radius DiskRadius around (DiskCenter, DiskCenter), with masses uniform in
// [MinMass, MaxMass).
func Sample(n int, rng *rand.Rand) Particles {
	ps := make(Particles, n)
	for i := range ps {
		a := rng.Float64() * 2 * math.Pi
		r := math.Sqrt(rng.Float64()) * DiskRadius
		ps[i] = Particle{
			Position: vec2.New(math.Cos(a)*r+DiskCenter, math.Sin(a)*r+DiskCenter),
			Mass:     rng.Float64()*(MaxMass-MinMass) + MinMass,
		}
	}
	return ps
}

// NewRand returns the PCG source used for seeded construction.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
}

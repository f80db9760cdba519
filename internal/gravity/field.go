// Package gravity evaluates the softened inverse-square acceleration field
// produced by a set of point masses.
package gravity

import (
	"math"
	"sync"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/vec2"
)

// DefaultSoftening is added to the squared separation before the
// inverse-square law is applied.
const DefaultSoftening = 1e-3

// Bodies is the read-only view the field sums over.
type Bodies interface {
	Len() int
	Position(i int) vec2.Vec
	Mass(i int) float64
}

type Field struct {
	Softening float64
}

func New(softening float64) Field {
	return Field{Softening: softening}
}

// Accel returns the acceleration contributed by a body of the given mass at
// separation d (body position minus query position). A zero separation
// contributes exactly zero as long as Softening > 0.
func (f Field) Accel(d vec2.Vec, mass float64) vec2.Vec {
	l2 := d.NormSqr() + f.Softening
	return d.Scale(math.Pow(l2, -1.5) * mass)
}

// At sums the contribution of every body in order.
func (f Field) At(pos vec2.Vec, bodies Bodies) vec2.Vec {
	return f.sum(pos, bodies, 0, bodies.Len())
}

// AtParallel computes the same sum as At, splitting the bodies across the
// backend's workers. Partial sums are folded in chunk order, so the result
// differs from At only by floating-point summation order.
func (f Field) AtParallel(pos vec2.Vec, bodies Bodies, b compute.Backend) vec2.Vec {
	n := bodies.Len()
	chunks, size := b.Partition(n)
	if chunks <= 1 {
		return f.At(pos, bodies)
	}

	partials := getPartials(chunks)
	defer putPartials(partials)

	b.For(n, func(start, end int) {
		(*partials)[start/size] = f.sum(pos, bodies, start, end)
	})

	return vec2.Sum((*partials)...)
}

func (f Field) sum(pos vec2.Vec, bodies Bodies, start, end int) vec2.Vec {
	var acc vec2.Vec
	for j := start; j < end; j++ {
		acc = acc.Add(f.Accel(bodies.Position(j).Sub(pos), bodies.Mass(j)))
	}
	return acc
}

var partialPool = sync.Pool{
	New: func() interface{} {
		s := make([]vec2.Vec, 0, 64)
		return &s
	},
}

func getPartials(n int) *[]vec2.Vec {
	p := partialPool.Get().(*[]vec2.Vec)
	if cap(*p) < n {
		*p = make([]vec2.Vec, n)
	}
	*p = (*p)[:n]
	return p
}

func putPartials(p *[]vec2.Vec) {
	s := *p
	for i := range s {
		s[i] = vec2.Vec{}
	}
	*p = s[:0]
	partialPool.Put(p)
}

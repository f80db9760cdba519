// Package vec2 provides the 2-D vector type shared by the simulation and
// the force field.
package vec2

import "math"

type Vec struct {
	X, Y float64
}

func New(x, y float64) Vec { return Vec{X: x, Y: y} }

func Zero() Vec { return Vec{} }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }

// AddScalar adds s to both components.
func (v Vec) AddScalar(s float64) Vec { return Vec{v.X + s, v.Y + s} }

func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec) NormSqr() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vec) Norm() float64 { return math.Sqrt(v.NormSqr()) }

func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Sum folds vs left to right starting from the zero vector.
func Sum(vs ...Vec) Vec {
	var s Vec
	for _, v := range vs {
		s.X += v.X
		s.Y += v.Y
	}
	return s
}

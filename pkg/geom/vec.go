// Package geom holds the small set of 3D primitives shared by the fracture
// toolkit: vectors, axis-aligned boxes, planes, rotations and rigid
// transforms.
package geom

import (
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a point or direction in 3D space.
type Vec = r3.Vec

// SmallNumber is the tolerance used for degenerate-input checks.
const SmallNumber = 1e-4

// Epsilon is the tolerance used for geometric classification.
const Epsilon = 1e-8

// V is shorthand for constructing a Vec.
func V(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Splat returns a vector with all components equal to s.
func Splat(s float64) Vec {
	return Vec{X: s, Y: s, Z: s}
}

func Add(a, b Vec) Vec            { return r3.Add(a, b) }
func Sub(a, b Vec) Vec            { return r3.Sub(a, b) }
func Scale(f float64, v Vec) Vec  { return r3.Scale(f, v) }
func Dot(a, b Vec) float64        { return r3.Dot(a, b) }
func Cross(a, b Vec) Vec          { return r3.Cross(a, b) }
func Length(v Vec) float64        { return r3.Norm(v) }
func LengthSquared(v Vec) float64 { return r3.Norm2(v) }

// Mul multiplies two vectors component-wise.
func Mul(a, b Vec) Vec {
	return Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// Normalize returns v scaled to unit length, or the zero vector when v is
// too short to normalize.
func Normalize(v Vec) Vec {
	l := r3.Norm(v)
	if l < Epsilon {
		return Vec{}
	}
	return r3.Scale(1/l, v)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// DistanceSquared returns the squared Euclidean distance between a and b.
func DistanceSquared(a, b Vec) float64 {
	return r3.Norm2(r3.Sub(a, b))
}

// MinComponent returns the smallest component of v.
func MinComponent(v Vec) float64 {
	return math.Min(v.X, math.Min(v.Y, v.Z))
}

// MaxComponent returns the largest component of v.
func MaxComponent(v Vec) float64 {
	return math.Max(v.X, math.Max(v.Y, v.Z))
}

// ComponentMin returns the per-component minimum of a and b.
func ComponentMin(a, b Vec) Vec {
	return Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// ComponentMax returns the per-component maximum of a and b.
func ComponentMax(a, b Vec) Vec {
	return Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// HasNaN reports whether any component of v is NaN.
func HasNaN(v Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// NearlyEqual reports whether a and b are within tol of each other on every
// axis.
func NearlyEqual(a, b Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b Vec, t float64) Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min3 returns the smallest of three values.
func Min3[T constraints.Ordered](a, b, c T) T {
	return min(a, b, c)
}

// Centroid returns the arithmetic mean of pts, or the zero vector for an
// empty slice.
func Centroid(pts []Vec) Vec {
	if len(pts) == 0 {
		return Vec{}
	}
	var sum Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

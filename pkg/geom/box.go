package geom

import "math"

// Box is an axis-aligned bounding box. The zero value is not empty; use
// EmptyBox to start an accumulation.
type Box struct {
	Min Vec
	Max Vec
}

// EmptyBox returns a box that contains nothing and absorbs the first point
// extended into it.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{Min: Splat(inf), Max: Splat(-inf)}
}

// NewBox returns the box spanning min and max, reordering components as
// needed.
func NewBox(a, b Vec) Box {
	return Box{Min: ComponentMin(a, b), Max: ComponentMax(a, b)}
}

// BoxFromCenter returns a box centered at c with the given half extents.
func BoxFromCenter(c, halfExtent Vec) Box {
	return Box{Min: Sub(c, halfExtent), Max: Add(c, halfExtent)}
}

// BoxFromPoints returns the bounds of pts.
func BoxFromPoints(pts []Vec) Box {
	b := EmptyBox()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// IsValid reports whether the box has been extended by at least one point.
func (b Box) IsValid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Extend grows the box to contain p.
func (b Box) Extend(p Vec) Box {
	return Box{Min: ComponentMin(b.Min, p), Max: ComponentMax(b.Max, p)}
}

// Union returns the smallest box containing both boxes. Invalid boxes are
// ignored.
func (b Box) Union(o Box) Box {
	if !o.IsValid() {
		return b
	}
	if !b.IsValid() {
		return o
	}
	return Box{Min: ComponentMin(b.Min, o.Min), Max: ComponentMax(b.Max, o.Max)}
}

// ExpandBy grows the box by d on every side.
func (b Box) ExpandBy(d float64) Box {
	s := Splat(d)
	return Box{Min: Sub(b.Min, s), Max: Add(b.Max, s)}
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec {
	return Scale(0.5, Add(b.Min, b.Max))
}

// Size returns Max - Min.
func (b Box) Size() Vec {
	return Sub(b.Max, b.Min)
}

// Extent returns the half size of the box.
func (b Box) Extent() Vec {
	return Scale(0.5, b.Size())
}

// Volume returns the enclosed volume, zero for invalid boxes.
func (b Box) Volume() float64 {
	if !b.IsValid() {
		return 0
	}
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// Intersects reports whether the boxes overlap or touch.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Intersection returns the overlapping region, which is invalid when the
// boxes do not overlap.
func (b Box) Intersection(o Box) Box {
	return Box{Min: ComponentMax(b.Min, o.Min), Max: ComponentMin(b.Max, o.Max)}
}

// Corners returns the eight corners of the box.
func (b Box) Corners() [8]Vec {
	return [8]Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// TransformBy returns the bounds of the box after applying m.
func (b Box) TransformBy(m Mat) Box {
	if !b.IsValid() {
		return b
	}
	out := EmptyBox()
	for _, c := range b.Corners() {
		out = out.Extend(TransformPosition(m, c))
	}
	return out
}

// Planes returns the six outward-facing planes of the box.
func (b Box) Planes() []Plane {
	return []Plane{
		{Normal: V(1, 0, 0), D: b.Max.X},
		{Normal: V(-1, 0, 0), D: -b.Min.X},
		{Normal: V(0, 1, 0), D: b.Max.Y},
		{Normal: V(0, -1, 0), D: -b.Min.Y},
		{Normal: V(0, 0, 1), D: b.Max.Z},
		{Normal: V(0, 0, -1), D: -b.Min.Z},
	}
}

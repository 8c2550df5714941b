package geom

// Plane is the set of points p with Dot(Normal, p) == D. Normal is kept at
// unit length; the positive half-space is "outside".
type Plane struct {
	Normal Vec
	D      float64
}

// PlaneFromPointNormal builds a plane through p with the given normal.
func PlaneFromPointNormal(p, n Vec) Plane {
	n = Normalize(n)
	return Plane{Normal: n, D: Dot(n, p)}
}

// PlaneFromPoints builds the plane through three points, wound
// counter-clockwise when viewed from the positive side.
func PlaneFromPoints(a, b, c Vec) (Plane, bool) {
	n := Cross(Sub(b, a), Sub(c, a))
	if LengthSquared(n) < Epsilon*Epsilon {
		return Plane{}, false
	}
	return PlaneFromPointNormal(a, n), true
}

// SignedDistance is positive on the side the normal points to.
func (p Plane) SignedDistance(v Vec) float64 {
	return Dot(p.Normal, v) - p.D
}

// Offset moves the plane along its normal by d.
func (p Plane) Offset(d float64) Plane {
	return Plane{Normal: p.Normal, D: p.D + d}
}

// Flip returns the plane facing the opposite way.
func (p Plane) Flip() Plane {
	return Plane{Normal: Scale(-1, p.Normal), D: -p.D}
}

// Origin returns the point on the plane closest to the origin.
func (p Plane) Origin() Vec {
	return Scale(p.D, p.Normal)
}

// Basis returns two unit vectors spanning the plane.
func (p Plane) Basis() (u, v Vec) {
	ref := V(1, 0, 0)
	if abs(p.Normal.X) > 0.9 {
		ref = V(0, 1, 0)
	}
	u = Normalize(Cross(p.Normal, ref))
	v = Cross(p.Normal, u)
	return u, v
}

// TransformPlane maps the plane through an affine matrix by transforming
// three points that lie on it. Mirroring matrices keep the plane facing
// the image of its original positive side.
func TransformPlane(m Mat, p Plane) Plane {
	o := p.Origin()
	u, v := p.Basis()
	a := TransformPosition(m, o)
	b := TransformPosition(m, Add(o, u))
	c := TransformPosition(m, Add(o, v))
	out, ok := PlaneFromPoints(a, b, c)
	if !ok {
		return p
	}
	if m.Det() < 0 {
		return out.Flip()
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

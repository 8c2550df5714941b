package convex

import (
	"math"
	"slices"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
)

// face is a planar convex polygon wound counter-clockwise seen from
// outside the shell.
type face struct {
	pts      []geom.Vec
	material int
	internal bool
}

func (f face) normal() geom.Vec {
	// Newell's method tolerates collinear runs.
	var n geom.Vec
	for i, a := range f.pts {
		b := f.pts[(i+1)%len(f.pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

func (f face) area() float64 {
	return 0.5 * geom.Length(f.normal())
}

// shell is a closed convex polyhedron.
type shell struct {
	faces []face
}

func (s shell) empty() bool { return len(s.faces) == 0 }

func (s shell) volume() float64 {
	v := 0.0
	for _, f := range s.faces {
		for i := 1; i+1 < len(f.pts); i++ {
			v += geom.Dot(f.pts[0], geom.Cross(f.pts[i], f.pts[i+1]))
		}
	}
	return v / 6
}

func (s shell) area() float64 {
	a := 0.0
	for _, f := range s.faces {
		a += f.area()
	}
	return a
}

func (s shell) bounds() geom.Box {
	b := geom.EmptyBox()
	for _, f := range s.faces {
		for _, p := range f.pts {
			b = b.Extend(p)
		}
	}
	return b
}

// degenerate reports shells too thin to keep: fewer than four faces, or a
// thickness estimate (twice volume over area) below minThickness.
func (s shell) degenerate(minThickness float64) bool {
	if len(s.faces) < 4 {
		return true
	}
	a := s.area()
	if a <= 0 {
		return true
	}
	return 2*s.volume()/a < minThickness
}

type side int8

func classify(d, eps float64) side {
	switch {
	case d > eps:
		return 1
	case d < -eps:
		return -1
	}
	return 0
}

// intersect returns the point where segment ab crosses p. Endpoints are
// ordered first so that both faces sharing an edge compute the same point.
func intersect(a, b geom.Vec, p geom.Plane) geom.Vec {
	if less(b, a) {
		a, b = b, a
	}
	da, db := p.SignedDistance(a), p.SignedDistance(b)
	t := da / (da - db)
	return geom.Add(a, geom.Scale(t, geom.Sub(b, a)))
}

func less(a, b geom.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// clip keeps the part of s on the non-positive side of p and closes the
// cut with a cap face tagged internal.
func (s shell) clip(p geom.Plane, eps float64, capMaterial int) shell {
	anyIn, anyOut := false, false
	for _, f := range s.faces {
		for _, v := range f.pts {
			switch classify(p.SignedDistance(v), eps) {
			case 1:
				anyOut = true
			case -1:
				anyIn = true
			}
		}
	}
	if !anyOut {
		return s
	}
	if !anyIn {
		return shell{}
	}

	var out shell
	var section []geom.Vec
	coplanar := false
	for _, f := range s.faces {
		sides := make([]side, len(f.pts))
		onPlane := 0
		for i, v := range f.pts {
			sides[i] = classify(p.SignedDistance(v), eps)
			if sides[i] == 0 {
				onPlane++
				section = append(section, v)
			}
		}
		if onPlane == len(f.pts) {
			if geom.Dot(f.normal(), p.Normal) > 0 {
				out.faces = append(out.faces, f)
				coplanar = true
			}
			continue
		}
		var pts []geom.Vec
		for i, a := range f.pts {
			j := (i + 1) % len(f.pts)
			if sides[i] <= 0 {
				pts = append(pts, a)
			}
			if sides[i]*sides[j] < 0 {
				x := intersect(a, f.pts[j], p)
				pts = append(pts, x)
				section = append(section, x)
			}
		}
		if len(pts) >= 3 {
			out.faces = append(out.faces, face{pts: pts, material: f.material, internal: f.internal})
		}
	}
	if !coplanar {
		if cap, ok := capFace(section, p, eps); ok {
			cap.material = capMaterial
			cap.internal = true
			out.faces = append(out.faces, cap)
		}
	}
	return out
}

// capFace is the convex hull of the section points in p, wound so its
// normal is p.Normal.
func capFace(points []geom.Vec, p geom.Plane, eps float64) (face, bool) {
	if len(points) < 3 {
		return face{}, false
	}
	u, v := p.Basis()
	type pt2 struct {
		x, y float64
		p    geom.Vec
	}
	ps := make([]pt2, len(points))
	for i, q := range points {
		ps[i] = pt2{geom.Dot(q, u), geom.Dot(q, v), q}
	}
	slices.SortFunc(ps, func(a, b pt2) int {
		switch {
		case a.x < b.x:
			return -1
		case a.x > b.x:
			return 1
		case a.y < b.y:
			return -1
		case a.y > b.y:
			return 1
		}
		return 0
	})
	cross := func(o, a, b pt2) float64 {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}
	// Andrew's monotone chain, dropping collinear and repeated points.
	hull := make([]pt2, 0, 2*len(ps))
	for _, q := range ps {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], q) <= eps*eps {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, q)
	}
	lower := len(hull) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		q := ps[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], q) <= eps*eps {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, q)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return face{}, false
	}
	f := face{pts: make([]geom.Vec, len(hull))}
	for i, q := range hull {
		f.pts[i] = q.p
	}
	if f.area() <= eps*eps {
		return face{}, false
	}
	return f, true
}

// clipAll intersects every shell with the half-spaces and drops empty and
// degenerate results.
func clipAll(shells []shell, planes []geom.Plane, eps, minThickness float64, capMaterial int) []shell {
	var out []shell
	for _, s := range shells {
		for _, p := range planes {
			s = s.clip(p, eps, capMaterial)
			if s.empty() {
				break
			}
		}
		if !s.empty() && !s.degenerate(minThickness) {
			out = append(out, s)
		}
	}
	return out
}

// subtractAll returns the parts of shells outside the convex region given
// by planes, as convex pieces: for plane i, the part outside plane i but
// inside planes 0..i-1.
func subtractAll(shells []shell, planes []geom.Plane, eps, minThickness float64, capMaterial int) []shell {
	var out []shell
	for _, s := range shells {
		rest := s
		for _, p := range planes {
			outside := rest.clip(p.Flip(), eps, capMaterial)
			if !outside.empty() && !outside.degenerate(minThickness) {
				out = append(out, outside)
			}
			rest = rest.clip(p, eps, capMaterial)
			if rest.empty() {
				break
			}
		}
	}
	return out
}

// fromMesh splits a triangle mesh into shells of triangles connected
// through shared vertex indices. A triangle soup, where no index is
// shared, is welded by position first.
func fromMesh(m collection.MeshData) []shell {
	n := len(m.Vertices)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}
	if soup(m) {
		byPos := make(map[geom.Vec]int, n)
		for i, v := range m.Vertices {
			if j, ok := byPos[v]; ok {
				union(i, j)
			} else {
				byPos[v] = i
			}
		}
	}
	for _, t := range m.Triangles {
		union(t[0], t[1])
		union(t[1], t[2])
	}
	index := map[int]int{}
	var shells []shell
	for ti, t := range m.Triangles {
		root := find(t[0])
		si, ok := index[root]
		if !ok {
			si = len(shells)
			index[root] = si
			shells = append(shells, shell{})
		}
		shells[si].faces = append(shells[si].faces, face{
			pts:      []geom.Vec{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]},
			material: m.Material(ti),
			internal: m.IsInternal(ti),
		})
	}
	return shells
}

func soup(m collection.MeshData) bool {
	seen := make([]bool, len(m.Vertices))
	for _, t := range m.Triangles {
		for _, i := range t {
			if seen[i] {
				return false
			}
			seen[i] = true
		}
	}
	return true
}

// toMesh triangulates shells, welding identical vertices within each
// shell.
func toMesh(shells []shell, eps float64) collection.MeshData {
	var out collection.MeshData
	for _, s := range shells {
		weld := map[[3]int64]int{}
		key := func(v geom.Vec) [3]int64 {
			q := eps
			return [3]int64{int64(math.Round(v.X / q)), int64(math.Round(v.Y / q)), int64(math.Round(v.Z / q))}
		}
		index := func(v geom.Vec) int {
			k := key(v)
			if i, ok := weld[k]; ok {
				return i
			}
			i := len(out.Vertices)
			out.Vertices = append(out.Vertices, v)
			weld[k] = i
			return i
		}
		for _, f := range s.faces {
			ids := make([]int, 0, len(f.pts))
			for _, p := range f.pts {
				i := index(p)
				if len(ids) > 0 && ids[len(ids)-1] == i {
					continue
				}
				ids = append(ids, i)
			}
			if len(ids) > 1 && ids[0] == ids[len(ids)-1] {
				ids = ids[:len(ids)-1]
			}
			for i := 1; i+1 < len(ids); i++ {
				a, b, c := out.Vertices[ids[0]], out.Vertices[ids[i]], out.Vertices[ids[i+1]]
				if geom.LengthSquared(geom.Cross(geom.Sub(b, a), geom.Sub(c, a))) <= eps*eps*eps*eps {
					continue
				}
				out.Triangles = append(out.Triangles, [3]int{ids[0], ids[i], ids[i+1]})
				out.MaterialIDs = append(out.MaterialIDs, f.material)
				out.Internal = append(out.Internal, f.internal)
			}
		}
	}
	return out
}

// islands groups shells whose bounds touch.
func islands(shells []shell, eps float64) [][]shell {
	n := len(shells)
	group := make([]int, n)
	for i := range group {
		group[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for group[i] != i {
			i = group[i]
		}
		return i
	}
	boxes := make([]geom.Box, n)
	for i, s := range shells {
		boxes[i] = s.bounds().ExpandBy(eps)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if boxes[i].Intersects(boxes[j]) {
				ri, rj := find(i), find(j)
				if ri != rj {
					group[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}
	var out [][]shell
	index := map[int]int{}
	for i, s := range shells {
		r := find(i)
		gi, ok := index[r]
		if !ok {
			gi = len(out)
			index[r] = gi
			out = append(out, nil)
		}
		out[gi] = append(out[gi], s)
	}
	return out
}

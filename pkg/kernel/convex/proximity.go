package convex

import (
	"math"
	"slices"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
)

type worldTri struct {
	pts   [3]geom.Vec
	plane geom.Plane
	box   geom.Box
}

type worldGeo struct {
	index int
	box   geom.Box
	tris  []worldTri
}

// ComputeProximity rebuilds the proximity sets of every geometry entry.
// Two entries are neighbours when a face of one lies against a face of the
// other, facing the opposite way, with overlapping area.
func (k *Kernel) ComputeProximity(c *collection.Collection) error {
	global := c.GlobalMatrices()
	owner := c.Ints(collection.AttrTransformIndex, collection.GroupGeometry)
	bounds := c.BoundingBox()
	diag := 0.0
	if bounds.IsValid() {
		diag = geom.Length(bounds.Size())
	}
	tol := k.ProximityTolerance * math.Max(1, diag)

	geos := make([]worldGeo, 0, len(owner))
	for g, b := range owner {
		if !c.InRange(b) {
			continue
		}
		m := c.GeometryMesh(g)
		w := worldGeo{index: g, box: geom.EmptyBox()}
		for _, t := range m.Triangles {
			var tri worldTri
			for j := range 3 {
				tri.pts[j] = geom.TransformPosition(global[b], m.Vertices[t[j]])
			}
			p, ok := geom.PlaneFromPoints(tri.pts[0], tri.pts[1], tri.pts[2])
			if !ok {
				continue
			}
			if global[b].Det() < 0 {
				p = p.Flip()
			}
			tri.plane = p
			tri.box = geom.BoxFromPoints(tri.pts[:])
			w.box = w.box.Union(tri.box)
			w.tris = append(w.tris, tri)
		}
		if len(w.tris) > 0 {
			w.box = w.box.ExpandBy(tol)
			geos = append(geos, w)
		}
	}

	prox := c.IntSets(collection.AttrProximity, collection.GroupGeometry)
	for i := range prox {
		prox[i] = nil
	}
	// Sweep along X over sorted box minima.
	slices.SortFunc(geos, func(a, b worldGeo) int {
		switch {
		case a.box.Min.X < b.box.Min.X:
			return -1
		case a.box.Min.X > b.box.Min.X:
			return 1
		}
		return a.index - b.index
	})
	for i := range geos {
		for j := i + 1; j < len(geos) && geos[j].box.Min.X <= geos[i].box.Max.X; j++ {
			a, b := &geos[i], &geos[j]
			if !a.box.Intersects(b.box) || !touching(a.tris, b.tris, tol) {
				continue
			}
			prox[a.index] = append(prox[a.index], b.index)
			prox[b.index] = append(prox[b.index], a.index)
		}
	}
	for i := range prox {
		slices.Sort(prox[i])
		prox[i] = slices.Compact(prox[i])
	}
	return nil
}

func touching(as, bs []worldTri, tol float64) bool {
	for _, a := range as {
		for _, b := range bs {
			if geom.Dot(a.plane.Normal, b.plane.Normal) > -0.999 {
				continue
			}
			// Opposite normals: the planes coincide when the offsets cancel.
			if math.Abs(a.plane.D+b.plane.D) > tol {
				continue
			}
			if !a.box.ExpandBy(tol).Intersects(b.box) {
				continue
			}
			if overlapArea(a, b) > tol*tol {
				return true
			}
		}
	}
	return false
}

// overlapArea projects both triangles into a's plane and returns the area
// of the intersection of their 2D bounding rectangles.
func overlapArea(a, b worldTri) float64 {
	u, v := a.plane.Basis()
	lo := [2]float64{math.Inf(-1), math.Inf(-1)}
	hi := [2]float64{math.Inf(1), math.Inf(1)}
	for _, t := range [2]worldTri{a, b} {
		tlo := [2]float64{math.Inf(1), math.Inf(1)}
		thi := [2]float64{math.Inf(-1), math.Inf(-1)}
		for _, p := range t.pts {
			x, y := geom.Dot(p, u), geom.Dot(p, v)
			tlo[0], thi[0] = math.Min(tlo[0], x), math.Max(thi[0], x)
			tlo[1], thi[1] = math.Min(tlo[1], y), math.Max(thi[1], y)
		}
		lo[0], hi[0] = math.Max(lo[0], tlo[0]), math.Min(hi[0], thi[0])
		lo[1], hi[1] = math.Max(lo[1], tlo[1]), math.Min(hi[1], thi[1])
	}
	w, h := hi[0]-lo[0], hi[1]-lo[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

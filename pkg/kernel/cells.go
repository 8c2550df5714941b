package kernel

import (
	"fmt"

	"github.com/chazu/splinter/pkg/geom"
)

// CellKind says how a PlanarCells value describes its regions.
type CellKind int

const (
	// CellsVoronoi: one cell per site, clipped to Bounds.
	CellsVoronoi CellKind = iota
	// CellsPlanes: the arrangement of a plane list; every plane splits
	// whatever it crosses.
	CellsPlanes
	// CellsConvex: explicit convex regions, each an intersection of
	// half-spaces.
	CellsConvex
)

// PlanarCells is a set of convex regions that partition (part of) space.
// Planes face outward: a point is inside a half-space when its signed
// distance is <= 0.
type PlanarCells struct {
	Kind   CellKind
	Sites  []geom.Vec
	Bounds geom.Box
	Planes []geom.Plane
	Cells  [][]geom.Plane
	// Touching marks explicit cells that share faces, so pieces on both
	// sides of a shared face count as neighbours.
	Touching bool
	Noise    NoiseSettings
}

// NumCells returns the number of regions described.
func (p *PlanarCells) NumCells() int {
	switch p.Kind {
	case CellsVoronoi:
		return len(p.Sites)
	case CellsPlanes:
		return len(p.Planes) + 1
	default:
		return len(p.Cells)
	}
}

// VoronoiCells builds Voronoi cells for sites inside bounds.
func VoronoiCells(sites []geom.Vec, bounds geom.Box) (*PlanarCells, error) {
	if len(sites) == 0 {
		return nil, ErrNoSites
	}
	if !bounds.IsValid() || bounds.Volume() <= 0 {
		return nil, fmt.Errorf("kernel: voronoi bounds %v have no volume", bounds)
	}
	return &PlanarCells{Kind: CellsVoronoi, Sites: sites, Bounds: bounds}, nil
}

// PlaneCells builds the cells of a plane arrangement.
func PlaneCells(planes []geom.Plane) (*PlanarCells, error) {
	if len(planes) == 0 {
		return nil, ErrEmptyCells
	}
	return &PlanarCells{Kind: CellsPlanes, Planes: planes}, nil
}

// OrientedBox is a box placed by a transform.
type OrientedBox struct {
	Box       geom.Box
	Transform geom.Transform
}

// Planes returns the six outward planes of the placed box.
func (o OrientedBox) Planes() []geom.Plane {
	m := o.Transform.Matrix()
	local := o.Box.Planes()
	out := make([]geom.Plane, len(local))
	for i, p := range local {
		out[i] = geom.TransformPlane(m, p)
	}
	return out
}

// BoxCells builds one convex cell per placed box.
func BoxCells(boxes []OrientedBox, touching bool) (*PlanarCells, error) {
	if len(boxes) == 0 {
		return nil, ErrEmptyCells
	}
	cells := make([][]geom.Plane, 0, len(boxes))
	for _, b := range boxes {
		if !b.Box.IsValid() || b.Box.Volume() <= 0 {
			continue
		}
		cells = append(cells, b.Planes())
	}
	if len(cells) == 0 {
		return nil, ErrEmptyCells
	}
	return &PlanarCells{Kind: CellsConvex, Cells: cells, Touching: touching}, nil
}

// VoronoiCell returns the half-spaces of site i's cell: the bisectors
// against every other site plus the bounds.
func (p *PlanarCells) VoronoiCell(i int) []geom.Plane {
	site := p.Sites[i]
	planes := make([]geom.Plane, 0, len(p.Sites)+5)
	for j, other := range p.Sites {
		if j == i {
			continue
		}
		d := geom.Sub(other, site)
		if geom.LengthSquared(d) < geom.Epsilon*geom.Epsilon {
			// Coincident sites: the lower index owns the cell.
			if j < i {
				return nil
			}
			continue
		}
		mid := geom.Scale(0.5, geom.Add(site, other))
		planes = append(planes, geom.PlaneFromPointNormal(mid, d))
	}
	return append(planes, p.Bounds.Planes()...)
}

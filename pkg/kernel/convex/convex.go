// Package convex implements kernel.Cutter for meshes made of closed convex
// shells. Every cut is a sequence of half-space clips; mesh cuts use the
// convex hull of the cutting mesh.
package convex

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/logging"
)

// Compile-time interface check.
var _ kernel.Cutter = (*Kernel)(nil)

// Kernel is the convex cut kernel.
type Kernel struct {
	// ProximityTolerance is the largest gap, relative to the collection
	// diagonal, at which two opposite faces still count as touching.
	ProximityTolerance float64
}

// New returns a Kernel with default tolerances.
func New() *Kernel {
	return &Kernel{ProximityTolerance: 1e-4}
}

// tolerances derives the clip epsilon and the minimum piece thickness from
// the size of the geometry being cut.
func tolerances(b geom.Box) (eps, minThickness float64) {
	diag := 0.0
	if b.IsValid() {
		diag = geom.Length(b.Size())
	}
	return 1e-7 * math.Max(1, diag), 1e-6 * diag
}

// capMaterial picks the material for new cut faces: the material existing
// internal faces already use, or one past the first outer material.
func capMaterial(m collection.MeshData) int {
	for i := range m.Triangles {
		if m.IsInternal(i) {
			return m.Material(i)
		}
	}
	if len(m.Triangles) == 0 {
		return 1
	}
	return m.Material(0) + 1
}

// target is a bone prepared for cutting: its shells in local space and the
// matrix mapping world space into it.
type target struct {
	bone    int
	shells  []shell
	toLocal geom.Mat
	eps     float64
	thin    float64
	capMat  int
}

func (k *Kernel) targets(c *collection.Collection, bones []int) []target {
	global := c.GlobalMatrices()
	sorted := slices.Clone(bones)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	var out []target
	for _, b := range sorted {
		if !c.IsRigid(b) {
			continue
		}
		m := c.BoneMesh(b)
		if m.NumTriangles() == 0 {
			continue
		}
		eps, thin := tolerances(m.Bounds())
		out = append(out, target{
			bone:    b,
			shells:  fromMesh(m),
			toLocal: geom.Inverse(global[b]),
			eps:     eps,
			thin:    thin,
			capMat:  capMaterial(m),
		})
	}
	return out
}

func toLocal(m geom.Mat, planes []geom.Plane) []geom.Plane {
	out := make([]geom.Plane, len(planes))
	for i, p := range planes {
		out[i] = geom.TransformPlane(m, p)
	}
	return out
}

func offset(planes []geom.Plane, d float64) []geom.Plane {
	out := make([]geom.Plane, len(planes))
	for i, p := range planes {
		out[i] = p.Offset(d)
	}
	return out
}

// CutWithPlanarCells cuts each rigid bone in bones by the cells. Cells are
// placed in world space by opts.Transform.
func (k *Kernel) CutWithPlanarCells(cells *kernel.PlanarCells, c *collection.Collection, bones []int, opts kernel.CutOptions) (int, error) {
	if cells == nil || cells.NumCells() == 0 {
		return collection.IndexNone, kernel.ErrEmptyCells
	}
	place := opts.Transform.Matrix()
	half := opts.Grout / 2
	first := collection.IndexNone
	for _, t := range k.targets(c, bones) {
		m := t.toLocal.Mul4(place)
		var pieces [][]shell
		switch cells.Kind {
		case kernel.CellsVoronoi:
			pieces = k.voronoiPieces(cells, m, half, t)
		case kernel.CellsPlanes:
			pieces = k.planePieces(cells, m, half, t)
		default:
			pieces = k.convexPieces(cells, m, half, t)
		}
		if idx := k.emit(c, t, pieces, opts.SplitIslands); idx != collection.IndexNone && first == collection.IndexNone {
			first = idx
		}
	}
	return first, nil
}

func (k *Kernel) voronoiPieces(cells *kernel.PlanarCells, m geom.Mat, half float64, t target) [][]shell {
	var pieces [][]shell
	for i := range cells.Sites {
		planes := cells.VoronoiCell(i)
		if planes == nil {
			continue
		}
		piece := clipAll(t.shells, toLocal(m, offset(planes, -half)), t.eps, t.thin, t.capMat)
		if len(piece) > 0 {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

func (k *Kernel) planePieces(cells *kernel.PlanarCells, m geom.Mat, half float64, t target) [][]shell {
	pieces := [][]shell{t.shells}
	for _, p := range cells.Planes {
		inner := geom.TransformPlane(m, p.Offset(-half))
		outer := geom.TransformPlane(m, p.Flip().Offset(-half))
		next := make([][]shell, 0, 2*len(pieces))
		for _, piece := range pieces {
			if in := clipAll(piece, []geom.Plane{inner}, t.eps, t.thin, t.capMat); len(in) > 0 {
				next = append(next, in)
			}
			if out := clipAll(piece, []geom.Plane{outer}, t.eps, t.thin, t.capMat); len(out) > 0 {
				next = append(next, out)
			}
		}
		pieces = next
	}
	return pieces
}

// convexPieces yields one piece per explicit cell plus whatever of the bone
// no cell covers.
func (k *Kernel) convexPieces(cells *kernel.PlanarCells, m geom.Mat, half float64, t target) [][]shell {
	var pieces [][]shell
	rest := t.shells
	for _, cell := range cells.Cells {
		piece := clipAll(t.shells, toLocal(m, offset(cell, -half)), t.eps, t.thin, t.capMat)
		if len(piece) == 0 {
			continue
		}
		pieces = append(pieces, piece)
		if len(rest) > 0 {
			rest = subtractAll(rest, toLocal(m, offset(cell, half)), t.eps, t.thin, t.capMat)
		}
	}
	if len(rest) > 0 {
		pieces = append(pieces, rest)
	}
	return pieces
}

// hull returns the supporting planes of the mesh's convex faces in world
// space.
func hull(mesh *kernel.Mesh, place geom.Mat) ([]geom.Plane, geom.Box) {
	n := mesh.VertexCount()
	pts := make([]geom.Vec, n)
	for i := range n {
		pts[i] = geom.TransformPosition(place, mesh.Vertex(i))
	}
	box := geom.BoxFromPoints(pts)
	tol := 1e-6 * math.Max(1, geom.Length(box.Size()))
	mirrored := place.Det() < 0
	var planes []geom.Plane
	for i := range mesh.TriangleCount() {
		a := pts[mesh.Indices[3*i]]
		b := pts[mesh.Indices[3*i+1]]
		c := pts[mesh.Indices[3*i+2]]
		p, ok := geom.PlaneFromPoints(a, b, c)
		if !ok {
			continue
		}
		if mirrored {
			p = p.Flip()
		}
		supporting := true
		for _, v := range pts {
			if p.SignedDistance(v) > tol {
				supporting = false
				break
			}
		}
		if !supporting {
			continue
		}
		dup := false
		for _, q := range planes {
			if geom.Dot(p.Normal, q.Normal) > 1-1e-9 && math.Abs(p.D-q.D) <= tol {
				dup = true
				break
			}
		}
		if !dup {
			planes = append(planes, p)
		}
	}
	return planes, box
}

// CutWithMesh splits each rigid bone into the part inside the cutting
// mesh and the part outside it. The mesh is placed by opts.Transform; only
// its convex hull takes part in the cut.
func (k *Kernel) CutWithMesh(mesh *kernel.Mesh, c *collection.Collection, bones []int, opts kernel.CutOptions) (int, error) {
	if mesh == nil || mesh.IsEmpty() {
		return collection.IndexNone, kernel.ErrEmptyMesh
	}
	world, box := hull(mesh, opts.Transform.Matrix())
	if len(world) < 4 {
		return collection.IndexNone, fmt.Errorf("%w: %q has no closed convex hull", kernel.ErrEmptyMesh, mesh.Name)
	}
	global := c.GlobalMatrices()
	half := opts.Grout / 2
	first := collection.IndexNone
	for _, t := range k.targets(c, bones) {
		if !c.WorldBounds(t.bone, global).Intersects(box) {
			continue
		}
		inside := clipAll(t.shells, toLocal(t.toLocal, offset(world, -half)), t.eps, t.thin, t.capMat)
		outside := subtractAll(t.shells, toLocal(t.toLocal, offset(world, half)), t.eps, t.thin, t.capMat)
		if len(inside) == 0 || len(outside) == 0 {
			continue
		}
		pieces := [][]shell{inside, outside}
		if idx := k.emit(c, t, pieces, opts.SplitIslands); idx != collection.IndexNone && first == collection.IndexNone {
			first = idx
		}
	}
	return first, nil
}

// emit writes pieces as rigid children of the target bone and turns the
// bone into a cluster. It returns the first new bone, or IndexNone when
// the bone was left whole.
func (k *Kernel) emit(c *collection.Collection, t target, pieces [][]shell, split bool) int {
	if split {
		var out [][]shell
		for _, p := range pieces {
			out = append(out, islands(p, t.eps)...)
		}
		pieces = out
	}
	var meshes []collection.MeshData
	for _, p := range pieces {
		if mesh := toMesh(p, t.eps); mesh.NumTriangles() > 0 {
			meshes = append(meshes, mesh)
		}
	}
	if len(meshes) < 2 {
		return collection.IndexNone
	}
	name := c.Strings(collection.AttrBoneName, collection.GroupTransform)[t.bone]
	first := collection.IndexNone
	for i, mesh := range meshes {
		b := c.AddBone(t.bone, geom.Identity(), collection.SimRigid, fmt.Sprintf("%s_%d", name, i))
		c.AppendGeometry(b, mesh)
		if first == collection.IndexNone {
			first = b
		}
	}
	c.MakeCluster(t.bone)
	logging.Debug("bone fractured", "bone", t.bone, "pieces", len(meshes), "first", first)
	return first
}

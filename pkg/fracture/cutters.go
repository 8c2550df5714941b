package fracture

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/random"
	"github.com/chazu/splinter/pkg/selection"
)

var (
	ErrEmptyBounds = errors.New("fracture: bounds have no volume")
	ErrNoMeshes    = errors.New("fracture: no cutting meshes")
	ErrNoPrimitive = errors.New("fracture: no primitive generator")
)

// bounds returns b, or the collection's bounds when b is nil.
func bounds(c *collection.Collection, b *geom.Box) (geom.Box, error) {
	box := c.BoundingBox()
	if b != nil {
		box = *b
	}
	if !box.IsValid() || box.Volume() <= 0 {
		return box, ErrEmptyBounds
	}
	return box, nil
}

// VoronoiOptions configures VoronoiFracture.
type VoronoiOptions struct {
	Common
	// Bounds limits the cells; nil means the collection's bounds.
	Bounds    *geom.Box
	Transform geom.Transform
	Noise     kernel.NoiseSettings
}

// VoronoiFracture cuts the selected bones into the Voronoi cells of sites,
// given in world space.
func (e *Engine) VoronoiFracture(c *collection.Collection, sel *selection.Selection, sites []geom.Vec, o VoronoiOptions) Result {
	return e.run("voronoi", c, sel, o.Common, func(work *collection.Collection, bones []int) (int, error) {
		box, err := bounds(work, o.Bounds)
		if err != nil {
			return collection.IndexNone, err
		}
		cells, err := kernel.VoronoiCells(sites, VoronoiBounds(box, sites, o.Grout, o.Noise))
		if err != nil {
			return collection.IndexNone, err
		}
		cells.Noise = o.Noise
		opts := o.cutOptions()
		opts.Transform = o.Transform
		return e.Cutter.CutWithPlanarCells(cells, work, bones, opts)
	})
}

// PlaneOptions configures PlaneCutter.
type PlaneOptions struct {
	Common
	Bounds *geom.Box
	// NumPlanes random planes are placed inside Bounds unless Planes is
	// set.
	NumPlanes int
	Planes    []geom.Plane
	Noise     kernel.NoiseSettings
}

// PlaneCutter cuts the selected bones with planes.
func (e *Engine) PlaneCutter(c *collection.Collection, sel *selection.Selection, o PlaneOptions) Result {
	return e.run("plane", c, sel, o.Common, func(work *collection.Collection, bones []int) (int, error) {
		planes := o.Planes
		if len(planes) == 0 {
			box, err := bounds(work, o.Bounds)
			if err != nil {
				return collection.IndexNone, err
			}
			planes = SlicePlanes(GenerateSliceTransforms(box, o.NumPlanes, o.Seed))
		}
		cells, err := kernel.PlaneCells(planes)
		if err != nil {
			return collection.IndexNone, err
		}
		cells.Noise = o.Noise
		return e.Cutter.CutWithPlanarCells(cells, work, bones, o.cutOptions())
	})
}

// SliceOptions configures SliceCutter.
type SliceOptions struct {
	Common
	SliceGrid
	Bounds *geom.Box
	Noise  kernel.NoiseSettings
}

// SliceCutter cuts the selected bones with a grid of slices. Proximity is
// cleared first since the slices invalidate it.
func (e *Engine) SliceCutter(c *collection.Collection, sel *selection.Selection, o SliceOptions) Result {
	return e.run("slice", c, sel, o.Common, func(work *collection.Collection, bones []int) (int, error) {
		box, err := bounds(work, o.Bounds)
		if err != nil {
			return collection.IndexNone, err
		}
		cells, err := kernel.PlaneCells(SlicePlanes(GenerateSliceGridTransforms(box, o.SliceGrid, o.Seed)))
		if err != nil {
			return collection.IndexNone, err
		}
		cells.Noise = o.Noise
		work.ClearProximity()
		return e.Cutter.CutWithPlanarCells(cells, work, bones, o.cutOptions())
	})
}

// BrickOptions configures BrickCutter.
type BrickOptions struct {
	Common
	Bounds *geom.Box
	// Transform places the brick frame; bricks run along its X axis.
	Transform geom.Transform
	Bond      Bond
	Length    float64
	Height    float64
	Depth     float64
}

// BrickCutter cuts the selected bones into bricks. Grout shrinks every
// brick rather than the cells, so the kernel cuts without grout.
func (e *Engine) BrickCutter(c *collection.Collection, sel *selection.Selection, o BrickOptions) Result {
	return e.run("brick", c, sel, o.Common, func(work *collection.Collection, bones []int) (int, error) {
		world, err := bounds(work, o.Bounds)
		if err != nil {
			return collection.IndexNone, err
		}
		local := world.TransformBy(geom.Inverse(o.Transform.Matrix()))
		want := geom.V(o.Length, o.Depth, o.Height)
		if CalculateNumBricks(want, local.Size()) < 0 {
			return collection.IndexNone, fmt.Errorf("fracture: brick size %v is not positive", want)
		}
		size := ClampBrickSize(want, local.Size())
		if size != want {
			logging.Warn("fracture: brick count clamped", "requested", want, "used", size, "max", MaxBricks)
		}
		transforms, _ := GenerateBrickTransforms(local, o.Bond, size)

		half := geom.Scale(0.5, size)
		hg := geom.Clamp(0.5*o.Grout, 0, geom.MinComponent(half)*0.98)
		brick := geom.NewBox(geom.Sub(geom.Scale(-1, half), geom.Splat(hg)), geom.Sub(half, geom.Splat(hg)))
		boxes := make([]kernel.OrientedBox, len(transforms))
		for i, t := range transforms {
			boxes[i] = kernel.OrientedBox{Box: brick, Transform: t}
		}
		cells, err := kernel.BoxCells(boxes, o.Grout <= geom.SmallNumber)
		if err != nil {
			return collection.IndexNone, err
		}
		opts := o.cutOptions()
		opts.Grout = 0
		opts.Transform = o.Transform
		return e.Cutter.CutWithPlanarCells(cells, work, bones, opts)
	})
}

// UniformOptions configures UniformFracture.
type UniformOptions struct {
	Common
	MinSites, MaxSites int
	// GroupFracture scatters one site set over the bounds of all selected
	// bones; otherwise every bone gets its own sites seeded by
	// Seed+bone.
	GroupFracture bool
	Noise         kernel.NoiseSettings
}

// UniformFracture cuts the selected bones into Voronoi cells of sites
// scattered uniformly over their bounds.
func (e *Engine) UniformFracture(c *collection.Collection, sel *selection.Selection, o UniformOptions) Result {
	return e.run("uniform", c, sel, o.Common, func(work *collection.Collection, bones []int) (int, error) {
		global := work.GlobalMatrices()
		cut := func(box geom.Box, seed int64, targets []int) (int, error) {
			sites := GenerateVoronoiSites(box, o.MinSites, o.MaxSites, seed)
			cells, err := kernel.VoronoiCells(sites, VoronoiBounds(box, sites, o.Grout, o.Noise))
			if err != nil {
				return collection.IndexNone, err
			}
			cells.Noise = o.Noise
			return e.Cutter.CutWithPlanarCells(cells, work, targets, o.cutOptions())
		}
		if o.GroupFracture {
			box := geom.EmptyBox()
			for _, b := range bones {
				box = box.Union(work.WorldBounds(b, global))
			}
			return cut(box, o.Seed, bones)
		}
		first := collection.IndexNone
		for _, b := range bones {
			idx, err := cut(work.WorldBounds(b, global), o.Seed+int64(b), []int{b})
			if err != nil {
				logging.Debug("fracture: uniform skipped bone", "bone", b, "err", err)
				continue
			}
			if idx != collection.IndexNone && first == collection.IndexNone {
				first = idx
			}
		}
		return first, nil
	})
}

// MeshSelection says which meshes cut at each placement.
type MeshSelection int

const (
	// MeshAll cuts with every mesh at every placement.
	MeshAll MeshSelection = iota
	// MeshRandom cuts with one mesh drawn from the stream.
	MeshRandom
	// MeshSequential cycles through the meshes.
	MeshSequential
)

// MeshArrayOptions configures MeshArrayCutter.
type MeshArrayOptions struct {
	Common
	Mode MeshSelection
}

// MeshArrayCutter cuts the selected bones with meshes at each placement
// in turn. Fragments made by one placement are cut again by later ones.
func (e *Engine) MeshArrayCutter(c *collection.Collection, sel *selection.Selection, meshes []*kernel.Mesh, placements []geom.Transform, o MeshArrayOptions) Result {
	return e.run("mesh", c, sel, o.Common, func(work *collection.Collection, bones []int) (int, error) {
		if len(meshes) == 0 {
			return collection.IndexNone, ErrNoMeshes
		}
		s := random.New(o.Seed)
		pending := slices.Clone(bones)
		first := collection.IndexNone
		for pi, place := range placements {
			var use []*kernel.Mesh
			switch o.Mode {
			case MeshRandom:
				use = []*kernel.Mesh{meshes[s.RandHelper(len(meshes))]}
			case MeshSequential:
				use = []*kernel.Mesh{meshes[pi%len(meshes)]}
			default:
				use = meshes
			}
			for _, m := range use {
				if len(pending) == 0 {
					break
				}
				opts := o.cutOptions()
				opts.Transform = place
				idx, err := e.Cutter.CutWithMesh(m, work, pending, opts)
				if err != nil {
					return collection.IndexNone, err
				}
				if idx == collection.IndexNone {
					continue
				}
				if first == collection.IndexNone {
					first = idx
				}
				pending = slices.DeleteFunc(pending, func(b int) bool { return !work.IsVisible(b) })
				for b := idx; b < work.NumTransforms(); b++ {
					pending = append(pending, b)
				}
			}
		}
		if first != collection.IndexNone {
			pruneIntermediate(work, first)
		}
		return first, nil
	})
}

// pruneIntermediate removes bones from first onward that ended up as
// clusters, lifting their rigid descendants to the nearest surviving
// ancestor.
func pruneIntermediate(c *collection.Collection, first int) {
	var pruned []int
	gone := map[int]bool{}
	for b := first; b < c.NumTransforms(); b++ {
		if !c.IsRigid(b) {
			pruned = append(pruned, b)
			gone[b] = true
		}
	}
	if len(pruned) == 0 {
		return
	}
	parents := c.Parents()
	for b := first; b < c.NumTransforms(); b++ {
		if gone[b] || !gone[parents[b]] {
			continue
		}
		p := parents[b]
		for p != collection.IndexNone && gone[p] {
			p = parents[p]
		}
		c.SetParent(b, p)
	}
	c.RemoveTransforms(pruned)
}

// MeshCutter cuts the selected bones with a single placed mesh.
func (e *Engine) MeshCutter(c *collection.Collection, sel *selection.Selection, mesh *kernel.Mesh, placement geom.Transform, o Common) Result {
	var meshes []*kernel.Mesh
	if mesh != nil {
		meshes = []*kernel.Mesh{mesh}
	}
	return e.MeshArrayCutter(c, sel, meshes, []geom.Transform{placement}, MeshArrayOptions{Common: o, Mode: MeshAll})
}

// Shape names a primitive cutting mesh.
type Shape int

const (
	ShapeBox Shape = iota
	ShapeSphere
	ShapeCylinder
)

var shapeNames = []string{"box", "sphere", "cylinder"}

func (s Shape) String() string {
	if int(s) >= 0 && int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape resolves a shape name as printed by String.
func ParseShape(s string) (Shape, error) {
	for i, n := range shapeNames {
		if n == s {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("fracture: unknown shape %q", s)
}

// CuttingMesh builds a primitive cutting mesh. For a sphere size.X is the
// radius; for a cylinder size.X is the radius and size.Z the height.
func (e *Engine) CuttingMesh(shape Shape, size geom.Vec) (*kernel.Mesh, error) {
	if e.Primitives == nil {
		return nil, ErrNoPrimitive
	}
	switch shape {
	case ShapeSphere:
		return e.Primitives.Sphere(size.X)
	case ShapeCylinder:
		return e.Primitives.Cylinder(size.Z, size.X)
	default:
		return e.Primitives.Box(size)
	}
}

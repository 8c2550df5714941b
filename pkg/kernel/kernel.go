// Package kernel defines the geometric cut kernel the fracture operators
// delegate to: cutting bones of a collection by planar cells or by a
// placed mesh, and computing the proximity relation between geometry.
// Implementations (convex) do the geometry and write new bones and
// geometry into the collection; they never touch bones outside the index
// list they are given. The primitive generator (sdfx) builds cutting
// meshes behind the Primitives interface.
package kernel

import (
	"errors"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
)

var (
	ErrNoSites    = errors.New("kernel: no sites")
	ErrEmptyCells = errors.New("kernel: no cells")
	ErrEmptyMesh  = errors.New("kernel: empty cutting mesh")
)

// NoiseSettings perturbs cut surfaces. Amplitude is in world units;
// octave i contributes Amplitude*Persistence^i.
type NoiseSettings struct {
	Amplitude    float64
	Frequency    float64
	Octaves      int
	Persistence  float64
	Lacunarity   float64
	PointSpacing float64
}

// Enabled reports whether the noise changes anything.
func (n NoiseSettings) Enabled() bool {
	return n.Amplitude != 0 && n.Octaves > 0
}

// MaxDisplacement bounds how far noise can move a surface.
func (n NoiseSettings) MaxDisplacement() float64 {
	total := 0.0
	amp := n.Amplitude
	for i := 0; i < n.Octaves; i++ {
		if amp < 0 {
			total -= amp
		} else {
			total += amp
		}
		amp *= n.Persistence
	}
	return total
}

// CutOptions carries the per-call knobs of a cut.
type CutOptions struct {
	// Grout is the gap left between neighbouring fragments.
	Grout float64
	// SampleSpacing is the target spacing of collision sample points on
	// new surfaces.
	SampleSpacing float64
	Seed          int64
	// Transform places the cells or the cutting mesh in world space.
	Transform geom.Transform
	// SplitIslands separates disconnected pieces of one cell into
	// separate bones.
	SplitIslands bool
}

// Cutter is the geometric cut kernel.
//
// Both cut methods return the index of the first transform they created,
// or IndexNone when nothing was cut. Bones that were cut become clusters
// whose children are the fragments; their own geometry is removed. A
// non-nil error means the kernel could not run at all.
type Cutter interface {
	CutWithPlanarCells(cells *PlanarCells, c *collection.Collection, bones []int, opts CutOptions) (int, error)
	CutWithMesh(mesh *Mesh, c *collection.Collection, bones []int, opts CutOptions) (int, error)
	ComputeProximity(c *collection.Collection) error
}

// Primitives builds closed cutting meshes centred on the origin.
type Primitives interface {
	Box(size geom.Vec) (*Mesh, error)
	Sphere(radius float64) (*Mesh, error)
	Cylinder(height, radius float64) (*Mesh, error)
}

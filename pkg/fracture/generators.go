package fracture

import (
	"fmt"
	"math"

	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/random"
)

// GenerateVoronoiSites scatters between minSites and maxSites points
// (inclusive, count drawn from the stream) uniformly inside box.
func GenerateVoronoiSites(box geom.Box, minSites, maxSites int, seed int64) []geom.Vec {
	s := random.New(seed)
	n := s.RandRange(minSites, maxSites)
	if n <= 0 || !box.IsValid() {
		return nil
	}
	size := box.Size()
	sites := make([]geom.Vec, 0, n)
	for range n {
		f := geom.V(s.FRand(), s.FRand(), s.FRand())
		sites = append(sites, geom.Add(box.Min, geom.Mul(f, size)))
	}
	return sites
}

// VoronoiBounds returns the region Voronoi cells are clipped to: box and
// sites together, padded by the grout and the largest noise displacement.
func VoronoiBounds(box geom.Box, sites []geom.Vec, grout float64, noise kernel.NoiseSettings) geom.Box {
	b := box
	for _, s := range sites {
		b = b.Extend(s)
	}
	return b.ExpandBy(grout + noise.MaxDisplacement() + geom.SmallNumber)
}

// GenerateSliceTransforms places n planes inside box at random positions
// with random pitch and yaw. The plane normal is each transform's Z axis.
func GenerateSliceTransforms(box geom.Box, n int, seed int64) []geom.Transform {
	s := random.New(seed)
	out := make([]geom.Transform, 0, max(n, 0))
	for range n {
		pos := s.PointInBox(box)
		rot := geom.Rotator{Pitch: s.FRand() * 360, Yaw: s.FRand() * 360}
		out = append(out, geom.NewTransform(rot, pos, geom.Splat(1)))
	}
	return out
}

// SliceGrid describes evenly spaced slices along each axis.
type SliceGrid struct {
	SlicesX, SlicesY, SlicesZ int
	// AngleVariation is the largest tilt of a slice, in degrees.
	AngleVariation float64
	// OffsetVariation is the largest displacement of a slice.
	OffsetVariation float64
}

// GenerateSliceGridTransforms spaces SlicesX planes normal to X evenly
// through box (then Y, then Z), each tilted and nudged at random within
// the variations.
func GenerateSliceGridTransforms(box geom.Box, g SliceGrid, seed int64) []geom.Transform {
	s := random.New(seed)
	size := box.Size()
	center := box.Center()
	maxAngle := geom.Radians(g.AngleVariation)
	var out []geom.Transform

	emit := func(base geom.Quat, pos geom.Vec) {
		pos = geom.Add(pos, geom.Scale(s.GetFraction()*g.OffsetVariation, s.VRand()))
		t := geom.Transform{Translation: pos, Rotation: base, Scale: geom.Splat(1)}
		t = t.ConcatenateRotation(geom.AxisAngle(geom.V(1, 0, 0), s.FRandRange(0, maxAngle)))
		t = t.ConcatenateRotation(geom.AxisAngle(geom.V(0, 1, 0), s.FRandRange(0, maxAngle)))
		out = append(out, t)
	}

	xRot := geom.AxisAngle(geom.V(0, 1, 0), math.Pi/2)
	step := size.X / float64(g.SlicesX+1)
	for i := range g.SlicesX {
		emit(xRot, geom.V(box.Min.X+step*float64(i+1), center.Y, center.Z))
	}
	yRot := geom.AxisAngle(geom.V(1, 0, 0), math.Pi/2)
	step = size.Y / float64(g.SlicesY+1)
	for i := range g.SlicesY {
		emit(yRot, geom.V(center.X, box.Min.Y+step*float64(i+1), center.Z))
	}
	step = size.Z / float64(g.SlicesZ+1)
	for i := range g.SlicesZ {
		emit(geom.IdentityQuat(), geom.V(center.X, center.Y, box.Min.Z+step*float64(i+1)))
	}
	return out
}

// SlicePlanes converts slice transforms to planes through each
// translation with the transform's Z axis as normal.
func SlicePlanes(ts []geom.Transform) []geom.Plane {
	out := make([]geom.Plane, len(ts))
	for i, t := range ts {
		out[i] = geom.PlaneFromPointNormal(t.Translation, t.UnitAxis(geom.V(0, 0, 1)))
	}
	return out
}

// Bond is a brick laying pattern.
type Bond int

const (
	// BondStretcher offsets every other course by half a brick.
	BondStretcher Bond = iota
	// BondStack lines every course up.
	BondStack
	// BondEnglish alternates stretcher and header courses.
	BondEnglish
	// BondHeader lays every brick end-on, courses offset.
	BondHeader
	// BondFlemish alternates stretchers and headers within each course.
	BondFlemish
)

var bondNames = []string{"stretcher", "stack", "english", "header", "flemish"}

func (b Bond) String() string {
	if int(b) >= 0 && int(b) < len(bondNames) {
		return bondNames[b]
	}
	return fmt.Sprintf("Bond(%d)", int(b))
}

// ParseBond resolves a bond name as printed by String.
func ParseBond(s string) (Bond, error) {
	for i, n := range bondNames {
		if n == s {
			return Bond(i), nil
		}
	}
	return 0, fmt.Errorf("fracture: unknown bond %q", s)
}

// MaxBricks caps the number of bricks one cut may generate.
const MaxBricks = 8192

// headerRotation turns a brick end-on: 90 degrees about Z.
var headerRotation = geom.AxisAngle(geom.V(0, 0, 1), 1.5708)

// CalculateNumBricks returns how many bricks of size (length, depth,
// height) along (X, Y, Z) it takes to cover extents, or -1 for a
// non-positive dimension.
func CalculateNumBricks(size, extents geom.Vec) int {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 || extents.X < 0 || extents.Y < 0 || extents.Z < 0 {
		return -1
	}
	n := math.Ceil(extents.X/size.X) * math.Ceil(extents.Y/size.Y) * math.Ceil(extents.Z/size.Z)
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// ClampBrickSize grows size until no more than MaxBricks bricks cover
// extents: doubling until under the cap, then ten halving steps back
// towards the requested size. It returns size unchanged when no clamping
// is needed.
func ClampBrickSize(size, extents geom.Vec) geom.Vec {
	if n := CalculateNumBricks(size, extents); n < 0 || n <= MaxBricks {
		return size
	}
	lo, hi := 1.0, 2.0
	for CalculateNumBricks(geom.Scale(hi, size), extents) > MaxBricks {
		lo, hi = hi, hi*2
	}
	for range 10 {
		mid := 0.5 * (lo + hi)
		if CalculateNumBricks(geom.Scale(mid, size), extents) > MaxBricks {
			lo = mid
		} else {
			hi = mid
		}
	}
	return geom.Scale(hi, size)
}

// Edge is a line segment, used to draw brick outlines.
type Edge struct {
	A, B geom.Vec
}

// GenerateBrickTransforms lays bricks of size (length, depth, height)
// over box in the given bond. Each transform places the centre of a brick;
// headers carry a quarter turn about Z. Edges outline every brick.
func GenerateBrickTransforms(box geom.Box, bond Bond, size geom.Vec) ([]geom.Transform, []Edge) {
	if CalculateNumBricks(size, box.Size()) < 0 {
		return nil, nil
	}
	ext := box.Size()
	length, depth, height := size.X, size.Y, size.Z
	var out []geom.Transform
	stretcher := func(pos geom.Vec) {
		out = append(out, geom.Translation(geom.Add(box.Min, pos)))
	}
	header := func(pos geom.Vec) {
		t := geom.Translation(geom.Add(box.Min, pos))
		t.Rotation = headerRotation
		out = append(out, t)
	}
	halfL, halfD, halfH := length/2, depth/2, height/2

	switch bond {
	case BondStack:
		for y := 0.0; y <= ext.Y; y += depth {
			for z := halfH; z <= ext.Z+halfH; z += height {
				for x := 0.0; x <= ext.X; x += length {
					stretcher(geom.V(x+halfL, y+halfD, z))
				}
			}
		}
	case BondStretcher:
		oddY := false
		for y := 0.0; y <= ext.Y; y += depth {
			odd := false
			for z := halfH; z <= ext.Z+halfH; z += height {
				for x := 0.0; x <= ext.X+halfL; x += length {
					if odd != oddY {
						stretcher(geom.V(x, y+halfD, z))
					} else {
						stretcher(geom.V(x+halfL, y+halfD, z))
					}
				}
				odd = !odd
			}
			oddY = !oddY
		}
	case BondHeader:
		for y := 0.0; y <= ext.Y; y += length {
			odd := false
			for z := halfH; z <= ext.Z+halfH; z += height {
				for x := 0.0; x <= ext.X+halfD; x += depth {
					if odd {
						header(geom.V(x, y+halfL, z))
					} else {
						header(geom.V(x+halfD, y+halfL, z))
					}
				}
				odd = !odd
			}
		}
	case BondEnglish:
		odd := false
		for z := halfH; z <= ext.Z+halfH; z += height {
			if odd {
				for y := 0.0; y <= ext.Y; y += length {
					for x := 0.0; x <= ext.X; x += depth {
						header(geom.V(x+halfD, y+halfL, z))
					}
				}
			} else {
				for y := 0.0; y <= ext.Y; y += depth {
					for x := 0.0; x <= ext.X; x += length {
						stretcher(geom.V(x+halfL, y+halfD, z))
					}
				}
			}
			odd = !odd
		}
	case BondFlemish:
		// One stretcher plus one header per unit along X.
		unit := length + depth
		odd := false
		for y := 0.0; y <= ext.Y; y += length {
			for z := halfH; z <= ext.Z+halfH; z += height {
				shift := 0.0
				if odd {
					shift = -unit / 2
				}
				for x := shift; x <= ext.X; x += unit {
					for d := 0.0; d < length; d += depth {
						stretcher(geom.V(x+halfL, y+d+halfD, z))
					}
					header(geom.V(x+length+halfD, y+halfL, z))
				}
				odd = !odd
			}
		}
	}
	return out, brickEdges(out, size)
}

func brickEdges(ts []geom.Transform, size geom.Vec) []Edge {
	half := geom.Scale(0.5, size)
	local := geom.NewBox(geom.Scale(-1, half), half).Corners()
	// Corner index bits select the max X, Y, Z component.
	pairs := [12][2]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}, {0, 2}, {1, 3}, {4, 6}, {5, 7}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	out := make([]Edge, 0, 12*len(ts))
	for _, t := range ts {
		m := t.Matrix()
		for _, p := range pairs {
			out = append(out, Edge{A: geom.TransformPosition(m, local[p[0]]), B: geom.TransformPosition(m, local[p[1]])})
		}
	}
	return out
}

// Distribution says how mesh placements are spread over the bounds.
type Distribution int

const (
	// DistributionUniformRandom places meshes at random points.
	DistributionUniformRandom Distribution = iota
	// DistributionGrid places meshes at the centres of a grid.
	DistributionGrid
)

// MeshScatter configures GenerateMeshTransforms.
type MeshScatter struct {
	Distribution Distribution
	// Number is the placement count for the random distribution.
	Number              int
	GridX, GridY, GridZ int
	// Variability moves each placement by up to this distance.
	Variability        float64
	MinScale, MaxScale float64
	RandomOrientation  bool
	// Orientation ranges, in degrees, as +/- limits.
	RollRange, PitchRange, YawRange float64
}

// GenerateMeshTransforms places cutting meshes over box.
func GenerateMeshTransforms(box geom.Box, o MeshScatter, seed int64) []geom.Transform {
	s := random.New(seed)
	var pts []geom.Vec
	switch o.Distribution {
	case DistributionGrid:
		nx, ny, nz := max(1, o.GridX), max(1, o.GridY), max(1, o.GridZ)
		size := box.Size()
		for z := range nz {
			for y := range ny {
				for x := range nx {
					f := geom.V((float64(x)+0.5)/float64(nx), (float64(y)+0.5)/float64(ny), (float64(z)+0.5)/float64(nz))
					pts = append(pts, geom.Add(box.Min, geom.Mul(f, size)))
				}
			}
		}
	default:
		for range o.Number {
			pts = append(pts, s.PointInBox(box))
		}
	}
	minScale, maxScale := o.MinScale, o.MaxScale
	if minScale <= 0 && maxScale <= 0 {
		minScale, maxScale = 1, 1
	}
	out := make([]geom.Transform, 0, len(pts))
	for _, p := range pts {
		p = geom.Add(p, geom.Scale(s.FRand()*o.Variability, s.VRand()))
		scale := s.FRandRange(minScale, maxScale)
		var rot geom.Rotator
		if o.RandomOrientation {
			rot.Pitch = s.FRandRange(-o.PitchRange, o.PitchRange)
			rot.Yaw = s.FRandRange(-o.YawRange, o.YawRange)
			rot.Roll = s.FRandRange(-o.RollRange, o.RollRange)
		}
		out = append(out, geom.NewTransform(rot, p, geom.Splat(scale)))
	}
	return out
}

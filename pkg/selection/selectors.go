package selection

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/random"
)

// ----------------------------------------------------------------------------
// Whole-collection selectors
// ----------------------------------------------------------------------------

// SelectAll selects every bone.
func SelectAll(c *collection.Collection) Selection { return All(c.NumTransforms()) }

// SelectNone returns an empty bone selection.
func SelectNone(c *collection.Collection) Selection { return New(c.NumTransforms()) }

// SelectRandom selects each bone whose draw from a stream seeded by seed
// falls below threshold.
func SelectRandom(c *collection.Collection, seed int64, threshold float64) Selection {
	s := SelectNone(c)
	r := random.New(seed)
	for i := range c.NumTransforms() {
		if r.FRand() < threshold {
			s.Select(i)
		}
	}
	return s
}

// SelectRoot selects bones without a parent.
func SelectRoot(c *collection.Collection) Selection {
	s := SelectNone(c)
	for _, r := range c.Roots() {
		s.Select(r)
	}
	return s
}

// SelectLeaf selects rigid bones.
func SelectLeaf(c *collection.Collection) Selection {
	s := SelectNone(c)
	for i := range c.NumTransforms() {
		if c.IsRigid(i) {
			s.Select(i)
		}
	}
	return s
}

// SelectCluster selects clustered bones.
func SelectCluster(c *collection.Collection) Selection {
	s := SelectNone(c)
	for i := range c.NumTransforms() {
		if c.IsCluster(i) {
			s.Select(i)
		}
	}
	return s
}

// SelectTargetLevel selects the bones exactly at level, optionally
// skipping embedded bones.
func SelectTargetLevel(c *collection.Collection, level int, skipEmbedded bool) Selection {
	s := SelectNone(c)
	levels := c.Levels()
	sim := c.SimulationTypes()
	for i, l := range levels {
		if l != level || (skipEmbedded && sim[i] == collection.SimEmbedded) {
			continue
		}
		s.Select(i)
	}
	return s
}

// ----------------------------------------------------------------------------
// Selection-relative selectors
// ----------------------------------------------------------------------------

// SelectParent replaces each selected bone by its parent. Roots stay
// selected.
func SelectParent(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupTransform); err != nil {
		return Selection{}, err
	}
	out := SelectNone(c)
	parents := c.Parents()
	for _, i := range in.AsArray() {
		if p := parents[i]; p != collection.IndexNone {
			out.Select(p)
		} else {
			out.Select(i)
		}
	}
	return out, nil
}

// SelectChildren replaces each selected bone that has children by its
// children.
func SelectChildren(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupTransform); err != nil {
		return Selection{}, err
	}
	out := SelectNone(c)
	children := c.Children()
	for _, i := range in.AsArray() {
		if len(children[i]) == 0 {
			out.Select(i)
			continue
		}
		for _, ch := range children[i] {
			out.Select(ch)
		}
	}
	return out, nil
}

// SelectSiblings adds every bone that shares a parent with a selected bone.
func SelectSiblings(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupTransform); err != nil {
		return Selection{}, err
	}
	out := in.Clone()
	parents := c.Parents()
	children := c.Children()
	roots := c.Roots()
	for _, i := range in.AsArray() {
		sibs := roots
		if p := parents[i]; p != collection.IndexNone {
			sibs = children[p]
		}
		for _, s := range sibs {
			out.Select(s)
		}
	}
	return out, nil
}

// SelectLevel selects every bone on a level that holds a selected bone.
func SelectLevel(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupTransform); err != nil {
		return Selection{}, err
	}
	levels := c.Levels()
	want := map[int]bool{}
	for _, i := range in.AsArray() {
		want[levels[i]] = true
	}
	out := SelectNone(c)
	for i, l := range levels {
		if want[l] {
			out.Select(i)
		}
	}
	return out, nil
}

// SelectContact adds the bones whose geometry touches a selected bone.
func SelectContact(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupTransform); err != nil {
		return Selection{}, err
	}
	out := in.Clone()
	neighbors := c.BoneNeighbors()
	for _, i := range in.AsArray() {
		for _, n := range neighbors[i] {
			out.Select(n)
		}
	}
	return out, nil
}

// ByPercentage keeps roughly percent (0..100) of the selected elements,
// chosen by a shuffle seeded by seed.
func ByPercentage(in Selection, percent float64, seed int64) Selection {
	idx := in.AsArray()
	keep := int(math.Round(float64(len(idx)) * geom.Clamp(percent, 0, 100) / 100))
	random.New(seed).Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	out := New(in.Len())
	for _, i := range idx[:keep] {
		out.Select(i)
	}
	return out
}

// ----------------------------------------------------------------------------
// Range selectors
// ----------------------------------------------------------------------------

// Range is a closed or open interval test.
type Range struct {
	Min, Max  float64
	Inclusive bool
	// Inside selects values within the interval; false selects values
	// outside it.
	Inside bool
}

func (r Range) test(v float64) bool {
	var in bool
	if r.Inclusive {
		in = v >= r.Min && v <= r.Max
	} else {
		in = v > r.Min && v < r.Max
	}
	return in == r.Inside
}

// SelectByVolume selects rigid bones and clusters whose volume passes r.
func SelectByVolume(c *collection.Collection, r Range) Selection {
	s := SelectNone(c)
	for i, v := range c.Volumes() {
		if c.SimulationTypes()[i] != collection.SimEmbedded && r.test(v) {
			s.Select(i)
		}
	}
	return s
}

// SelectBySize selects bones whose size, the cube root of volume, passes
// r. With relative set, sizes are divided by the largest size first.
func SelectBySize(c *collection.Collection, r Range, relative bool) Selection {
	vols := c.Volumes()
	sizes := make([]float64, len(vols))
	largest := 0.0
	for i, v := range vols {
		sizes[i] = math.Cbrt(v)
		largest = math.Max(largest, sizes[i])
	}
	s := SelectNone(c)
	for i, sz := range sizes {
		if c.SimulationTypes()[i] == collection.SimEmbedded {
			continue
		}
		if relative && largest > 0 {
			sz /= largest
		}
		if r.test(sz) {
			s.Select(i)
		}
	}
	return s
}

// SelectByFloatAttribute selects elements of group whose float attribute
// passes r.
func SelectByFloatAttribute(c *collection.Collection, group, attr string, r Range) (Selection, error) {
	kind, ok := c.AttributeKind(attr, group)
	if !ok || kind != collection.KindFloat {
		return Selection{}, fmt.Errorf("%w: %s.%s is not a float attribute", collection.ErrTypeMismatch, group, attr)
	}
	s := New(c.NumElements(group))
	for i, v := range c.Floats(attr, group) {
		if r.test(v) {
			s.Select(i)
		}
	}
	return s, nil
}

// SelectByIntAttribute selects elements of group whose int attribute
// passes r.
func SelectByIntAttribute(c *collection.Collection, group, attr string, r Range) (Selection, error) {
	kind, ok := c.AttributeKind(attr, group)
	if !ok || kind != collection.KindInt {
		return Selection{}, fmt.Errorf("%w: %s.%s is not an int attribute", collection.ErrTypeMismatch, group, attr)
	}
	s := New(c.NumElements(group))
	for i, v := range c.Ints(attr, group) {
		if r.test(float64(v)) {
			s.Select(i)
		}
	}
	return s, nil
}

// ----------------------------------------------------------------------------
// Explicit index selectors
// ----------------------------------------------------------------------------

// FromIndexArray selects the valid indices of a group of size n. Invalid
// indices are logged and skipped.
func FromIndexArray(n int, indices []int) Selection {
	s := New(n)
	for _, i := range indices {
		if i < 0 || i >= n {
			logging.Warn("invalid index in selection", "index", i, "size", n)
			continue
		}
		s.Select(i)
	}
	return s
}

// Custom parses a space-separated index list for group. Non-numeric tokens
// are ignored; out-of-range indices are logged and skipped.
func Custom(c *collection.Collection, group, text string) Selection {
	n := c.NumElements(group)
	var idx []int
	for _, tok := range strings.Fields(text) {
		v, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		idx = append(idx, v)
	}
	return FromIndexArray(n, idx)
}

// ----------------------------------------------------------------------------
// Spatial selectors
// ----------------------------------------------------------------------------

// SelectCentroidInBox selects bones whose world centroid lies in box, where
// box is placed by xf.
func SelectCentroidInBox(c *collection.Collection, box geom.Box, xf geom.Transform) Selection {
	inv := geom.Inverse(xf.Matrix())
	global := c.GlobalMatrices()
	s := SelectNone(c)
	for i := range c.NumTransforms() {
		p, ok := c.WorldCentroid(i, global)
		if ok && box.Contains(geom.TransformPosition(inv, p)) {
			s.Select(i)
		}
	}
	return s
}

// SelectBoundingBoxInBox selects bones whose world bounds lie entirely in
// box, where box is placed by xf.
func SelectBoundingBoxInBox(c *collection.Collection, box geom.Box, xf geom.Transform) Selection {
	inv := geom.Inverse(xf.Matrix())
	global := c.GlobalMatrices()
	s := SelectNone(c)
	for i := range c.NumTransforms() {
		if c.SimulationTypes()[i] != collection.SimRigid {
			continue
		}
		b := c.WorldBounds(i, global)
		if b.IsValid() && box.ContainsBox(b.TransformBy(inv)) {
			s.Select(i)
		}
	}
	return s
}

// SelectCentroidInSphere selects bones whose world centroid lies within
// radius of center, where center is placed by xf.
func SelectCentroidInSphere(c *collection.Collection, center geom.Vec, radius float64, xf geom.Transform) Selection {
	center = xf.TransformPosition(center)
	global := c.GlobalMatrices()
	s := SelectNone(c)
	for i := range c.NumTransforms() {
		p, ok := c.WorldCentroid(i, global)
		if ok && geom.DistanceSquared(p, center) <= radius*radius {
			s.Select(i)
		}
	}
	return s
}

// SelectBoundingBoxInSphere selects bones whose world bounds lie entirely
// within the sphere.
func SelectBoundingBoxInSphere(c *collection.Collection, center geom.Vec, radius float64, xf geom.Transform) Selection {
	center = xf.TransformPosition(center)
	global := c.GlobalMatrices()
	s := SelectNone(c)
	for i := range c.NumTransforms() {
		if c.SimulationTypes()[i] != collection.SimRigid {
			continue
		}
		b := c.WorldBounds(i, global)
		if !b.IsValid() {
			continue
		}
		inside := true
		for _, corner := range b.Corners() {
			if geom.DistanceSquared(corner, center) > radius*radius {
				inside = false
				break
			}
		}
		if inside {
			s.Select(i)
		}
	}
	return s
}

// SelectVerticesInBox selects bones with vertices inside box: any vertex,
// or every vertex when all is set.
func SelectVerticesInBox(c *collection.Collection, box geom.Box, xf geom.Transform, all bool) Selection {
	inv := geom.Inverse(xf.Matrix())
	global := c.GlobalMatrices()
	s := SelectNone(c)
	for i := range c.NumTransforms() {
		m := c.BoneMesh(i)
		if len(m.Vertices) == 0 {
			continue
		}
		toBox := inv.Mul4(global[i])
		hits := 0
		for _, v := range m.Vertices {
			if box.Contains(geom.TransformPosition(toBox, v)) {
				hits++
			}
		}
		if (all && hits == len(m.Vertices)) || (!all && hits > 0) {
			s.Select(i)
		}
	}
	return s
}

// SelectInternalFaces selects faces tagged internal by a cut.
func SelectInternalFaces(c *collection.Collection) Selection {
	internal := c.Bools(collection.AttrInternal, collection.GroupFaces)
	s := New(len(internal))
	for i, v := range internal {
		if v {
			s.Select(i)
		}
	}
	return s
}

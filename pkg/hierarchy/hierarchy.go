// Package hierarchy provides parent/child queries and repair passes over
// the Transform group of a collection: re-parenting, single-root
// enforcement, dangling-cluster removal, leaf resolution and volume
// weighted centroids.
package hierarchy

import (
	"slices"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/selection"
)

// ParentTransforms moves children under parent and recomputes levels.
// Moves that would create a cycle are skipped.
func ParentTransforms(c *collection.Collection, parent int, children []int) {
	for _, ch := range children {
		if !c.InRange(ch) || ch == parent {
			continue
		}
		if c.InRange(parent) && IsAncestor(c, ch, parent) {
			logging.Warn("skipping re-parent that would form a cycle", "bone", ch, "parent", parent)
			continue
		}
		c.SetParent(ch, parent)
	}
	c.UpdateLevels()
}

// IsAncestor reports whether a is a proper ancestor of b.
func IsAncestor(c *collection.Collection, a, b int) bool {
	parents := c.Parents()
	for p, steps := parents[b], 0; p >= 0 && steps < len(parents); p, steps = parents[p], steps+1 {
		if p == a {
			return true
		}
	}
	return false
}

// Ancestors returns the chain of parents of bone, nearest first.
func Ancestors(c *collection.Collection, bone int) []int {
	parents := c.Parents()
	var out []int
	for p := parents[bone]; p >= 0 && len(out) < len(parents); p = parents[p] {
		out = append(out, p)
	}
	return out
}

// Descendants returns every bone below bone, depth first.
func Descendants(c *collection.Collection, bone int) []int {
	children := c.Children()
	var out []int
	seen := map[int]bool{bone: true}
	stack := slices.Clone(children[bone])
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
		stack = append(stack, children[i]...)
	}
	return out
}

// RigidDescendants returns the rigid bones reached from bone without
// descending past another rigid bone. A rigid bone is its own result.
func RigidDescendants(c *collection.Collection, bone int) []int {
	var out []int
	visit(c, bone, map[int]bool{}, func(i int) { out = append(out, i) })
	slices.Sort(out)
	return out
}

func visit(c *collection.Collection, bone int, seen map[int]bool, emit func(int)) {
	if seen[bone] {
		return
	}
	seen[bone] = true
	if c.IsRigid(bone) {
		emit(bone)
		return
	}
	for _, ch := range c.Children()[bone] {
		visit(c, ch, seen, emit)
	}
}

// ToLeaves converts a bone selection to rigid bones only: rigid bones stay
// selected, other selected bones are replaced by their rigid descendants.
func ToLeaves(c *collection.Collection, in selection.Selection) selection.Selection {
	out := selection.New(in.Len())
	seen := map[int]bool{}
	for _, b := range in.AsArray() {
		visit(c, b, seen, out.Select)
	}
	return out
}

// EnsureSingleRoot re-parents all roots under one new cluster root when
// there is more than one. It returns the new root, or IndexNone when the
// collection already had at most one root.
func EnsureSingleRoot(c *collection.Collection) int {
	roots := c.Roots()
	if len(roots) <= 1 {
		return collection.IndexNone
	}
	root := c.AddBone(collection.IndexNone, geom.Identity(), collection.SimClustered, "root")
	ParentTransforms(c, root, roots)
	return root
}

// RemoveDanglingClusters deletes clusters that have no children and
// collapses clusters with exactly one child, moving the child up. It
// repeats until no such cluster remains and returns the number removed.
func RemoveDanglingClusters(c *collection.Collection) int {
	total := 0
	for b := nextDangling(c); b != collection.IndexNone; b = nextDangling(c) {
		c.RemoveTransforms([]int{b})
		total++
	}
	return total
}

// nextDangling returns the first cluster with fewer than two children.
// Clusters are removed one at a time so chains of single-child clusters
// collapse in a predictable order.
func nextDangling(c *collection.Collection) int {
	children := c.Children()
	for i := range c.NumTransforms() {
		if c.IsCluster(i) && len(children[i]) < 2 {
			return i
		}
	}
	return collection.IndexNone
}

// Repair removes dangling clusters and then makes the forest single
// rooted. It returns, for every bone present before the call, its index
// afterwards, or IndexNone when it was removed. A root added by the
// repair is the last bone.
func Repair(c *collection.Collection) []int {
	remap := make([]int, c.NumTransforms())
	for i := range remap {
		remap[i] = i
	}
	for b := nextDangling(c); b != collection.IndexNone; b = nextDangling(c) {
		c.RemoveTransforms([]int{b})
		for i, r := range remap {
			switch {
			case r == b:
				remap[i] = collection.IndexNone
			case r > b:
				remap[i] = r - 1
			}
		}
		logging.Debug("hierarchy: removed dangling cluster", "bone", b)
	}
	if root := EnsureSingleRoot(c); root != collection.IndexNone {
		logging.Debug("hierarchy: added root", "bone", root)
	}
	return remap
}

// Centroid returns the world-space centroid of bone and the volume it
// represents. Rigid bones use their geometry; clusters average their
// children weighted by volume, skipping children without a valid centroid.
func Centroid(c *collection.Collection, bone int, global []geom.Mat) (geom.Vec, float64, bool) {
	return centroid(c, bone, global, map[int]bool{})
}

func centroid(c *collection.Collection, bone int, global []geom.Mat, seen map[int]bool) (geom.Vec, float64, bool) {
	if seen[bone] {
		return geom.Vec{}, 0, false
	}
	seen[bone] = true
	if c.IsRigid(bone) {
		p, ok := c.WorldCentroid(bone, global)
		if !ok {
			return geom.Vec{}, 0, false
		}
		return p, c.GeometryVolume(bone, global), true
	}
	var sum geom.Vec
	vol := 0.0
	var plain []geom.Vec
	for _, ch := range c.Children()[bone] {
		p, v, ok := centroid(c, ch, global, seen)
		if !ok {
			continue
		}
		plain = append(plain, p)
		sum = geom.Add(sum, geom.Scale(v, p))
		vol += v
	}
	switch {
	case vol > geom.Epsilon:
		return geom.Scale(1/vol, sum), vol, true
	case len(plain) > 0:
		return geom.Centroid(plain), 0, true
	}
	return geom.Vec{}, 0, false
}

// Bodies maps every bone to the index in bodies of the body it belongs to:
// the body itself or one of its descendants. Bones outside every body map
// to IndexNone.
func Bodies(c *collection.Collection, bodies []int) []int {
	out := make([]int, c.NumTransforms())
	for i := range out {
		out[i] = collection.IndexNone
	}
	for bi, b := range bodies {
		out[b] = bi
		for _, d := range Descendants(c, b) {
			out[d] = bi
		}
	}
	return out
}

// BonesAtLevel returns the bones whose Level equals level.
func BonesAtLevel(c *collection.Collection, level int) []int {
	var out []int
	for i, l := range c.Levels() {
		if l == level {
			out = append(out, i)
		}
	}
	return out
}

// MaxLevel returns the deepest Level in the collection, or -1 when empty.
func MaxLevel(c *collection.Collection) int {
	m := -1
	for _, l := range c.Levels() {
		m = max(m, l)
	}
	return m
}

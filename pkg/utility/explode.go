package utility

import (
	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/hierarchy"
)

// GenerateExplodedViewAttribute writes the ExplodedVector attribute on
// the Transform group of c.
//
// With viewLevel >= 0, bones on that level move away from the collection
// centre by (centroid - centre) * scale * uniformScale, and their
// descendants move with them. With viewLevel < 0 the offsets build up
// level by level: each bone down to maxLevel moves away from its parent's
// centroid and inherits the parent's offset. maxLevel < 0 means the
// deepest level.
func GenerateExplodedViewAttribute(c *collection.Collection, scale geom.Vec, uniformScale float64, viewLevel, maxLevel int) error {
	vectors, err := collection.Ensure(c, collection.AttrExplodedVector, collection.GroupTransform, geom.Vec{}, "")
	if err != nil {
		return err
	}
	for i := range vectors {
		vectors[i] = geom.Vec{}
	}
	if c.NumTransforms() == 0 {
		return nil
	}
	global := c.GlobalMatrices()
	factor := geom.Scale(uniformScale, scale)
	centers := make([]geom.Vec, c.NumTransforms())
	valid := make([]bool, c.NumTransforms())
	for b := range centers {
		centers[b], _, valid[b] = hierarchy.Centroid(c, b, global)
	}
	push := func(from, to geom.Vec) geom.Vec {
		return geom.Mul(geom.Sub(to, from), factor)
	}

	if maxLevel < 0 {
		maxLevel = hierarchy.MaxLevel(c)
	}
	parents := c.Parents()
	levels := c.Levels()
	order := bonesByLevel(c)

	if viewLevel >= 0 {
		center := c.BoundingBox().Center()
		for _, b := range order {
			switch {
			case levels[b] == viewLevel && valid[b]:
				vectors[b] = push(center, centers[b])
			case levels[b] > viewLevel && parents[b] >= 0:
				vectors[b] = vectors[parents[b]]
			}
		}
		return nil
	}

	for _, b := range order {
		p := parents[b]
		if p < 0 {
			continue
		}
		vectors[b] = vectors[p]
		if levels[b] <= maxLevel && valid[b] && valid[p] {
			vectors[b] = geom.Add(vectors[b], push(centers[p], centers[b]))
		}
	}
	return nil
}

// bonesByLevel returns every bone, parents before children.
func bonesByLevel(c *collection.Collection) []int {
	var out []int
	for level := 0; level <= hierarchy.MaxLevel(c); level++ {
		out = append(out, hierarchy.BonesAtLevel(c, level)...)
	}
	return out
}

// Package fracture holds the cutters that break bones of a collection into
// fragments. Every cutter runs the same pipeline: resolve the selection,
// drop bones by chance, expand clusters to their rigid leaves, validate,
// then cut a working copy and repair it. Any failure hands back the input
// collection and selection unchanged.
package fracture

import (
	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/hierarchy"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/random"
	"github.com/chazu/splinter/pkg/selection"
)

// Common holds the settings every cutter shares.
type Common struct {
	// ChanceToFracture is the probability that a selected bone is cut.
	ChanceToFracture float64
	Seed             int64
	// Grout is the gap left between fragments.
	Grout float64
	// CollisionSampleSpacing is handed to the kernel for new surfaces.
	CollisionSampleSpacing float64
	// InternalMaterial is written to new internal faces. Negative keeps
	// the material the kernel chose.
	InternalMaterial int
	SplitIslands     bool
}

// DefaultCommon returns settings that cut every selected bone.
func DefaultCommon() Common {
	return Common{
		ChanceToFracture:       1,
		CollisionSampleSpacing: 50,
		InternalMaterial:       collection.IndexNone,
	}
}

func (o Common) cutOptions() kernel.CutOptions {
	return kernel.CutOptions{
		Grout:         o.Grout,
		SampleSpacing: o.CollisionSampleSpacing,
		Seed:          o.Seed,
		SplitIslands:  o.SplitIslands,
	}
}

// Result is the output of a cutter.
type Result struct {
	Collection *collection.Collection
	// Original is the resolved input selection without the bones that
	// were fractured, sized to the output.
	Original selection.Selection
	// New selects every bone the cut created. A root added by repair is
	// in neither selection.
	New selection.Selection
	// FirstNew is the first new bone, or IndexNone when nothing was cut.
	FirstNew int
}

// Cut reports whether the cutter changed anything.
func (r Result) Cut() bool { return r.FirstNew != collection.IndexNone }

// passThrough is the result of a failed or empty cut.
func passThrough(c *collection.Collection, sel selection.Selection) Result {
	return Result{
		Collection: c,
		Original:   sel,
		New:        selection.New(c.NumTransforms()),
		FirstNew:   collection.IndexNone,
	}
}

// Engine runs cutters against a cut kernel.
type Engine struct {
	Cutter     kernel.Cutter
	Primitives kernel.Primitives
}

// New returns an Engine using cutter for cuts and prims for cutting
// meshes. prims may be nil when no primitive cutter is used.
func New(cutter kernel.Cutter, prims kernel.Primitives) *Engine {
	return &Engine{Cutter: cutter, Primitives: prims}
}

// ResolveSelection returns sel, or a selection of every bone when sel is
// nil.
func ResolveSelection(c *collection.Collection, sel *selection.Selection) selection.Selection {
	if sel == nil {
		return selection.SelectAll(c)
	}
	return sel.Clone()
}

// RandomReduceSelection drops each selected bone with probability
// 1-chance. Bone i draws from a stream seeded with seed+i, so a bone's fate
// does not depend on which other bones are selected.
func RandomReduceSelection(sel selection.Selection, seed int64, chance float64) selection.Selection {
	out := sel.Clone()
	if chance >= 1 {
		return out
	}
	for _, b := range sel.AsArray() {
		if random.New(seed+int64(b)).GetFraction() >= chance {
			out.Deselect(b)
		}
	}
	return out
}

// ValidLeaves checks that every bone is in range and rigid with geometry.
// It returns the bones sorted, or nil when the set is empty or any bone
// fails.
func ValidLeaves(c *collection.Collection, leaves selection.Selection) []int {
	bones := leaves.AsArray()
	if len(bones) == 0 {
		return nil
	}
	t2g := c.TransformToGeometry()
	for _, b := range bones {
		if !c.InRange(b) || !c.IsRigid(b) || t2g[b] < 0 || t2g[b] >= c.NumGeometry() {
			logging.Warn("fracture: invalid bone in cut set", "bone", b)
			return nil
		}
	}
	return bones
}

// prepare runs the selection stages. ok is false when the cut must not
// run; sel is always the resolved input selection.
func prepare(c *collection.Collection, in *selection.Selection, o Common) (sel selection.Selection, bones []int, ok bool) {
	sel = ResolveSelection(c, in)
	if err := sel.Validate(c, collection.GroupTransform); err != nil {
		logging.Warn("fracture: invalid selection", "err", err)
		return sel, nil, false
	}
	reduced := RandomReduceSelection(sel, o.Seed, o.ChanceToFracture)
	bones = ValidLeaves(c, hierarchy.ToLeaves(c, reduced))
	if len(bones) == 0 {
		logging.Debug("fracture: nothing to cut")
		return sel, nil, false
	}
	return sel, bones, true
}

// ProcessNewlyFracturedBones tags internal faces of the bones from first
// onward, rebuilds material sections and gives the new bones GUIDs.
func ProcessNewlyFracturedBones(c *collection.Collection, first, internalMaterial int, seed int64) {
	if first == collection.IndexNone {
		return
	}
	if internalMaterial >= 0 {
		c.SetInternalMaterial(first, internalMaterial)
	}
	c.ReindexMaterials()
	if err := c.GenerateGUIDs(first, seed); err != nil {
		logging.Warn("fracture: guids", "err", err)
	}
}

type cutFunc func(work *collection.Collection, bones []int) (int, error)

// run drives the whole pipeline around cut.
func (e *Engine) run(name string, c *collection.Collection, in *selection.Selection, o Common, cut cutFunc) Result {
	sel, bones, ok := prepare(c, in, o)
	if !ok {
		return passThrough(c, sel)
	}
	work := c.Clone()
	first, err := cut(work, bones)
	if err != nil {
		logging.Warn("fracture: cut failed", "cutter", name, "err", err)
		return passThrough(c, sel)
	}
	if first == collection.IndexNone || first >= work.NumTransforms() {
		logging.Debug("fracture: nothing cut", "cutter", name)
		return passThrough(c, sel)
	}
	r, ok := finish(c, work, sel, first, o)
	if !ok {
		logging.Debug("fracture: repair left no new bones", "cutter", name)
		return passThrough(c, sel)
	}
	return r
}

// finish repairs the cut copy and builds the output selections. Original
// keeps the selected bones that were not fractured: a bone that was rigid
// before the cut and is no longer a visible rigid bone is dropped.
func finish(c, work *collection.Collection, sel selection.Selection, first int, o Common) (Result, bool) {
	n := work.NumTransforms()
	var kept []int
	for _, b := range sel.AsArray() {
		if b >= first || b >= n {
			continue
		}
		if c.IsRigid(b) && (!work.IsRigid(b) || !work.IsVisible(b)) {
			continue
		}
		kept = append(kept, b)
	}

	remap := hierarchy.Repair(work)
	m := work.NumTransforms()
	fresh := selection.New(m)
	newFirst := collection.IndexNone
	for i := first; i < n; i++ {
		if r := remap[i]; r != collection.IndexNone {
			fresh.Select(r)
			if newFirst == collection.IndexNone || r < newFirst {
				newFirst = r
			}
		}
	}
	if newFirst == collection.IndexNone {
		return Result{}, false
	}
	orig := selection.New(m)
	for _, b := range kept {
		if r := remap[b]; r != collection.IndexNone {
			orig.Select(r)
		}
	}

	ProcessNewlyFracturedBones(work, newFirst, o.InternalMaterial, o.Seed)
	logging.Info("fracture: cut", "first", newFirst, "new", fresh.Num())
	return Result{Collection: work, Original: orig, New: fresh, FirstNew: newFirst}, true
}

// Package utility holds clean-up passes run after fracturing: merging
// tiny fragments into their neighbours and computing exploded-view
// offsets.
package utility

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/hierarchy"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/selection"
)

// MergeMode says what merging a tiny bone does.
type MergeMode int

const (
	// MergeGeometry folds the tiny bone's mesh into a rigid neighbour and
	// removes the bone.
	MergeGeometry MergeMode = iota
	// MergeClusters moves the tiny bone (or, for a cluster, its children)
	// under a neighbouring cluster. Meshes are left alone.
	MergeClusters
)

// SelectionPolicy says how the caller's selection combines with the
// volume test.
type SelectionPolicy int

const (
	// SelectionIgnore uses the volume test only.
	SelectionIgnore SelectionPolicy = iota
	// SelectionUnion merges bones that are small or selected.
	SelectionUnion
	// SelectionExclusive merges the selected bones only.
	SelectionExclusive
)

// NeighborPolicy chooses among candidate merge targets.
type NeighborPolicy int

const (
	// NeighborLargest picks the neighbour with the most volume.
	NeighborLargest NeighborPolicy = iota
	// NeighborNearest picks the neighbour whose centroid is closest.
	NeighborNearest
)

var (
	mergeModeNames = []string{"geometry", "clusters"}
	policyNames    = []string{"ignore", "union", "exclusive"}
	neighborNames  = []string{"largest", "nearest"}
)

func (m MergeMode) String() string       { return name(mergeModeNames, int(m), "MergeMode") }
func (p SelectionPolicy) String() string { return name(policyNames, int(p), "SelectionPolicy") }
func (p NeighborPolicy) String() string  { return name(neighborNames, int(p), "NeighborPolicy") }

func name(names []string, i int, kind string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", kind, i)
}

func parse(names []string, s, kind string) (int, error) {
	if i := slices.Index(names, s); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("utility: unknown %s %q", kind, s)
}

// ParseMergeMode resolves a name printed by MergeMode.String.
func ParseMergeMode(s string) (MergeMode, error) {
	i, err := parse(mergeModeNames, s, "merge mode")
	return MergeMode(i), err
}

// ParseSelectionPolicy resolves a name printed by SelectionPolicy.String.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	i, err := parse(policyNames, s, "selection policy")
	return SelectionPolicy(i), err
}

// ParseNeighborPolicy resolves a name printed by NeighborPolicy.String.
func ParseNeighborPolicy(s string) (NeighborPolicy, error) {
	i, err := parse(neighborNames, s, "neighbor policy")
	return NeighborPolicy(i), err
}

// TinyOptions configures FixTinyGeo.
type TinyOptions struct {
	Mode      MergeMode
	Selection SelectionPolicy
	Neighbor  NeighborPolicy

	// MinVolumeCubeRoot is the edge of the smallest cube kept.
	MinVolumeCubeRoot float64
	// UseRelativeSize replaces MinVolumeCubeRoot with RelativeSize times
	// the cube root of the total candidate volume.
	UseRelativeSize bool
	RelativeSize    float64

	// Level restricts candidates to one hierarchy level; -1 for any. In
	// cluster mode -1 means level 1.
	Level int
	// OnlyClusters restricts cluster-mode candidates to clusters.
	OnlyClusters bool
	// UseLiveProximity recomputes proximity before looking for neighbours.
	UseLiveProximity bool
	// OnlyConnected limits cluster-mode targets to touching clusters.
	// Otherwise any cluster on the same level may be used when none
	// touches.
	OnlyConnected bool
	// OnlySameParent limits cluster-mode targets to siblings.
	OnlySameParent bool
}

// DefaultTinyOptions merges geometry smaller than a unit cube into its
// largest touching neighbour.
func DefaultTinyOptions() TinyOptions {
	return TinyOptions{
		MinVolumeCubeRoot: 1,
		RelativeSize:      0.01,
		Level:             -1,
		OnlyConnected:     true,
	}
}

// threshold returns the volume below which a bone is tiny.
func (o TinyOptions) threshold(total float64) float64 {
	edge := o.MinVolumeCubeRoot
	if o.UseRelativeSize {
		edge = math.Cbrt(total) * o.RelativeSize
	}
	return edge * edge * edge
}

// tinyState tracks the collection while merges are applied. Bone indices
// stay fixed until the final removal.
type tinyState struct {
	c        *collection.Collection
	global   []geom.Mat
	volumes  []float64
	removed  []bool
	adjacent [][]int
}

// FixTinyGeo merges small bones into neighbours. It works on a copy and
// returns it with the number of bones merged; when nothing merges the
// input collection is returned. sel may be nil. cutter recomputes
// proximity when asked for live proximity and after geometry merges; it
// may be nil, in which case stale proximity is cleared.
func FixTinyGeo(c *collection.Collection, sel *selection.Selection, o TinyOptions, cutter kernel.Cutter) (*collection.Collection, int) {
	if sel != nil {
		if err := sel.Validate(c, collection.GroupTransform); err != nil {
			logging.Warn("fixtiny: invalid selection", "err", err)
			return c, 0
		}
	}
	work := c.Clone()
	if o.UseLiveProximity && cutter != nil {
		if err := cutter.ComputeProximity(work); err != nil {
			logging.Warn("fixtiny: proximity", "err", err)
			return c, 0
		}
	}

	candidates := o.candidates(work)
	if len(candidates) == 0 {
		return c, 0
	}
	s := &tinyState{
		c:       work,
		global:  work.GlobalMatrices(),
		volumes: work.Volumes(),
		removed: make([]bool, work.NumTransforms()),
	}
	s.adjacent = s.lift(candidates)

	total := 0.0
	for _, b := range candidates {
		total += s.volumes[b]
	}
	limit := o.threshold(total)
	pending := o.pick(candidates, sel, s.volumes, limit)
	logging.Debug("fixtiny: candidates", "count", len(candidates), "tiny", len(pending), "threshold", limit)

	merged := 0
	forced := map[int]bool{}
	if sel != nil && o.Selection != SelectionIgnore {
		for _, b := range sel.AsArray() {
			forced[b] = true
		}
	}
	isCandidate := make([]bool, work.NumTransforms())
	for _, b := range candidates {
		isCandidate[b] = true
	}
	for len(pending) > 0 {
		// Smallest first, so fragments grow into their neighbours in order.
		i := 0
		for j, b := range pending {
			if s.volumes[b] < s.volumes[pending[i]] || (s.volumes[b] == s.volumes[pending[i]] && b < pending[i]) {
				i = j
			}
		}
		b := pending[i]
		pending = slices.Delete(pending, i, i+1)
		if s.removed[b] || (!forced[b] && s.volumes[b] >= limit) {
			continue
		}
		t := s.target(b, o, isCandidate)
		if t == collection.IndexNone {
			logging.Debug("fixtiny: no neighbour", "bone", b)
			continue
		}
		if o.Mode == MergeClusters {
			s.mergeCluster(b, t)
		} else {
			s.mergeGeometry(b, t)
		}
		merged++
	}
	if merged == 0 {
		return c, 0
	}
	s.finish(o, cutter)
	logging.Info("fixtiny: merged", "bones", merged, "remaining", work.NumTransforms())
	return work, merged
}

// candidates lists the bones the pass may merge.
func (o TinyOptions) candidates(c *collection.Collection) []int {
	levels := c.Levels()
	var out []int
	for b := range c.NumTransforms() {
		if o.Mode == MergeClusters {
			level := o.Level
			if level < 0 {
				level = 1
			}
			if levels[b] != level || (o.OnlyClusters && !c.IsCluster(b)) {
				continue
			}
		} else {
			if !c.IsRigid(b) || c.BoneMesh(b).NumTriangles() == 0 {
				continue
			}
			if o.Level >= 0 && levels[b] != o.Level {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

// pick applies the selection policy to the volume test.
func (o TinyOptions) pick(candidates []int, sel *selection.Selection, volumes []float64, limit float64) []int {
	var out []int
	for _, b := range candidates {
		small := volumes[b] < limit
		chosen := sel != nil && sel.IsSelected(b)
		switch o.Selection {
		case SelectionUnion:
			small = small || chosen
		case SelectionExclusive:
			small = chosen
		}
		if small {
			out = append(out, b)
		}
	}
	return out
}

// lift turns rigid-bone proximity into adjacency between candidates.
func (s *tinyState) lift(candidates []int) [][]int {
	body := hierarchy.Bodies(s.c, candidates)
	out := make([][]int, s.c.NumTransforms())
	for b, ns := range s.c.BoneNeighbors() {
		if body[b] < 0 {
			continue
		}
		from := candidates[body[b]]
		for _, n := range ns {
			if body[n] < 0 || body[n] == body[b] {
				continue
			}
			out[from] = append(out[from], candidates[body[n]])
		}
	}
	for i := range out {
		slices.Sort(out[i])
		out[i] = slices.Compact(out[i])
	}
	return out
}

// target picks where bone b merges, or IndexNone.
func (s *tinyState) target(b int, o TinyOptions, isCandidate []bool) int {
	parents := s.c.Parents()
	ok := func(t int) bool {
		if t == b || s.removed[t] {
			return false
		}
		if o.Mode == MergeClusters {
			if !s.c.IsCluster(t) {
				return false
			}
			if o.OnlySameParent && parents[t] != parents[b] {
				return false
			}
		}
		return true
	}
	options := slices.DeleteFunc(slices.Clone(s.adjacent[b]), func(t int) bool { return !ok(t) })
	if len(options) == 0 && o.Mode == MergeClusters && !o.OnlyConnected {
		for t := range s.c.NumTransforms() {
			if isCandidate[t] && ok(t) {
				options = append(options, t)
			}
		}
	}
	if len(options) == 0 {
		return collection.IndexNone
	}
	best := options[0]
	switch o.Neighbor {
	case NeighborNearest:
		from, _, _ := hierarchy.Centroid(s.c, b, s.global)
		bestD := math.Inf(1)
		for _, t := range options {
			p, _, valid := hierarchy.Centroid(s.c, t, s.global)
			if !valid {
				continue
			}
			if d := geom.DistanceSquared(from, p); d < bestD {
				best, bestD = t, d
			}
		}
	default:
		for _, t := range options[1:] {
			if s.volumes[t] > s.volumes[best] {
				best = t
			}
		}
	}
	return best
}

// absorb moves b's adjacency and volume onto t.
func (s *tinyState) absorb(b, t int) {
	for _, n := range s.adjacent[b] {
		if n == t {
			continue
		}
		s.adjacent[n] = append(slices.DeleteFunc(s.adjacent[n], func(x int) bool { return x == b || x == t }), t)
		s.adjacent[t] = append(s.adjacent[t], n)
	}
	s.adjacent[t] = slices.DeleteFunc(s.adjacent[t], func(x int) bool { return x == b })
	slices.Sort(s.adjacent[t])
	s.adjacent[t] = slices.Compact(s.adjacent[t])
	s.adjacent[b] = nil
	s.volumes[t] += s.volumes[b]
	s.removed[b] = true
}

// mergeGeometry appends b's mesh to t's, expressed in t's local frame.
func (s *tinyState) mergeGeometry(b, t int) {
	into := geom.Inverse(s.global[t]).Mul4(s.global[b])
	mesh := s.c.BoneMesh(t)
	extra := s.c.BoneMesh(b)
	for i, v := range extra.Vertices {
		extra.Vertices[i] = geom.TransformPosition(into, v)
	}
	mesh.Append(extra)
	old := s.c.TransformToGeometry()[t]
	s.c.AppendGeometry(t, mesh)
	s.c.RemoveGeometry([]int{old})
	s.absorb(b, t)
}

// mergeCluster moves b, or b's children when b is a cluster, under t.
func (s *tinyState) mergeCluster(b, t int) {
	moved := []int{b}
	if s.c.IsCluster(b) {
		moved = slices.Clone(s.c.Children()[b])
	}
	locals := s.c.LocalTransforms()
	toParent := geom.Inverse(s.global[t])
	for _, m := range moved {
		locals[m] = geom.TransformFromMatrix(toParent.Mul4(s.global[m]))
	}
	hierarchy.ParentTransforms(s.c, t, moved)
	// A rigid b lives on under t; finish only deletes absorbed clusters.
	s.absorb(b, t)
}

// finish deletes absorbed bones, repairs the hierarchy and refreshes
// proximity. Clusters left with fewer than two children are collapsed.
func (s *tinyState) finish(o TinyOptions, cutter kernel.Cutter) {
	var gone []int
	for b, r := range s.removed {
		if r && (o.Mode == MergeGeometry || s.c.IsCluster(b)) {
			gone = append(gone, b)
		}
	}
	s.c.RemoveTransforms(gone)
	hierarchy.Repair(s.c)
	s.c.ClearProximity()
	if cutter != nil {
		if err := cutter.ComputeProximity(s.c); err != nil {
			logging.Warn("fixtiny: proximity after merge", "err", err)
		}
	}
}

package fracture

import (
	"errors"
	"slices"
	"testing"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/kernel/convex"
	"github.com/chazu/splinter/pkg/selection"
)

// stubCutter records calls and reports nothing cut.
type stubCutter struct {
	err   error
	calls int
}

func (s *stubCutter) CutWithPlanarCells(*kernel.PlanarCells, *collection.Collection, []int, kernel.CutOptions) (int, error) {
	s.calls++
	return collection.IndexNone, s.err
}

func (s *stubCutter) CutWithMesh(*kernel.Mesh, *collection.Collection, []int, kernel.CutOptions) (int, error) {
	s.calls++
	return collection.IndexNone, s.err
}

func (s *stubCutter) ComputeProximity(*collection.Collection) error { return s.err }

func unitBox() geom.Box {
	return geom.NewBox(geom.Splat(-1), geom.Splat(1))
}

func octantSites() []geom.Vec {
	var sites []geom.Vec
	for _, z := range []float64{-0.5, 0.5} {
		for _, y := range []float64{-0.5, 0.5} {
			for _, x := range []float64{-0.5, 0.5} {
				sites = append(sites, geom.V(x, y, z))
			}
		}
	}
	return sites
}

func span(from, to int) []int {
	var out []int
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func TestVoronoiEightSites(t *testing.T) {
	tests := []struct {
		name  string
		sites []geom.Vec
	}{
		{"octants", octantSites()},
		{"scattered", GenerateVoronoiSites(unitBox(), 8, 8, 42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := collection.NewBox(unitBox())
			e := New(convex.New(), nil)
			r := e.VoronoiFracture(c, nil, tt.sites, VoronoiOptions{Common: DefaultCommon()})
			if !r.Cut() {
				t.Fatal("nothing was cut")
			}
			out := r.Collection
			if out.NumTransforms() != 9 {
				t.Fatalf("bones = %d, want 9", out.NumTransforms())
			}
			if !out.IsCluster(0) {
				t.Error("source bone should become the cluster parent")
			}
			if got := out.Children()[0]; !slices.Equal(got, span(1, 9)) {
				t.Errorf("children = %v, want 1..8", got)
			}
			for b := 1; b < 9; b++ {
				if !out.IsRigid(b) || len(out.Children()[b]) != 0 {
					t.Errorf("bone %d is not a rigid leaf", b)
				}
			}
			if got := r.New.AsArray(); !slices.Equal(got, span(1, 9)) {
				t.Errorf("new selection = %v, want 1..8", got)
			}
			if r.Original.IsSelected(0) {
				t.Error("original selection kept the fractured bone")
			}
			if c.NumTransforms() != 1 {
				t.Error("input collection was modified")
			}
		})
	}
}

func TestPipelineNonMutationOnFailure(t *testing.T) {
	zero := geom.Box{}
	none := func(c *collection.Collection) *selection.Selection {
		s := selection.SelectNone(c)
		return &s
	}
	all := func(*collection.Collection) *selection.Selection { return nil }
	voronoi := func(o VoronoiOptions) func(e *Engine, c *collection.Collection, sel *selection.Selection) Result {
		return func(e *Engine, c *collection.Collection, sel *selection.Selection) Result {
			return e.VoronoiFracture(c, sel, octantSites(), o)
		}
	}
	plane := func(e *Engine, c *collection.Collection, sel *selection.Selection) Result {
		return e.PlaneCutter(c, sel, PlaneOptions{Common: DefaultCommon(), NumPlanes: 2, Bounds: &zero})
	}
	slice := func(e *Engine, c *collection.Collection, sel *selection.Selection) Result {
		return e.SliceCutter(c, sel, SliceOptions{Common: DefaultCommon(), SliceGrid: SliceGrid{SlicesX: 1}, Bounds: &zero})
	}
	brick := func(e *Engine, c *collection.Collection, sel *selection.Selection) Result {
		return e.BrickCutter(c, sel, BrickOptions{Common: DefaultCommon(), Bounds: &zero, Transform: geom.Identity(), Length: 1, Depth: 1, Height: 1})
	}
	uniform := func(e *Engine, c *collection.Collection, sel *selection.Selection) Result {
		return e.UniformFracture(c, sel, UniformOptions{Common: DefaultCommon(), MinSites: 4, MaxSites: 4})
	}
	mesh := func(e *Engine, c *collection.Collection, sel *selection.Selection) Result {
		return e.MeshCutter(c, sel, boxCutter(0.25), geom.Identity(), DefaultCommon())
	}
	tests := []struct {
		name string
		sel  func(c *collection.Collection) *selection.Selection
		run  func(e *Engine, c *collection.Collection, sel *selection.Selection) Result
		cut  kernel.Cutter
	}{
		{"empty selection", none, voronoi(VoronoiOptions{Common: DefaultCommon()}), convex.New()},
		{"stale selection", func(c *collection.Collection) *selection.Selection {
			s := selection.All(c.NumTransforms() + 3)
			return &s
		}, voronoi(VoronoiOptions{Common: DefaultCommon()}), convex.New()},
		{"zero bounds", all, voronoi(VoronoiOptions{Common: DefaultCommon(), Bounds: &zero}), convex.New()},
		{"no chance", all, voronoi(VoronoiOptions{Common: Common{ChanceToFracture: 0}}), convex.New()},
		{"kernel error", all, voronoi(VoronoiOptions{Common: DefaultCommon()}), &stubCutter{err: errors.New("boom")}},
		{"kernel no-op", all, voronoi(VoronoiOptions{Common: DefaultCommon()}), &stubCutter{}},
		{"plane empty selection", none, plane, convex.New()},
		{"plane zero bounds", all, plane, convex.New()},
		{"slice empty selection", none, slice, convex.New()},
		{"slice zero bounds", all, slice, convex.New()},
		{"brick empty selection", none, brick, convex.New()},
		{"brick zero bounds", all, brick, convex.New()},
		{"uniform empty selection", none, uniform, convex.New()},
		{"uniform kernel no-op", all, uniform, &stubCutter{}},
		{"mesh empty selection", none, mesh, convex.New()},
		{"mesh kernel error", all, mesh, &stubCutter{err: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := collection.NewGrid(2, 2, 1, 1)
			before := c.Clone()
			r := tt.run(New(tt.cut, nil), c, tt.sel(c))
			if r.Cut() {
				t.Fatalf("FirstNew = %d, want none", r.FirstNew)
			}
			if r.Collection != c || !c.Equal(before) {
				t.Error("collection changed on a failed cut")
			}
			if !r.New.IsEmpty() {
				t.Error("new selection should be empty")
			}
		})
	}
}

func TestSelectionsPartitionBones(t *testing.T) {
	c := collection.NewGrid(3, 1, 1, 2)
	sel, _ := selection.FromArray(c.NumTransforms(), []int{1, 3})
	planes := []geom.Plane{geom.PlaneFromPointNormal(geom.V(0, 1, 1), geom.V(0, 0, 1))}
	r := New(convex.New(), nil).PlaneCutter(c, &sel, PlaneOptions{Common: DefaultCommon(), Planes: planes})
	if !r.Cut() {
		t.Fatal("nothing was cut")
	}
	n := r.Collection.NumTransforms()
	if n != 8 {
		t.Fatalf("bones = %d, want 8", n)
	}
	for _, b := range sel.AsArray() {
		if r.Original.IsSelected(b) {
			t.Errorf("original selection kept fractured bone %d", b)
		}
		if r.Collection.IsRigid(b) {
			t.Errorf("selected bone %d is still rigid", b)
		}
	}
	both, err := r.Original.And(r.New)
	if err != nil {
		t.Fatal(err)
	}
	if !both.IsEmpty() {
		t.Errorf("original and new overlap: %v", both.AsArray())
	}
	pre, _ := selection.FromArray(n, sel.AsArray())
	cover, _ := r.Original.Or(r.New)
	cover, _ = cover.Or(pre.Invert())
	if missing := cover.Invert().AsArray(); !slices.Equal(missing, sel.AsArray()) {
		t.Errorf("bones outside every selection = %v, want the fractured %v", missing, sel.AsArray())
	}
	if r.Collection.IsCluster(2) {
		t.Error("unselected bone was cut")
	}
}

func TestOriginalKeepsSelectedClusters(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 2)
	sel := selection.SelectRoot(c)
	planes := []geom.Plane{geom.PlaneFromPointNormal(geom.V(0, 1, 1), geom.V(0, 0, 1))}
	r := New(convex.New(), nil).PlaneCutter(c, &sel, PlaneOptions{Common: DefaultCommon(), Planes: planes})
	if !r.Cut() {
		t.Fatal("nothing was cut")
	}
	if got := r.Original.AsArray(); !slices.Equal(got, []int{0}) {
		t.Errorf("original = %v, want [0]", got)
	}
}

func TestCutRepairsHierarchy(t *testing.T) {
	// A root cluster with a single child is collapsed after the cut.
	c := collection.NewGrid(1, 1, 1, 2)
	planes := []geom.Plane{geom.PlaneFromPointNormal(geom.V(1, 1, 1), geom.V(0, 0, 1))}
	r := New(convex.New(), nil).PlaneCutter(c, nil, PlaneOptions{Common: DefaultCommon(), Planes: planes})
	if !r.Cut() {
		t.Fatal("nothing was cut")
	}
	out := r.Collection
	if out.NumTransforms() != 3 {
		t.Fatalf("bones = %d, want 3", out.NumTransforms())
	}
	if roots := out.Roots(); !slices.Equal(roots, []int{0}) || !out.IsCluster(0) {
		t.Fatalf("roots = %v, want the fractured cube at 0", roots)
	}
	if got := r.New.AsArray(); !slices.Equal(got, []int{1, 2}) || r.FirstNew != 1 {
		t.Errorf("new = %v first = %d, want [1 2] first 1", got, r.FirstNew)
	}
	guids := out.Strings(collection.AttrGUID, collection.GroupTransform)
	if guids[0] != c.Strings(collection.AttrGUID, collection.GroupTransform)[1] {
		t.Error("surviving bone lost its GUID")
	}
	if c.NumTransforms() != 2 {
		t.Error("input collection was modified")
	}
}

func TestDeterminism(t *testing.T) {
	run := func() *collection.Collection {
		c := collection.NewBox(unitBox())
		o := PlaneOptions{Common: DefaultCommon(), NumPlanes: 3}
		o.Seed = 7
		return New(convex.New(), nil).PlaneCutter(c, nil, o).Collection
	}
	a, b := run(), run()
	if a.NumTransforms() < 3 {
		t.Fatalf("expected a cut, got %d bones", a.NumTransforms())
	}
	if !a.Equal(b) {
		t.Error("same seed produced different collections")
	}
}

func TestRandomReduceSelection(t *testing.T) {
	all := selection.All(64)
	if got := RandomReduceSelection(all, 3, 0); !got.IsEmpty() {
		t.Errorf("chance 0 kept %d bones", got.Num())
	}
	if got := RandomReduceSelection(all, 3, 1); got.Num() != 64 {
		t.Errorf("chance 1 kept %d bones", got.Num())
	}
	half := RandomReduceSelection(all, 3, 0.5)
	if half.Num() == 0 || half.Num() == 64 {
		t.Errorf("chance 0.5 kept %d of 64", half.Num())
	}
	// A bone's fate does not depend on the rest of the selection.
	some, _ := selection.FromArray(64, []int{5, 9, 40})
	reduced := RandomReduceSelection(some, 3, 0.5)
	for _, b := range some.AsArray() {
		if reduced.IsSelected(b) != half.IsSelected(b) {
			t.Errorf("bone %d fate changed with the selection", b)
		}
	}
}

func TestValidLeaves(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 1)
	leaves, _ := selection.FromArray(c.NumTransforms(), []int{1, 2})
	if got := ValidLeaves(c, leaves); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("ValidLeaves = %v, want [1 2]", got)
	}
	withCluster, _ := selection.FromArray(c.NumTransforms(), []int{0, 1})
	if got := ValidLeaves(c, withCluster); got != nil {
		t.Errorf("cluster in leaf set should fail, got %v", got)
	}
}

func TestSliceCutterClearsProximity(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 1)
	k := convex.New()
	if err := k.ComputeProximity(c); err != nil {
		t.Fatal(err)
	}
	sel, _ := selection.FromArray(c.NumTransforms(), []int{1})
	r := New(k, nil).SliceCutter(c, &sel, SliceOptions{Common: DefaultCommon(), SliceGrid: SliceGrid{SlicesZ: 1}})
	if !r.Cut() {
		t.Fatal("nothing was cut")
	}
	if got := len(r.Collection.Children()[1]); got != 2 {
		t.Errorf("slices = %d, want 2", got)
	}
	for g, set := range r.Collection.IntSets(collection.AttrProximity, collection.GroupGeometry) {
		if len(set) != 0 {
			t.Errorf("geometry %d kept proximity %v", g, set)
		}
	}
	if len(c.IntSets(collection.AttrProximity, collection.GroupGeometry)[0]) == 0 {
		t.Error("input proximity was cleared")
	}
}

func TestBrickCutter(t *testing.T) {
	c := collection.NewBox(geom.NewBox(geom.V(-2, -1, -1), geom.V(2, 1, 1)))
	o := BrickOptions{Common: DefaultCommon(), Bond: BondStack, Length: 2, Depth: 2, Height: 2}
	r := New(convex.New(), nil).BrickCutter(c, nil, o)
	if !r.Cut() {
		t.Fatal("nothing was cut")
	}
	out := r.Collection
	global := out.GlobalMatrices()
	kids := out.Children()[0]
	if len(kids) != 2 {
		t.Fatalf("bricks = %d, want 2", len(kids))
	}
	for _, b := range kids {
		if v := out.GeometryVolume(b, global); v < 8-1e-9 || v > 8+1e-9 {
			t.Errorf("brick %d volume = %f, want 8", b, v)
		}
	}
}

func TestBrickCutterRejectsBadSize(t *testing.T) {
	c := collection.NewBox(unitBox())
	r := New(convex.New(), nil).BrickCutter(c, nil, BrickOptions{Common: DefaultCommon(), Length: 0, Depth: 1, Height: 1})
	if r.Cut() || r.Collection != c {
		t.Error("zero brick length should pass the input through")
	}
}

func boxCutter(half float64) *kernel.Mesh {
	m := collection.BoxMesh(geom.NewBox(geom.Splat(-half), geom.Splat(half)), 0)
	return kernel.FromMeshData(m, geom.Identity4(), "cutter")
}

func TestMeshCutter(t *testing.T) {
	c := collection.NewBox(unitBox())
	r := New(convex.New(), nil).MeshCutter(c, nil, boxCutter(0.5), geom.Identity(), DefaultCommon())
	if !r.Cut() {
		t.Fatal("nothing was cut")
	}
	if got := r.New.AsArray(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("new = %v, want [1 2]", got)
	}
	if r := New(convex.New(), nil).MeshCutter(c, nil, nil, geom.Identity(), DefaultCommon()); r.Cut() {
		t.Error("nil mesh should not cut")
	}
}

func TestMeshArrayRecutsFragments(t *testing.T) {
	c := collection.NewBox(unitBox())
	placements := []geom.Transform{
		geom.Translation(geom.V(-0.5, 0, 0)),
		geom.Translation(geom.V(0.5, 0, 0)),
	}
	r := New(convex.New(), nil).MeshArrayCutter(c, nil, []*kernel.Mesh{boxCutter(0.5)}, placements, MeshArrayOptions{Common: DefaultCommon()})
	if !r.Cut() {
		t.Fatal("nothing was cut")
	}
	out := r.Collection
	if out.NumTransforms() != 4 {
		t.Fatalf("bones = %d, want 4", out.NumTransforms())
	}
	if got := out.Children()[0]; !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("children = %v, want [1 2 3]", got)
	}
	global := out.GlobalMatrices()
	total := 0.0
	for _, b := range out.Children()[0] {
		if !out.IsRigid(b) {
			t.Errorf("bone %d is not rigid", b)
		}
		total += out.GeometryVolume(b, global)
	}
	if total < 8-1e-9 || total > 8+1e-9 {
		t.Errorf("total volume = %f, want 8", total)
	}
	if got := r.New.AsArray(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("new = %v, want [1 2 3]", got)
	}
}

func TestUniformFracture(t *testing.T) {
	tests := []struct {
		name  string
		group bool
	}{
		{"per bone", false},
		{"grouped", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := collection.NewGrid(2, 1, 1, 1)
			o := UniformOptions{Common: DefaultCommon(), MinSites: 4, MaxSites: 4, GroupFracture: tt.group}
			r := New(convex.New(), nil).UniformFracture(c, nil, o)
			if !r.Cut() {
				t.Fatal("nothing was cut")
			}
			if r.FirstNew != 3 {
				t.Errorf("first = %d, want 3", r.FirstNew)
			}
			for _, b := range []int{1, 2} {
				if !r.Collection.IsCluster(b) {
					t.Errorf("bone %d was not fractured", b)
				}
			}
			for _, b := range r.New.AsArray() {
				if !r.Collection.IsRigid(b) {
					t.Errorf("new bone %d is not rigid", b)
				}
			}
		})
	}
}

func TestNewBonesGetGUIDsAndMaterial(t *testing.T) {
	c := collection.NewBox(unitBox())
	o := PlaneOptions{Common: DefaultCommon(), Planes: []geom.Plane{geom.PlaneFromPointNormal(geom.Vec{}, geom.V(1, 0, 0))}}
	o.InternalMaterial = 5
	r := New(convex.New(), nil).PlaneCutter(c, nil, o)
	out := r.Collection
	guids := out.Strings(collection.AttrGUID, collection.GroupTransform)
	if guids[0] != c.Strings(collection.AttrGUID, collection.GroupTransform)[0] {
		t.Error("existing GUID changed")
	}
	seen := map[string]bool{}
	for _, g := range guids {
		if g == "" || seen[g] {
			t.Fatalf("GUIDs not unique: %v", guids)
		}
		seen[g] = true
	}
	mats := out.Ints(collection.AttrMaterialID, collection.GroupFaces)
	internal := out.Bools(collection.AttrInternal, collection.GroupFaces)
	found := false
	for f := range mats {
		if internal[f] {
			found = true
			if mats[f] != 5 {
				t.Fatalf("internal face %d material = %d, want 5", f, mats[f])
			}
		}
	}
	if !found {
		t.Error("no internal faces")
	}
}

func TestSequentialCutsKeepGUIDsUnique(t *testing.T) {
	c := collection.NewGrid(6, 1, 1, 1)
	e := New(convex.New(), nil)
	for i, seed := range []int64{2, 0, 5, 2, 0} {
		leaf := selection.SelectLeaf(c).AsArray()[i]
		target, _ := selection.FromArray(c.NumTransforms(), []int{leaf})
		center := c.WorldBounds(leaf, c.GlobalMatrices()).Center()
		o := PlaneOptions{Common: DefaultCommon(), Planes: []geom.Plane{geom.PlaneFromPointNormal(center, geom.V(0, 0, 1))}}
		o.Seed = seed
		r := e.PlaneCutter(c, &target, o)
		if !r.Cut() {
			t.Fatalf("cut %d did nothing", i)
		}
		c = r.Collection
	}
	seen := map[string]int{}
	for i, g := range c.Strings(collection.AttrGUID, collection.GroupTransform) {
		if j, ok := seen[g]; ok {
			t.Fatalf("bones %d and %d share GUID %s", j, i, g)
		}
		seen[g] = i
	}
}

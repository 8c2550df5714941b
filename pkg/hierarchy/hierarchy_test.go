package hierarchy

import (
	"math"
	"slices"
	"testing"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/selection"
)

// twoLevel builds root -> {a, b}; a -> {a0, a1}; b rigid.
func twoLevel() *collection.Collection {
	c := collection.New()
	root := c.AddBone(collection.IndexNone, geom.Identity(), collection.SimClustered, "root")
	a := c.AddBone(root, geom.Identity(), collection.SimClustered, "a")
	b := c.AddBone(root, geom.Translation(geom.V(5, 0, 0)), collection.SimRigid, "b")
	a0 := c.AddBone(a, geom.Identity(), collection.SimRigid, "a0")
	a1 := c.AddBone(a, geom.Identity(), collection.SimRigid, "a1")
	unit := collection.BoxMesh(geom.NewBox(geom.V(0, 0, 0), geom.V(1, 1, 1)), 0)
	c.AppendGeometry(b, unit)
	c.AppendGeometry(a0, unit)
	c.AppendGeometry(a1, collection.BoxMesh(geom.NewBox(geom.V(1, 0, 0), geom.V(3, 1, 1)), 0))
	return c
}

func TestToLeaves(t *testing.T) {
	c := twoLevel()
	in, _ := selection.FromArray(5, []int{0})
	if got := ToLeaves(c, in).AsArray(); !slices.Equal(got, []int{2, 3, 4}) {
		t.Errorf("leaves of root = %v, want [2 3 4]", got)
	}
	in, _ = selection.FromArray(5, []int{1, 2})
	if got := ToLeaves(c, in).AsArray(); !slices.Equal(got, []int{2, 3, 4}) {
		t.Errorf("leaves of a,b = %v", got)
	}
}

func TestEnsureSingleRoot(t *testing.T) {
	c := collection.New()
	c.AddBone(collection.IndexNone, geom.Identity(), collection.SimRigid, "x")
	c.AddBone(collection.IndexNone, geom.Identity(), collection.SimRigid, "y")
	root := EnsureSingleRoot(c)
	if root != 2 {
		t.Fatalf("new root = %d, want 2", root)
	}
	if got := c.Roots(); !slices.Equal(got, []int{2}) {
		t.Errorf("roots = %v", got)
	}
	if got := c.Levels(); !slices.Equal(got, []int{1, 1, 0}) {
		t.Errorf("levels = %v", got)
	}
	if EnsureSingleRoot(c) != collection.IndexNone {
		t.Error("second call should be a no-op")
	}
}

func TestRemoveDanglingClusters(t *testing.T) {
	c := twoLevel()
	// Drop a1 so cluster a has a single child.
	c.RemoveTransforms([]int{4})
	c.AddBone(0, geom.Identity(), collection.SimClustered, "empty")
	n := RemoveDanglingClusters(c)
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if c.NumTransforms() != 3 {
		t.Fatalf("transforms = %d, want 3", c.NumTransforms())
	}
	if got := c.Parents(); !slices.Equal(got, []int{collection.IndexNone, 0, 0}) {
		t.Errorf("parents = %v", got)
	}
	if errs := Validate(c); len(errs) != 0 {
		t.Errorf("validation after repair: %v", errs)
	}
}

func TestRepair(t *testing.T) {
	c := twoLevel()
	c.RemoveTransforms([]int{4})
	loose := c.AddBone(collection.IndexNone, geom.Identity(), collection.SimRigid, "loose")
	c.AppendGeometry(loose, collection.BoxMesh(geom.NewBox(geom.V(9, 0, 0), geom.V(10, 1, 1)), 0))

	remap := Repair(c)
	if want := []int{0, collection.IndexNone, 1, 2, 3}; !slices.Equal(remap, want) {
		t.Fatalf("remap = %v, want %v", remap, want)
	}
	if c.NumTransforms() != 5 {
		t.Fatalf("transforms = %d, want 5", c.NumTransforms())
	}
	if got := c.Roots(); !slices.Equal(got, []int{4}) {
		t.Errorf("roots = %v, want the added root [4]", got)
	}
	if got := c.Children()[4]; !slices.Equal(got, []int{0, 3}) {
		t.Errorf("new root children = %v, want [0 3]", got)
	}
	if errs := Validate(c); len(errs) != 0 {
		t.Errorf("validation after repair: %v", errs)
	}
}

func TestRemoveKeepsWorldPlacement(t *testing.T) {
	c := collection.New()
	root := c.AddBone(collection.IndexNone, geom.Identity(), collection.SimClustered, "root")
	mid := c.AddBone(root, geom.Translation(geom.V(0, 0, 4)), collection.SimClustered, "mid")
	leaf := c.AddBone(mid, geom.Translation(geom.V(1, 0, 0)), collection.SimRigid, "leaf")
	c.AppendGeometry(leaf, collection.BoxMesh(geom.NewBox(geom.V(0, 0, 0), geom.V(1, 1, 1)), 0))
	before := c.WorldBounds(leaf, nil)
	RemoveDanglingClusters(c)
	after := c.WorldBounds(c.NumTransforms()-1, nil)
	if !geom.NearlyEqual(before.Min, after.Min, 1e-9) || !geom.NearlyEqual(before.Max, after.Max, 1e-9) {
		t.Errorf("bounds moved: %v -> %v", before, after)
	}
}

func TestCentroidVolumeWeighted(t *testing.T) {
	c := twoLevel()
	global := c.GlobalMatrices()
	p, vol, ok := Centroid(c, 1, global)
	if !ok {
		t.Fatal("cluster centroid should be valid")
	}
	if math.Abs(vol-3) > 1e-9 {
		t.Errorf("volume = %f, want 3", vol)
	}
	// (0.5 * 1 + 2 * 2) / 3 = 1.5
	if math.Abs(p.X-1.5) > 1e-9 {
		t.Errorf("centroid x = %f, want 1.5", p.X)
	}
}

func TestValidateFindsProblems(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *collection.Collection)
		code   string
	}{
		{"bad parent", func(c *collection.Collection) { c.Parents()[2] = 99 }, "BAD_PARENT"},
		{"cycle", func(c *collection.Collection) { c.Parents()[0] = 3 }, "CYCLE"},
		{"stale level", func(c *collection.Collection) { c.Levels()[3] = 7 }, "STALE_LEVEL"},
		{"rigid without geometry", func(c *collection.Collection) { c.TransformToGeometry()[2] = collection.IndexNone }, "RIGID_NO_GEOMETRY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := twoLevel()
			tc.mutate(c)
			found := false
			for _, e := range Validate(c) {
				if e.Code == tc.code {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %s finding", tc.code)
			}
		})
	}
	if errs := Validate(twoLevel()); len(errs) != 0 {
		t.Errorf("clean hierarchy reported %v", errs)
	}
}

func TestValidateAllWarnsOnEmbeddedOrphan(t *testing.T) {
	c := twoLevel()
	c.AddBone(0, geom.Identity(), collection.SimEmbedded, "decal")
	res := ValidateAll(c)
	if !res.OK() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != "EMBEDDED_ORPHAN" {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

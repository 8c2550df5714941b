package utility

import (
	"math"
	"slices"
	"testing"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/hierarchy"
	"github.com/chazu/splinter/pkg/kernel/convex"
	"github.com/chazu/splinter/pkg/selection"
)

// boxes returns a root cluster with one rigid bone per box, each placed at
// its box centre, with proximity computed.
func boxes(t *testing.T, bs ...geom.Box) *collection.Collection {
	t.Helper()
	c := collection.New()
	root := c.AddBone(collection.IndexNone, geom.Identity(), collection.SimClustered, "root")
	for _, b := range bs {
		center := b.Center()
		bone := c.AddBone(root, geom.Translation(center), collection.SimRigid, "piece")
		c.AppendGeometry(bone, collection.BoxMesh(geom.NewBox(geom.Sub(b.Min, center), geom.Sub(b.Max, center)), 0))
	}
	if err := convex.New().ComputeProximity(c); err != nil {
		t.Fatal(err)
	}
	return c
}

// sliver returns A (volume 8), a thin B (volume 1) and C (volume 12) in a
// row along X.
func sliver(t *testing.T) *collection.Collection {
	return boxes(t,
		geom.NewBox(geom.V(0, 0, 0), geom.V(2, 2, 2)),
		geom.NewBox(geom.V(2, 0, 0), geom.V(2.5, 2, 2)),
		geom.NewBox(geom.V(2.5, 0, 0), geom.V(5.5, 2, 2)),
	)
}

func volume(c *collection.Collection, b int) float64 {
	return c.GeometryVolume(b, c.GlobalMatrices())
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFixTinyGeoMergesEverything(t *testing.T) {
	c := collection.NewGrid(4, 1, 1, 1)
	k := convex.New()
	if err := k.ComputeProximity(c); err != nil {
		t.Fatal(err)
	}
	o := DefaultTinyOptions()
	o.MinVolumeCubeRoot = 10
	out, merged := FixTinyGeo(c, nil, o, k)
	if merged != 3 {
		t.Fatalf("merged = %d, want 3", merged)
	}
	// The root is left with one child and collapses into it.
	if out.NumTransforms() != 1 {
		t.Fatalf("bones = %d, want one survivor", out.NumTransforms())
	}
	if !out.IsRigid(0) || !near(volume(out, 0), 4) {
		t.Errorf("survivor rigid=%v volume=%f, want 4", out.IsRigid(0), volume(out, 0))
	}
	if roots := out.Roots(); !slices.Equal(roots, []int{0}) {
		t.Errorf("roots = %v, want [0]", roots)
	}
	if errs := hierarchy.Validate(out); len(errs) != 0 {
		t.Errorf("validation: %v", errs)
	}
	if c.NumTransforms() != 5 {
		t.Error("input collection was modified")
	}
}

func TestFixTinyGeoNeighborPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   NeighborPolicy
		survivor int
		want     float64
	}{
		{"largest", NeighborLargest, 2, 13},
		{"nearest", NeighborNearest, 1, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultTinyOptions()
			o.MinVolumeCubeRoot = 1.5
			o.Neighbor = tt.policy
			out, merged := FixTinyGeo(sliver(t), nil, o, convex.New())
			if merged != 1 || out.NumTransforms() != 3 {
				t.Fatalf("merged=%d bones=%d, want 1 and 3", merged, out.NumTransforms())
			}
			if v := volume(out, tt.survivor); !near(v, tt.want) {
				t.Errorf("bone %d volume = %f, want %f", tt.survivor, v, tt.want)
			}
		})
	}
}

func TestFixTinyGeoSelectionPolicy(t *testing.T) {
	sel, _ := selection.FromArray(4, []int{1})
	tests := []struct {
		name   string
		policy SelectionPolicy
		merged int
	}{
		{"ignore", SelectionIgnore, 0},
		{"union", SelectionUnion, 1},
		{"exclusive", SelectionExclusive, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sliver(t)
			o := DefaultTinyOptions()
			o.MinVolumeCubeRoot = 0
			o.Selection = tt.policy
			out, merged := FixTinyGeo(c, &sel, o, nil)
			if merged != tt.merged {
				t.Fatalf("merged = %d, want %d", merged, tt.merged)
			}
			if merged == 0 {
				if out != c {
					t.Error("expected the input back")
				}
				return
			}
			// A has only B as neighbour.
			if v := volume(out, 1); !near(v, 9) {
				t.Errorf("merged volume = %f, want 9", v)
			}
		})
	}
}

func TestFixTinyGeoNoNeighbor(t *testing.T) {
	c := collection.NewBox(geom.NewBox(geom.Splat(0), geom.Splat(1)))
	o := DefaultTinyOptions()
	o.MinVolumeCubeRoot = 5
	if out, merged := FixTinyGeo(c, nil, o, convex.New()); merged != 0 || out != c {
		t.Errorf("lone bone merged=%d", merged)
	}
}

func TestFixTinyGeoRelativeThreshold(t *testing.T) {
	o := TinyOptions{UseRelativeSize: true, RelativeSize: 0.5}
	if got := o.threshold(8); !near(got, 1) {
		t.Errorf("threshold = %f, want 1", got)
	}
	o = TinyOptions{MinVolumeCubeRoot: 2}
	if got := o.threshold(1000); !near(got, 8) {
		t.Errorf("threshold = %f, want 8", got)
	}
}

// clustered returns five cubes in a row grouped as [1 2] [3 4] [5] under
// clusters 6, 7 and 8.
func clustered(t *testing.T) *collection.Collection {
	t.Helper()
	c := collection.NewGrid(5, 1, 1, 1)
	for _, group := range [][]int{{1, 2}, {3, 4}, {5}} {
		k := c.AddBone(0, geom.Identity(), collection.SimClustered, "cluster")
		hierarchy.ParentTransforms(c, k, group)
	}
	if err := convex.New().ComputeProximity(c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFixTinyGeoMergeClusters(t *testing.T) {
	o := DefaultTinyOptions()
	o.Mode = MergeClusters
	o.MinVolumeCubeRoot = 1.1
	o.OnlySameParent = true
	out, merged := FixTinyGeo(clustered(t), nil, o, nil)
	if merged != 1 {
		t.Fatalf("merged = %d, want 1", merged)
	}
	if out.NumTransforms() != 8 {
		t.Fatalf("bones = %d, want 8", out.NumTransforms())
	}
	if got := out.Children()[7]; !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("cluster 7 children = %v, want [3 4 5]", got)
	}
	if got := out.Levels()[5]; got != 2 {
		t.Errorf("moved bone level = %d, want 2", got)
	}
	if !near(volume(out, 5), 1) {
		t.Error("moved bone lost its geometry")
	}
}

func TestParsePolicies(t *testing.T) {
	if m, err := ParseMergeMode("clusters"); err != nil || m != MergeClusters {
		t.Errorf("ParseMergeMode = %v, %v", m, err)
	}
	if p, err := ParseSelectionPolicy("union"); err != nil || p != SelectionUnion {
		t.Errorf("ParseSelectionPolicy = %v, %v", p, err)
	}
	if p, err := ParseNeighborPolicy("nearest"); err != nil || p != NeighborNearest {
		t.Errorf("ParseNeighborPolicy = %v, %v", p, err)
	}
	if _, err := ParseNeighborPolicy("random"); err == nil {
		t.Error("unknown policy should fail")
	}
}

func TestExplodedView(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 1)
	if err := GenerateExplodedViewAttribute(c, geom.Splat(1), 2, -1, -1); err != nil {
		t.Fatal(err)
	}
	got := c.Vecs(collection.AttrExplodedVector, collection.GroupTransform)
	want := []geom.Vec{{}, geom.V(-1, 0, 0), geom.V(1, 0, 0)}
	for i := range want {
		if !geom.NearlyEqual(got[i], want[i], 1e-9) {
			t.Errorf("vector %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExplodedViewLevel(t *testing.T) {
	c := clustered(t)
	if err := GenerateExplodedViewAttribute(c, geom.V(1, 0, 0), 1, 1, -1); err != nil {
		t.Fatal(err)
	}
	got := c.Vecs(collection.AttrExplodedVector, collection.GroupTransform)
	// Collection centre is x=2.5; cluster 6 sits at x=1.
	if !geom.NearlyEqual(got[6], geom.V(-1.5, 0, 0), 1e-9) {
		t.Errorf("cluster vector = %v", got[6])
	}
	for _, b := range []int{1, 2} {
		if got[b] != got[6] {
			t.Errorf("child %d vector = %v, want the cluster's %v", b, got[b], got[6])
		}
	}
	if got[0] != (geom.Vec{}) {
		t.Errorf("root vector = %v, want zero", got[0])
	}
}

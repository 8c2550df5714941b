package clustering

import (
	"slices"
	"testing"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/hierarchy"
	"github.com/chazu/splinter/pkg/kernel/convex"
	"github.com/chazu/splinter/pkg/partition"
	"github.com/chazu/splinter/pkg/selection"
)

func TestAutoClusterRow(t *testing.T) {
	c := collection.NewGrid(4, 1, 1, 1)
	opts := DefaultOptions()
	opts.SiteCount = 2
	out, first := AutoCluster(c, selection.SelectRoot(c), opts, convex.New())
	if first != 5 {
		t.Fatalf("first = %d, want 5", first)
	}
	if c.NumTransforms() != 5 || len(c.IntSets(collection.AttrProximity, collection.GroupGeometry)[0]) != 0 {
		t.Error("input collection was modified")
	}
	c = out
	if got := c.Children()[0]; !slices.Equal(got, []int{5, 6}) {
		t.Fatalf("root children = %v, want [5 6]", got)
	}
	if got := c.Children()[5]; !slices.Equal(got, []int{1, 2}) {
		t.Errorf("cluster 5 children = %v, want [1 2]", got)
	}
	if got := c.Levels()[1]; got != 2 {
		t.Errorf("leaf level = %d, want 2", got)
	}
	if errs := hierarchy.Validate(c); len(errs) > 0 {
		t.Errorf("validation: %v", errs)
	}
}

func TestAutoClusterNoOp(t *testing.T) {
	tests := []struct {
		name  string
		build func() *collection.Collection
		sel   func(c *collection.Collection) selection.Selection
	}{
		{"single child", func() *collection.Collection { return collection.NewGrid(1, 1, 1, 1) }, selection.SelectRoot},
		{"rigid selection", func() *collection.Collection { return collection.NewGrid(3, 1, 1, 1) }, selection.SelectLeaf},
		{"stale selection", func() *collection.Collection { return collection.NewGrid(3, 1, 1, 1) },
			func(c *collection.Collection) selection.Selection { return selection.All(c.NumTransforms() + 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.build()
			before := c.Clone()
			out, got := AutoCluster(c, tt.sel(c), DefaultOptions(), convex.New())
			if got != collection.IndexNone {
				t.Fatalf("AutoCluster = %d, want none", got)
			}
			if out != c || !c.Equal(before) {
				t.Error("expected the unchanged input back")
			}
		})
	}
}

func TestAutoClusterGrid(t *testing.T) {
	c := collection.NewGrid(4, 4, 1, 1)
	opts := DefaultOptions()
	opts.Method = ByGrid
	opts.GridX, opts.GridY, opts.GridZ = 2, 2, 1
	out, first := AutoCluster(c, selection.SelectRoot(c), opts, convex.New())
	if first == collection.IndexNone {
		t.Fatal("expected new clusters")
	}
	if c.NumTransforms() != 17 {
		t.Errorf("input bones = %d, want 17", c.NumTransforms())
	}
	c = out
	if got := len(c.Children()[0]); got != 4 {
		t.Fatalf("root children = %d, want 4", got)
	}
	for _, cl := range c.Children()[0] {
		if n := len(c.Children()[cl]); n != 4 {
			t.Errorf("cluster %d has %d children, want 4", cl, n)
		}
	}
}

func TestSiteCount(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		n    int
		want int
	}{
		{"count", Options{Method: BySiteCount, SiteCount: 3}, 10, 3},
		{"count clamped", Options{Method: BySiteCount, SiteCount: 30}, 10, 10},
		{"fraction", Options{Method: ByFractionOfInput, Fraction: 0.25}, 10, 3},
		{"size", Options{Method: BySize, SiteSize: 4}, 10, 3},
		{"grid", Options{Method: ByGrid, GridX: 2, GridY: 2, GridZ: 1}, 10, 4},
		{"at least one", Options{Method: BySize, SiteSize: 100}, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.siteCount(tt.n); got != tt.want {
				t.Errorf("siteCount(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{BySiteCount, ByFractionOfInput, BySize, ByGrid} {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMethod("nope"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestGridCentersSpanBodies(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 2)
	p := partition.New(c, c.Children()[0], 1)
	got := gridCenters(p, Options{GridX: 2, GridY: 1, GridZ: 1})
	want := []geom.Vec{geom.V(1.5, 1, 1), geom.V(2.5, 1, 1)}
	if len(got) != len(want) {
		t.Fatalf("centers = %v, want %v", got, want)
	}
	for i := range want {
		if !geom.NearlyEqual(got[i], want[i], 1e-9) {
			t.Errorf("center %d = %v, want %v", i, got[i], want[i])
		}
	}
}

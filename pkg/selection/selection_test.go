package selection

import (
	"errors"
	"slices"
	"testing"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
)

func mustFrom(t *testing.T, n int, idx ...int) Selection {
	t.Helper()
	s, err := FromArray(n, idx)
	if err != nil {
		t.Fatalf("FromArray(%d, %v): %v", n, idx, err)
	}
	return s
}

func TestArrayRoundTrip(t *testing.T) {
	s := mustFrom(t, 130, 0, 63, 64, 129)
	if got := s.AsArray(); !slices.Equal(got, []int{0, 63, 64, 129}) {
		t.Errorf("AsArray = %v", got)
	}
	if s.Num() != 4 {
		t.Errorf("Num = %d, want 4", s.Num())
	}
	if _, err := FromArray(10, []int{3, 10}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestAlgebraLaws(t *testing.T) {
	cases := []struct {
		name string
		n    int
		a, b []int
	}{
		{"empty", 5, nil, nil},
		{"disjoint", 8, []int{0, 1}, []int{6, 7}},
		{"overlap", 70, []int{1, 5, 66, 69}, []int{5, 6, 66}},
		{"full", 64, []int{0, 10, 63}, []int{10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := mustFrom(t, tc.n, tc.a...)
			b := mustFrom(t, tc.n, tc.b...)

			ab, _ := a.And(b)
			ba, _ := b.And(a)
			if !ab.Equal(ba) {
				t.Errorf("AND not commutative: %v vs %v", ab, ba)
			}
			sub, _ := a.Subtract(b)
			left, _ := sub.And(b)
			if !left.IsEmpty() {
				t.Errorf("(A-B)&B = %v, want empty", left)
			}
			all, _ := a.Or(a.Invert())
			if all.Num() != tc.n {
				t.Errorf("A|~A selects %d of %d", all.Num(), tc.n)
			}
			x, _ := a.Xor(b)
			u, _ := a.Or(b)
			un, _ := u.Subtract(ab)
			if !x.Equal(un) {
				t.Errorf("A^B = %v, want %v", x, un)
			}
		})
	}
}

func TestLengthMismatch(t *testing.T) {
	a, b := New(3), New(4)
	if _, err := a.And(b); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
	c := collection.NewGrid(2, 1, 1, 1)
	if err := New(2).Validate(c, collection.GroupTransform); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Validate err = %v", err)
	}
	if !New(3).IsValidFor(c, collection.GroupTransform) {
		t.Error("length 3 should be valid for 3 bones")
	}
}

func TestInvertTrimsTail(t *testing.T) {
	s := New(3).Invert()
	if s.Num() != 3 {
		t.Errorf("Num = %d, want 3", s.Num())
	}
	if !All(3).Equal(s) {
		t.Error("inverted empty should equal All")
	}
}

func TestHierarchySelectors(t *testing.T) {
	c := collection.NewGrid(3, 1, 1, 1) // 0 root, 1..3 cubes

	if got := SelectRoot(c).AsArray(); !slices.Equal(got, []int{0}) {
		t.Errorf("roots = %v", got)
	}
	if got := SelectLeaf(c).AsArray(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("leaves = %v", got)
	}
	if got := SelectCluster(c).AsArray(); !slices.Equal(got, []int{0}) {
		t.Errorf("clusters = %v", got)
	}
	one := mustFrom(t, 4, 2)
	sib, err := SelectSiblings(c, one)
	if err != nil {
		t.Fatal(err)
	}
	if got := sib.AsArray(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("siblings = %v", got)
	}
	par, _ := SelectParent(c, one)
	if got := par.AsArray(); !slices.Equal(got, []int{0}) {
		t.Errorf("parent = %v", got)
	}
	ch, _ := SelectChildren(c, par)
	if got := ch.AsArray(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("children = %v", got)
	}
	if got := SelectTargetLevel(c, 1, true).AsArray(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("level 1 = %v", got)
	}
}

func TestCustomSkipsInvalid(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 1)
	s := Custom(c, collection.GroupTransform, "0 2 9 x -1")
	if got := s.AsArray(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("custom = %v, want [0 2]", got)
	}
}

func TestSpatialSelectors(t *testing.T) {
	c := collection.NewGrid(4, 1, 1, 1) // cubes centred at x = 0.5, 1.5, 2.5, 3.5
	box := geom.NewBox(geom.V(0, 0, 0), geom.V(2, 1, 1))
	if got := SelectCentroidInBox(c, box, geom.Identity()).AsArray(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("centroid in box = %v, want [1 2]", got)
	}
	if got := SelectBoundingBoxInBox(c, box, geom.Identity()).AsArray(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("bounds in box = %v, want [1 2]", got)
	}
	if got := SelectCentroidInSphere(c, geom.V(3.5, 0.5, 0.5), 0.1, geom.Identity()).AsArray(); !slices.Equal(got, []int{4}) {
		t.Errorf("centroid in sphere = %v, want [4]", got)
	}
	if got := SelectVerticesInBox(c, box, geom.Identity(), false).AsArray(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("vertices in box = %v, want [1 2 3]", got)
	}
}

func TestRangeSelectors(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 1)
	got := SelectByVolume(c, Range{Min: 0.5, Max: 1.5, Inclusive: true, Inside: true}).AsArray()
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("by volume = %v, want [1 2]", got)
	}
	got = SelectBySize(c, Range{Min: 0.9, Max: 1.1, Inside: false}, true).AsArray()
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("by relative size outside = %v, want [1 2]", got)
	}
	if _, err := SelectByFloatAttribute(c, collection.GroupTransform, collection.AttrLevel, Range{}); err == nil {
		t.Error("expected type error for int attribute read as float")
	}
	lvl, err := SelectByIntAttribute(c, collection.GroupTransform, collection.AttrLevel, Range{Min: 1, Max: 1, Inclusive: true, Inside: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := lvl.AsArray(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("by int attr = %v", got)
	}
}

func TestConversions(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 1)
	faces, err := TransformToFace(c, mustFrom(t, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if faces.Num() != 12 || !faces.IsSelected(12) || faces.IsSelected(11) {
		t.Errorf("faces = %v", faces)
	}
	back, _ := FaceToTransform(c, faces, true)
	if got := back.AsArray(); !slices.Equal(got, []int{2}) {
		t.Errorf("face->transform = %v", got)
	}
	verts, _ := FaceToVertex(c, faces)
	if verts.Num() != 8 {
		t.Errorf("verts = %d, want 8", verts.Num())
	}
	vf, _ := VertexToFace(c, verts, true)
	if !vf.Equal(faces) {
		t.Errorf("vertex->face = %v", vf)
	}
}

func TestByPercentageDeterministic(t *testing.T) {
	in := All(100)
	a := ByPercentage(in, 25, 7)
	b := ByPercentage(in, 25, 7)
	if a.Num() != 25 || !a.Equal(b) {
		t.Errorf("percentage selection: %d selected, equal=%v", a.Num(), a.Equal(b))
	}
}

func TestZeroAndCloneIndependence(t *testing.T) {
	var zero Selection
	if !zero.IsEmpty() || zero.Num() != 0 || len(zero.AsArray()) != 0 {
		t.Errorf("zero selection = %v", zero)
	}
	if !zero.Equal(New(0)) || !zero.Invert().IsEmpty() {
		t.Error("zero selection should match New(0)")
	}

	a := mustFrom(t, 70, 1, 65)
	b := a.Clone()
	b.Select(2)
	b.Deselect(65)
	if got := a.AsArray(); !slices.Equal(got, []int{1, 65}) {
		t.Errorf("clone changed the original: %v", got)
	}
	if inv := All(70).Invert(); !inv.IsEmpty() || inv.Len() != 70 {
		t.Errorf("All(70).Invert() = %v", inv)
	}
	if got := a.Invert().Num(); got != 68 {
		t.Errorf("inverted count = %d, want 68", got)
	}
}

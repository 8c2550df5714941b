package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/splinter/pkg/geom"
)

func TestBox(t *testing.T) {
	g := New()
	mesh, err := g.Box(geom.V(4, 2, 1))
	if err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	size := mesh.Bounds().Size()
	want := geom.V(4, 2, 1)
	if !geom.NearlyEqual(size, want, 0.1) {
		t.Errorf("bounds size = %v, want about %v", size, want)
	}
	if mesh.Name != "box" {
		t.Errorf("name = %q", mesh.Name)
	}
}

func TestSphere(t *testing.T) {
	g := &Generator{Cells: 16}
	mesh, err := g.Sphere(2)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	for i := range mesh.VertexCount() {
		r := geom.Length(mesh.Vertex(i))
		if math.Abs(r-2) > 0.3 {
			t.Fatalf("vertex %d at radius %f, want about 2", i, r)
		}
	}
}

func TestCylinder(t *testing.T) {
	mesh, err := New().Cylinder(5, 1)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	size := mesh.Bounds().Size()
	if math.Abs(size.Z-5) > 0.3 {
		t.Errorf("cylinder height = %f, want about 5", size.Z)
	}
}

func TestInvalidSizes(t *testing.T) {
	g := New()
	if _, err := g.Sphere(-1); err == nil {
		t.Error("negative radius should fail")
	}
	if _, err := g.Cylinder(-1, 1); err == nil {
		t.Error("negative height should fail")
	}
}

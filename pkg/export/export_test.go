package export_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/export"
	"github.com/chazu/splinter/pkg/fracture"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel/convex"
	"github.com/chazu/splinter/pkg/utility"
)

func TestPartsPerRigidBone(t *testing.T) {
	c := collection.NewGrid(3, 1, 1, 1)
	parts, err := export.Parts(c, export.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	for i, p := range parts {
		if p.Bone != i+1 {
			t.Errorf("part %d is bone %d, want %d", i, p.Bone, i+1)
		}
		if p.Mesh.TriangleCount() != 12 {
			t.Errorf("bone %d has %d triangles, want 12", p.Bone, p.Mesh.TriangleCount())
		}
		// Meshes are in world space: cube i spans [i, i+1] on X.
		b := p.Mesh.Bounds()
		if !geom.NearlyEqual(b.Min, geom.V(float64(i), 0, 0), 1e-6) {
			t.Errorf("bone %d bounds %v", p.Bone, b)
		}
	}
}

func TestPartsEmpty(t *testing.T) {
	parts, err := export.Parts(nil, export.Options{})
	if err != nil || parts != nil {
		t.Errorf("nil collection gave %v, %v", parts, err)
	}
}

func TestSkipInternal(t *testing.T) {
	c := collection.NewBox(geom.NewBox(geom.Splat(-1), geom.Splat(1)))
	planes := []geom.Plane{geom.PlaneFromPointNormal(geom.Vec{}, geom.V(1, 0, 0))}
	r := fracture.New(convex.New(), nil).PlaneCutter(c, nil, fracture.PlaneOptions{Common: fracture.DefaultCommon(), Planes: planes})
	if !r.Cut() {
		t.Fatal("plane did not cut")
	}
	all, err := export.Parts(r.Collection, export.Options{})
	if err != nil {
		t.Fatal(err)
	}
	outer, err := export.Parts(r.Collection, export.Options{SkipInternal: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || len(outer) != 2 {
		t.Fatalf("parts = %d and %d, want 2", len(all), len(outer))
	}
	for i := range all {
		if outer[i].Mesh.TriangleCount() >= all[i].Mesh.TriangleCount() {
			t.Errorf("part %d kept its cut face", i)
		}
	}
}

func TestExplodedOffsets(t *testing.T) {
	c := collection.NewGrid(2, 1, 1, 1)
	if err := utility.GenerateExplodedViewAttribute(c, geom.Splat(1), 1, -1, -1); err != nil {
		t.Fatal(err)
	}
	parts, err := export.Parts(c, export.Options{Explode: 2})
	if err != nil {
		t.Fatal(err)
	}
	// Offsets are (-0.5,0,0) and (0.5,0,0); doubled they move each cube by 1.
	if got := parts[0].Mesh.Bounds().Min; !geom.NearlyEqual(got, geom.V(-1, 0, 0), 1e-6) {
		t.Errorf("first cube min = %v", got)
	}
	if got := parts[1].Mesh.Bounds().Max; !geom.NearlyEqual(got, geom.V(3, 1, 1), 1e-6) {
		t.Errorf("second cube max = %v", got)
	}
}

func TestWriteJSON(t *testing.T) {
	parts, err := export.Parts(collection.NewGrid(2, 1, 1, 1), export.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, parts); err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Bones != 2 || doc.Triangles != 24 || len(doc.Parts) != 2 {
		t.Errorf("document = %d bones, %d triangles", doc.Bones, doc.Triangles)
	}
	if doc.Parts[0].GUID == "" {
		t.Error("GUID missing")
	}
}

func TestSaveSTL(t *testing.T) {
	parts, err := export.Parts(collection.NewGrid(2, 1, 1, 1), export.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(export.Triangles(parts)); n != 24 {
		t.Fatalf("triangles = %d, want 24", n)
	}
	path := filepath.Join(t.TempDir(), "out.stl")
	if err := export.SaveSTL(path, parts); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() < 84 {
		t.Errorf("file size = %d", info.Size())
	}
	if err := export.SaveSTL(path, nil); err == nil {
		t.Error("empty export should fail")
	}
}

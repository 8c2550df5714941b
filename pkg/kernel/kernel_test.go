package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshDataRoundTrip(t *testing.T) {
	box := collection.BoxMesh(geom.NewBox(geom.V(0, 0, 0), geom.V(1, 2, 3)), 4)
	flat := FromMeshData(box, geom.Translation(geom.V(10, 0, 0)).Matrix(), "b")
	if flat.TriangleCount() != 12 || flat.VertexCount() != 36 {
		t.Fatalf("tris=%d verts=%d", flat.TriangleCount(), flat.VertexCount())
	}
	b := flat.Bounds()
	if !geom.NearlyEqual(b.Min, geom.V(10, 0, 0), 1e-6) || !geom.NearlyEqual(b.Max, geom.V(11, 2, 3), 1e-6) {
		t.Errorf("bounds = %v", b)
	}
	back := flat.MeshData(4)
	if v := back.Volume(); math.Abs(v-6) > 1e-4 {
		t.Errorf("volume = %f, want 6", v)
	}
}

func TestTransformedNormals(t *testing.T) {
	box := collection.BoxMesh(geom.NewBox(geom.V(-1, -1, -1), geom.V(1, 1, 1)), 0)
	flat := FromMeshData(box, geom.Identity4(), "")
	rot := geom.NewTransform(geom.Rotator{Yaw: 90}, geom.Vec{}, geom.Splat(1))
	out := flat.Transformed(rot)
	for i := 0; i < out.VertexCount(); i++ {
		n := geom.V(float64(out.Normals[3*i]), float64(out.Normals[3*i+1]), float64(out.Normals[3*i+2]))
		if math.Abs(geom.Length(n)-1) > 1e-5 {
			t.Fatalf("normal %d not unit: %v", i, n)
		}
	}
}

func TestCellBuilders(t *testing.T) {
	bounds := geom.NewBox(geom.V(0, 0, 0), geom.V(1, 1, 1))
	if _, err := VoronoiCells(nil, bounds); !errors.Is(err, ErrNoSites) {
		t.Errorf("err = %v, want ErrNoSites", err)
	}
	if _, err := VoronoiCells([]geom.Vec{{}}, geom.Box{}); err == nil {
		t.Error("zero-volume bounds should be rejected")
	}
	cells, err := VoronoiCells([]geom.Vec{geom.V(0.25, 0.5, 0.5), geom.V(0.75, 0.5, 0.5)}, bounds)
	if err != nil {
		t.Fatal(err)
	}
	planes := cells.VoronoiCell(0)
	if len(planes) != 7 {
		t.Fatalf("planes = %d, want 7", len(planes))
	}
	if d := planes[0].SignedDistance(geom.V(0.5, 0, 0)); math.Abs(d) > 1e-12 {
		t.Errorf("bisector should pass through x=0.5, got %f", d)
	}
	if _, err := BoxCells(nil, false); !errors.Is(err, ErrEmptyCells) {
		t.Errorf("err = %v, want ErrEmptyCells", err)
	}
}

func TestNoiseMaxDisplacement(t *testing.T) {
	n := NoiseSettings{Amplitude: 2, Octaves: 3, Persistence: 0.5}
	if got := n.MaxDisplacement(); math.Abs(got-3.5) > 1e-12 {
		t.Errorf("MaxDisplacement = %f, want 3.5", got)
	}
	if (NoiseSettings{}).Enabled() {
		t.Error("zero noise should be disabled")
	}
}

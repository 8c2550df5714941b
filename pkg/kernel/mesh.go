package kernel

import (
	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
)

// Mesh is a flat triangle mesh used for cutting meshes and exports.
// Vertices and normals hold 3 floats per vertex; indices hold 3 per
// triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // bone or primitive the mesh came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) geom.Vec {
	return geom.V(float64(m.Vertices[3*i]), float64(m.Vertices[3*i+1]), float64(m.Vertices[3*i+2]))
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c geom.Vec) {
	return m.Vertex(int(m.Indices[3*i])), m.Vertex(int(m.Indices[3*i+1])), m.Vertex(int(m.Indices[3*i+2]))
}

// Bounds returns the box around the vertices.
func (m *Mesh) Bounds() geom.Box {
	b := geom.EmptyBox()
	for i := range m.VertexCount() {
		b = b.Extend(m.Vertex(i))
	}
	return b
}

// Transformed returns a copy with positions and normals mapped by xf.
func (m *Mesh) Transformed(xf geom.Transform) *Mesh {
	mat := xf.Matrix()
	normalMat := geom.Inverse(mat).Transpose()
	out := &Mesh{
		Vertices: make([]float32, 0, len(m.Vertices)),
		Normals:  make([]float32, 0, len(m.Normals)),
		Indices:  append([]uint32(nil), m.Indices...),
		Name:     m.Name,
	}
	for i := range m.VertexCount() {
		p := geom.TransformPosition(mat, m.Vertex(i))
		out.Vertices = append(out.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		if 3*i+2 < len(m.Normals) {
			n := geom.V(float64(m.Normals[3*i]), float64(m.Normals[3*i+1]), float64(m.Normals[3*i+2]))
			n = geom.Normalize(geom.TransformVector(normalMat, n))
			out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
	return out
}

// FromMeshData flattens collection geometry, transformed by m, with one
// face normal per corner.
func FromMeshData(d collection.MeshData, m geom.Mat, name string) *Mesh {
	out := &Mesh{
		Vertices: make([]float32, 0, 9*len(d.Triangles)),
		Normals:  make([]float32, 0, 9*len(d.Triangles)),
		Indices:  make([]uint32, 0, 3*len(d.Triangles)),
		Name:     name,
	}
	for _, t := range d.Triangles {
		var p [3]geom.Vec
		for j := range 3 {
			p[j] = geom.TransformPosition(m, d.Vertices[t[j]])
		}
		n := geom.Normalize(geom.Cross(geom.Sub(p[1], p[0]), geom.Sub(p[2], p[0])))
		for j := range 3 {
			out.Indices = append(out.Indices, uint32(len(out.Vertices)/3))
			out.Vertices = append(out.Vertices, float32(p[j].X), float32(p[j].Y), float32(p[j].Z))
			out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
	return out
}

// MeshData converts the mesh into collection geometry with the given
// material, merging no vertices.
func (m *Mesh) MeshData(material int) collection.MeshData {
	d := collection.MeshData{Vertices: make([]geom.Vec, m.VertexCount())}
	for i := range d.Vertices {
		d.Vertices[i] = m.Vertex(i)
	}
	for i := range m.TriangleCount() {
		d.Triangles = append(d.Triangles, [3]int{int(m.Indices[3*i]), int(m.Indices[3*i+1]), int(m.Indices[3*i+2])})
		d.MaterialIDs = append(d.MaterialIDs, material)
		d.Internal = append(d.Internal, false)
	}
	return d
}

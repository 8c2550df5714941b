// Package sdfx implements kernel.Primitives with the
// github.com/deadsy/sdfx SDF-based CAD library. Shapes are tessellated with
// uniform marching cubes, so curved cutters come out as closed polyhedra.
package sdfx

import (
	"fmt"

	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Primitives = (*Generator)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest axis. Cutting meshes stay coarse; every hull face becomes a
// clip plane.
const DefaultMeshCells = 24

// Generator builds cutting meshes from SDF primitives.
type Generator struct {
	Cells int
}

// New returns a Generator at the default resolution.
func New() *Generator {
	return &Generator{Cells: DefaultMeshCells}
}

// Box creates a box with the given size, centred on the origin.
func (g *Generator) Box(size geom.Vec) (*kernel.Mesh, error) {
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	return g.ToMesh(s, "box")
}

// Sphere creates a sphere centred on the origin.
func (g *Generator) Sphere(radius float64) (*kernel.Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Sphere3D: %w", err)
	}
	return g.ToMesh(s, "sphere")
}

// Cylinder creates a cylinder along Z centred on the origin.
func (g *Generator) Cylinder(height, radius float64) (*kernel.Mesh, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
	}
	return g.ToMesh(s, "cylinder")
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (g *Generator) ToMesh(s sdf.SDF3, name string) (*kernel.Mesh, error) {
	cells := g.Cells
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: %s rendered no triangles", kernel.ErrEmptyMesh, name)
	}

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Name:     name,
	}, nil
}

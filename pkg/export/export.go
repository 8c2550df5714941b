// Package export walks a collection's hierarchy and produces one world
// space triangle mesh per rigid bone, for JSON or STL output.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/kernel"
)

// Options controls which faces are exported and where.
type Options struct {
	// Explode scales the ExplodedVector attribute into each part's
	// offset. Zero ignores the attribute.
	Explode float64
	// SkipInternal drops faces created by cuts.
	SkipInternal bool
	// IncludeHidden exports bones without visible faces.
	IncludeHidden bool
}

// Part is the exported mesh of one bone.
type Part struct {
	Bone  int          `json:"bone"`
	GUID  string       `json:"guid"`
	Name  string       `json:"name"`
	Level int          `json:"level"`
	Mesh  *kernel.Mesh `json:"mesh"`
}

// Parts walks every root depth first and returns the rigid bones' meshes
// in visiting order. Clusters are walked through; embedded bones are
// skipped with their subtrees.
func Parts(c *collection.Collection, o Options) ([]Part, error) {
	if c == nil {
		return nil, nil
	}
	w := &walker{c: c, o: o, global: c.GlobalMatrices(), seen: make([]bool, c.NumTransforms())}
	if o.Explode != 0 {
		w.offsets = c.Vecs(collection.AttrExplodedVector, collection.GroupTransform)
	}
	for _, r := range c.Roots() {
		if err := w.visit(r); err != nil {
			return nil, fmt.Errorf("export: walking root %d: %w", r, err)
		}
	}
	return w.parts, nil
}

type walker struct {
	c       *collection.Collection
	o       Options
	global  []geom.Mat
	offsets []geom.Vec
	seen    []bool
	parts   []Part
}

func (w *walker) visit(b int) error {
	if w.seen[b] {
		return fmt.Errorf("bone %d reached twice", b)
	}
	w.seen[b] = true
	switch w.c.SimulationTypes()[b] {
	case collection.SimRigid:
		return w.rigid(b)
	case collection.SimClustered:
		for _, ch := range w.c.Children()[b] {
			if err := w.visit(ch); err != nil {
				return err
			}
		}
		return nil
	case collection.SimEmbedded:
		return nil
	default:
		return fmt.Errorf("bone %d has unknown simulation type %d", b, w.c.SimulationTypes()[b])
	}
}

func (w *walker) rigid(b int) error {
	if !w.o.IncludeHidden && !w.c.IsVisible(b) {
		return nil
	}
	md := w.c.BoneMesh(b)
	if w.o.SkipInternal {
		md = external(md)
	}
	if md.NumTriangles() == 0 {
		return nil
	}
	m := w.global[b]
	if w.offsets != nil {
		m = geom.Translation(geom.Scale(w.o.Explode, w.offsets[b])).Matrix().Mul4(m)
	}
	name := w.c.Strings(collection.AttrBoneName, collection.GroupTransform)[b]
	w.parts = append(w.parts, Part{
		Bone:  b,
		GUID:  w.c.Strings(collection.AttrGUID, collection.GroupTransform)[b],
		Name:  name,
		Level: w.c.Levels()[b],
		Mesh:  kernel.FromMeshData(md, m, name),
	})
	return nil
}

func external(md collection.MeshData) collection.MeshData {
	out := collection.MeshData{Vertices: md.Vertices}
	for i, t := range md.Triangles {
		if md.IsInternal(i) {
			continue
		}
		out.Triangles = append(out.Triangles, t)
		out.MaterialIDs = append(out.MaterialIDs, md.Material(i))
		out.Internal = append(out.Internal, false)
	}
	return out
}

// Document is the JSON form of an export.
type Document struct {
	Bones     int    `json:"bones"`
	Triangles int    `json:"triangles"`
	Parts     []Part `json:"parts"`
}

// WriteJSON writes parts as an indented Document.
func WriteJSON(w io.Writer, parts []Part) error {
	doc := Document{Bones: len(parts), Parts: parts}
	for _, p := range parts {
		doc.Triangles += p.Mesh.TriangleCount()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Triangles flattens parts into sdfx triangles.
func Triangles(parts []Part) []*sdf.Triangle3 {
	var out []*sdf.Triangle3
	for _, p := range parts {
		for i := range p.Mesh.TriangleCount() {
			a, b, c := p.Mesh.Triangle(i)
			out = append(out, &sdf.Triangle3{vec(a), vec(b), vec(c)})
		}
	}
	return out
}

func vec(v geom.Vec) v3.Vec { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// SaveSTL writes every part into one binary STL file.
func SaveSTL(path string, parts []Part) error {
	tris := Triangles(parts)
	if len(tris) == 0 {
		return fmt.Errorf("export: nothing to write to %s", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

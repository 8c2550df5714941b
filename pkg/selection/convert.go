package selection

import "github.com/chazu/splinter/pkg/collection"

// TransformToFace selects the faces of the geometry owned by selected
// bones.
func TransformToFace(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupTransform); err != nil {
		return Selection{}, err
	}
	out := New(c.NumElements(collection.GroupFaces))
	forOwned(c, in, collection.AttrFaceStart, collection.AttrFaceCount, out.Select)
	return out, nil
}

// TransformToVertex selects the vertices of the geometry owned by selected
// bones.
func TransformToVertex(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupTransform); err != nil {
		return Selection{}, err
	}
	out := New(c.NumElements(collection.GroupVertices))
	forOwned(c, in, collection.AttrVertexStart, collection.AttrVertexCount, out.Select)
	return out, nil
}

func forOwned(c *collection.Collection, in Selection, startAttr, countAttr string, fn func(int)) {
	tg := c.TransformToGeometry()
	start := c.Ints(startAttr, collection.GroupGeometry)
	count := c.Ints(countAttr, collection.GroupGeometry)
	for _, b := range in.AsArray() {
		g := tg[b]
		if g < 0 || g >= len(start) {
			continue
		}
		for e := start[g]; e < start[g]+count[g]; e++ {
			fn(e)
		}
	}
}

// FaceToTransform selects the bones owning selected faces: any face, or
// every face of the bone when all is set.
func FaceToTransform(c *collection.Collection, in Selection, all bool) (Selection, error) {
	if err := in.Validate(c, collection.GroupFaces); err != nil {
		return Selection{}, err
	}
	return elementsToTransform(c, in, collection.AttrFaceStart, collection.AttrFaceCount, all), nil
}

// VertexToTransform selects the bones owning selected vertices.
func VertexToTransform(c *collection.Collection, in Selection, all bool) (Selection, error) {
	if err := in.Validate(c, collection.GroupVertices); err != nil {
		return Selection{}, err
	}
	return elementsToTransform(c, in, collection.AttrVertexStart, collection.AttrVertexCount, all), nil
}

func elementsToTransform(c *collection.Collection, in Selection, startAttr, countAttr string, all bool) Selection {
	out := SelectNone(c)
	owner := c.Ints(collection.AttrTransformIndex, collection.GroupGeometry)
	start := c.Ints(startAttr, collection.GroupGeometry)
	count := c.Ints(countAttr, collection.GroupGeometry)
	for g, b := range owner {
		if b < 0 || count[g] == 0 {
			continue
		}
		hits := 0
		for e := start[g]; e < start[g]+count[g]; e++ {
			if in.IsSelected(e) {
				hits++
			}
		}
		if (all && hits == count[g]) || (!all && hits > 0) {
			out.Select(b)
		}
	}
	return out
}

// VertexToFace selects faces touching selected vertices: any corner, or all
// three when all is set.
func VertexToFace(c *collection.Collection, in Selection, all bool) (Selection, error) {
	if err := in.Validate(c, collection.GroupVertices); err != nil {
		return Selection{}, err
	}
	tris := c.Tris(collection.AttrIndices, collection.GroupFaces)
	out := New(len(tris))
	for f, t := range tris {
		hits := 0
		for _, v := range t {
			if in.IsSelected(v) {
				hits++
			}
		}
		if (all && hits == 3) || (!all && hits > 0) {
			out.Select(f)
		}
	}
	return out, nil
}

// FaceToVertex selects the corners of selected faces.
func FaceToVertex(c *collection.Collection, in Selection) (Selection, error) {
	if err := in.Validate(c, collection.GroupFaces); err != nil {
		return Selection{}, err
	}
	tris := c.Tris(collection.AttrIndices, collection.GroupFaces)
	out := New(c.NumElements(collection.GroupVertices))
	for _, f := range in.AsArray() {
		for _, v := range tris[f] {
			out.Select(v)
		}
	}
	return out, nil
}

package collection

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/chazu/splinter/pkg/geom"
	"github.com/chazu/splinter/pkg/random"
)

// MeshData is a triangle mesh with indices local to its own vertex list,
// used to move geometry in and out of a collection.
type MeshData struct {
	Vertices    []geom.Vec
	Triangles   [][3]int
	MaterialIDs []int
	Internal    []bool
}

// NumTriangles returns the triangle count.
func (m MeshData) NumTriangles() int { return len(m.Triangles) }

// Material returns the material of triangle i, defaulting to 0.
func (m MeshData) Material(i int) int {
	if i < len(m.MaterialIDs) {
		return m.MaterialIDs[i]
	}
	return 0
}

// IsInternal reports whether triangle i is an internal face.
func (m MeshData) IsInternal(i int) bool {
	return i < len(m.Internal) && m.Internal[i]
}

// Append adds o to m, offsetting its indices.
func (m *MeshData) Append(o MeshData) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	for i, t := range o.Triangles {
		m.Triangles = append(m.Triangles, [3]int{t[0] + base, t[1] + base, t[2] + base})
		m.MaterialIDs = append(m.MaterialIDs, o.Material(i))
		m.Internal = append(m.Internal, o.IsInternal(i))
	}
}

// Bounds returns the box around the vertices.
func (m MeshData) Bounds() geom.Box {
	return geom.BoxFromPoints(m.Vertices)
}

// Volume returns the signed enclosed volume of a closed, outward-wound mesh.
func (m MeshData) Volume() float64 {
	v := 0.0
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		v += geom.Dot(a, geom.Cross(b, c))
	}
	return v / 6
}

// Centroid returns the volume-weighted centroid of a closed mesh, falling
// back to the vertex average for degenerate input.
func (m MeshData) Centroid() geom.Vec {
	var sum geom.Vec
	vol := 0.0
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		v := geom.Dot(a, geom.Cross(b, c)) / 6
		sum = geom.Add(sum, geom.Scale(v/4, geom.Add(a, geom.Add(b, c))))
		vol += v
	}
	if math.Abs(vol) < geom.Epsilon {
		return geom.Centroid(m.Vertices)
	}
	return geom.Scale(1/vol, sum)
}

// BoxMesh returns an outward-wound 12-triangle box.
func BoxMesh(b geom.Box, material int) MeshData {
	m := MeshData{Vertices: make([]geom.Vec, 8)}
	for i := range 8 {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		m.Vertices[i] = p
	}
	m.Triangles = [][3]int{
		{0, 4, 6}, {0, 6, 2}, // -X
		{1, 3, 7}, {1, 7, 5}, // +X
		{0, 1, 5}, {0, 5, 4}, // -Y
		{2, 6, 7}, {2, 7, 3}, // +Y
		{0, 2, 3}, {0, 3, 1}, // -Z
		{4, 5, 7}, {4, 7, 6}, // +Z
	}
	m.MaterialIDs = make([]int, len(m.Triangles))
	m.Internal = make([]bool, len(m.Triangles))
	for i := range m.MaterialIDs {
		m.MaterialIDs[i] = material
	}
	return m
}

// NumTransforms returns the number of bones.
func (c *Collection) NumTransforms() int { return c.NumElements(GroupTransform) }

// NumGeometry returns the number of geometry entries.
func (c *Collection) NumGeometry() int { return c.NumElements(GroupGeometry) }

// Parents returns the Parent array.
func (c *Collection) Parents() []int { return c.Ints(AttrParent, GroupTransform) }

// Children returns the Children array.
func (c *Collection) Children() [][]int { return c.IntSets(AttrChildren, GroupTransform) }

// SimulationTypes returns the SimulationType array.
func (c *Collection) SimulationTypes() []int { return c.Ints(AttrSimulationType, GroupTransform) }

// Levels returns the Level array.
func (c *Collection) Levels() []int { return c.Ints(AttrLevel, GroupTransform) }

// LocalTransforms returns the per-bone local transforms.
func (c *Collection) LocalTransforms() []geom.Transform {
	return c.Transforms(AttrTransform, GroupTransform)
}

// TransformToGeometry returns the bone to geometry index map.
func (c *Collection) TransformToGeometry() []int { return c.Ints(AttrTransformToGeo, GroupTransform) }

// InRange reports whether i is a valid bone index.
func (c *Collection) InRange(i int) bool { return i >= 0 && i < c.NumTransforms() }

// IsRigid reports whether bone i is a rigid body.
func (c *Collection) IsRigid(i int) bool {
	return c.InRange(i) && c.SimulationTypes()[i] == SimRigid
}

// IsCluster reports whether bone i is a cluster.
func (c *Collection) IsCluster(i int) bool {
	return c.InRange(i) && c.SimulationTypes()[i] == SimClustered
}

// IsVisible reports whether bone i owns geometry with at least one visible
// face.
func (c *Collection) IsVisible(i int) bool {
	if !c.InRange(i) {
		return false
	}
	g := c.TransformToGeometry()[i]
	if g < 0 || g >= c.NumGeometry() {
		return false
	}
	start := c.Ints(AttrFaceStart, GroupGeometry)[g]
	count := c.Ints(AttrFaceCount, GroupGeometry)[g]
	visible := c.Bools(AttrVisible, GroupFaces)
	for f := start; f >= 0 && f < start+count && f < len(visible); f++ {
		if visible[f] {
			return true
		}
	}
	return false
}

// AddBone appends a bone under parent (IndexNone for a root) and returns
// its index.
func (c *Collection) AddBone(parent int, local geom.Transform, sim int, name string) int {
	i := c.AddElements(1, GroupTransform)
	c.LocalTransforms()[i] = local
	c.SimulationTypes()[i] = sim
	c.Strings(AttrBoneName, GroupTransform)[i] = name
	c.Parents()[i] = IndexNone
	if c.InRange(parent) && parent != i {
		c.SetParent(i, parent)
		c.Levels()[i] = c.Levels()[parent] + 1
	}
	return i
}

// SetParent moves child under parent, keeping Children in step. Levels are
// not updated; call UpdateLevels after a batch of moves.
func (c *Collection) SetParent(child, parent int) {
	parents := c.Parents()
	children := c.Children()
	if old := parents[child]; old >= 0 && old < len(children) {
		children[old] = slices.DeleteFunc(children[old], func(v int) bool { return v == child })
	}
	parents[child] = parent
	if parent >= 0 && parent < len(children) {
		set := children[parent]
		if i, found := slices.BinarySearch(set, child); !found {
			children[parent] = slices.Insert(set, i, child)
		}
	}
}

// RebuildChildren derives every Children set from Parent.
func (c *Collection) RebuildChildren() {
	parents := c.Parents()
	children := c.Children()
	for i := range children {
		children[i] = children[i][:0]
	}
	for i, p := range parents {
		if p >= 0 && p < len(children) {
			children[p] = append(children[p], i)
		}
	}
}

// Roots returns the bones without a parent, in index order.
func (c *Collection) Roots() []int {
	var out []int
	for i, p := range c.Parents() {
		if p == IndexNone {
			out = append(out, i)
		}
	}
	return out
}

// UpdateLevels recomputes Level from Parent. Bones on a parent cycle get
// level 0.
func (c *Collection) UpdateLevels() {
	parents := c.Parents()
	levels := c.Levels()
	state := make([]int8, len(parents)) // 0 new, 1 visiting, 2 done
	var visit func(i int) int
	visit = func(i int) int {
		switch state[i] {
		case 2:
			return levels[i]
		case 1:
			return -1
		}
		state[i] = 1
		l := 0
		if p := parents[i]; p >= 0 && p < len(parents) {
			if pl := visit(p); pl >= 0 {
				l = pl + 1
			}
		}
		state[i] = 2
		levels[i] = l
		return l
	}
	for i := range parents {
		visit(i)
	}
}

// GlobalMatrices returns each bone's local-to-world matrix.
func (c *Collection) GlobalMatrices() []geom.Mat {
	parents := c.Parents()
	locals := c.LocalTransforms()
	out := make([]geom.Mat, len(parents))
	done := make([]bool, len(parents))
	var visit func(i, depth int) geom.Mat
	visit = func(i, depth int) geom.Mat {
		if done[i] {
			return out[i]
		}
		m := locals[i].Matrix()
		if p := parents[i]; p >= 0 && p < len(parents) && depth < len(parents) {
			m = visit(p, depth+1).Mul4(m)
		}
		out[i] = m
		done[i] = true
		return m
	}
	for i := range parents {
		visit(i, 0)
	}
	return out
}

// AppendGeometry attaches mesh to bone as a new geometry entry and returns
// its index. Any geometry the bone already owned stays in the collection
// but is no longer referenced by the bone.
func (c *Collection) AppendGeometry(bone int, mesh MeshData) int {
	vstart := c.AddElements(len(mesh.Vertices), GroupVertices)
	verts := c.Vecs(AttrVertex, GroupVertices)
	boneMap := c.Ints(AttrBoneMap, GroupVertices)
	for i, v := range mesh.Vertices {
		verts[vstart+i] = v
		boneMap[vstart+i] = bone
	}

	fstart := c.AddElements(len(mesh.Triangles), GroupFaces)
	indices := c.Tris(AttrIndices, GroupFaces)
	mats := c.Ints(AttrMaterialID, GroupFaces)
	internal := c.Bools(AttrInternal, GroupFaces)
	visible := c.Bools(AttrVisible, GroupFaces)
	for i, t := range mesh.Triangles {
		indices[fstart+i] = [3]int{t[0] + vstart, t[1] + vstart, t[2] + vstart}
		mats[fstart+i] = mesh.Material(i)
		internal[fstart+i] = mesh.IsInternal(i)
		visible[fstart+i] = true
	}

	g := c.AddElements(1, GroupGeometry)
	c.Ints(AttrTransformIndex, GroupGeometry)[g] = bone
	c.Ints(AttrVertexStart, GroupGeometry)[g] = vstart
	c.Ints(AttrVertexCount, GroupGeometry)[g] = len(mesh.Vertices)
	c.Ints(AttrFaceStart, GroupGeometry)[g] = fstart
	c.Ints(AttrFaceCount, GroupGeometry)[g] = len(mesh.Triangles)
	c.Boxes(AttrBoundingBox, GroupGeometry)[g] = mesh.Bounds()
	if c.InRange(bone) {
		c.TransformToGeometry()[bone] = g
	}
	return g
}

// GeometryMesh returns geometry entry g in its bone's local space.
func (c *Collection) GeometryMesh(g int) MeshData {
	if g < 0 || g >= c.NumGeometry() {
		return MeshData{}
	}
	vstart := c.Ints(AttrVertexStart, GroupGeometry)[g]
	vcount := c.Ints(AttrVertexCount, GroupGeometry)[g]
	fstart := c.Ints(AttrFaceStart, GroupGeometry)[g]
	fcount := c.Ints(AttrFaceCount, GroupGeometry)[g]
	var m MeshData
	if vcount > 0 && vstart >= 0 {
		m.Vertices = slices.Clone(c.Vecs(AttrVertex, GroupVertices)[vstart : vstart+vcount])
	}
	if fcount > 0 && fstart >= 0 {
		indices := c.Tris(AttrIndices, GroupFaces)
		mats := c.Ints(AttrMaterialID, GroupFaces)
		internal := c.Bools(AttrInternal, GroupFaces)
		for f := fstart; f < fstart+fcount; f++ {
			t := indices[f]
			m.Triangles = append(m.Triangles, [3]int{t[0] - vstart, t[1] - vstart, t[2] - vstart})
			m.MaterialIDs = append(m.MaterialIDs, mats[f])
			m.Internal = append(m.Internal, internal[f])
		}
	}
	return m
}

// BoneMesh returns the mesh of a rigid bone, or an empty mesh.
func (c *Collection) BoneMesh(bone int) MeshData {
	if !c.InRange(bone) {
		return MeshData{}
	}
	return c.GeometryMesh(c.TransformToGeometry()[bone])
}

// RemoveGeometry deletes geometry entries together with their faces and
// vertices. Bones that referenced them are left without geometry.
func (c *Collection) RemoveGeometry(geos []int) {
	if len(geos) == 0 {
		return
	}
	vstart := c.Ints(AttrVertexStart, GroupGeometry)
	vcount := c.Ints(AttrVertexCount, GroupGeometry)
	fstart := c.Ints(AttrFaceStart, GroupGeometry)
	fcount := c.Ints(AttrFaceCount, GroupGeometry)
	var verts, faces []int
	for _, g := range geos {
		if g < 0 || g >= len(vstart) {
			continue
		}
		for v := vstart[g]; v >= 0 && v < vstart[g]+vcount[g]; v++ {
			verts = append(verts, v)
		}
		for f := fstart[g]; f >= 0 && f < fstart[g]+fcount[g]; f++ {
			faces = append(faces, f)
		}
	}
	c.RemoveElements(GroupFaces, faces)
	c.RemoveElements(GroupVertices, verts)
	c.RemoveElements(GroupGeometry, geos)
	c.fixEmptyRanges()
}

// fixEmptyRanges pins the start of zero-length ranges, which removal may
// have turned into IndexNone.
func (c *Collection) fixEmptyRanges() {
	vstart := c.Ints(AttrVertexStart, GroupGeometry)
	vcount := c.Ints(AttrVertexCount, GroupGeometry)
	fstart := c.Ints(AttrFaceStart, GroupGeometry)
	fcount := c.Ints(AttrFaceCount, GroupGeometry)
	for g := range vstart {
		if vcount[g] == 0 {
			vstart[g] = 0
		}
		if fcount[g] == 0 {
			fstart[g] = 0
		}
	}
}

// RemoveTransforms deletes bones and the geometry they own. Surviving bones
// whose parent is removed move to their nearest surviving ancestor.
func (c *Collection) RemoveTransforms(bones []int) {
	n := c.NumTransforms()
	removed := make([]bool, n)
	hit := false
	for _, b := range bones {
		if b >= 0 && b < n {
			removed[b] = true
			hit = true
		}
	}
	if !hit {
		return
	}
	parents := c.Parents()
	locals := c.LocalTransforms()
	global := c.GlobalMatrices()
	for i := range n {
		if removed[i] {
			continue
		}
		p := parents[i]
		moved := false
		for steps := 0; p >= 0 && p < n && removed[p] && steps < n; steps++ {
			moved = moved || !locals[p].IsIdentity()
			p = parents[p]
		}
		if p >= 0 && p < n && removed[p] {
			p = IndexNone
		}
		if moved {
			// Keep the bone where it is in world space.
			m := global[i]
			if p >= 0 {
				m = geom.Inverse(global[p]).Mul4(m)
			}
			locals[i] = geom.TransformFromMatrix(m)
		}
		parents[i] = p
	}
	var geos []int
	tg := c.TransformToGeometry()
	for i := range n {
		if removed[i] && tg[i] >= 0 {
			geos = append(geos, tg[i])
		}
	}
	// Also drop geometry whose owning bone is going away but that the bone
	// no longer references.
	owner := c.Ints(AttrTransformIndex, GroupGeometry)
	for g, b := range owner {
		if b >= 0 && b < n && removed[b] && !slices.Contains(geos, g) {
			geos = append(geos, g)
		}
	}
	c.RemoveGeometry(geos)
	c.RemoveElements(GroupTransform, bones)
	c.RebuildChildren()
	c.UpdateLevels()
}

// MakeCluster turns bone into a cluster and drops the geometry it owned.
func (c *Collection) MakeCluster(bone int) {
	if !c.InRange(bone) {
		return
	}
	c.SimulationTypes()[bone] = SimClustered
	if g := c.TransformToGeometry()[bone]; g >= 0 {
		c.RemoveGeometry([]int{g})
	}
}

// GeometryVolume returns the world-space volume of a bone's own geometry.
func (c *Collection) GeometryVolume(bone int, global []geom.Mat) float64 {
	m := c.BoneMesh(bone)
	if len(m.Triangles) == 0 {
		return 0
	}
	scale := 1.0
	if global != nil && bone < len(global) {
		scale = math.Abs(geom.Determinant(global[bone]))
	}
	return math.Abs(m.Volume()) * scale
}

// Volumes returns the volume of every bone; clusters sum their rigid
// descendants.
func (c *Collection) Volumes() []float64 {
	global := c.GlobalMatrices()
	n := c.NumTransforms()
	out := make([]float64, n)
	for i := range n {
		if c.IsRigid(i) {
			out[i] = c.GeometryVolume(i, global)
		}
	}
	parents := c.Parents()
	for i := range n {
		if !c.IsRigid(i) || out[i] == 0 {
			continue
		}
		for p, steps := parents[i], 0; p >= 0 && p < n && steps < n; p, steps = parents[p], steps+1 {
			if !c.IsRigid(p) {
				out[p] += out[i]
			}
		}
	}
	return out
}

// WorldCentroid returns the world-space volume centroid of a bone's own
// geometry.
func (c *Collection) WorldCentroid(bone int, global []geom.Mat) (geom.Vec, bool) {
	m := c.BoneMesh(bone)
	if len(m.Vertices) == 0 {
		return geom.Vec{}, false
	}
	p := m.Centroid()
	if global != nil && bone < len(global) {
		p = geom.TransformPosition(global[bone], p)
	}
	return p, true
}

// WorldBounds returns the world-space box of a bone's geometry; clusters
// union their descendants.
func (c *Collection) WorldBounds(bone int, global []geom.Mat) geom.Box {
	if !c.InRange(bone) {
		return geom.EmptyBox()
	}
	if global == nil {
		global = c.GlobalMatrices()
	}
	b := geom.EmptyBox()
	if g := c.TransformToGeometry()[bone]; g >= 0 && g < c.NumGeometry() {
		b = c.Boxes(AttrBoundingBox, GroupGeometry)[g].TransformBy(global[bone])
	}
	children := c.Children()
	stack := slices.Clone(children[bone])
	seen := map[int]bool{bone: true}
	tg := c.TransformToGeometry()
	boxes := c.Boxes(AttrBoundingBox, GroupGeometry)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[i] {
			continue
		}
		seen[i] = true
		if g := tg[i]; g >= 0 && g < len(boxes) {
			b = b.Union(boxes[g].TransformBy(global[i]))
		}
		stack = append(stack, children[i]...)
	}
	return b
}

// BoundingBox returns the world-space box around all geometry.
func (c *Collection) BoundingBox() geom.Box {
	global := c.GlobalMatrices()
	owner := c.Ints(AttrTransformIndex, GroupGeometry)
	boxes := c.Boxes(AttrBoundingBox, GroupGeometry)
	b := geom.EmptyBox()
	for g, bone := range owner {
		m := geom.Identity4()
		if bone >= 0 && bone < len(global) {
			m = global[bone]
		}
		b = b.Union(boxes[g].TransformBy(m))
	}
	return b
}

// ReindexMaterials rebuilds the Sections group: one section per material
// id, in ascending order, counting its faces.
func (c *Collection) ReindexMaterials() {
	mats := c.Ints(AttrMaterialID, GroupFaces)
	counts := map[int]int{}
	first := map[int]int{}
	for f, m := range mats {
		if _, ok := counts[m]; !ok {
			first[m] = f
		}
		counts[m]++
	}
	ids := make([]int, 0, len(counts))
	for m := range counts {
		ids = append(ids, m)
	}
	slices.Sort(ids)
	if n := c.NumElements(GroupSections); n > 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		c.RemoveElements(GroupSections, all)
	}
	start := c.AddElements(len(ids), GroupSections)
	secMat := c.Ints(AttrSectionMaterial, GroupSections)
	secFirst := c.Ints(AttrSectionFirst, GroupSections)
	secCount := c.Ints(AttrSectionCount, GroupSections)
	for i, m := range ids {
		secMat[start+i] = m
		secFirst[start+i] = first[m]
		secCount[start+i] = counts[m]
	}
}

// SetInternalMaterial assigns material to every internal face of the
// geometry owned by bones from firstBone onward.
func (c *Collection) SetInternalMaterial(firstBone, material int) {
	fstart := c.Ints(AttrFaceStart, GroupGeometry)
	fcount := c.Ints(AttrFaceCount, GroupGeometry)
	owner := c.Ints(AttrTransformIndex, GroupGeometry)
	mats := c.Ints(AttrMaterialID, GroupFaces)
	internal := c.Bools(AttrInternal, GroupFaces)
	for g, b := range owner {
		if b < firstBone {
			continue
		}
		for f := fstart[g]; f < fstart[g]+fcount[g]; f++ {
			if internal[f] {
				mats[f] = material
			}
		}
	}
}

// GenerateGUIDs assigns fresh identifiers to bones from index from onward.
// Identifiers are drawn from a stream keyed by a hash of seed and from, so
// equal inputs give equal identifiers. A draw that repeats an identifier
// already held by an earlier bone is discarded.
func (c *Collection) GenerateGUIDs(from int, seed int64) error {
	guids := c.Strings(AttrGUID, GroupTransform)
	if from < 0 {
		from = 0
	}
	from = min(from, len(guids))
	taken := make(map[string]bool, len(guids))
	for _, g := range guids[:from] {
		if g != "" {
			taken[g] = true
		}
	}
	stream := random.New(guidKey(seed, from))
	for i := from; i < len(guids); i++ {
		for {
			id, err := uuid.NewRandomFromReader(stream)
			if err != nil {
				return fmt.Errorf("generate guid for bone %d: %w", i, err)
			}
			if s := id.String(); !taken[s] {
				taken[s] = true
				guids[i] = s
				break
			}
		}
	}
	return nil
}

func guidKey(seed int64, from int) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(from))
	sum := blake3.Sum256(buf[:])
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}

// ClearProximity empties the proximity sets of every geometry entry.
func (c *Collection) ClearProximity() {
	prox := c.IntSets(AttrProximity, GroupGeometry)
	for i := range prox {
		prox[i] = nil
	}
}

// BoneNeighbors returns, for every bone, the bones whose geometry touches
// its own according to the proximity data.
func (c *Collection) BoneNeighbors() [][]int {
	n := c.NumTransforms()
	out := make([][]int, n)
	owner := c.Ints(AttrTransformIndex, GroupGeometry)
	prox := c.IntSets(AttrProximity, GroupGeometry)
	for g, b := range owner {
		if b < 0 || b >= n {
			continue
		}
		for _, o := range prox[g] {
			if o >= 0 && o < len(owner) && owner[o] >= 0 && owner[o] != b {
				out[b] = append(out[b], owner[o])
			}
		}
	}
	for i := range out {
		slices.Sort(out[i])
		out[i] = slices.Compact(out[i])
	}
	return out
}

// NewBox returns a collection with a single rigid root bone positioned at
// the box center and owning a box mesh.
func NewBox(b geom.Box) *Collection {
	c := New()
	center := b.Center()
	bone := c.AddBone(IndexNone, geom.Translation(center), SimRigid, "box")
	c.AppendGeometry(bone, BoxMesh(geom.NewBox(geom.Sub(b.Min, center), geom.Sub(b.Max, center)), 0))
	_ = c.GenerateGUIDs(0, 0)
	return c
}

// NewGrid returns a root cluster holding nx*ny*nz rigid cubes of edge size
// laid out edge to edge from the origin.
func NewGrid(nx, ny, nz int, size float64) *Collection {
	c := New()
	root := c.AddBone(IndexNone, geom.Identity(), SimClustered, "root")
	half := geom.Splat(size / 2)
	cube := BoxMesh(geom.NewBox(geom.Scale(-1, half), half), 0)
	for z := range nz {
		for y := range ny {
			for x := range nx {
				center := geom.Add(geom.V(float64(x)*size, float64(y)*size, float64(z)*size), half)
				bone := c.AddBone(root, geom.Translation(center), SimRigid, fmt.Sprintf("cube_%d_%d_%d", x, y, z))
				c.AppendGeometry(bone, cube)
			}
		}
	}
	_ = c.GenerateGUIDs(0, 0)
	return c
}

package collection

// Groups.
const (
	GroupTransform = "Transform"
	GroupVertices  = "Vertices"
	GroupFaces     = "Faces"
	GroupGeometry  = "Geometry"
	GroupSections  = "Sections"
)

// Transform group attributes.
const (
	AttrTransform      = "Transform"
	AttrParent         = "Parent"
	AttrChildren       = "Children"
	AttrSimulationType = "SimulationType"
	AttrLevel          = "Level"
	AttrTransformToGeo = "TransformToGeometryIndex"
	AttrBoneName       = "BoneName"
	AttrGUID           = "GUID"
	AttrExplodedVector = "ExplodedVector"
)

// Vertices group attributes.
const (
	AttrVertex  = "Vertex"
	AttrBoneMap = "BoneMap"
)

// Faces group attributes.
const (
	AttrIndices    = "Indices"
	AttrMaterialID = "MaterialID"
	AttrInternal   = "Internal"
	AttrVisible    = "Visible"
)

// Geometry group attributes.
const (
	AttrTransformIndex = "TransformIndex"
	AttrVertexStart    = "VertexStart"
	AttrVertexCount    = "VertexCount"
	AttrFaceStart      = "FaceStart"
	AttrFaceCount      = "FaceCount"
	AttrBoundingBox    = "BoundingBox"
	AttrProximity      = "Proximity"
)

// Sections group attributes.
const (
	AttrSectionMaterial = "MaterialID"
	AttrSectionFirst    = "FirstFace"
	AttrSectionCount    = "NumFaces"
)

// SimulationType values.
const (
	SimEmbedded  = 0
	SimRigid     = 1
	SimClustered = 2
)

// SimulationName returns a short label for a simulation type.
func SimulationName(t int) string {
	switch t {
	case SimRigid:
		return "rigid"
	case SimClustered:
		return "cluster"
	case SimEmbedded:
		return "embedded"
	}
	return "unknown"
}

type schemaEntry struct {
	name, group string
	kind        Kind
	def         any
	dependency  string
}

var schema = []schemaEntry{
	{AttrTransform, GroupTransform, KindTransform, nil, ""},
	{AttrParent, GroupTransform, KindInt, IndexNone, GroupTransform},
	{AttrChildren, GroupTransform, KindIntSet, nil, GroupTransform},
	{AttrSimulationType, GroupTransform, KindInt, SimRigid, ""},
	{AttrLevel, GroupTransform, KindInt, 0, ""},
	{AttrTransformToGeo, GroupTransform, KindInt, IndexNone, GroupGeometry},
	{AttrBoneName, GroupTransform, KindString, "", ""},
	{AttrGUID, GroupTransform, KindString, "", ""},

	{AttrVertex, GroupVertices, KindVec, nil, ""},
	{AttrBoneMap, GroupVertices, KindInt, IndexNone, GroupTransform},

	{AttrIndices, GroupFaces, KindTri, nil, GroupVertices},
	{AttrMaterialID, GroupFaces, KindInt, 0, ""},
	{AttrInternal, GroupFaces, KindBool, false, ""},
	{AttrVisible, GroupFaces, KindBool, true, ""},

	{AttrTransformIndex, GroupGeometry, KindInt, IndexNone, GroupTransform},
	{AttrVertexStart, GroupGeometry, KindInt, 0, GroupVertices},
	{AttrVertexCount, GroupGeometry, KindInt, 0, ""},
	{AttrFaceStart, GroupGeometry, KindInt, 0, GroupFaces},
	{AttrFaceCount, GroupGeometry, KindInt, 0, ""},
	{AttrBoundingBox, GroupGeometry, KindBox, nil, ""},
	{AttrProximity, GroupGeometry, KindIntSet, nil, GroupGeometry},

	{AttrSectionMaterial, GroupSections, KindInt, 0, ""},
	{AttrSectionFirst, GroupSections, KindInt, 0, ""},
	{AttrSectionCount, GroupSections, KindInt, 0, ""},
}

// New returns an empty geometry collection with the standard schema.
func New() *Collection {
	c := NewStore()
	for _, e := range schema {
		// The schema is static; AddAttribute only fails on a bad default.
		if err := c.AddAttribute(e.name, e.group, e.kind, e.def, e.dependency); err != nil {
			panic(err)
		}
	}
	return c
}

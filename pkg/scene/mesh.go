// Package scene holds the geometry, materials and textures that penumbra
// renders, plus loaders for OBJ, glTF and image files.
package scene

import (
	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/render"
)

// Corner indexes the position, texture coordinate and normal of one triangle
// corner. A negative UV or Normal index means the attribute is absent.
type Corner struct {
	Vert   int
	UV     int
	Normal int
}

// Mesh is an indexed triangle mesh. Positions, UVs and normals are indexed
// independently, as in OBJ files.
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	UVs       []math3d.Vec2
	Normals   []math3d.Vec3
	Faces     [][3]Corner

	bounds render.AABB
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name, bounds: render.EmptyAABB()}
}

// NumVerts returns the number of positions.
func (m *Mesh) NumVerts() int {
	return len(m.Positions)
}

// NumFaces returns the number of triangles.
func (m *Mesh) NumFaces() int {
	return len(m.Faces)
}

// Corner returns the attribute indices of one corner of a face.
func (m *Mesh) Corner(face, corner int) Corner {
	return m.Faces[face][corner]
}

// Vert returns position i.
func (m *Mesh) Vert(i int) math3d.Vec3 {
	return m.Positions[i]
}

// UV returns texture coordinate i, or zero when i is out of range.
func (m *Mesh) UV(i int) math3d.Vec2 {
	if i < 0 || i >= len(m.UVs) {
		return math3d.Vec2{}
	}
	return m.UVs[i]
}

// Normal returns normal i, or the zero vector when i is out of range.
func (m *Mesh) Normal(i int) math3d.Vec3 {
	if i < 0 || i >= len(m.Normals) {
		return math3d.Zero3()
	}
	return m.Normals[i]
}

// Position returns the position of one corner of a face.
func (m *Mesh) Position(face, corner int) math3d.Vec3 {
	return m.Positions[m.Faces[face][corner].Vert]
}

// AddTriangle appends a face whose three corners share one index for every
// attribute.
func (m *Mesh) AddTriangle(a, b, c int) {
	m.Faces = append(m.Faces, [3]Corner{
		{Vert: a, UV: a, Normal: a},
		{Vert: b, UV: b, Normal: b},
		{Vert: c, UV: c, Normal: c},
	})
}

// CalculateBounds recomputes the local bounding box.
func (m *Mesh) CalculateBounds() {
	m.bounds = render.EmptyAABB()
	for _, p := range m.Positions {
		m.bounds = m.bounds.Extend(p)
	}
}

// Bounds returns the bounding box in model space.
func (m *Mesh) Bounds() render.AABB {
	return m.bounds
}

// FaceNormal returns the unit normal of a face, counter-clockwise front.
func (m *Mesh) FaceNormal(face int) math3d.Vec3 {
	p0 := m.Position(face, 0)
	return m.Position(face, 1).Sub(p0).Cross(m.Position(face, 2).Sub(p0)).Normalize()
}

// CalculateSmoothNormals gives every corner without a normal the
// area-weighted average of the face normals around its position. Existing
// normals are kept.
func (m *Mesh) CalculateSmoothNormals() {
	missing := false
	for _, f := range m.Faces {
		for _, c := range f {
			if c.Normal < 0 || c.Normal >= len(m.Normals) {
				missing = true
			}
		}
	}
	if !missing {
		return
	}

	acc := make([]math3d.Vec3, len(m.Positions))
	for i := range m.Faces {
		p0 := m.Position(i, 0)
		// Unnormalized cross product weights by area
		n := m.Position(i, 1).Sub(p0).Cross(m.Position(i, 2).Sub(p0))
		for _, c := range m.Faces[i] {
			acc[c.Vert] = acc[c.Vert].Add(n)
		}
	}

	base := len(m.Normals)
	for _, n := range acc {
		m.Normals = append(m.Normals, n.Normalize())
	}
	for i := range m.Faces {
		for j, c := range m.Faces[i] {
			if c.Normal < 0 || c.Normal >= base {
				m.Faces[i][j].Normal = base + c.Vert
			}
		}
	}
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Positions: append([]math3d.Vec3(nil), m.Positions...),
		UVs:       append([]math3d.Vec2(nil), m.UVs...),
		Normals:   append([]math3d.Vec3(nil), m.Normals...),
		Faces:     append([][3]Corner(nil), m.Faces...),
		bounds:    m.bounds,
	}
	return clone
}

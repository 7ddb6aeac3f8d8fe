package scene

import (
	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/render"
)

// Model places a mesh and its material in the world. Mesh and Material are
// shared, not owned; several models may reference the same ones.
type Model struct {
	Mesh      *Mesh
	Material  *Material
	Transform math3d.Mat4
}

// NewModel creates a model with an identity transform.
func NewModel(mesh *Mesh, mat *Material) *Model {
	return &Model{Mesh: mesh, Material: mat, Transform: math3d.Identity()}
}

// WorldBounds returns the mesh bounds after the model transform.
func (m *Model) WorldBounds() render.AABB {
	return m.Mesh.Bounds().Transform(m.Transform)
}

// SceneBounds returns the union of the world bounds of all models.
func SceneBounds(models []*Model) render.AABB {
	box := render.EmptyAABB()
	for _, m := range models {
		box = box.Union(m.WorldBounds())
	}
	return box
}

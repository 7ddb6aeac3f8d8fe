package render

import (
	"math"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// Polygons is the geometry a wireframe needs: triangle corner positions in
// model space.
type Polygons interface {
	NumFaces() int
	Position(face, corner int) math3d.Vec3
}

// Wireframe draws 3D line art through a transform.
type Wireframe struct {
	tr     *Transform
	screen math3d.Mat4
	fb     *Framebuffer
}

// NewWireframe creates a wireframe renderer for one model matrix.
func NewWireframe(tr *Transform, model math3d.Mat4, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		tr:     tr,
		screen: tr.Screen(model),
		fb:     fb,
	}
}

// project maps a model-space point to the nearest pixel.
func (w *Wireframe) project(p math3d.Vec3) (int, int, bool) {
	clip := w.screen.MulVec4(p.Embed(1))
	if !clip.IsFinite() || clip.W <= MinW {
		return 0, 0, false
	}
	s := clip.PerspectiveDivide()
	return int(math.Round(s.X)), int(math.Round(s.Y)), true
}

// DrawLine3D draws a line between two model-space points. Lines with an
// endpoint behind the eye are skipped.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	x1, y1, ok1 := w.project(p1)
	x2, y2, ok2 := w.project(p2)
	if !ok1 || !ok2 {
		return
	}
	w.fb.DrawLine(x1, y1, x2, y2, color)
}

// DrawMesh draws every edge of every face.
func (w *Wireframe) DrawMesh(mesh Polygons, color Color) {
	for f := range mesh.NumFaces() {
		for j := range 3 {
			w.DrawLine3D(mesh.Position(f, j), mesh.Position(f, (j+1)%3), color)
		}
	}
}

// DrawAABB draws the 12 edges of a box.
func (w *Wireframe) DrawAABB(box AABB, color Color) {
	if box.IsEmpty() {
		return
	}
	var v [8]math3d.Vec3
	for i := range v {
		v[i] = math3d.V3(
			selectComponent(i&1 != 0, box.Max.X, box.Min.X),
			selectComponent(i&2 != 0, box.Max.Y, box.Min.Y),
			selectComponent(i&4 != 0, box.Max.Z, box.Min.Z),
		)
	}
	// Corners differing in exactly one bit share an edge
	for i := range v {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				w.DrawLine3D(v[i], v[i|bit], color)
			}
		}
	}
}

// DrawWireframe draws the edges of mesh, placed by model, into fb.
func DrawWireframe(tr *Transform, model math3d.Mat4, mesh Polygons, fb *Framebuffer, color Color) {
	NewWireframe(tr, model, fb).DrawMesh(mesh, color)
}

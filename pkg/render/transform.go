package render

import (
	"fmt"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// DepthResolution is the extent of the depth axis after the viewport
// transform. Screen depth lands in [0, DepthResolution].
const DepthResolution = 2000.0

// Transform holds the three matrices that take a point from world space to
// window coordinates. Each render pass owns its own Transform.
type Transform struct {
	View       math3d.Mat4
	Projection math3d.Mat4
	Viewport   math3d.Mat4
}

// NewTransform returns a transform with all three matrices set to identity.
func NewTransform() *Transform {
	return &Transform{
		View:       math3d.Identity(),
		Projection: math3d.Identity(),
		Viewport:   math3d.Identity(),
	}
}

// LookAt builds the view matrix for a camera at eye looking toward center.
// up must not be parallel to eye-center; the result is undefined if it is.
func (t *Transform) LookAt(eye, center, up math3d.Vec3) {
	z := eye.Sub(center).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x).Normalize()

	t.View = math3d.Identity()
	t.View.SetRow(0, x.Embed(-center.X))
	t.View.SetRow(1, y.Embed(-center.Y))
	t.View.SetRow(2, z.Embed(-center.Z))
}

// SetProjection sets the projection to identity with coeff at (3, 2), so that
// w = 1 + coeff*z. A zero coeff is an orthographic projection.
func (t *Transform) SetProjection(coeff float64) {
	t.Projection = math3d.Identity()
	t.Projection.Set(3, 2, coeff)
}

// PerspectiveCoeff returns the projection coefficient for a camera at eye
// looking at center: -1/|eye-center|. Coincident points give 0.
func PerspectiveCoeff(eye, center math3d.Vec3) float64 {
	d := eye.Distance(center)
	if d < math3d.Epsilon {
		return 0
	}
	return -1 / d
}

// SetViewport maps the cube [-1,1]^3 onto the screen rectangle at (x, y)
// of size w×h and onto depth [0, DepthResolution].
func (t *Transform) SetViewport(x, y, w, h int) {
	fw, fh := float64(w), float64(h)
	t.Viewport = math3d.Identity()
	t.Viewport.Set(0, 0, fw/2)
	t.Viewport.Set(1, 1, fh/2)
	t.Viewport.Set(2, 2, DepthResolution/2)
	t.Viewport.Set(0, 3, float64(x)+fw/2)
	t.Viewport.Set(1, 3, float64(y)+fh/2)
	t.Viewport.Set(2, 3, DepthResolution/2)
}

// ViewProjection returns Projection * View.
func (t *Transform) ViewProjection() math3d.Mat4 {
	return t.Projection.Mul(t.View)
}

// Screen returns the uniform matrix Viewport * Projection * View * model.
func (t *Transform) Screen(model math3d.Mat4) math3d.Mat4 {
	return t.Viewport.Mul(t.Projection).Mul(t.View).Mul(model)
}

// NormalMatrix returns the inverse-transpose of View * model, used to carry
// normals into eye space.
func (t *Transform) NormalMatrix(model math3d.Mat4) (math3d.Mat4, error) {
	m, err := t.View.Mul(model).InverseTranspose()
	if err != nil {
		return math3d.Mat4{}, fmt.Errorf("normal matrix: %w", err)
	}
	return m, nil
}

// Project maps a model-space point to window coordinates through
// Screen(model). The second result is false when the point is at or behind
// the eye.
func (t *Transform) Project(model math3d.Mat4, p math3d.Vec3) (math3d.Vec3, bool) {
	clip := t.Screen(model).MulVec4(p.Embed(1))
	if !clip.IsFinite() || clip.W <= MinW {
		return math3d.Vec3{}, false
	}
	return clip.PerspectiveDivide(), true
}

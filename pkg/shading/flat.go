package shading

import (
	"image/color"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// FlatShader lights each face uniformly from its geometric normal.
type FlatShader struct {
	Geom     Geometry
	Surface  Surface
	Uniforms Uniforms
	// Cull discards faces that point away from the light.
	Cull bool

	eye       [3]math3d.Vec3
	uv        [3]math3d.Vec2
	intensity float64
}

// NewFlatShader creates a flat shader for one model.
func NewFlatShader(geom Geometry, surf Surface, u Uniforms) *FlatShader {
	return &FlatShader{Geom: geom, Surface: surf, Uniforms: u}
}

// Vertex projects a corner and, on the last corner, lights the face.
func (s *FlatShader) Vertex(face, corner int) math3d.Vec4 {
	c := s.Geom.Corner(face, corner)
	v := s.Geom.Vert(c.Vert)
	s.eye[corner] = s.Uniforms.ModelView.MulVec3(v)
	s.uv[corner] = s.Geom.UV(c.UV)
	if corner == 2 {
		// Counter-clockwise faces are front faces
		n := s.eye[1].Sub(s.eye[0]).Cross(s.eye[2].Sub(s.eye[0])).Normalize()
		s.intensity = n.Dot(s.Uniforms.Light)
	}
	return s.Uniforms.Screen.MulVec4(v.Embed(1))
}

// Fragment scales the diffuse color by the face intensity. With Cull set,
// faces turned away from the light are discarded.
func (s *FlatShader) Fragment(_, bar math3d.Vec3) (color.RGBA, bool) {
	if s.Cull && s.intensity <= 0 {
		return color.RGBA{}, true
	}
	return scaleColor(diffuseAt(s.Surface, interpolate2(s.uv, bar)), s.intensity), false
}

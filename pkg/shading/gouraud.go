package shading

import (
	"image/color"
	"math"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// GouraudShader computes Lambert intensity per vertex and interpolates it.
type GouraudShader struct {
	Geom     Geometry
	Surface  Surface
	Uniforms Uniforms

	intensity math3d.Vec3
	uv        [3]math3d.Vec2
}

// NewGouraudShader creates a Gouraud shader for one model.
func NewGouraudShader(geom Geometry, surf Surface, u Uniforms) *GouraudShader {
	return &GouraudShader{Geom: geom, Surface: surf, Uniforms: u}
}

// Vertex projects a corner and lights its normal.
func (s *GouraudShader) Vertex(face, corner int) math3d.Vec4 {
	c := s.Geom.Corner(face, corner)
	n := s.Uniforms.eyeNormal(s.Geom.Normal(c.Normal))
	intensity := math.Max(0, n.Dot(s.Uniforms.Light))
	switch corner {
	case 0:
		s.intensity.X = intensity
	case 1:
		s.intensity.Y = intensity
	default:
		s.intensity.Z = intensity
	}
	s.uv[corner] = s.Geom.UV(c.UV)
	return s.Uniforms.Screen.MulVec4(s.Geom.Vert(c.Vert).Embed(1))
}

// Fragment scales the diffuse color by the interpolated intensity.
func (s *GouraudShader) Fragment(_, bar math3d.Vec3) (color.RGBA, bool) {
	return scaleColor(diffuseAt(s.Surface, interpolate2(s.uv, bar)), s.intensity.Dot(bar)), false
}

package shading

import (
	"image/color"

	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/render"
)

// DepthShader renders window depth as grayscale. It is used for the shadow
// pass and for ModeDepth output. It never discards.
type DepthShader struct {
	Geom   Geometry
	Screen math3d.Mat4
}

// NewDepthShader creates a depth shader for one model.
func NewDepthShader(geom Geometry, screen math3d.Mat4) *DepthShader {
	return &DepthShader{Geom: geom, Screen: screen}
}

// Vertex projects a corner to window coordinates.
func (s *DepthShader) Vertex(face, corner int) math3d.Vec4 {
	v := s.Geom.Vert(s.Geom.Corner(face, corner).Vert)
	return s.Screen.MulVec4(v.Embed(1))
}

// Fragment shades the pixel gray by its window depth.
func (s *DepthShader) Fragment(frag, _ math3d.Vec3) (color.RGBA, bool) {
	g := clampChannel(frag.Z / render.DepthResolution * 255)
	return color.RGBA{g, g, g, 255}, false
}

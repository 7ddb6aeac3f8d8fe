package shading

import (
	"image/color"
	"math"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// Phong lighting weights.
const (
	Ambient        = 20.0
	DiffuseWeight  = 1.2
	SpecularWeight = 0.6
)

// PhongShader lights every pixel with a diffuse map, a tangent-space normal
// map, a specular exponent map and an optional shadow map.
type PhongShader struct {
	Geom     Geometry
	Surface  Surface
	Uniforms Uniforms
	Shadow   *ShadowMap // nil disables shadows

	eye [3]math3d.Vec3
	nrm [3]math3d.Vec3
	uv  [3]math3d.Vec2
}

// NewPhongShader creates a Phong shader for one model.
func NewPhongShader(geom Geometry, surf Surface, u Uniforms, shadow *ShadowMap) *PhongShader {
	return &PhongShader{Geom: geom, Surface: surf, Uniforms: u, Shadow: shadow}
}

// Vertex projects a corner and records its eye-space position and normal.
func (s *PhongShader) Vertex(face, corner int) math3d.Vec4 {
	c := s.Geom.Corner(face, corner)
	v := s.Geom.Vert(c.Vert)
	s.eye[corner] = s.Uniforms.ModelView.MulVec3(v)
	s.nrm[corner] = s.Uniforms.eyeNormal(s.Geom.Normal(c.Normal))
	s.uv[corner] = s.Geom.UV(c.UV)
	return s.Uniforms.Screen.MulVec4(v.Embed(1))
}

// Fragment lights the pixel with the mapped normal and specular exponent,
// attenuated by the shadow map when one is set.
func (s *PhongShader) Fragment(frag, bar math3d.Vec3) (color.RGBA, bool) {
	uv := interpolate2(s.uv, bar)
	n := s.normal(uv, interpolate3(s.nrm, bar).Normalize())
	l := s.Uniforms.Light

	r := n.Scale(2 * n.Dot(l)).Sub(l).Normalize()
	spec := math.Pow(math.Max(r.Z, 0), s.specular(uv))
	diff := math.Max(0, n.Dot(l))

	shadow := 1.0
	if s.Shadow != nil {
		shadow = s.Shadow.Attenuation(frag)
	}

	c := diffuseAt(s.Surface, uv)
	k := shadow * (DiffuseWeight*diff + SpecularWeight*spec)
	return color.RGBA{
		R: clampChannel(Ambient + float64(c.R)*k),
		G: clampChannel(Ambient + float64(c.G)*k),
		B: clampChannel(Ambient + float64(c.B)*k),
		A: 255,
	}, false
}

func (s *PhongShader) specular(uv math3d.Vec2) float64 {
	if s.Surface == nil {
		return 1
	}
	return s.Surface.Specular(uv)
}

// normal perturbs the interpolated normal bn by the tangent-space normal
// map. The tangent frame solves A*i = (du1, du2, 0) and A*j = (dv1, dv2, 0)
// where A has the two triangle edges and bn as rows. bn is returned as is
// when there is no map or the frame is degenerate.
func (s *PhongShader) normal(uv math3d.Vec2, bn math3d.Vec3) math3d.Vec3 {
	if s.Surface == nil {
		return bn
	}
	if nm, ok := s.Surface.(normalMapper); ok && !nm.HasNormalMap() {
		return bn
	}

	var a math3d.Mat3
	a.SetRow(0, s.eye[1].Sub(s.eye[0]))
	a.SetRow(1, s.eye[2].Sub(s.eye[0]))
	a.SetRow(2, bn)
	ai, err := a.Inverse()
	if err != nil {
		return bn
	}

	i := ai.MulVec3(math3d.V3(s.uv[1].X-s.uv[0].X, s.uv[2].X-s.uv[0].X, 0))
	j := ai.MulVec3(math3d.V3(s.uv[1].Y-s.uv[0].Y, s.uv[2].Y-s.uv[0].Y, 0))
	if i.LenSq() < math3d.Epsilon || j.LenSq() < math3d.Epsilon {
		return bn
	}

	var b math3d.Mat3
	b.SetColumn(0, i.Normalize())
	b.SetColumn(1, j.Normalize())
	b.SetColumn(2, bn)
	return b.MulVec3(s.Surface.Normal(uv)).Normalize()
}

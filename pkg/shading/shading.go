// Package shading implements the render.Shader variants used by the
// pipeline: depth, flat, Gouraud and Phong with normal and shadow mapping.
package shading

import (
	"fmt"
	"image/color"
	"math"

	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/render"
	"github.com/taigrr/penumbra/pkg/scene"
)

// Geometry is the mesh data a shader reads. *scene.Mesh implements it.
type Geometry interface {
	NumVerts() int
	NumFaces() int
	Corner(face, corner int) scene.Corner
	Vert(i int) math3d.Vec3
	UV(i int) math3d.Vec2
	Normal(i int) math3d.Vec3
}

// Surface supplies material values at a texture coordinate.
// *scene.Material implements it, including as a nil pointer.
type Surface interface {
	Diffuse(uv math3d.Vec2) color.RGBA
	Normal(uv math3d.Vec2) math3d.Vec3
	Specular(uv math3d.Vec2) float64
}

// normalMapper is implemented by surfaces that can report whether their
// normals come from a map. Surfaces without it are assumed to have one.
type normalMapper interface {
	HasNormalMap() bool
}

// Uniforms are the per-model constants of a shading pass.
type Uniforms struct {
	Screen    math3d.Mat4 // model space to window coordinates
	ModelView math3d.Mat4 // model space to eye space
	Normal    math3d.Mat4 // inverse-transpose of ModelView
	Light     math3d.Vec3 // unit direction toward the light, eye space
}

// NewUniforms derives the uniforms of one model from a pass transform.
// light is the world-space direction toward the light.
func NewUniforms(tr *render.Transform, model math3d.Mat4, light math3d.Vec3) (Uniforms, error) {
	nm, err := tr.NormalMatrix(model)
	if err != nil {
		return Uniforms{}, fmt.Errorf("uniforms: %w", err)
	}
	return Uniforms{
		Screen:    tr.Screen(model),
		ModelView: tr.View.Mul(model),
		Normal:    nm,
		Light:     tr.View.MulVec3Dir(light).Normalize(),
	}, nil
}

// eyeNormal carries a model-space normal into eye space.
func (u *Uniforms) eyeNormal(n math3d.Vec3) math3d.Vec3 {
	return u.Normal.MulVec3Dir(n).Normalize()
}

var white = color.RGBA{255, 255, 255, 255}

func diffuseAt(s Surface, uv math3d.Vec2) color.RGBA {
	if s == nil {
		return white
	}
	return s.Diffuse(uv)
}

// scaleColor multiplies the RGB channels by k, rounded and clamped to
// [0, 255].
func scaleColor(c color.RGBA, k float64) color.RGBA {
	return color.RGBA{
		R: clampChannel(float64(c.R) * k),
		G: clampChannel(float64(c.G) * k),
		B: clampChannel(float64(c.B) * k),
		A: 255,
	}
}

func clampChannel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

func interpolate2(v [3]math3d.Vec2, bar math3d.Vec3) math3d.Vec2 {
	return v[0].Scale(bar.X).Add(v[1].Scale(bar.Y)).Add(v[2].Scale(bar.Z))
}

func interpolate3(v [3]math3d.Vec3, bar math3d.Vec3) math3d.Vec3 {
	return v[0].Scale(bar.X).Add(v[1].Scale(bar.Y)).Add(v[2].Scale(bar.Z))
}

package shading

import (
	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/render"
)

// Shadow defaults.
const (
	DefaultShadowBias   = 12.0
	DefaultShadowFactor = 0.3
)

// ShadowMap looks up fragments of the shading pass in the depth buffer of
// the light pass.
type ShadowMap struct {
	Depth *render.DepthBuffer
	// Matrix maps camera window coordinates to light window coordinates:
	// lightScreen(model) * cameraScreen(model)^-1.
	Matrix math3d.Mat4
	Bias   float64
	Factor float64
}

// NewShadowMap builds the shadow lookup for one model. It fails with
// math3d.ErrSingular when the camera matrix cannot be inverted.
func NewShadowMap(depth *render.DepthBuffer, lightScreen, cameraScreen math3d.Mat4) (*ShadowMap, error) {
	inv, err := cameraScreen.Inverse()
	if err != nil {
		return nil, err
	}
	return &ShadowMap{
		Depth:  depth,
		Matrix: lightScreen.Mul(inv),
		Bias:   DefaultShadowBias,
		Factor: DefaultShadowFactor,
	}, nil
}

// Attenuation returns 1 when frag is lit and Factor when it is occluded.
// A fragment is lit when the stored light depth is not greater than its own
// light depth plus Bias; larger depth is nearer the light.
func (s *ShadowMap) Attenuation(frag math3d.Vec3) float64 {
	p := s.Matrix.MulVec4(frag.Embed(1))
	if !p.IsFinite() || p.W <= render.MinW {
		return 1
	}
	q := p.PerspectiveDivide()
	stored := s.Depth.Sample(q.X, q.Y)
	if stored <= q.Z+s.Bias {
		return 1
	}
	return s.Factor
}

package render

import (
	"github.com/taigrr/penumbra/pkg/math3d"
)

// Camera is a look-at camera: a position, a target and an up direction.
type Camera struct {
	Eye    math3d.Vec3
	Center math3d.Vec3
	Up     math3d.Vec3
}

// NewCamera creates a camera at eye looking at center with +Y up.
func NewCamera(eye, center math3d.Vec3) Camera {
	return Camera{Eye: eye, Center: center, Up: math3d.Up()}
}

// Forward returns the unit direction from the eye to the target.
func (c Camera) Forward() math3d.Vec3 {
	return c.Center.Sub(c.Eye).Normalize()
}

// Right returns the unit right direction.
func (c Camera) Right() math3d.Vec3 {
	return c.Forward().Cross(c.Up).Normalize()
}

// Distance returns the distance from the eye to the target.
func (c Camera) Distance() float64 {
	return c.Eye.Distance(c.Center)
}

// Orbit returns the camera rotated by angle radians around the target,
// about the up axis.
func (c Camera) Orbit(angle float64) Camera {
	rot := math3d.Rotate(c.Up, angle)
	c.Eye = c.Center.Add(rot.MulVec3Dir(c.Eye.Sub(c.Center)))
	return c
}

// Apply loads the camera into tr: the view matrix and a perspective
// projection whose coefficient is set by the eye-target distance.
func (c Camera) Apply(tr *Transform) {
	tr.LookAt(c.Eye, c.Center, c.Up)
	tr.SetProjection(PerspectiveCoeff(c.Eye, c.Center))
}

// SafeUp returns c.Up unless it is (nearly) parallel to the view direction,
// in which case it picks a world axis that is not.
func (c Camera) SafeUp() math3d.Vec3 {
	dir := c.Eye.Sub(c.Center).Normalize()
	up := c.Up.Normalize()
	if up.Cross(dir).Len() > 1e-6 {
		return c.Up
	}
	for _, axis := range []math3d.Vec3{math3d.V3(0, 0, 1), math3d.V3(1, 0, 0)} {
		if axis.Cross(dir).Len() > 1e-6 {
			return axis
		}
	}
	return math3d.Up()
}

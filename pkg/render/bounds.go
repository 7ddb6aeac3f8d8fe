package render

import (
	"math"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	n := p.Normal.Len()
	if n == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / n)
	p.D /= n
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// ClipPlanes are the four side planes of the visible volume, normals
// pointing inward. The projection used here has no near or far plane.
type ClipPlanes struct {
	Planes [4]Plane
}

// Plane indices.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
)

// NewClipPlanes extracts the side planes from a Projection*View matrix.
// extent is the half-width of the visible region in normalized device
// units: 1 when the viewport covers the whole screen, larger when the
// viewport is inset.
func NewClipPlanes(m math3d.Mat4, extent float64) ClipPlanes {
	var c ClipPlanes
	r0, r1, r3 := m.Row(0), m.Row(1), m.Row(3).Scale(extent)

	// Gribb/Hartmann: row3 ± row0, row3 ± row1
	c.Planes[PlaneLeft] = planeFromRow(r3.Add(r0))
	c.Planes[PlaneRight] = planeFromRow(r3.Sub(r0))
	c.Planes[PlaneBottom] = planeFromRow(r3.Add(r1))
	c.Planes[PlaneTop] = planeFromRow(r3.Sub(r1))

	for i := range c.Planes {
		c.Planes[i].Normalize()
	}
	return c
}

func planeFromRow(r math3d.Vec4) Plane {
	return Plane{Normal: r.XYZ(), D: r.W}
}

// ContainsPoint tests if a point is inside all four planes.
func (c ClipPlanes) ContainsPoint(p math3d.Vec3) bool {
	for i := range c.Planes {
		if c.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectAABB tests if any part of the box is inside the planes.
// Uses the "positive vertex" optimization for faster rejection.
func (c ClipPlanes) IntersectAABB(box AABB) bool {
	for i := range c.Planes {
		plane := c.Planes[i]

		// The corner furthest along the normal; if it is outside, the whole box is.
		pVertex := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if plane.DistanceToPoint(pVertex) < 0 {
			return false
		}
	}
	return true
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB creates an AABB from min and max points.
func NewAABB(min, max math3d.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns a box that contains nothing; extending it by a point
// yields a box around that point.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: math3d.V3(inf, inf, inf),
		Max: math3d.V3(-inf, -inf, -inf),
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the smallest box containing b and p.
func (b AABB) Extend(p math3d.Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Center returns the center of the AABB.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the AABB.
func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Radius returns the radius of the sphere around Center that encloses the box.
func (b AABB) Radius() float64 {
	return b.Size().Len() / 2
}

// Transform returns an AABB that bounds the original AABB after transformation.
// This computes a new AABB that contains all 8 transformed corners.
func (b AABB) Transform(m math3d.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for i := range 8 {
		corner := math3d.V3(
			selectComponent(i&1 != 0, b.Max.X, b.Min.X),
			selectComponent(i&2 != 0, b.Max.Y, b.Min.Y),
			selectComponent(i&4 != 0, b.Max.Z, b.Min.Z),
		)
		out = out.Extend(m.MulVec3(corner))
	}
	return out
}

// ContainsPoint returns true if the point is inside the AABB.
func (b AABB) ContainsPoint(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// selectComponent is a conditional selection helper.
func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

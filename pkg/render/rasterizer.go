// Package render provides the software rasterization core of penumbra: the
// transform stack, the shader contract, the triangle rasterizer and the
// buffers it draws into.
package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// MinW is the smallest homogeneous w accepted for a vertex. Anything at or
// below it is at or behind the eye.
const MinW = 1e-9

// minArea is the smallest doubled signed area for which a triangle is
// considered non-degenerate.
const minArea = 1e-2

var (
	// ErrBufferMismatch is returned when the color and depth buffers differ in size.
	ErrBufferMismatch = errors.New("render: framebuffer and depth buffer sizes differ")
	// ErrNilShader is returned when no shader is supplied.
	ErrNilShader = errors.New("render: nil shader")
)

// Options configures a Rasterizer.
type Options struct {
	// SubPixel keeps fractional window x and y. By default they are rounded
	// to the nearest pixel after the perspective divide.
	SubPixel bool
}

// Stats counts what a draw call did.
type Stats struct {
	Pixels    int // fragments written
	Discarded int // fragments the shader discarded
	Rejected  int // triangles rejected before rasterization
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Pixels += o.Pixels
	s.Discarded += o.Discarded
	s.Rejected += o.Rejected
}

// Rasterizer fills triangles into a framebuffer and depth buffer.
type Rasterizer struct {
	opts Options
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(opts Options) *Rasterizer {
	return &Rasterizer{opts: opts}
}

// Face runs the vertex stage of sh for the three corners of face and
// rasterizes the result.
func (r *Rasterizer) Face(sh Shader, face int, fb *Framebuffer, zbuf *DepthBuffer) (Stats, error) {
	if sh == nil {
		return Stats{}, ErrNilShader
	}
	var clip [3]math3d.Vec4
	for i := range 3 {
		clip[i] = sh.Vertex(face, i)
	}
	stats, err := r.Triangle(clip, sh, fb, zbuf)
	if err != nil {
		return stats, fmt.Errorf("face %d: %w", face, err)
	}
	return stats, nil
}

// Triangle rasterizes one triangle given the homogeneous window positions of
// its corners. A pixel is drawn when it is inside the triangle, its depth is
// greater than the stored depth and the shader does not discard it.
func (r *Rasterizer) Triangle(clip [3]math3d.Vec4, sh Shader, fb *Framebuffer, zbuf *DepthBuffer) (Stats, error) {
	var stats Stats
	if sh == nil {
		return stats, ErrNilShader
	}
	if fb == nil || zbuf == nil || fb.Width != zbuf.Width || fb.Height != zbuf.Height {
		return stats, ErrBufferMismatch
	}

	// Perspective divide
	var pts [3]math3d.Vec3
	for i, c := range clip {
		if !c.IsFinite() || c.W <= MinW {
			stats.Rejected = 1
			return stats, nil
		}
		p := c.PerspectiveDivide()
		if !r.opts.SubPixel {
			p.X, p.Y = math.Round(p.X), math.Round(p.Y)
		}
		pts[i] = p
	}

	// Bounding box, clamped to the screen
	minX := max(0, int(math.Floor(min3(pts[0].X, pts[1].X, pts[2].X))))
	maxX := min(fb.Width-1, int(math.Ceil(max3(pts[0].X, pts[1].X, pts[2].X))))
	minY := max(0, int(math.Floor(min3(pts[0].Y, pts[1].Y, pts[2].Y))))
	maxY := min(fb.Height-1, int(math.Ceil(max3(pts[0].Y, pts[1].Y, pts[2].Y))))
	if minX > maxX || minY > maxY {
		return stats, nil
	}

	a, b, c := pts[0].XY(), pts[1].XY(), pts[2].XY()
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			bar := Barycentric(a, b, c, math3d.V2(float64(x), float64(y)))
			if bar.X < 0 || bar.Y < 0 || bar.Z < 0 {
				continue
			}

			z := bar.X*pts[0].Z + bar.Y*pts[1].Z + bar.Z*pts[2].Z
			if z <= zbuf.At(x, y) {
				continue
			}

			col, discard := sh.Fragment(math3d.V3(float64(x), float64(y), z), bar)
			if discard {
				stats.Discarded++
				continue
			}
			zbuf.Set(x, y, z)
			fb.SetPixel(x, y, col)
			stats.Pixels++
		}
	}
	return stats, nil
}

// Barycentric returns the weights of p with respect to triangle abc, such
// that p = w0*a + w1*b + w2*c. A degenerate triangle yields weights with a
// negative component so that every pixel is treated as outside.
func Barycentric(a, b, c, p math3d.Vec2) math3d.Vec3 {
	u := math3d.V3(b.X-a.X, c.X-a.X, a.X-p.X).Cross(math3d.V3(b.Y-a.Y, c.Y-a.Y, a.Y-p.Y))
	if math.Abs(u.Z) < minArea {
		return math3d.V3(-1, 1, 1)
	}
	return math3d.V3(1-(u.X+u.Y)/u.Z, u.X/u.Z, u.Y/u.Z)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

package render

import "math"

// DepthBuffer stores one depth value per pixel, row-major with the origin at
// the top-left. Larger values are nearer to the viewer.
type DepthBuffer struct {
	Width  int
	Height int
	Values []float64
}

// NewDepthBuffer creates a depth buffer with every value at -Inf.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
	d.Clear()
	return d
}

// Clear resets every value to -Inf.
func (d *DepthBuffer) Clear() {
	n := len(d.Values)
	if n == 0 {
		return
	}
	// copy-doubling fill
	d.Values[0] = math.Inf(-1)
	for i := 1; i < n; i *= 2 {
		copy(d.Values[i:], d.Values[:i])
	}
}

// InBounds reports whether (x, y) addresses a stored value.
func (d *DepthBuffer) InBounds(x, y int) bool {
	return x >= 0 && x < d.Width && y >= 0 && y < d.Height
}

// At returns the depth at (x, y), or -Inf outside the buffer.
func (d *DepthBuffer) At(x, y int) float64 {
	if !d.InBounds(x, y) {
		return math.Inf(-1)
	}
	return d.Values[y*d.Width+x]
}

// Set stores z at (x, y). Out of bounds writes are ignored.
func (d *DepthBuffer) Set(x, y int, z float64) {
	if !d.InBounds(x, y) {
		return
	}
	d.Values[y*d.Width+x] = z
}

// Sample returns the depth nearest to (x, y), clamping to the edge.
func (d *DepthBuffer) Sample(x, y float64) float64 {
	if d.Width == 0 || d.Height == 0 {
		return math.Inf(-1)
	}
	ix := clampInt(int(math.Round(x)), 0, d.Width-1)
	iy := clampInt(int(math.Round(y)), 0, d.Height-1)
	return d.Values[iy*d.Width+ix]
}

// Range returns the smallest and largest finite depths in the buffer.
// ok is false when nothing has been written.
func (d *DepthBuffer) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, z := range d.Values {
		if math.IsInf(z, 0) || math.IsNaN(z) {
			continue
		}
		lo = math.Min(lo, z)
		hi = math.Max(hi, z)
		ok = true
	}
	return lo, hi, ok
}

// ToFramebuffer renders the buffer as grayscale, scaling [0, DepthResolution]
// to [0, 255]. Empty pixels become bg.
func (d *DepthBuffer) ToFramebuffer(bg Color) *Framebuffer {
	fb := NewFramebuffer(d.Width, d.Height)
	for i, z := range d.Values {
		if math.IsInf(z, -1) {
			fb.Pixels[i] = bg
			continue
		}
		v := uint8(clampFloat(z/DepthResolution*255, 0, 255))
		fb.Pixels[i] = RGB(v, v, v)
	}
	return fb
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

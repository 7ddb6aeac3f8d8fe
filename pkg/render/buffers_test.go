package render

import (
	"image"
	"math"
	"testing"
)

func TestDepthBufferInit(t *testing.T) {
	d := NewDepthBuffer(7, 5)
	if len(d.Values) != 35 {
		t.Fatalf("len(Values) = %d, want 35", len(d.Values))
	}
	for i, z := range d.Values {
		if !math.IsInf(z, -1) {
			t.Fatalf("Values[%d] = %v, want -Inf", i, z)
		}
	}
	if _, _, ok := d.Range(); ok {
		t.Error("Range() reported values in a fresh buffer")
	}
}

func TestDepthBufferSetAt(t *testing.T) {
	d := NewDepthBuffer(4, 3)
	d.Set(3, 2, 42)
	if got := d.At(3, 2); got != 42 {
		t.Errorf("At(3, 2) = %v, want 42", got)
	}
	if got := d.Values[2*4+3]; got != 42 {
		t.Errorf("row-major index holds %v, want 42", got)
	}

	// Out of bounds is ignored and reads as -Inf
	d.Set(-1, 0, 1)
	d.Set(4, 0, 1)
	if got := d.At(4, 0); !math.IsInf(got, -1) {
		t.Errorf("At(4, 0) = %v, want -Inf", got)
	}
	if d.InBounds(0, 3) || !d.InBounds(0, 2) {
		t.Error("InBounds disagrees with buffer size")
	}

	d.Clear()
	if got := d.At(3, 2); !math.IsInf(got, -1) {
		t.Errorf("after Clear At(3, 2) = %v", got)
	}
}

func TestDepthBufferSample(t *testing.T) {
	d := NewDepthBuffer(3, 3)
	for i := range d.Values {
		d.Values[i] = float64(i)
	}

	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"exact", 1, 1, 4},
		{"rounds", 1.6, 0.4, 2},
		{"clamps low", -5, -5, 0},
		{"clamps high", 10, 10, 8},
		{"clamps x only", 10, 1, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.Sample(tc.x, tc.y); got != tc.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestDepthBufferToFramebuffer(t *testing.T) {
	d := NewDepthBuffer(2, 1)
	d.Set(0, 0, DepthResolution)
	fb := d.ToFramebuffer(ColorBlue)
	if fb.GetPixel(0, 0) != ColorWhite {
		t.Errorf("max depth = %v, want white", fb.GetPixel(0, 0))
	}
	if fb.GetPixel(1, 0) != ColorBlue {
		t.Errorf("empty pixel = %v, want background", fb.GetPixel(1, 0))
	}
	lo, hi, ok := d.Range()
	if !ok || lo != DepthResolution || hi != DepthResolution {
		t.Errorf("Range() = %v, %v, %v", lo, hi, ok)
	}
}

func TestFramebufferFlipVertical(t *testing.T) {
	for _, h := range []int{3, 4} {
		fb := NewFramebuffer(2, h)
		for y := range h {
			fb.SetPixel(0, y, RGB(uint8(y), 0, 0))
		}
		fb.FlipVertical()
		for y := range h {
			if got := fb.GetPixel(0, y).R; int(got) != h-1-y {
				t.Errorf("height %d: row %d holds %d, want %d", h, y, got, h-1-y)
			}
		}
	}
}

func TestFramebufferDrawLine(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.DrawLine(0, 0, 9, 9, ColorWhite)
	for i := range 10 {
		if fb.GetPixel(i, i) != ColorWhite {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}

	// Off-screen endpoints are clipped per pixel, not rejected
	fb.Clear(ColorBlack)
	fb.DrawLine(-5, 2, 15, 2, ColorRed)
	for x := range 10 {
		if fb.GetPixel(x, 2) != ColorRed {
			t.Fatalf("pixel (%d, 2) not set", x)
		}
	}
}

func TestFramebufferImageRoundTrip(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.SetPixel(2, 1, ColorGreen)
	img := fb.ToImage()
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	back := FramebufferFromImage(img)
	if back.GetPixel(2, 1) != ColorGreen {
		t.Errorf("pixel = %v, want green", back.GetPixel(2, 1))
	}
}

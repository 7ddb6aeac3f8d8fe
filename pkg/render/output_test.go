package render

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/penumbra/pkg/math3d"
)

func testImage() image.Image {
	fb := NewFramebuffer(8, 6)
	fb.Clear(ColorBlue)
	fb.DrawLine(0, 0, 7, 5, ColorRed)
	return fb.ToImage()
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.TGA", FormatTGA, false},
		{"a/b/c.webp", FormatWebP, false},
		{"frame.bmp", "", true},
		{"noext", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, err := FormatFromPath(tc.path)
			if (err != nil) != tc.err {
				t.Fatalf("err = %v, want error %v", err, tc.err)
			}
			if err != nil && !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("err = %v, want ErrUnknownFormat", err)
			}
			if got != tc.want {
				t.Errorf("format = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), FormatPNG); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("decoded bounds = %v", img.Bounds())
	}
}

func TestEncodeHeaders(t *testing.T) {
	t.Run("webp", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&buf, testImage(), FormatWebP); err != nil {
			t.Fatal(err)
		}
		b := buf.Bytes()
		if len(b) < 12 || string(b[:4]) != "RIFF" || string(b[8:12]) != "WEBP" {
			t.Errorf("missing RIFF/WEBP header in % x", b[:min(len(b), 12)])
		}
	})

	t.Run("tga", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&buf, testImage(), FormatTGA); err != nil {
			t.Fatal(err)
		}
		b := buf.Bytes()
		if len(b) < 18 {
			t.Fatalf("tga output is %d bytes", len(b))
		}
		// width and height are little-endian at offsets 12 and 14
		if w, h := int(b[12])|int(b[13])<<8, int(b[14])|int(b[15])<<8; w != 8 || h != 6 {
			t.Errorf("tga header size = %dx%d, want 8x6", w, h)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := Encode(&bytes.Buffer{}, testImage(), Format("gif")); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("err = %v, want ErrUnknownFormat", err)
		}
	})
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	if err := SaveImage(path, testImage()); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("stat %s: %v", path, err)
	}
	if err := SaveImage(filepath.Join(dir, "frame.jpg"), testImage()); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("jpg err = %v, want ErrUnknownFormat", err)
	}
}

func TestPreviewSize(t *testing.T) {
	tests := []struct {
		w, h, cols   int
		wantW, wantH int
	}{
		{800, 800, 80, 80, 80},
		{800, 400, 80, 80, 40},
		{40, 30, 80, 40, 30},
		{100, 1, 50, 50, 2},
		{0, 10, 80, 0, 0},
	}
	for _, tc := range tests {
		w, h := PreviewSize(tc.w, tc.h, tc.cols)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("PreviewSize(%d, %d, %d) = %d, %d, want %d, %d", tc.w, tc.h, tc.cols, w, h, tc.wantW, tc.wantH)
		}
		if h%2 != 0 {
			t.Errorf("PreviewSize height %d is odd", h)
		}
	}
}

func TestPreview(t *testing.T) {
	fb := NewFramebuffer(32, 32)
	fb.Clear(ColorRed)

	var buf bytes.Buffer
	if err := Preview(&buf, fb, 16); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if got := strings.Count(out, "▀"); got != 16*8 {
		t.Errorf("half-block count = %d, want %d", got, 16*8)
	}

	if err := Preview(&buf, NewFramebuffer(0, 0), 16); err == nil {
		t.Error("Preview of empty frame succeeded")
	}
}

func TestFramebufferDrawCells(t *testing.T) {
	fb := NewFramebuffer(2, 4)
	fb.SetPixel(1, 2, ColorGreen)
	fb.SetPixel(1, 3, ColorBlue)

	scr := uv.NewScreenBuffer(2, 2)
	fb.Draw(scr, scr.Bounds())

	cell := scr.CellAt(1, 1)
	if cell == nil || cell.Content != "▀" {
		t.Fatalf("cell (1, 1) = %+v", cell)
	}
	if cell.Style.Fg != ColorGreen || cell.Style.Bg != ColorBlue {
		t.Errorf("cell colors = %v / %v, want green over blue", cell.Style.Fg, cell.Style.Bg)
	}
}

func TestWireframeDrawMesh(t *testing.T) {
	tr := NewTransform()
	tr.SetViewport(0, 0, 20, 20)
	fb := NewFramebuffer(21, 21)

	// A single triangle spanning the lower-left half of the viewport
	mesh := triangleMesh{math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(-1, 1, 0)}
	DrawWireframe(tr, math3d.Identity(), mesh, fb, ColorWhite)

	for _, p := range [][2]int{{0, 0}, {20, 0}, {0, 20}, {10, 0}, {0, 10}, {10, 10}} {
		if fb.GetPixel(p[0], p[1]) != ColorWhite {
			t.Errorf("edge pixel %v not drawn", p)
		}
	}
	if fb.GetPixel(5, 5) == ColorWhite {
		t.Error("interior pixel drawn")
	}
}

func TestWireframeDrawAABB(t *testing.T) {
	tr := NewTransform()
	tr.SetViewport(0, 0, 20, 20)
	fb := NewFramebuffer(21, 21)

	NewWireframe(tr, math3d.Identity(), fb).DrawAABB(NewAABB(math3d.V3(-0.5, -0.5, -0.5), math3d.V3(0.5, 0.5, 0.5)), ColorRed)
	// Orthographic front view: a square from 5 to 15
	for _, p := range [][2]int{{5, 5}, {15, 5}, {5, 15}, {15, 15}, {10, 5}} {
		if fb.GetPixel(p[0], p[1]) != ColorRed {
			t.Errorf("box pixel %v not drawn", p)
		}
	}
}

type triangleMesh [3]math3d.Vec3

func (m triangleMesh) NumFaces() int                         { return 1 }
func (m triangleMesh) Position(face, corner int) math3d.Vec3 { return m[corner] }

package render

import (
	"fmt"
	"image"
	"image/color"
	"io"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/image/draw"
)

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. Each terminal row covers two framebuffer rows.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	// ▀ (upper half block) with fg=top color and bg=bottom color
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col-area.Min.X < fb.Width; col++ {
			x := col - area.Min.X
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(x, topY)),
					Bg: rgbaToColor(fb.GetPixel(x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// PreviewSize returns the framebuffer size that fits a width×height image
// into cols terminal columns using half-block cells.
func PreviewSize(width, height, cols int) (w, h int) {
	if width <= 0 || height <= 0 || cols <= 0 {
		return 0, 0
	}
	w = min(cols, width)
	h = max(2, height*w/width)
	h += h % 2
	return w, h
}

// Preview writes a downscaled rendition of fb to out as ANSI half-block
// cells, cols columns wide.
func Preview(out io.Writer, fb *Framebuffer, cols int) error {
	w, h := PreviewSize(fb.Width, fb.Height, cols)
	if w == 0 {
		return fmt.Errorf("preview: empty frame %dx%d", fb.Width, fb.Height)
	}

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), fb.ToImage(), image.Rect(0, 0, fb.Width, fb.Height), draw.Src, nil)

	scr := uv.NewScreenBuffer(w, h/2)
	FramebufferFromImage(small).Draw(scr, scr.Bounds())
	if _, err := io.WriteString(out, scr.Render()+"\x1b[0m\n"); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack = color.RGBA{0, 0, 0, 255}
	ColorWhite = color.RGBA{255, 255, 255, 255}
	ColorRed   = color.RGBA{255, 0, 0, 255}
	ColorGreen = color.RGBA{0, 255, 0, 255}
	ColorBlue  = color.RGBA{0, 0, 255, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

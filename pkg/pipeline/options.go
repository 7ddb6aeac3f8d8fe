package pipeline

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"github.com/taigrr/penumbra/pkg/shading"
)

// Mode selects how the shading pass colors a model.
type Mode int

const (
	ModePhong     Mode = iota // per-pixel lighting, maps and shadows
	ModeGouraud               // per-vertex lighting
	ModeFlat                  // per-face lighting
	ModeDepth                 // grayscale camera depth
	ModeWireframe             // triangle edges only, no depth test
)

var modeNames = map[Mode]string{
	ModePhong:     "phong",
	ModeGouraud:   "gouraud",
	ModeFlat:      "flat",
	ModeDepth:     "depth",
	ModeWireframe: "wireframe",
}

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown shading mode")

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name such as "phong" to a Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options configures a Renderer.
type Options struct {
	Width, Height int     // frame size in pixels
	ShadowSize    int     // shadow buffer is ShadowSize×ShadowSize; 0 uses max(Width, Height)
	ShadowBias    float64 // depth slack of the shadow test
	ShadowFactor  float64 // color scale of occluded fragments
	Shading       Mode
	Shadows       bool // run the light depth pass (ModePhong only)
	SubPixel      bool // keep fractional window coordinates
	Cull          bool // discard faces turned away from the light in ModeFlat
	Background    color.RGBA
	WireColor     color.RGBA
	Logger        *slog.Logger // nil uses slog.Default()
}

// DefaultOptions returns an 800×800 Phong configuration with shadows.
func DefaultOptions() Options {
	return Options{
		Width:        800,
		Height:       800,
		ShadowBias:   shading.DefaultShadowBias,
		ShadowFactor: shading.DefaultShadowFactor,
		Shading:      ModePhong,
		Shadows:      true,
		Background:   color.RGBA{0, 0, 0, 255},
		WireColor:    color.RGBA{255, 255, 255, 255},
	}
}

// ErrInvalidOptions is wrapped by option validation errors.
var ErrInvalidOptions = errors.New("invalid render options")

func (o *Options) normalize() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidOptions, o.Width, o.Height)
	}
	if o.ShadowSize < 0 {
		return fmt.Errorf("%w: shadow size %d", ErrInvalidOptions, o.ShadowSize)
	}
	if o.ShadowSize == 0 {
		o.ShadowSize = max(o.Width, o.Height)
	}
	if o.ShadowFactor < 0 || o.ShadowFactor > 1 {
		return fmt.Errorf("%w: shadow factor %v outside [0, 1]", ErrInvalidOptions, o.ShadowFactor)
	}
	if _, ok := modeNames[o.Shading]; !ok {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, o.Shading)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return nil
}

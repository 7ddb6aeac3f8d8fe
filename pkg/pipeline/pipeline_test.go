package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/render"
	"github.com/taigrr/penumbra/pkg/scene"
)

var background = color.RGBA{0, 0, 0, 255}

// quad returns a square of half-size s in the plane z, facing +Z.
func quad(s, z float64) *scene.Mesh {
	m := scene.NewMesh("quad")
	m.Positions = []math3d.Vec3{
		math3d.V3(-s, -s, z), math3d.V3(s, -s, z), math3d.V3(s, s, z), math3d.V3(-s, s, z),
	}
	m.UVs = []math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(1, 1), math3d.V2(0, 1)}
	m.Normals = []math3d.Vec3{math3d.V3(0, 0, 1)}
	for _, f := range [][3]int{{0, 1, 2}, {0, 2, 3}} {
		m.Faces = append(m.Faces, [3]scene.Corner{
			{Vert: f[0], UV: f[0], Normal: 0},
			{Vert: f[1], UV: f[1], Normal: 0},
			{Vert: f[2], UV: f[2], Normal: 0},
		})
	}
	m.CalculateBounds()
	return m
}

func testOptions(mode Mode) Options {
	opts := DefaultOptions()
	opts.Width, opts.Height = 200, 200
	opts.Shading = mode
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func frontScene(models ...*scene.Model) *Scene {
	return &Scene{
		Models: models,
		Camera: render.NewCamera(math3d.V3(0, 0, 3), math3d.Zero3()),
		Light:  math3d.V3(0, 0, 3),
	}
}

func mustRender(t *testing.T, opts Options, sc *Scene) *Frame {
	t.Helper()
	r, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := r.Render(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestRenderSingleQuad(t *testing.T) {
	frame := mustRender(t, testOptions(ModePhong), frontScene(scene.NewModel(quad(0.5, 0), nil)))

	// The quad covers the middle of the inset viewport
	center := frame.Color.GetPixel(100, 100)
	if center.R <= 20 {
		t.Errorf("center pixel = %v, want lit", center)
	}
	if got := frame.Color.GetPixel(5, 5); got != background {
		t.Errorf("corner pixel = %v, want background", got)
	}
	if z := frame.Depth.At(100, 100); math.IsInf(z, -1) {
		t.Error("depth not written at the center")
	}

	if frame.Shadow == nil || frame.ShadowImage == nil {
		t.Fatal("shadow buffers missing")
	}
	if _, _, ok := frame.Shadow.Range(); !ok {
		t.Error("depth pass wrote nothing")
	}
	if frame.Stats.Color.Pixels == 0 || frame.Stats.Shadow.Pixels == 0 {
		t.Errorf("stats = %+v", frame.Stats)
	}
}

func TestRenderShadow(t *testing.T) {
	floor := scene.NewModel(quad(1, 0), nil)
	occluder := scene.NewModel(quad(0.3, 0.5), nil)
	sc := frontScene(floor, occluder)
	sc.Light = math3d.V3(2, 0, 3)

	// Window x of floor points at y=0: 25 + 75*(x+1)
	shadowed, lit := [2]int{62, 100}, [2]int{145, 100}

	// The floor slopes steeply in light space, so leave room for texel
	// rounding; the occluder is hundreds of depth units in front.
	opts := testOptions(ModePhong)
	opts.ShadowBias = 50

	frame := mustRender(t, opts, sc)
	dark := frame.Color.GetPixel(shadowed[0], shadowed[1])
	bright := frame.Color.GetPixel(lit[0], lit[1])
	if dark.R >= bright.R {
		t.Errorf("shadowed pixel %v is not darker than lit pixel %v", dark, bright)
	}

	opts.Shadows = false
	frame = mustRender(t, opts, sc)
	if a, b := frame.Color.GetPixel(shadowed[0], shadowed[1]), frame.Color.GetPixel(lit[0], lit[1]); a != b {
		t.Errorf("without shadows the floor pixels differ: %v vs %v", a, b)
	}
	if frame.Shadow != nil {
		t.Error("shadow buffer allocated with shadows disabled")
	}
}

func TestRenderNearestWins(t *testing.T) {
	red := &scene.Material{DiffuseMap: scene.NewSolidTexture(color.RGBA{255, 0, 0, 255})}
	blue := &scene.Material{DiffuseMap: scene.NewSolidTexture(color.RGBA{0, 0, 255, 255})}
	far := scene.NewModel(quad(0.5, -0.5), red)
	near := scene.NewModel(quad(0.5, 0.5), blue)

	for _, order := range [][]*scene.Model{{far, near}, {near, far}} {
		frame := mustRender(t, testOptions(ModeGouraud), frontScene(order...))
		c := frame.Color.GetPixel(100, 100)
		if c.B == 0 || c.R != 0 {
			t.Errorf("center pixel = %v, want the nearer blue quad", c)
		}
	}
}

func TestRenderModes(t *testing.T) {
	tests := []struct {
		mode  Mode
		check func(t *testing.T, f *Frame)
	}{
		{ModeGouraud, func(t *testing.T, f *Frame) {
			if c := f.Color.GetPixel(100, 100); c.R != 255 {
				t.Errorf("gouraud center = %v, want full intensity", c)
			}
		}},
		{ModeFlat, func(t *testing.T, f *Frame) {
			if c := f.Color.GetPixel(100, 100); c.R != 255 {
				t.Errorf("flat center = %v, want full intensity", c)
			}
		}},
		{ModeDepth, func(t *testing.T, f *Frame) {
			// The quad sits at the target, half way along the depth axis
			if c := f.Color.GetPixel(100, 100); c.R < 127 || c.R > 128 || c.G != c.R {
				t.Errorf("depth center = %v, want mid gray", c)
			}
		}},
		{ModeWireframe, func(t *testing.T, f *Frame) {
			if c := f.Color.GetPixel(100, 100); c == background {
				t.Error("diagonal edge not drawn through the center")
			}
			if c := f.Color.GetPixel(110, 100); c != background {
				t.Errorf("interior pixel = %v, want background", c)
			}
			if f.Stats.Color.Pixels != 0 {
				t.Errorf("wireframe counted %d fragments", f.Stats.Color.Pixels)
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.mode.String(), func(t *testing.T) {
			frame := mustRender(t, testOptions(tc.mode), frontScene(scene.NewModel(quad(0.5, 0), nil)))
			if frame.Shadow != nil {
				t.Error("depth pass ran outside phong mode")
			}
			tc.check(t, frame)
		})
	}
}

func TestRenderFlatCull(t *testing.T) {
	opts := testOptions(ModeFlat)
	opts.Cull = true
	sc := frontScene(scene.NewModel(quad(0.5, 0), nil))
	sc.Light = math3d.V3(0, 0, -3)

	frame := mustRender(t, opts, sc)
	if got := frame.Color.GetPixel(100, 100); got != background {
		t.Errorf("back-lit face drawn as %v", got)
	}
	if frame.Stats.Color.Discarded == 0 || frame.Stats.Color.Pixels != 0 {
		t.Errorf("stats = %+v", frame.Stats.Color)
	}
}

func TestRenderCullsOffscreenModels(t *testing.T) {
	away := scene.NewModel(quad(0.5, 0), nil)
	away.Transform = math3d.Translate(math3d.V3(50, 0, 0))

	frame := mustRender(t, testOptions(ModeGouraud), frontScene(away, scene.NewModel(quad(0.2, 0), nil)))
	if frame.Stats.Culled != 1 {
		t.Errorf("Culled = %d, want 1", frame.Stats.Culled)
	}
}

func TestRenderSkipsSingularModel(t *testing.T) {
	var logs bytes.Buffer
	opts := testOptions(ModePhong)
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	flat := scene.NewModel(quad(0.5, 0), nil)
	flat.Transform = math3d.Scale(math3d.V3(1, 1, 0))

	frame := mustRender(t, opts, frontScene(flat))
	if frame.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", frame.Stats.Skipped)
	}
	if !strings.Contains(logs.String(), "skipping model") {
		t.Errorf("no warning logged: %q", logs.String())
	}

	tiny := scene.NewModel(quad(0.5, 0), nil)
	tiny.Transform = math3d.ScaleUniform(1e-4)
	frame = mustRender(t, testOptions(ModePhong), frontScene(tiny))
	if frame.Stats.Skipped != 0 {
		t.Errorf("tiny model skipped %d times, want drawn", frame.Stats.Skipped)
	}
}

func TestRenderErrors(t *testing.T) {
	r, err := New(testOptions(ModePhong))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := r.Render(ctx, frontScene()); !errors.Is(err, ErrNoModels) {
		t.Errorf("empty scene err = %v, want ErrNoModels", err)
	}
	if _, err := r.Render(ctx, frontScene(&scene.Model{})); !errors.Is(err, ErrInvalidScene) {
		t.Errorf("nil mesh err = %v, want ErrInvalidScene", err)
	}

	sc := frontScene(scene.NewModel(quad(0.5, 0), nil))
	sc.Light = math3d.Zero3()
	if _, err := r.Render(ctx, sc); !errors.Is(err, ErrInvalidScene) {
		t.Errorf("light at center err = %v, want ErrInvalidScene", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := r.Render(cancelled, frontScene(scene.NewModel(quad(0.5, 0), nil))); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled err = %v, want context.Canceled", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero width", func(o *Options) { o.Width = 0 }},
		{"negative shadow size", func(o *Options) { o.ShadowSize = -1 }},
		{"shadow factor above one", func(o *Options) { o.ShadowFactor = 2 }},
		{"unknown mode", func(o *Options) { o.Shading = Mode(42) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.modify(&opts)
			if _, err := New(opts); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("err = %v, want ErrInvalidOptions", err)
			}
		})
	}

	r, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Options(); got.ShadowSize != 800 || got.Logger == nil {
		t.Errorf("normalized options = %+v", got)
	}
}

func TestParseMode(t *testing.T) {
	for m, name := range modeNames {
		got, err := ParseMode(strings.ToUpper(name))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseMode("toon"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("err = %v, want ErrUnknownMode", err)
	}
	if got := Mode(9).String(); got != "Mode(9)" {
		t.Errorf("String() = %q", got)
	}
}

func BenchmarkRender(b *testing.B) {
	r, err := New(testOptions(ModePhong))
	if err != nil {
		b.Fatal(err)
	}
	sc := frontScene(scene.NewModel(quad(1, 0), nil), scene.NewModel(quad(0.3, 0.5), nil))
	sc.Light = math3d.V3(2, 1, 3)
	ctx := context.Background()

	for b.Loop() {
		if _, err := r.Render(ctx, sc); err != nil {
			b.Fatal(err)
		}
	}
}

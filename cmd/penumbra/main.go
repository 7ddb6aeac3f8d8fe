// penumbra - CPU Shadow-Mapping Renderer
// Render OBJ and glTF models to PNG, TGA or WebP with per-pixel lighting,
// normal maps and shadows.
//
// A scene comes either from a YAML file (-scene) or from a single mesh
// given as an argument, in which case textures named after the mesh
// (head_diffuse.tga, head_nm_tangent.tga, head_spec.tga) are picked up.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/taigrr/penumbra/internal/config"
	"github.com/taigrr/penumbra/pkg/pipeline"
	"github.com/taigrr/penumbra/pkg/render"
	"github.com/taigrr/penumbra/pkg/scene"
)

var (
	scenePath  = flag.String("scene", "", "Path to a YAML scene file")
	outPath    = flag.String("o", "", "Output image (.png, .tga, .webp)")
	shadowOut  = flag.String("shadow-out", "", "Also write the light's depth buffer to this image")
	modeName   = flag.String("mode", "", "Shading mode: phong, gouraud, flat, depth, wireframe")
	noShadows  = flag.Bool("no-shadows", false, "Skip the shadow pass")
	width      = flag.Int("width", 0, "Output width in pixels")
	height     = flag.Int("height", 0, "Output height in pixels")
	subPixel   = flag.Bool("subpixel", false, "Keep fractional window coordinates")
	preview    = flag.Bool("preview", false, "Print the result to the terminal")
	frameCount = flag.Int("frames", 0, "Render a turntable of N frames around the scene")
	verbose    = flag.Bool("v", false, "Debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "penumbra - CPU Shadow-Mapping Renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: penumbra [options] <model.obj|model.glb>\n")
		fmt.Fprintf(os.Stderr, "       penumbra [options] -scene scene.yaml\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *scenePath == "" && flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, meshPath string) error {
	var (
		sc  *config.Scene
		err error
	)
	if *scenePath != "" {
		sc, err = config.Load(*scenePath)
	} else {
		sc, err = config.ForMesh(meshPath)
	}
	if err != nil {
		return err
	}
	err = sc.Resolve(config.Flags{
		Output:       *outPath,
		ShadowOutput: *shadowOut,
		Mode:         *modeName,
		Width:        *width,
		Height:       *height,
		NoShadows:    *noShadows,
		SubPixel:     *subPixel,
	})
	if err != nil {
		return err
	}

	opts, err := sc.Options(log)
	if err != nil {
		return err
	}
	r, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	start := time.Now()
	cache := scene.NewTextureCache()
	world, err := sc.Build(cache)
	if err != nil {
		return err
	}
	log.Debug("scene loaded",
		"models", len(world.Models),
		"textures", cache.Len(),
		"elapsed", time.Since(start))

	if *frameCount > 0 {
		return turntable(ctx, log, r, world, sc, *frameCount)
	}

	frame, err := r.Render(ctx, world)
	if err != nil {
		return err
	}
	if err := save(sc.Output, frame.Color); err != nil {
		return err
	}
	if sc.ShadowOutput != "" && frame.ShadowImage != nil {
		if err := save(sc.ShadowOutput, frame.ShadowImage); err != nil {
			return err
		}
	}
	log.Info("rendered",
		"output", sc.Output,
		"mode", opts.Shading,
		"pixels", frame.Stats.Color.Pixels,
		"skipped", frame.Stats.Skipped,
		"elapsed", time.Since(start))

	if *preview {
		return render.Preview(os.Stdout, frame.Color, terminalWidth())
	}
	return nil
}

// save writes fb with the origin at the bottom left. fb is flipped in place.
func save(path string, fb *render.Framebuffer) error {
	fb.FlipVertical()
	return render.SaveImage(path, fb.ToImage())
}

// turntable orbits the camera around its target. The angle chases each
// frame's target through a critically damped spring, so the motion eases in.
func turntable(ctx context.Context, log *slog.Logger, r *pipeline.Renderer, world *pipeline.Scene, sc *config.Scene, n int) error {
	spring := harmonica.NewSpring(harmonica.FPS(n), 6.0, 1.0)
	step := 2 * math.Pi / float64(n)
	base := world.Camera

	ext := filepath.Ext(sc.Output)
	stem := strings.TrimSuffix(sc.Output, ext)

	bar := progressbar.Default(int64(n), "rendering")
	defer bar.Close()

	var angle, vel float64
	for i := range n {
		world.Camera = base.Orbit(angle)
		frame, err := r.Render(ctx, world)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := save(fmt.Sprintf("%s_%03d%s", stem, i, ext), frame.Color); err != nil {
			return err
		}
		// The light does not move, so one shadow image covers every frame
		if i == 0 && sc.ShadowOutput != "" && frame.ShadowImage != nil {
			if err := save(sc.ShadowOutput, frame.ShadowImage); err != nil {
				return err
			}
		}
		bar.Add(1)

		angle, vel = spring.Update(angle, vel, float64(i+1)*step)
	}
	log.Info("turntable done", "frames", n, "output", stem+"_*"+ext)
	return nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

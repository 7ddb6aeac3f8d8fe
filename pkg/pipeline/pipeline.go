// Package pipeline renders a scene in two passes: a depth pass from the
// light that fills the shadow buffer, then a shading pass from the camera
// that samples it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/render"
	"github.com/taigrr/penumbra/pkg/scene"
	"github.com/taigrr/penumbra/pkg/shading"
)

var (
	// ErrNoModels is returned when a scene has nothing to draw.
	ErrNoModels = errors.New("pipeline: scene has no models")
	// ErrInvalidScene is wrapped when a scene cannot be rendered.
	ErrInvalidScene = errors.New("pipeline: invalid scene")
)

// Scene is what one Render call draws. Models are shared, not copied.
type Scene struct {
	Models []*scene.Model
	Camera render.Camera
	// Light is the light position. Light travels from it toward Center as
	// parallel rays.
	Light math3d.Vec3
	// Center is the point both the light and the shadow pass aim at. nil
	// uses the camera target.
	Center *math3d.Vec3
}

func (s *Scene) center() math3d.Vec3 {
	if s.Center != nil {
		return *s.Center
	}
	return s.Camera.Center
}

func (s *Scene) validate() error {
	if len(s.Models) == 0 {
		return ErrNoModels
	}
	for i, m := range s.Models {
		if m == nil || m.Mesh == nil {
			return fmt.Errorf("%w: model %d has no mesh", ErrInvalidScene, i)
		}
	}
	if s.Camera.Distance() < math3d.Epsilon {
		return fmt.Errorf("%w: camera eye and target coincide", ErrInvalidScene)
	}
	if s.Light.Distance(s.center()) < math3d.Epsilon {
		return fmt.Errorf("%w: light is at the scene center", ErrInvalidScene)
	}
	return nil
}

// Stats summarizes a rendered frame.
type Stats struct {
	Shadow  render.Stats // depth pass
	Color   render.Stats // shading pass
	Culled  int          // models outside the camera clip planes
	Skipped int          // models with a singular transform
}

// Frame holds the buffers produced by one Render call. The shadow fields
// are nil when the depth pass did not run.
type Frame struct {
	Color       *render.Framebuffer
	Depth       *render.DepthBuffer
	Shadow      *render.DepthBuffer
	ShadowImage *render.Framebuffer
	Stats       Stats
}

// Renderer draws scenes with fixed options. A Renderer keeps no state
// between calls; separate Renderers may run concurrently.
type Renderer struct {
	opts Options
	log  *slog.Logger
	rast *render.Rasterizer
}

// New validates opts and creates a Renderer.
func New(opts Options) (*Renderer, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	return &Renderer{
		opts: opts,
		log:  opts.Logger,
		rast: render.NewRasterizer(render.Options{SubPixel: opts.SubPixel}),
	}, nil
}

// Options returns the normalized options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render runs the depth pass (Phong with shadows only) and then the shading
// pass. The context is checked between models.
func (r *Renderer) Render(ctx context.Context, sc *Scene) (*Frame, error) {
	if err := sc.validate(); err != nil {
		return nil, err
	}

	frame := &Frame{
		Color: render.NewFramebuffer(r.opts.Width, r.opts.Height),
		Depth: render.NewDepthBuffer(r.opts.Width, r.opts.Height),
	}
	frame.Color.Clear(r.opts.Background)

	var light *render.Transform
	if r.opts.Shadows && r.opts.Shading == ModePhong {
		var err error
		if light, err = r.depthPass(ctx, sc, frame); err != nil {
			return nil, err
		}
	}
	if err := r.shadingPass(ctx, sc, light, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// lightTransform aims an orthographic view from the light at the scene
// center, with the same inset viewport the camera uses.
func (r *Renderer) lightTransform(sc *Scene) *render.Transform {
	cam := render.Camera{Eye: sc.Light, Center: sc.center(), Up: sc.Camera.Up}
	tr := render.NewTransform()
	tr.LookAt(cam.Eye, cam.Center, cam.SafeUp())
	tr.SetProjection(0)
	s := r.opts.ShadowSize
	tr.SetViewport(s/8, s/8, s*3/4, s*3/4)
	return tr
}

func (r *Renderer) depthPass(ctx context.Context, sc *Scene, frame *Frame) (*render.Transform, error) {
	start := time.Now()
	tr := r.lightTransform(sc)
	s := r.opts.ShadowSize
	frame.Shadow = render.NewDepthBuffer(s, s)
	frame.ShadowImage = render.NewFramebuffer(s, s)
	frame.ShadowImage.Clear(r.opts.Background)

	for i, m := range sc.Models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sh := shading.NewDepthShader(m.Mesh, tr.Screen(m.Transform))
		st, err := r.drawModel(sh, m.Mesh.NumFaces(), frame.ShadowImage, frame.Shadow)
		if err != nil {
			return nil, fmt.Errorf("depth pass model %d: %w", i, err)
		}
		frame.Stats.Shadow.Add(st)
	}

	r.log.Debug("depth pass done",
		"models", len(sc.Models),
		"pixels", frame.Stats.Shadow.Pixels,
		"rejected", frame.Stats.Shadow.Rejected,
		"elapsed", time.Since(start))
	return tr, nil
}

func (r *Renderer) cameraTransform(sc *Scene) *render.Transform {
	cam := sc.Camera
	cam.Up = cam.SafeUp()
	tr := render.NewTransform()
	cam.Apply(tr)
	w, h := r.opts.Width, r.opts.Height
	tr.SetViewport(w/8, h/8, w*3/4, h*3/4)
	return tr
}

// clipExtent is the half-size of the whole frame in normalized device
// units, given the inset viewport.
func (r *Renderer) clipExtent() float64 {
	w, h := r.opts.Width, r.opts.Height
	return max(float64(w)/float64(max(w*3/4, 1)), float64(h)/float64(max(h*3/4, 1)))
}

func (r *Renderer) shadingPass(ctx context.Context, sc *Scene, light *render.Transform, frame *Frame) error {
	start := time.Now()
	tr := r.cameraTransform(sc)
	clip := render.NewClipPlanes(tr.ViewProjection(), r.clipExtent())
	lightDir := sc.Light.Sub(sc.center()).Normalize()

	for i, m := range sc.Models {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !clip.IntersectAABB(m.WorldBounds()) {
			frame.Stats.Culled++
			r.log.Debug("model outside view", "model", i, "mesh", m.Mesh.Name)
			continue
		}

		if r.opts.Shading == ModeWireframe {
			render.DrawWireframe(tr, m.Transform, m.Mesh, frame.Color, r.opts.WireColor)
			continue
		}

		sh, err := r.shader(sc, m, tr, light, lightDir, frame)
		if err != nil {
			frame.Stats.Skipped++
			r.log.Warn("skipping model", "model", i, "mesh", m.Mesh.Name, "err", err)
			continue
		}
		st, err := r.drawModel(sh, m.Mesh.NumFaces(), frame.Color, frame.Depth)
		if err != nil {
			return fmt.Errorf("shading pass model %d: %w", i, err)
		}
		frame.Stats.Color.Add(st)
	}

	r.log.Debug("shading pass done",
		"mode", r.opts.Shading,
		"models", len(sc.Models),
		"culled", frame.Stats.Culled,
		"pixels", frame.Stats.Color.Pixels,
		"discarded", frame.Stats.Color.Discarded,
		"rejected", frame.Stats.Color.Rejected,
		"elapsed", time.Since(start))
	return nil
}

// shader builds the shading-pass shader of one model. light is nil when
// the depth pass did not run.
func (r *Renderer) shader(sc *Scene, m *scene.Model, tr, light *render.Transform, lightDir math3d.Vec3, frame *Frame) (render.Shader, error) {
	if r.opts.Shading == ModeDepth {
		return shading.NewDepthShader(m.Mesh, tr.Screen(m.Transform)), nil
	}

	u, err := shading.NewUniforms(tr, m.Transform, lightDir)
	if err != nil {
		return nil, err
	}

	switch r.opts.Shading {
	case ModeFlat:
		sh := shading.NewFlatShader(m.Mesh, m.Material, u)
		sh.Cull = r.opts.Cull
		return sh, nil
	case ModeGouraud:
		return shading.NewGouraudShader(m.Mesh, m.Material, u), nil
	}

	var sm *shading.ShadowMap
	if light != nil {
		sm, err = shading.NewShadowMap(frame.Shadow, light.Screen(m.Transform), u.Screen)
		if err != nil {
			r.log.Warn("shadow matrix is singular, shadows disabled for model", "mesh", m.Mesh.Name, "err", err)
			sm = nil
		} else {
			sm.Bias = r.opts.ShadowBias
			sm.Factor = r.opts.ShadowFactor
		}
	}
	return shading.NewPhongShader(m.Mesh, m.Material, u, sm), nil
}

func (r *Renderer) drawModel(sh render.Shader, faces int, fb *render.Framebuffer, zbuf *render.DepthBuffer) (render.Stats, error) {
	var total render.Stats
	for f := range faces {
		st, err := r.rast.Face(sh, f, fb, zbuf)
		if err != nil {
			return total, err
		}
		total.Add(st)
	}
	return total, nil
}

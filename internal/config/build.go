package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/taigrr/penumbra/pkg/math3d"
	"github.com/taigrr/penumbra/pkg/pipeline"
	"github.com/taigrr/penumbra/pkg/render"
	"github.com/taigrr/penumbra/pkg/scene"
)

func (v Vec3) vec() math3d.Vec3 {
	return math3d.V3(v[0], v[1], v[2])
}

// Options converts the render section to pipeline options.
func (s *Scene) Options(log *slog.Logger) (pipeline.Options, error) {
	mode, err := pipeline.ParseMode(s.Render.Mode)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	bg, err := ParseColor(s.Render.Background)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("%w: background: %w", ErrInvalid, err)
	}

	opts := pipeline.DefaultOptions()
	opts.Width = s.Render.Width
	opts.Height = s.Render.Height
	opts.ShadowSize = s.Render.ShadowSize
	opts.ShadowBias = s.Render.ShadowBias
	opts.ShadowFactor = s.Render.ShadowFactor
	opts.Shading = mode
	opts.Shadows = s.Render.Shadows == nil || *s.Render.Shadows
	opts.SubPixel = s.Render.SubPixel
	opts.Cull = s.Render.Cull
	opts.Background = bg
	opts.Logger = log
	return opts, nil
}

// Build loads every mesh and texture the scene names. Models that share a
// mesh path share one *scene.Mesh; textures go through cache.
func (s *Scene) Build(cache *scene.TextureCache) (*pipeline.Scene, error) {
	meshes := make(map[string]*scene.Mesh)
	out := &pipeline.Scene{
		Camera: render.Camera{
			Eye:    s.Camera.Eye.vec(),
			Center: s.Camera.Center.vec(),
			Up:     s.Camera.Up.vec(),
		},
		Light: s.Light.vec(),
	}
	if s.Center != nil {
		c := s.Center.vec()
		out.Center = &c
	}

	for i, mc := range s.Models {
		path := s.Path(mc.Mesh)
		mesh, ok := meshes[path]
		if !ok {
			var err error
			if mesh, err = loadMesh(path); err != nil {
				return nil, fmt.Errorf("model %d: %w", i, err)
			}
			meshes[path] = mesh
		}

		mat, err := scene.LoadMaterial(cache, s.Path(mc.Diffuse), s.Path(mc.Normal), s.Path(mc.Specular))
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		if mat.DiffuseMap == nil && isGLTF(path) {
			tex, err := scene.LoadGLTFTexture(path)
			switch {
			case err == nil:
				mat.DiffuseMap = tex
			case !errors.Is(err, scene.ErrNoTexture):
				return nil, fmt.Errorf("model %d: %w", i, err)
			}
		}

		model := scene.NewModel(mesh, mat)
		model.Transform = mc.transform()
		out.Models = append(out.Models, model)
	}
	return out, nil
}

// transform is T * Rz * Ry * Rx * S.
func (m ModelConfig) transform() math3d.Mat4 {
	scale := Vec3{1, 1, 1}
	if m.Scale != nil {
		scale = *m.Scale
	}
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	return math3d.Translate(m.Translate.vec()).
		Mul(math3d.RotateZ(rad(m.Rotate[2]))).
		Mul(math3d.RotateY(rad(m.Rotate[1]))).
		Mul(math3d.RotateX(rad(m.Rotate[0]))).
		Mul(math3d.Scale(scale.vec()))
}

func isGLTF(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".gltf" || ext == ".glb"
}

func loadMesh(path string) (*scene.Mesh, error) {
	if isGLTF(path) {
		return scene.LoadGLTF(path)
	}
	return scene.LoadOBJ(path)
}

// Texture suffixes looked up next to a bare mesh file.
var (
	diffuseSuffixes  = []string{"_diffuse.tga", "_diffuse.png"}
	normalSuffixes   = []string{"_nm_tangent.tga", "_nm.tga", "_nm_tangent.png", "_nm.png"}
	specularSuffixes = []string{"_spec.tga", "_spec.png"}
)

// ForMesh returns a one-model scene for a mesh given on the command line.
// Texture maps are picked up from sibling files named after the mesh, e.g.
// head.obj with head_diffuse.tga, head_nm_tangent.tga and head_spec.tga.
func ForMesh(path string) (*Scene, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	sc := &Scene{
		Camera: CameraConfig{Eye: Vec3{1, 1, 3}},
		Light:  Vec3{1, 1, 1},
		Models: []ModelConfig{{
			Mesh:     path,
			Diffuse:  sibling(base, diffuseSuffixes),
			Normal:   sibling(base, normalSuffixes),
			Specular: sibling(base, specularSuffixes),
		}},
	}
	sc.normalize()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func sibling(base string, suffixes []string) string {
	for _, suf := range suffixes {
		if _, err := os.Stat(base + suf); err == nil {
			return base + suf
		}
	}
	return ""
}

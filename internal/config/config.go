// Package config reads penumbra scene files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid scene")

// Defaults for fields a scene file leaves out.
const (
	DefaultSize       = 800
	DefaultOutput     = "output.png"
	DefaultMode       = "phong"
	DefaultBackground = "0,0,0"
)

// Vec3 is a YAML [x, y, z] sequence.
type Vec3 [3]float64

// Scene is the on-disk description of a render.
type Scene struct {
	Version      int    `yaml:"version"`
	Output       string `yaml:"output,omitempty"`
	ShadowOutput string `yaml:"shadowOutput,omitempty"`

	Render RenderConfig  `yaml:"render"`
	Camera CameraConfig  `yaml:"camera"`
	Light  Vec3          `yaml:"light"`
	Center *Vec3         `yaml:"center,omitempty"`
	Models []ModelConfig `yaml:"models"`

	// dir is the directory relative paths resolve against.
	dir string
}

// RenderConfig holds the frame and shading settings.
type RenderConfig struct {
	Width        int     `yaml:"width,omitempty"`
	Height       int     `yaml:"height,omitempty"`
	ShadowSize   int     `yaml:"shadowSize,omitempty"`
	ShadowBias   float64 `yaml:"shadowBias,omitempty"`
	ShadowFactor float64 `yaml:"shadowFactor,omitempty"`
	Mode         string  `yaml:"mode,omitempty"`
	Shadows      *bool   `yaml:"shadows,omitempty"`
	SubPixel     bool    `yaml:"subPixel,omitempty"`
	Cull         bool    `yaml:"cull,omitempty"`
	Background   string  `yaml:"background,omitempty"`
}

// CameraConfig is a look-at camera.
type CameraConfig struct {
	Eye    Vec3  `yaml:"eye"`
	Center Vec3  `yaml:"center"`
	Up     *Vec3 `yaml:"up,omitempty"`
}

// ModelConfig places one mesh. Rotate is in degrees, applied X then Y then Z.
type ModelConfig struct {
	Mesh      string `yaml:"mesh"`
	Diffuse   string `yaml:"diffuse,omitempty"`
	Normal    string `yaml:"normal,omitempty"`
	Specular  string `yaml:"specular,omitempty"`
	Translate Vec3   `yaml:"translate,omitempty"`
	Rotate    Vec3   `yaml:"rotate,omitempty"`
	Scale     *Vec3  `yaml:"scale,omitempty"`
}

// Load reads and validates a scene file. Relative paths in it resolve
// against the file's directory.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	sc, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scene, fills defaults and validates it. Unknown keys are
// rejected.
func Parse(data []byte, dir string) (*Scene, error) {
	var sc Scene
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	sc.dir = dir
	sc.normalize()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scene) normalize() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Output == "" {
		s.Output = DefaultOutput
	}
	if s.Render.Width == 0 {
		s.Render.Width = DefaultSize
	}
	if s.Render.Height == 0 {
		s.Render.Height = DefaultSize
	}
	if s.Render.ShadowBias == 0 {
		s.Render.ShadowBias = 12
	}
	if s.Render.ShadowFactor == 0 {
		s.Render.ShadowFactor = 0.3
	}
	if s.Render.Mode == "" {
		s.Render.Mode = DefaultMode
	}
	if s.Render.Shadows == nil {
		on := true
		s.Render.Shadows = &on
	}
	if s.Render.Background == "" {
		s.Render.Background = DefaultBackground
	}
	if s.Camera.Up == nil {
		s.Camera.Up = &Vec3{0, 1, 0}
	}
	for i := range s.Models {
		if s.Models[i].Scale == nil {
			s.Models[i].Scale = &Vec3{1, 1, 1}
		}
	}
}

// Validate checks the settings that would make a render fail.
func (s *Scene) Validate() error {
	if s.Version != 1 {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalid, s.Version)
	}
	if s.Render.Width < 0 || s.Render.Height < 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalid, s.Render.Width, s.Render.Height)
	}
	if s.Render.ShadowSize < 0 {
		return fmt.Errorf("%w: shadow size %d", ErrInvalid, s.Render.ShadowSize)
	}
	if f := s.Render.ShadowFactor; f < 0 || f > 1 {
		return fmt.Errorf("%w: shadow factor %v outside [0, 1]", ErrInvalid, f)
	}
	if _, err := ParseColor(s.Render.Background); err != nil {
		return fmt.Errorf("%w: background: %w", ErrInvalid, err)
	}
	if s.Camera.Eye == s.Camera.Center {
		return fmt.Errorf("%w: camera eye and center coincide", ErrInvalid)
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("%w: no models", ErrInvalid)
	}
	for i, m := range s.Models {
		if m.Mesh == "" {
			return fmt.Errorf("%w: model %d has no mesh", ErrInvalid, i)
		}
		if !isMeshPath(m.Mesh) {
			return fmt.Errorf("%w: model %d: unsupported mesh format %q", ErrInvalid, i, filepath.Ext(m.Mesh))
		}
		if m.Scale != nil && (m.Scale[0] == 0 || m.Scale[1] == 0 || m.Scale[2] == 0) {
			return fmt.Errorf("%w: model %d has a zero scale", ErrInvalid, i)
		}
	}
	return nil
}

func isMeshPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj", ".gltf", ".glb":
		return true
	}
	return false
}

// Path resolves p against the scene file's directory. Absolute and empty
// paths are returned unchanged.
func (s *Scene) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}

// Flags holds CLI flag values that override the scene file. Zero values
// leave the file's setting alone.
type Flags struct {
	Output       string
	ShadowOutput string
	Mode         string
	Width        int
	Height       int
	NoShadows    bool
	SubPixel     bool
}

// Resolve applies CLI overrides and validates the result. Output paths
// given on the command line are used as is.
func (s *Scene) Resolve(f Flags) error {
	if f.Output != "" {
		s.Output = f.Output
	} else {
		s.Output = s.Path(s.Output)
	}
	if f.ShadowOutput != "" {
		s.ShadowOutput = f.ShadowOutput
	} else {
		s.ShadowOutput = s.Path(s.ShadowOutput)
	}
	if f.Mode != "" {
		s.Render.Mode = f.Mode
	}
	if f.Width > 0 {
		s.Render.Width = f.Width
	}
	if f.Height > 0 {
		s.Render.Height = f.Height
	}
	if f.NoShadows {
		off := false
		s.Render.Shadows = &off
	}
	if f.SubPixel {
		s.Render.SubPixel = true
	}
	return s.Validate()
}

// ParseColor parses an "R,G,B" triple of 0-255 integers.
func ParseColor(s string) (color.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("color %q: want R,G,B", s)
	}
	var c [3]uint8
	for i, p := range parts {
		var v int
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &v); err != nil {
			return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		if v < 0 || v > 255 {
			return color.RGBA{}, fmt.Errorf("color %q: component %d out of range", s, v)
		}
		c[i] = uint8(v)
	}
	return color.RGBA{c[0], c[1], c[2], 255}, nil
}

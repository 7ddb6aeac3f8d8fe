package scene

import (
	"fmt"
	"image/color"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// Material binds the optional diffuse, tangent-space normal and specular
// maps of a model. Methods on a nil Material return the defaults.
type Material struct {
	Name        string
	DiffuseMap  *Texture
	NormalMap   *Texture
	SpecularMap *Texture
}

// DefaultSpecular is the specular exponent used without a specular map.
const DefaultSpecular = 1.0

// LoadMaterial loads the three maps through cache. Empty paths leave the
// map unbound.
func LoadMaterial(cache *TextureCache, diffuse, normal, specular string) (*Material, error) {
	mat := &Material{Name: diffuse}
	for _, m := range []struct {
		path string
		dst  **Texture
	}{
		{diffuse, &mat.DiffuseMap},
		{normal, &mat.NormalMap},
		{specular, &mat.SpecularMap},
	} {
		if m.path == "" {
			continue
		}
		tex, err := cache.Load(m.path)
		if err != nil {
			return nil, fmt.Errorf("load material: %w", err)
		}
		*m.dst = tex
	}
	return mat, nil
}

// Diffuse returns the base color at uv, white when no map is bound.
func (m *Material) Diffuse(uv math3d.Vec2) color.RGBA {
	if m == nil || m.DiffuseMap == nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return m.DiffuseMap.Sample(uv.X, uv.Y)
}

// Normal returns the tangent-space normal at uv, decoded from RGB as
// c/255*2-1. Without a map it is (0, 0, 1).
func (m *Material) Normal(uv math3d.Vec2) math3d.Vec3 {
	if m == nil || m.NormalMap == nil {
		return math3d.V3(0, 0, 1)
	}
	c := m.NormalMap.Sample(uv.X, uv.Y)
	return math3d.V3(
		float64(c.R)/255*2-1,
		float64(c.G)/255*2-1,
		float64(c.B)/255*2-1,
	)
}

// Specular returns the raw specular exponent (0-255) at uv.
func (m *Material) Specular(uv math3d.Vec2) float64 {
	if m == nil || m.SpecularMap == nil {
		return DefaultSpecular
	}
	return float64(m.SpecularMap.Sample(uv.X, uv.Y).R)
}

// HasNormalMap reports whether a tangent-space normal map is bound.
func (m *Material) HasNormalMap() bool {
	return m != nil && m.NormalMap != nil
}

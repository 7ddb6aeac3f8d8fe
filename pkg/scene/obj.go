package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// ErrMalformedOBJ is wrapped by every OBJ parse error.
var ErrMalformedOBJ = errors.New("malformed obj")

// LoadOBJ reads a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mesh.Name = filepath.Base(path)
	return mesh, nil
}

// ParseOBJ reads v, vt, vn and f records. Polygons are fan-triangulated and
// missing normals are computed. Other records are ignored.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	mesh := NewMesh("")
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v []float64
			if v, err = parseFloats(fields[1:], 3); err == nil {
				mesh.Positions = append(mesh.Positions, math3d.V3(v[0], v[1], v[2]))
			}
		case "vt":
			var v []float64
			if v, err = parseFloats(fields[1:], 2); err == nil {
				mesh.UVs = append(mesh.UVs, math3d.V2(v[0], v[1]))
			}
		case "vn":
			var v []float64
			if v, err = parseFloats(fields[1:], 3); err == nil {
				mesh.Normals = append(mesh.Normals, math3d.V3(v[0], v[1], v[2]))
			}
		case "f":
			err = mesh.parseFace(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	mesh.CalculateSmoothNormals()
	mesh.CalculateBounds()
	return mesh, nil
}

// parseFloats parses at least n leading floats; extra components are dropped.
func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("%w: want %d components, got %d", ErrMalformedOBJ, n, len(fields))
	}
	out := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedOBJ, err)
		}
		out[i] = v
	}
	return out, nil
}

func (m *Mesh) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("%w: face with %d corners", ErrMalformedOBJ, len(fields))
	}
	corners := make([]Corner, len(fields))
	for i, f := range fields {
		c, err := m.parseCorner(f)
		if err != nil {
			return err
		}
		corners[i] = c
	}
	for i := 1; i+1 < len(corners); i++ {
		m.Faces = append(m.Faces, [3]Corner{corners[0], corners[i], corners[i+1]})
	}
	return nil
}

// parseCorner handles the v, v/vt, v//vn and v/vt/vn forms.
func (m *Mesh) parseCorner(s string) (Corner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return Corner{}, fmt.Errorf("%w: corner %q", ErrMalformedOBJ, s)
	}

	c := Corner{UV: -1, Normal: -1}
	var err error
	if c.Vert, err = resolveIndex(parts[0], len(m.Positions)); err != nil {
		return Corner{}, fmt.Errorf("vertex of %q: %w", s, err)
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.UV, err = resolveIndex(parts[1], len(m.UVs)); err != nil {
			return Corner{}, fmt.Errorf("uv of %q: %w", s, err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.Normal, err = resolveIndex(parts[2], len(m.Normals)); err != nil {
			return Corner{}, fmt.Errorf("normal of %q: %w", s, err)
		}
	}
	return c, nil
}

// resolveIndex converts a 1-based or negative (relative to the end) index to
// a 0-based one.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedOBJ, err)
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("%w: index %d out of range [1, %d]", ErrMalformedOBJ, i, n)
}

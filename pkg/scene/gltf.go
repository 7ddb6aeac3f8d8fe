package scene

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/penumbra/pkg/math3d"
)

// ErrNoTexture is returned by LoadGLTFTexture when a document embeds no
// decodable image.
var ErrNoTexture = errors.New("no embedded texture")

// LoadGLTF loads every triangle primitive of a glTF or GLB file into one
// mesh. Missing normals are computed.
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, m := range doc.Meshes {
		for i, prim := range m.Primitives {
			if err := appendPrimitive(doc, prim, mesh); err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", m.Name, i, err)
			}
		}
	}

	mesh.CalculateSmoothNormals()
	mesh.CalculateBounds()
	return mesh, nil
}

// LoadGLTFTexture decodes the first readable image of a glTF document,
// embedded in a buffer view or data URI, or stored next to the file.
// ErrNoTexture means the document has no images; otherwise the last decode
// error is returned.
func LoadGLTFTexture(path string) (*Texture, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	var lastErr error
	for i, img := range doc.Images {
		var (
			tex *Texture
			err error
		)
		switch {
		case img.BufferView != nil:
			data, derr := imageBytes(doc, *img.BufferView)
			if derr != nil {
				lastErr = fmt.Errorf("image %d: %w", i, derr)
				continue
			}
			tex, err = ReadTexture(bytes.NewReader(data))
		case img.IsEmbeddedResource():
			data, derr := img.MarshalData()
			if derr != nil {
				lastErr = fmt.Errorf("image %d: %w", i, derr)
				continue
			}
			tex, err = ReadTexture(bytes.NewReader(data))
		case img.URI != "":
			tex, err = LoadTexture(filepath.Join(filepath.Dir(path), img.URI))
		default:
			continue
		}
		if err != nil {
			lastErr = fmt.Errorf("image %d: %w", i, err)
			continue
		}
		return tex, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%s: %w", path, lastErr)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNoTexture)
}

// imageBytes returns the contents of an image's buffer view.
func imageBytes(doc *gltf.Document, view int) ([]byte, error) {
	if view < 0 || view >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", view)
	}
	bv := doc.BufferViews[view]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	buf := doc.Buffers[bv.Buffer]
	end := bv.ByteOffset + bv.ByteLength
	if buf.Data == nil || end > len(buf.Data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer %d", view, bv.Buffer)
	}
	return buf.Data[bv.ByteOffset:end], nil
}

// appendPrimitive copies one primitive into mesh. Positions, normals and
// UVs share vertex indices in glTF, so every corner uses one index for all
// three attributes.
func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, mesh *Mesh) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		// Lines and points carry no surface
		return nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}

	positions, err := readVec3s(doc, posIdx)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals []math3d.Vec3
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = readVec3s(doc, idx); err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
		if len(normals) != len(positions) {
			normals = nil
		}
	}

	var uvs []math3d.Vec2
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = readVec2s(doc, idx); err != nil {
			return fmt.Errorf("read uvs: %w", err)
		}
		if len(uvs) != len(positions) {
			uvs = nil
		}
	}

	var indices []int
	if prim.Indices != nil {
		if indices, err = readIndices(doc, *prim.Indices); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]int, len(positions))
		for i := range indices {
			indices[i] = i
		}
	}

	basePos, baseUV, baseNorm := len(mesh.Positions), len(mesh.UVs), len(mesh.Normals)
	mesh.Positions = append(mesh.Positions, positions...)
	mesh.Normals = append(mesh.Normals, normals...)
	for _, uv := range uvs {
		// glTF puts v=0 at the top of the image
		mesh.UVs = append(mesh.UVs, math3d.V2(uv.X, 1-uv.Y))
	}

	for i := 0; i+2 < len(indices); i += 3 {
		var face [3]Corner
		for j := range 3 {
			idx := indices[i+j]
			if idx < 0 || idx >= len(positions) {
				return fmt.Errorf("index %d out of range [0, %d)", idx, len(positions))
			}
			face[j] = Corner{Vert: basePos + idx, UV: -1, Normal: -1}
			if uvs != nil {
				face[j].UV = baseUV + idx
			}
			if normals != nil {
				face[j].Normal = baseNorm + idx
			}
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return nil
}

func readVec3s(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	acc := doc.Accessors[accessorIdx]
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v / %v", acc.Type, acc.ComponentType)
	}
	data, stride, err := accessorBytes(doc, acc, 12)
	if err != nil {
		return nil, err
	}

	out := make([]math3d.Vec3, acc.Count)
	for i := range out {
		b := data[i*stride:]
		out[i] = math3d.V3(readFloat32(b), readFloat32(b[4:]), readFloat32(b[8:]))
	}
	return out, nil
}

func readVec2s(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	acc := doc.Accessors[accessorIdx]
	if acc.Type != gltf.AccessorVec2 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC2, got %v / %v", acc.Type, acc.ComponentType)
	}
	data, stride, err := accessorBytes(doc, acc, 8)
	if err != nil {
		return nil, err
	}

	out := make([]math3d.Vec2, acc.Count)
	for i := range out {
		b := data[i*stride:]
		out[i] = math3d.V2(readFloat32(b), readFloat32(b[4:]))
	}
	return out, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	acc := doc.Accessors[accessorIdx]
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", acc.Type)
	}

	var size int
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", acc.ComponentType)
	}
	data, stride, err := accessorBytes(doc, acc, size)
	if err != nil {
		return nil, err
	}

	out := make([]int, acc.Count)
	for i := range out {
		b := data[i*stride:]
		switch size {
		case 1:
			out[i] = int(b[0])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(b))
		case 4:
			out[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return out, nil
}

// accessorBytes returns the buffer bytes an accessor reads from and the
// stride between elements, checking that every element fits.
func accessorBytes(doc *gltf.Document, acc *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if acc.BufferView == nil {
		return nil, 0, errors.New("accessor has no buffer view")
	}
	bv := doc.BufferViews[*acc.BufferView]
	buf := doc.Buffers[bv.Buffer]
	if buf.Data == nil {
		return nil, 0, errors.New("buffer has no data")
	}

	stride := bv.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := bv.ByteOffset + acc.ByteOffset
	if start > len(buf.Data) {
		return nil, 0, fmt.Errorf("accessor starts past buffer end (%d > %d)", start, len(buf.Data))
	}
	if acc.Count > 0 {
		if end := start + (acc.Count-1)*stride + elemSize; end > len(buf.Data) {
			return nil, 0, fmt.Errorf("accessor reads past buffer end (%d > %d)", end, len(buf.Data))
		}
	}
	return buf.Data[start:], stride, nil
}

func readFloat32(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

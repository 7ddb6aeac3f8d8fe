package scene

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"image"
	"image/png"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/penumbra/pkg/math3d"
)

// writeTriangleGLTF writes a one-triangle glTF with an embedded base64
// buffer: three float positions followed by three ushort indices.
func writeTriangleGLTF(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 0, 44)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, i := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	buf = append(buf, 0, 0)

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}]
}`, len(buf), base64.StdEncoding.EncodeToString(buf))

	path := filepath.Join(t.TempDir(), "tri.gltf")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGLTF(t *testing.T) {
	mesh, err := LoadGLTF(writeTriangleGLTF(t))
	if err != nil {
		t.Fatal(err)
	}
	if mesh.Name != "tri.gltf" || mesh.NumVerts() != 3 || mesh.NumFaces() != 1 {
		t.Fatalf("mesh %q has %d verts and %d faces", mesh.Name, mesh.NumVerts(), mesh.NumFaces())
	}
	if got := mesh.Position(0, 1); got != math3d.V3(1, 0, 0) {
		t.Errorf("Position(0, 1) = %v", got)
	}
	if c := mesh.Corner(0, 0); c.UV != -1 {
		t.Errorf("UV index = %d, want -1 without TEXCOORD_0", c.UV)
	}
	// Counter-clockwise winding is kept, so the computed normal faces +Z
	if got := mesh.Normal(mesh.Corner(0, 2).Normal); !approxVec3(got, math3d.V3(0, 0, 1)) {
		t.Errorf("computed normal = %v", got)
	}
	if b := mesh.Bounds(); b.Max != math3d.V3(1, 1, 0) {
		t.Errorf("Bounds().Max = %v", b.Max)
	}
}

func TestLoadGLTFInvalidPath(t *testing.T) {
	if _, err := LoadGLTF("/nonexistent/path.glb"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadGLTFTextureMissing(t *testing.T) {
	if _, err := LoadGLTFTexture(writeTriangleGLTF(t)); !errors.Is(err, ErrNoTexture) {
		t.Errorf("err = %v, want ErrNoTexture", err)
	}
}

// writeImageGLB writes a GLB whose only image is data, stored in a buffer
// view of the binary chunk.
func writeImageGLB(t *testing.T, data []byte) string {
	t.Helper()
	doc := &gltf.Document{
		Asset:       gltf.Asset{Version: "2.0"},
		Buffers:     []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{{Buffer: 0, ByteLength: len(data)}},
		Images:      []*gltf.Image{{MimeType: "image/png", BufferView: gltf.Index(0)}},
	}
	path := filepath.Join(t.TempDir(), "tex.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGLTFTextureEmbedded(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range 4 {
		img.SetRGBA(i%2, i/2, green)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	tex, err := LoadGLTFTexture(writeImageGLB(t, buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got := tex.Sample(0.5, 0.5); got != green {
		t.Errorf("texel = %v, want green", got)
	}
}

func TestLoadGLTFTextureDecodeError(t *testing.T) {
	_, err := LoadGLTFTexture(writeImageGLB(t, []byte("\x89PNG\r\n\x1a\ntruncated")))
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if errors.Is(err, ErrNoTexture) {
		t.Errorf("err = %v, a broken image is not a missing one", err)
	}
}

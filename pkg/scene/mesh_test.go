package scene

import (
	"math"
	"testing"

	"github.com/taigrr/penumbra/pkg/math3d"
)

func approxVec3(a, b math3d.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

// pyramid returns a square-based pyramid with the apex on +Y.
func pyramid() *Mesh {
	m := NewMesh("pyramid")
	m.Positions = []math3d.Vec3{
		math3d.V3(-1, 0, -1), math3d.V3(1, 0, -1), math3d.V3(1, 0, 1), math3d.V3(-1, 0, 1),
		math3d.V3(0, 1, 0),
	}
	m.AddTriangle(3, 2, 4)
	m.AddTriangle(2, 1, 4)
	m.AddTriangle(1, 0, 4)
	m.AddTriangle(0, 3, 4)
	for i := range m.Faces {
		for j := range 3 {
			m.Faces[i][j].UV = -1
			m.Faces[i][j].Normal = -1
		}
	}
	m.CalculateBounds()
	return m
}

func TestMeshSmoothNormals(t *testing.T) {
	m := pyramid()
	m.CalculateSmoothNormals()

	if len(m.Normals) != m.NumVerts() {
		t.Fatalf("len(Normals) = %d, want %d", len(m.Normals), m.NumVerts())
	}
	// Symmetric sides average to straight up at the apex
	if got := m.Normal(m.Corner(0, 2).Normal); !approxVec3(got, math3d.Up()) {
		t.Errorf("apex normal = %v, want +Y", got)
	}
	for i := range m.NumFaces() {
		for j := range 3 {
			n := m.Normal(m.Corner(i, j).Normal)
			if math.Abs(n.Len()-1) > 1e-9 {
				t.Errorf("face %d corner %d normal %v is not unit", i, j, n)
			}
		}
	}
}

func TestMeshSmoothNormalsKeepsExisting(t *testing.T) {
	m := pyramid()
	m.Normals = []math3d.Vec3{math3d.V3(1, 0, 0)}
	m.Faces[0][0].Normal = 0
	m.CalculateSmoothNormals()

	if got := m.Corner(0, 0).Normal; got != 0 {
		t.Errorf("existing normal index changed to %d", got)
	}
	if got := m.Corner(0, 1).Normal; got != 1+m.Corner(0, 1).Vert {
		t.Errorf("computed normal index = %d", got)
	}

	before := len(m.Normals)
	m.CalculateSmoothNormals()
	if len(m.Normals) != before {
		t.Error("second call appended normals")
	}
}

func TestMeshFaceNormal(t *testing.T) {
	m := NewMesh("tri")
	m.Positions = []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(2, 0, 0), math3d.V3(0, 2, 0)}
	m.AddTriangle(0, 1, 2)
	if got := m.FaceNormal(0); !approxVec3(got, math3d.V3(0, 0, 1)) {
		t.Errorf("FaceNormal = %v, want +Z for counter-clockwise winding", got)
	}
	if got := m.Position(0, 1); got != math3d.V3(2, 0, 0) {
		t.Errorf("Position(0, 1) = %v", got)
	}
}

func TestMeshMissingAttributes(t *testing.T) {
	m := pyramid()
	if got := m.UV(-1); got != (math3d.Vec2{}) {
		t.Errorf("UV(-1) = %v", got)
	}
	if got := m.Normal(7); got != math3d.Zero3() {
		t.Errorf("Normal(7) = %v", got)
	}
}

func TestMeshClone(t *testing.T) {
	m := pyramid()
	clone := m.Clone()

	clone.Positions[0] = math3d.V3(9, 9, 9)
	clone.Faces[0][0].Vert = 4
	if m.Positions[0] == clone.Positions[0] || m.Faces[0][0].Vert == 4 {
		t.Error("clone shares storage with the original")
	}
	if clone.Bounds() != m.Bounds() {
		t.Errorf("clone bounds = %+v, want %+v", clone.Bounds(), m.Bounds())
	}
}

func TestModelWorldBounds(t *testing.T) {
	m := NewModel(pyramid(), nil)
	m.Transform = math3d.Translate(math3d.V3(10, 0, 0)).Mul(math3d.ScaleUniform(2))

	b := m.WorldBounds()
	if !approxVec3(b.Min, math3d.V3(8, 0, -2)) || !approxVec3(b.Max, math3d.V3(12, 2, 2)) {
		t.Errorf("WorldBounds() = %+v", b)
	}

	other := NewModel(pyramid(), nil)
	all := SceneBounds([]*Model{m, other})
	if !approxVec3(all.Min, math3d.V3(-1, 0, -2)) || !approxVec3(all.Max, math3d.V3(12, 2, 2)) {
		t.Errorf("SceneBounds() = %+v", all)
	}
	if !SceneBounds(nil).IsEmpty() {
		t.Error("SceneBounds(nil) is not empty")
	}
}

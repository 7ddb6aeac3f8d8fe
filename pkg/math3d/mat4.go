package math3d

import "math"

// Mat4 is a 4x4 matrix stored in column-major order.
// Element access is always (row, col) through Get and Set.
//
// Memory layout (indices):
// | 0  4  8  12 |
// | 1  5  9  13 |
// | 2  6  10 14 |
// | 3  7  11 15 |
//
// For a transform matrix:
// | Xx Yx Zx Tx |   X,Y,Z = basis vectors (rotation/scale)
// | Xy Yy Zy Ty |   T = translation
// | Xz Yz Zz Tz |
// | 0  0  0  1  |
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		v.X, v.Y, v.Z, 1,
	}
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// ScaleUniform creates a uniform scaling matrix.
func ScaleUniform(s float64) Mat4 {
	return Scale(V3(s, s, s))
}

// RotateX creates a rotation matrix around the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY creates a rotation matrix around the Y axis.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ creates a rotation matrix around the Z axis.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Rotate creates a rotation matrix around an arbitrary axis.
func Rotate(axis Vec3, angle float64) Mat4 {
	axis = axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	return Mat4{
		t*x*x + c, t*x*y + s*z, t*x*z - s*y, 0,
		t*x*y - s*z, t*y*y + c, t*y*z + s*x, 0,
		t*x*z + s*y, t*y*z - s*x, t*z*z + c, 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies two matrices: a * b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[row+k*4] * b[k+col*4]
			}
			m[row+col*4] = sum
		}
	}
	return m
}

// MulVec3 transforms a Vec3 as a point (w=1).
func (m Mat4) MulVec3(v Vec3) Vec3 {
	w := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	if w == 0 {
		w = 1
	}
	return Vec3{
		(m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]) / w,
		(m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]) / w,
		(m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]) / w,
	}
}

// MulVec3Dir transforms a Vec3 as a direction (w=0, no translation).
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// MulVec4 transforms a Vec4.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4{
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
		m[3], m[7], m[11], m[15],
	}
}

// Minor returns the 3x3 matrix left after dropping row and col.
func (m Mat4) Minor(row, col int) Mat3 {
	var out Mat3
	for r, rr := 0, 0; r < 4; r++ {
		if r == row {
			continue
		}
		for c, cc := 0, 0; c < 4; c++ {
			if c == col {
				continue
			}
			out.Set(rr, cc, m.Get(r, c))
			cc++
		}
		rr++
	}
	return out
}

// Cofactor returns the signed determinant of the minor at (row, col).
func (m Mat4) Cofactor(row, col int) float64 {
	return sign(row, col) * m.Minor(row, col).Determinant()
}

// Determinant returns the determinant by Laplace expansion along row 0.
func (m Mat4) Determinant() float64 {
	var det float64
	for c := range 4 {
		det += m.Get(0, c) * m.Cofactor(0, c)
	}
	return det
}

// CofactorMatrix returns the matrix of cofactors, the transpose of the
// adjugate.
func (m Mat4) CofactorMatrix() Mat4 {
	var cof Mat4
	for r := range 4 {
		for c := range 4 {
			cof.Set(r, c, m.Cofactor(r, c))
		}
	}
	return cof
}

// InverseTranspose returns the transpose of the inverse. The divisor is the
// dot product of row 0 with its cofactors, which is the determinant.
func (m Mat4) InverseTranspose() (Mat4, error) {
	cof := m.CofactorMatrix()
	det := cof.Row(0).Dot(m.Row(0))
	var rows, cols float64 = 1, 1
	for i := range 4 {
		rows *= m.Row(i).Len()
		cols *= m.Column(i).Len()
	}
	if nearSingular(det, rows, cols) {
		return Mat4{}, ErrSingular
	}
	for i := range cof {
		cof[i] /= det
	}
	return cof, nil
}

// Inverse returns the inverse of the matrix.
// Returns ErrSingular if the determinant is negligible next to the size of
// the matrix; m is never modified.
func (m Mat4) Inverse() (Mat4, error) {
	it, err := m.InverseTranspose()
	if err != nil {
		return Mat4{}, err
	}
	return it.Transpose(), nil
}

// Get returns the element at (row, col).
func (m Mat4) Get(row, col int) float64 {
	return m[row+col*4]
}

// Set sets the element at (row, col).
func (m *Mat4) Set(row, col int, val float64) {
	m[row+col*4] = val
}

// Translation extracts the translation component.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Row returns row r.
func (m Mat4) Row(r int) Vec4 {
	return Vec4{m[r], m[r+4], m[r+8], m[r+12]}
}

// SetRow replaces row r.
func (m *Mat4) SetRow(r int, v Vec4) {
	m[r], m[r+4], m[r+8], m[r+12] = v.X, v.Y, v.Z, v.W
}

// Column returns column c.
func (m Mat4) Column(c int) Vec4 {
	return Vec4{m[c*4], m[c*4+1], m[c*4+2], m[c*4+3]}
}

// SetColumn replaces column c.
func (m *Mat4) SetColumn(c int, v Vec4) {
	m[c*4], m[c*4+1], m[c*4+2], m[c*4+3] = v.X, v.Y, v.Z, v.W
}

// Upper3 returns the upper-left 3x3 block.
func (m Mat4) Upper3() Mat3 {
	var out Mat3
	for r := range 3 {
		for c := range 3 {
			out.Set(r, c, m.Get(r, c))
		}
	}
	return out
}

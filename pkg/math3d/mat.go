package math3d

import "math"

// Mat2 is a 2x2 matrix stored in column-major order.
type Mat2 [4]float64

// Get returns the element at (row, col).
func (m Mat2) Get(row, col int) float64 {
	return m[row+col*2]
}

// Set sets the element at (row, col).
func (m *Mat2) Set(row, col int, val float64) {
	m[row+col*2] = val
}

// Minor returns the 1x1 determinant left after dropping row and col.
func (m Mat2) Minor(row, col int) float64 {
	return m.Get(1-row, 1-col)
}

// Cofactor returns the signed minor at (row, col).
func (m Mat2) Cofactor(row, col int) float64 {
	return sign(row, col) * m.Minor(row, col)
}

// Determinant expands along row 0.
func (m Mat2) Determinant() float64 {
	var det float64
	for c := range 2 {
		det += m.Get(0, c) * m.Cofactor(0, c)
	}
	return det
}

// Mat3 is a 3x3 matrix stored in column-major order.
type Mat3 [9]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Get returns the element at (row, col).
func (m Mat3) Get(row, col int) float64 {
	return m[row+col*3]
}

// Set sets the element at (row, col).
func (m *Mat3) Set(row, col int, val float64) {
	m[row+col*3] = val
}

// Row returns row r as a vector.
func (m Mat3) Row(r int) Vec3 {
	return Vec3{m.Get(r, 0), m.Get(r, 1), m.Get(r, 2)}
}

// SetRow replaces row r.
func (m *Mat3) SetRow(r int, v Vec3) {
	m.Set(r, 0, v.X)
	m.Set(r, 1, v.Y)
	m.Set(r, 2, v.Z)
}

// Column returns column c as a vector.
func (m Mat3) Column(c int) Vec3 {
	return Vec3{m.Get(0, c), m.Get(1, c), m.Get(2, c)}
}

// SetColumn replaces column c.
func (m *Mat3) SetColumn(c int, v Vec3) {
	m.Set(0, c, v.X)
	m.Set(1, c, v.Y)
	m.Set(2, c, v.Z)
}

// Mul multiplies two matrices: a * b.
func (a Mat3) Mul(b Mat3) Mat3 {
	var m Mat3
	for col := range 3 {
		for row := range 3 {
			var sum float64
			for k := range 3 {
				sum += a.Get(row, k) * b.Get(k, col)
			}
			m.Set(row, col, sum)
		}
	}
	return m
}

// MulVec3 transforms v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m.Row(0).Dot(v),
		m.Row(1).Dot(v),
		m.Row(2).Dot(v),
	}
}

// Transpose returns the transposed matrix.
func (m Mat3) Transpose() Mat3 {
	var t Mat3
	for r := range 3 {
		for c := range 3 {
			t.Set(c, r, m.Get(r, c))
		}
	}
	return t
}

// Minor returns the 2x2 matrix left after dropping row and col.
func (m Mat3) Minor(row, col int) Mat2 {
	var out Mat2
	for r, rr := 0, 0; r < 3; r++ {
		if r == row {
			continue
		}
		for c, cc := 0, 0; c < 3; c++ {
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
func (m Mat3) Cofactor(row, col int) float64 {
	return sign(row, col) * m.Minor(row, col).Determinant()
}

// Determinant expands along row 0.
func (m Mat3) Determinant() float64 {
	var det float64
	for c := range 3 {
		det += m.Get(0, c) * m.Cofactor(0, c)
	}
	return det
}

// CofactorMatrix returns the matrix of cofactors, the transpose of the
// adjugate.
func (m Mat3) CofactorMatrix() Mat3 {
	var cof Mat3
	for r := range 3 {
		for c := range 3 {
			cof.Set(r, c, m.Cofactor(r, c))
		}
	}
	return cof
}

// InverseTranspose returns the transpose of the inverse.
func (m Mat3) InverseTranspose() (Mat3, error) {
	cof := m.CofactorMatrix()
	det := cof.Row(0).Dot(m.Row(0))
	var rows, cols float64 = 1, 1
	for i := range 3 {
		rows *= m.Row(i).Len()
		cols *= m.Column(i).Len()
	}
	if nearSingular(det, rows, cols) {
		return Mat3{}, ErrSingular
	}
	for i := range cof {
		cof[i] /= det
	}
	return cof, nil
}

// Inverse returns the inverse of the matrix, or ErrSingular.
func (m Mat3) Inverse() (Mat3, error) {
	it, err := m.InverseTranspose()
	if err != nil {
		return Mat3{}, err
	}
	return it.Transpose(), nil
}

// nearSingular reports whether det is negligible relative to the Hadamard
// bounds given by the products of the row and column norms. The test is
// scale invariant, so a uniformly tiny but well-shaped matrix still inverts.
func nearSingular(det, rows, cols float64) bool {
	return math.Abs(det) <= Epsilon*min(rows, cols)
}

func sign(row, col int) float64 {
	if (row+col)%2 == 0 {
		return 1
	}
	return -1
}

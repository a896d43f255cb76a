// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

// Fixed-size matrix and vector kernel used by the gyro and star tracker estimators.
// Every function here is pure: inputs are passed by value and results are returned.

package goadcs

import (
	"math"
)

type Vec3 [3]float64

type Mat33 [3][3]float64

// Gain matrix: rows 0-2 act on the quaternion, rows 3-5 on the bias
type Mat63 [6][3]float64

// ------------------------------------
// Row-major slice operations
// ------------------------------------

// MatrixMulti computes product = a(nrow x nrc) * b(nrc x ncol), all row-major.
// product must not alias a or b.
func MatrixMulti(product, a, b []float64, nrow, nrc, ncol int) {
	for ir := range nrow {
		for jc := range ncol {
			s := 0.0
			for nk := range nrc {
				s += a[ir*nrc+nk] * b[nk*ncol+jc]
			}
			product[ir*ncol+jc] = s
		}
	}
}

// MatrixTran writes the transpose of m(nrow x ncol) into tran(ncol x nrow)
func MatrixTran(tran, m []float64, nrow, ncol int) {
	for i := range nrow {
		for j := range ncol {
			tran[j*nrow+i] = m[i*ncol+j]
		}
	}
}

func MatrixAdd(sum, a, b []float64, nrow, ncol int) {
	for i := range nrow * ncol {
		sum[i] = a[i] + b[i]
	}
}

func MatrixSub(diff, a, b []float64, nrow, ncol int) {
	for i := range nrow * ncol {
		diff[i] = a[i] - b[i]
	}
}

func MatrixMultiScalar(out, a []float64, s float64, nrow, ncol int) {
	for i := range nrow * ncol {
		out[i] = a[i] * s
	}
}

// ------------------------------------
// Vec3
// ------------------------------------

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a Vec3) Norm() float64 {
	return math.Sqrt(Dot(a, a))
}

func Dot(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Cross returns a x b
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// MaxAbs3 returns the largest absolute component
func MaxAbs3(a Vec3) float64 {
	return math.Max(math.Abs(a[0]), math.Max(math.Abs(a[1]), math.Abs(a[2])))
}

// ------------------------------------
// Mat33
// ------------------------------------

func Eye33() Mat33 {
	return Mat33{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func Mul33(a, b Mat33) Mat33 {
	var c [9]float64
	x, y := a.rows(), b.rows()
	MatrixMulti(c[:], x[:], y[:], 3, 3, 3)
	return fromRows(c)
}

func Mul33V(a Mat33, v Vec3) (r Vec3) {
	x := a.rows()
	MatrixMulti(r[:], x[:], v[:], 3, 3, 1)
	return
}

func Trans33(a Mat33) Mat33 {
	var t [9]float64
	x := a.rows()
	MatrixTran(t[:], x[:], 3, 3)
	return fromRows(t)
}

func Add33(a, b Mat33) Mat33 {
	var c [9]float64
	x, y := a.rows(), b.rows()
	MatrixAdd(c[:], x[:], y[:], 3, 3)
	return fromRows(c)
}

func Scale33(a Mat33, s float64) Mat33 {
	var c [9]float64
	x := a.rows()
	MatrixMultiScalar(c[:], x[:], s, 3, 3)
	return fromRows(c)
}

// Outer returns the 3x3 product a * b^T
func Outer(a, b Vec3) Mat33 {
	var c [9]float64
	MatrixMulti(c[:], a[:], b[:], 3, 1, 3)
	return fromRows(c)
}

// Skew returns the cross-product matrix of w, so that Skew(w)*v = w x v
func Skew(w Vec3) Mat33 {
	return Mat33{
		{0, -w[2], w[1]},
		{w[2], 0, -w[0]},
		{-w[1], w[0], 0},
	}
}

// Inv33 computes the inverse of a 3x3 matrix by cofactors.
// When |det| <= InvEps the matrix is reported singular and src itself is returned
// unchanged together with false. Callers keep running on that passthrough value.
func Inv33(src Mat33) (Mat33, bool) {
	s := src.rows()
	var inv [9]float64
	inv[0] = s[4]*s[8] - s[5]*s[7]
	inv[1] = s[2]*s[7] - s[1]*s[8]
	inv[2] = s[1]*s[5] - s[2]*s[4]
	inv[3] = s[5]*s[6] - s[3]*s[8]
	inv[4] = s[0]*s[8] - s[2]*s[6]
	inv[5] = s[2]*s[3] - s[0]*s[5]
	inv[6] = s[3]*s[7] - s[4]*s[6]
	inv[7] = s[1]*s[6] - s[0]*s[7]
	inv[8] = s[0]*s[4] - s[1]*s[3]

	det := s[0]*inv[0] + s[1]*inv[3] + s[2]*inv[6]
	if math.Abs(det) <= InvEps {
		return src, false
	}
	for i := range 9 {
		inv[i] /= det
	}
	return fromRows(inv), true
}

// Row-major copy of the matrix
func (a Mat33) rows() (r [9]float64) {
	for i := range 9 {
		r[i] = a[i/3][i%3]
	}
	return
}

func fromRows(r [9]float64) (a Mat33) {
	for i := range 9 {
		a[i/3][i%3] = r[i]
	}
	return
}

// Mul63V returns K * v for a 6x3 gain matrix
func Mul63V(k Mat63, v Vec3) (r [6]float64) {
	for i := range 6 {
		r[i] = k[i][0]*v[0] + k[i][1]*v[1] + k[i][2]*v[2]
	}
	return
}

// ------------------------------------
// Scalars
// ------------------------------------

// LimitDouble clamps x into [-lim, lim]
func LimitDouble(x, lim float64) float64 {
	if x > lim {
		return lim
	}
	if x < -lim {
		return -lim
	}
	return x
}

// ModPNHP wraps x periodically into [-halfperiod, halfperiod)
func ModPNHP(x, halfperiod float64) float64 {
	period := 2.0 * halfperiod
	return x - math.Floor((x+halfperiod)/period)*period
}

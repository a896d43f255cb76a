// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package goadcs

import (
	"math"

	"github.com/westphae/quaternion"
)

// Attitude quaternion, scalar first: q = [q0, q1, q2, q3].
// It describes the rotation from the inertial frame to the body frame.
type Quat [4]float64

func QIdentity() Quat {
	return Quat{1, 0, 0, 0}
}

func (q Quat) Norm() float64 {
	return math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
}

// QUnit normalizes q to unit length.
// A zero quaternion has no direction and is replaced by the identity.
func QUnit(q Quat) Quat {
	n := q.Norm()
	if n <= InvEps {
		return QIdentity()
	}
	return Quat{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

// Q2C returns the attitude matrix (body <- inertial) of q
func Q2C(q Quat) Mat33 {
	q0, q1, q2, q3 := q[0], q[1], q[2], q[3]
	return Mat33{
		{q0*q0 + q1*q1 - q2*q2 - q3*q3, 2 * (q1*q2 + q0*q3), 2 * (q1*q3 - q0*q2)},
		{2 * (q1*q2 - q0*q3), q0*q0 - q1*q1 + q2*q2 - q3*q3, 2 * (q2*q3 + q0*q1)},
		{2 * (q1*q3 + q0*q2), 2 * (q2*q3 - q0*q1), q0*q0 - q1*q1 - q2*q2 + q3*q3},
	}
}

// C2Q returns the quaternion of an attitude matrix (Shepperd's method), with q0 >= 0
func C2Q(a Mat33) Quat {
	tr := a[0][0] + a[1][1] + a[2][2]
	var q Quat
	switch {
	case tr >= a[0][0] && tr >= a[1][1] && tr >= a[2][2]:
		q[0] = 0.5 * math.Sqrt(1+tr)
		f := 0.25 / q[0]
		q[1] = (a[1][2] - a[2][1]) * f
		q[2] = (a[2][0] - a[0][2]) * f
		q[3] = (a[0][1] - a[1][0]) * f
	case a[0][0] >= a[1][1] && a[0][0] >= a[2][2]:
		q[1] = 0.5 * math.Sqrt(1+2*a[0][0]-tr)
		f := 0.25 / q[1]
		q[0] = (a[1][2] - a[2][1]) * f
		q[2] = (a[0][1] + a[1][0]) * f
		q[3] = (a[0][2] + a[2][0]) * f
	case a[1][1] >= a[2][2]:
		q[2] = 0.5 * math.Sqrt(1+2*a[1][1]-tr)
		f := 0.25 / q[2]
		q[0] = (a[2][0] - a[0][2]) * f
		q[1] = (a[0][1] + a[1][0]) * f
		q[3] = (a[1][2] + a[2][1]) * f
	default:
		q[3] = 0.5 * math.Sqrt(1+2*a[2][2]-tr)
		f := 0.25 / q[3]
		q[0] = (a[0][1] - a[1][0]) * f
		q[1] = (a[0][2] + a[2][0]) * f
		q[2] = (a[1][2] + a[2][1]) * f
	}
	if q[0] < 0 {
		q = Quat{-q[0], -q[1], -q[2], -q[3]}
	}
	return QUnit(q)
}

// Q2Ksi returns the 4x3 kinematic matrix Xi(q), defined by q (x) [0, v] = Xi(q) v.
// A small body-frame rotation dtheta maps to the increment Xi(q) dtheta/2.
func Q2Ksi(q Quat) [4][3]float64 {
	q0, q1, q2, q3 := q[0], q[1], q[2], q[3]
	return [4][3]float64{
		{-q1, -q2, -q3},
		{q0, -q3, q2},
		{q3, q0, -q1},
		{-q2, q1, q0},
	}
}

// KsiMul returns Xi(q) * v
func KsiMul(q Quat, v Vec3) (d Quat) {
	e := Q2Ksi(q)
	for i := range 4 {
		d[i] = e[i][0]*v[0] + e[i][1]*v[1] + e[i][2]*v[2]
	}
	return
}

// ------------------------------------
// Conversions through the quaternion library
// ------------------------------------

func (q Quat) lib() quaternion.Quaternion {
	return quaternion.Quaternion{W: q[0], X: q[1], Y: q[2], Z: q[3]}
}

func fromLib(p quaternion.Quaternion) Quat {
	return Quat{p.W, p.X, p.Y, p.Z}
}

// QProd returns the Hamilton product a (x) b
func QProd(a, b Quat) Quat {
	return fromLib(quaternion.Prod(a.lib(), b.lib()))
}

func QConj(q Quat) Quat {
	return fromLib(quaternion.Conj(q.lib()))
}

// QRotate rotates v actively by q: q (x) v (x) q*.
// For an inertial->body quaternion this maps body axes into the inertial frame.
func QRotate(q Quat, v Vec3) Vec3 {
	u := quaternion.Unit(q.lib())
	p := quaternion.Prod(u, quaternion.Quaternion{X: v[0], Y: v[1], Z: v[2]}, quaternion.Conj(u))
	return Vec3{p.X, p.Y, p.Z}
}

// QFromRotVec returns the unit quaternion of a rotation vector phi [rad]
func QFromRotVec(phi Vec3) Quat {
	a := phi.Norm()
	if a < 1e-12 {
		return QUnit(Quat{1, phi[0] / 2, phi[1] / 2, phi[2] / 2})
	}
	s := math.Sin(a/2) / a
	return Quat{math.Cos(a / 2), phi[0] * s, phi[1] * s, phi[2] * s}
}

// QError returns the small rotation vector dtheta with b = a (x) [1, dtheta/2]
func QError(a, b Quat) Vec3 {
	d := QProd(QConj(a), b)
	if d[0] < 0 {
		d = Quat{-d[0], -d[1], -d[2], -d[3]}
	}
	return Vec3{2 * d[1], 2 * d[2], 2 * d[3]}
}

// Euler123 returns roll, pitch and yaw [rad] of an attitude matrix in the 1-2-3 sequence
func Euler123(c Mat33) Vec3 {
	return Vec3{
		math.Atan2(-c[2][1], c[2][2]),
		math.Asin(LimitDouble(c[2][0], 1)),
		math.Atan2(-c[1][0], c[0][0]),
	}
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

// Implements the star tracker / gyro correction filter: time delay compensation,
// innovation from the cross product of measured and installed tracker axes,
// and the fixed gain update of the quaternion and the gyro bias.

package goadcs

import (
	"math"
)

// StsCompensate returns the time delay compensation of one tracker axis:
// (w x iv) * dt, with w the body rate [rad/s], iv the install axis and dt the
// time from tracker exposure to the current cycle [s]
func StsCompensate(w Vec3, iv Vec3, dt float64) Vec3 {
	return Mul33V(Skew(w), iv).Scale(dt)
}

// StsCompensateTriad fills the Delta rows of a triad from its calibrated axes
func StsCompensateTriad(t StarTrackerTriad, w Vec3, dt float64) StarTrackerTriad {
	for i := range 3 {
		t.Delta[i] = StsCompensate(w, t.Calibrated[i], dt)
	}
	return t
}

// StsResidual returns the unlimited innovation of one tracker against the estimate q.
// Each measured axis is predicted in the body frame and crossed with its nominal
// install axis; the three cross products are summed and halved.
// gamma is the aberration correction in the inertial frame.
func StsResidual(q Quat, t StarTrackerTriad, gamma Vec3) Vec3 {
	cq := Q2C(q)

	// q2dcm(q) * gamma
	cg := Mul33V(cq, gamma)

	// X axis: measurement minus Z X^t q2dcm(q) gamma
	a := Mul33V(cq, t.Measured[0])
	a = a.Sub(Mul33V(Outer(t.Calibrated[2], t.Calibrated[0]), cg))
	a = a.Add(t.Delta[0])
	dx := Cross(t.Nominal[0], a)

	// Y axis: measurement minus Z Y^t q2dcm(q) gamma
	a = Mul33V(cq, t.Measured[1])
	a = a.Sub(Mul33V(Outer(t.Calibrated[2], t.Calibrated[1]), cg))
	a = a.Add(t.Delta[1])
	dy := Cross(t.Nominal[1], a)

	// Z axis: aberration added to the optical axis
	a = Mul33V(cq, Vec3(t.Measured[2]).Add(gamma))
	a = a.Add(t.Delta[2])
	dz := Cross(t.Nominal[2], a)

	return dx.Add(dy).Add(dz).Scale(0.5)
}

// LimitInnovation scales v down so that its largest absolute component equals lim.
// The direction is kept. limited reports that scaling took place.
func LimitInnovation(v Vec3, lim float64) (_ Vec3, limited bool) {
	k := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[k]) {
			k = i
		}
	}
	m := math.Abs(v[k])
	if m <= lim {
		return v, false
	}
	r := v.Scale(lim / m)
	for i := range 3 {
		r[i] = LimitDouble(r[i], lim)
	}
	r[k] = math.Copysign(lim, v[k])
	return r, true
}

// StsModify returns the limited innovation of one tracker
func StsModify(q Quat, t StarTrackerTriad, gamma Vec3, lim float64) (Vec3, bool) {
	return LimitInnovation(StsResidual(q, t, gamma), lim)
}

// StsModifyDual returns the limited innovation of a tracker pair,
// the mean of both residuals
func StsModifyDual(q Quat, t1, t2 StarTrackerTriad, g1, g2 Vec3, lim float64) (Vec3, bool) {
	r := StsResidual(q, t1, g1).Add(StsResidual(q, t2, g2)).Scale(0.5)
	return LimitInnovation(r, lim)
}

// StsFilter applies the gain matrix K to the innovation dz.
// Rows 0-2 of K dz correct the quaternion through Xi(q), after which q is
// normalized. Rows 3-5 are added to the bias (or rate), each component limited to +-blim.
func StsFilter(q Quat, bias Vec3, dz Vec3, K Mat63, blim float64) (Quat, Vec3) {
	qb6 := Mul63V(K, dz)

	dq := KsiMul(q, Vec3{qb6[0], qb6[1], qb6[2]})
	for i := range 4 {
		q[i] += dq[i]
	}
	q = QUnit(q)

	for i := range 3 {
		bias[i] = LimitDouble(bias[i]+qb6[i+3], blim)
	}
	return q, bias
}

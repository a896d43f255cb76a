// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package goadcs

import (
	"math"

	"github.com/golang/geo/r3"
)

// StarTrackerTriad holds the axis geometry of one star tracker.
// Row i of each matrix is the X, Y or Z axis of the tracker.
type StarTrackerTriad struct {
	Nominal    Mat33 // Nominal install axes in the body frame
	Calibrated Mat33 // Install axes after on-orbit calibration (defaults to Nominal)
	Measured   Mat33 // Measured axes in the inertial frame
	Delta      Mat33 // Time delay compensation of each measured axis
}

// NewStarTrackerTriad returns a triad whose calibrated axes equal the nominal ones
func NewStarTrackerTriad(nominal Mat33) StarTrackerTriad {
	return StarTrackerTriad{
		Nominal:    nominal,
		Calibrated: nominal,
	}
}

// SetCalibration overwrites the calibrated install axes
func (t *StarTrackerTriad) SetCalibration(c Mat33) {
	t.Calibrated = c
}

// ResetCalibration drops the calibration result
func (t *StarTrackerTriad) ResetCalibration() {
	t.Calibrated = t.Nominal
}

// CalibrateSmallAngle rotates the nominal axes by the misalignment angles dalpha [rad].
// Each angle is limited to +-lim before use.
func (t *StarTrackerTriad) CalibrateSmallAngle(dalpha Vec3, lim float64) {
	var a Vec3
	for i := range 3 {
		a[i] = LimitDouble(dalpha[i], lim)
	}
	r := RotVecToMat(a)
	var c Mat33
	for i := range 3 {
		c[i] = Mul33V(r, t.Nominal[i])
	}
	t.Calibrated = c
}

// RotVecToMat returns the active rotation matrix of the rotation vector phi (Rodrigues)
func RotVecToMat(phi Vec3) Mat33 {
	a := phi.Norm()
	if a < 1e-12 {
		return Add33(Eye33(), Skew(phi))
	}
	k := Skew(phi.Scale(1 / a))
	return Add33(Add33(Eye33(), Scale33(k, math.Sin(a))), Scale33(Mul33(k, k), 1-math.Cos(a)))
}

// MeasuredAxes returns the tracker X, Y and Z axes in the inertial frame from the
// tracker's inertial->sensor quaternion qm
func MeasuredAxes(qm Quat) (m Mat33) {
	e := Eye33()
	for i := range 3 {
		m[i] = QRotate(qm, e[i])
	}
	return
}

// AberrationGamma returns the aberration correction of a tracker moving with
// velocity v [km/s] in the inertial frame
func AberrationGamma(v Vec3) Vec3 {
	return v.Scale(1000.0 / C)
}

// OpticalAxisError returns the difference [arcsec] between the measured angle of
// two trackers' optical axes and their nominal install angle
func OpticalAxisError(a, b StarTrackerTriad) float64 {
	ma := r3.Vector{X: a.Measured[2][0], Y: a.Measured[2][1], Z: a.Measured[2][2]}
	mb := r3.Vector{X: b.Measured[2][0], Y: b.Measured[2][1], Z: b.Measured[2][2]}
	na := r3.Vector{X: a.Nominal[2][0], Y: a.Nominal[2][1], Z: a.Nominal[2][2]}
	nb := r3.Vector{X: b.Nominal[2][0], Y: b.Nominal[2][1], Z: b.Nominal[2][2]}
	d := ma.Angle(mb).Radians() - na.Angle(nb).Radians()
	return d / PI * 180.0 * 3600.0
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package goadcs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SolvePinv builds the least squares operator of the measurement equation y = R x
// - pinv = (R^t R)^-1 R^t
// - Return (R^t R)^-1 as cov, the unscaled error covariance of x
//
// The 3x3 inverse goes through Inv33, so a singular geometry does not fail:
// (R^t R) itself is used in place of its inverse and ok is false.
func SolvePinv(R mat.Matrix) (pinv *mat.Dense, cov Mat33, ok bool, err error) {

	_, m := R.Dims()
	if m != 3 {
		return nil, cov, false, fmt.Errorf("invalid matrix size. R has %d columns, want 3", m)
	}

	// A (R^t R)
	var A mat.Dense
	A.Mul(R.T(), R)

	var a Mat33
	for i := range 3 {
		for j := range 3 {
			a[i][j] = A.At(i, j)
		}
	}
	cov, ok = Inv33(a)

	// (R^t R)^-1 R^t
	c := mat.NewDense(3, 3, nil)
	for i := range 3 {
		for j := range 3 {
			c.Set(i, j, cov[i][j])
		}
	}
	pinv = new(mat.Dense)
	pinv.Mul(c, R.T())

	if DBG_ >= 4 {
		PrintA("--- R^t R ---\n")
		PrintMat(&A)
		PrintA("--- pinv ---\n")
		PrintMat(pinv)
	}
	return pinv, cov, ok, nil
}

// GeometryDop returns sqrt(trace(cov)), the rate dilution of the selected geometry
func GeometryDop(cov Mat33) float64 {
	return math.Sqrt(cov[0][0] + cov[1][1] + cov[2][2])
}

// GeometryCond returns the 2-norm condition number of R^t R (+Inf when singular)
func GeometryCond(R mat.Matrix) float64 {
	var A mat.Dense
	A.Mul(R.T(), R)
	return mat.Cond(&A, 2)
}

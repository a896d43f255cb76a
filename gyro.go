// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

// Implements the redundant gyro rate estimator: outlier rejection, channel selection,
// least squares rate calculation and angle integration.

package goadcs

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// GyroChannel holds the carried state of one analog gyro channel
type GyroChannel struct {
	Rate    float64 // Rate of this cycle [deg/s], replaced by Prev while outlying
	Prev    float64 // Last accepted rate [deg/s]
	Count   int     // Consecutive outlier counter (0 when the last value was accepted)
	Healthy bool    // Hardware health flag
}

// GyroChannelSet is the ordered set of gyro channels of one cabin
type GyroChannelSet struct {
	Ch [MaxGyros]GyroChannel
	N  int // Number of channels fitted (3..MaxGyros)
}

// GyroSelection holds the channels entering the rate equation and the cached
// least squares operator. Rs is valid only while Mask equals CalcMask.
type GyroSelection struct {
	Mask       uint16                   // Bitmask of healthy channels of this cycle
	CalcMask   uint16                   // Bitmask the cached Rs was computed for
	Idx        [MaxGyros]int            // Healthy channel indices, ascending
	Join       int                      // Number of channels used (<= MaxUsedGyros after CalculateGyroRs)
	Rs         [3][MaxUsedGyros]float64 // Cached (R^t R)^-1 R^t
	Invertible bool                     // False when R^t R was singular
	Gdop       float64                  // Rate dilution of the geometry
	Cond       float64                  // Condition number of R^t R
	Recomputes int                      // Number of times Rs has been rebuilt
}

// Selected channel indices
func (s *GyroSelection) Selected() []int {
	return slices.Clone(s.Idx[:s.Join])
}

// CountsToRate converts a raw analog count to a rate: (raw & mask - offset) * scale
func CountsToRate(raw uint16, mask uint16, offset int, scale float64) float64 {
	return float64(int(raw&mask)-offset) * scale
}

// GyroPick rejects single-cycle outliers on every channel.
// A jump larger than thres from the last accepted value is replaced by that value
// for up to retry-1 consecutive cycles; the retry-th consecutive jump
// is accepted as a genuine change.
func GyroPick(set GyroChannelSet, thres float64, retry int) GyroChannelSet {
	for i := range set.N {
		ch := &set.Ch[i]
		d := ch.Rate - ch.Prev
		if d < 0 {
			d = -d
		}
		if d > thres {
			ch.Count++
			if ch.Count < retry {
				ch.Rate = ch.Prev
			} else {
				ch.Prev = ch.Rate
				ch.Count = 0
			}
		} else {
			ch.Prev = ch.Rate
			ch.Count = 0
		}
	}
	return set
}

// GyroChoose lists the healthy channels and builds their bitmask.
// changed reports that the mask differs from the one the cached operator was built for.
func GyroChoose(set GyroChannelSet, sel GyroSelection) (_ GyroSelection, changed bool) {
	sel.Join = 0
	sel.Mask = 0
	for i := range set.N {
		if set.Ch[i].Healthy {
			sel.Idx[sel.Join] = i
			sel.Join++
			sel.Mask |= 1 << i
		}
	}
	return sel, sel.Mask != sel.CalcMask
}

// CalculateGyroRs rebuilds the least squares operator when the channel mask changed.
// The first MaxUsedGyros selected channels form the design matrix; unused rows stay zero.
func CalculateGyroRs(sel GyroSelection, install [MaxGyros]Vec3) GyroSelection {
	sel.Join = min(sel.Join, MaxUsedGyros)

	if sel.Mask == sel.CalcMask {
		return sel
	}

	sel.Recomputes++
	sel.Rs = [3][MaxUsedGyros]float64{}
	sel.Invertible = false
	sel.Gdop = 0
	sel.Cond = 0

	if sel.Join >= MinGyros {
		R := mat.NewDense(MaxUsedGyros, 3, nil)
		for j := range sel.Join {
			v := install[sel.Idx[j]]
			R.SetRow(j, v[:])
		}
		pinv, cov, ok, err := SolvePinv(R)
		if err != nil {
			PrintE(err)
		} else {
			for i := range 3 {
				for j := range MaxUsedGyros {
					sel.Rs[i][j] = pinv.At(i, j)
				}
			}
			sel.Invertible = ok
			if ok {
				sel.Gdop = GeometryDop(cov)
			}
			sel.Cond = GeometryCond(R)
		}
		PrintD(2, "\tgyro set changed: mask=%03x, join=%d, invertible=%t, gdop=%.4f\n", sel.Mask, sel.Join, sel.Invertible, sel.Gdop)
	}

	sel.CalcMask = sel.Mask
	return sel
}

// CalculateGyroDg returns the body rate [deg/s] from the selected channels.
// With fewer than MinGyros channels the rate is the zero vector and valid is false.
// valid is also false when the cached operator came from a singular geometry.
func CalculateGyroDg(set GyroChannelSet, sel GyroSelection) (w Vec3, valid bool) {
	if sel.Join < MinGyros {
		return Vec3{}, false
	}
	var wa [MaxUsedGyros]float64
	for j := range sel.Join {
		wa[j] = set.Ch[sel.Idx[j]].Rate
	}
	for i := range 3 {
		for j := range MaxUsedGyros {
			w[i] += sel.Rs[i][j] * wa[j]
		}
	}
	return w, sel.Invertible
}

// IntegrateAngle returns prev + rate * period wrapped into [-180, 180) [deg]
func IntegrateAngle(prev, rate, period float64) float64 {
	return ModPNHP(prev+rate*period, AngleHalfSpan)
}

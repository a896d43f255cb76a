// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package goadcs

import (
	"math"
	"time"
)

// On-board time: coarse seconds since the on-board epoch plus fraction of a second
type OBTime struct {
	Sec  int64
	Frac float64 // [0, 1)
}

// Epoch of the on-board clock
var OBEpoch = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

func NewOBTime(dt time.Time) OBTime {
	d := dt.Sub(OBEpoch)
	s := int64(math.Floor(d.Seconds()))
	return OBTime{
		Sec:  s,
		Frac: d.Seconds() - float64(s),
	}
}

// OBTimeFromSeconds builds an on-board time from elapsed seconds since the epoch
func OBTimeFromSeconds(sec float64) OBTime {
	s := math.Floor(sec)
	return OBTime{Sec: int64(s), Frac: sec - s}
}

func (p OBTime) ToTime() time.Time {
	i := time.Duration(p.Sec) * time.Second
	n := time.Duration(math.Round(p.Frac * 1e9))
	return OBEpoch.Add(i + n)
}

// Seconds returns the elapsed seconds since the epoch
func (p OBTime) Seconds() float64 {
	return float64(p.Sec) + p.Frac
}

// Sub returns p - b [s]
func (p OBTime) Sub(b OBTime) float64 {
	return float64(p.Sec-b.Sec) + (p.Frac - b.Frac)
}

// Add returns p + sec
func (p OBTime) Add(sec float64) OBTime {
	f := p.Frac + sec
	c := math.Floor(f)
	return OBTime{Sec: p.Sec + int64(c), Frac: f - c}
}

func (p OBTime) Less(b OBTime) bool {
	if p.Sec == b.Sec {
		return p.Frac < b.Frac
	}
	return p.Sec < b.Sec
}

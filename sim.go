// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

// Sensor simulation for the host harness and the tests: a truth attitude turning
// at a constant body rate, seen by biased gyros and delayed star trackers.

package goadcs

import (
	"math"
)

// Scenario describes the truth and the sensor behavior of one cabin
type Scenario struct {
	Q0       Quat    // Truth attitude at cycle 0
	Rate     Vec3    // Truth body rate [rad/s]
	GyroBias Vec3    // Gyro bias in the body frame [rad/s]
	Delay    float64 // Star tracker exposure to cycle delay [s]
	Velocity Vec3    // Spacecraft velocity [km/s]
	Period   float64 // Control cycle [s]
	Start    OBTime
	Mode     WorkMode
	ModeFlip uint32 // Bits flipped in the first stored copy of the mode word

	Install       []Vec3
	Counts        GyroCounts
	GyroHealthy   [MaxGyros]bool
	Trackers      []Mat33
	TrackerUsable []bool
	SunVisible    bool
}

// NewScenario creates a scenario for the sensors of a cabin configuration.
// All sensors are healthy, the truth is at rest at the identity attitude.
func NewScenario(cfg *CabinConfig) *Scenario {
	s := &Scenario{
		Q0:            QIdentity(),
		Period:        cfg.CyclePeriod,
		Start:         OBTimeFromSeconds(0),
		Mode:          ModeHold,
		Install:       cfg.GyroInstall,
		Counts:        cfg.GyroCounts,
		Trackers:      cfg.Trackers,
		TrackerUsable: make([]bool, len(cfg.Trackers)),
	}
	for i := range cfg.GyroInstall {
		s.GyroHealthy[i] = true
	}
	for i := range s.TrackerUsable {
		s.TrackerUsable[i] = true
	}
	return s
}

// RateToCounts converts a rate [deg/s] to the raw analog count of a channel
func RateToCounts(rate float64, c GyroCounts) uint16 {
	n := int(math.Round(rate/c.Scale)) + c.Offset
	n = max(0, min(n, int(c.Mask)))
	return uint16(n) & c.Mask
}

// Truth returns the truth attitude t seconds after cycle 0
func (s *Scenario) Truth(t float64) Quat {
	return QUnit(QProd(s.Q0, QFromRotVec(s.Rate.Scale(t))))
}

// ModeWords returns the three stored copies of the mode word
func (s *Scenario) ModeWords() [3]uint32 {
	w := s.Mode.Word()
	return [3]uint32{w ^ s.ModeFlip, w, w}
}

// Input returns the sensor data of cycle k
func (s *Scenario) Input(k int) CycleInput {
	t := float64(k) * s.Period
	in := CycleInput{
		Time:        s.Start.Add(t),
		Mode:        s.Mode,
		GyroHealthy: s.GyroHealthy,
	}

	// Gyros measure the truth rate plus bias along their sensing axes
	wm := s.Rate.Add(s.GyroBias)
	for i, v := range s.Install {
		in.GyroRaw[i] = RateToCounts(ToDeg(Dot(v, wm)), s.Counts)
	}

	// The sun sensor reads the roll and pitch of the truth attitude
	if s.SunVisible {
		e := Euler123(Q2C(s.Truth(t)))
		in.Sun = SunInput{Visible: true, Roll: ToDeg(e[0]), Pitch: ToDeg(e[1])}
	}

	// Star trackers see the truth attitude of the exposure time
	te := t - s.Delay
	qb := s.Truth(te)
	for i, m := range s.Trackers {
		in.Trackers = append(in.Trackers, TrackerInput{
			Q:        QProd(qb, C2Q(m)),
			Exposure: s.Start.Add(te),
			Usable:   i < len(s.TrackerUsable) && s.TrackerUsable[i],
			Velocity: s.Velocity,
		})
	}
	return in
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

// One control cycle of a cabin: gyro rate estimation, attitude propagation and
// the star tracker correction.

package goadcs

import (
	"fmt"
)

// TrackerInput is the output of one star tracker for the current cycle
type TrackerInput struct {
	Q        Quat   // Inertial -> tracker quaternion
	Exposure OBTime // Exposure time of the measurement
	Usable   bool   // Tracker reports a valid attitude
	Velocity Vec3   // Velocity of the spacecraft in the inertial frame [km/s]
}

// SunInput is the roll and pitch reading of the digital sun sensor
type SunInput struct {
	Visible bool    // Sun in the field of view
	Roll    float64 // [deg]
	Pitch   float64 // [deg]
}

// CycleInput holds the sensor data of one control cycle
type CycleInput struct {
	Time        OBTime
	Mode        WorkMode
	GyroRaw     [MaxGyros]uint16 // Raw analog counts
	GyroHealthy [MaxGyros]bool
	Trackers    []TrackerInput // Indexed like CabinConfig.Trackers
	Sun         SunInput
}

// CycleOutput holds the estimate of one control cycle
type CycleOutput struct {
	Cabin      string
	Cycle      int
	Time       OBTime
	Q          Quat       // Corrected attitude quaternion
	W          Vec3       // Body rate, bias corrected and limited [rad/s]
	Bias       Vec3       // Gyro bias estimate [rad/s]
	Angle      Vec3       // Integrated gyro angle [deg]
	RollPitch  [2]float64 // Roll and pitch angles [deg], zero outside the sun referenced modes
	Euler      Vec3       // Attitude angles of Q (1-2-3) [deg]
	Innovation Vec3       // Innovation applied by the filter [rad]
	Group      int        // Gain group used, -1 without star tracker correction
	Trackers   [2]int     // Tracker indices used (SingleSTS when unused)
	Join       int        // Number of gyro channels used
	OptAxisErr float64    // Optical axis angle error of a tracker pair [arcsec]

	RateValid   bool // Rate from at least MinGyros channels with a regular geometry
	AttValid    bool // Star tracker correction applied this cycle
	Singular    bool // Gyro geometry was singular
	InnoLimited bool // Innovation was scaled down to the limit
	SunValid    bool // Roll and pitch were reset from the sun sensor

	Telemetry []byte
}

// Cabin owns the carried state of one cabin estimator
type Cabin struct {
	Name string

	sys     *Config
	cfg     *CabinConfig
	install [MaxGyros]Vec3

	Gyros  GyroChannelSet
	Sel    GyroSelection
	Q      Quat
	Bias   Vec3 // [rad/s]
	Angle  Vec3 // [deg]
	Triads []StarTrackerTriad
	Cycle  int

	primed bool
}

// NewCabin creates the estimator of cabin i of the configuration
func NewCabin(sys *Config, i int) (*Cabin, error) {
	if i < 0 || i >= len(sys.Cabins) {
		return nil, fmt.Errorf("cabin index out of range: %d", i)
	}
	cfg := &sys.Cabins[i]
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cabin %s: %w", cfg.Name, err)
	}

	c := &Cabin{
		Name: cfg.Name,
		sys:  sys,
		cfg:  cfg,
		Q:    QUnit(cfg.InitQ),
	}
	copy(c.install[:], cfg.GyroInstall)
	c.Gyros.N = len(cfg.GyroInstall)
	for _, m := range cfg.Trackers {
		c.Triads = append(c.Triads, NewStarTrackerTriad(m))
	}
	return c, nil
}

// Step runs one control cycle
func (c *Cabin) Step(in CycleInput) CycleOutput {
	cfg := c.cfg
	T := cfg.CyclePeriod

	out := CycleOutput{
		Cabin:    c.Name,
		Cycle:    c.Cycle,
		Time:     in.Time,
		Group:    -1,
		Trackers: [2]int{SingleSTS, SingleSTS},
	}
	c.Cycle++

	// Gyro channels
	for i := range c.Gyros.N {
		ch := &c.Gyros.Ch[i]
		ch.Rate = CountsToRate(in.GyroRaw[i], cfg.GyroCounts.Mask, cfg.GyroCounts.Offset, cfg.GyroCounts.Scale)
		ch.Healthy = in.GyroHealthy[i]
		if !c.primed {
			ch.Prev = ch.Rate
		}
	}
	c.primed = true
	c.Gyros = GyroPick(c.Gyros, cfg.Limits.OutlierThres, cfg.Limits.OutlierRetry)

	sel, changed := GyroChoose(c.Gyros, c.Sel)
	PrintAIf(changed && DBG_ >= 1, "%s cycle %d: gyro mask %03x -> %03x\n", c.Name, out.Cycle, c.Sel.CalcMask, sel.Mask)
	c.Sel = CalculateGyroRs(sel, c.install)

	wdg, valid := CalculateGyroDg(c.Gyros, c.Sel)
	out.RateValid = valid
	out.Singular = c.Sel.Join >= MinGyros && !c.Sel.Invertible
	out.Join = c.Sel.Join

	for i := range 3 {
		c.Angle[i] = IntegrateAngle(c.Angle[i], wdg[i], T)
	}

	// While the sun is visible its reading replaces the roll and pitch integrals
	if c.sys.UseSunAngles(in.Mode) {
		if in.Sun.Visible {
			c.Angle[0] = in.Sun.Roll
			c.Angle[1] = in.Sun.Pitch
			out.SunValid = true
		}
		out.RollPitch = [2]float64{c.Angle[0], c.Angle[1]}
	}

	// Body rate: the attitude is held while the rate is unusable
	var w Vec3
	if valid {
		for i := range 3 {
			w[i] = LimitDouble(ToRad(wdg[i])-c.Bias[i], cfg.Limits.Mlfw)
		}
	}

	// Propagation: q += Xi(q) w T/2. The initial attitude belongs to the first cycle.
	if out.Cycle > 0 {
		dq := KsiMul(c.Q, w.Scale(T/2))
		for i := range 4 {
			c.Q[i] += dq[i]
		}
		c.Q = QUnit(c.Q)
	}

	// Star tracker correction
	if cfg.StsCorr {
		c.correct(in, w, &out)
	}

	out.Q = c.Q
	out.W = w
	out.Bias = c.Bias
	out.Angle = c.Angle
	e := Euler123(Q2C(c.Q))
	out.Euler = Vec3{ToDeg(e[0]), ToDeg(e[1]), ToDeg(e[2])}
	out.Telemetry = PackTelemetry(&out)

	if DBG_ >= 3 {
		PrintB(in.Time, "%s cycle %d: q=%v w=%v bias=%v\n", c.Name, out.Cycle, out.Q, out.W, out.Bias)
	}
	return out
}

func (c *Cabin) correct(in CycleInput, w Vec3, out *CycleOutput) {
	cfg := c.cfg

	usable := make([]bool, len(c.Triads))
	for i := range usable {
		usable[i] = i < len(in.Trackers) && in.Trackers[i].Usable
	}
	idx1, idx2, ok := SelectTrackers(usable)
	if !ok {
		return
	}

	group := CS_GetKforSts(idx1, idx2, len(c.Triads))
	t1, g1 := c.prepareTriad(idx1, in, w)

	var dz Vec3
	var limited bool
	if idx2 == SingleSTS {
		dz, limited = StsModify(c.Q, t1, g1, cfg.Limits.LmtInno)
	} else {
		t2, g2 := c.prepareTriad(idx2, in, w)
		dz, limited = StsModifyDual(c.Q, t1, t2, g1, g2, cfg.Limits.LmtInno)
		out.OptAxisErr = OpticalAxisError(t1, t2)
	}
	PrintAIf(limited && DBG_ >= 1, "%s cycle %d: innovation limited (group %d)\n", c.Name, out.Cycle, group)

	K := cfg.Gains(group, c.sys.UseManeuverGains(in.Mode))
	c.Q, c.Bias = StsFilter(c.Q, c.Bias, dz, K, cfg.Limits.MlfD0)

	out.AttValid = true
	out.Group = group
	out.Trackers = [2]int{idx1, idx2}
	out.Innovation = dz
	out.InnoLimited = limited
}

// prepareTriad loads the measured axes of tracker i and compensates the time
// from exposure to this cycle
func (c *Cabin) prepareTriad(i int, in CycleInput, w Vec3) (StarTrackerTriad, Vec3) {
	ti := in.Trackers[i]
	t := c.Triads[i]
	t.Measured = MeasuredAxes(ti.Q)
	t = StsCompensateTriad(t, w, in.Time.Sub(ti.Exposure))
	c.Triads[i] = t
	return t, AberrationGamma(ti.Velocity)
}

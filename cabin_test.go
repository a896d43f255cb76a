// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package goadcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCabin(t *testing.T, cfg *Config) (*Cabin, *Scenario) {
	t.Helper()
	c, err := NewCabin(cfg, 0)
	require.NoError(t, err)
	return c, NewScenario(&cfg.Cabins[0])
}

func TestNewCabin(t *testing.T) {
	cfg := NewConfig(1)
	_, err := NewCabin(cfg, 1)
	assert.Error(t, err)

	cfg.Cabins[0].GyroInstall = cfg.Cabins[0].GyroInstall[:2]
	_, err = NewCabin(cfg, 0)
	assert.Error(t, err)
}

func TestCabinAtRest(t *testing.T) {
	c, sc := newTestCabin(t, NewConfig(1))

	var out CycleOutput
	for k := range 50 {
		out = c.Step(sc.Input(k))
		require.True(t, out.RateValid, "cycle %d", k)
		require.True(t, out.AttValid, "cycle %d", k)
	}
	assert.Equal(t, 49, out.Cycle)
	assert.Equal(t, CS_GetKforSts(0, 1, 3), out.Group)
	assert.Equal(t, [2]int{0, 1}, out.Trackers)
	assert.Equal(t, MaxUsedGyros, out.Join)
	assert.False(t, out.Singular)
	assert.False(t, out.InnoLimited)
	assertVec(t, Vec3{}, QError(QIdentity(), out.Q), 1e-12)
	assertVec(t, Vec3{}, out.Bias, 1e-15)
	assertVec(t, Vec3{}, out.Angle, 1e-15)
	assert.InDelta(t, 0.0, out.OptAxisErr, 1e-6)
	assert.Len(t, out.Telemetry, TelemetrySize)
}

func TestCabinConvergence(t *testing.T) {
	for name, usable := range map[string][]bool{
		"dual":   {true, true, true},
		"single": {false, false, true},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig(1)
			q0 := QFromRotVec(Vec3{0.5, -0.2, 1.0})
			cfg.Cabins[0].InitQ = QProd(q0, QFromRotVec(Vec3{0.004, -0.003, 0.002}))
			c, sc := newTestCabin(t, cfg)
			sc.Q0 = q0
			sc.Rate = Vec3{ToRad(0.2), ToRad(-0.1), ToRad(0.3)}
			sc.GyroBias = Vec3{3e-5, -2e-5, 1e-5}
			sc.Delay = 0.05
			sc.TrackerUsable = usable

			first := c.Step(sc.Input(0))
			assert.Greater(t, QError(sc.Truth(0), first.Q).Norm(), 1e-3)

			var out CycleOutput
			n := 1500
			for k := 1; k < n; k++ {
				out = c.Step(sc.Input(k))
			}
			tn := float64(n-1) * sc.Period
			assert.Less(t, QError(sc.Truth(tn), out.Q).Norm(), 1e-6)
			assertVec(t, sc.Rate, out.W, 1e-7)
			assertVec(t, sc.GyroBias, out.Bias, 3e-5)
			assert.False(t, out.InnoLimited)
		})
	}
}

func TestCabinSingleTrackerGroup(t *testing.T) {
	c, sc := newTestCabin(t, NewConfig(1))
	sc.TrackerUsable = []bool{false, true, false}
	out := c.Step(sc.Input(0))
	assert.True(t, out.AttValid)
	assert.Equal(t, 1, out.Group)
	assert.Equal(t, [2]int{1, SingleSTS}, out.Trackers)

	sc.TrackerUsable = []bool{false, false, false}
	out = c.Step(sc.Input(1))
	assert.False(t, out.AttValid)
	assert.Equal(t, -1, out.Group)
}

func TestCabinStarCorrectionDisabled(t *testing.T) {
	cfg := NewConfig(1)
	cfg.Cabins[0].StsCorr = false
	cfg.Cabins[0].InitQ = QFromRotVec(Vec3{0.004, 0, 0})
	c, sc := newTestCabin(t, cfg)
	for k := range 20 {
		out := c.Step(sc.Input(k))
		assert.False(t, out.AttValid)
	}
	assertVec(t, Vec3{0.004, 0, 0}, QError(QIdentity(), c.Q), 1e-8)
}

func TestCabinGyroFailure(t *testing.T) {
	c, sc := newTestCabin(t, NewConfig(1))
	sc.Rate = Vec3{ToRad(0.1), 0, 0}
	for k := range 10 {
		c.Step(sc.Input(k))
	}

	for i := range MaxGyros {
		sc.GyroHealthy[i] = i == 3 || i == 7
	}
	before := c.Sel.Recomputes
	out := c.Step(sc.Input(10))
	assert.False(t, out.RateValid)
	assert.Equal(t, 2, out.Join)
	assert.Equal(t, Vec3{}, out.W)
	assert.Equal(t, before+1, c.Sel.Recomputes)

	// Recovery rebuilds the operator once more
	for i := range MaxGyros {
		sc.GyroHealthy[i] = true
	}
	out = c.Step(sc.Input(11))
	assert.True(t, out.RateValid)
	assert.Equal(t, before+2, c.Sel.Recomputes)
}

func TestCabinSingularGeometry(t *testing.T) {
	cfg := NewConfig(1)
	for i := range cfg.Cabins[0].GyroInstall {
		cfg.Cabins[0].GyroInstall[i] = Vec3{0, 0, 1}
	}
	c, sc := newTestCabin(t, cfg)
	out := c.Step(sc.Input(0))
	assert.True(t, out.Singular)
	assert.False(t, out.RateValid)
	assert.Equal(t, Vec3{}, out.W)
}

func TestCabinGyroSpike(t *testing.T) {
	c, sc := newTestCabin(t, NewConfig(1))
	for k := range 5 {
		c.Step(sc.Input(k))
	}
	in := sc.Input(5)
	in.GyroRaw[0] += 200
	out := c.Step(in)
	assert.InDelta(t, 0.0, c.Gyros.Ch[0].Rate, 1e-15)
	assert.Equal(t, 1, c.Gyros.Ch[0].Count)
	assertVec(t, Vec3{}, out.W, 1e-15)
}

func TestCabinManeuverGains(t *testing.T) {
	run := func(mode WorkMode) float64 {
		cfg := NewConfig(1)
		cfg.Cabins[0].KCorr = DefaultGains(3, 0, 0)
		cfg.Cabins[0].InitQ = QFromRotVec(Vec3{0.005, 0, 0})
		c, sc := newTestCabin(t, cfg)
		sc.Mode = mode
		var out CycleOutput
		for k := range 30 {
			out = c.Step(sc.Input(k))
		}
		return QError(QIdentity(), out.Q).Norm()
	}
	assert.InDelta(t, 0.005, run(ModeHold), 1e-8)
	assert.InDelta(t, 0.005, run(ModeDamp), 1e-8)
	assert.Less(t, run(ModeTrack), 2.5e-4)
	assert.Less(t, run(ModeManeuver), 2.5e-4)
}

func TestCabinInnovationLimit(t *testing.T) {
	cfg := NewConfig(1)
	cfg.Cabins[0].InitQ = QFromRotVec(Vec3{0, 0.1, 0})
	c, sc := newTestCabin(t, cfg)
	out := c.Step(sc.Input(0))
	assert.True(t, out.InnoLimited)
	assert.Equal(t, cfg.Cabins[0].Limits.LmtInno, MaxAbs3(out.Innovation))
	assert.Less(t, out.Innovation[1], 0.0)
}

func TestCabinSunAngles(t *testing.T) {
	t.Run("sun reading replaces the roll and pitch integrals", func(t *testing.T) {
		c, sc := newTestCabin(t, NewConfig(1))
		in := sc.Input(0)
		in.Sun = SunInput{Visible: true, Roll: 1.5, Pitch: -0.7}
		out := c.Step(in)
		assert.True(t, out.SunValid)
		assert.Equal(t, [2]float64{1.5, -0.7}, out.RollPitch)
		assert.Equal(t, 1.5, c.Angle[0])
		assert.Equal(t, -0.7, c.Angle[1])

		f, err := UnpackTelemetry(out.Telemetry)
		require.NoError(t, err)
		assert.NotZero(t, f.Flags&TlmSunValid)

		// Without the sun the integrals carry on from the last reading
		out = c.Step(sc.Input(1))
		assert.False(t, out.SunValid)
		assert.InDelta(t, 1.5, out.RollPitch[0], 1e-12)
		assert.InDelta(t, -0.7, out.RollPitch[1], 1e-12)
	})

	t.Run("integrals follow the gyros while the sun is hidden", func(t *testing.T) {
		c, sc := newTestCabin(t, NewConfig(1))
		sc.Rate = Vec3{ToRad(0.1), 0, 0}
		var out CycleOutput
		for k := range 11 {
			out = c.Step(sc.Input(k))
		}
		assert.False(t, out.SunValid)
		assert.InDelta(t, 0.1*11*CyclePeriod, out.RollPitch[0], 5e-3)
		assert.Equal(t, c.Angle[0], out.RollPitch[0])
	})

	t.Run("angles are zero outside the sun referenced modes", func(t *testing.T) {
		c, sc := newTestCabin(t, NewConfig(1))
		sc.Mode = ModeDamp
		in := sc.Input(0)
		in.Mode = ModeDamp
		in.Sun = SunInput{Visible: true, Roll: 1.5, Pitch: -0.7}
		out := c.Step(in)
		assert.False(t, out.SunValid)
		assert.Equal(t, [2]float64{}, out.RollPitch)
		assert.Equal(t, 0.0, c.Angle[0])
	})

	t.Run("sun referenced modes are configurable", func(t *testing.T) {
		cfg := NewConfig(1)
		cfg.SunAngles = [NumWorkModes]bool{}
		c, sc := newTestCabin(t, cfg)
		in := sc.Input(0)
		in.Sun = SunInput{Visible: true, Roll: 1.5, Pitch: -0.7}
		out := c.Step(in)
		assert.False(t, out.SunValid)
		assert.Equal(t, [2]float64{}, out.RollPitch)
	})
}

func TestCabinTrace(t *testing.T) {
	dbg := DBG_
	DBG_ = 3
	defer func() { DBG_ = dbg }()

	c, sc := newTestCabin(t, NewConfig(1))
	assert.NotPanics(t, func() {
		for k := range 2 {
			c.Step(sc.Input(k))
		}
	})
}

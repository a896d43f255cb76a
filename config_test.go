// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package goadcs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(2)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Cabins, 2)
	assert.Equal(t, "cabin1", cfg.Cabins[1].Name)

	c := &cfg.Cabins[0]
	assert.Len(t, c.GyroInstall, MaxGyros)
	assert.Len(t, c.KCorr, NumKGroups(len(DefaultTrackers)))
	assert.Len(t, c.KCorrMnv, NumKGroups(len(DefaultTrackers)))
	for _, v := range c.GyroInstall {
		assert.InDelta(t, 1.0, v.Norm(), 1e-6)
	}

	// Tables are not shared between cabins
	cfg.Cabins[0].GyroInstall[0] = Vec3{}
	cfg.Cabins[0].Trackers[0] = Mat33{}
	assert.Equal(t, DefaultGyroInstall[0], cfg.Cabins[1].GyroInstall[0])
	assert.Equal(t, Eye33(), DefaultTrackers[0])
}

func TestDefaultGains(t *testing.T) {
	ks := DefaultGains(2, 0.1, -0.02)
	require.Len(t, ks, 3)
	for _, k := range ks {
		assert.Equal(t, Mat63{
			{0.1, 0, 0}, {0, 0.1, 0}, {0, 0, 0.1},
			{-0.02, 0, 0}, {0, -0.02, 0}, {0, 0, -0.02},
		}, k)
	}
}

func TestGainSelection(t *testing.T) {
	cfg := NewConfig(1)
	c := &cfg.Cabins[0]
	assert.False(t, cfg.UseManeuverGains(ModeDamp))
	assert.False(t, cfg.UseManeuverGains(ModeHold))
	assert.True(t, cfg.UseManeuverGains(ModeManeuver))
	assert.True(t, cfg.UseManeuverGains(ModeTrack))
	assert.False(t, cfg.UseManeuverGains(WorkMode(9)))
	assert.True(t, cfg.UseSunAngles(ModeHold))
	assert.False(t, cfg.UseSunAngles(ModeManeuver))
	assert.False(t, cfg.UseSunAngles(WorkMode(-1)))
	assert.Equal(t, c.KCorr[4], c.Gains(4, false))
	assert.Equal(t, c.KCorrMnv[4], c.Gains(4, true))
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig(2)
	cfg.Parallel = true
	cfg.Cabins[1].Limits.LmtInno = 0.02
	cfg.Cabins[1].InitQ = QUnit(Quat{0.9, 0.1, -0.3, 0.2})

	var buf bytes.Buffer
	require.NoError(t, WriteConfig(&buf, cfg))

	got, err := LoadConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadConfigDefaults(t *testing.T) {
	src := `
parallel: true
cabins:
  - name: A
    limits:
      lmt_inno: 0.02
      outlier_retry: 3
    sts_corr: false
  - name: B
    cycle_period: 0.32
`
	cfg, err := LoadConfig(strings.NewReader(src))
	require.NoError(t, err)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, NewConfig(1).ManeuverGains, cfg.ManeuverGains)
	require.Len(t, cfg.Cabins, 2)

	a := cfg.Cabins[0]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, 0.02, a.Limits.LmtInno)
	assert.Equal(t, 1.0e-4, a.Limits.MlfD0)
	assert.Equal(t, 3, a.Limits.OutlierRetry)
	assert.Equal(t, OutlierThres, a.Limits.OutlierThres)
	assert.False(t, a.StsCorr)
	assert.Equal(t, CyclePeriod, a.CyclePeriod)

	b := cfg.Cabins[1]
	assert.Equal(t, "B", b.Name)
	assert.Equal(t, 0.32, b.CyclePeriod)
	assert.True(t, b.StsCorr)
	b.CyclePeriod = CyclePeriod
	assert.Equal(t, NewCabinConfig("B"), b)
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Len(t, cfg.Cabins, 1)
	assert.Equal(t, NewConfig(1), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	for name, src := range map[string]string{
		"syntax": "cabins: [",
		"gains for a missing tracker": `
cabins:
  - trackers:
      - [[1, 0, 0], [0, 1, 0], [0, 0, 1]]
`,
		"too few gyros": `
cabins:
  - gyro_install:
      - [1, 0, 0]
      - [0, 1, 0]
`,
		"bad matrix size": `
cabins:
  - trackers:
      - [[1, 0], [0, 1]]
`,
		"negative limit": `
cabins:
  - limits:
      mlfw: -1
`,
	} {
		_, err := LoadConfig(strings.NewReader(src))
		assert.Error(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	cfg := NewConfig(1)
	cfg.Cabins[0].KCorr = cfg.Cabins[0].KCorr[:2]
	cfg.Cabins[0].CyclePeriod = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k_corr")
	assert.Contains(t, err.Error(), "cycle_period")

	cfg = NewConfig(1)
	cfg.Cabins[0].Limits.OutlierRetry = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outlier_retry")

	assert.Error(t, (&Config{}).Validate())
}

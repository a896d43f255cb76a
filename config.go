// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

// Configuration tables of the estimator: install geometry, gain tables and limits.
// The tables are read-only while a cycle runs.

package goadcs

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Config holds the tables of every cabin and the mode dependent gain selection
type Config struct {
	Cabins        []CabinConfig      `yaml:"cabins"`
	ManeuverGains [NumWorkModes]bool `yaml:"maneuver_gains"` // true: the work mode uses the maneuver gain table
	SunAngles     [NumWorkModes]bool `yaml:"sun_angles"`     // true: roll and pitch are referenced to the sun sensor
	Parallel      bool               `yaml:"parallel"`       // Process cabins concurrently
}

// CabinConfig holds the tables of one cabin
type CabinConfig struct {
	Name        string     `yaml:"name"`
	GyroInstall []Vec3     `yaml:"gyro_install"` // Nominal sensing axis of each gyro channel (body frame)
	GyroCounts  GyroCounts `yaml:"gyro_counts"`
	Trackers    []Mat33    `yaml:"trackers"`   // Nominal install axes of each star tracker, rows X/Y/Z (body frame)
	KCorr       []Mat63    `yaml:"k_corr"`     // Gain matrices, normal, one per tracker group
	KCorrMnv    []Mat63    `yaml:"k_corr_mnv"` // Gain matrices, maneuver, one per tracker group
	Limits      Limits     `yaml:"limits"`
	CyclePeriod float64    `yaml:"cycle_period"` // Control cycle [s]
	StsCorr     bool       `yaml:"sts_corr"`     // Star tracker correction allowed
	InitQ       Quat       `yaml:"init_q"`       // Initial attitude quaternion
}

// GyroCounts describes the analog count conversion of the gyro channels
type GyroCounts struct {
	Mask   uint16  `yaml:"mask"`
	Offset int     `yaml:"offset"`
	Scale  float64 `yaml:"scale"` // [deg/s/LSB]
}

// Limits holds the limiting thresholds of one cabin
type Limits struct {
	LmtInno      float64 `yaml:"lmt_inno"`      // Innovation limit (largest component) [rad]
	MlfD0        float64 `yaml:"mlf_d0"`        // Gyro bias limit [rad/s]
	Mlfw         float64 `yaml:"mlfw"`          // Body rate limit [rad/s]
	OutlierThres float64 `yaml:"outlier_thres"` // Gyro outlier threshold [deg/s]
	OutlierRetry int     `yaml:"outlier_retry"` // Consecutive outliers before a value is accepted
}

// Nominal gyro sensing axes of the 9-gyro skewed cluster
var DefaultGyroInstall = [MaxGyros]Vec3{
	{0.7672553, -0.2792581, 0.5773510},
	{-0.1417830, -0.8040916, 0.5773510},
	{-0.1417830, 0.8040916, 0.5773510},
	{0.7672553, 0.2792581, 0.5773510},
	{-0.6254722, -0.5248335, 0.5773510},
	{-0.6254722, 0.5248335, 0.5773510},
	{-0.4082480, -0.7071063, -0.5773510},
	{-0.4082480, 0.7071063, -0.5773510},
	{0.8164960, 0.0, -0.5773510},
}

// Nominal star tracker installs: optical axes along body +Z, -Y and +X
var DefaultTrackers = []Mat33{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{1, 0, 0}, {0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
}

// NewConfig creates a configuration of n identical cabins with default tables
func NewConfig(n int) *Config {
	cfg := &Config{
		ManeuverGains: [NumWorkModes]bool{false, false, true, true},  // MANEUVER and TRACK
		SunAngles:     [NumWorkModes]bool{false, true, false, false}, // HOLD
		Parallel:      false,
	}
	for i := range n {
		cfg.Cabins = append(cfg.Cabins, NewCabinConfig(fmt.Sprintf("cabin%d", i)))
	}
	return cfg
}

// NewCabinConfig creates a cabin configuration with default values
func NewCabinConfig(name string) CabinConfig {
	trk := slices.Clone(DefaultTrackers)
	return CabinConfig{
		Name:        name,
		GyroInstall: slices.Clone(DefaultGyroInstall[:]),
		GyroCounts: GyroCounts{
			Mask:   GyroCountMask,
			Offset: GyroCountOffset,
			Scale:  GyroCountScale,
		},
		Trackers: trk,
		KCorr:    DefaultGains(len(trk), 0.1, -0.02),  // 20 % of the attitude error per cycle
		KCorrMnv: DefaultGains(len(trk), 0.25, -0.05), // 50 % of the attitude error per cycle
		Limits: Limits{
			LmtInno:      0.01,
			MlfD0:        1.0e-4,
			Mlfw:         0.2,
			OutlierThres: OutlierThres,
			OutlierRetry: OutlierRetry,
		},
		CyclePeriod: CyclePeriod,
		StsCorr:     true,
		InitQ:       QIdentity(),
	}
}

// DefaultGains returns diagonal gain matrices for every tracker group of g trackers:
// kq on the quaternion rows and kb on the bias rows. Dual groups use the same gains.
func DefaultGains(g int, kq, kb float64) []Mat63 {
	ks := make([]Mat63, NumKGroups(g))
	for i := range ks {
		for j := range 3 {
			ks[i][j][j] = kq
			ks[i][j+3][j] = kb
		}
	}
	return ks
}

// UseManeuverGains reports whether the work mode selects the maneuver gain table
func (c *Config) UseManeuverGains(mode WorkMode) bool {
	return mode >= 0 && int(mode) < NumWorkModes && c.ManeuverGains[mode]
}

// UseSunAngles reports whether the work mode references roll and pitch to the sun sensor
func (c *Config) UseSunAngles(mode WorkMode) bool {
	return mode >= 0 && int(mode) < NumWorkModes && c.SunAngles[mode]
}

// Gains returns the gain matrix of a tracker group
func (c *CabinConfig) Gains(group int, maneuver bool) Mat63 {
	if maneuver {
		return c.KCorrMnv[group]
	}
	return c.KCorr[group]
}

// LoadConfig reads a YAML configuration. Keys missing in the file keep the defaults
// of NewConfig, cabin by cabin.
func LoadConfig(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Cabins are decoded one by one over their defaults
	def := NewConfig(0)
	f := struct {
		Cabins        []yaml.Node        `yaml:"cabins"`
		ManeuverGains [NumWorkModes]bool `yaml:"maneuver_gains"`
		SunAngles     [NumWorkModes]bool `yaml:"sun_angles"`
		Parallel      bool               `yaml:"parallel"`
	}{
		ManeuverGains: def.ManeuverGains,
		SunAngles:     def.SunAngles,
		Parallel:      def.Parallel,
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := &Config{
		ManeuverGains: f.ManeuverGains,
		SunAngles:     f.SunAngles,
		Parallel:      f.Parallel,
	}
	for i, n := range f.Cabins {
		cc := NewCabinConfig(fmt.Sprintf("cabin%d", i))
		if err := n.Decode(&cc); err != nil {
			return nil, fmt.Errorf("failed to parse cabin %d: %w", i, err)
		}
		cfg.Cabins = append(cfg.Cabins, cc)
	}
	if len(cfg.Cabins) == 0 {
		cfg.Cabins = append(cfg.Cabins, NewCabinConfig("cabin0"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WriteConfig writes the configuration as YAML
func WriteConfig(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return enc.Close()
}

// Validate checks the table dimensions and limits
func (c *Config) Validate() error {
	if len(c.Cabins) == 0 {
		return errors.New("no cabin configured")
	}
	var errs []error
	for i := range c.Cabins {
		if err := c.Cabins[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("cabin %d (%s): %w", i, c.Cabins[i].Name, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the tables of one cabin
func (c *CabinConfig) Validate() error {
	var errs []error
	if n := len(c.GyroInstall); n < MinGyros || n > MaxGyros {
		errs = append(errs, fmt.Errorf("number of gyros: %d not in [%d, %d]", n, MinGyros, MaxGyros))
	}
	g := len(c.Trackers)
	if g > MaxTrackers {
		errs = append(errs, fmt.Errorf("number of star trackers: %d > %d", g, MaxTrackers))
	}
	if len(c.KCorr) != NumKGroups(g) {
		errs = append(errs, fmt.Errorf("k_corr: %d groups, want %d", len(c.KCorr), NumKGroups(g)))
	}
	if len(c.KCorrMnv) != NumKGroups(g) {
		errs = append(errs, fmt.Errorf("k_corr_mnv: %d groups, want %d", len(c.KCorrMnv), NumKGroups(g)))
	}
	if c.GyroCounts.Scale == 0 {
		errs = append(errs, errors.New("gyro_counts.scale is zero"))
	}
	if c.Limits.LmtInno <= 0 || c.Limits.MlfD0 <= 0 || c.Limits.Mlfw <= 0 || c.Limits.OutlierThres <= 0 {
		errs = append(errs, fmt.Errorf("limits must be positive: %+v", c.Limits))
	}
	if c.Limits.OutlierRetry < 1 {
		errs = append(errs, fmt.Errorf("limits.outlier_retry must be positive: %d", c.Limits.OutlierRetry))
	}
	if c.CyclePeriod <= 0 {
		errs = append(errs, fmt.Errorf("cycle_period must be positive: %f", c.CyclePeriod))
	}
	return errors.Join(errs...)
}

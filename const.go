// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package goadcs

const (
	PI = 3.1415926535897932 // Pi
	C  = 2.99792458e8       // Speed of light [m/s]

	InvEps = 1.0e-6 // Determinant threshold of the 3x3 inverse

	MaxGyros     = 9 // Gyro channels per cabin
	MaxUsedGyros = 5 // Channels entering the rate equation
	MinGyros     = 3 // Channels needed for a 3-axis rate
	MaxTrackers  = 4 // Star trackers per cabin

	SingleSTS = -1 // Sentinel for idx2 when only one star tracker is used

	OutlierThres  = 0.048 // Gyro outlier threshold [deg/s]
	OutlierRetry  = 6     // Default consecutive outliers before a value is accepted
	CyclePeriod   = 0.160 // Control cycle [s]
	AngleHalfSpan = 180.0 // Angle integral wraps into [-180, 180) [deg]

	// Analog gyro count scaling, 5/3072 deg/s per LSB around 0x800
	GyroCountMask   = 0xFFF
	GyroCountOffset = 0x800
	GyroCountScale  = 1.62760417e-3

	NumWorkModes = 4 // Work mode words carried by the mode context
)

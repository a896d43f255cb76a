// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package goadcs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetry(t *testing.T) {
	out := CycleOutput{
		Cycle:       42,
		Time:        OBTime{Sec: 1000, Frac: 0.5},
		Q:           QUnit(Quat{0.9, 0.1, -0.3, 0.2}),
		W:           Vec3{1e-3, -2e-3, 3e-3},
		Bias:        Vec3{5e-5, 0, -1e-5},
		Innovation:  Vec3{1e-6, 0, 0},
		Group:       4,
		RateValid:   true,
		AttValid:    true,
		InnoLimited: true,
	}
	b := PackTelemetry(&out)
	require.Len(t, b, TelemetrySize)
	assert.Equal(t, 64, TelemetrySize)

	// Big-endian: the cycle counter leads the frame
	assert.Equal(t, uint32(42), binary.BigEndian.Uint32(b[0:4]))
	assert.Equal(t, uint32(1000), binary.BigEndian.Uint32(b[4:8]))
	assert.Equal(t, uint16(0x8000), binary.BigEndian.Uint16(b[8:10]))

	f, err := UnpackTelemetry(b)
	require.NoError(t, err)
	q := f.Quat()
	assert.InDeltaSlice(t, out.Q[:], q[:], TlmQLsb)
	w := f.Rate()
	assert.InDeltaSlice(t, out.W[:], w[:], TlmWLsb)
	assert.Equal(t, int32(5000000), f.Bias[0])
	assert.Equal(t, int32(1000), f.Inno[0])
	assert.Equal(t, int8(4), f.Group)
	assert.Equal(t, uint8(TlmRateValid|TlmAttValid|TlmInnoLimited), f.Flags)
}

func TestTelemetryNoCorrection(t *testing.T) {
	out := CycleOutput{Q: QIdentity(), Group: -1}
	f, err := UnpackTelemetry(PackTelemetry(&out))
	require.NoError(t, err)
	assert.Equal(t, int8(-1), f.Group)
	assert.Equal(t, uint8(0), f.Flags)

	out.SunValid = true
	f, err = UnpackTelemetry(PackTelemetry(&out))
	require.NoError(t, err)
	assert.Equal(t, uint8(TlmSunValid), f.Flags)
	assert.Equal(t, int32(1<<30), f.Q[0])
}

func TestUnpackTelemetrySize(t *testing.T) {
	_, err := UnpackTelemetry(make([]byte, 10))
	assert.Error(t, err)
}

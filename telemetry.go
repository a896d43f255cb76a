// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package goadcs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Fixed point resolution of the telemetry fields
const (
	TlmQLsb    = 1.0 / (1 << 30) // Quaternion component
	TlmWLsb    = 1.0e-9          // Body rate [rad/s]
	TlmBiasLsb = 1.0e-11         // Gyro bias [rad/s]
	TlmInnoLsb = 1.0e-9          // Innovation [rad]
)

// Flag bits of the telemetry frame
const (
	TlmRateValid = 1 << iota
	TlmAttValid
	TlmSingular
	TlmInnoLimited
	TlmSunValid
)

// TelemetryFrame is the big-endian fixed point image of a cycle output
type TelemetryFrame struct {
	Cycle uint32
	Sec   uint32
	Frac  uint16 // 1/65536 s
	Q     [4]int32
	W     [3]int32
	Bias  [3]int32
	Inno  [3]int32
	Group int8
	Flags uint8
}

// Size of a packed frame [byte]
var TelemetrySize = binary.Size(TelemetryFrame{})

func fix32(x, lsb float64) int32 {
	return int32(math.Round(LimitDouble(x/lsb, math.MaxInt32)))
}

func fix32v(v Vec3, lsb float64) (r [3]int32) {
	for i := range 3 {
		r[i] = fix32(v[i], lsb)
	}
	return
}

// NewTelemetryFrame quantizes a cycle output
func NewTelemetryFrame(out *CycleOutput) TelemetryFrame {
	f := TelemetryFrame{
		Cycle: uint32(out.Cycle),
		Sec:   uint32(out.Time.Sec),
		Frac:  uint16(math.Min(math.Floor(out.Time.Frac*65536), 65535)),
		W:     fix32v(out.W, TlmWLsb),
		Bias:  fix32v(out.Bias, TlmBiasLsb),
		Inno:  fix32v(out.Innovation, TlmInnoLsb),
		Group: int8(out.Group),
	}
	for i := range 4 {
		f.Q[i] = fix32(out.Q[i], TlmQLsb)
	}
	if out.RateValid {
		f.Flags |= TlmRateValid
	}
	if out.AttValid {
		f.Flags |= TlmAttValid
	}
	if out.Singular {
		f.Flags |= TlmSingular
	}
	if out.InnoLimited {
		f.Flags |= TlmInnoLimited
	}
	if out.SunValid {
		f.Flags |= TlmSunValid
	}
	return f
}

// PackTelemetry returns the packed frame of a cycle output
func PackTelemetry(out *CycleOutput) []byte {
	var buf bytes.Buffer
	buf.Grow(TelemetrySize)
	f := NewTelemetryFrame(out)
	if err := binary.Write(&buf, binary.BigEndian, &f); err != nil {
		PrintE(err)
		return nil
	}
	return buf.Bytes()
}

// UnpackTelemetry decodes a packed frame
func UnpackTelemetry(b []byte) (TelemetryFrame, error) {
	var f TelemetryFrame
	if len(b) != TelemetrySize {
		return f, fmt.Errorf("invalid telemetry size: %d, want %d", len(b), TelemetrySize)
	}
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, &f); err != nil {
		return f, fmt.Errorf("failed to decode telemetry: %w", err)
	}
	return f, nil
}

// Quat returns the attitude quaternion of the frame
func (f *TelemetryFrame) Quat() (q Quat) {
	for i := range 4 {
		q[i] = float64(f.Q[i]) * TlmQLsb
	}
	return
}

// Rate returns the body rate of the frame [rad/s]
func (f *TelemetryFrame) Rate() Vec3 {
	return Vec3{float64(f.W[0]) * TlmWLsb, float64(f.W[1]) * TlmWLsb, float64(f.W[2]) * TlmWLsb}
}

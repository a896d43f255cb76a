// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.16
//

package goadcs

import (
	"fmt"
	"strconv"
	"strings"
)

// Work mode set by the mode management (0: DAMP, 1: HOLD, 2: MANEUVER, 3: TRACK)
type WorkMode int

const (
	ModeDamp = WorkMode(iota)
	ModeHold
	ModeManeuver
	ModeTrack
)

// Mode words as stored in triplicate by the mode management
var modeWords = [NumWorkModes]uint32{0x00, 0x33, 0xCC, 0x55}

func (p *WorkMode) Set(s string) error {
	i, err := strconv.ParseInt(s, 10, 0)
	if err != nil {
		for m := range NumWorkModes {
			w := WorkMode(m)
			if strings.EqualFold(s, w.String()) {
				*p = w
				return nil
			}
		}
		return err
	}
	if i < 0 || i >= NumWorkModes {
		return fmt.Errorf("work mode out of range: %d", i)
	}
	*p = WorkMode(i)
	return nil
}

func (p *WorkMode) String() string {
	switch *p {
	case ModeDamp:
		return "DAMP"
	case ModeHold:
		return "HOLD"
	case ModeManeuver:
		return "MANEUVER"
	case ModeTrack:
		return "TRACK"
	default:
		return "UNKNOWN!"
	}
}

// Word returns the stored mode word of the mode
func (p WorkMode) Word() uint32 {
	if p < 0 || int(p) >= NumWorkModes {
		return 0xFF
	}
	return modeWords[p]
}

// ModeFromWord decodes a mode word. ok is false for an unknown word.
func ModeFromWord(w uint32) (WorkMode, bool) {
	for m, v := range modeWords {
		if v == w {
			return WorkMode(m), true
		}
	}
	return ModeDamp, false
}

// Vote3 returns the bitwise 2-out-of-3 majority of three stored copies.
// repaired is true when the copies disagreed and have to be rewritten with the result.
func Vote3(a, b, c uint32) (v uint32, repaired bool) {
	if a == b && a == c {
		return a, false
	}
	return (a & b) | (a & c) | (b & c), true
}

// DecodeMode votes the three stored copies of the mode word and decodes the result
func DecodeMode(copies [3]uint32) (m WorkMode, repaired bool, ok bool) {
	w, repaired := Vote3(copies[0], copies[1], copies[2])
	m, ok = ModeFromWord(w)
	return m, repaired, ok
}

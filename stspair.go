// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.13
//

package goadcs

import (
	"golang.org/x/exp/slices"
)

// CS_GetKforSts returns the gain matrix group of a star tracker combination.
//
// The gain table of g trackers holds g single-tracker groups (group = tracker index)
// followed by every unordered pair (idx1, idx2), idx1 < idx2, in lexicographic order.
// Pass idx2 = SingleSTS for a single tracker.
//
// The caller must guarantee 0 <= idx1 < idx2 < g for a pair. Other inputs give an
// undefined group number; SelectTrackers always produces valid arguments.
func CS_GetKforSts(idx1, idx2, g int) int {
	if idx2 == SingleSTS {
		return idx1
	}
	// Groups before pair (idx1, idx1+1): g singles plus the pairs of trackers 0..idx1-1,
	// an arithmetic series g, g-1, ..., g-idx1 of idx1+1 terms
	n1 := (idx1 + 1) * (2*g - idx1) / 2
	// Pairs from (idx1, idx1+1) up to (idx1, idx2)
	n2 := idx2 - idx1
	return n1 + n2 - 1
}

// NumKGroups returns the number of gain groups of g trackers
func NumKGroups(g int) int {
	return g + g*(g-1)/2
}

// SelectTrackers picks the star trackers used in this cycle: the two lowest usable
// indices, or one with idx2 = SingleSTS. ok is false when no tracker is usable.
func SelectTrackers(usable []bool) (idx1, idx2 int, ok bool) {
	idx1 = slices.Index(usable, true)
	if idx1 < 0 {
		return -1, SingleSTS, false
	}
	idx2 = SingleSTS
	if j := slices.Index(usable[idx1+1:], true); j >= 0 {
		idx2 = idx1 + 1 + j
	}
	return idx1, idx2, true
}

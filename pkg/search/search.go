// Package search locates positions in ascending, possibly duplicated, key sequences.
//
// The search narrows the range with a coarse bisection until a handful of candidates
// remain and finishes with a linear scan, so runs of equal keys resolve to their first
// (next modes, Exact) or last (prev modes) element.
package search

import (
	"golang.org/x/exp/constraints"
)

type Mode int

const (
	// NextHigherValue finds the first key strictly greater than the value.
	NextHigherValue Mode = iota
	// NextHigherValueOrEqual finds the first key greater than or equal to the value.
	NextHigherValueOrEqual
	// PrevLowerValue finds the last key strictly lower than the value.
	PrevLowerValue
	// PrevLowerValueOrEqual finds the last key lower than or equal to the value.
	PrevLowerValueOrEqual
	// Exact finds the first key equal to the value.
	Exact
)

const NotFound = -1

// linearWindow is the candidate count at which bisection gives way to scanning.
const linearWindow = 6

func (m Mode) String() string {
	switch m {
	case NextHigherValue:
		return "next_higher"
	case NextHigherValueOrEqual:
		return "next_higher_or_equal"
	case PrevLowerValue:
		return "prev_lower"
	case PrevLowerValueOrEqual:
		return "prev_lower_or_equal"
	case Exact:
		return "exact"
	}
	return "unknown"
}

// Keys searches a slice of ascending keys starting at index start.
func Keys[K constraints.Ordered](keys []K, start int, value K, mode Mode) int {
	return Index(keys, func(k K) K { return k }, start, value, mode)
}

// Index searches items whose keys are ascending. Callers advancing a cursor pass the
// previous result as start and must not search for a lower value than before.
func Index[T any, K constraints.Ordered](items []T, key func(T) K, start int, value K, mode Mode) int {
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return NotFound
	}

	match := matcher[K](mode)
	if match == nil {
		return NotFound
	}

	low, high := start, len(items)-1
	for high-low >= linearWindow {
		mid := low + (high-low)/2
		k := key(items[mid])

		switch mode {
		case NextHigherValue, NextHigherValueOrEqual:
			if match(k, value) {
				high = mid
			} else {
				low = mid + 1
			}
		case PrevLowerValue, PrevLowerValueOrEqual:
			if match(k, value) {
				low = mid
			} else {
				high = mid - 1
			}
		case Exact:
			if k < value {
				low = mid + 1
			} else {
				high = mid
			}
		}
	}

	if mode == PrevLowerValue || mode == PrevLowerValueOrEqual {
		for i := high; i >= low; i-- {
			if match(key(items[i]), value) {
				return i
			}
		}
		return NotFound
	}

	for i := low; i <= high; i++ {
		if match(key(items[i]), value) {
			return i
		}
	}
	return NotFound
}

func matcher[K constraints.Ordered](mode Mode) func(k, v K) bool {
	switch mode {
	case NextHigherValue:
		return func(k, v K) bool { return k > v }
	case NextHigherValueOrEqual:
		return func(k, v K) bool { return k >= v }
	case PrevLowerValue:
		return func(k, v K) bool { return k < v }
	case PrevLowerValueOrEqual:
		return func(k, v K) bool { return k <= v }
	case Exact:
		return func(k, v K) bool { return k == v }
	}
	return nil
}

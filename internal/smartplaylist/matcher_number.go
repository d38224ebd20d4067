/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"strconv"

	"github.com/friendsincode/smartplaylist/internal/library"
)

// NumberMatcher compares an integer column against MatcherData.First
// (and Second for ranges).
type NumberMatcher int

const (
	NumberIs            NumberMatcher = 1
	NumberIsNot         NumberMatcher = 2
	NumberIsGreaterThan NumberMatcher = 3
	NumberIsLessThan    NumberMatcher = 4
	NumberIsInTheRange  NumberMatcher = 5
)

// NumberFamily holds every NumberMatcher.
var NumberFamily = newFamily("number",
	NumberIs,
	NumberIsNot,
	NumberIsGreaterThan,
	NumberIsLessThan,
	NumberIsInTheRange,
)

func (m NumberMatcher) ID() int         { return int(m) }
func (m NumberMatcher) Family() *Family { return NumberFamily }

func (m NumberMatcher) String() string {
	switch m {
	case NumberIs:
		return "is"
	case NumberIsNot:
		return "is_not"
	case NumberIsGreaterThan:
		return "is_greater_than"
	case NumberIsLessThan:
		return "is_less_than"
	case NumberIsInTheRange:
		return "is_in_the_range"
	}
	return "number(" + strconv.Itoa(int(m)) + ")"
}

// WillAccept rejects negative operands and unordered ranges.
func (m NumberMatcher) WillAccept(data MatcherData) bool {
	if m == NumberIsInTheRange {
		return data.First >= 0 && data.Second >= 0 && data.Second >= data.First
	}
	return data.First >= 0
}

func (m NumberMatcher) Predicate(col library.Column, data MatcherData) string {
	switch m {
	case NumberIs:
		return compareNumber(col, "=", data.First)
	case NumberIsNot:
		return compareNumber(col, "<>", data.First)
	case NumberIsGreaterThan:
		return compareNumber(col, ">", data.First)
	case NumberIsLessThan:
		return compareNumber(col, "<", data.First)
	case NumberIsInTheRange:
		return between(col, data.First, data.Second)
	}
	return unknownMatcher("number", int(m))
}

func (m NumberMatcher) Joins(MatcherData) []JoinTemplate { return nil }

// durationTolerance widens Is to a one second window around the operand (ms).
const durationTolerance = 500

// DurationMatcher compares a millisecond duration column.
type DurationMatcher int

const (
	DurationIs            DurationMatcher = 1
	DurationIsNot         DurationMatcher = 2
	DurationIsGreaterThan DurationMatcher = 3
	DurationIsLessThan    DurationMatcher = 4
	DurationIsInTheRange  DurationMatcher = 5
)

// DurationFamily holds every DurationMatcher.
var DurationFamily = newFamily("duration",
	DurationIs,
	DurationIsNot,
	DurationIsGreaterThan,
	DurationIsLessThan,
	DurationIsInTheRange,
)

func (m DurationMatcher) ID() int         { return int(m) }
func (m DurationMatcher) Family() *Family { return DurationFamily }

func (m DurationMatcher) String() string {
	if n, ok := m.number(); ok {
		return n.String()
	}
	return "duration(" + strconv.Itoa(int(m)) + ")"
}

func (m DurationMatcher) WillAccept(data MatcherData) bool {
	if n, ok := m.number(); ok {
		return n.WillAccept(data)
	}
	return false
}

func (m DurationMatcher) Predicate(col library.Column, data MatcherData) string {
	switch m {
	case DurationIs:
		return between(col, data.First-durationTolerance, data.First+durationTolerance-1)
	case DurationIsNot:
		return notBetween(col, data.First-durationTolerance, data.First+durationTolerance-1)
	}
	if n, ok := m.number(); ok {
		return n.Predicate(col, data)
	}
	return unknownMatcher("duration", int(m))
}

func (m DurationMatcher) Joins(MatcherData) []JoinTemplate { return nil }

func (m DurationMatcher) number() (NumberMatcher, bool) {
	switch m {
	case DurationIs:
		return NumberIs, true
	case DurationIsNot:
		return NumberIsNot, true
	case DurationIsGreaterThan:
		return NumberIsGreaterThan, true
	case DurationIsLessThan:
		return NumberIsLessThan, true
	case DurationIsInTheRange:
		return NumberIsInTheRange, true
	}
	return 0, false
}

// Bounds of the internal rating scale. Unrated rows store RatingUnset.
const (
	RatingUnset = -1
	RatingMin   = 0
	RatingMax   = 100
)

// RatingMatcher compares Media.Rating on the 0-100 internal scale.
type RatingMatcher int

const (
	RatingIs            RatingMatcher = 1
	RatingIsNot         RatingMatcher = 2
	RatingIsGreaterThan RatingMatcher = 3
	RatingIsLessThan    RatingMatcher = 4
	RatingIsInTheRange  RatingMatcher = 5
)

// RatingFamily holds every RatingMatcher.
var RatingFamily = newFamily("rating",
	RatingIs,
	RatingIsNot,
	RatingIsGreaterThan,
	RatingIsLessThan,
	RatingIsInTheRange,
)

func (m RatingMatcher) ID() int         { return int(m) }
func (m RatingMatcher) Family() *Family { return RatingFamily }

func (m RatingMatcher) String() string {
	if n, ok := m.number(); ok {
		return n.String()
	}
	return "rating(" + strconv.Itoa(int(m)) + ")"
}

func (m RatingMatcher) WillAccept(data MatcherData) bool {
	inScale := func(v int64) bool { return v >= RatingUnset && v <= RatingMax }
	switch m {
	case RatingIsInTheRange:
		return inScale(data.First) && inScale(data.Second) && data.Second >= data.First
	case RatingIs, RatingIsNot, RatingIsGreaterThan, RatingIsLessThan:
		return inScale(data.First)
	}
	return false
}

func (m RatingMatcher) Predicate(col library.Column, data MatcherData) string {
	if n, ok := m.number(); ok {
		return n.Predicate(col, data)
	}
	return unknownMatcher("rating", int(m))
}

func (m RatingMatcher) Joins(MatcherData) []JoinTemplate { return nil }

func (m RatingMatcher) number() (NumberMatcher, bool) {
	switch m {
	case RatingIs:
		return NumberIs, true
	case RatingIsNot:
		return NumberIsNot, true
	case RatingIsGreaterThan:
		return NumberIsGreaterThan, true
	case RatingIsLessThan:
		return NumberIsLessThan, true
	case RatingIsInTheRange:
		return NumberIsInTheRange, true
	}
	return 0, false
}

// StarRating is a user-facing rating counted in half stars, or StarsUnrated.
type StarRating int

const (
	StarsUnrated StarRating = -1
	StarsZero    StarRating = 0
	StarsHalf    StarRating = 1
	StarsOne     StarRating = 2
	StarsTwo     StarRating = 4
	StarsThree   StarRating = 6
	StarsFour    StarRating = 8
	StarsFive    StarRating = 10
)

// Stars builds a rating from a star count such as 3.5.
func Stars(stars float64) StarRating {
	if stars < 0 {
		return StarsUnrated
	}
	half := StarRating(stars*2 + 0.5)
	if half > StarsFive {
		half = StarsFive
	}
	return half
}

// Internal maps the rating onto the stored 0-100 scale.
func (s StarRating) Internal() int64 {
	if s < StarsZero {
		return RatingUnset
	}
	if s > StarsFive {
		return RatingMax
	}
	return int64(s) * 10
}

// StarRatingFromInternal maps a stored rating back to half stars.
func StarRatingFromInternal(v int64) StarRating {
	switch {
	case v < RatingMin:
		return StarsUnrated
	case v > RatingMax:
		return StarsFive
	}
	return StarRating((v + 5) / 10)
}

// RatingData converts a single star rating into matcher operands.
func RatingData(s StarRating) MatcherData {
	return MatcherData{First: s.Internal()}
}

// RatingRangeData converts a star rating range into matcher operands.
func RatingRangeData(low, high StarRating) MatcherData {
	return MatcherData{First: low.Internal(), Second: high.Internal()}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"fmt"
	"strconv"
	"time"

	"github.com/friendsincode/smartplaylist/internal/library"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// TimeUnit is the unit of an InTheLast/NotInTheLast count, stored in
// MatcherData.Second.
type TimeUnit int64

const (
	UnitDays   TimeUnit = 0
	UnitWeeks  TimeUnit = 1
	UnitMonths TimeUnit = 2
)

func (u TimeUnit) valid() bool {
	return u == UnitDays || u == UnitWeeks || u == UnitMonths
}

func (u TimeUnit) String() string {
	switch u {
	case UnitDays:
		return "days"
	case UnitWeeks:
		return "weeks"
	case UnitMonths:
		return "months"
	}
	return "unit(" + strconv.FormatInt(int64(u), 10) + ")"
}

// ParseTimeUnit resolves a unit name.
func ParseTimeUnit(s string) (TimeUnit, error) {
	for _, u := range []TimeUnit{UnitDays, UnitWeeks, UnitMonths} {
		if u.String() == s {
			return u, nil
		}
	}
	return 0, fmt.Errorf("time unit %q: %w", s, ErrNotFound)
}

// modifier normalizes weeks to days for strftime.
func (u TimeUnit) modifier(count int64) string {
	switch u {
	case UnitWeeks:
		return fmt.Sprintf("-%d days", count*7)
	case UnitMonths:
		return fmt.Sprintf("-%d months", count)
	}
	return fmt.Sprintf("-%d days", count)
}

// DateMatcher compares an epoch-millisecond column at day precision.
type DateMatcher int

const (
	DateIs           DateMatcher = 1
	DateIsNot        DateMatcher = 2
	DateIsAfter      DateMatcher = 3
	DateIsBefore     DateMatcher = 4
	DateIsInTheRange DateMatcher = 5
	DateInTheLast    DateMatcher = 6
	DateNotInTheLast DateMatcher = 7
)

// DateFamily holds every DateMatcher.
var DateFamily = newFamily("date",
	DateIs,
	DateIsNot,
	DateIsAfter,
	DateIsBefore,
	DateIsInTheRange,
	DateInTheLast,
	DateNotInTheLast,
)

func (m DateMatcher) ID() int         { return int(m) }
func (m DateMatcher) Family() *Family { return DateFamily }

func (m DateMatcher) String() string {
	switch m {
	case DateIs:
		return "is"
	case DateIsNot:
		return "is_not"
	case DateIsAfter:
		return "is_after"
	case DateIsBefore:
		return "is_before"
	case DateIsInTheRange:
		return "is_in_the_range"
	case DateInTheLast:
		return "in_the_last"
	case DateNotInTheLast:
		return "not_in_the_last"
	}
	return "date(" + strconv.Itoa(int(m)) + ")"
}

func (m DateMatcher) WillAccept(data MatcherData) bool {
	switch m {
	case DateInTheLast, DateNotInTheLast:
		return data.First > 0 && TimeUnit(data.Second).valid()
	case DateIsInTheRange:
		return data.Second >= data.First
	case DateIs, DateIsNot, DateIsAfter, DateIsBefore:
		return true
	}
	return false
}

func (m DateMatcher) Predicate(col library.Column, data MatcherData) string {
	switch m {
	case DateIs:
		return between(col, StartOfDay(data.First), EndOfDay(data.First))
	case DateIsNot:
		return notBetween(col, StartOfDay(data.First), EndOfDay(data.First))
	case DateIsAfter:
		return compareNumber(col, ">", EndOfDay(data.First))
	case DateIsBefore:
		return compareNumber(col, "<", StartOfDay(data.First))
	case DateIsInTheRange:
		return between(col, StartOfDay(data.First), EndOfDay(data.Second))
	case DateInTheLast:
		return col.String() + " >= " + sinceNow(data)
	case DateNotInTheLast:
		return col.String() + " < " + sinceNow(data)
	}
	return unknownMatcher("date", int(m))
}

func (m DateMatcher) Joins(MatcherData) []JoinTemplate { return nil }

func sinceNow(data MatcherData) string {
	return "(strftime('%s','now','" + TimeUnit(data.Second).modifier(data.First) + "') * 1000)"
}

// StartOfDay returns the first millisecond of the UTC day containing ms.
func StartOfDay(ms int64) int64 {
	t := time.UnixMilli(ms).UTC()
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).UnixMilli()
}

// EndOfDay returns the last millisecond of the UTC day containing ms.
func EndOfDay(ms int64) int64 {
	return StartOfDay(ms) + dayMillis - 1
}

// DateData builds operands for the single-date matchers.
func DateData(t time.Time) MatcherData {
	return MatcherData{First: t.UnixMilli()}
}

// DateRangeData builds operands for DateIsInTheRange.
func DateRangeData(from, to time.Time) MatcherData {
	return MatcherData{First: from.UnixMilli(), Second: to.UnixMilli()}
}

// InTheLastData builds operands for DateInTheLast and DateNotInTheLast.
func InTheLastData(count int64, unit TimeUnit) MatcherData {
	return MatcherData{First: count, Second: int64(unit)}
}

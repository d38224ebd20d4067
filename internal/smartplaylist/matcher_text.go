/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"strconv"

	"github.com/friendsincode/smartplaylist/internal/library"
)

// TextMatcher compares a text column against MatcherData.Text.
type TextMatcher int

// Persisted ids. Never renumber; new operators take the next unused id.
const (
	TextContains       TextMatcher = 1
	TextDoesNotContain TextMatcher = 2
	TextIs             TextMatcher = 3
	TextIsNot          TextMatcher = 4
	TextBeginsWith     TextMatcher = 5
	TextEndsWith       TextMatcher = 6
)

// TextFamily holds every TextMatcher.
var TextFamily = newFamily("text",
	TextContains,
	TextDoesNotContain,
	TextIs,
	TextIsNot,
	TextBeginsWith,
	TextEndsWith,
)

func (m TextMatcher) ID() int         { return int(m) }
func (m TextMatcher) Family() *Family { return TextFamily }

func (m TextMatcher) String() string {
	switch m {
	case TextContains:
		return "contains"
	case TextDoesNotContain:
		return "does_not_contain"
	case TextIs:
		return "is"
	case TextIsNot:
		return "is_not"
	case TextBeginsWith:
		return "begins_with"
	case TextEndsWith:
		return "ends_with"
	}
	return "text(" + strconv.Itoa(int(m)) + ")"
}

// WillAccept accepts any text, including the empty string.
func (m TextMatcher) WillAccept(MatcherData) bool { return true }

func (m TextMatcher) Predicate(col library.Column, data MatcherData) string {
	switch m {
	case TextContains:
		return col.String() + " LIKE " + likePattern("%", data.Text, "%") + likeEscape
	case TextDoesNotContain:
		return col.String() + " NOT LIKE " + likePattern("%", data.Text, "%") + likeEscape
	case TextIs:
		return col.String() + " = " + quoteText(data.Text)
	case TextIsNot:
		return col.String() + " <> " + quoteText(data.Text)
	case TextBeginsWith:
		return col.String() + " LIKE " + likePattern("", data.Text, "%") + likeEscape
	case TextEndsWith:
		return col.String() + " LIKE " + likePattern("%", data.Text, "") + likeEscape
	}
	return unknownMatcher("text", int(m))
}

func (m TextMatcher) Joins(MatcherData) []JoinTemplate { return nil }

// GenreMatcher compares genre names. The field supplies the bridge joins.
type GenreMatcher int

const (
	GenreIs             GenreMatcher = 1
	GenreIsNot          GenreMatcher = 2
	GenreContains       GenreMatcher = 3
	GenreDoesNotContain GenreMatcher = 4
)

// GenreFamily holds every GenreMatcher.
var GenreFamily = newFamily("genre",
	GenreIs,
	GenreIsNot,
	GenreContains,
	GenreDoesNotContain,
)

func (m GenreMatcher) ID() int         { return int(m) }
func (m GenreMatcher) Family() *Family { return GenreFamily }

func (m GenreMatcher) String() string {
	if t, ok := m.text(); ok {
		return t.String()
	}
	return "genre(" + strconv.Itoa(int(m)) + ")"
}

func (m GenreMatcher) WillAccept(MatcherData) bool { return true }

func (m GenreMatcher) Predicate(col library.Column, data MatcherData) string {
	if t, ok := m.text(); ok {
		return t.Predicate(col, data)
	}
	return unknownMatcher("genre", int(m))
}

func (m GenreMatcher) Joins(MatcherData) []JoinTemplate { return nil }

// text maps the genre operator onto the text operator that renders it.
func (m GenreMatcher) text() (TextMatcher, bool) {
	switch m {
	case GenreIs:
		return TextIs, true
	case GenreIsNot:
		return TextIsNot, true
	case GenreContains:
		return TextContains, true
	case GenreDoesNotContain:
		return TextDoesNotContain, true
	}
	return 0, false
}

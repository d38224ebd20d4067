/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/friendsincode/smartplaylist/internal/library"
)

var (
	// ErrInvalidArgument reports a rule or playlist built from incompatible parts.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports a persisted id that no longer names a field or matcher.
	ErrNotFound = errors.New("not found")
)

// MatcherData is the operand of a matcher: one text slot and two numeric slots.
// Which slots are meaningful depends on the matcher.
type MatcherData struct {
	Text   string
	First  int64
	Second int64
}

// NewMatcherData builds an operand value.
func NewMatcherData(text string, first, second int64) MatcherData {
	return MatcherData{Text: text, First: first, Second: second}
}

// Matcher is one comparison operator of a family. Implementations are small
// integer types whose values are the persisted ids.
type Matcher interface {
	// ID is stored in rule rows and must never change meaning.
	ID() int
	Family() *Family
	String() string
	// WillAccept reports whether data is in the operator's domain. Callers
	// check it before saving a rule; Predicate does not re-validate.
	WillAccept(data MatcherData) bool
	Predicate(col library.Column, data MatcherData) string
	Joins(data MatcherData) []JoinTemplate
}

// Family is the closed set of matchers bound to one value domain.
type Family struct {
	name   string
	values []Matcher
	byID   map[int]Matcher
	byName map[string]Matcher
}

func newFamily(name string, values ...Matcher) *Family {
	f := &Family{
		name:   name,
		values: values,
		byID:   make(map[int]Matcher, len(values)),
		byName: make(map[string]Matcher, len(values)),
	}
	for _, m := range values {
		if _, dup := f.byID[m.ID()]; dup {
			panic(fmt.Sprintf("%s matcher id %d declared twice", name, m.ID()))
		}
		f.byID[m.ID()] = m
		f.byName[m.String()] = m
	}
	return f
}

// Name returns the family name.
func (f *Family) Name() string { return f.name }

// Values returns every matcher of the family in declaration order.
func (f *Family) Values() []Matcher {
	out := make([]Matcher, len(f.values))
	copy(out, f.values)
	return out
}

// FromID reifies a persisted matcher id.
func (f *Family) FromID(id int) (Matcher, error) {
	if m, ok := f.byID[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%s matcher id %d: %w", f.name, id, ErrNotFound)
}

// FromName resolves a matcher by its symbolic name.
func (f *Family) FromName(name string) (Matcher, error) {
	if m, ok := f.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%s matcher %q: %w", f.name, name, ErrNotFound)
}

// Contains reports whether m belongs to the family.
func (f *Family) Contains(m Matcher) bool {
	if m == nil {
		return false
	}
	got, ok := f.byID[m.ID()]
	return ok && got == m
}

func unknownMatcher(family string, id int) string {
	panic(fmt.Sprintf("unknown %s matcher %d", family, id))
}

const likeEscape = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func quoteText(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// EscapeLike escapes LIKE wildcards in s for use with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// likePattern wraps the escaped value in the given wildcards.
func likePattern(prefix, value, suffix string) string {
	return quoteText(prefix + likeEscaper.Replace(value) + suffix)
}

func compareNumber(col library.Column, op string, value int64) string {
	return col.String() + " " + op + " " + strconv.FormatInt(value, 10)
}

func between(col library.Column, low, high int64) string {
	return fmt.Sprintf("%s BETWEEN %d AND %d", col, low, high)
}

func notBetween(col library.Column, low, high int64) string {
	return fmt.Sprintf("%s NOT BETWEEN %d AND %d", col, low, high)
}

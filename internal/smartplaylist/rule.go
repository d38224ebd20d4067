/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import "fmt"

// Rule is one filter condition of a smart playlist. Edits produce a new Rule.
type Rule struct {
	id      int64
	field   RuleField
	matcher Matcher
	data    MatcherData
}

// NewRule validates that matcher belongs to the field's family.
func NewRule(id int64, field RuleField, matcher Matcher, data MatcherData) (Rule, error) {
	if !field.Valid() {
		return Rule{}, fmt.Errorf("%w: unknown rule field %s", ErrInvalidArgument, field)
	}
	if !field.Family().Contains(matcher) {
		return Rule{}, fmt.Errorf("%w: matcher %s is not valid for field %s", ErrInvalidArgument, describeMatcher(matcher), field)
	}
	return Rule{id: id, field: field, matcher: matcher, data: data}, nil
}

// NewRuleFromID builds a rule from a persisted matcher id.
func NewRuleFromID(id int64, field RuleField, matcherID int, data MatcherData) (Rule, error) {
	if !field.Valid() {
		return Rule{}, fmt.Errorf("%w: unknown rule field %s", ErrInvalidArgument, field)
	}
	matcher, err := field.ReifyMatcher(matcherID)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: matcher id %d is not valid for field %s: %w", ErrInvalidArgument, matcherID, field, err)
	}
	return Rule{id: id, field: field, matcher: matcher, data: data}, nil
}

func (r Rule) ID() int64         { return r.id }
func (r Rule) Field() RuleField  { return r.field }
func (r Rule) Matcher() Matcher  { return r.matcher }
func (r Rule) Data() MatcherData { return r.data }
func (r Rule) WillAccept() bool  { return r.matcher.WillAccept(r.data) }

func (r Rule) WhereClause() string {
	return r.matcher.Predicate(r.field.Column(), r.data)
}

// Joins returns the field's joins followed by any the matcher needs.
func (r Rule) Joins() []JoinTemplate {
	joins := r.field.Joins()
	return append(joins, r.matcher.Joins(r.data)...)
}

// WithData returns a copy of the rule with new operands.
func (r Rule) WithData(data MatcherData) Rule {
	r.data = data
	return r
}

func describeMatcher(m Matcher) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s.%s(%d)", m.Family().Name(), m, m.ID())
}

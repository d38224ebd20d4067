/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/smartplaylist/internal/library"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
)

// dateLayout is the calendar date format used in definitions. Dates are UTC.
const dateLayout = "2006-01-02"

// Definition encodes a smart playlist with symbolic names, shipped as YAML
// files or JSON request bodies.
type Definition struct {
	ID        int64            `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string           `json:"name" yaml:"name"`
	Match     string           `json:"match,omitempty" yaml:"match,omitempty"`
	Limit     int              `json:"limit,omitempty" yaml:"limit,omitempty"`
	OrderBy   string           `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	EndOfList string           `json:"end_of_list,omitempty" yaml:"end_of_list,omitempty"`
	Rules     []RuleDefinition `json:"rules" yaml:"rules"`
}

// RuleDefinition is one rule. Which operand fields apply depends on the
// field and operator: Date/DateTo for calendar comparisons, First/Unit for
// in_the_last, Playlist for playlist membership, Text/First/Second otherwise.
type RuleDefinition struct {
	Field    string `json:"field" yaml:"field"`
	Op       string `json:"op" yaml:"op"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	First    int64  `json:"first,omitempty" yaml:"first,omitempty"`
	Second   int64  `json:"second,omitempty" yaml:"second,omitempty"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
	DateTo   string `json:"date_to,omitempty" yaml:"date_to,omitempty"`
	Playlist string `json:"playlist,omitempty" yaml:"playlist,omitempty"`
}

// PlaylistRef identifies a playlist a rule can target.
type PlaylistRef struct {
	ID   int64
	Name string
	Type library.PlaylistType
}

// PlaylistResolver looks up playlist rule targets by name.
type PlaylistResolver interface {
	ResolvePlaylist(name string) (PlaylistRef, error)
}

// ParseDefinition decodes a YAML definition.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("%w: decode definition: %w", smartplaylist.ErrInvalidArgument, err)
	}
	return def, nil
}

// YAML encodes the definition.
func (d Definition) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Build validates the definition and turns it into a smart playlist. Rules
// whose operands are out of range are rejected.
func (d Definition) Build(resolver PlaylistResolver) (*smartplaylist.SmartPlaylist, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: name is required", smartplaylist.ErrInvalidArgument)
	}
	match, err := smartplaylist.AnyOrAllFromName(d.Match)
	if err != nil {
		return nil, invalid(err)
	}
	order, err := smartplaylist.OrderByFromName(d.OrderBy)
	if err != nil {
		return nil, invalid(err)
	}
	endOfList, err := smartplaylist.EndOfListActionFromName(d.EndOfList)
	if err != nil {
		return nil, invalid(err)
	}
	if d.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", smartplaylist.ErrInvalidArgument)
	}

	rules := make([]smartplaylist.Rule, 0, len(d.Rules))
	for i, rd := range d.Rules {
		rule, err := rd.build(resolver)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}
	return smartplaylist.New(d.ID, d.Name, match, d.Limit, order, endOfList, rules...), nil
}

func (rd RuleDefinition) build(resolver PlaylistResolver) (smartplaylist.Rule, error) {
	field, err := smartplaylist.FieldFromName(rd.Field)
	if err != nil {
		return smartplaylist.Rule{}, invalid(err)
	}
	matcher, err := field.Family().FromName(rd.Op)
	if err != nil {
		return smartplaylist.Rule{}, invalid(err)
	}

	data, err := rd.operands(field, matcher, resolver)
	if err != nil {
		return smartplaylist.Rule{}, err
	}
	rule, err := smartplaylist.NewRule(0, field, matcher, data)
	if err != nil {
		return smartplaylist.Rule{}, err
	}
	if !rule.WillAccept() {
		return smartplaylist.Rule{}, fmt.Errorf("%w: %s %s does not accept %+v", smartplaylist.ErrInvalidArgument, field, matcher, data)
	}
	return rule, nil
}

func (rd RuleDefinition) operands(field smartplaylist.RuleField, m smartplaylist.Matcher, resolver PlaylistResolver) (smartplaylist.MatcherData, error) {
	switch m {
	case smartplaylist.DateInTheLast, smartplaylist.DateNotInTheLast:
		unit, err := smartplaylist.ParseTimeUnit(rd.Unit)
		if rd.Unit == "" {
			unit, err = smartplaylist.UnitDays, nil
		}
		if err != nil {
			return smartplaylist.MatcherData{}, invalid(err)
		}
		return smartplaylist.InTheLastData(rd.First, unit), nil
	case smartplaylist.DateIs, smartplaylist.DateIsNot, smartplaylist.DateIsAfter, smartplaylist.DateIsBefore:
		from, err := parseDate(rd.Date)
		if err != nil {
			return smartplaylist.MatcherData{}, err
		}
		return smartplaylist.DateData(from), nil
	case smartplaylist.DateIsInTheRange:
		from, err := parseDate(rd.Date)
		if err != nil {
			return smartplaylist.MatcherData{}, err
		}
		to, err := parseDate(rd.DateTo)
		if err != nil {
			return smartplaylist.MatcherData{}, err
		}
		return smartplaylist.DateRangeData(from, to), nil
	}

	if field == smartplaylist.FieldPlaylist {
		if resolver == nil {
			return smartplaylist.MatcherData{}, fmt.Errorf("%w: playlist rules need a resolver", smartplaylist.ErrInvalidArgument)
		}
		ref, err := resolver.ResolvePlaylist(rd.Playlist)
		if err != nil {
			return smartplaylist.MatcherData{}, err
		}
		return smartplaylist.PlaylistData(ref.Name, ref.ID, ref.Type), nil
	}

	return smartplaylist.NewMatcherData(rd.Text, rd.First, rd.Second), nil
}

// DefinitionOf renders a smart playlist back into symbolic form.
func DefinitionOf(p *smartplaylist.SmartPlaylist) Definition {
	def := Definition{
		ID:        p.ID,
		Name:      p.Name,
		Match:     p.AnyOrAll.String(),
		Limit:     p.Limit,
		OrderBy:   p.OrderBy.String(),
		EndOfList: p.EndOfListAction.String(),
	}
	for _, r := range p.Rules() {
		def.Rules = append(def.Rules, ruleDefinitionOf(r))
	}
	return def
}

func ruleDefinitionOf(r smartplaylist.Rule) RuleDefinition {
	rd := RuleDefinition{Field: r.Field().String(), Op: r.Matcher().String()}
	data := r.Data()

	switch r.Matcher() {
	case smartplaylist.DateInTheLast, smartplaylist.DateNotInTheLast:
		rd.First = data.First
		rd.Unit = smartplaylist.TimeUnit(data.Second).String()
		return rd
	case smartplaylist.DateIs, smartplaylist.DateIsNot, smartplaylist.DateIsAfter, smartplaylist.DateIsBefore:
		rd.Date = formatDate(data.First)
		return rd
	case smartplaylist.DateIsInTheRange:
		rd.Date = formatDate(data.First)
		rd.DateTo = formatDate(data.Second)
		return rd
	}
	if r.Field() == smartplaylist.FieldPlaylist {
		rd.Playlist = data.Text
		return rd
	}

	rd.Text, rd.First, rd.Second = data.Text, data.First, data.Second
	return rd
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", smartplaylist.ErrInvalidArgument)
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", smartplaylist.ErrInvalidArgument, s, err)
	}
	return t, nil
}

func formatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(dateLayout)
}

func invalid(err error) error {
	if errors.Is(err, smartplaylist.ErrInvalidArgument) {
		return err
	}
	return fmt.Errorf("%w: %w", smartplaylist.ErrInvalidArgument, err)
}

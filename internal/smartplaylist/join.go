/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"github.com/friendsincode/smartplaylist/internal/library"
)

// JoinKind selects INNER or LEFT join.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

func (k JoinKind) String() string {
	if k == LeftJoin {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// JoinTemplate describes one join. Two templates with the same table and
// alias are the same join.
type JoinTemplate struct {
	Kind  JoinKind
	Table string
	Alias string
	On    string
}

// Inner builds an INNER JOIN template.
func Inner(table, alias, on string) JoinTemplate {
	return JoinTemplate{Kind: InnerJoin, Table: table, Alias: alias, On: on}
}

// Left builds a LEFT JOIN template.
func Left(table, alias, on string) JoinTemplate {
	return JoinTemplate{Kind: LeftJoin, Table: table, Alias: alias, On: on}
}

// Key is the identity used for deduplication.
func (j JoinTemplate) Key() string {
	return j.Table + " AS " + j.Relation()
}

// Relation is the name columns of the joined table are qualified with.
func (j JoinTemplate) Relation() string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.Table
}

// Clause renders the full join clause.
func (j JoinTemplate) Clause() string {
	clause := j.Kind.String() + " " + library.QuoteIdentifier(j.Table)
	if j.Alias != "" {
		clause += " AS " + library.QuoteIdentifier(j.Alias)
	}
	return clause + " ON " + j.On
}

// joinSet collects templates in first-seen order, merging duplicates.
type joinSet struct {
	keys  []string
	joins map[string]JoinTemplate
}

func newJoinSet() *joinSet {
	return &joinSet{joins: make(map[string]JoinTemplate)}
}

// add merges joins into the set. When the same join is requested as both
// LEFT and INNER the INNER form is kept, since a filter depends on it.
func (s *joinSet) add(joins ...JoinTemplate) {
	for _, j := range joins {
		key := j.Key()
		existing, ok := s.joins[key]
		if !ok {
			s.keys = append(s.keys, key)
			s.joins[key] = j
			continue
		}
		if j.Kind == InnerJoin && existing.Kind == LeftJoin {
			existing.Kind = InnerJoin
			s.joins[key] = existing
		}
	}
}

func (s *joinSet) list() []JoinTemplate {
	out := make([]JoinTemplate, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.joins[key])
	}
	return out
}

// MergeJoins deduplicates joins by table and alias, keeping first-seen order.
func MergeJoins(joins ...JoinTemplate) []JoinTemplate {
	set := newJoinSet()
	set.add(joins...)
	return set.list()
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	sq "github.com/Masterminds/squirrel"
)

// Query is a compiled smart playlist. All operands are inlined, so the
// statement never carries bind arguments.
type Query struct {
	builder sq.SelectBuilder
}

// ToSql implements squirrel.Sqlizer.
func (q Query) ToSql() (string, []interface{}, error) {
	return q.builder.ToSql()
}

// SQL renders the statement text.
func (q Query) SQL() (string, error) {
	sql, _, err := q.builder.ToSql()
	return sql, err
}

func (q Query) String() string {
	sql, err := q.SQL()
	if err != nil {
		return "<invalid query: " + err.Error() + ">"
	}
	return sql
}

// Builder exposes the underlying select builder for callers that wrap the
// query, for example as a subquery.
func (q Query) Builder() sq.SelectBuilder {
	return q.builder
}

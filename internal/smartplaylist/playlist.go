/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/friendsincode/smartplaylist/internal/library"
)

// AnyOrAll is how rule predicates combine. The value is persisted.
type AnyOrAll int

const (
	MatchAll AnyOrAll = 0
	MatchAny AnyOrAll = 1
)

// AnyOrAllFromID reifies a persisted combination id.
func AnyOrAllFromID(id int) (AnyOrAll, error) {
	a := AnyOrAll(id)
	if !a.Valid() {
		return 0, fmt.Errorf("any/all id %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// AnyOrAllFromName resolves "all" or "any". Empty means all.
func AnyOrAllFromName(name string) (AnyOrAll, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return MatchAll, nil
	case "any":
		return MatchAny, nil
	}
	return 0, fmt.Errorf("any/all %q: %w", name, ErrNotFound)
}

func (a AnyOrAll) ID() int     { return int(a) }
func (a AnyOrAll) Valid() bool { return a == MatchAll || a == MatchAny }

func (a AnyOrAll) String() string {
	switch a {
	case MatchAll:
		return "all"
	case MatchAny:
		return "any"
	}
	return "anyorall(" + strconv.Itoa(int(a)) + ")"
}

func (a AnyOrAll) operator() string {
	if a == MatchAny {
		return " OR "
	}
	return " AND "
}

// EndOfListAction is what playback does after the last track. The value is persisted.
type EndOfListAction int

const (
	PlayNextList EndOfListAction = 0
	Repeat       EndOfListAction = 1
	Stop         EndOfListAction = 2
)

var endOfListNames = map[EndOfListAction]string{
	PlayNextList: "play_next_list",
	Repeat:       "repeat",
	Stop:         "stop",
}

// EndOfListActionFromID reifies a persisted end-of-list id.
func EndOfListActionFromID(id int) (EndOfListAction, error) {
	e := EndOfListAction(id)
	if !e.Valid() {
		return 0, fmt.Errorf("end of list action id %d: %w", id, ErrNotFound)
	}
	return e, nil
}

// EndOfListActionFromName resolves an action by name. Empty means PlayNextList.
func EndOfListActionFromName(name string) (EndOfListAction, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PlayNextList, nil
	}
	for e, n := range endOfListNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("end of list action %q: %w", name, ErrNotFound)
}

func (e EndOfListAction) ID() int { return int(e) }

func (e EndOfListAction) Valid() bool {
	_, ok := endOfListNames[e]
	return ok
}

func (e EndOfListAction) String() string {
	if n, ok := endOfListNames[e]; ok {
		return n
	}
	return "endoflist(" + strconv.Itoa(int(e)) + ")"
}

// SmartPlaylist is a named rule set with ordering and a limit.
// Limit zero or below means no limit.
type SmartPlaylist struct {
	ID              int64
	Name            string
	AnyOrAll        AnyOrAll
	Limit           int
	OrderBy         SmartOrderBy
	EndOfListAction EndOfListAction

	rules []Rule
}

// New builds a playlist owning a copy of rules.
func New(id int64, name string, anyOrAll AnyOrAll, limit int, orderBy SmartOrderBy, endOfList EndOfListAction, rules ...Rule) *SmartPlaylist {
	p := &SmartPlaylist{
		ID:              id,
		Name:            name,
		AnyOrAll:        anyOrAll,
		Limit:           limit,
		OrderBy:         orderBy,
		EndOfListAction: endOfList,
	}
	p.rules = append([]Rule(nil), rules...)
	return p
}

// Rules returns a copy of the rule list.
func (p *SmartPlaylist) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// WithRules returns a copy of the playlist holding rules instead.
func (p *SmartPlaylist) WithRules(rules ...Rule) *SmartPlaylist {
	cp := *p
	cp.rules = append([]Rule(nil), rules...)
	return &cp
}

// Joins returns the merged joins of every rule in field declaration order,
// followed by the joins the ordering needs.
func (p *SmartPlaylist) Joins() []JoinTemplate {
	set := newJoinSet()
	for _, field := range allFields {
		for _, r := range p.rules {
			if r.field == field {
				set.add(r.Joins()...)
			}
		}
	}
	set.add(p.OrderBy.Joins()...)
	return set.list()
}

// Predicate combines the rule predicates. It is empty when there are no rules.
func (p *SmartPlaylist) Predicate() string {
	parts := make([]string, 0, len(p.rules))
	for _, r := range p.rules {
		parts = append(parts, r.WhereClause())
	}
	combined := strings.Join(parts, p.AnyOrAll.operator())
	if p.AnyOrAll == MatchAny && len(parts) > 1 {
		combined = "(" + combined + ")"
	}
	return combined
}

// Compile renders the playlist into a query selecting matching track ids.
// It is deterministic and does not validate rule operands.
func (p *SmartPlaylist) Compile() (Query, error) {
	if !p.AnyOrAll.Valid() {
		return Query{}, fmt.Errorf("%w: %s", ErrInvalidArgument, p.AnyOrAll)
	}
	if !p.OrderBy.Valid() {
		return Query{}, fmt.Errorf("%w: %s", ErrInvalidArgument, p.OrderBy)
	}
	for i, r := range p.rules {
		if r.matcher == nil || !r.field.Valid() {
			return Query{}, fmt.Errorf("%w: rule %d is empty", ErrInvalidArgument, i)
		}
	}

	b := sq.StatementBuilder.PlaceholderFormat(sq.Question).
		Select(library.MediaID.String() + " AS " + library.QuoteIdentifier(library.ViewMediaID)).
		From(library.QuoteIdentifier(library.TableMedia))

	for _, j := range p.Joins() {
		b = b.JoinClause(j.Clause())
	}

	b = b.Where(compareNumber(library.MediaType, "=", library.MediaTypeAudio))
	if pred := p.Predicate(); pred != "" {
		b = b.Where(pred)
	}

	b = b.GroupBy(library.MediaID.String())
	if sort := p.OrderBy.SortExpression(); sort != "" {
		b = b.OrderBy(sort)
	}
	if p.Limit > 0 {
		b = b.Limit(uint64(p.Limit))
	}
	return Query{builder: b}, nil
}

// ViewName is the view a compiled playlist is materialized as.
func (p *SmartPlaylist) ViewName() string {
	return library.SmartPlaylistView(p.ID)
}

// ViewStatement creates the playlist view so other playlists can reference it.
func (p *SmartPlaylist) ViewStatement() (string, error) {
	q, err := p.Compile()
	if err != nil {
		return "", err
	}
	sql, err := q.SQL()
	if err != nil {
		return "", err
	}
	return "CREATE VIEW IF NOT EXISTS " + library.QuoteIdentifier(p.ViewName()) + " AS " + sql, nil
}

// DropViewStatement removes the playlist view.
func (p *SmartPlaylist) DropViewStatement() string {
	return "DROP VIEW IF EXISTS " + library.QuoteIdentifier(p.ViewName())
}

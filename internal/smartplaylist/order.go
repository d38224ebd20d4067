/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/friendsincode/smartplaylist/internal/library"
)

// SmartOrderBy is the sort applied to a smart playlist. The value is persisted.
type SmartOrderBy int

const (
	OrderNone             SmartOrderBy = 0
	OrderRandom           SmartOrderBy = 1
	OrderTitle            SmartOrderBy = 2
	OrderAlbum            SmartOrderBy = 3
	OrderArtist           SmartOrderBy = 4
	OrderAlbumArtist      SmartOrderBy = 5
	OrderGenre            SmartOrderBy = 6
	OrderHighestRated     SmartOrderBy = 7
	OrderLowestRated      SmartOrderBy = 8
	OrderMostPlayed       SmartOrderBy = 9
	OrderLeastPlayed      SmartOrderBy = 10
	OrderRecentlyAdded    SmartOrderBy = 11
	OrderLeastRecentAdded SmartOrderBy = 12
	OrderRecentlyPlayed   SmartOrderBy = 13
	OrderLeastRecentPlay  SmartOrderBy = 14
)

type orderSpec struct {
	name  string
	sort  string
	joins []JoinTemplate
}

// Sort joins are LEFT so ordering never drops rows; a filter on the same
// alias upgrades them to INNER when merged.
var orderSpecs = map[SmartOrderBy]orderSpec{
	OrderNone:             {name: "none"},
	OrderRandom:           {name: "random", sort: "RANDOM()"},
	OrderTitle:            {name: "title", sort: library.MediaTitle.String()},
	OrderAlbum:            {name: "album", sort: library.AlbumName.String(), joins: []JoinTemplate{asLeft(albumJoin)}},
	OrderArtist:           {name: "artist", sort: library.ArtistName.As(library.AliasSongArtist).String(), joins: []JoinTemplate{asLeft(songArtistJoin)}},
	OrderAlbumArtist:      {name: "album_artist", sort: library.ArtistName.As(library.AliasAlbumArtist).String(), joins: []JoinTemplate{asLeft(albumArtistJoin)}},
	OrderGenre:            {name: "genre", sort: library.GenreName.String(), joins: []JoinTemplate{asLeft(genreMediaJoin), asLeft(genreJoin)}},
	OrderHighestRated:     {name: "highest_rated", sort: library.MediaRating.String() + " DESC"},
	OrderLowestRated:      {name: "lowest_rated", sort: library.MediaRating.String() + " ASC"},
	OrderMostPlayed:       {name: "most_played", sort: library.MediaPlayedCount.String() + " DESC"},
	OrderLeastPlayed:      {name: "least_played", sort: library.MediaPlayedCount.String() + " ASC"},
	OrderRecentlyAdded:    {name: "recently_added", sort: library.MediaTimeAdded.String() + " DESC"},
	OrderLeastRecentAdded: {name: "least_recently_added", sort: library.MediaTimeAdded.String() + " ASC"},
	OrderRecentlyPlayed:   {name: "recently_played", sort: library.MediaLastPlayed.String() + " DESC"},
	OrderLeastRecentPlay:  {name: "least_recently_played", sort: library.MediaLastPlayed.String() + " ASC"},
}

func asLeft(j JoinTemplate) JoinTemplate {
	j.Kind = LeftJoin
	return j
}

// OrderBys lists every ordering by id.
func OrderBys() []SmartOrderBy {
	out := make([]SmartOrderBy, 0, len(orderSpecs))
	for id := OrderNone; id <= OrderLeastRecentPlay; id++ {
		if _, ok := orderSpecs[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// OrderByFromID reifies a persisted ordering id.
func OrderByFromID(id int) (SmartOrderBy, error) {
	o := SmartOrderBy(id)
	if _, ok := orderSpecs[o]; !ok {
		return 0, fmt.Errorf("order by id %d: %w", id, ErrNotFound)
	}
	return o, nil
}

// OrderByFromName resolves an ordering by its symbolic name.
func OrderByFromName(name string) (SmartOrderBy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return OrderNone, nil
	}
	for id, spec := range orderSpecs {
		if spec.name == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("order by %q: %w", name, ErrNotFound)
}

func (o SmartOrderBy) ID() int { return int(o) }

// Valid reports whether o is a declared ordering.
func (o SmartOrderBy) Valid() bool {
	_, ok := orderSpecs[o]
	return ok
}

func (o SmartOrderBy) String() string {
	if spec, ok := orderSpecs[o]; ok {
		return spec.name
	}
	return "order(" + strconv.Itoa(int(o)) + ")"
}

// SortExpression is the ORDER BY term, empty for OrderNone.
func (o SmartOrderBy) SortExpression() string {
	return orderSpecs[o].sort
}

// Joins returns the joins the sort expression needs.
func (o SmartOrderBy) Joins() []JoinTemplate {
	joins := orderSpecs[o].joins
	if len(joins) == 0 {
		return nil
	}
	out := make([]JoinTemplate, len(joins))
	copy(out, joins)
	return out
}

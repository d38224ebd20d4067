/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"fmt"
	"strconv"

	"github.com/friendsincode/smartplaylist/internal/library"
)

// PlaylistMatcher tests membership in another playlist. MatcherData carries
// the target: Text is its name, First its id, Second its library.PlaylistType.
type PlaylistMatcher int

const (
	PlaylistIs    PlaylistMatcher = 1
	PlaylistIsNot PlaylistMatcher = 2
)

// PlaylistFamily holds every PlaylistMatcher.
var PlaylistFamily = newFamily("playlist",
	PlaylistIs,
	PlaylistIsNot,
)

func (m PlaylistMatcher) ID() int         { return int(m) }
func (m PlaylistMatcher) Family() *Family { return PlaylistFamily }

func (m PlaylistMatcher) String() string {
	switch m {
	case PlaylistIs:
		return "is"
	case PlaylistIsNot:
		return "is_not"
	}
	return "playlist(" + strconv.Itoa(int(m)) + ")"
}

func (m PlaylistMatcher) WillAccept(data MatcherData) bool {
	if m != PlaylistIs && m != PlaylistIsNot {
		return false
	}
	return data.First > 0 && library.PlaylistType(data.Second).Valid()
}

// Predicate tests a rules-defined target through its joined view and a
// user-created target with a self-contained subquery.
func (m PlaylistMatcher) Predicate(col library.Column, data MatcherData) string {
	if isRulesPlaylist(data) {
		member := viewMediaID(data.First).String()
		switch m {
		case PlaylistIs:
			return member + " IS NOT NULL"
		case PlaylistIsNot:
			return member + " IS NULL"
		}
		return unknownMatcher("playlist", int(m))
	}

	sub := fmt.Sprintf("(SELECT %s FROM %s WHERE %s = %d)",
		library.PlayListMediaMediaID,
		library.QuoteIdentifier(library.TablePlayListMedia),
		library.PlayListMediaPlayListID,
		data.First,
	)
	switch m {
	case PlaylistIs:
		return col.String() + " IN " + sub
	case PlaylistIsNot:
		return col.String() + " NOT IN " + sub
	}
	return unknownMatcher("playlist", int(m))
}

func (m PlaylistMatcher) Joins(data MatcherData) []JoinTemplate {
	if !isRulesPlaylist(data) {
		return nil
	}
	view := library.SmartPlaylistView(data.First)
	return []JoinTemplate{
		Left(view, "", library.MediaID.String()+" = "+viewMediaID(data.First).String()),
	}
}

// PlaylistData builds operands naming a target playlist.
func PlaylistData(name string, id int64, kind library.PlaylistType) MatcherData {
	return MatcherData{Text: name, First: id, Second: int64(kind)}
}

func isRulesPlaylist(data MatcherData) bool {
	return library.PlaylistType(data.Second) == library.PlaylistTypeRules
}

func viewMediaID(playlistID int64) library.Column {
	return library.Column{Table: library.SmartPlaylistView(playlistID), Name: library.ViewMediaID}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package library names the tables and columns of the media library schema.
package library

import (
	"strconv"
	"strings"
)

// Table names.
const (
	TableMedia             = "Media"
	TableAlbum             = "Album"
	TableArtist            = "Artist"
	TableGenre             = "Genre"
	TableGenreMedia        = "GenreMedia"
	TableComposer          = "Composer"
	TableComposerMedia     = "ComposerMedia"
	TablePlayList          = "PlayList"
	TablePlayListMedia     = "PlayListMedia"
	TableSmartPlaylistRule = "SmartPlaylistRule"
)

// Aliases used when the Artist table is joined more than once.
const (
	AliasSongArtist  = "SongArtist"
	AliasAlbumArtist = "AlbumArtist"
)

// ViewMediaID is the track id column exposed by compiled queries and views.
const ViewMediaID = "MediaId"

// Media types stored in Media.MediaType.
const (
	MediaTypeAudio = 1
	MediaTypeVideo = 2
)

// PlaylistType is the stored kind of a PlayList row.
type PlaylistType int64

const (
	PlaylistTypeUser  PlaylistType = 0
	PlaylistTypeRules PlaylistType = 1
)

// Valid reports whether t is a known playlist type.
func (t PlaylistType) Valid() bool {
	return t == PlaylistTypeUser || t == PlaylistTypeRules
}

func (t PlaylistType) String() string {
	switch t {
	case PlaylistTypeUser:
		return "user"
	case PlaylistTypeRules:
		return "rules"
	}
	return "PlaylistType(" + strconv.FormatInt(int64(t), 10) + ")"
}

// Column references a column of a library table, optionally through a join alias.
type Column struct {
	Table string
	Alias string
	Name  string
}

// Relation returns the name the column is qualified with in a query.
func (c Column) Relation() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Table
}

// As returns the same column reached through alias.
func (c Column) As(alias string) Column {
	c.Alias = alias
	return c
}

// Unaliased returns the column on its base table.
func (c Column) Unaliased() Column {
	c.Alias = ""
	return c
}

// String renders the qualified, quoted column.
func (c Column) String() string {
	return QuoteIdentifier(c.Relation()) + "." + QuoteIdentifier(c.Name)
}

// QuoteIdentifier double-quotes a SQL identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SmartPlaylistView returns the view name backing a rules-defined playlist.
func SmartPlaylistView(playlistID int64) string {
	return "SmartPlaylistView" + strconv.FormatInt(playlistID, 10)
}

// Media columns.
var (
	MediaID            = Column{Table: TableMedia, Name: "_id"}
	MediaType          = Column{Table: TableMedia, Name: "MediaType"}
	MediaTitle         = Column{Table: TableMedia, Name: "Title"}
	MediaAlbumID       = Column{Table: TableMedia, Name: "AlbumId"}
	MediaArtistID      = Column{Table: TableMedia, Name: "ArtistId"}
	MediaAlbumArtistID = Column{Table: TableMedia, Name: "AlbumArtistId"}
	MediaRating        = Column{Table: TableMedia, Name: "Rating"}
	MediaYear          = Column{Table: TableMedia, Name: "Year"}
	MediaTimeAdded     = Column{Table: TableMedia, Name: "TimeAdded"}
	MediaPlayedCount   = Column{Table: TableMedia, Name: "PlayedCount"}
	MediaLastPlayed    = Column{Table: TableMedia, Name: "LastPlayedTime"}
	MediaSkippedCount  = Column{Table: TableMedia, Name: "SkippedCount"}
	MediaLastSkipped   = Column{Table: TableMedia, Name: "LastSkippedTime"}
	MediaDuration      = Column{Table: TableMedia, Name: "Duration"}
	MediaComment       = Column{Table: TableMedia, Name: "Comment"}
	MediaDiscCount     = Column{Table: TableMedia, Name: "DiscCount"}
)

// Related table columns.
var (
	AlbumID   = Column{Table: TableAlbum, Name: "_id"}
	AlbumName = Column{Table: TableAlbum, Name: "Album"}

	ArtistID   = Column{Table: TableArtist, Name: "_id"}
	ArtistName = Column{Table: TableArtist, Name: "Artist"}

	GenreID   = Column{Table: TableGenre, Name: "_id"}
	GenreName = Column{Table: TableGenre, Name: "Genre"}

	GenreMediaGenreID = Column{Table: TableGenreMedia, Name: "GenreId"}
	GenreMediaMediaID = Column{Table: TableGenreMedia, Name: "MediaId"}

	ComposerID   = Column{Table: TableComposer, Name: "_id"}
	ComposerName = Column{Table: TableComposer, Name: "Composer"}

	ComposerMediaComposerID = Column{Table: TableComposerMedia, Name: "ComposerId"}
	ComposerMediaMediaID    = Column{Table: TableComposerMedia, Name: "MediaId"}

	PlayListMediaPlayListID = Column{Table: TablePlayListMedia, Name: "PlayListId"}
	PlayListMediaMediaID    = Column{Table: TablePlayListMedia, Name: "MediaId"}
)

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/friendsincode/smartplaylist/internal/library"
)

// RuleField is a filterable column. The value is the persisted id.
type RuleField int

const (
	FieldTitle       RuleField = 1
	FieldAlbum       RuleField = 2
	FieldArtist      RuleField = 3
	FieldAlbumArtist RuleField = 4
	FieldGenre       RuleField = 5
	FieldComposer    RuleField = 6
	FieldRating      RuleField = 7
	FieldYear        RuleField = 8
	FieldDateAdded   RuleField = 9
	FieldPlayCount   RuleField = 10
	FieldLastPlayed  RuleField = 11
	FieldSkipCount   RuleField = 12
	FieldLastSkipped RuleField = 13
	FieldDuration    RuleField = 14
	FieldPlaylist    RuleField = 15
	FieldComment     RuleField = 16
	FieldDiscCount   RuleField = 17
)

// allFields is the declaration order. Compile emits joins in this order.
var allFields = []RuleField{
	FieldTitle,
	FieldAlbum,
	FieldArtist,
	FieldAlbumArtist,
	FieldGenre,
	FieldComposer,
	FieldRating,
	FieldYear,
	FieldDateAdded,
	FieldPlayCount,
	FieldLastPlayed,
	FieldSkipCount,
	FieldLastSkipped,
	FieldDuration,
	FieldPlaylist,
	FieldComment,
	FieldDiscCount,
}

type fieldSpec struct {
	name    string
	family  *Family
	column  library.Column
	joins   []JoinTemplate
	suggest bool
}

var (
	albumJoin = Inner(library.TableAlbum, "",
		library.MediaAlbumID.String()+" = "+library.AlbumID.String())
	songArtistJoin = Inner(library.TableArtist, library.AliasSongArtist,
		library.MediaArtistID.String()+" = "+library.ArtistID.As(library.AliasSongArtist).String())
	albumArtistJoin = Inner(library.TableArtist, library.AliasAlbumArtist,
		library.MediaAlbumArtistID.String()+" = "+library.ArtistID.As(library.AliasAlbumArtist).String())
	genreMediaJoin = Inner(library.TableGenreMedia, "",
		library.MediaID.String()+" = "+library.GenreMediaMediaID.String())
	genreJoin = Inner(library.TableGenre, "",
		library.GenreMediaGenreID.String()+" = "+library.GenreID.String())
	composerMediaJoin = Inner(library.TableComposerMedia, "",
		library.MediaID.String()+" = "+library.ComposerMediaMediaID.String())
	composerJoin = Inner(library.TableComposer, "",
		library.ComposerMediaComposerID.String()+" = "+library.ComposerID.String())
)

var fieldSpecs = map[RuleField]fieldSpec{
	FieldTitle:       {name: "title", family: TextFamily, column: library.MediaTitle, suggest: true},
	FieldAlbum:       {name: "album", family: TextFamily, column: library.AlbumName, joins: []JoinTemplate{albumJoin}, suggest: true},
	FieldArtist:      {name: "artist", family: TextFamily, column: library.ArtistName.As(library.AliasSongArtist), joins: []JoinTemplate{songArtistJoin}, suggest: true},
	FieldAlbumArtist: {name: "album_artist", family: TextFamily, column: library.ArtistName.As(library.AliasAlbumArtist), joins: []JoinTemplate{albumArtistJoin}, suggest: true},
	FieldGenre:       {name: "genre", family: GenreFamily, column: library.GenreName, joins: []JoinTemplate{genreMediaJoin, genreJoin}, suggest: true},
	FieldComposer:    {name: "composer", family: TextFamily, column: library.ComposerName, joins: []JoinTemplate{composerMediaJoin, composerJoin}, suggest: true},
	FieldRating:      {name: "rating", family: RatingFamily, column: library.MediaRating},
	FieldYear:        {name: "year", family: NumberFamily, column: library.MediaYear},
	FieldDateAdded:   {name: "date_added", family: DateFamily, column: library.MediaTimeAdded},
	FieldPlayCount:   {name: "play_count", family: NumberFamily, column: library.MediaPlayedCount},
	FieldLastPlayed:  {name: "last_played", family: DateFamily, column: library.MediaLastPlayed},
	FieldSkipCount:   {name: "skip_count", family: NumberFamily, column: library.MediaSkippedCount},
	FieldLastSkipped: {name: "last_skipped", family: DateFamily, column: library.MediaLastSkipped},
	FieldDuration:    {name: "duration", family: DurationFamily, column: library.MediaDuration},
	FieldPlaylist:    {name: "playlist", family: PlaylistFamily, column: library.MediaID},
	FieldComment:     {name: "comment", family: TextFamily, column: library.MediaComment},
	FieldDiscCount:   {name: "disc_count", family: NumberFamily, column: library.MediaDiscCount},
}

// Fields returns every field in declaration order.
func Fields() []RuleField {
	out := make([]RuleField, len(allFields))
	copy(out, allFields)
	return out
}

// FieldFromID reifies a persisted field id.
func FieldFromID(id int) (RuleField, error) {
	f := RuleField(id)
	if _, ok := fieldSpecs[f]; !ok {
		return 0, fmt.Errorf("rule field id %d: %w", id, ErrNotFound)
	}
	return f, nil
}

// FieldFromName resolves a field by its symbolic name.
func FieldFromName(name string) (RuleField, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range allFields {
		if fieldSpecs[f].name == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("rule field %q: %w", name, ErrNotFound)
}

func (f RuleField) ID() int { return int(f) }

// Valid reports whether f is a declared field.
func (f RuleField) Valid() bool {
	_, ok := fieldSpecs[f]
	return ok
}

func (f RuleField) String() string {
	if spec, ok := fieldSpecs[f]; ok {
		return spec.name
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// Family is the allow-list of matchers for the field.
func (f RuleField) Family() *Family {
	return fieldSpecs[f].family
}

// Column is the column rules on this field compare against.
func (f RuleField) Column() library.Column {
	return fieldSpecs[f].column
}

// Joins returns the joins needed to reach the field's column, in dependency order.
func (f RuleField) Joins() []JoinTemplate {
	joins := fieldSpecs[f].joins
	if len(joins) == 0 {
		return nil
	}
	out := make([]JoinTemplate, len(joins))
	copy(out, joins)
	return out
}

// ReifyMatcher resolves a matcher id within the field's family.
func (f RuleField) ReifyMatcher(id int) (Matcher, error) {
	family := f.Family()
	if family == nil {
		return nil, fmt.Errorf("rule field id %d: %w", int(f), ErrNotFound)
	}
	m, err := family.FromID(id)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f, err)
	}
	return m, nil
}

// SuggestionsSource returns autocomplete for free-text fields bound to a
// library column. Other fields get NoSuggestions and never consult factory.
func (f RuleField) SuggestionsSource(factory SuggestionProviderFactory) SuggestionProvider {
	spec, ok := fieldSpecs[f]
	if !ok || !spec.suggest || factory == nil {
		return NoSuggestions
	}
	return factory.ProviderFor(spec.column.Unaliased())
}

// SuggestionProvider lists values starting with a prefix.
type SuggestionProvider interface {
	Suggestions(ctx context.Context, prefix string, limit int) ([]string, error)
}

// SuggestionProviderFactory builds providers keyed on a library column.
type SuggestionProviderFactory interface {
	ProviderFor(col library.Column) SuggestionProvider
}

// NoSuggestions always returns an empty list.
var NoSuggestions SuggestionProvider = noSuggestions{}

type noSuggestions struct{}

func (noSuggestions) Suggestions(context.Context, string, int) ([]string, error) {
	return nil, nil
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartplaylist

import (
	"errors"
	"testing"

	"github.com/friendsincode/smartplaylist/internal/library"
)

const selectPrefix = `SELECT "Media"."_id" AS "MediaId" FROM "Media"`

func compileSQL(t *testing.T, p *SmartPlaylist) string {
	t.Helper()
	q, err := p.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(args) != 0 {
		t.Fatalf("compiled query carries bind args: %v", args)
	}
	return sql
}

func TestCompile(t *testing.T) {
	blue := mustRule(t, FieldAlbum, TextContains, MatcherData{Text: "Blue"})
	dylan := mustRule(t, FieldAlbumArtist, TextContains, MatcherData{Text: "Dylan"})
	rock := mustRule(t, FieldGenre, GenreIs, MatcherData{Text: "Rock"})
	jazz := mustRule(t, FieldGenre, GenreIs, MatcherData{Text: "Jazz"})
	title := mustRule(t, FieldTitle, TextBeginsWith, MatcherData{Text: "Love"})
	artist := mustRule(t, FieldArtist, TextIs, MatcherData{Text: "Nico"})
	faves := mustRule(t, FieldPlaylist, PlaylistIs, PlaylistData("Faves", 9, library.PlaylistTypeRules))

	tests := []struct {
		name string
		p    *SmartPlaylist
		want string
	}{
		{
			name: "all album and album artist",
			p:    New(1, "Blue Dylan", MatchAll, 0, OrderNone, PlayNextList, blue, dylan),
			want: selectPrefix +
				` INNER JOIN "Album" ON "Media"."AlbumId" = "Album"."_id"` +
				` INNER JOIN "Artist" AS "AlbumArtist" ON "Media"."AlbumArtistId" = "AlbumArtist"."_id"` +
				` WHERE "Media"."MediaType" = 1 AND "Album"."Album" LIKE '%Blue%' ESCAPE '\' AND "AlbumArtist"."Artist" LIKE '%Dylan%' ESCAPE '\'` +
				` GROUP BY "Media"."_id"`,
		},
		{
			name: "joins follow field order not rule order",
			p:    New(1, "Dylan Blue", MatchAll, 0, OrderNone, PlayNextList, dylan, blue),
			want: selectPrefix +
				` INNER JOIN "Album" ON "Media"."AlbumId" = "Album"."_id"` +
				` INNER JOIN "Artist" AS "AlbumArtist" ON "Media"."AlbumArtistId" = "AlbumArtist"."_id"` +
				` WHERE "Media"."MediaType" = 1 AND "AlbumArtist"."Artist" LIKE '%Dylan%' ESCAPE '\' AND "Album"."Album" LIKE '%Blue%' ESCAPE '\'` +
				` GROUP BY "Media"."_id"`,
		},
		{
			name: "any genre",
			p:    New(2, "Rock or Jazz", MatchAny, 0, OrderNone, PlayNextList, rock, jazz),
			want: selectPrefix +
				` INNER JOIN "GenreMedia" ON "Media"."_id" = "GenreMedia"."MediaId"` +
				` INNER JOIN "Genre" ON "GenreMedia"."GenreId" = "Genre"."_id"` +
				` WHERE "Media"."MediaType" = 1 AND ("Genre"."Genre" = 'Rock' OR "Genre"."Genre" = 'Jazz')` +
				` GROUP BY "Media"."_id"`,
		},
		{
			name: "any with single rule",
			p:    New(3, "Love", MatchAny, 0, OrderNone, PlayNextList, title),
			want: selectPrefix +
				` WHERE "Media"."MediaType" = 1 AND "Media"."Title" LIKE 'Love%' ESCAPE '\'` +
				` GROUP BY "Media"."_id"`,
		},
		{
			name: "no rules random limit",
			p:    New(4, "Shuffle", MatchAll, 10, OrderRandom, Repeat),
			want: selectPrefix +
				` WHERE "Media"."MediaType" = 1 GROUP BY "Media"."_id" ORDER BY RANDOM() LIMIT 10`,
		},
		{
			name: "artist order without artist rule joins left",
			p:    New(5, "Love by artist", MatchAll, 25, OrderArtist, Stop, title),
			want: selectPrefix +
				` LEFT JOIN "Artist" AS "SongArtist" ON "Media"."ArtistId" = "SongArtist"."_id"` +
				` WHERE "Media"."MediaType" = 1 AND "Media"."Title" LIKE 'Love%' ESCAPE '\'` +
				` GROUP BY "Media"."_id" ORDER BY "SongArtist"."Artist" LIMIT 25`,
		},
		{
			name: "artist order reuses artist rule join",
			p:    New(6, "Nico", MatchAll, 0, OrderArtist, PlayNextList, artist),
			want: selectPrefix +
				` INNER JOIN "Artist" AS "SongArtist" ON "Media"."ArtistId" = "SongArtist"."_id"` +
				` WHERE "Media"."MediaType" = 1 AND "SongArtist"."Artist" = 'Nico'` +
				` GROUP BY "Media"."_id" ORDER BY "SongArtist"."Artist"`,
		},
		{
			name: "album artist order keeps song artist join",
			p:    New(7, "Nico", MatchAll, 0, OrderAlbumArtist, PlayNextList, artist),
			want: selectPrefix +
				` INNER JOIN "Artist" AS "SongArtist" ON "Media"."ArtistId" = "SongArtist"."_id"` +
				` LEFT JOIN "Artist" AS "AlbumArtist" ON "Media"."AlbumArtistId" = "AlbumArtist"."_id"` +
				` WHERE "Media"."MediaType" = 1 AND "SongArtist"."Artist" = 'Nico'` +
				` GROUP BY "Media"."_id" ORDER BY "AlbumArtist"."Artist"`,
		},
		{
			name: "rules playlist target",
			p:    New(8, "In faves", MatchAll, 0, OrderMostPlayed, PlayNextList, faves, rock),
			want: selectPrefix +
				` INNER JOIN "GenreMedia" ON "Media"."_id" = "GenreMedia"."MediaId"` +
				` INNER JOIN "Genre" ON "GenreMedia"."GenreId" = "Genre"."_id"` +
				` LEFT JOIN "SmartPlaylistView9" ON "Media"."_id" = "SmartPlaylistView9"."MediaId"` +
				` WHERE "Media"."MediaType" = 1 AND "SmartPlaylistView9"."MediaId" IS NOT NULL AND "Genre"."Genre" = 'Rock'` +
				` GROUP BY "Media"."_id" ORDER BY "Media"."PlayedCount" DESC`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := compileSQL(t, tc.p); got != tc.want {
				t.Fatalf("sql mismatch\n got: %s\nwant: %s", got, tc.want)
			}
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	p := New(1, "Mixed", MatchAny, 50, OrderGenre, PlayNextList,
		mustRule(t, FieldComposer, TextContains, MatcherData{Text: "Glass"}),
		mustRule(t, FieldGenre, GenreContains, MatcherData{Text: "Ambient"}),
		mustRule(t, FieldLastPlayed, DateNotInTheLast, InTheLastData(2, UnitWeeks)),
	)
	first := compileSQL(t, p)
	for i := 0; i < 5; i++ {
		if got := compileSQL(t, p); got != first {
			t.Fatalf("compile %d differs:\n%s\n%s", i, got, first)
		}
	}
}

func TestCompileRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		p    *SmartPlaylist
	}{
		{"any or all", New(1, "x", AnyOrAll(5), 0, OrderNone, PlayNextList)},
		{"order", New(1, "x", MatchAll, 0, SmartOrderBy(77), PlayNextList)},
		{"zero rule", New(1, "x", MatchAll, 0, OrderNone, PlayNextList, Rule{})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.p.Compile(); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestPlaylistOwnsRules(t *testing.T) {
	rules := []Rule{mustRule(t, FieldYear, NumberIs, MatcherData{First: 1977})}
	p := New(1, "1977", MatchAll, 0, OrderNone, PlayNextList, rules...)

	rules[0] = mustRule(t, FieldYear, NumberIs, MatcherData{First: 1988})
	got := p.Rules()
	if got[0].Data().First != 1977 {
		t.Fatalf("playlist aliased caller slice")
	}
	got[0] = rules[0]
	if p.Rules()[0].Data().First != 1977 {
		t.Fatalf("Rules returned internal slice")
	}
}

func TestViewStatements(t *testing.T) {
	p := New(12, "Recent", MatchAll, 0, OrderNone, PlayNextList,
		mustRule(t, FieldDateAdded, DateInTheLast, InTheLastData(7, UnitDays)))

	if p.ViewName() != "SmartPlaylistView12" {
		t.Fatalf("view name = %s", p.ViewName())
	}
	stmt, err := p.ViewStatement()
	if err != nil {
		t.Fatalf("view statement: %v", err)
	}
	want := `CREATE VIEW IF NOT EXISTS "SmartPlaylistView12" AS ` + compileSQL(t, p)
	if stmt != want {
		t.Fatalf("view statement = %s, want %s", stmt, want)
	}
	if got := p.DropViewStatement(); got != `DROP VIEW IF EXISTS "SmartPlaylistView12"` {
		t.Fatalf("drop statement = %s", got)
	}
}

func TestOrderByIDs(t *testing.T) {
	orders := OrderBys()
	if len(orders) != 15 {
		t.Fatalf("expected 15 orderings, got %d", len(orders))
	}
	for _, o := range orders {
		got, err := OrderByFromID(o.ID())
		if err != nil || got != o {
			t.Fatalf("OrderByFromID(%d) = %v, %v", o.ID(), got, err)
		}
		byName, err := OrderByFromName(o.String())
		if err != nil || byName != o {
			t.Fatalf("OrderByFromName(%q) = %v, %v", o.String(), byName, err)
		}
	}
	if OrderRandom.ID() != 1 || OrderLeastRecentPlay.ID() != 14 {
		t.Fatal("persisted order ids changed")
	}
	if OrderNone.SortExpression() != "" || len(OrderNone.Joins()) != 0 {
		t.Fatal("OrderNone must not sort or join")
	}
}

func TestEnumNames(t *testing.T) {
	if a, err := AnyOrAllFromName("ANY"); err != nil || a != MatchAny {
		t.Fatalf("AnyOrAllFromName = %v, %v", a, err)
	}
	if _, err := AnyOrAllFromID(3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if e, err := EndOfListActionFromName("stop"); err != nil || e != Stop {
		t.Fatalf("EndOfListActionFromName = %v, %v", e, err)
	}
	if e, err := EndOfListActionFromID(1); err != nil || e != Repeat {
		t.Fatalf("EndOfListActionFromID = %v, %v", e, err)
	}
}

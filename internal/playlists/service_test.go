/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlists

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"github.com/friendsincode/smartplaylist/internal/cache"
	"github.com/friendsincode/smartplaylist/internal/db"
	"github.com/friendsincode/smartplaylist/internal/events"
	"github.com/friendsincode/smartplaylist/internal/library"
	"github.com/friendsincode/smartplaylist/internal/models"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
	"github.com/friendsincode/smartplaylist/internal/store"
	"github.com/friendsincode/smartplaylist/internal/suggest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return newTestServiceWithCache(t, cache.Disabled(zerolog.Nop()))
}

func newTestServiceWithCache(t *testing.T, compiled CompiledCache) *Service {
	t.Helper()
	database, err := db.Open(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed := []any{
		&[]models.Artist{{ID: 1, Name: "Nina Simone"}, {ID: 2, Name: "Nick Drake"}},
		&[]models.Album{{ID: 1, Name: "Pastel Blues"}, {ID: 2, Name: "Pink Moon"}, {ID: 3, Name: "Bryter Layter"}},
		&[]models.Media{
			{ID: 1, MediaType: library.MediaTypeAudio, Location: "/1", Title: "Sinnerman", AlbumID: 1, ArtistID: 1, Year: 1965, Rating: 100, Duration: 622000},
			{ID: 2, MediaType: library.MediaTypeAudio, Location: "/2", Title: "Pink Moon", AlbumID: 2, ArtistID: 2, Year: 1972, Rating: 80, Duration: 124000},
			{ID: 3, MediaType: library.MediaTypeAudio, Location: "/3", Title: "Northern Sky", AlbumID: 3, ArtistID: 2, Year: 1971, Rating: 100, Duration: 226000},
			{ID: 4, MediaType: library.MediaTypeAudio, Location: "/4", Title: "Untagged", Rating: -1},
		},
	}
	for _, rows := range seed {
		if err := database.Create(rows).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	bus := events.NewBus()
	return New(Config{
		DB:              database,
		Store:           store.New(database, bus, zerolog.Nop()),
		Cache:           compiled,
		Bus:             bus,
		Suggestions:     suggest.NewFactory(database, zerolog.Nop()),
		SuggestionLimit: 10,
	}, zerolog.Nop())
}

func TestTracksInPlaylistOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Save(ctx, store.Definition{Name: "drake", OrderBy: "title", Rules: []store.RuleDefinition{
		{Field: "artist", Op: "is", Text: "Nick Drake"},
	}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	tracks, err := svc.Tracks(ctx, p.ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %+v", tracks)
	}
	if tracks[0].Title != "Northern Sky" || tracks[1].Title != "Pink Moon" {
		t.Fatalf("unexpected order %+v", tracks)
	}
	if tracks[0].Album != "Bryter Layter" || tracks[0].Artist != "Nick Drake" || tracks[0].Year != 1971 {
		t.Fatalf("unexpected details %+v", tracks[0])
	}
}

func TestTracksWithoutAlbumOrArtist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Save(ctx, store.Definition{Name: "untagged", Rules: []store.RuleDefinition{
		{Field: "title", Op: "is", Text: "Untagged"},
	}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	tracks, err := svc.Tracks(ctx, p.ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != 4 || tracks[0].Album != "" || tracks[0].Artist != "" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}
}

func TestCompileMatchesCore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Save(ctx, store.Definition{Name: "best", OrderBy: "highest_rated", Limit: 2, Rules: []store.RuleDefinition{
		{Field: "rating", Op: "is_greater_than", First: 60},
	}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	compiled, err := svc.Compile(ctx, p.ID)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	q, err := p.Compile()
	if err != nil {
		t.Fatalf("core compile: %v", err)
	}
	want, _ := q.SQL()
	if compiled.SQL != want || compiled.PlaylistID != p.ID {
		t.Fatalf("got %+v, want SQL %s", compiled, want)
	}

	if _, err := svc.Compile(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// recordingCache is an in-memory CompiledCache that records every call.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[int64]*cache.CompiledQuery
	sets        []int64
	invalidated []int64
	cleared     int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[int64]*cache.CompiledQuery{}}
}

func (c *recordingCache) GetCompiled(_ context.Context, id int64) (*cache.CompiledQuery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.entries[id]
	return q, ok
}

func (c *recordingCache) SetCompiled(_ context.Context, q *cache.CompiledQuery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[q.PlaylistID] = q
	c.sets = append(c.sets, q.PlaylistID)
	return nil
}

func (c *recordingCache) InvalidatePlaylist(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func (c *recordingCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[int64]*cache.CompiledQuery{}
	c.cleared++
	return nil
}

func (c *recordingCache) invalidations() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.invalidated...)
}

func TestSaveAndDeleteInvalidateBeforeReturning(t *testing.T) {
	rc := newRecordingCache()
	svc := newTestServiceWithCache(t, rc)
	ctx := context.Background()

	def := store.Definition{Name: "drake", Rules: []store.RuleDefinition{
		{Field: "artist", Op: "is", Text: "Nick Drake"},
	}}
	p, err := svc.Save(ctx, def)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := rc.invalidations(); !reflect.DeepEqual(got, []int64{p.ID}) {
		t.Fatalf("invalidations after create: %v", got)
	}

	first, err := svc.Compile(ctx, p.ID)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(rc.sets) != 1 {
		t.Fatalf("expected compiled query cached once, got %v", rc.sets)
	}

	def.ID = p.ID
	def.Rules[0].Text = "Nina Simone"
	if _, err := svc.Save(ctx, def); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := rc.invalidations(); !reflect.DeepEqual(got, []int64{p.ID, p.ID}) {
		t.Fatalf("invalidations after update: %v", got)
	}

	second, err := svc.Compile(ctx, p.ID)
	if err != nil {
		t.Fatalf("compile after update: %v", err)
	}
	if second.SQL == first.SQL || !strings.Contains(second.SQL, "Nina Simone") {
		t.Fatalf("stale compiled query after update: %s", second.SQL)
	}
	tracks, err := svc.Tracks(ctx, p.ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "Sinnerman" {
		t.Fatalf("unexpected tracks after update %+v", tracks)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := rc.invalidations(); len(got) != 3 || got[2] != p.ID {
		t.Fatalf("invalidations after delete: %v", got)
	}
	if _, err := svc.Compile(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCompileStartedBeforeInvalidationIsNotCached(t *testing.T) {
	rc := newRecordingCache()
	svc := newTestServiceWithCache(t, rc)
	ctx := context.Background()

	epoch := svc.currentEpoch()
	svc.forget(ctx, 7)
	svc.remember(ctx, &cache.CompiledQuery{PlaylistID: 7, SQL: "stale"}, epoch)
	if _, ok := rc.GetCompiled(ctx, 7); ok {
		t.Fatal("query compiled before the invalidation was cached")
	}

	svc.remember(ctx, &cache.CompiledQuery{PlaylistID: 7, SQL: "fresh"}, svc.currentEpoch())
	if q, ok := rc.GetCompiled(ctx, 7); !ok || q.SQL != "fresh" {
		t.Fatalf("expected fresh query cached, got %+v", q)
	}

	svc.forgetAll(ctx)
	if rc.cleared != 1 {
		t.Fatalf("expected one full invalidation, got %d", rc.cleared)
	}
}

func TestCappedSQL(t *testing.T) {
	rule, err := smartplaylist.NewRule(0, smartplaylist.FieldYear, smartplaylist.NumberIsGreaterThan, smartplaylist.NewMatcherData("", 1960, 0))
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	tests := []struct {
		name      string
		limit     int
		maxTracks int
		want      string
	}{
		{name: "no cap", limit: 0, maxTracks: 0, want: ""},
		{name: "cap only", limit: 0, maxTracks: 2, want: "LIMIT 2"},
		{name: "playlist limit tighter", limit: 1, maxTracks: 2, want: "LIMIT 1"},
		{name: "cap tighter", limit: 5, maxTracks: 2, want: "LIMIT 2"},
		{name: "playlist limit only", limit: 5, maxTracks: 0, want: "LIMIT 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smartplaylist.New(0, "draft", smartplaylist.MatchAll, tt.limit, smartplaylist.OrderTitle, smartplaylist.PlayNextList, rule)
			q, err := p.Compile()
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			sql, err := cappedSQL(q, tt.limit, tt.maxTracks)
			if err != nil {
				t.Fatalf("cappedSQL: %v", err)
			}
			if tt.want == "" {
				if strings.Contains(sql, "LIMIT") {
					t.Fatalf("unexpected limit in %s", sql)
				}
				return
			}
			if !strings.HasSuffix(sql, tt.want) || strings.Count(sql, "LIMIT") != 1 {
				t.Fatalf("expected %q at the end of %s", tt.want, sql)
			}
		})
	}
}

func TestPreviewDoesNotSave(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sql, tracks, err := svc.Preview(ctx, store.Definition{Name: "draft", OrderBy: "least_recently_added", Rules: []store.RuleDefinition{
		{Field: "year", Op: "is_in_the_range", First: 1960, Second: 1980},
	}}, 2)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(sql, `"Media"."Year" BETWEEN 1960 AND 1980`) {
		t.Fatalf("unexpected sql %s", sql)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected preview capped at 2, got %d", len(tracks))
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("preview saved a playlist: %+v", list)
	}

	_, _, err = svc.Preview(ctx, store.Definition{Name: "bad", Rules: []store.RuleDefinition{{Field: "year", Op: "is", First: -1}}}, 0)
	if !errors.Is(err, smartplaylist.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSuggestions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.Suggestions(ctx, "album", "p", 0)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if strings.Join(got, ",") != "Pastel Blues,Pink Moon" {
		t.Fatalf("unexpected album suggestions %v", got)
	}

	got, err = svc.Suggestions(ctx, "artist", "ni", 1)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(got) != 1 || got[0] != "Nick Drake" {
		t.Fatalf("unexpected artist suggestions %v", got)
	}

	got, err = svc.Suggestions(ctx, "year", "19", 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no suggestions for year, got %v, %v", got, err)
	}

	if _, err := svc.Suggestions(ctx, "mood", "x", 0); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Watch(ctx)
		close(done)
	}()

	// Saves publish while the watcher runs; a disabled cache ignores them.
	if _, err := svc.Save(context.Background(), store.Definition{Name: "watched"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestTrackQuery(t *testing.T) {
	sql, args, err := TrackQuery([]int64{3, 1})
	if err != nil {
		t.Fatalf("track query: %v", err)
	}
	if !strings.Contains(sql, `WHERE "Media"."_id" IN (?,?)`) {
		t.Fatalf("unexpected sql %s", sql)
	}
	if len(args) != 2 || args[0] != int64(3) {
		t.Fatalf("unexpected args %v", args)
	}
}

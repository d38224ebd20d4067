/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playlists compiles and runs stored smart playlists.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/smartplaylist/internal/cache"
	"github.com/friendsincode/smartplaylist/internal/events"
	"github.com/friendsincode/smartplaylist/internal/library"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
	"github.com/friendsincode/smartplaylist/internal/store"
	"github.com/friendsincode/smartplaylist/internal/telemetry"
)

// ErrUnknownField reports a suggestion request for a field name that does not exist.
var ErrUnknownField = errors.New("unknown rule field")

// CompiledCache stores compiled playlist queries. *cache.Cache implements it.
type CompiledCache interface {
	GetCompiled(ctx context.Context, playlistID int64) (*cache.CompiledQuery, bool)
	SetCompiled(ctx context.Context, q *cache.CompiledQuery) error
	InvalidatePlaylist(ctx context.Context, playlistID int64) error
	InvalidateAll(ctx context.Context) error
}

// Service compiles, caches and executes smart playlists.
type Service struct {
	db              *gorm.DB
	store           *store.Store
	cache           CompiledCache
	bus             *events.Bus
	suggestions     smartplaylist.SuggestionProviderFactory
	suggestionLimit int
	logger          zerolog.Logger

	// epoch counts invalidations; a compile that started in an older epoch
	// is not cached.
	mu    sync.Mutex
	epoch uint64
}

// Config wires a Service. Cache and Bus may be nil.
type Config struct {
	DB              *gorm.DB
	Store           *store.Store
	Cache           CompiledCache
	Bus             *events.Bus
	Suggestions     smartplaylist.SuggestionProviderFactory
	SuggestionLimit int
}

// New creates a playlist service.
func New(cfg Config, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "playlists").Logger()
	compiled := cfg.Cache
	if compiled == nil {
		compiled = cache.Disabled(logger)
	}
	return &Service{
		db:              cfg.DB,
		store:           cfg.Store,
		cache:           compiled,
		bus:             cfg.Bus,
		suggestions:     cfg.Suggestions,
		suggestionLimit: cfg.SuggestionLimit,
		logger:          logger,
	}
}

// Track is one row of a smart playlist's result.
type Track struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	Artist      string `json:"artist"`
	Year        int    `json:"year"`
	Rating      int64  `json:"rating"`
	PlayedCount int    `json:"played_count"`
	Duration    int64  `json:"duration_ms"`
}

// Get loads a stored smart playlist.
func (s *Service) Get(ctx context.Context, id int64) (*smartplaylist.SmartPlaylist, error) {
	return s.store.Load(ctx, id)
}

// List summarizes every stored smart playlist.
func (s *Service) List(ctx context.Context) ([]store.Summary, error) {
	return s.store.List(ctx)
}

// Save builds def against the stored playlists and persists it.
func (s *Service) Save(ctx context.Context, def store.Definition) (*smartplaylist.SmartPlaylist, error) {
	p, err := def.Build(s.store.Resolver(ctx))
	if err != nil {
		return nil, err
	}
	saved, err := s.store.Save(ctx, p)
	if err != nil {
		return nil, err
	}
	s.forget(ctx, saved.ID)
	return saved, nil
}

// Delete removes a stored smart playlist.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.forget(ctx, id)
	return nil
}

// forget drops the cached query of playlist id and starts a new epoch.
func (s *Service) forget(ctx context.Context, id int64) {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	if err := s.cache.InvalidatePlaylist(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("playlist_id", id).Msg("failed to invalidate compiled query")
	}
}

// forgetAll drops every cached query and starts a new epoch.
func (s *Service) forgetAll(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate compiled queries")
	}
}

func (s *Service) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// remember caches q unless an invalidation happened since epoch.
func (s *Service) remember(ctx context.Context, q *cache.CompiledQuery, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug().Int64("playlist_id", q.PlaylistID).Msg("playlist changed during compile, not caching")
		return
	}
	if err := s.cache.SetCompiled(ctx, q); err != nil {
		s.logger.Debug().Err(err).Int64("playlist_id", q.PlaylistID).Msg("failed to cache compiled query")
	}
}

// Compile returns the SQL of a stored playlist, from cache when possible.
func (s *Service) Compile(ctx context.Context, id int64) (*cache.CompiledQuery, error) {
	ctx, span := telemetry.StartSpan(ctx, "playlists", "Compile")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"playlist.id": id})

	if cached, ok := s.cache.GetCompiled(ctx, id); ok {
		telemetry.CompileTotal.WithLabelValues("cached").Inc()
		return cached, nil
	}

	epoch := s.currentEpoch()
	p, err := s.store.Load(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	_, sql, err := s.compile(p)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	compiled := &cache.CompiledQuery{PlaylistID: id, SQL: sql, CompiledAt: time.Now().UTC()}
	s.remember(ctx, compiled, epoch)
	if s.bus != nil {
		s.bus.Publish(events.EventPlaylistCompiled, events.Payload{"playlist_id": id})
	}
	return compiled, nil
}

func (s *Service) compile(p *smartplaylist.SmartPlaylist) (smartplaylist.Query, string, error) {
	start := time.Now()
	q, err := p.Compile()
	if err != nil {
		telemetry.CompileTotal.WithLabelValues("error").Inc()
		return smartplaylist.Query{}, "", err
	}
	sql, err := q.SQL()
	if err != nil {
		telemetry.CompileTotal.WithLabelValues("error").Inc()
		return smartplaylist.Query{}, "", fmt.Errorf("render playlist %d: %w", p.ID, err)
	}
	telemetry.CompileDuration.Observe(time.Since(start).Seconds())
	telemetry.CompileTotal.WithLabelValues("ok").Inc()
	telemetry.CompiledRules.Observe(float64(len(p.Rules())))

	s.logger.Debug().Int64("playlist_id", p.ID).Int("rules", len(p.Rules())).Str("sql", sql).Msg("compiled smart playlist")
	return q, sql, nil
}

// Tracks runs a stored playlist and returns its tracks in playlist order.
func (s *Service) Tracks(ctx context.Context, id int64) ([]Track, error) {
	compiled, err := s.Compile(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, compiled.SQL)
}

// Preview runs an unsaved definition. maxTracks caps the result when positive.
func (s *Service) Preview(ctx context.Context, def store.Definition, maxTracks int) (string, []Track, error) {
	p, err := def.Build(s.store.Resolver(ctx))
	if err != nil {
		return "", nil, err
	}
	q, sql, err := s.compile(p)
	if err != nil {
		return "", nil, err
	}
	capped, err := cappedSQL(q, p.Limit, maxTracks)
	if err != nil {
		return "", nil, fmt.Errorf("render preview: %w", err)
	}
	tracks, err := s.run(ctx, capped)
	if err != nil {
		return "", nil, err
	}
	return sql, tracks, nil
}

// cappedSQL renders q with its LIMIT lowered to maxTracks when maxTracks is
// positive and tighter than the playlist's own limit.
func cappedSQL(q smartplaylist.Query, limit, maxTracks int) (string, error) {
	b := q.Builder()
	if maxTracks > 0 && (limit <= 0 || maxTracks < limit) {
		b = b.Limit(uint64(maxTracks))
	}
	sql, _, err := b.ToSql()
	return sql, err
}

func (s *Service) run(ctx context.Context, sql string) ([]Track, error) {
	ctx, span := telemetry.StartSpan(ctx, "playlists", "Run")
	defer span.End()

	var rows []struct {
		MediaID int64 `gorm:"column:MediaId"`
	}
	if err := s.db.WithContext(ctx).Raw(sql).Scan(&rows).Error; err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("run playlist query: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.MediaID)
	}
	tracks, err := s.loadTracks(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.TracksReturned.Observe(float64(len(tracks)))
	telemetry.AddSpanAttributes(span, map[string]any{"playlist.tracks": len(tracks)})
	return tracks, nil
}

// loadTracks fetches track details and returns them in the order of ids.
func (s *Service) loadTracks(ctx context.Context, ids []int64) ([]Track, error) {
	if len(ids) == 0 {
		return []Track{}, nil
	}

	query, args, err := TrackQuery(ids)
	if err != nil {
		return nil, err
	}
	var found []Track
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&found).Error; err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}

	byID := make(map[int64]Track, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// TrackQuery selects the display columns of the given media ids.
func TrackQuery(ids []int64) (string, []interface{}, error) {
	songArtist := library.ArtistName.As(library.AliasSongArtist)
	return sq.StatementBuilder.PlaceholderFormat(sq.Question).
		Select(
			library.MediaID.String()+` AS "id"`,
			library.MediaTitle.String()+` AS "title"`,
			`COALESCE(`+library.AlbumName.String()+`, '') AS "album"`,
			`COALESCE(`+songArtist.String()+`, '') AS "artist"`,
			library.MediaYear.String()+` AS "year"`,
			library.MediaRating.String()+` AS "rating"`,
			library.MediaPlayedCount.String()+` AS "played_count"`,
			library.MediaDuration.String()+` AS "duration"`,
		).
		From(library.QuoteIdentifier(library.TableMedia)).
		LeftJoin(library.QuoteIdentifier(library.TableAlbum) + " ON " +
			library.MediaAlbumID.String() + " = " + library.AlbumID.String()).
		LeftJoin(library.QuoteIdentifier(library.TableArtist) + " AS " + library.QuoteIdentifier(library.AliasSongArtist) + " ON " +
			library.MediaArtistID.String() + " = " + library.ArtistID.As(library.AliasSongArtist).String()).
		Where(sq.Eq{library.MediaID.String(): ids}).
		ToSql()
}

// Suggestions lists known values of a text field starting with prefix.
// Fields without a suggestion source return nothing.
func (s *Service) Suggestions(ctx context.Context, fieldName, prefix string, limit int) ([]string, error) {
	field, err := smartplaylist.FieldFromName(fieldName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", smartplaylist.ErrInvalidArgument, fieldName, ErrUnknownField)
	}
	if limit <= 0 || (s.suggestionLimit > 0 && limit > s.suggestionLimit) {
		limit = s.suggestionLimit
	}
	return field.SuggestionsSource(s.suggestions).Suggestions(ctx, prefix, limit)
}

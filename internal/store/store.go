/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store persists smart playlists as one PlayList row plus ordered
// rule rows, and keeps each playlist's view in sync.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/smartplaylist/internal/events"
	"github.com/friendsincode/smartplaylist/internal/library"
	"github.com/friendsincode/smartplaylist/internal/models"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
	"github.com/friendsincode/smartplaylist/internal/telemetry"
)

var (
	// ErrNotFound reports a missing or non rules-defined playlist.
	ErrNotFound = errors.New("playlist not found")
	// ErrNameTaken reports a playlist name collision.
	ErrNameTaken = errors.New("playlist name already in use")
	// ErrInUse reports a delete of a playlist other smart playlists reference.
	ErrInUse = errors.New("playlist is referenced by another smart playlist")
)

// Summary describes a stored smart playlist for listings.
type Summary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Rules     int       `json:"rules"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the smart playlist DAO.
type Store struct {
	db     *gorm.DB
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates a store. bus may be nil.
func New(db *gorm.DB, bus *events.Bus, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		bus:    bus,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Save inserts or replaces a smart playlist and its rules, then recreates
// its view. A zero ID inserts. The stored playlist is returned with its id
// and normalized playlist targets.
func (s *Store) Save(ctx context.Context, p *smartplaylist.SmartPlaylist) (*smartplaylist.SmartPlaylist, error) {
	if _, err := p.Compile(); err != nil {
		return nil, err
	}

	var saved *smartplaylist.SmartPlaylist
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rules, err := normalizeTargets(tx, p)
		if err != nil {
			return err
		}

		row := models.PlayList{}
		if p.ID != 0 {
			if err := tx.First(&row, p.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("playlist %d: %w", p.ID, ErrNotFound)
				}
				return err
			}
			if row.Type != library.PlaylistTypeRules {
				return fmt.Errorf("playlist %d is not rules-defined: %w", p.ID, ErrNotFound)
			}
		}

		var taken int64
		if err := tx.Model(&models.PlayList{}).
			Where(`"PlayListName" = ? AND "_id" <> ?`, p.Name, p.ID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%q: %w", p.Name, ErrNameTaken)
		}

		row.Name = p.Name
		row.Type = library.PlaylistTypeRules
		row.SmartAnyOrAll = p.AnyOrAll.ID()
		row.SmartLimit = p.Limit
		row.SmartOrderBy = p.OrderBy.ID()
		row.SmartEndOfListAction = p.EndOfListAction.ID()
		if err := tx.Omit("Rules").Save(&row).Error; err != nil {
			return fmt.Errorf("save playlist row: %w", err)
		}

		if err := checkCycle(tx, row.ID, rules); err != nil {
			return err
		}
		if err := renameTargets(tx, row.ID, row.Name); err != nil {
			return err
		}

		if err := tx.Where(`"PlayListId" = ?`, row.ID).Delete(&models.SmartPlaylistRule{}).Error; err != nil {
			return fmt.Errorf("clear rules: %w", err)
		}
		ruleRows := make([]models.SmartPlaylistRule, 0, len(rules))
		for i, r := range rules {
			d := r.Data()
			ruleRows = append(ruleRows, models.SmartPlaylistRule{
				PlayListID: row.ID,
				Position:   i,
				FieldID:    r.Field().ID(),
				MatcherID:  r.Matcher().ID(),
				Text:       d.Text,
				First:      d.First,
				Second:     d.Second,
			})
		}
		if len(ruleRows) > 0 {
			if err := tx.Create(&ruleRows).Error; err != nil {
				return fmt.Errorf("insert rules: %w", err)
			}
		}

		stored := make([]smartplaylist.Rule, 0, len(rules))
		for i, r := range rules {
			rule, err := smartplaylist.NewRule(ruleRows[i].ID, r.Field(), r.Matcher(), r.Data())
			if err != nil {
				return err
			}
			stored = append(stored, rule)
		}
		saved = smartplaylist.New(row.ID, p.Name, p.AnyOrAll, p.Limit, p.OrderBy, p.EndOfListAction, stored...)
		return replaceView(tx, saved)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("playlist_id", saved.ID).Str("name", saved.Name).Int("rules", len(saved.Rules())).Msg("smart playlist saved")
	s.publish(events.EventPlaylistSaved, saved.ID)
	return saved, nil
}

// Load rebuilds a smart playlist from its rows. Rules whose field or
// matcher id is no longer known are skipped.
func (s *Store) Load(ctx context.Context, id int64) (*smartplaylist.SmartPlaylist, error) {
	var row models.PlayList
	err := s.db.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order(`"RulePosition"`) }).
		First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("playlist %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if row.Type != library.PlaylistTypeRules {
		return nil, fmt.Errorf("playlist %d is not rules-defined: %w", id, ErrNotFound)
	}
	if err := refreshTargetNames(s.db.WithContext(ctx), row.Rules); err != nil {
		return nil, err
	}
	return s.fromRow(row), nil
}

func (s *Store) fromRow(row models.PlayList) *smartplaylist.SmartPlaylist {
	logger := s.logger.With().Int64("playlist_id", row.ID).Logger()

	match, err := smartplaylist.AnyOrAllFromID(row.SmartAnyOrAll)
	if err != nil {
		logger.Warn().Err(err).Msg("unknown match policy, using all")
		match = smartplaylist.MatchAll
	}
	order, err := smartplaylist.OrderByFromID(row.SmartOrderBy)
	if err != nil {
		logger.Warn().Err(err).Msg("unknown ordering, using none")
		order = smartplaylist.OrderNone
	}
	endOfList, err := smartplaylist.EndOfListActionFromID(row.SmartEndOfListAction)
	if err != nil {
		logger.Warn().Err(err).Msg("unknown end of list action, using play next list")
		endOfList = smartplaylist.PlayNextList
	}

	rules := make([]smartplaylist.Rule, 0, len(row.Rules))
	for _, rr := range row.Rules {
		rule, err := ruleFromRow(rr)
		if err != nil {
			logger.Warn().Err(err).Int64("rule_id", rr.ID).Msg("skipping unreadable rule")
			telemetry.SkippedRules.Inc()
			continue
		}
		rules = append(rules, rule)
	}
	return smartplaylist.New(row.ID, row.Name, match, row.SmartLimit, order, endOfList, rules...)
}

func ruleFromRow(rr models.SmartPlaylistRule) (smartplaylist.Rule, error) {
	field, err := smartplaylist.FieldFromID(rr.FieldID)
	if err != nil {
		return smartplaylist.Rule{}, err
	}
	return smartplaylist.NewRuleFromID(rr.ID, field, rr.MatcherID, smartplaylist.NewMatcherData(rr.Text, rr.First, rr.Second))
}

// List returns every smart playlist ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var rows []models.PlayList
	err := s.db.WithContext(ctx).
		Preload("Rules").
		Where(`"PlayListType" = ?`, library.PlaylistTypeRules).
		Order(`"PlayListName"`).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summary{ID: row.ID, Name: row.Name, Rules: len(row.Rules), UpdatedAt: row.UpdatedAt})
	}
	return out, nil
}

// Delete removes a smart playlist, its rules and its view.
func (s *Store) Delete(ctx context.Context, id int64) error {
	p, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.SmartPlaylistRule{}).
			Where(`"FieldId" = ? AND "MatcherFirst" = ? AND "MatcherSecond" = ? AND "PlayListId" <> ?`,
				smartplaylist.FieldPlaylist.ID(), id, int64(library.PlaylistTypeRules), id).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("playlist %d: %w", id, ErrInUse)
		}

		if err := tx.Exec(p.DropViewStatement()).Error; err != nil {
			return fmt.Errorf("drop view: %w", err)
		}
		if err := tx.Where(`"PlayListId" = ?`, id).Delete(&models.SmartPlaylistRule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PlayList{}, id).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("playlist_id", id).Msg("smart playlist deleted")
	s.publish(events.EventPlaylistDeleted, id)
	return nil
}

// CreateUserPlaylist stores a user-created playlist holding mediaIDs in order.
func (s *Store) CreateUserPlaylist(ctx context.Context, name string, mediaIDs ...int64) (PlaylistRef, error) {
	row := models.PlayList{Name: name, Type: library.PlaylistTypeUser}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Rules").Create(&row).Error; err != nil {
			return err
		}
		items := make([]models.PlayListMedia, 0, len(mediaIDs))
		for i, id := range mediaIDs {
			items = append(items, models.PlayListMedia{PlayListID: row.ID, MediaID: id, Position: i})
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return PlaylistRef{}, fmt.Errorf("create playlist %q: %w", name, err)
	}
	return PlaylistRef{ID: row.ID, Name: row.Name, Type: row.Type}, nil
}

// Resolver returns a PlaylistResolver bound to ctx.
func (s *Store) Resolver(ctx context.Context) PlaylistResolver {
	return resolverFunc(func(name string) (PlaylistRef, error) {
		var row models.PlayList
		err := s.db.WithContext(ctx).Omit("Rules").Where(`"PlayListName" = ?`, name).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PlaylistRef{}, fmt.Errorf("%w: playlist %q: %w", smartplaylist.ErrInvalidArgument, name, ErrNotFound)
		}
		if err != nil {
			return PlaylistRef{}, err
		}
		return PlaylistRef{ID: row.ID, Name: row.Name, Type: row.Type}, nil
	})
}

type resolverFunc func(name string) (PlaylistRef, error)

func (f resolverFunc) ResolvePlaylist(name string) (PlaylistRef, error) { return f(name) }

func (s *Store) publish(eventType events.EventType, id int64) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, events.Payload{"playlist_id": id})
}

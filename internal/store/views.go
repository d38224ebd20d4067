/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/smartplaylist/internal/library"
	"github.com/friendsincode/smartplaylist/internal/models"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
)

// normalizeTargets checks every playlist rule target exists and refreshes
// its stored name and type.
func normalizeTargets(tx *gorm.DB, p *smartplaylist.SmartPlaylist) ([]smartplaylist.Rule, error) {
	rules := p.Rules()
	for i, r := range rules {
		if r.Field() != smartplaylist.FieldPlaylist {
			continue
		}
		targetID := r.Data().First
		if p.ID != 0 && targetID == p.ID {
			return nil, fmt.Errorf("%w: playlist %q references itself", smartplaylist.ErrInvalidArgument, p.Name)
		}
		var target models.PlayList
		err := tx.Omit("Rules").First(&target, targetID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rule target playlist %d: %w", smartplaylist.ErrInvalidArgument, targetID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		rules[i] = r.WithData(smartplaylist.PlaylistData(target.Name, target.ID, target.Type))
	}
	return rules, nil
}

// renameTargets rewrites the stored target name on every rule that
// references playlist id.
func renameTargets(tx *gorm.DB, id int64, name string) error {
	err := tx.Model(&models.SmartPlaylistRule{}).
		Where(`"FieldId" = ? AND "MatcherFirst" = ?`, smartplaylist.FieldPlaylist.ID(), id).
		Update("MatcherText", name).Error
	if err != nil {
		return fmt.Errorf("rename rule targets: %w", err)
	}
	return nil
}

// refreshTargetNames replaces the stored name of each playlist rule target
// with the target's current name. Targets that no longer exist keep theirs.
func refreshTargetNames(db *gorm.DB, rules []models.SmartPlaylistRule) error {
	var ids []int64
	for _, rr := range rules {
		if rr.FieldID == smartplaylist.FieldPlaylist.ID() {
			ids = append(ids, rr.First)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var targets []models.PlayList
	if err := db.Omit("Rules").Where(`"_id" IN ?`, ids).Find(&targets).Error; err != nil {
		return fmt.Errorf("load rule targets: %w", err)
	}
	names := make(map[int64]string, len(targets))
	for _, t := range targets {
		names[t.ID] = t.Name
	}
	for i, rr := range rules {
		if name, ok := names[rr.First]; ok && rr.FieldID == smartplaylist.FieldPlaylist.ID() {
			rules[i].Text = name
		}
	}
	return nil
}

// checkCycle rejects rules that reach playlist id again through rules-defined
// playlist targets.
func checkCycle(tx *gorm.DB, id int64, rules []smartplaylist.Rule) error {
	pending := viewTargets(rules)
	seen := map[int64]bool{}
	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if next == id {
			return fmt.Errorf("%w: playlist %d references itself through other playlists", smartplaylist.ErrInvalidArgument, id)
		}
		if seen[next] {
			continue
		}
		seen[next] = true

		var refs []models.SmartPlaylistRule
		err := tx.Where(`"PlayListId" = ? AND "FieldId" = ? AND "MatcherSecond" = ?`,
			next, smartplaylist.FieldPlaylist.ID(), int64(library.PlaylistTypeRules)).
			Find(&refs).Error
		if err != nil {
			return err
		}
		for _, ref := range refs {
			pending = append(pending, ref.First)
		}
	}
	return nil
}

func viewTargets(rules []smartplaylist.Rule) []int64 {
	var out []int64
	for _, r := range rules {
		d := r.Data()
		if r.Field() == smartplaylist.FieldPlaylist && library.PlaylistType(d.Second) == library.PlaylistTypeRules {
			out = append(out, d.First)
		}
	}
	return out
}

func replaceView(tx *gorm.DB, p *smartplaylist.SmartPlaylist) error {
	stmt, err := p.ViewStatement()
	if err != nil {
		return err
	}
	if err := tx.Exec(p.DropViewStatement()).Error; err != nil {
		return fmt.Errorf("drop view %s: %w", p.ViewName(), err)
	}
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create view %s: %w", p.ViewName(), err)
	}
	return nil
}

// RefreshViews drops and recreates every smart playlist view, creating
// referenced views before the views that join them.
func (s *Store) RefreshViews(ctx context.Context) error {
	var rows []models.PlayList
	err := s.db.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order(`"RulePosition"`) }).
		Where(`"PlayListType" = ?`, library.PlaylistTypeRules).
		Order(`"_id"`).
		Find(&rows).Error
	if err != nil {
		return err
	}

	byID := make(map[int64]*smartplaylist.SmartPlaylist, len(rows))
	for _, row := range rows {
		byID[row.ID] = s.fromRow(row)
	}
	ordered, err := dependencyOrder(rows, byID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(ordered) - 1; i >= 0; i-- {
			if err := tx.Exec(ordered[i].DropViewStatement()).Error; err != nil {
				return err
			}
		}
		for _, p := range ordered {
			if err := replaceView(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int("views", len(ordered)).Msg("smart playlist views refreshed")
	return nil
}

func dependencyOrder(rows []models.PlayList, byID map[int64]*smartplaylist.SmartPlaylist) ([]*smartplaylist.SmartPlaylist, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[int64]int, len(byID))
	out := make([]*smartplaylist.SmartPlaylist, 0, len(byID))

	var visit func(id int64) error
	visit = func(id int64) error {
		p, ok := byID[id]
		if !ok {
			return nil
		}
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: playlist %d is part of a reference cycle", smartplaylist.ErrInvalidArgument, id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, target := range viewTargets(p.Rules()) {
			if err := visit(target); err != nil {
				return err
			}
		}
		state[id] = done
		out = append(out, p)
		return nil
	}

	for _, row := range rows {
		if err := visit(row.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

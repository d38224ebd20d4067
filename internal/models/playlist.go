/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"

	"github.com/friendsincode/smartplaylist/internal/library"
)

// PlayList is a user-created or rules-defined playlist. The Smart* columns
// are only meaningful when Type is library.PlaylistTypeRules.
type PlayList struct {
	ID                   int64                `gorm:"column:_id;primaryKey;autoIncrement"`
	Name                 string               `gorm:"column:PlayListName;uniqueIndex"`
	Type                 library.PlaylistType `gorm:"column:PlayListType;index"`
	SmartAnyOrAll        int                  `gorm:"column:SmartAnyOrAll"`
	SmartLimit           int                  `gorm:"column:SmartLimit"`
	SmartOrderBy         int                  `gorm:"column:SmartOrderBy"`
	SmartEndOfListAction int                  `gorm:"column:SmartEndOfListAction"`
	Rules                []SmartPlaylistRule  `gorm:"foreignKey:PlayListID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time            `gorm:"column:CreatedAt"`
	UpdatedAt            time.Time            `gorm:"column:UpdatedAt"`
}

func (PlayList) TableName() string { return library.TablePlayList }

// PlayListMedia is one entry of a user-created playlist.
type PlayListMedia struct {
	ID         int64 `gorm:"column:_id;primaryKey;autoIncrement"`
	PlayListID int64 `gorm:"column:PlayListId;index"`
	MediaID    int64 `gorm:"column:MediaId;index"`
	Position   int   `gorm:"column:ItemPosition"`
}

func (PlayListMedia) TableName() string { return library.TablePlayListMedia }

// SmartPlaylistRule stores one rule of a rules-defined playlist. FieldID and
// MatcherID are the persisted ids of the rule field and its matcher.
type SmartPlaylistRule struct {
	ID         int64  `gorm:"column:_id;primaryKey;autoIncrement"`
	PlayListID int64  `gorm:"column:PlayListId;index"`
	Position   int    `gorm:"column:RulePosition"`
	FieldID    int    `gorm:"column:FieldId"`
	MatcherID  int    `gorm:"column:MatcherId"`
	Text       string `gorm:"column:MatcherText"`
	First      int64  `gorm:"column:MatcherFirst"`
	Second     int64  `gorm:"column:MatcherSecond"`
}

func (SmartPlaylistRule) TableName() string { return library.TableSmartPlaylistRule }

// PlaylistModels lists every playlist table in migration order.
func PlaylistModels() []any {
	return []any{
		&PlayList{},
		&PlayListMedia{},
		&SmartPlaylistRule{},
	}
}

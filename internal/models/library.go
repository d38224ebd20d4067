/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "github.com/friendsincode/smartplaylist/internal/library"

// Media is one track or video in the library. Times are epoch milliseconds.
// Rating is on the 0-100 scale with -1 for unrated; a zero Rating is written
// as unrated on create, so 0 star rows are set with an explicit update.
type Media struct {
	ID              int64  `gorm:"column:_id;primaryKey;autoIncrement"`
	MediaType       int    `gorm:"column:MediaType;index"`
	Location        string `gorm:"column:Location;uniqueIndex"`
	Title           string `gorm:"column:Title;index"`
	AlbumID         int64  `gorm:"column:AlbumId;index"`
	ArtistID        int64  `gorm:"column:ArtistId;index"`
	AlbumArtistID   int64  `gorm:"column:AlbumArtistId;index"`
	Rating          int64  `gorm:"column:Rating;default:-1"`
	Year            int    `gorm:"column:Year"`
	TimeAdded       int64  `gorm:"column:TimeAdded"`
	PlayedCount     int    `gorm:"column:PlayedCount"`
	LastPlayedTime  int64  `gorm:"column:LastPlayedTime"`
	SkippedCount    int    `gorm:"column:SkippedCount"`
	LastSkippedTime int64  `gorm:"column:LastSkippedTime"`
	Duration        int64  `gorm:"column:Duration"`
	Comment         string `gorm:"column:Comment"`
	DiscCount       int    `gorm:"column:DiscCount"`
}

func (Media) TableName() string { return library.TableMedia }

// Album groups media by album title.
type Album struct {
	ID   int64  `gorm:"column:_id;primaryKey;autoIncrement"`
	Name string `gorm:"column:Album;index"`
}

func (Album) TableName() string { return library.TableAlbum }

// Artist is referenced by Media both as track artist and album artist.
type Artist struct {
	ID   int64  `gorm:"column:_id;primaryKey;autoIncrement"`
	Name string `gorm:"column:Artist;index"`
}

func (Artist) TableName() string { return library.TableArtist }

// Genre is a genre name. Media and genres are many to many via GenreMedia.
type Genre struct {
	ID   int64  `gorm:"column:_id;primaryKey;autoIncrement"`
	Name string `gorm:"column:Genre;uniqueIndex"`
}

func (Genre) TableName() string { return library.TableGenre }

type GenreMedia struct {
	ID      int64 `gorm:"column:_id;primaryKey;autoIncrement"`
	GenreID int64 `gorm:"column:GenreId;uniqueIndex:idx_genre_media"`
	MediaID int64 `gorm:"column:MediaId;uniqueIndex:idx_genre_media;index"`
}

func (GenreMedia) TableName() string { return library.TableGenreMedia }

// Composer is a composer name. Media and composers are many to many via ComposerMedia.
type Composer struct {
	ID   int64  `gorm:"column:_id;primaryKey;autoIncrement"`
	Name string `gorm:"column:Composer;uniqueIndex"`
}

func (Composer) TableName() string { return library.TableComposer }

type ComposerMedia struct {
	ID         int64 `gorm:"column:_id;primaryKey;autoIncrement"`
	ComposerID int64 `gorm:"column:ComposerId;uniqueIndex:idx_composer_media"`
	MediaID    int64 `gorm:"column:MediaId;uniqueIndex:idx_composer_media;index"`
}

func (ComposerMedia) TableName() string { return library.TableComposerMedia }

// LibraryModels lists every library table in migration order.
func LibraryModels() []any {
	return []any{
		&Media{},
		&Album{},
		&Artist{},
		&Genre{},
		&GenreMedia{},
		&Composer{},
		&ComposerMedia{},
	}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/smartplaylist/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	tables := append(models.LibraryModels(), models.PlaylistModels()...)
	if err := database.AutoMigrate(tables...); err != nil {
		return err
	}

	if err := normalizeUnsetRatings(database); err != nil {
		return err
	}
	return nil
}

// normalizeUnsetRatings maps NULL and out-of-scale ratings onto the unrated marker.
func normalizeUnsetRatings(database *gorm.DB) error {
	err := database.Exec(`UPDATE "Media" SET "Rating" = -1 WHERE "Rating" IS NULL OR "Rating" < -1 OR "Rating" > 100`).Error
	if err != nil {
		return fmt.Errorf("normalize unset ratings: %w", err)
	}
	return nil
}

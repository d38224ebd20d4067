/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package suggest serves autocomplete values for free-text rule fields.
package suggest

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/smartplaylist/internal/library"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
)

// DefaultLimit caps suggestions when the caller passes no limit.
const DefaultLimit = 20

// Factory builds library-backed suggestion providers.
type Factory struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewFactory creates a suggestion factory over the library database.
func NewFactory(db *gorm.DB, logger zerolog.Logger) *Factory {
	return &Factory{db: db, logger: logger.With().Str("component", "suggest").Logger()}
}

// ProviderFor implements smartplaylist.SuggestionProviderFactory.
func (f *Factory) ProviderFor(col library.Column) smartplaylist.SuggestionProvider {
	return &columnProvider{db: f.db, logger: f.logger, col: col.Unaliased()}
}

type columnProvider struct {
	db     *gorm.DB
	logger zerolog.Logger
	col    library.Column
}

// Suggestions lists distinct non-empty values of the column starting with
// prefix, case-insensitively, in alphabetical order.
func (p *columnProvider) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	col := p.col.String()

	query, args, err := Query(p.col, prefix, limit)
	if err != nil {
		return nil, err
	}

	var values []string
	if err := p.db.WithContext(ctx).Raw(query, args...).Scan(&values).Error; err != nil {
		return nil, fmt.Errorf("suggest %s: %w", col, err)
	}
	p.logger.Debug().Str("column", col).Str("prefix", prefix).Int("count", len(values)).Msg("suggestions")
	return values, nil
}

// Query builds the suggestion statement for col.
func Query(col library.Column, prefix string, limit int) (string, []interface{}, error) {
	name := col.String()
	return sq.Select("DISTINCT "+name).
		From(library.QuoteIdentifier(col.Table)).
		Where(sq.NotEq{name: ""}).
		Where(name+` LIKE ? ESCAPE '\'`, smartplaylist.EscapeLike(prefix)+"%").
		OrderBy(name + " COLLATE NOCASE").
		Limit(uint64(limit)).
		ToSql()
}

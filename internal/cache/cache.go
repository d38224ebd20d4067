/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based cache for compiled smart playlist queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultCompiledTTL bounds how long a compiled query is served without
// an invalidation event.
const DefaultCompiledTTL = 5 * time.Minute

// Key prefixes for Redis cache
const (
	KeyPrefix       = "smartplaylist:cache:"
	KeyCompiled     = KeyPrefix + "compiled:" // + playlist_id
	KeyPlaylistList = KeyPrefix + "playlists"
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CompiledTTL time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		CompiledTTL:    DefaultCompiledTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback. A nil *Cache
// behaves as a permanently disabled cache.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance. An unreachable Redis yields a disabled
// cache rather than an error.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	if cfg.CompiledTTL <= 0 {
		cfg.CompiledTTL = DefaultCompiledTTL
	}
	logger = logger.With().Str("component", "cache").Logger()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		_ = client.Close()
		return &Cache{logger: logger, config: cfg, disabled: true}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")
	return &Cache{client: client, logger: logger, config: cfg}, nil
}

// Disabled returns a cache that never stores anything.
func Disabled(logger zerolog.Logger) *Cache {
	return &Cache{
		logger:   logger.With().Str("component", "cache").Logger(),
		config:   DefaultConfig(),
		disabled: true,
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}
	return nil
}

func (c *Cache) delete(ctx context.Context, keys ...string) error {
	if !c.IsAvailable() {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}
	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}

// CompiledQuery is the cached rendering of one smart playlist.
type CompiledQuery struct {
	PlaylistID int64     `json:"playlist_id"`
	SQL        string    `json:"sql"`
	CompiledAt time.Time `json:"compiled_at"`
}

// CompiledKey returns the cache key for a playlist's compiled query.
func CompiledKey(playlistID int64) string {
	return KeyCompiled + strconv.FormatInt(playlistID, 10)
}

// GetCompiled retrieves a cached compiled query.
func (c *Cache) GetCompiled(ctx context.Context, playlistID int64) (*CompiledQuery, bool) {
	var q CompiledQuery
	found, err := c.get(ctx, CompiledKey(playlistID), &q)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Int64("playlist_id", playlistID).Msg("compiled query cache hit")
	return &q, true
}

// SetCompiled caches a compiled query.
func (c *Cache) SetCompiled(ctx context.Context, q *CompiledQuery) error {
	if !c.IsAvailable() {
		return nil
	}
	return c.set(ctx, CompiledKey(q.PlaylistID), q, c.config.CompiledTTL)
}

// InvalidatePlaylist drops the compiled query of one playlist.
func (c *Cache) InvalidatePlaylist(ctx context.Context, playlistID int64) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Debug().Int64("playlist_id", playlistID).Msg("invalidating compiled query")
	return c.delete(ctx, CompiledKey(playlistID), KeyPlaylistList)
}

// InvalidateAll drops every compiled query. Used when a playlist other
// playlists may reference changes.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Debug().Msg("invalidating all compiled queries")
	return c.deletePattern(ctx, KeyPrefix+"*")
}

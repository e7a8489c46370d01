package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cfb-picks/logging"
	"cfb-picks/models"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCacheKey prefixes the serialized leaderboard of each generation
const LeaderboardCacheKey = "cfb-picks:leaderboard"

// LeaderboardGenerationKey counts invalidations. Entries are stored under the
// generation they were read at, so a write that races an invalidation is never served.
const LeaderboardGenerationKey = "cfb-picks:leaderboard:generation"

// ErrCacheMiss is returned when the leaderboard is not cached
var ErrCacheMiss = errors.New("cache miss")

// RedisLeaderboardCache caches the ranked leaderboard with an expiration
type RedisLeaderboardCache struct {
	client redis.Cmdable
	exp    time.Duration
	logger *logging.Logger
}

func NewRedisLeaderboardCache(client redis.Cmdable, expiration time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{
		client: client,
		exp:    expiration,
		logger: logging.WithPrefix("leaderboard_cache"),
	}
}

// Get returns the leaderboard cached for the current generation. The
// generation is returned with ErrCacheMiss too and is what Set expects.
func (c *RedisLeaderboardCache) Get(ctx context.Context) ([]models.LeaderboardEntry, int64, error) {
	gen, err := c.client.Get(ctx, LeaderboardGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("failed to read leaderboard generation: %w", err)
	}

	val, err := c.client.Get(ctx, entriesKey(gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, ErrCacheMiss
		}
		return nil, 0, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		c.logger.Warnf("Discarding unreadable cached leaderboard: %v", err)
		return nil, gen, ErrCacheMiss
	}
	return entries, gen, nil
}

// Set stores the leaderboard read at generation gen until the expiration elapses
func (c *RedisLeaderboardCache) Set(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	if err := c.client.Set(ctx, entriesKey(gen), data, c.exp).Err(); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}

// Invalidate moves to a new generation, orphaning every earlier write
func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, LeaderboardGenerationKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

func entriesKey(gen int64) string {
	return fmt.Sprintf("%s:%d", LeaderboardCacheKey, gen)
}

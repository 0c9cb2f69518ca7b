// store/leaderboard_cache.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"quiz-progression-system/models"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:top"

// NewRedisClient creates and pings a Redis client for the leaderboard
// cache.
func NewRedisClient(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	log.Println("Successfully connected to Redis.")
	return rdb, nil
}

// LeaderboardCache keeps the top-N leaderboard in a Redis sorted set,
// members being JSON-encoded entries scored by points. Refreshed by the
// leaderboard sync worker; readers fall back to the DB when it is cold.
type LeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLeaderboardCache(rdb *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb, ttl: ttl}
}

// Put replaces the cached leaderboard atomically.
func (c *LeaderboardCache) Put(ctx context.Context, entries []models.LeaderboardEntry) error {
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode leaderboard entry %s: %w", e.ID, err)
		}
		members = append(members, redis.Z{Score: float64(e.Score), Member: string(payload)})
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, leaderboardKey, members...)
	}
	if c.ttl > 0 {
		pipe.Expire(ctx, leaderboardKey, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write leaderboard cache: %w", err)
	}
	return nil
}

// Top returns up to limit entries, highest score first. An empty result
// means the cache is cold.
func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	raw, err := c.rdb.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard cache: %w", err)
	}
	entries := make([]models.LeaderboardEntry, 0, len(raw))
	for _, member := range raw {
		var e models.LeaderboardEntry
		if err := json.Unmarshal([]byte(member), &e); err != nil {
			return nil, fmt.Errorf("decode leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

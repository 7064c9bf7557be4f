package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// RedisMarkupCache keeps fetched markup snapshots in Redis so a restarted
// service can re-analyze without refetching.
type RedisMarkupCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisMarkupCache(cfg *config.RedisConfig) (*RedisMarkupCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisMarkupCache{client: client, ttl: ttl, now: time.Now}, nil
}

func snapshotKey(id string) string {
	return "pbp:snapshot:" + id
}

func latestKey(matchID string) string {
	return "pbp:latest:" + matchID
}

// Put stores markup under a fresh snapshot id and marks it as the match's latest.
func (r *RedisMarkupCache) Put(ctx context.Context, matchID, markup string) (models.Snapshot, error) {
	snap := models.Snapshot{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		Markup:    markup,
		FetchedAt: r.now().UTC(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, snapshotKey(snap.ID), data, r.ttl)
		p.Set(ctx, latestKey(matchID), snap.ID, r.ttl)
		return nil
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to store snapshot: %w", err)
	}
	return snap, nil
}

// Get returns a snapshot by id. Expired or unknown ids report false.
func (r *RedisMarkupCache) Get(ctx context.Context, id string) (models.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Latest returns the most recent snapshot stored for a match.
func (r *RedisMarkupCache) Latest(ctx context.Context, matchID string) (models.Snapshot, bool, error) {
	id, err := r.client.Get(ctx, latestKey(matchID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return r.Get(ctx, id)
}

// Close closes connection to Redis
func (r *RedisMarkupCache) Close() error {
	return r.client.Close()
}

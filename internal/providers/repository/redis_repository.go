package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/providers"
)

const (
	healthKeyPrefix = "provider:health:"
	cacheKeyPrefix  = "provider:record:"
	cacheTTL        = 5 * time.Minute
)

type providerRedisRepo struct {
	redisClient *redis.Client
}

func NewProviderRedisRepo(redisClient *redis.Client) providers.RedisRepository {
	return &providerRedisRepo{redisClient: redisClient}
}

func (r *providerRedisRepo) RecordOutcome(ctx context.Context, providerID string, success bool) error {
	key := healthKeyPrefix + providerID
	field := "failure"
	lastOK := "0"
	if success {
		field = "success"
		lastOK = "1"
	}
	pipe := r.redisClient.Pipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.HSet(ctx, key, "last_ok", lastOK)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record provider outcome: %w", err)
	}
	return nil
}

func (r *providerRedisRepo) GetHealth(ctx context.Context, providerID string) (*providers.ProviderHealth, error) {
	vals, err := r.redisClient.HGetAll(ctx, healthKeyPrefix+providerID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get provider health: %w", err)
	}
	health := &providers.ProviderHealth{}
	if len(vals) == 0 {
		return health, nil
	}
	health.HasOutcomes = true
	health.LastOK = vals["last_ok"] == "1"
	fmt.Sscanf(vals["success"], "%d", &health.Success)
	fmt.Sscanf(vals["failure"], "%d", &health.Failure)
	return health, nil
}

func (r *providerRedisRepo) CacheProvider(ctx context.Context, rec *models.ProviderRecord) error {
	// The cached copy must carry the credential, so it cannot reuse the
	// API-facing JSON shape.
	payload, err := json.Marshal(cachedProvider{
		Record:     rec,
		Credential: rec.Credential,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal provider for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, cacheKeyPrefix+rec.ID, payload, cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache provider: %w", err)
	}
	return nil
}

func (r *providerRedisRepo) GetCachedProvider(ctx context.Context, id string) (*models.ProviderRecord, error) {
	raw, err := r.redisClient.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached provider: %w", err)
	}
	var cached cachedProvider
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached provider: %w", err)
	}
	if cached.Record != nil {
		cached.Record.Credential = cached.Credential
	}
	return cached.Record, nil
}

func (r *providerRedisRepo) DeleteCachedProvider(ctx context.Context, id string) error {
	if err := r.redisClient.Del(ctx, cacheKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete cached provider: %w", err)
	}
	return nil
}

type cachedProvider struct {
	Record     *models.ProviderRecord `json:"record"`
	Credential string                 `json:"credential"`
}

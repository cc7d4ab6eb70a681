package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/shortforge/short-video-pipeline/internal/pipeline"
)

const leaseKeyPrefix = "lease:job:"

type jobRedisRepo struct {
	redisClient *redis.Client
	queueKey    string
}

func NewJobRedisRepo(redisClient *redis.Client, queueKey string) pipeline.RedisRepository {
	return &jobRedisRepo{redisClient: redisClient, queueKey: queueKey}
}

// AcquireLease is a non-blocking SETNX with TTL: the TTL bounds how long a
// crashed worker can hold a job hostage.
func (r *jobRedisRepo) AcquireLease(ctx context.Context, jobID uuid.UUID, ttl time.Duration) (bool, error) {
	locked, err := r.redisClient.SetNX(ctx, leaseKeyPrefix+jobID.String(), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}
	return locked, nil
}

func (r *jobRedisRepo) ReleaseLease(ctx context.Context, jobID uuid.UUID) error {
	if err := r.redisClient.Del(ctx, leaseKeyPrefix+jobID.String()).Err(); err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

func (r *jobRedisRepo) EnqueueJob(ctx context.Context, jobID uuid.UUID) error {
	if err := r.redisClient.LPush(ctx, r.queueKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (r *jobRedisRepo) DequeueJob(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	res, err := r.redisClient.BRPop(ctx, timeout, r.queueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	jobID, err := uuid.Parse(res[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad job id %q in queue: %w", res[1], err)
	}
	return jobID, nil
}

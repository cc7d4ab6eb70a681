package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RedisRepository provides the per-job exclusive lease and the work queue
// feeding pipeline workers.
type RedisRepository interface {
	// AcquireLease takes the job's exclusive execution lease. It returns
	// false without blocking when another worker holds it.
	AcquireLease(ctx context.Context, jobID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, jobID uuid.UUID) error

	EnqueueJob(ctx context.Context, jobID uuid.UUID) error
	// DequeueJob blocks up to timeout for the next queued job id. A zero
	// uuid with nil error means the timeout elapsed with an empty queue.
	DequeueJob(ctx context.Context, timeout time.Duration) (uuid.UUID, error)
}

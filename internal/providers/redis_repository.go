package providers

import (
	"context"

	"github.com/shortforge/short-video-pipeline/internal/models"
)

// ProviderHealth is the cross-process health view kept in Redis so the API
// can display worker-side invocation outcomes.
type ProviderHealth struct {
	Success     int64 `json:"success"`
	Failure     int64 `json:"failure"`
	LastOK      bool  `json:"last_ok"`
	HasOutcomes bool  `json:"has_outcomes"`
}

// RedisRepository keeps the advisory provider health counters and a short-TTL
// record cache shared between the API and worker processes.
type RedisRepository interface {
	RecordOutcome(ctx context.Context, providerID string, success bool) error
	GetHealth(ctx context.Context, providerID string) (*ProviderHealth, error)

	CacheProvider(ctx context.Context, rec *models.ProviderRecord) error
	GetCachedProvider(ctx context.Context, id string) (*models.ProviderRecord, error)
	DeleteCachedProvider(ctx context.Context, id string) error
}

package providers

import (
	"context"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

// Repository persists provider records and stage bindings.
type Repository interface {
	CreateProvider(ctx context.Context, rec *models.ProviderRecord) (*models.ProviderRecord, error)
	GetProviderByID(ctx context.Context, id string) (*models.ProviderRecord, error)
	ListProviders(ctx context.Context, providerType models.ProviderType, pq *utils.Pagination) (*models.ProviderList, error)
	ReplaceProvider(ctx context.Context, rec *models.ProviderRecord) (*models.ProviderRecord, error)
	DeleteProvider(ctx context.Context, id string) error

	UpsertBinding(ctx context.Context, binding *models.StageBinding) error
	GetBinding(ctx context.Context, stage models.Stage, lang models.ContentLanguage) (*models.StageBinding, error)
	ListBindings(ctx context.Context) ([]*models.StageBinding, error)
}

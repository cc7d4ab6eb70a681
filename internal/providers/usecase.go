package providers

import (
	"context"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

// UseCase is the configuration surface for provider manifests and stage
// bindings. Manifests are replaced wholesale, never patched field by field.
type UseCase interface {
	CreateProvider(ctx context.Context, input *models.ProviderUpsertInput) (*models.ProviderRecord, error)
	GetProvider(ctx context.Context, id string) (*models.ProviderRecord, error)
	ListProviders(ctx context.Context, providerType models.ProviderType, pq *utils.Pagination) (*models.ProviderList, error)
	ReplaceProvider(ctx context.Context, id string, input *models.ProviderUpsertInput) (*models.ProviderRecord, error)
	DeleteProvider(ctx context.Context, id string) error

	// TestProvider fires the manifest's first endpoint with a canned input
	// and reports the outcome; backs the dashboard's "Test provider" button.
	TestProvider(ctx context.Context, id string) (*models.InvocationResult, error)

	BindStage(ctx context.Context, binding *models.StageBinding) error
	ListBindings(ctx context.Context) ([]*models.StageBinding, error)
}

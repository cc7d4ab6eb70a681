package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shortforge/short-video-pipeline/internal/config"
	"github.com/shortforge/short-video-pipeline/internal/invoker"
	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/providers"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

type providerUC struct {
	cfg       *config.Config
	repo      providers.Repository
	redisRepo providers.RedisRepository
	registry  providers.Registry
	logger    logger.Logger
}

func NewProviderUseCase(
	cfg *config.Config,
	repo providers.Repository,
	redisRepo providers.RedisRepository,
	registry providers.Registry,
	log logger.Logger,
) providers.UseCase {
	return &providerUC{
		cfg:       cfg,
		repo:      repo,
		redisRepo: redisRepo,
		registry:  registry,
		logger:    log,
	}
}

func (u *providerUC) CreateProvider(ctx context.Context, input *models.ProviderUpsertInput) (*models.ProviderRecord, error) {
	rec, err := u.buildRecord(ctx, input)
	if err != nil {
		return nil, err
	}
	created, err := u.repo.CreateProvider(ctx, rec)
	if err != nil {
		u.logger.Errorf("CreateProvider - repo error: %v", err)
		return nil, err
	}
	created.Status = models.ProviderStatusActive
	return created, nil
}

func (u *providerUC) GetProvider(ctx context.Context, id string) (*models.ProviderRecord, error) {
	rec, err := u.repo.GetProviderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Status = u.displayStatus(ctx, rec)
	return rec, nil
}

func (u *providerUC) ListProviders(ctx context.Context, providerType models.ProviderType, pq *utils.Pagination) (*models.ProviderList, error) {
	list, err := u.repo.ListProviders(ctx, providerType, pq)
	if err != nil {
		return nil, err
	}
	for _, rec := range list.Providers {
		rec.Status = u.displayStatus(ctx, rec)
	}
	return list, nil
}

// ReplaceProvider swaps the whole manifest document. The replacement is
// validated before anything is written, and the registry cache is dropped
// only after the store accepts the new record, so concurrent invocations see
// either the old manifest or the new one, never a mix.
func (u *providerUC) ReplaceProvider(ctx context.Context, id string, input *models.ProviderUpsertInput) (*models.ProviderRecord, error) {
	existing, err := u.repo.GetProviderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := u.buildRecord(ctx, input)
	if err != nil {
		return nil, err
	}
	if rec.ID != id {
		return nil, models.NewValidationError("id", fmt.Sprintf("manifest id %q does not match provider %q", rec.ID, id))
	}
	if rec.Credential == "" {
		rec.Credential = existing.Credential
	}
	replaced, err := u.repo.ReplaceProvider(ctx, rec)
	if err != nil {
		u.logger.Errorf("ReplaceProvider - repo error: %v", err)
		return nil, err
	}
	u.dropCaches(ctx, id)
	replaced.Status = u.displayStatus(ctx, replaced)
	return replaced, nil
}

func (u *providerUC) DeleteProvider(ctx context.Context, id string) error {
	if err := u.repo.DeleteProvider(ctx, id); err != nil {
		return err
	}
	u.dropCaches(ctx, id)
	return nil
}

// TestProvider sends a canned request through the manifest's first endpoint
// so an operator can verify configuration before binding it to a stage.
func (u *providerUC) TestProvider(ctx context.Context, id string) (*models.InvocationResult, error) {
	rec, err := u.repo.GetProviderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rec.Manifest.Endpoints) == 0 {
		return nil, models.NewValidationError("endpoints", "manifest declares no endpoints")
	}
	iv := invoker.New(rec.Manifest, rec.Credential, u.cfg.Invoker, u.logger)
	res, err := iv.Invoke(ctx, rec.Manifest.Endpoints[0].Name, testInput())
	u.registry.ReportOutcome(ctx, id, err == nil)
	if err != nil {
		u.logger.Warnf("TestProvider %s failed: %v", id, err)
		return nil, err
	}
	return res, nil
}

func (u *providerUC) BindStage(ctx context.Context, binding *models.StageBinding) error {
	if err := utils.ValidateStruct(ctx, binding); err != nil {
		return models.NewValidationError("binding", err.Error())
	}
	if models.StageIndex(binding.Stage) < 0 {
		return models.NewValidationError("stage", fmt.Sprintf("unknown stage %q", binding.Stage))
	}
	rec, err := u.repo.GetProviderByID(ctx, binding.ProviderID)
	if err != nil {
		return err
	}
	if _, ok := rec.Manifest.EndpointByName(binding.Endpoint); !ok {
		return models.NewValidationError("endpoint", fmt.Sprintf("provider %q has no endpoint %q", binding.ProviderID, binding.Endpoint))
	}
	if !rec.Manifest.Capabilities.SupportsLanguage(binding.Language) {
		return models.NewValidationError("content_language", fmt.Sprintf("provider %q does not support %q", binding.ProviderID, binding.Language))
	}
	return u.repo.UpsertBinding(ctx, binding)
}

func (u *providerUC) ListBindings(ctx context.Context) ([]*models.StageBinding, error) {
	return u.repo.ListBindings(ctx)
}

func (u *providerUC) buildRecord(ctx context.Context, input *models.ProviderUpsertInput) (*models.ProviderRecord, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, models.NewValidationError("manifest", err.Error())
	}
	raw, err := json.Marshal(input.Manifest)
	if err != nil {
		return nil, models.NewValidationError("manifest", err.Error())
	}
	manifest, err := providers.ParseManifest(raw)
	if err != nil {
		return nil, err
	}
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	now := time.Now()
	return &models.ProviderRecord{
		ID:         manifest.ID,
		Name:       manifest.Name,
		Type:       manifest.ProviderType,
		Enabled:    enabled,
		Manifest:   manifest,
		Credential: input.Credential,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (u *providerUC) dropCaches(ctx context.Context, id string) {
	u.registry.Invalidate(id)
	if err := u.redisRepo.DeleteCachedProvider(ctx, id); err != nil {
		u.logger.Warnf("drop cached provider %s: %v", id, err)
	}
}

// displayStatus derives the providers-page badge: inactive when disabled,
// error when the most recent invocation failed, otherwise active. This is
// display state only and never gates execution.
func (u *providerUC) displayStatus(ctx context.Context, rec *models.ProviderRecord) models.ProviderStatus {
	if !rec.Enabled {
		return models.ProviderStatusInactive
	}
	health, err := u.redisRepo.GetHealth(ctx, rec.ID)
	if err != nil {
		u.logger.Warnf("provider health %s: %v", rec.ID, err)
		return models.ProviderStatusActive
	}
	if health.HasOutcomes && !health.LastOK {
		return models.ProviderStatusError
	}
	return models.ProviderStatusActive
}

func testInput() map[string]any {
	return map[string]any{
		"input": map[string]any{
			"topic":           "connectivity test",
			"contentLanguage": "en",
			"targetDuration":  float64(30),
			"messages": []any{
				map[string]any{"role": "user", "content": "ping"},
			},
		},
		"output": map[string]any{
			"script": map[string]any{
				"text":  "connectivity test",
				"title": "connectivity test",
			},
		},
	}
}

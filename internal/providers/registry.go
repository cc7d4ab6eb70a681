package providers

import (
	"context"
	"sync"

	"github.com/shortforge/short-video-pipeline/internal/config"
	"github.com/shortforge/short-video-pipeline/internal/invoker"
	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
)

// Caller executes one manifest endpoint end to end (template, HTTP,
// extraction, retry).
type Caller interface {
	Invoke(ctx context.Context, endpointName string, input map[string]any) (*models.InvocationResult, error)
}

// StageInvoker is a resolved (stage, language) binding ready to execute.
type StageInvoker struct {
	ProviderID string
	Endpoint   string
	Invoker    Caller
}

// Registry resolves the configured invoker for a pipeline stage. It is the
// orchestrator's only view of provider configuration.
type Registry interface {
	Resolve(ctx context.Context, stage models.Stage, lang models.ContentLanguage) (*StageInvoker, error)
	// Invalidate drops the cached invoker after a manifest replacement so the
	// next Resolve sees the new immutable manifest.
	Invalidate(providerID string)
	// ReportOutcome pushes an invocation outcome into the shared health
	// counters. Advisory only.
	ReportOutcome(ctx context.Context, providerID string, success bool)
}

type registry struct {
	repo      Repository
	redisRepo RedisRepository
	cfg       *config.Config
	logger    logger.Logger

	mu       sync.RWMutex
	invokers map[string]*invoker.Invoker
}

// NewRegistry builds the caching registry used by both the orchestrator and
// the providers usecase. Cached invokers are replaced atomically: Invalidate
// swaps the map entry out and the next Resolve rebuilds from the stored
// manifest, so no reader ever observes a half-updated manifest.
func NewRegistry(repo Repository, redisRepo RedisRepository, cfg *config.Config, log logger.Logger) Registry {
	return &registry{
		repo:      repo,
		redisRepo: redisRepo,
		cfg:       cfg,
		logger:    log,
		invokers:  make(map[string]*invoker.Invoker),
	}
}

func (r *registry) Resolve(ctx context.Context, stage models.Stage, lang models.ContentLanguage) (*StageInvoker, error) {
	binding, err := r.repo.GetBinding(ctx, stage, lang)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, &NoBindingError{Stage: stage, Language: lang}
	}

	iv, err := r.invokerFor(ctx, binding.ProviderID, lang)
	if err != nil {
		return nil, err
	}
	return &StageInvoker{
		ProviderID: binding.ProviderID,
		Endpoint:   binding.Endpoint,
		Invoker:    iv,
	}, nil
}

func (r *registry) invokerFor(ctx context.Context, providerID string, lang models.ContentLanguage) (*invoker.Invoker, error) {
	r.mu.RLock()
	iv, ok := r.invokers[providerID]
	r.mu.RUnlock()
	if ok {
		if !iv.Manifest().Capabilities.SupportsLanguage(lang) {
			return nil, &LanguageUnsupportedError{ProviderID: providerID, Language: lang}
		}
		return iv, nil
	}

	rec, err := r.lookupRecord(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !rec.Enabled {
		return nil, ErrProviderDisabled
	}
	if !rec.Manifest.Capabilities.SupportsLanguage(lang) {
		return nil, &LanguageUnsupportedError{ProviderID: providerID, Language: lang}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.invokers[providerID]; ok {
		return existing, nil
	}
	iv = invoker.New(rec.Manifest, rec.Credential, r.cfg.Invoker, r.logger)
	r.invokers[providerID] = iv
	return iv, nil
}

func (r *registry) lookupRecord(ctx context.Context, providerID string) (*models.ProviderRecord, error) {
	if r.redisRepo != nil {
		if rec, err := r.redisRepo.GetCachedProvider(ctx, providerID); err == nil && rec != nil {
			return rec, nil
		}
	}
	rec, err := r.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if r.redisRepo != nil {
		if err := r.redisRepo.CacheProvider(ctx, rec); err != nil {
			r.logger.Warnf("cache provider %s: %v", providerID, err)
		}
	}
	return rec, nil
}

func (r *registry) Invalidate(providerID string) {
	r.mu.Lock()
	delete(r.invokers, providerID)
	r.mu.Unlock()
}

func (r *registry) ReportOutcome(ctx context.Context, providerID string, success bool) {
	if r.redisRepo == nil {
		return
	}
	if err := r.redisRepo.RecordOutcome(ctx, providerID, success); err != nil {
		r.logger.Warnf("record provider outcome %s: %v", providerID, err)
	}
}

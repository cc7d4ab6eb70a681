package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/providers"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

type providerRepo struct {
	db *sqlx.DB
}

func NewProviderRepo(db *sqlx.DB) providers.Repository {
	return &providerRepo{db: db}
}

// providerRow is the storage shape; the manifest column is a JSONB document
// re-parsed on read so callers always hold a validated manifest.
type providerRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Type       string    `db:"provider_type"`
	Enabled    bool      `db:"enabled"`
	Credential string    `db:"credential"`
	Manifest   []byte    `db:"manifest"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *providerRow) toRecord() (*models.ProviderRecord, error) {
	manifest, err := providers.ParseManifest(r.Manifest)
	if err != nil {
		return nil, fmt.Errorf("stored manifest %s is invalid: %w", r.ID, err)
	}
	return &models.ProviderRecord{
		ID:         r.ID,
		Name:       r.Name,
		Type:       models.ProviderType(r.Type),
		Enabled:    r.Enabled,
		Manifest:   manifest,
		Credential: r.Credential,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func (p *providerRepo) CreateProvider(ctx context.Context, rec *models.ProviderRecord) (*models.ProviderRecord, error) {
	raw, err := providers.SerializeManifest(rec.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	var row providerRow
	if err := p.db.QueryRowxContext(
		ctx,
		createProviderQuery,
		rec.ID,
		rec.Name,
		rec.Type,
		rec.Enabled,
		rec.Credential,
		raw,
	).StructScan(&row); err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return row.toRecord()
}

func (p *providerRepo) GetProviderByID(ctx context.Context, id string) (*models.ProviderRecord, error) {
	var row providerRow
	if err := p.db.GetContext(ctx, &row, getProviderByIDQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, providers.ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return row.toRecord()
}

func (p *providerRepo) ListProviders(ctx context.Context, providerType models.ProviderType, pq *utils.Pagination) (*models.ProviderList, error) {
	var totalCount int
	if err := p.db.GetContext(ctx, &totalCount, getTotalProvidersQuery, string(providerType)); err != nil {
		return nil, fmt.Errorf("failed to get providers count: %w", err)
	}
	if totalCount == 0 {
		return &models.ProviderList{
			Providers:  make([]*models.ProviderRecord, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}
	rows, err := p.db.QueryxContext(ctx, listProvidersQuery, string(providerType), pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()
	recs := make([]*models.ProviderRecord, 0, pq.GetSize())
	for rows.Next() {
		var row providerRow
		if err = rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan providers: %w", err)
	}
	return &models.ProviderList{
		Providers:  recs,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

func (p *providerRepo) ReplaceProvider(ctx context.Context, rec *models.ProviderRecord) (*models.ProviderRecord, error) {
	raw, err := providers.SerializeManifest(rec.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	var row providerRow
	if err := p.db.QueryRowxContext(
		ctx,
		replaceProviderQuery,
		rec.ID,
		rec.Name,
		rec.Type,
		rec.Enabled,
		rec.Credential,
		raw,
	).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, providers.ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to replace provider: %w", err)
	}
	return row.toRecord()
}

func (p *providerRepo) DeleteProvider(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, deleteProviderQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	if affected == 0 {
		return providers.ErrProviderNotFound
	}
	return nil
}

func (p *providerRepo) UpsertBinding(ctx context.Context, binding *models.StageBinding) error {
	if _, err := p.db.ExecContext(
		ctx,
		upsertBindingQuery,
		binding.Stage,
		binding.Language,
		binding.ProviderID,
		binding.Endpoint,
	); err != nil {
		return fmt.Errorf("failed to upsert binding: %w", err)
	}
	return nil
}

func (p *providerRepo) GetBinding(ctx context.Context, stage models.Stage, lang models.ContentLanguage) (*models.StageBinding, error) {
	var binding models.StageBinding
	if err := p.db.GetContext(ctx, &binding, getBindingQuery, stage, lang); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}
	return &binding, nil
}

func (p *providerRepo) ListBindings(ctx context.Context) ([]*models.StageBinding, error) {
	rows, err := p.db.QueryxContext(ctx, listBindingsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()
	var bindings []*models.StageBinding
	for rows.Next() {
		var b models.StageBinding
		if err = rows.StructScan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		bindings = append(bindings, &b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan bindings: %w", err)
	}
	return bindings, nil
}

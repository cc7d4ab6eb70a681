package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/pipeline"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

type jobRepo struct {
	db *sqlx.DB
}

func NewJobRepo(db *sqlx.DB) pipeline.Repository {
	return &jobRepo{db: db}
}

type jobRow struct {
	JobID           uuid.UUID `db:"job_id"`
	Topic           string    `db:"topic"`
	ContentLanguage string    `db:"content_language"`
	TargetDuration  int       `db:"target_duration"`
	Style           string    `db:"style"`
	Status          string    `db:"status"`
	FailedStage     string    `db:"failed_stage"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *jobRow) toJob() *models.Job {
	return &models.Job{
		JobID:           r.JobID,
		Topic:           r.Topic,
		ContentLanguage: models.ContentLanguage(r.ContentLanguage),
		TargetDuration:  r.TargetDuration,
		Style:           r.Style,
		Status:          models.JobStatus(r.Status),
		FailedStage:     models.Stage(r.FailedStage),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type stageResultRow struct {
	JobID      uuid.UUID `db:"job_id"`
	Stage      string    `db:"stage"`
	Status     string    `db:"status"`
	Output     []byte    `db:"output"`
	Error      string    `db:"error_message"`
	DurationMs int64     `db:"duration_ms"`
	Attempts   int       `db:"attempts"`
	ArtifactS3 string    `db:"artifact_s3_key"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *stageResultRow) toResult() (*models.StageResult, error) {
	res := &models.StageResult{
		JobID:      r.JobID,
		Stage:      models.Stage(r.Stage),
		Status:     models.StageStatus(r.Status),
		Error:      r.Error,
		DurationMs: r.DurationMs,
		Attempts:   r.Attempts,
		ArtifactS3: r.ArtifactS3,
		CreatedAt:  r.CreatedAt,
	}
	if len(r.Output) > 0 {
		if err := json.Unmarshal(r.Output, &res.Output); err != nil {
			return nil, fmt.Errorf("failed to decode stage output: %w", err)
		}
	}
	return res, nil
}

func (j *jobRepo) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	var row jobRow
	if err := j.db.QueryRowxContext(
		ctx,
		createJobQuery,
		job.JobID,
		job.Topic,
		job.ContentLanguage,
		job.TargetDuration,
		job.Style,
		job.Status,
	).StructScan(&row); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	created := row.toJob()
	created.StageResults = []models.StageResult{}
	return created, nil
}

func (j *jobRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	var row jobRow
	if err := j.db.GetContext(ctx, &row, getJobByIDQuery, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pipeline.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	job := row.toJob()
	results, err := j.stageResults(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.StageResults = results
	return job, nil
}

func (j *jobRepo) stageResults(ctx context.Context, jobID uuid.UUID) ([]models.StageResult, error) {
	rows, err := j.db.QueryxContext(ctx, getStageResultsQuery, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage results: %w", err)
	}
	defer rows.Close()
	results := make([]models.StageResult, 0, len(models.StageOrder))
	for rows.Next() {
		var row stageResultRow
		if err = rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan stage result: %w", err)
		}
		res, err := row.toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan stage results: %w", err)
	}
	// Pipeline order, not insertion order, so the dashboard renders rows
	// stably.
	sort.Slice(results, func(a, b int) bool {
		return models.StageIndex(results[a].Stage) < models.StageIndex(results[b].Stage)
	})
	return results, nil
}

func (j *jobRepo) ListJobs(ctx context.Context, status models.JobStatus, pq *utils.Pagination) (*models.JobList, error) {
	var totalCount int
	if err := j.db.GetContext(ctx, &totalCount, getTotalJobsQuery, string(status)); err != nil {
		return nil, fmt.Errorf("failed to get jobs count: %w", err)
	}
	if totalCount == 0 {
		return &models.JobList{
			Jobs:       make([]*models.Job, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}
	rows, err := j.db.QueryxContext(ctx, listJobsQuery, string(status), pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()
	jobs := make([]*models.Job, 0, pq.GetSize())
	for rows.Next() {
		var row jobRow
		if err = rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, row.toJob())
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}
	for _, job := range jobs {
		results, err := j.stageResults(ctx, job.JobID)
		if err != nil {
			return nil, err
		}
		job.StageResults = results
	}
	return &models.JobList{
		Jobs:       jobs,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

// AppendStageResult writes the stage outcome and the job's new status in one
// transaction, so a job is never observed with a result but a stale status.
func (j *jobRepo) AppendStageResult(ctx context.Context, jobID uuid.UUID, result *models.StageResult, newStatus models.JobStatus, failedStage models.Stage) (*models.Job, error) {
	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var output []byte
	if result.Output != nil {
		if output, err = json.Marshal(result.Output); err != nil {
			return nil, fmt.Errorf("failed to encode stage output: %w", err)
		}
	}
	if _, err = tx.ExecContext(
		ctx,
		insertStageResultQuery,
		jobID,
		result.Stage,
		result.Status,
		output,
		result.Error,
		result.DurationMs,
		result.Attempts,
		result.ArtifactS3,
	); err != nil {
		return nil, fmt.Errorf("failed to insert stage result: %w", err)
	}
	if _, err = tx.ExecContext(ctx, updateJobStatusQuery, jobID, newStatus, failedStage); err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stage result: %w", err)
	}
	return j.GetJobByID(ctx, jobID)
}

func (j *jobRepo) InvalidateFrom(ctx context.Context, jobID uuid.UUID, stage models.Stage, newStatus models.JobStatus) (*models.Job, error) {
	idx := models.StageIndex(stage)
	if idx < 0 {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
	invalidated := make([]string, 0, len(models.StageOrder)-idx)
	for _, s := range models.StageOrder[idx:] {
		invalidated = append(invalidated, string(s))
	}

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := sqlx.In(deleteStageResultsFromQuery, jobID, invalidated)
	if err != nil {
		return nil, fmt.Errorf("failed to build invalidate query: %w", err)
	}
	if _, err = tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to invalidate stage results: %w", err)
	}
	if _, err = tx.ExecContext(ctx, updateJobStatusQuery, jobID, newStatus, ""); err != nil {
		return nil, fmt.Errorf("failed to rewind job status: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invalidation: %w", err)
	}
	return j.GetJobByID(ctx, jobID)
}

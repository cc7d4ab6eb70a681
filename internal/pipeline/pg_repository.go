package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

// Repository is the durable job store. Stage results are an append-only log;
// the only destructive operation is the invalidation performed by a rerun.
type Repository interface {
	CreateJob(ctx context.Context, job *models.Job) (*models.Job, error)
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, status models.JobStatus, pq *utils.Pagination) (*models.JobList, error)

	// AppendStageResult durably records one stage outcome and moves the job
	// to newStatus in the same transaction. failedStage is empty unless
	// newStatus is error.
	AppendStageResult(ctx context.Context, jobID uuid.UUID, result *models.StageResult, newStatus models.JobStatus, failedStage models.Stage) (*models.Job, error)

	// InvalidateFrom deletes the results of stage and every later stage and
	// rewinds the job to newStatus, clearing any failed-stage marker.
	InvalidateFrom(ctx context.Context, jobID uuid.UUID, stage models.Stage, newStatus models.JobStatus) (*models.Job, error)
}

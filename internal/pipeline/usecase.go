package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

// UseCase drives jobs through the content pipeline. Stage execution is
// at-most-once per successful transition; RerunStage is the only way to
// execute a stage again.
type UseCase interface {
	CreateJob(ctx context.Context, input *models.JobCreateInput) (*models.Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, status models.JobStatus, pq *utils.Pagination) (*models.JobList, error)

	// AdvanceStage executes the job's next stage. When requested is non-empty
	// and the job is already past it, the call is a no-op returning the job
	// with its existing result. On stage failure the job is parked in error
	// and returned alongside a *StageFailedError.
	AdvanceStage(ctx context.Context, jobID uuid.UUID, requested models.Stage) (*models.Job, error)

	// RerunStage re-executes one already-executed (or failed) stage with the
	// same input-construction rule. Results of later stages are invalidated
	// first; they must be re-run in order.
	RerunStage(ctx context.Context, jobID uuid.UUID, stage models.Stage) (*models.Job, error)

	// StageArtifactURL returns a presigned download link for the raw
	// invocation record archived when the stage completed.
	StageArtifactURL(ctx context.Context, jobID uuid.UUID, stage models.Stage) (string, error)
}

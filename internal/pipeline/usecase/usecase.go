package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shortforge/short-video-pipeline/internal/config"
	"github.com/shortforge/short-video-pipeline/internal/invoker"
	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/pipeline"
	"github.com/shortforge/short-video-pipeline/internal/providers"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

type pipelineUC struct {
	cfg       *config.Config
	jobRepo   pipeline.Repository
	redisRepo pipeline.RedisRepository
	awsRepo   pipeline.AWSRepository
	registry  providers.Registry
	logger    logger.Logger
}

func NewPipelineUseCase(
	cfg *config.Config,
	jobRepo pipeline.Repository,
	redisRepo pipeline.RedisRepository,
	awsRepo pipeline.AWSRepository,
	registry providers.Registry,
	log logger.Logger,
) pipeline.UseCase {
	return &pipelineUC{
		cfg:       cfg,
		jobRepo:   jobRepo,
		redisRepo: redisRepo,
		awsRepo:   awsRepo,
		registry:  registry,
		logger:    log,
	}
}

func (u *pipelineUC) CreateJob(ctx context.Context, input *models.JobCreateInput) (*models.Job, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, models.NewValidationError("job", err.Error())
	}
	job := &models.Job{
		JobID:           uuid.New(),
		Topic:           input.Topic,
		ContentLanguage: input.ContentLanguage,
		TargetDuration:  input.TargetDuration,
		Style:           input.Style,
		Status:          models.JobStatusDraft,
	}
	created, err := u.jobRepo.CreateJob(ctx, job)
	if err != nil {
		u.logger.Errorf("CreateJob - repo error: %v", err)
		return nil, err
	}
	if err := u.redisRepo.EnqueueJob(ctx, created.JobID); err != nil {
		// The job exists either way; a worker will pick it up on the next
		// queue scan or manual advance.
		u.logger.Warnf("CreateJob - enqueue %s: %v", created.JobID, err)
	}
	return created, nil
}

func (u *pipelineUC) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return u.jobRepo.GetJobByID(ctx, jobID)
}

func (u *pipelineUC) ListJobs(ctx context.Context, status models.JobStatus, pq *utils.Pagination) (*models.JobList, error) {
	return u.jobRepo.ListJobs(ctx, status, pq)
}

// AdvanceStage executes the job's next stage under the job's exclusive
// lease. Within one job, stages run strictly in pipeline order: the next
// invocation never starts before this one's result is durably recorded.
func (u *pipelineUC) AdvanceStage(ctx context.Context, jobID uuid.UUID, requested models.Stage) (*models.Job, error) {
	return u.withLease(ctx, jobID, func(job *models.Job) (*models.Job, error) {
		if job.Status == models.JobStatusError {
			return job, pipeline.ErrJobErrored
		}
		next, ok := models.NextStageFor(job.Status)
		if !ok {
			// Published: nothing left to execute, idempotent no-op.
			return job, nil
		}
		if requested != "" && requested != next {
			if idx := models.StageIndex(requested); idx >= 0 && idx < models.StageIndex(next) {
				// Already past the requested stage: return the existing
				// result instead of re-executing.
				return job, nil
			}
			return job, &pipeline.InvalidStageError{Stage: requested, Reason: fmt.Sprintf("next stage is %q", next)}
		}
		return u.executeStage(ctx, job, next)
	})
}

// RerunStage re-executes one stage the job has already attempted. Later
// stage results are invalidated first: once an earlier stage's output
// changes, no later output can be trusted.
func (u *pipelineUC) RerunStage(ctx context.Context, jobID uuid.UUID, stage models.Stage) (*models.Job, error) {
	return u.withLease(ctx, jobID, func(job *models.Job) (*models.Job, error) {
		if models.StageIndex(stage) < 0 {
			return job, &pipeline.InvalidStageError{Stage: stage, Reason: "unknown stage"}
		}
		_, hasResult := job.StageResultFor(stage)
		if !hasResult && !(job.Status == models.JobStatusError && job.FailedStage == stage) {
			return job, &pipeline.InvalidStageError{Stage: stage, Reason: "stage has not executed yet"}
		}
		rewound, ok := models.StatusBefore(stage)
		if !ok {
			return job, &pipeline.InvalidStageError{Stage: stage, Reason: "unknown stage"}
		}
		job, err := u.jobRepo.InvalidateFrom(ctx, job.JobID, stage, rewound)
		if err != nil {
			return nil, err
		}
		return u.executeStage(ctx, job, stage)
	})
}

func (u *pipelineUC) StageArtifactURL(ctx context.Context, jobID uuid.UUID, stage models.Stage) (string, error) {
	job, err := u.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	res, ok := job.StageResultFor(stage)
	if !ok || res.ArtifactS3 == "" {
		return "", &pipeline.InvalidStageError{Stage: stage, Reason: "no artifact recorded"}
	}
	if u.awsRepo == nil {
		return "", &pipeline.InvalidStageError{Stage: stage, Reason: "artifact storage not configured"}
	}
	return u.awsRepo.GetArtifactURL(ctx, res.ArtifactS3)
}

// withLease runs fn while holding the job's exclusive execution lease. At
// most one in-flight stage execution is permitted per job; a concurrent
// caller observes ErrJobBusy rather than executing the stage twice.
func (u *pipelineUC) withLease(ctx context.Context, jobID uuid.UUID, fn func(*models.Job) (*models.Job, error)) (*models.Job, error) {
	acquired, err := u.redisRepo.AcquireLease(ctx, jobID, u.cfg.Pipeline.LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire job lease: %w", err)
	}
	if !acquired {
		return nil, pipeline.ErrJobBusy
	}
	defer func() {
		if err := u.redisRepo.ReleaseLease(context.Background(), jobID); err != nil {
			u.logger.Warnf("release lease %s: %v", jobID, err)
		}
	}()

	job, err := u.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return fn(job)
}

func (u *pipelineUC) executeStage(ctx context.Context, job *models.Job, stage models.Stage) (*models.Job, error) {
	bound, err := u.registry.Resolve(ctx, stage, job.ContentLanguage)
	if err != nil {
		u.logger.Errorf("job %s stage %s: resolve provider: %v", job.JobID, stage, err)
		return u.parkError(ctx, job, stage, 0, 0, err)
	}

	input := buildInputContext(job)
	stageCtx, cancel := context.WithTimeout(ctx, u.cfg.Pipeline.StageDeadline)
	defer cancel()

	started := time.Now()
	result, invokeErr := bound.Invoker.Invoke(stageCtx, bound.Endpoint, input)
	u.registry.ReportOutcome(ctx, bound.ProviderID, invokeErr == nil)

	// Caller cancellation leaves the job exactly as it was: no partial
	// stage result is ever written.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if invokeErr == nil && result.Empty() {
		invokeErr = pipeline.ErrEmptyStageOutput
	}
	if invokeErr != nil {
		attempts := 0
		if result != nil {
			attempts = result.Attempts
		}
		// On failure the attempt count rides on the invoker error, not the
		// result.
		var invErr *invoker.Error
		if errors.As(invokeErr, &invErr) && invErr.Attempts > 0 {
			attempts = invErr.Attempts
		}
		u.logger.Warnf("job %s stage %s failed: %v", job.JobID, stage, invokeErr)
		return u.parkError(ctx, job, stage, time.Since(started), attempts, invokeErr)
	}

	newStatus, _ := models.StatusAfter(stage)
	stageResult := &models.StageResult{
		JobID:      job.JobID,
		Stage:      stage,
		Status:     models.StageStatusSuccess,
		Output:     result.Output,
		DurationMs: result.Elapsed.Milliseconds(),
		Attempts:   result.Attempts,
	}
	stageResult.ArtifactS3 = u.archiveArtifact(ctx, job.JobID, stage, result)

	updated, err := u.jobRepo.AppendStageResult(ctx, job.JobID, stageResult, newStatus, "")
	if err != nil {
		return nil, err
	}
	u.logger.Infof("job %s stage %s completed in %s (%d attempts)",
		job.JobID, stage, result.Elapsed, result.Attempts)
	return updated, nil
}

func (u *pipelineUC) parkError(ctx context.Context, job *models.Job, stage models.Stage, elapsed time.Duration, attempts int, cause error) (*models.Job, error) {
	stageResult := &models.StageResult{
		JobID:      job.JobID,
		Stage:      stage,
		Status:     models.StageStatusError,
		Error:      cause.Error(),
		DurationMs: elapsed.Milliseconds(),
		Attempts:   attempts,
	}
	updated, err := u.jobRepo.AppendStageResult(ctx, job.JobID, stageResult, models.JobStatusError, stage)
	if err != nil {
		return nil, err
	}
	return updated, &pipeline.StageFailedError{Stage: stage, Cause: cause}
}

// archiveArtifact uploads the raw invocation record for audit. Best effort;
// a storage hiccup never fails the stage.
func (u *pipelineUC) archiveArtifact(ctx context.Context, jobID uuid.UUID, stage models.Stage, result *models.InvocationResult) string {
	if u.awsRepo == nil {
		return ""
	}
	payload, err := json.Marshal(result)
	if err != nil {
		u.logger.Warnf("marshal artifact %s/%s: %v", jobID, stage, err)
		return ""
	}
	key, err := u.awsRepo.PutStageArtifact(ctx, jobID, stage, payload)
	if err != nil {
		u.logger.Warnf("archive artifact %s/%s: %v", jobID, stage, err)
		return ""
	}
	return key
}

// buildInputContext assembles the mapping the template engine resolves
// against: job-level fields under input, plus every prior stage's output
// keyed by stage name under output.
func buildInputContext(job *models.Job) map[string]any {
	outputs := make(map[string]any)
	for i := range job.StageResults {
		res := &job.StageResults[i]
		if res.Status != models.StageStatusSuccess {
			continue
		}
		converted := make(map[string]any, len(res.Output))
		for k, v := range res.Output {
			converted[k] = v
		}
		outputs[string(res.Stage)] = converted
	}
	return map[string]any{
		"input": map[string]any{
			"topic":           job.Topic,
			"contentLanguage": string(job.ContentLanguage),
			"targetDuration":  float64(job.TargetDuration),
			"style":           job.Style,
			"messages": []any{
				map[string]any{
					"role":    "user",
					"content": fmt.Sprintf("Create a %ds short-form video script about: %s", job.TargetDuration, job.Topic),
				},
			},
		},
		"output": outputs,
	}
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
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

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.Job

	appendCalls int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*models.Job)}
}

func cloneJob(job *models.Job) *models.Job {
	cp := *job
	cp.StageResults = append([]models.StageResult(nil), job.StageResults...)
	return &cp
}

func (r *fakeJobRepo) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	r.jobs[job.JobID] = cloneJob(job)
	return cloneJob(job), nil
}

func (r *fakeJobRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, pipeline.ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (r *fakeJobRepo) ListJobs(ctx context.Context, status models.JobStatus, pq *utils.Pagination) (*models.JobList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := &models.JobList{}
	for _, job := range r.jobs {
		if status != "" && job.Status != status {
			continue
		}
		list.Jobs = append(list.Jobs, cloneJob(job))
	}
	list.TotalCount = len(list.Jobs)
	return list, nil
}

func (r *fakeJobRepo) AppendStageResult(ctx context.Context, jobID uuid.UUID, result *models.StageResult, newStatus models.JobStatus, failedStage models.Stage) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendCalls++
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, pipeline.ErrJobNotFound
	}
	res := *result
	res.CreatedAt = time.Now()
	job.StageResults = append(job.StageResults, res)
	job.Status = newStatus
	job.FailedStage = failedStage
	job.UpdatedAt = time.Now()
	return cloneJob(job), nil
}

func (r *fakeJobRepo) InvalidateFrom(ctx context.Context, jobID uuid.UUID, stage models.Stage, newStatus models.JobStatus) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, pipeline.ErrJobNotFound
	}
	cutoff := models.StageIndex(stage)
	kept := job.StageResults[:0]
	for _, res := range job.StageResults {
		if models.StageIndex(res.Stage) < cutoff {
			kept = append(kept, res)
		}
	}
	job.StageResults = kept
	job.Status = newStatus
	job.FailedStage = ""
	job.UpdatedAt = time.Now()
	return cloneJob(job), nil
}

func (r *fakeJobRepo) put(job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.JobID] = cloneJob(job)
}

type fakeRedisRepo struct {
	mu     sync.Mutex
	leases map[uuid.UUID]bool
	queue  []uuid.UUID
}

func newFakeRedisRepo() *fakeRedisRepo {
	return &fakeRedisRepo{leases: make(map[uuid.UUID]bool)}
}

func (r *fakeRedisRepo) AcquireLease(ctx context.Context, jobID uuid.UUID, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.leases[jobID] {
		return false, nil
	}
	r.leases[jobID] = true
	return true, nil
}

func (r *fakeRedisRepo) ReleaseLease(ctx context.Context, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.leases, jobID)
	return nil
}

func (r *fakeRedisRepo) EnqueueJob(ctx context.Context, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, jobID)
	return nil
}

func (r *fakeRedisRepo) DequeueJob(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return uuid.Nil, nil
	}
	id := r.queue[0]
	r.queue = r.queue[1:]
	return id, nil
}

type fakeCaller struct {
	invoke func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error)
}

func (c *fakeCaller) Invoke(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
	return c.invoke(ctx, endpoint, input)
}

type fakeRegistry struct {
	caller     *fakeCaller
	resolveErr error

	mu       sync.Mutex
	outcomes []bool
}

func (r *fakeRegistry) Resolve(ctx context.Context, stage models.Stage, lang models.ContentLanguage) (*providers.StageInvoker, error) {
	if r.resolveErr != nil {
		return nil, r.resolveErr
	}
	return &providers.StageInvoker{ProviderID: "prov-1", Endpoint: "generate", Invoker: r.caller}, nil
}

func (r *fakeRegistry) Invalidate(providerID string) {}

func (r *fakeRegistry) ReportOutcome(ctx context.Context, providerID string, success bool) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, success)
	r.mu.Unlock()
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			LeaseTTL:      time.Minute,
			StageDeadline: time.Minute,
		},
	}
}

func newTestUC(repo *fakeJobRepo, redis *fakeRedisRepo, reg *fakeRegistry) pipeline.UseCase {
	return NewPipelineUseCase(testConfig(), repo, redis, nil, reg, logger.NewNopLogger())
}

func successCaller(output map[string]any) *fakeCaller {
	return &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		return &models.InvocationResult{Output: output, Elapsed: 5 * time.Millisecond, Attempts: 1}, nil
	}}
}

func seedJob(repo *fakeJobRepo, status models.JobStatus, results ...models.StageResult) *models.Job {
	job := &models.Job{
		JobID:           uuid.New(),
		Topic:           "why cats purr",
		ContentLanguage: models.LanguageEnglish,
		TargetDuration:  45,
		Status:          status,
		StageResults:    results,
	}
	repo.put(job)
	return job
}

func successResult(jobID uuid.UUID, stage models.Stage, output map[string]any) models.StageResult {
	return models.StageResult{
		JobID:  jobID,
		Stage:  stage,
		Status: models.StageStatusSuccess,
		Output: output,
	}
}

type fakeAWSRepo struct{}

func (fakeAWSRepo) PutStageArtifact(ctx context.Context, jobID uuid.UUID, stage models.Stage, payload []byte) (string, error) {
	return "jobs/" + jobID.String() + "/" + string(stage) + ".json", nil
}

func (fakeAWSRepo) GetArtifactURL(ctx context.Context, key string) (string, error) {
	return "https://signed.example/" + key, nil
}

func TestStageArtifactURL(t *testing.T) {
	repo := newFakeJobRepo()
	uc := NewPipelineUseCase(testConfig(), repo, newFakeRedisRepo(), fakeAWSRepo{}, &fakeRegistry{caller: successCaller(nil)}, logger.NewNopLogger())

	job := seedJob(repo, models.JobStatusScripted)
	job.StageResults = []models.StageResult{{
		Stage:      models.StageScript,
		Status:     models.StageStatusSuccess,
		Output:     map[string]any{"text": "a script"},
		ArtifactS3: "jobs/" + job.JobID.String() + "/script.json",
	}}
	repo.put(job)

	url, err := uc.StageArtifactURL(context.Background(), job.JobID, models.StageScript)
	if err != nil {
		t.Fatalf("StageArtifactURL: %v", err)
	}
	want := "https://signed.example/jobs/" + job.JobID.String() + "/script.json"
	if url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}

	var invalidErr *pipeline.InvalidStageError
	if _, err := uc.StageArtifactURL(context.Background(), job.JobID, models.StageVoice); !errors.As(err, &invalidErr) {
		t.Fatalf("voice artifact err = %v, want InvalidStageError", err)
	}
}

func TestCreateJobEnqueues(t *testing.T) {
	repo := newFakeJobRepo()
	redis := newFakeRedisRepo()
	uc := newTestUC(repo, redis, &fakeRegistry{caller: successCaller(nil)})

	job, err := uc.CreateJob(context.Background(), &models.JobCreateInput{
		Topic:           "why cats purr",
		ContentLanguage: models.LanguageEnglish,
		TargetDuration:  45,
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Status != models.JobStatusDraft {
		t.Fatalf("status = %q, want draft", job.Status)
	}
	if len(redis.queue) != 1 || redis.queue[0] != job.JobID {
		t.Fatalf("job not enqueued: %v", redis.queue)
	}
}

func TestCreateJobRejectsInvalidInput(t *testing.T) {
	uc := newTestUC(newFakeJobRepo(), newFakeRedisRepo(), &fakeRegistry{caller: successCaller(nil)})

	_, err := uc.CreateJob(context.Background(), &models.JobCreateInput{
		Topic:           "",
		ContentLanguage: "fr",
		TargetDuration:  0,
	})
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAdvanceStageRunsNext(t *testing.T) {
	repo := newFakeJobRepo()
	redis := newFakeRedisRepo()
	reg := &fakeRegistry{caller: successCaller(map[string]any{"text": "a script"})}
	uc := newTestUC(repo, redis, reg)

	job := seedJob(repo, models.JobStatusDraft)

	updated, err := uc.AdvanceStage(context.Background(), job.JobID, "")
	if err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if updated.Status != models.JobStatusScripted {
		t.Fatalf("status = %q, want scripted", updated.Status)
	}
	res, ok := updated.StageResultFor(models.StageScript)
	if !ok || res.Status != models.StageStatusSuccess {
		t.Fatalf("script result missing or not success: %+v", updated.StageResults)
	}
	if res.Output["text"] != "a script" {
		t.Fatalf("output = %v", res.Output)
	}
	if len(reg.outcomes) != 1 || !reg.outcomes[0] {
		t.Fatalf("outcomes = %v, want one success", reg.outcomes)
	}
	if len(redis.leases) != 0 {
		t.Fatalf("lease not released: %v", redis.leases)
	}
}

func TestAdvanceStagePipesPriorOutputs(t *testing.T) {
	repo := newFakeJobRepo()
	var seenInput map[string]any
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		seenInput = input
		return &models.InvocationResult{Output: map[string]any{"audioUrl": "s3://voice.mp3"}, Attempts: 1}, nil
	}}
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusScripted)
	job.StageResults = []models.StageResult{
		successResult(job.JobID, models.StageScript, map[string]any{"text": "a script"}),
	}
	repo.put(job)

	if _, err := uc.AdvanceStage(context.Background(), job.JobID, ""); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	outputs, ok := seenInput["output"].(map[string]any)
	if !ok {
		t.Fatalf("input missing output section: %v", seenInput)
	}
	script, ok := outputs["script"].(map[string]any)
	if !ok || script["text"] != "a script" {
		t.Fatalf("script output not piped: %v", outputs)
	}
	input, ok := seenInput["input"].(map[string]any)
	if !ok || input["topic"] != "why cats purr" {
		t.Fatalf("job fields not piped: %v", seenInput["input"])
	}
}

func TestAdvanceStageIdempotentWhenPast(t *testing.T) {
	repo := newFakeJobRepo()
	calls := 0
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		calls++
		return &models.InvocationResult{Output: map[string]any{"text": "again"}, Attempts: 1}, nil
	}}
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusVoiced,
		successResult(uuid.Nil, models.StageScript, map[string]any{"text": "a script"}),
		successResult(uuid.Nil, models.StageVoice, map[string]any{"audioUrl": "s3://voice.mp3"}),
	)

	updated, err := uc.AdvanceStage(context.Background(), job.JobID, models.StageScript)
	if err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if calls != 0 {
		t.Fatalf("stage re-executed %d times, want 0", calls)
	}
	if updated.Status != models.JobStatusVoiced {
		t.Fatalf("status = %q, want voiced", updated.Status)
	}
	res, _ := updated.StageResultFor(models.StageScript)
	if res == nil || res.Output["text"] != "a script" {
		t.Fatalf("existing result not preserved: %+v", res)
	}
}

func TestAdvanceStageRejectsFutureStage(t *testing.T) {
	repo := newFakeJobRepo()
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: successCaller(nil)})

	job := seedJob(repo, models.JobStatusDraft)

	_, err := uc.AdvanceStage(context.Background(), job.JobID, models.StageEdit)
	var invalidErr *pipeline.InvalidStageError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("err = %v, want InvalidStageError", err)
	}
}

func TestAdvanceStagePublishedIsNoOp(t *testing.T) {
	repo := newFakeJobRepo()
	calls := 0
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		calls++
		return &models.InvocationResult{Attempts: 1}, nil
	}}
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusPublished)

	updated, err := uc.AdvanceStage(context.Background(), job.JobID, "")
	if err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if calls != 0 || updated.Status != models.JobStatusPublished {
		t.Fatalf("published job was advanced: calls=%d status=%q", calls, updated.Status)
	}
}

func TestAdvanceStageErroredJob(t *testing.T) {
	repo := newFakeJobRepo()
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: successCaller(nil)})

	job := seedJob(repo, models.JobStatusError)
	job.FailedStage = models.StageVoice
	repo.put(job)

	_, err := uc.AdvanceStage(context.Background(), job.JobID, "")
	if !errors.Is(err, pipeline.ErrJobErrored) {
		t.Fatalf("err = %v, want ErrJobErrored", err)
	}
}

func TestAdvanceStageEmptyOutputParksJob(t *testing.T) {
	repo := newFakeJobRepo()
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		return &models.InvocationResult{Output: map[string]any{"text": ""}, Attempts: 1}, nil
	}}
	reg := &fakeRegistry{caller: caller}
	uc := newTestUC(repo, newFakeRedisRepo(), reg)

	job := seedJob(repo, models.JobStatusScripted,
		successResult(uuid.Nil, models.StageScript, map[string]any{"text": "a script"}),
	)

	updated, err := uc.AdvanceStage(context.Background(), job.JobID, "")
	var stageErr *pipeline.StageFailedError
	if !errors.As(err, &stageErr) {
		t.Fatalf("err = %v, want StageFailedError", err)
	}
	if !errors.Is(err, pipeline.ErrEmptyStageOutput) {
		t.Fatalf("cause = %v, want ErrEmptyStageOutput", err)
	}
	if updated.Status != models.JobStatusError || updated.FailedStage != models.StageVoice {
		t.Fatalf("status=%q failed=%q, want error/voice", updated.Status, updated.FailedStage)
	}
	// The script result survives the voice failure.
	if res, ok := updated.StageResultFor(models.StageScript); !ok || res.Status != models.StageStatusSuccess {
		t.Fatalf("prior result lost: %+v", updated.StageResults)
	}
	if updated.LastSuccessfulStatus() != models.JobStatusScripted {
		t.Fatalf("last successful = %q, want scripted", updated.LastSuccessfulStatus())
	}
}

func TestAdvanceStageFailureRecordsAttempts(t *testing.T) {
	repo := newFakeJobRepo()
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		return nil, &invoker.Error{Kind: invoker.KindTransient, Endpoint: endpoint, Attempts: 3}
	}}
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusScripted,
		successResult(uuid.Nil, models.StageScript, map[string]any{"text": "a script"}),
	)

	updated, err := uc.AdvanceStage(context.Background(), job.JobID, "")
	var stageErr *pipeline.StageFailedError
	if !errors.As(err, &stageErr) {
		t.Fatalf("err = %v, want StageFailedError", err)
	}
	res, ok := updated.StageResultFor(models.StageVoice)
	if !ok || res.Status != models.StageStatusError {
		t.Fatalf("voice failure not recorded: %+v", updated.StageResults)
	}
	if res.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", res.Attempts)
	}
}

func TestAdvanceStageResolveFailureParksJob(t *testing.T) {
	repo := newFakeJobRepo()
	reg := &fakeRegistry{resolveErr: &providers.NoBindingError{Stage: models.StageScript, Language: models.LanguageEnglish}}
	uc := newTestUC(repo, newFakeRedisRepo(), reg)

	job := seedJob(repo, models.JobStatusDraft)

	updated, err := uc.AdvanceStage(context.Background(), job.JobID, "")
	var stageErr *pipeline.StageFailedError
	if !errors.As(err, &stageErr) {
		t.Fatalf("err = %v, want StageFailedError", err)
	}
	if updated.Status != models.JobStatusError || updated.FailedStage != models.StageScript {
		t.Fatalf("status=%q failed=%q, want error/script", updated.Status, updated.FailedStage)
	}
}

func TestAdvanceStageConcurrentCallerSeesBusy(t *testing.T) {
	repo := newFakeJobRepo()
	redis := newFakeRedisRepo()
	entered := make(chan struct{})
	release := make(chan struct{})
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		close(entered)
		<-release
		return &models.InvocationResult{Output: map[string]any{"text": "a script"}, Attempts: 1}, nil
	}}
	uc := newTestUC(repo, redis, &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusDraft)

	done := make(chan error, 1)
	go func() {
		_, err := uc.AdvanceStage(context.Background(), job.JobID, "")
		done <- err
	}()
	<-entered

	if _, err := uc.AdvanceStage(context.Background(), job.JobID, ""); !errors.Is(err, pipeline.ErrJobBusy) {
		t.Fatalf("concurrent advance err = %v, want ErrJobBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first advance: %v", err)
	}
	got, _ := repo.GetJobByID(context.Background(), job.JobID)
	if got.Status != models.JobStatusScripted {
		t.Fatalf("status = %q, want scripted", got.Status)
	}
}

func TestAdvanceStageCancellationLeavesJobUntouched(t *testing.T) {
	repo := newFakeJobRepo()
	ctx, cancel := context.WithCancel(context.Background())
	caller := &fakeCaller{invoke: func(callCtx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		cancel()
		<-callCtx.Done()
		return nil, callCtx.Err()
	}}
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusDraft)

	_, err := uc.AdvanceStage(ctx, job.JobID, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	got, _ := repo.GetJobByID(context.Background(), job.JobID)
	if got.Status != models.JobStatusDraft || len(got.StageResults) != 0 {
		t.Fatalf("cancelled execution wrote state: status=%q results=%d", got.Status, len(got.StageResults))
	}
}

func TestRerunStageInvalidatesLaterStages(t *testing.T) {
	repo := newFakeJobRepo()
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		return &models.InvocationResult{Output: map[string]any{"audioUrl": "s3://voice-v2.mp3"}, Attempts: 1}, nil
	}}
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusAsseted,
		successResult(uuid.Nil, models.StageScript, map[string]any{"text": "a script"}),
		successResult(uuid.Nil, models.StageVoice, map[string]any{"audioUrl": "s3://voice-v1.mp3"}),
		successResult(uuid.Nil, models.StageAssets, map[string]any{"clips": "three"}),
	)

	updated, err := uc.RerunStage(context.Background(), job.JobID, models.StageVoice)
	if err != nil {
		t.Fatalf("RerunStage: %v", err)
	}
	if updated.Status != models.JobStatusVoiced {
		t.Fatalf("status = %q, want voiced", updated.Status)
	}
	if _, ok := updated.StageResultFor(models.StageAssets); ok {
		t.Fatalf("assets result survived voice rerun: %+v", updated.StageResults)
	}
	voice, ok := updated.StageResultFor(models.StageVoice)
	if !ok || voice.Output["audioUrl"] != "s3://voice-v2.mp3" {
		t.Fatalf("voice result not replaced: %+v", voice)
	}
	if script, ok := updated.StageResultFor(models.StageScript); !ok || script.Output["text"] != "a script" {
		t.Fatalf("earlier result lost: %+v", updated.StageResults)
	}
}

func TestRerunStageRecoversErroredJob(t *testing.T) {
	repo := newFakeJobRepo()
	caller := &fakeCaller{invoke: func(ctx context.Context, endpoint string, input map[string]any) (*models.InvocationResult, error) {
		return &models.InvocationResult{Output: map[string]any{"audioUrl": "s3://voice.mp3"}, Attempts: 2}, nil
	}}
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: caller})

	job := seedJob(repo, models.JobStatusError,
		successResult(uuid.Nil, models.StageScript, map[string]any{"text": "a script"}),
		models.StageResult{Stage: models.StageVoice, Status: models.StageStatusError, Error: "server error"},
	)
	job.FailedStage = models.StageVoice
	repo.put(job)

	updated, err := uc.RerunStage(context.Background(), job.JobID, models.StageVoice)
	if err != nil {
		t.Fatalf("RerunStage: %v", err)
	}
	if updated.Status != models.JobStatusVoiced || updated.FailedStage != "" {
		t.Fatalf("status=%q failed=%q, want voiced with cleared failure", updated.Status, updated.FailedStage)
	}
	voice, ok := updated.StageResultFor(models.StageVoice)
	if !ok || voice.Status != models.StageStatusSuccess || voice.Attempts != 2 {
		t.Fatalf("voice result = %+v", voice)
	}
}

func TestRerunStageNotYetExecuted(t *testing.T) {
	repo := newFakeJobRepo()
	uc := newTestUC(repo, newFakeRedisRepo(), &fakeRegistry{caller: successCaller(nil)})

	job := seedJob(repo, models.JobStatusScripted,
		successResult(uuid.Nil, models.StageScript, map[string]any{"text": "a script"}),
	)

	_, err := uc.RerunStage(context.Background(), job.JobID, models.StageEdit)
	var invalidErr *pipeline.InvalidStageError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("err = %v, want InvalidStageError", err)
	}
}

func TestAdvanceStageUnknownJob(t *testing.T) {
	uc := newTestUC(newFakeJobRepo(), newFakeRedisRepo(), &fakeRegistry{caller: successCaller(nil)})

	_, err := uc.AdvanceStage(context.Background(), uuid.New(), "")
	if !errors.Is(err, pipeline.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

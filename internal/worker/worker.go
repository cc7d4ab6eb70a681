package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shortforge/short-video-pipeline/internal/config"
	"github.com/shortforge/short-video-pipeline/internal/pipeline"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

const dequeueTimeout = 5 * time.Second

// Worker drains the job queue and drives each job through its remaining
// stages. Per-job exclusivity comes from the orchestrator's lease, so
// multiple workers never double-execute a stage.
type Worker struct {
	cfg        *config.Config
	pipelineUC pipeline.UseCase
	redisRepo  pipeline.RedisRepository
	logger     logger.Logger
	wg         sync.WaitGroup
}

func NewWorker(cfg *config.Config, pipelineUC pipeline.UseCase, redisRepo pipeline.RedisRepository, log logger.Logger) *Worker {
	return &Worker{
		cfg:        cfg,
		pipelineUC: pipelineUC,
		redisRepo:  redisRepo,
		logger:     log,
	}
}

// Start launches the worker pool. It returns immediately; Wait blocks until
// every worker has observed ctx cancellation and drained its current job.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Infof("starting %d pipeline workers", w.cfg.Worker.WorkerCount)
	for i := 0; i < w.cfg.Worker.WorkerCount; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !ok {
			w.logger.Infof("worker %d: CPU usage %.1f%% above limit, backing off", id, usage)
			if !sleepCtx(ctx, w.cfg.Worker.PollInterval) {
				return
			}
			continue
		}

		jobID, err := w.redisRepo.DequeueJob(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("worker %d: dequeue: %v", id, err)
			if !sleepCtx(ctx, w.cfg.Worker.PollInterval) {
				return
			}
			continue
		}
		if jobID == uuid.Nil {
			continue
		}
		w.processJob(ctx, id, jobID)
	}
}

// processJob advances one job until it reaches a terminal status or a stage
// fails. A busy lease means another worker owns the job; it is not requeued
// because the owner will finish it.
func (w *Worker) processJob(ctx context.Context, id int, jobID uuid.UUID) {
	for {
		job, err := w.pipelineUC.AdvanceStage(ctx, jobID, "")
		switch {
		case err == nil:
			if job.Terminal() {
				w.logger.Infof("worker %d: job %s reached %s", id, jobID, job.Status)
				return
			}
		case errors.Is(err, pipeline.ErrJobBusy):
			w.logger.Debugf("worker %d: job %s busy, skipping", id, jobID)
			return
		case errors.Is(err, pipeline.ErrJobErrored):
			return
		default:
			var stageErr *pipeline.StageFailedError
			if errors.As(err, &stageErr) {
				w.logger.Warnf("worker %d: job %s parked at stage %s: %v", id, jobID, stageErr.Stage, stageErr.Cause)
				return
			}
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("worker %d: advance job %s: %v", id, jobID, err)
			return
		}

		if ok, _ := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !ok {
			// Hand the rest of the job to a less loaded worker.
			if requeueErr := w.redisRepo.EnqueueJob(ctx, jobID); requeueErr != nil {
				w.logger.Warnf("worker %d: requeue job %s: %v", id, jobID, requeueErr)
			}
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/pipeline"
	"github.com/shortforge/short-video-pipeline/pkg/httpErrors"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

type jobHandler struct {
	pipelineUC pipeline.UseCase
	logger     logger.Logger
}

func NewJobHandler(pipelineUC pipeline.UseCase, log logger.Logger) pipeline.Handler {
	return &jobHandler{pipelineUC: pipelineUC, logger: log}
}

func (h *jobHandler) CreateJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.JobCreateInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid request payload")))
		}
		job, err := h.pipelineUC.CreateJob(c.Request().Context(), input)
		if err != nil {
			h.logger.Errorf("CreateJob: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusCreated, jobView(job))
	}
}

func (h *jobHandler) ListJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		pq, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError(err.Error())))
		}
		list, err := h.pipelineUC.ListJobs(c.Request().Context(), models.JobStatus(c.QueryParam("status")), pq)
		if err != nil {
			h.logger.Errorf("ListJobs: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		views := make([]*JobView, 0, len(list.Jobs))
		for _, job := range list.Jobs {
			views = append(views, jobView(job))
		}
		return c.JSON(http.StatusOK, &JobListView{
			Jobs:       views,
			TotalCount: list.TotalCount,
			Page:       list.Page,
			PageSize:   list.PageSize,
			HasMore:    list.HasMore,
		})
	}
}

func (h *jobHandler) GetJobByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid job id")))
		}
		job, err := h.pipelineUC.GetJob(c.Request().Context(), jobID)
		if err != nil {
			return c.JSON(jobErrorResponse(err))
		}
		return c.JSON(http.StatusOK, jobView(job))
	}
}

func (h *jobHandler) AdvanceStage() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid job id")))
		}
		requested := models.Stage(c.QueryParam("stage"))
		job, err := h.pipelineUC.AdvanceStage(c.Request().Context(), jobID, requested)
		if err != nil {
			var stageErr *pipeline.StageFailedError
			if errors.As(err, &stageErr) && job != nil {
				// The job is parked in error with the cause preserved; the
				// dashboard renders it from the job body.
				return c.JSON(http.StatusOK, jobView(job))
			}
			h.logger.Errorf("AdvanceStage: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(jobErrorResponse(err))
		}
		return c.JSON(http.StatusOK, jobView(job))
	}
}

func (h *jobHandler) RerunStage() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid job id")))
		}
		stage := models.Stage(c.Param("stage"))
		job, err := h.pipelineUC.RerunStage(c.Request().Context(), jobID, stage)
		if err != nil {
			var stageErr *pipeline.StageFailedError
			if errors.As(err, &stageErr) && job != nil {
				return c.JSON(http.StatusOK, jobView(job))
			}
			h.logger.Errorf("RerunStage: %v, requestID: %s", err, utils.GetRequestID(c))
			return c.JSON(jobErrorResponse(err))
		}
		return c.JSON(http.StatusOK, jobView(job))
	}
}

func (h *jobHandler) StageArtifactURL() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(httpErrors.NewBadRequestError("invalid job id")))
		}
		url, err := h.pipelineUC.StageArtifactURL(c.Request().Context(), jobID, models.Stage(c.Param("stage")))
		if err != nil {
			return c.JSON(jobErrorResponse(err))
		}
		return c.JSON(http.StatusOK, map[string]string{"url": url})
	}
}

func jobErrorResponse(err error) (int, interface{}) {
	var invalidStage *pipeline.InvalidStageError
	switch {
	case errors.Is(err, pipeline.ErrJobNotFound):
		return httpErrors.ErrorResponse(httpErrors.NewNotFoundError(err.Error()))
	case errors.Is(err, pipeline.ErrJobBusy):
		return httpErrors.ErrorResponse(httpErrors.NewConflictError(err.Error()))
	case errors.Is(err, pipeline.ErrJobErrored), errors.As(err, &invalidStage):
		return httpErrors.ErrorResponse(httpErrors.NewBadRequestError(err.Error()))
	default:
		return httpErrors.ErrorResponse(err)
	}
}

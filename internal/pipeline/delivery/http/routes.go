package http

import (
	"github.com/labstack/echo/v4"

	"github.com/shortforge/short-video-pipeline/internal/pipeline"
)

func MapJobRoutes(jobGroup *echo.Group, h pipeline.Handler) {
	jobGroup.POST("", h.CreateJob())
	jobGroup.GET("", h.ListJobs())
	jobGroup.GET("/:job_id", h.GetJobByID())
	jobGroup.POST("/:job_id/advance", h.AdvanceStage())
	jobGroup.POST("/:job_id/rerun/:stage", h.RerunStage())
	jobGroup.GET("/:job_id/artifacts/:stage", h.StageArtifactURL())
}

package pipeline

import "github.com/labstack/echo/v4"

type Handler interface {
	CreateJob() echo.HandlerFunc
	ListJobs() echo.HandlerFunc
	GetJobByID() echo.HandlerFunc
	AdvanceStage() echo.HandlerFunc
	RerunStage() echo.HandlerFunc
	StageArtifactURL() echo.HandlerFunc
}

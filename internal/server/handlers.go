package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shortforge/short-video-pipeline/internal/middleware"
	pipelineHttp "github.com/shortforge/short-video-pipeline/internal/pipeline/delivery/http"
	pipelineRepository "github.com/shortforge/short-video-pipeline/internal/pipeline/repository"
	pipelineUsecase "github.com/shortforge/short-video-pipeline/internal/pipeline/usecase"
	"github.com/shortforge/short-video-pipeline/internal/providers"
	providerHttp "github.com/shortforge/short-video-pipeline/internal/providers/delivery/http"
	providerRepository "github.com/shortforge/short-video-pipeline/internal/providers/repository"
	providerUsecase "github.com/shortforge/short-video-pipeline/internal/providers/usecase"
	"github.com/shortforge/short-video-pipeline/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	jRepo := pipelineRepository.NewJobRepo(s.db)
	jRedisRepo := pipelineRepository.NewJobRedisRepo(s.redisClient, s.cfg.Redis.JobQueueKey)
	jAWSRepo := pipelineRepository.NewAwsRepository(s.s3Client, s.preSignClient, s.cfg.S3.ArtifactBucket)
	pRepo := providerRepository.NewProviderRepo(s.db)
	pRedisRepo := providerRepository.NewProviderRedisRepo(s.redisClient)

	registry := providers.NewRegistry(pRepo, pRedisRepo, s.cfg, s.logger)

	providerUC := providerUsecase.NewProviderUseCase(s.cfg, pRepo, pRedisRepo, registry, s.logger)
	pipelineUC := pipelineUsecase.NewPipelineUseCase(s.cfg, jRepo, jRedisRepo, jAWSRepo, registry, s.logger)

	providerHandlers := providerHttp.NewProviderHandler(providerUC, s.logger)
	jobHandlers := pipelineHttp.NewJobHandler(pipelineUC, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	jobGroup := v1.Group("/jobs")
	providerGroup := v1.Group("/providers")

	pipelineHttp.MapJobRoutes(jobGroup, jobHandlers)
	providerHttp.MapProviderRoutes(providerGroup, providerHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}

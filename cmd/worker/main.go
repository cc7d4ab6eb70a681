package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shortforge/short-video-pipeline/internal/config"
	pipelineRepository "github.com/shortforge/short-video-pipeline/internal/pipeline/repository"
	pipelineUsecase "github.com/shortforge/short-video-pipeline/internal/pipeline/usecase"
	"github.com/shortforge/short-video-pipeline/internal/providers"
	providerRepository "github.com/shortforge/short-video-pipeline/internal/providers/repository"
	"github.com/shortforge/short-video-pipeline/internal/worker"
	"github.com/shortforge/short-video-pipeline/pkg/db/aws"
	"github.com/shortforge/short-video-pipeline/pkg/db/postgres"
	clientRedis "github.com/shortforge/short-video-pipeline/pkg/db/redis"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
)

func main() {
	log.Println("Starting pipeline worker")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	redisClient, err := clientRedis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	defer redisClient.Close()
	appLogger.Infof("redis connected")

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not create s3 client: %s", err)
	}

	jobRepo := pipelineRepository.NewJobRepo(psqlDB)
	jobRedisRepo := pipelineRepository.NewJobRedisRepo(redisClient, cfg.Redis.JobQueueKey)
	jobAWSRepo := pipelineRepository.NewAwsRepository(s3Client, presignClient, cfg.S3.ArtifactBucket)
	providerRepo := providerRepository.NewProviderRepo(psqlDB)
	providerRedisRepo := providerRepository.NewProviderRedisRepo(redisClient)

	registry := providers.NewRegistry(providerRepo, providerRedisRepo, cfg, appLogger)
	pipelineUC := pipelineUsecase.NewPipelineUseCase(cfg, jobRepo, jobRedisRepo, jobAWSRepo, registry, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down workers")
		cancel()
	}()

	w := worker.NewWorker(cfg, pipelineUC, jobRedisRepo, appLogger)
	w.Start(ctx)
	w.Wait()
}

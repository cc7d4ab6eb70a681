package repository

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/pipeline"
)

const artifactContentType = "application/json"

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
	bucket        string
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient, bucket string) pipeline.AWSRepository {
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
		bucket:        bucket,
	}
}

func (a *awsRepository) PutStageArtifact(ctx context.Context, jobID uuid.UUID, stage models.Stage, payload []byte) (string, error) {
	key := fmt.Sprintf("jobs/%s/%s.json", jobID, stage)
	contentType := artifactContentType
	size := int64(len(payload))
	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &a.bucket,
		Key:           &key,
		ContentType:   &contentType,
		ContentLength: &size,
		Body:          bytes.NewReader(payload),
	}); err != nil {
		return "", fmt.Errorf("failed to upload stage artifact: %w", err)
	}
	return key, nil
}

func (a *awsRepository) GetArtifactURL(ctx context.Context, key string) (string, error) {
	req, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &a.bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(60*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign artifact url: %w", err)
	}
	return req.URL, nil
}

package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/shortforge/short-video-pipeline/internal/models"
)

// AWSRepository archives raw invocation records per completed stage so
// operators can audit exactly what a provider returned.
type AWSRepository interface {
	PutStageArtifact(ctx context.Context, jobID uuid.UUID, stage models.Stage, payload []byte) (string, error)
	GetArtifactURL(ctx context.Context, key string) (string, error)
}

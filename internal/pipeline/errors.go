package pipeline

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/shortforge/short-video-pipeline/internal/models"
)

var (
	// ErrJobBusy means another caller holds the job's execution lease.
	ErrJobBusy = errors.New("job is busy: stage execution already in flight")
	// ErrJobNotFound means no job exists under the given id.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobErrored means AdvanceStage was called on a job parked in error;
	// RerunStage is the only recovery path.
	ErrJobErrored = errors.New("job is in error state: rerun the failed stage")
)

// StageFailedError parks a job in error: the named stage failed with the
// underlying invoker (or policy) cause preserved.
type StageFailedError struct {
	Stage models.Stage
	Cause error
}

func (e *StageFailedError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Cause)
}

func (e *StageFailedError) Unwrap() error {
	return e.Cause
}

// InvalidStageError rejects an advance or rerun request that names a stage
// the job cannot legally execute.
type InvalidStageError struct {
	Stage  models.Stage
	Reason string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("stage %q: %s", e.Stage, e.Reason)
}

// ErrEmptyStageOutput marks a provider response that extracted successfully
// but carried no usable content. Empty content can never satisfy a
// downstream stage's input contract, so it is a stage failure.
var ErrEmptyStageOutput = errors.New("provider returned empty output")

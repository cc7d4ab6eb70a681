package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentLanguage selects which provider variant (voice, font, prompt) serves a
// job. It never changes engine behaviour.
type ContentLanguage string

const (
	LanguageEnglish ContentLanguage = "en"
	LanguageArabic  ContentLanguage = "ar"
)

func (l ContentLanguage) Valid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// Stage is one ordered step of the content pipeline.
type Stage string

const (
	StageScript    Stage = "script"
	StageVoice     Stage = "voice"
	StageAssets    Stage = "assets"
	StageEdit      Stage = "edit"
	StageCaptions  Stage = "captions"
	StageThumbnail Stage = "thumbnail"
	StageUpload    Stage = "upload"
)

// StageOrder is the canonical pipeline order. Stage results always form a
// prefix of this sequence.
var StageOrder = []Stage{
	StageScript,
	StageVoice,
	StageAssets,
	StageEdit,
	StageCaptions,
	StageThumbnail,
	StageUpload,
}

var stageIndex = func() map[Stage]int {
	idx := make(map[Stage]int, len(StageOrder))
	for i, s := range StageOrder {
		idx[s] = i
	}
	return idx
}()

// StageIndex returns the position of s in the canonical order, or -1 for an
// unknown stage.
func StageIndex(s Stage) int {
	i, ok := stageIndex[s]
	if !ok {
		return -1
	}
	return i
}

// NextStage returns the stage following s, or false after upload.
func NextStage(s Stage) (Stage, bool) {
	i := StageIndex(s)
	if i < 0 || i+1 >= len(StageOrder) {
		return "", false
	}
	return StageOrder[i+1], true
}

// JobStatus is the lifecycle position of a job. Every non-terminal status maps
// to the next stage awaiting execution.
type JobStatus string

const (
	JobStatusDraft       JobStatus = "draft"
	JobStatusScripted    JobStatus = "scripted"
	JobStatusVoiced      JobStatus = "voiced"
	JobStatusAsseted     JobStatus = "asseted"
	JobStatusEdited      JobStatus = "edited"
	JobStatusCaptioned   JobStatus = "captioned"
	JobStatusThumbnailed JobStatus = "thumbnailed"
	JobStatusPublished   JobStatus = "published"
	JobStatusError       JobStatus = "error"
)

// statusAfter maps a completed stage to the status it produces.
var statusAfter = map[Stage]JobStatus{
	StageScript:    JobStatusScripted,
	StageVoice:     JobStatusVoiced,
	StageAssets:    JobStatusAsseted,
	StageEdit:      JobStatusEdited,
	StageCaptions:  JobStatusCaptioned,
	StageThumbnail: JobStatusThumbnailed,
	StageUpload:    JobStatusPublished,
}

// nextStageFor maps a status to the stage that should run next.
var nextStageFor = map[JobStatus]Stage{
	JobStatusDraft:       StageScript,
	JobStatusScripted:    StageVoice,
	JobStatusVoiced:      StageAssets,
	JobStatusAsseted:     StageEdit,
	JobStatusEdited:      StageCaptions,
	JobStatusCaptioned:   StageThumbnail,
	JobStatusThumbnailed: StageUpload,
}

// StatusAfter returns the job status reached when stage completes.
func StatusAfter(stage Stage) (JobStatus, bool) {
	st, ok := statusAfter[stage]
	return st, ok
}

// NextStageFor returns the stage a job in the given status should execute
// next. Terminal statuses (published, error) have no next stage.
func NextStageFor(status JobStatus) (Stage, bool) {
	s, ok := nextStageFor[status]
	return s, ok
}

// StatusBefore returns the status a job held before the given stage ran:
// draft for script, otherwise the status produced by the preceding stage.
func StatusBefore(stage Stage) (JobStatus, bool) {
	i := StageIndex(stage)
	if i < 0 {
		return "", false
	}
	if i == 0 {
		return JobStatusDraft, true
	}
	return statusAfter[StageOrder[i-1]], true
}

// StageStatus is the outcome recorded for one executed stage.
type StageStatus string

const (
	StageStatusSuccess StageStatus = "success"
	StageStatusError   StageStatus = "error"
)

// StageResult is one entry of a job's append-only stage log.
type StageResult struct {
	JobID      uuid.UUID      `json:"job_id" db:"job_id" validate:"omitempty"`
	Stage      Stage          `json:"stage" db:"stage" validate:"required"`
	Status     StageStatus    `json:"status" db:"status" validate:"required"`
	Output     map[string]any `json:"output,omitempty" db:"output"`
	Error      string         `json:"error,omitempty" db:"error_message"`
	DurationMs int64          `json:"duration_ms" db:"duration_ms"`
	Attempts   int            `json:"attempts" db:"attempts"`
	ArtifactS3 string         `json:"artifact_s3_key,omitempty" db:"artifact_s3_key"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// Job is the unit of pipeline work. Stage results accumulate as an ordered
// prefix of StageOrder; a result exists only if every preceding stage
// succeeded.
type Job struct {
	JobID           uuid.UUID       `json:"job_id" db:"job_id" validate:"omitempty"`
	Topic           string          `json:"topic" db:"topic" validate:"required,lte=500"`
	ContentLanguage ContentLanguage `json:"content_language" db:"content_language" validate:"required,oneof=en ar"`
	TargetDuration  int             `json:"target_duration" db:"target_duration" validate:"required,gt=0,lte=180"`
	Style           string          `json:"style,omitempty" db:"style" validate:"omitempty,lte=100"`
	Status          JobStatus       `json:"status" db:"status"`
	FailedStage     Stage           `json:"failed_stage,omitempty" db:"failed_stage"`
	StageResults    []StageResult   `json:"stage_results"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether no further stage can run without operator action.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusPublished || j.Status == JobStatusError
}

// StageResultFor returns the recorded result for stage, if any.
func (j *Job) StageResultFor(stage Stage) (*StageResult, bool) {
	for i := range j.StageResults {
		if j.StageResults[i].Stage == stage {
			return &j.StageResults[i], true
		}
	}
	return nil, false
}

// LastSuccessfulStatus is the status the job held before parking in error,
// exposed so the dashboard can re-label errored jobs without the core
// guessing. For non-errored jobs it is the current status.
func (j *Job) LastSuccessfulStatus() JobStatus {
	if j.Status != JobStatusError {
		return j.Status
	}
	if st, ok := StatusBefore(j.FailedStage); ok {
		return st
	}
	return JobStatusDraft
}

// JobCreateInput is the topic-intake payload that seeds a draft job.
type JobCreateInput struct {
	Topic           string          `json:"topic" validate:"required,lte=500"`
	ContentLanguage ContentLanguage `json:"content_language" validate:"required,oneof=en ar"`
	TargetDuration  int             `json:"target_duration" validate:"required,gt=0,lte=180"`
	Style           string          `json:"style" validate:"omitempty,lte=100"`
}

// JobList is a paginated jobs response.
type JobList struct {
	Jobs       []*Job `json:"jobs"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	HasMore    bool   `json:"has_more"`
}

package http

import (
	"github.com/shortforge/short-video-pipeline/internal/models"
)

// JobView is a job plus the derived fields the dashboard renders: the stage
// that would run next and, for errored jobs, the last status reached before
// parking.
type JobView struct {
	*models.Job
	NextStage            models.Stage     `json:"next_stage,omitempty"`
	LastSuccessfulStatus models.JobStatus `json:"last_successful_status"`
}

type JobListView struct {
	Jobs       []*JobView `json:"jobs"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	HasMore    bool       `json:"has_more"`
}

func jobView(job *models.Job) *JobView {
	view := &JobView{
		Job:                  job,
		LastSuccessfulStatus: job.LastSuccessfulStatus(),
	}
	if next, ok := models.NextStageFor(job.Status); ok {
		view.NextStage = next
	}
	return view
}

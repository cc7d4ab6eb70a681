package repository

const (
	createJobQuery = `INSERT INTO jobs (job_id, topic, content_language, target_duration, style, status)
					VALUES ($1, $2, $3, $4, $5, $6)
					RETURNING job_id, topic, content_language, target_duration, style, status, failed_stage, created_at, updated_at`
	getJobByIDQuery = `SELECT job_id, topic, content_language, target_duration, style, status, failed_stage, created_at, updated_at
					FROM jobs WHERE job_id = $1`
	getTotalJobsQuery = `SELECT COUNT(job_id) FROM jobs WHERE ($1 = '' OR status = $1)`
	listJobsQuery     = `SELECT job_id, topic, content_language, target_duration, style, status, failed_stage, created_at, updated_at
					FROM jobs WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC OFFSET $2 LIMIT $3`
	updateJobStatusQuery = `UPDATE jobs SET status = $2, failed_stage = $3, updated_at = now() WHERE job_id = $1`

	getStageResultsQuery = `SELECT job_id, stage, status, output, error_message, duration_ms, attempts, artifact_s3_key, created_at
					FROM job_stage_results WHERE job_id = $1`
	insertStageResultQuery = `INSERT INTO job_stage_results (job_id, stage, status, output, error_message, duration_ms, attempts, artifact_s3_key)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	// Expanded through sqlx.In: the stage list length varies per rerun.
	deleteStageResultsFromQuery = `DELETE FROM job_stage_results WHERE job_id = ? AND stage IN (?)`
)

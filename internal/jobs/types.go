package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrJobNotFound is returned by a JobStore for an unknown job ID.
var ErrJobNotFound = errors.New("job not found")

// JobType names the work a job does.
type JobType string

const (
	// JobTypeIndexTransactions re-enriches and stores a user's raw transactions.
	JobTypeIndexTransactions JobType = "index_transactions"
	// JobTypeMonthlyReview generates monthly review insights.
	JobTypeMonthlyReview JobType = "monthly_review"
	// JobTypeForesight generates forward-looking foresights.
	JobTypeForesight JobType = "foresight"
	// JobTypeProactive generates pattern insights over the last year.
	JobTypeProactive JobType = "proactive"
)

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeIndexTransactions, JobTypeMonthlyReview, JobTypeForesight, JobTypeProactive:
		return true
	}
	return false
}

// JobStatus is the lifecycle state of a job. A failed attempt with retry
// budget left moves to retrying and is queued again as pending.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// Terminal reports whether a job in this status will not run again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// AnalyticsJob is one unit of per-user analytics work.
type AnalyticsJob struct {
	JobID string `json:"job_id"`

	Type   JobType `json:"type"`
	UserID string  `json:"user_id"`

	// Year and Month select the target month of a monthly review.
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`

	// Replace deletes the user's existing rows before indexing.
	Replace bool `json:"replace,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result is a short outcome summary set by the handler.
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Validate checks that the job carries what its type needs.
func (j *AnalyticsJob) Validate() error {
	if !j.Type.Valid() {
		return fmt.Errorf("invalid job type %q", j.Type)
	}
	if j.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if j.Type == JobTypeMonthlyReview {
		if j.Year < 1 || j.Month < 1 || j.Month > 12 {
			return fmt.Errorf("monthly_review requires a valid year and month")
		}
	}
	return nil
}

// Publisher enqueues jobs. Publish fills in the ID, status and creation
// time of a new job.
type Publisher interface {
	Publish(ctx context.Context, job *AnalyticsJob) error
	Close() error
}

// Consumer runs a handler over queued jobs until stopped.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error

	// Stop waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler runs one attempt of a job. A returned error makes the attempt
// count as failed. The handler may set job.Result.
type JobHandler func(ctx context.Context, job *AnalyticsJob) error

// JobStore keeps the last known state of every job.
type JobStore interface {
	SaveJob(ctx context.Context, job *AnalyticsJob) error

	// GetJob returns ErrJobNotFound (wrapped) for an unknown ID.
	GetJob(ctx context.Context, jobID string) (*AnalyticsJob, error)

	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AnalyticsJob, error)

	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter selects jobs in ListJobs. Zero fields match everything.
type JobFilter struct {
	UserID string
	Type   JobType
	Status JobStatus

	Limit  int
	Offset int
}

// Matches reports whether job passes the filter's field constraints.
// Limit and Offset are applied by the store.
func (f JobFilter) Matches(job *AnalyticsJob) bool {
	return (f.UserID == "" || job.UserID == f.UserID) &&
		(f.Type == "" || job.Type == f.Type) &&
		(f.Status == "" || job.Status == f.Status)
}

package types

import "time"

// JobType identifies the content domain a job acts on.
type JobType string

const (
	JobTypeQuran   JobType = "quran"
	JobTypePrayer  JobType = "prayer"
	JobTypeHadith  JobType = "hadith"
	JobTypeAudio   JobType = "audio"
	JobTypeFinance JobType = "finance"
	JobTypeZakat   JobType = "zakat"
)

// AllJobTypes lists every recognized job type, used to seed default
// schedules at bootstrap.
var AllJobTypes = []JobType{
	JobTypeQuran, JobTypePrayer, JobTypeHadith, JobTypeAudio, JobTypeFinance, JobTypeZakat,
}

// JobStatus is the live status of a Job Status Record. Transitions are
// constrained by pkg/jobcontrol's state machine.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether a status is one of the sticky terminal
// states.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobStatusRecord is the live record for one triggered job.
type JobStatusRecord struct {
	JobID       string                 `json:"jobId" db:"job_id"`
	JobName     string                 `json:"jobName" db:"job_name"`
	JobType     JobType                `json:"jobType" db:"job_type"`
	Status      JobStatus              `json:"status" db:"status"`
	Progress    int                    `json:"progressPercentage" db:"progress_percentage"`
	Priority    int                    `json:"priority" db:"priority"`
	StartedAt   *time.Time             `json:"startedAt,omitempty" db:"started_at"`
	CompletedAt *time.Time             `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt   time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time              `json:"updatedAt" db:"updated_at"`
	ErrorText   *string                `json:"errorText,omitempty" db:"error_text"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" db:"-"`
	CancelFlag  bool                   `json:"-" db:"cancel_flag"`
}

// JobSchedule is the one-row-per-job-type schedule configuration
// consulted by the scheduler tick.
type JobSchedule struct {
	JobType        JobType   `json:"jobType" db:"job_type"`
	Enabled        bool      `json:"enabled" db:"enabled"`
	CronExpression *string   `json:"cronExpression,omitempty" db:"cron_expression"`
	Priority       int       `json:"priority" db:"priority"`
	MaxConcurrency int       `json:"maxConcurrency" db:"max_concurrency"`
	TimeoutMinutes int       `json:"timeoutMinutes" db:"timeout_minutes"`
	RetryAttempts  int       `json:"retryAttempts" db:"retry_attempts"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultJobSchedule returns the bootstrap schedule row for a job type.
func DefaultJobSchedule(jt JobType) *JobSchedule {
	cron := "0 3 * * *"
	return &JobSchedule{
		JobType:        jt,
		Enabled:        true,
		CronExpression: &cron,
		Priority:       5,
		MaxConcurrency: 2,
		TimeoutMinutes: 30,
		RetryAttempts:  1,
		UpdatedAt:      time.Now(),
	}
}

// QueueStatusCounters is the derived {waiting, active, ...} summary
// returned by jobcontrol.Plane.QueueStatus.
type QueueStatusCounters struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Delayed   int `json:"delayed"`
	Paused    int `json:"paused"`
}

// JobListFilters narrows jobcontrol.Plane.List results.
type JobListFilters struct {
	Status    *JobStatus
	JobType   *JobType
	Priority  *int
	StartDate *time.Time
	EndDate   *time.Time
}

// Pagination bounds a List call.
type Pagination struct {
	Limit  int
	Offset int
}

// JobListResult is the paginated response of jobcontrol.Plane.List.
type JobListResult struct {
	Jobs    []*JobStatusRecord `json:"jobs"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	HasMore bool               `json:"hasMore"`
}

// BulkJobOp is a bulk operation kind applied across several job ids.
type BulkJobOp string

const (
	BulkOpPause  BulkJobOp = "pause"
	BulkOpResume BulkJobOp = "resume"
	BulkOpCancel BulkJobOp = "cancel"
	BulkOpDelete BulkJobOp = "delete"
)

// BulkJobOutcome reports the per-job result of a bulk operation.
type BulkJobOutcome struct {
	JobID   string `json:"jobId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

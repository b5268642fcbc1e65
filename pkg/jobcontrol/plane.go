package jobcontrol

import (
	"context"
	"sync"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
	"github.com/google/uuid"
)

// RunFunc is the work a registered job type performs when triggered.
// It receives a RunHandle so long-running work can cooperate with
// Pause/Resume/Cancel between records.
type RunFunc func(h *RunHandle) error

// Plane is the Job Control Plane (C7): it owns the Job Status Record
// state machine, dispatches registered job-type runners in the
// background, and tracks the in-process handle of every
// pending/running/paused job so Pause/Resume/Cancel reach the
// goroutine actually doing the work.
type Plane struct {
	store   storage.JobControl
	broker  *Broker
	runners map[types.JobType]RunFunc

	mu      sync.Mutex
	handles map[string]*RunHandle
	active  map[types.JobType]int
}

// recordTransition updates the transition counter and the current
// queue-depth gauge for a job moving from one status to another. Called
// at every point Plane assigns record.Status a new value.
func recordTransition(from, to types.JobStatus) {
	metrics.JobTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	if from != "" {
		metrics.JobsByStatus.WithLabelValues(string(from)).Dec()
	}
	metrics.JobsByStatus.WithLabelValues(string(to)).Inc()
}

func NewPlane(store storage.JobControl, broker *Broker) *Plane {
	return &Plane{
		store:   store,
		broker:  broker,
		runners: make(map[types.JobType]RunFunc),
		handles: make(map[string]*RunHandle),
		active:  make(map[types.JobType]int),
	}
}

// RegisterRunner binds the work a job type performs when triggered.
// Called once per job type at bootstrap, after the per-domain syncers
// (C5/C6) are constructed.
func (p *Plane) RegisterRunner(jt types.JobType, fn RunFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runners[jt] = fn
}

// Trigger creates a pending Job Status Record and starts its runner
// in the background, refusing to exceed the job type's configured
// schedule.maxConcurrency.
func (p *Plane) Trigger(ctx context.Context, jt types.JobType, priority *int) (*types.JobStatusRecord, error) {
	p.mu.Lock()
	fn, ok := p.runners[jt]
	p.mu.Unlock()
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeValidation, "no runner registered for job type %q", jt)
	}

	maxConcurrency := 1
	pr := 5
	if sched, err := p.store.GetJobSchedule(ctx, jt); err == nil && sched != nil {
		if sched.MaxConcurrency > 0 {
			maxConcurrency = sched.MaxConcurrency
		}
		pr = sched.Priority
	}
	if priority != nil {
		if err := validatePriority(*priority); err != nil {
			return nil, err
		}
		pr = *priority
	}

	p.mu.Lock()
	if p.active[jt] >= maxConcurrency {
		p.mu.Unlock()
		return nil, errs.Newf(errs.ErrorTypeConflict, "job type %q already has %d job(s) running, at its configured limit", jt, maxConcurrency)
	}
	p.active[jt]++
	p.mu.Unlock()

	now := time.Now()
	record := &types.JobStatusRecord{
		JobID:     uuid.NewString(),
		JobName:   string(jt) + "-sync",
		JobType:   jt,
		Status:    types.JobStatusPending,
		Priority:  pr,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.store.CreateJobStatus(ctx, record); err != nil {
		p.mu.Lock()
		p.active[jt]--
		p.mu.Unlock()
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "create job status")
	}
	recordTransition("", types.JobStatusPending)

	handle := newRunHandle()
	p.mu.Lock()
	p.handles[record.JobID] = handle
	p.mu.Unlock()

	p.broker.Publish(&Event{Type: EventJobTriggered, JobID: record.JobID})
	go p.execute(record, handle, fn)

	return record, nil
}

func (p *Plane) execute(record *types.JobStatusRecord, handle *RunHandle, fn RunFunc) {
	defer func() {
		p.mu.Lock()
		delete(p.handles, record.JobID)
		p.active[record.JobType]--
		p.mu.Unlock()
	}()

	recordTransition(record.Status, types.JobStatusRunning)
	record.Status = types.JobStatusRunning
	now := time.Now()
	record.StartedAt = &now
	record.UpdatedAt = now
	if err := p.store.UpdateJobStatus(context.Background(), record); err != nil {
		log.Logger.Error().Err(err).Str("job_id", record.JobID).Msg("failed to mark job running")
	}

	runErr := fn(handle)

	finished := time.Now()
	record.CompletedAt = &finished
	record.UpdatedAt = finished
	record.Progress = 100

	switch {
	case runErr == context.Canceled || handle.ctx.Err() == context.Canceled:
		recordTransition(record.Status, types.JobStatusCancelled)
		record.Status = types.JobStatusCancelled
		p.broker.Publish(&Event{Type: EventJobCancelled, JobID: record.JobID})
	case runErr != nil:
		recordTransition(record.Status, types.JobStatusFailed)
		record.Status = types.JobStatusFailed
		msg := runErr.Error()
		record.ErrorText = &msg
		p.broker.Publish(&Event{Type: EventJobFailed, JobID: record.JobID, Detail: msg})
	default:
		recordTransition(record.Status, types.JobStatusCompleted)
		record.Status = types.JobStatusCompleted
		p.broker.Publish(&Event{Type: EventJobCompleted, JobID: record.JobID})
	}

	if err := p.store.UpdateJobStatus(context.Background(), record); err != nil {
		log.Logger.Error().Err(err).Str("job_id", record.JobID).Msg("failed to persist final job status")
	}
}

// Pause transitions a running job to paused and blocks its runner at
// its next CheckPoint.
func (p *Plane) Pause(ctx context.Context, jobID string) error {
	record, err := p.store.GetJobStatus(ctx, jobID)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "get job status")
	}
	next, err := nextStatus(record.Status, actionPause)
	if err != nil {
		return err
	}
	p.mu.Lock()
	handle := p.handles[jobID]
	p.mu.Unlock()
	if handle == nil {
		return errs.NewConflictError("job is not currently running in this process")
	}
	handle.pause()

	recordTransition(record.Status, next)
	record.Status = next
	record.UpdatedAt = time.Now()
	if err := p.store.UpdateJobStatus(ctx, record); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "update job status")
	}
	p.broker.Publish(&Event{Type: EventJobPaused, JobID: jobID})
	return nil
}

// Resume transitions a paused job back to running and releases its
// runner's CheckPoint.
func (p *Plane) Resume(ctx context.Context, jobID string) error {
	record, err := p.store.GetJobStatus(ctx, jobID)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "get job status")
	}
	next, err := nextStatus(record.Status, actionResume)
	if err != nil {
		return err
	}
	p.mu.Lock()
	handle := p.handles[jobID]
	p.mu.Unlock()
	if handle != nil {
		handle.resume()
	}

	recordTransition(record.Status, next)
	record.Status = next
	record.UpdatedAt = time.Now()
	if err := p.store.UpdateJobStatus(ctx, record); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "update job status")
	}
	p.broker.Publish(&Event{Type: EventJobResumed, JobID: jobID})
	return nil
}

// Cancel transitions a pending, running, or paused job to cancelled
// and, if its runner is currently executing, cancels its context so
// the next CheckPoint (or the next context-aware upstream call) stops
// it.
func (p *Plane) Cancel(ctx context.Context, jobID string) error {
	record, err := p.store.GetJobStatus(ctx, jobID)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "get job status")
	}
	next, err := nextStatus(record.Status, actionCancel)
	if err != nil {
		return err
	}

	p.mu.Lock()
	handle := p.handles[jobID]
	p.mu.Unlock()
	if handle != nil {
		handle.stop()
	}

	recordTransition(record.Status, next)
	record.Status = next
	record.CancelFlag = true
	record.UpdatedAt = time.Now()
	if err := p.store.UpdateJobStatus(ctx, record); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "update job status")
	}
	p.broker.Publish(&Event{Type: EventJobCancelled, JobID: jobID})
	return nil
}

// UpdatePriority changes a non-terminal job's priority.
func (p *Plane) UpdatePriority(ctx context.Context, jobID string, priority int) error {
	if err := validatePriority(priority); err != nil {
		return err
	}
	record, err := p.store.GetJobStatus(ctx, jobID)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "get job status")
	}
	if record.Status.IsTerminal() {
		return errs.NewConflictError("cannot change priority of a job in a terminal state")
	}
	record.Priority = priority
	record.UpdatedAt = time.Now()
	if err := p.store.UpdateJobStatus(ctx, record); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "update job status")
	}
	p.broker.Publish(&Event{Type: EventJobPriorityUpdate, JobID: jobID})
	return nil
}

// Delete removes a job's status record. Allowed only from a terminal
// state.
func (p *Plane) Delete(ctx context.Context, jobID string) error {
	record, err := p.store.GetJobStatus(ctx, jobID)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "get job status")
	}
	if !canDelete(record.Status) {
		return errs.NewConflictError("job can only be deleted from a terminal state (completed, failed, cancelled)")
	}
	if err := p.store.DeleteJobStatus(ctx, jobID); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "delete job status")
	}
	metrics.JobsByStatus.WithLabelValues(string(record.Status)).Dec()
	p.broker.Publish(&Event{Type: EventJobDeleted, JobID: jobID})
	return nil
}

// List returns a paginated, filtered view of job status records.
func (p *Plane) List(ctx context.Context, filters types.JobListFilters, pagination types.Pagination) (*types.JobListResult, error) {
	result, err := p.store.ListJobStatuses(ctx, filters, pagination)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "list job statuses")
	}
	return result, nil
}

// QueueStatus summarizes jobs by status across every job type.
func (p *Plane) QueueStatus(ctx context.Context) (types.QueueStatusCounters, error) {
	counters, err := p.store.CountJobsByStatus(ctx)
	if err != nil {
		return types.QueueStatusCounters{}, errs.Wrap(err, errs.ErrorTypeStorage, "count jobs by status")
	}
	return counters, nil
}

// Bulk applies one operation across several job ids, collecting a
// per-job outcome instead of aborting on the first failure.
func (p *Plane) Bulk(ctx context.Context, jobIDs []string, op types.BulkJobOp) []types.BulkJobOutcome {
	outcomes := make([]types.BulkJobOutcome, 0, len(jobIDs))
	for _, id := range jobIDs {
		var err error
		switch op {
		case types.BulkOpPause:
			err = p.Pause(ctx, id)
		case types.BulkOpResume:
			err = p.Resume(ctx, id)
		case types.BulkOpCancel:
			err = p.Cancel(ctx, id)
		case types.BulkOpDelete:
			err = p.Delete(ctx, id)
		default:
			err = errs.Newf(errs.ErrorTypeValidation, "unknown bulk operation %q", op)
		}
		outcome := types.BulkJobOutcome{JobID: id, Success: err == nil}
		if err != nil {
			outcome.Error = errs.SafeErrorMessage(err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// ListSchedules returns every job type's schedule row.
func (p *Plane) ListSchedules(ctx context.Context) ([]*types.JobSchedule, error) {
	out, err := p.store.ListJobSchedules(ctx)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "list job schedules")
	}
	return out, nil
}

// UpdateSchedule persists a full schedule row for one job type.
func (p *Plane) UpdateSchedule(ctx context.Context, schedule *types.JobSchedule) error {
	schedule.UpdatedAt = time.Now()
	if err := p.store.UpsertJobSchedule(ctx, schedule); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "upsert job schedule")
	}
	return nil
}

// ToggleSchedule flips a job type's schedule enabled flag without
// requiring the caller to round-trip the full row.
func (p *Plane) ToggleSchedule(ctx context.Context, jt types.JobType, enabled bool) error {
	sched, err := p.store.GetJobSchedule(ctx, jt)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "get job schedule")
	}
	sched.Enabled = enabled
	sched.UpdatedAt = time.Now()
	if err := p.store.UpsertJobSchedule(ctx, sched); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "upsert job schedule")
	}
	return nil
}

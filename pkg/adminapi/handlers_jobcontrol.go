package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	filters := jobListFiltersFromQuery(r)
	limit, offset := pagingParams(r, 50, 200)

	result, err := h.deps.Plane.List(r.Context(), filters, types.Pagination{Limit: limit, Offset: offset})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, result)
}

func jobListFiltersFromQuery(r *http.Request) types.JobListFilters {
	q := r.URL.Query()
	var filters types.JobListFilters
	if v := q.Get("status"); v != "" {
		s := types.JobStatus(v)
		filters.Status = &s
	}
	if v := q.Get("jobType"); v != "" {
		jt := types.JobType(v)
		filters.JobType = &jt
	}
	if v := q.Get("priority"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.Priority = &n
		}
	}
	return filters
}

type triggerJobRequest struct {
	JobType  string `json:"jobType"`
	Priority *int   `json:"priority"`
}

func (h *handlers) triggerJob(w http.ResponseWriter, r *http.Request) {
	var req triggerJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.JobType == "" {
		writeErr(w, errs.NewValidationError("jobType is required"))
		return
	}

	record, err := h.deps.Plane.Trigger(r.Context(), types.JobType(req.JobType), req.Priority)
	if err != nil {
		writeErr(w, err)
		return
	}
	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionTriggerSync, "job", &record.JobID,
		map[string]interface{}{"jobType": req.JobType}, ip, ua)
	writeData(w, http.StatusAccepted, record)
}

func (h *handlers) pauseJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Plane.Pause(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	h.auditJob(r, types.ActionJobPause, id)
	writeMessage(w, http.StatusOK, "job paused")
}

func (h *handlers) resumeJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Plane.Resume(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	h.auditJob(r, types.ActionJobResume, id)
	writeMessage(w, http.StatusOK, "job resumed")
}

func (h *handlers) cancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Plane.Cancel(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	h.auditJob(r, types.ActionJobCancel, id)
	writeMessage(w, http.StatusOK, "job cancelled")
}

func (h *handlers) deleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Plane.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	h.auditJob(r, types.ActionJobDelete, id)
	writeMessage(w, http.StatusOK, "job deleted")
}

type updatePriorityRequest struct {
	Priority int `json:"priority"`
}

func (h *handlers) updateJobPriority(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updatePriorityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.deps.Plane.UpdatePriority(r.Context(), id, req.Priority); err != nil {
		writeErr(w, err)
		return
	}
	h.auditJob(r, types.ActionJobPriorityUpdate, id)
	writeMessage(w, http.StatusOK, "job priority updated")
}

func (h *handlers) auditJob(r *http.Request, action, jobID string) {
	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, action, "job", &jobID, nil, ip, ua)
}

type bulkJobsRequest struct {
	JobIDs []string `json:"jobIds"`
	Op     string   `json:"op"`
}

func (h *handlers) bulkJobs(w http.ResponseWriter, r *http.Request) {
	var req bulkJobsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if len(req.JobIDs) == 0 {
		writeErr(w, errs.NewValidationError("jobIds must not be empty"))
		return
	}

	outcomes := h.deps.Plane.Bulk(r.Context(), req.JobIDs, types.BulkJobOp(req.Op))
	actions := map[types.BulkJobOp]string{
		types.BulkOpPause:  types.ActionJobPause,
		types.BulkOpResume: types.ActionJobResume,
		types.BulkOpCancel: types.ActionJobCancel,
		types.BulkOpDelete: types.ActionJobDelete,
	}
	if action, ok := actions[types.BulkJobOp(req.Op)]; ok {
		for _, o := range outcomes {
			if o.Success {
				h.auditJob(r, action, o.JobID)
			}
		}
	}
	writeOK(w, outcomes)
}

func (h *handlers) listSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.deps.Plane.ListSchedules(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, schedules)
}

type updateScheduleRequest struct {
	Enabled        bool    `json:"enabled"`
	CronExpression *string `json:"cronExpression"`
	Priority       int     `json:"priority"`
	MaxConcurrency int     `json:"maxConcurrency"`
	TimeoutMinutes int     `json:"timeoutMinutes"`
	RetryAttempts  int     `json:"retryAttempts"`
}

func (h *handlers) updateSchedule(w http.ResponseWriter, r *http.Request) {
	jt := types.JobType(chi.URLParam(r, "jobType"))
	var req updateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	schedule := &types.JobSchedule{
		JobType:        jt,
		Enabled:        req.Enabled,
		CronExpression: req.CronExpression,
		Priority:       req.Priority,
		MaxConcurrency: req.MaxConcurrency,
		TimeoutMinutes: req.TimeoutMinutes,
		RetryAttempts:  req.RetryAttempts,
		UpdatedAt:      time.Now(),
	}
	if err := h.deps.Plane.UpdateSchedule(r.Context(), schedule); err != nil {
		writeErr(w, err)
		return
	}
	if h.deps.Scheduler != nil {
		if err := h.deps.Scheduler.Reload(r.Context(), jt); err != nil {
			writeErr(w, err)
			return
		}
	}

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionScheduleUpdate, "job_schedule", nil,
		map[string]interface{}{"jobType": string(jt)}, ip, ua)

	writeOK(w, schedule)
}

type toggleScheduleRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *handlers) toggleSchedule(w http.ResponseWriter, r *http.Request) {
	jt := types.JobType(chi.URLParam(r, "jobType"))
	var req toggleScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.deps.Plane.ToggleSchedule(r.Context(), jt, req.Enabled); err != nil {
		writeErr(w, err)
		return
	}
	if h.deps.Scheduler != nil {
		if err := h.deps.Scheduler.Reload(r.Context(), jt); err != nil {
			writeErr(w, err)
			return
		}
	}

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionScheduleUpdate, "job_schedule", nil,
		map[string]interface{}{"jobType": string(jt), "enabled": req.Enabled}, ip, ua)

	writeMessage(w, http.StatusOK, "schedule toggled")
}

func (h *handlers) queueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.deps.Plane.QueueStatus(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, status)
}

package adminapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/prayer"
	"github.com/deenmate/sync-core/pkg/types"
)

type summaryResponse struct {
	Queue        types.QueueStatusCounters `json:"queue"`
	RecentSyncs  []*types.SyncJobLog       `json:"recentSyncs"`
	TotalUsers   int                       `json:"totalUsers"`
	ActiveUsers  int                       `json:"activeUsers"`
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	queue, err := h.deps.Plane.QueueStatus(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	recent, err := h.deps.Gateway.ListSyncLogs(r.Context(), 10, 0)
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list sync logs"))
		return
	}
	users, err := h.deps.Gateway.ListAdminUsers(r.Context())
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list admin users"))
		return
	}

	resp := summaryResponse{Queue: queue, RecentSyncs: recent, TotalUsers: len(users)}
	for _, u := range users {
		if u.Active {
			resp.ActiveUsers++
		}
	}
	writeOK(w, resp)
}

func (h *handlers) syncLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagingParams(r, 50, 500)
	logs, err := h.deps.Gateway.ListSyncLogs(r.Context(), limit, offset)
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list sync logs"))
		return
	}
	writeOK(w, logs)
}

// triggerSync dispatches a one-off domain sync run via the job control
// plane so it is tracked, cancellable, and subject to the same
// concurrency cap as a scheduled run.
func (h *handlers) triggerSync(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	jt, ok := jobTypeForModule(module)
	if !ok {
		writeErr(w, errs.Newf(errs.ErrorTypeValidation, "unknown sync module %q", module))
		return
	}

	record, err := h.deps.Plane.Trigger(r.Context(), jt, nil)
	if err != nil {
		writeErr(w, err)
		return
	}

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionTriggerSync, "sync", &record.JobID,
		map[string]interface{}{"module": module}, ip, ua)

	writeData(w, http.StatusAccepted, map[string]interface{}{"jobId": record.JobID})
}

func jobTypeForModule(module string) (types.JobType, bool) {
	switch module {
	case "quran":
		return types.JobTypeQuran, true
	case "prayer":
		return types.JobTypePrayer, true
	case "hadith":
		return types.JobTypeHadith, true
	case "audio":
		return types.JobTypeAudio, true
	case "finance", "gold-price":
		return types.JobTypeFinance, true
	case "zakat":
		return types.JobTypeZakat, true
	default:
		return "", false
	}
}

func (h *handlers) prayerPrewarm(w http.ResponseWriter, r *http.Request) {
	days := intQueryParam(r, "days", 1)
	if h.deps.Sync.Prayer == nil {
		writeErrStatus(w, http.StatusServiceUnavailable, "prayer planner is not configured")
		return
	}

	result, err := h.deps.Sync.Prayer.Prewarm(r.Context(), days)
	if err != nil {
		writeErr(w, err)
		return
	}
	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionTriggerSync, "sync", nil,
		map[string]interface{}{"module": "prayer-prewarm", "days": days}, ip, ua)
	writeOK(w, result)
}

func (h *handlers) prayerTimes(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sync.Prayer == nil {
		writeErrStatus(w, http.StatusServiceUnavailable, "prayer planner is not configured")
		return
	}

	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeErr(w, errs.NewValidationError("lat is required and must be numeric"))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeErr(w, errs.NewValidationError("lng is required and must be numeric"))
		return
	}
	method := types.PrayerMethod(q.Get("methodCode"))
	school := types.PrayerSchool(q.Get("school"))
	if school == "" {
		school = types.SchoolShafi
	}
	days := intQueryParam(r, "days", 1)
	force := q.Get("force") == "true"

	result, err := h.deps.Sync.Prayer.SyncOne(r.Context(), lat, lng, method, school, days, prayer.SliceOptions{Force: force})
	if err != nil {
		writeErr(w, err)
		return
	}
	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionTriggerSync, "sync", nil,
		map[string]interface{}{"module": "prayer-times", "days": days}, ip, ua)
	writeOK(w, result)
}

func intQueryParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/deenmate/sync-core/pkg/errs"
)

// health is a bare liveness check: 200 as long as the process can
// answer HTTP requests at all, independent of any dependency's state.
// It is deliberately outside the auth and permission middleware so an
// external load balancer or orchestrator can poll it without a token.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]interface{}{"status": "healthy"})
}

// ready reports whether every registered dependency check (Postgres,
// each upstream content provider) currently passes, 503 if any do
// not. Also unauthenticated, for the same reason as health.
func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health == nil {
		writeOK(w, map[string]interface{}{"status": "ready"})
		return
	}
	snapshot := h.deps.Health.Probe(r.Context())
	status := http.StatusOK
	if !snapshot.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeData(w, status, snapshot)
}

// handlers holds the dependencies every handler method closes over.
type handlers struct {
	deps Deps
}

// decodeJSON reads and validates the request body, returning a
// validation AppError on malformed JSON so handlers never need to
// special-case the decode failure themselves.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.NewValidationError("malformed request body: " + err.Error())
	}
	return nil
}

// pagingParams reads "limit" and "offset" query params, applying def
// when absent and clamping to max.
func pagingParams(r *http.Request, def, max int) (limit, offset int) {
	limit = def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

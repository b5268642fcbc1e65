package adminapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/log"
)

// envelope is the uniform response shape spec.md requires:
// {success, data?, message?, error?}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

// errorBody is the structured shape of envelope.Error:
// {kind, message, details?}. details carries either a validation
// error's full violations list or a single free-form details string,
// whichever the underlying AppError set.
type errorBody struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

func writeOK(w http.ResponseWriter, data interface{}) {
	writeData(w, http.StatusOK, data)
}

// writeErr maps an error to its status code via errs.GetStatusCode and
// never leaks an internal error's raw message past errs.SafeErrorMessage.
// The response's error.details carries an AppError's violations list
// (e.g. every unmet password policy rule) or its details string,
// whichever is set.
func writeErr(w http.ResponseWriter, err error) {
	status := errs.GetStatusCode(err)
	body := &errorBody{Kind: string(errs.GetType(err)), Message: errs.SafeErrorMessage(err)}

	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		if len(appErr.Violations) > 0 {
			body.Details = appErr.Violations
		} else if appErr.Details != "" {
			body.Details = appErr.Details
		}
	}

	writeJSON(w, status, envelope{Success: false, Error: body})
}

func writeErrStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: &errorBody{Kind: string(errs.ErrorTypeInternal), Message: message}})
}

package jobcontrol

import (
	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

// action names the edges of the Job Status Record state machine.
type action string

const (
	actionStart    action = "start"
	actionComplete action = "complete"
	actionFail     action = "fail"
	actionCancel   action = "cancel"
	actionPause    action = "pause"
	actionResume   action = "resume"
)

// transitions enumerates every legal (from, action) -> to edge. Any
// pair not present here is rejected.
var transitions = map[types.JobStatus]map[action]types.JobStatus{
	types.JobStatusPending: {
		actionStart:  types.JobStatusRunning,
		actionCancel: types.JobStatusCancelled,
	},
	types.JobStatusRunning: {
		actionComplete: types.JobStatusCompleted,
		actionFail:     types.JobStatusFailed,
		actionPause:    types.JobStatusPaused,
		actionCancel:   types.JobStatusCancelled,
	},
	types.JobStatusPaused: {
		actionResume: types.JobStatusRunning,
		actionCancel: types.JobStatusCancelled,
	},
}

// nextStatus validates one state-machine edge and returns the
// resulting status, or a conflict error naming why the edge is
// illegal.
func nextStatus(current types.JobStatus, a action) (types.JobStatus, error) {
	edges, ok := transitions[current]
	if !ok {
		return "", errs.Newf(errs.ErrorTypeConflict, "job in terminal state %q accepts no further transitions", current)
	}
	next, ok := edges[a]
	if !ok {
		return "", errs.Newf(errs.ErrorTypeConflict, "cannot %s a job in state %q", a, current)
	}
	return next, nil
}

// canDelete reports whether a job in the given status may be deleted.
// Deletion is allowed only from a terminal state.
func canDelete(status types.JobStatus) bool {
	return status.IsTerminal()
}

// validatePriority enforces the 1 (highest) .. 10 (lowest) range.
func validatePriority(p int) error {
	if p < 1 || p > 10 {
		return errs.NewValidationError("priority must be between 1 (highest) and 10 (lowest)")
	}
	return nil
}

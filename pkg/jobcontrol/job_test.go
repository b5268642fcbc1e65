package jobcontrol

import (
	"testing"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatusAllowsDocumentedEdges(t *testing.T) {
	cases := []struct {
		from types.JobStatus
		a    action
		want types.JobStatus
	}{
		{types.JobStatusPending, actionStart, types.JobStatusRunning},
		{types.JobStatusPending, actionCancel, types.JobStatusCancelled},
		{types.JobStatusRunning, actionComplete, types.JobStatusCompleted},
		{types.JobStatusRunning, actionFail, types.JobStatusFailed},
		{types.JobStatusRunning, actionPause, types.JobStatusPaused},
		{types.JobStatusRunning, actionCancel, types.JobStatusCancelled},
		{types.JobStatusPaused, actionResume, types.JobStatusRunning},
		{types.JobStatusPaused, actionCancel, types.JobStatusCancelled},
	}
	for _, c := range cases {
		got, err := nextStatus(c.from, c.a)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestNextStatusRejectsTerminalStates(t *testing.T) {
	for _, s := range []types.JobStatus{types.JobStatusCompleted, types.JobStatusFailed, types.JobStatusCancelled} {
		_, err := nextStatus(s, actionCancel)
		require.Error(t, err)
		assert.True(t, errs.IsType(err, errs.ErrorTypeConflict))
	}
}

func TestNextStatusRejectsIllegalEdge(t *testing.T) {
	_, err := nextStatus(types.JobStatusPending, actionPause)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeConflict))
}

func TestCanDeleteOnlyFromTerminalStates(t *testing.T) {
	assert.True(t, canDelete(types.JobStatusCompleted))
	assert.True(t, canDelete(types.JobStatusFailed))
	assert.True(t, canDelete(types.JobStatusCancelled))
	assert.False(t, canDelete(types.JobStatusPending))
	assert.False(t, canDelete(types.JobStatusRunning))
	assert.False(t, canDelete(types.JobStatusPaused))
}

func TestValidatePriorityRange(t *testing.T) {
	assert.NoError(t, validatePriority(1))
	assert.NoError(t, validatePriority(10))
	assert.Error(t, validatePriority(0))
	assert.Error(t, validatePriority(11))
}

package syncengine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

// StepResult is what a per-domain fetch-map-upsert step reports back
// to the engine once it has run; the engine turns this into a Result
// and a Sync Job Log row without the step needing to know about
// either.
type StepResult struct {
	Processed int
	Inserted  int
	Updated   int
	Failed    int
	Errors    []string
	// FallbackUsed marks that a translation-resource placeholder
	// fallback fired (see quran.go); such a run is always logged as
	// partial even if every record otherwise succeeded.
	FallbackUsed bool
}

// StepFunc performs the fetch, map, and (unless dryRun) upsert steps
// for one resource. An error return means an engine-level failure
// (e.g. the whole upstream batch could not be retrieved at all), as
// opposed to per-record failures which belong in StepResult.Failed.
type StepFunc func(ctx context.Context, opts Options) (StepResult, error)

// Engine drives the gate -> step -> log algorithm shared by every
// sync-capable resource (C5) and by the non-fan-out parts of prayer
// sync (C6 delegates its per-slice work back into this same engine).
type Engine struct {
	syncLog     storage.SyncLog
	minInterval time.Duration
}

// NewEngine constructs an Engine bound to the sync job log repository
// and the default gating interval (overridable per call via Options
// is intentionally not supported — spec.md scopes the override to
// `force`, not a custom interval).
func NewEngine(syncLog storage.SyncLog, minInterval time.Duration) *Engine {
	return &Engine{syncLog: syncLog, minInterval: minInterval}
}

// Run executes one sync(resource, options) call.
func (e *Engine) Run(ctx context.Context, jobName, resource string, opts Options, step StepFunc) (*Result, error) {
	start := time.Now()

	if !opts.Force {
		last, err := e.syncLog.LastSyncLog(ctx, jobName, resource)
		if err == nil && last != nil && gated(last, e.minInterval, start) {
			return &Result{Success: true, Resource: resource, Gated: true}, nil
		}
	}

	stepResult, err := step(ctx, opts)

	result := &Result{
		Resource:         resource,
		RecordsProcessed: stepResult.Processed,
		RecordsInserted:  stepResult.Inserted,
		RecordsUpdated:   stepResult.Updated,
		RecordsFailed:    stepResult.Failed,
		Errors:           stepResult.Errors,
		DurationMs:       time.Since(start).Milliseconds(),
	}

	var status types.SyncStatus
	switch {
	case err != nil:
		result.Success = false
		result.RecordsFailed = 1
		result.Errors = append(result.Errors, err.Error())
		status = types.SyncStatusFailed
	case stepResult.FallbackUsed:
		result.Success = true
		status = types.SyncStatusPartial
	case stepResult.Failed == 0:
		result.Success = true
		status = types.SyncStatusSuccess
	case stepResult.Failed < stepResult.Processed:
		result.Success = true
		status = types.SyncStatusPartial
	default:
		result.Success = false
		status = types.SyncStatusFailed
	}

	e.appendLog(ctx, jobName, resource, start, status, result)

	metrics.SyncRunsTotal.WithLabelValues(resource, string(status)).Inc()
	metrics.SyncRecordsProcessed.WithLabelValues(resource).Add(float64(stepResult.Processed))
	metrics.SyncRecordsFailed.WithLabelValues(resource).Add(float64(stepResult.Failed))
	metrics.SyncDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())

	return result, nil
}

func gated(last *types.SyncJobLog, minInterval time.Duration, now time.Time) bool {
	if last.Status != types.SyncStatusSuccess && last.Status != types.SyncStatusPartial {
		return false
	}
	return now.Sub(last.StartedAt) < minInterval
}

func (e *Engine) appendLog(ctx context.Context, jobName, resource string, start time.Time, status types.SyncStatus, result *Result) {
	finished := time.Now()
	var errText *string
	if len(result.Errors) > 0 {
		joined := strings.Join(result.Errors, "; ")
		if len(joined) > types.MaxErrorTextLength {
			joined = joined[:types.MaxErrorTextLength]
		}
		errText = &joined
	}

	entry := &types.SyncJobLog{
		ID:               uuid.New().String(),
		JobName:          jobName,
		Resource:         resource,
		StartedAt:        start,
		FinishedAt:       &finished,
		Status:           status,
		ErrorText:        errText,
		DurationMs:       result.DurationMs,
		RecordsProcessed: result.RecordsProcessed,
		RecordsFailed:    result.RecordsFailed,
	}

	if err := e.syncLog.AppendSyncLog(ctx, entry); err != nil {
		log.Logger.Warn().Err(err).Str("resource", resource).Msg("failed to append sync job log")
	}
}

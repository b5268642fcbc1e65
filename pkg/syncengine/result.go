package syncengine

import "time"

// DateRange bounds a sync to a window of upstream data. It is carried
// on Options, but none of the syncers in this package read it; the
// prayer slice syncer uses its own prayer.DateRange.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Options controls one sync invocation.
type Options struct {
	// Force bypasses the gating interval check.
	Force bool
	// DryRun runs fetch and map but skips the upsert step.
	DryRun bool
	// DateRange narrows the fetch, when the resource supports it.
	DateRange *DateRange
}

// Result is the uniform outcome of sync(resource, options).
type Result struct {
	Success          bool     `json:"success"`
	Resource         string   `json:"resource"`
	RecordsProcessed int      `json:"recordsProcessed"`
	RecordsInserted  int      `json:"recordsInserted"`
	RecordsUpdated   int      `json:"recordsUpdated"`
	RecordsFailed    int      `json:"recordsFailed"`
	Errors           []string `json:"errors"`
	DurationMs       int64    `json:"durationMs"`
	Gated            bool     `json:"gated"`
}

// Package syncengine implements the uniform fetch -> map -> upsert ->
// log pipeline (C5) shared by every content domain: Quran, Hadith,
// Audio, Finance, and the non-fan-out parts of Prayer.
//
// Engine owns the parts every resource shares: gating against the
// most recent sync job log, timing the run, deriving success/partial/
// failed from the step's record counts, and appending the Sync Job
// Log row. Each domain file (quran.go, hadith.go, audio.go,
// finance.go) supplies only the StepFunc: an upstream fetch through
// pkg/httpclient, a pure mapping function that collects per-record
// errors instead of aborting the batch, and an upsert through
// pkg/storage.
//
// Quran translations are the one resource with an upstream-failure
// fallback: a 5xx response falls back to a configured placeholder
// translation so downstream readers never see a hole, and the run is
// always logged as partial in that case, never success.
package syncengine

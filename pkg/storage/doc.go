/*
Package storage implements the Persistence Gateway (C1): the single
place every other component goes through to read or write content,
admin, or operational state. It is backed by Postgres via sqlx.

# Architecture

	┌─────────────────────── POSTGRES GATEWAY ──────────────────────┐
	│                                                                 │
	│  Gateway interface (store.go)                                 │
	│    Quran | Hadith | Prayer | Finance | Audio     content       │
	│    Admin | Audit                                 access control│
	│    RateLimit | IPBlock | RequestLog               admission    │
	│    SyncLog | JobControl | Credentials             sync/jobs    │
	│                                                                 │
	│  Postgres (postgres.go) implements Gateway over *sqlx.DB        │
	│    - natural-key upserts: INSERT ... ON CONFLICT DO UPDATE      │
	│    - a 23505 unique-violation race on an upsert is treated as   │
	│      success, not propagated, since it means a concurrent sync │
	│      of the same natural key got there first                   │
	│    - bulk operations split into chunkSize-row batches           │
	│    - errors are wrapped into pkg/errs.AppError(ErrorTypeStorage)│
	│      so callers never see a raw *sql.DB or *pq.Error            │
	│                                                                 │
	└─────────────────────────────────────────────────────────────────┘

# Natural Keys

Content tables have no surrogate ID column; the natural key named on
each pkg/types content struct is the table's primary key. This is what
lets the sync engine (C5) treat every upsert as idempotent: running the
same fetch twice writes the same rows twice, not duplicates.

# Testing

postgres_test.go uses github.com/DATA-DOG/go-sqlmock against a real
*sqlx.DB wrapping a mocked driver connection, so SQL text and argument
binding are exercised without a live database.

# See Also

  - pkg/types for the structs persisted here
  - pkg/syncengine for how Bulk* calls are driven
  - pkg/jobcontrol for how the JobControl methods back the job state
    machine
*/
package storage

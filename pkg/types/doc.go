/*
Package types defines the core data structures shared across the sync
and access-control core.

This package contains the domain model used by every other package:
content entities synced from upstream providers, the admin/auth model,
and the operational records (rate-limit rules, IP-block rules, request
log entries, sync job logs, job status records) that the admission
pipeline and job control plane read and write.

# Core Types

Content (natural-keyed, upserted by the sync engine):
  - QuranChapter, QuranVerse, QuranTranslation
  - HadithCollection, HadithBook, Hadith
  - PrayerTimes, PrayerLocation, PrayerMethod, PrayerSchool
  - GoldPrice, ZakatNisabRate
  - Reciter, AudioFile

Access control and admin:
  - AdminUser, Role
  - AuditLogEntry

Admission pipeline (C3):
  - RateLimitRule, HTTPMethodPattern
  - IPBlockRule, BlockState
  - RequestLogEntry, ClientIPStat

Job control (C7) and sync (C5):
  - SyncJobLog, SyncStatus
  - JobStatusRecord, JobSchedule, JobStatus, JobType

# Design Patterns

Enumeration Pattern:

	All enums use typed string constants:
	  type JobStatus string
	  const (
	      JobStatusPending JobStatus = "pending"
	      JobStatusRunning JobStatus = "running"
	  )

Natural Keys:

	Content types carry no surrogate ID; their natural key (the
	combination of fields the upstream provider itself uses to
	identify a record) is what pkg/storage upserts against. See each
	type's field comments for its key tuple.

Optional Fields:

	Nullable columns use pointers (*time.Time, *string); zero values
	are never overloaded to mean "absent".

Derived State:

	Some types carry no stored status column at all and instead
	derive it from other fields as of a given instant, e.g.
	IPBlockRule.State(now) and ClientIPStat.ErrorRate(). Keeping the
	derivation as a method instead of a column avoids the two ever
	drifting apart.

# Thread Safety

All types in this package are plain data holders: read-safe from
multiple goroutines, write-unsafe without caller-level
synchronization. pkg/storage serializes all persisted mutations.

# See Also

  - pkg/storage for persistence
  - pkg/syncengine for how content types are fetched and upserted
  - pkg/jobcontrol for the job status/schedule state machine
  - pkg/admission for how rate-limit/IP-block/request-log types are used
*/
package types

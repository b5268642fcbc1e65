// Package storage implements the Persistence Gateway (C1): a typed,
// natural-key-addressed repository per content and operational
// entity, backed by Postgres.
package storage

import (
	"context"

	"github.com/deenmate/sync-core/pkg/types"
)

// Gateway is the full persistence surface used by every other
// component. One manager struct implements it; individual components
// depend on the narrower per-entity interfaces below where practical.
type Gateway interface {
	Quran
	Hadith
	Prayer
	Finance
	Audio
	Admin
	Audit
	RateLimit
	IPBlock
	RequestLog
	SyncLog
	JobControl
	Credentials

	// Close releases the underlying connection pool.
	Close() error
	// Ping verifies connectivity, used by the readiness probe.
	Ping(ctx context.Context) error
}

// Quran is the repository for Quran content.
type Quran interface {
	UpsertQuranChapter(ctx context.Context, c *types.QuranChapter) error
	UpsertQuranVerse(ctx context.Context, v *types.QuranVerse) error
	UpsertQuranTranslation(ctx context.Context, t *types.QuranTranslation) error
	BulkUpsertQuranVerses(ctx context.Context, vs []*types.QuranVerse) (int, error)
	BulkUpsertQuranTranslations(ctx context.Context, ts []*types.QuranTranslation) (int, error)
	ListQuranChapters(ctx context.Context) ([]*types.QuranChapter, error)
	ListQuranVerses(ctx context.Context, chapterNumber int) ([]*types.QuranVerse, error)
}

// Hadith is the repository for hadith content.
type Hadith interface {
	UpsertHadithCollection(ctx context.Context, c *types.HadithCollection) error
	UpsertHadithBook(ctx context.Context, b *types.HadithBook) error
	BulkUpsertHadiths(ctx context.Context, hs []*types.Hadith) (int, error)
	ListHadithCollections(ctx context.Context) ([]*types.HadithCollection, error)
}

// Prayer is the repository for prayer-times content plus the
// locations and calculation methods the fan-out planner (C6)
// enumerates.
type Prayer interface {
	BulkUpsertPrayerTimes(ctx context.Context, pts []*types.PrayerTimes) (int, error)
	FindPrayerTimes(ctx context.Context, locationKey string, method types.PrayerMethod, school types.PrayerSchool, date string) (*types.PrayerTimes, error)
	CreatePrayerLocation(ctx context.Context, loc *types.PrayerLocation) error
	ListPrayerLocations(ctx context.Context) ([]*types.PrayerLocation, error)
	CreatePrayerCalculationMethod(ctx context.Context, m *types.PrayerCalculationMethod) error
	ListPrayerCalculationMethods(ctx context.Context) ([]*types.PrayerCalculationMethod, error)
}

// Finance is the repository for gold-price and zakat nisab content.
type Finance interface {
	UpsertGoldPrice(ctx context.Context, p *types.GoldPrice) error
	UpsertZakatNisabRate(ctx context.Context, r *types.ZakatNisabRate) error
	LatestGoldPrice(ctx context.Context, market, unit string) (*types.GoldPrice, error)
	LatestZakatNisabRate(ctx context.Context, metal string) (*types.ZakatNisabRate, error)
}

// Audio is the repository for reciters and audio files.
type Audio interface {
	UpsertReciter(ctx context.Context, r *types.Reciter) error
	BulkUpsertAudioFiles(ctx context.Context, fs []*types.AudioFile) (int, error)
	ListReciters(ctx context.Context) ([]*types.Reciter, error)
}

// Admin is the repository for admin users (C4).
type Admin interface {
	CreateAdminUser(ctx context.Context, u *types.AdminUser) error
	GetAdminUserByID(ctx context.Context, id string) (*types.AdminUser, error)
	GetAdminUserByEmail(ctx context.Context, email string) (*types.AdminUser, error)
	ListAdminUsers(ctx context.Context) ([]*types.AdminUser, error)
	UpdateAdminUser(ctx context.Context, u *types.AdminUser) error
	DeleteAdminUser(ctx context.Context, id string) error
}

// Audit is the append-only audit log repository.
type Audit interface {
	AppendAuditLog(ctx context.Context, e *types.AuditLogEntry) error
	ListAuditLog(ctx context.Context, limit, offset int) ([]*types.AuditLogEntry, error)
}

// RateLimit is the repository for rate-limit rules (C3).
type RateLimit interface {
	CreateRateLimitRule(ctx context.Context, r *types.RateLimitRule) error
	UpdateRateLimitRule(ctx context.Context, r *types.RateLimitRule) error
	DeleteRateLimitRule(ctx context.Context, id string) error
	ListRateLimitRules(ctx context.Context) ([]*types.RateLimitRule, error)
	GetRateLimitRule(ctx context.Context, id string) (*types.RateLimitRule, error)
}

// IPBlock is the repository for IP-block rules (C3).
type IPBlock interface {
	CreateIPBlockRule(ctx context.Context, r *types.IPBlockRule) error
	DeleteIPBlockRule(ctx context.Context, id string) error
	ListIPBlockRules(ctx context.Context) ([]*types.IPBlockRule, error)
	FindIPBlockRuleByIP(ctx context.Context, ip string) (*types.IPBlockRule, error)
}

// RequestLog is the append-mostly repository for inbound request
// records and the derived per-IP stats (C3).
type RequestLog interface {
	AppendRequestLog(ctx context.Context, e *types.RequestLogEntry) error
	ClientIPStats(ctx context.Context, since int64) ([]*types.ClientIPStat, error)
}

// SyncLog is the repository for sync job log rows (C5).
type SyncLog interface {
	AppendSyncLog(ctx context.Context, l *types.SyncJobLog) error
	LastSyncLog(ctx context.Context, jobName, resource string) (*types.SyncJobLog, error)
	ListSyncLogs(ctx context.Context, limit, offset int) ([]*types.SyncJobLog, error)
}

// JobControl is the repository for job status records and schedules
// (C7).
type JobControl interface {
	CreateJobStatus(ctx context.Context, j *types.JobStatusRecord) error
	UpdateJobStatus(ctx context.Context, j *types.JobStatusRecord) error
	GetJobStatus(ctx context.Context, jobID string) (*types.JobStatusRecord, error)
	ListJobStatuses(ctx context.Context, f types.JobListFilters, p types.Pagination) (*types.JobListResult, error)
	DeleteJobStatus(ctx context.Context, jobID string) error
	CountJobsByStatus(ctx context.Context) (types.QueueStatusCounters, error)

	GetJobSchedule(ctx context.Context, jt types.JobType) (*types.JobSchedule, error)
	ListJobSchedules(ctx context.Context) ([]*types.JobSchedule, error)
	UpsertJobSchedule(ctx context.Context, s *types.JobSchedule) error
}

// Credentials is the repository for encrypted upstream provider API
// keys.
type Credentials interface {
	SaveProviderCredential(ctx context.Context, c *types.ProviderCredential) error
	GetProviderCredential(ctx context.Context, provider string) (*types.ProviderCredential, error)
}

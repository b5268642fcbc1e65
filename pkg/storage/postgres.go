package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

// Postgres is the sqlx/lib-pq-backed Gateway implementation.
type Postgres struct {
	db        *sqlx.DB
	chunkSize int
}

// Open connects to Postgres and configures the pool. chunkSize bounds
// how many rows a bulk upsert handles per batch; each row in a batch
// is still written by its own statement.
func Open(dsn string, maxOpenConns, maxIdleConns, chunkSize int) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "connect to postgres")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Postgres{db: db, chunkSize: chunkSize}, nil
}

// NewPostgres wraps an already-open sqlx.DB, used by tests with
// sqlmock.
func NewPostgres(db *sqlx.DB, chunkSize int) *Postgres {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Postgres{db: db, chunkSize: chunkSize}
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "ping postgres")
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique
// constraint violation (code 23505). Natural-key upserts treat this
// as a no-op success rather than propagating it, since a concurrent
// sync of the same record raced us.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func wrapStorageErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError(op)
	}
	return errs.Wrap(err, errs.ErrorTypeStorage, op)
}

// chunk splits items into batches of at most size, invoking exec for
// each batch in order. The first batch that fails stops the loop and
// its error is returned; rows in batches already applied remain
// committed (no transaction spans the whole call). chunk does not
// count rows; callers that report a count do so themselves.
func chunk[T any](items []T, size int, exec func([]T) error) error {
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		if err := exec(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// --- Quran ---

func (p *Postgres) UpsertQuranChapter(ctx context.Context, c *types.QuranChapter) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO quran_chapters (number, name, name_arabic, name_english, revelation_type, verse_count)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (number) DO UPDATE SET
			name = EXCLUDED.name, name_arabic = EXCLUDED.name_arabic,
			name_english = EXCLUDED.name_english, revelation_type = EXCLUDED.revelation_type,
			verse_count = EXCLUDED.verse_count`,
		c.Number, c.Name, c.NameArabic, c.NameEnglish, c.RevelationType, c.VerseCount)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert quran chapter")
	}
	return nil
}

func (p *Postgres) UpsertQuranVerse(ctx context.Context, v *types.QuranVerse) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO quran_verses (chapter_number, verse_number, text_arabic, juz, page)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (chapter_number, verse_number) DO UPDATE SET
			text_arabic = EXCLUDED.text_arabic, juz = EXCLUDED.juz, page = EXCLUDED.page`,
		v.ChapterNumber, v.VerseNumber, v.TextArabic, v.Juz, v.Page)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert quran verse")
	}
	return nil
}

func (p *Postgres) UpsertQuranTranslation(ctx context.Context, t *types.QuranTranslation) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO quran_translations (chapter_number, verse_number, language, translator_id, text)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (chapter_number, verse_number, language, translator_id) DO UPDATE SET
			text = EXCLUDED.text`,
		t.ChapterNumber, t.VerseNumber, t.Language, t.TranslatorID, t.Text)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert quran translation")
	}
	return nil
}

func (p *Postgres) BulkUpsertQuranVerses(ctx context.Context, vs []*types.QuranVerse) (int, error) {
	count := 0
	err := chunk(vs, p.chunkSize, func(batch []*types.QuranVerse) error {
		for _, v := range batch {
			if err := p.UpsertQuranVerse(ctx, v); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func (p *Postgres) BulkUpsertQuranTranslations(ctx context.Context, ts []*types.QuranTranslation) (int, error) {
	count := 0
	err := chunk(ts, p.chunkSize, func(batch []*types.QuranTranslation) error {
		for _, t := range batch {
			if err := p.UpsertQuranTranslation(ctx, t); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func (p *Postgres) ListQuranChapters(ctx context.Context) ([]*types.QuranChapter, error) {
	var out []*types.QuranChapter
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM quran_chapters ORDER BY number`)
	return out, wrapStorageErr(err, "list quran chapters")
}

func (p *Postgres) ListQuranVerses(ctx context.Context, chapterNumber int) ([]*types.QuranVerse, error) {
	var out []*types.QuranVerse
	err := p.db.SelectContext(ctx, &out,
		`SELECT * FROM quran_verses WHERE chapter_number = $1 ORDER BY verse_number`, chapterNumber)
	return out, wrapStorageErr(err, "list quran verses")
}

// --- Hadith ---

func (p *Postgres) UpsertHadithCollection(ctx context.Context, c *types.HadithCollection) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO hadith_collections (slug, name, book_count)
		VALUES ($1,$2,$3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, book_count = EXCLUDED.book_count`,
		c.Slug, c.Name, c.BookCount)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert hadith collection")
	}
	return nil
}

func (p *Postgres) UpsertHadithBook(ctx context.Context, b *types.HadithBook) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO hadith_books (collection_slug, book_number, name, hadith_count)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (collection_slug, book_number) DO UPDATE SET
			name = EXCLUDED.name, hadith_count = EXCLUDED.hadith_count`,
		b.CollectionSlug, b.BookNumber, b.Name, b.HadithCount)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert hadith book")
	}
	return nil
}

func (p *Postgres) BulkUpsertHadiths(ctx context.Context, hs []*types.Hadith) (int, error) {
	count := 0
	err := chunk(hs, p.chunkSize, func(batch []*types.Hadith) error {
		for _, h := range batch {
			_, err := p.db.ExecContext(ctx, `
				INSERT INTO hadiths (collection_slug, book_number, hadith_number, text_arabic, text_english, grade)
				VALUES ($1,$2,$3,$4,$5,$6)
				ON CONFLICT (collection_slug, book_number, hadith_number) DO UPDATE SET
					text_arabic = EXCLUDED.text_arabic, text_english = EXCLUDED.text_english, grade = EXCLUDED.grade`,
				h.CollectionSlug, h.BookNumber, h.HadithNumber, h.TextArabic, h.TextEnglish, h.Grade)
			if err != nil && !isUniqueViolation(err) {
				return wrapStorageErr(err, "upsert hadith")
			}
			count++
		}
		return nil
	})
	return count, err
}

func (p *Postgres) ListHadithCollections(ctx context.Context) ([]*types.HadithCollection, error) {
	var out []*types.HadithCollection
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM hadith_collections ORDER BY slug`)
	return out, wrapStorageErr(err, "list hadith collections")
}

// --- Prayer ---

func (p *Postgres) BulkUpsertPrayerTimes(ctx context.Context, pts []*types.PrayerTimes) (int, error) {
	count := 0
	err := chunk(pts, p.chunkSize, func(batch []*types.PrayerTimes) error {
		for _, pt := range batch {
			_, err := p.db.ExecContext(ctx, `
				INSERT INTO prayer_times (location_key, method, school, date, fajr, sunrise, dhuhr, asr, maghrib, isha)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				ON CONFLICT (location_key, method, school, date) DO UPDATE SET
					fajr = EXCLUDED.fajr, sunrise = EXCLUDED.sunrise, dhuhr = EXCLUDED.dhuhr,
					asr = EXCLUDED.asr, maghrib = EXCLUDED.maghrib, isha = EXCLUDED.isha`,
				pt.LocationKey, pt.Method, pt.School, pt.Date, pt.Fajr, pt.Sunrise, pt.Dhuhr, pt.Asr, pt.Maghrib, pt.Isha)
			if err != nil && !isUniqueViolation(err) {
				return wrapStorageErr(err, "upsert prayer times")
			}
			count++
		}
		return nil
	})
	return count, err
}

func (p *Postgres) FindPrayerTimes(ctx context.Context, locationKey string, method types.PrayerMethod, school types.PrayerSchool, date string) (*types.PrayerTimes, error) {
	var out types.PrayerTimes
	err := p.db.GetContext(ctx, &out, `
		SELECT * FROM prayer_times WHERE location_key=$1 AND method=$2 AND school=$3 AND date=$4`,
		locationKey, method, school, date)
	if err != nil {
		return nil, wrapStorageErr(err, "find prayer times")
	}
	return &out, nil
}

func (p *Postgres) CreatePrayerLocation(ctx context.Context, loc *types.PrayerLocation) error {
	return wrapStorageErr(p.db.GetContext(ctx, &loc.ID, `
		INSERT INTO prayer_locations (latitude, longitude, timezone)
		VALUES ($1,$2,$3) RETURNING id`,
		loc.Latitude, loc.Longitude, loc.Timezone), "create prayer location")
}

func (p *Postgres) ListPrayerLocations(ctx context.Context) ([]*types.PrayerLocation, error) {
	var out []*types.PrayerLocation
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM prayer_locations ORDER BY id`)
	return out, wrapStorageErr(err, "list prayer locations")
}

func (p *Postgres) CreatePrayerCalculationMethod(ctx context.Context, m *types.PrayerCalculationMethod) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO prayer_calculation_methods (code, name)
		VALUES ($1,$2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
		m.Code, m.Name)
	return wrapStorageErr(err, "create prayer calculation method")
}

func (p *Postgres) ListPrayerCalculationMethods(ctx context.Context) ([]*types.PrayerCalculationMethod, error) {
	var out []*types.PrayerCalculationMethod
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM prayer_calculation_methods ORDER BY name`)
	return out, wrapStorageErr(err, "list prayer calculation methods")
}

// --- Finance ---

func (p *Postgres) UpsertGoldPrice(ctx context.Context, gp *types.GoldPrice) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO gold_prices (market, unit, date, price_usd, fetched_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (market, unit, date) DO UPDATE SET
			price_usd = EXCLUDED.price_usd, fetched_at = EXCLUDED.fetched_at`,
		gp.Market, gp.Unit, gp.Date, gp.PriceUSD, gp.FetchedAt)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert gold price")
	}
	return nil
}

func (p *Postgres) UpsertZakatNisabRate(ctx context.Context, r *types.ZakatNisabRate) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO zakat_nisab_rates (metal, date, price_per_gram, fetched_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (metal, date) DO UPDATE SET
			price_per_gram = EXCLUDED.price_per_gram, fetched_at = EXCLUDED.fetched_at`,
		r.Metal, r.Date, r.PricePerGram, r.FetchedAt)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert zakat nisab rate")
	}
	return nil
}

func (p *Postgres) LatestGoldPrice(ctx context.Context, market, unit string) (*types.GoldPrice, error) {
	var out types.GoldPrice
	err := p.db.GetContext(ctx, &out, `
		SELECT * FROM gold_prices WHERE market=$1 AND unit=$2 ORDER BY date DESC LIMIT 1`, market, unit)
	if err != nil {
		return nil, wrapStorageErr(err, "latest gold price")
	}
	return &out, nil
}

func (p *Postgres) LatestZakatNisabRate(ctx context.Context, metal string) (*types.ZakatNisabRate, error) {
	var out types.ZakatNisabRate
	err := p.db.GetContext(ctx, &out, `
		SELECT * FROM zakat_nisab_rates WHERE metal=$1 ORDER BY date DESC LIMIT 1`, metal)
	if err != nil {
		return nil, wrapStorageErr(err, "latest zakat nisab rate")
	}
	return &out, nil
}

// --- Audio ---

func (p *Postgres) UpsertReciter(ctx context.Context, r *types.Reciter) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO reciters (slug, name, upstream_id) VALUES ($1,$2,$3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, upstream_id = EXCLUDED.upstream_id`,
		r.Slug, r.Name, r.UpstreamID)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert reciter")
	}
	return nil
}

func (p *Postgres) BulkUpsertAudioFiles(ctx context.Context, fs []*types.AudioFile) (int, error) {
	count := 0
	err := chunk(fs, p.chunkSize, func(batch []*types.AudioFile) error {
		for _, f := range batch {
			_, err := p.db.ExecContext(ctx, `
				INSERT INTO audio_files (reciter_slug, chapter_number, url, duration_sec)
				VALUES ($1,$2,$3,$4)
				ON CONFLICT (reciter_slug, chapter_number) DO UPDATE SET
					url = EXCLUDED.url, duration_sec = EXCLUDED.duration_sec`,
				f.ReciterSlug, f.ChapterNumber, f.URL, f.DurationSec)
			if err != nil && !isUniqueViolation(err) {
				return wrapStorageErr(err, "upsert audio file")
			}
			count++
		}
		return nil
	})
	return count, err
}

func (p *Postgres) ListReciters(ctx context.Context) ([]*types.Reciter, error) {
	var out []*types.Reciter
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM reciters ORDER BY slug`)
	return out, wrapStorageErr(err, "list reciters")
}

// --- Admin ---

func (p *Postgres) CreateAdminUser(ctx context.Context, u *types.AdminUser) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, password_hash, first_name, last_name, role, permissions, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, pq.Array(u.Permissions), u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.NewConflictError("admin user with this email already exists")
		}
		return wrapStorageErr(err, "create admin user")
	}
	return nil
}

func (p *Postgres) GetAdminUserByID(ctx context.Context, id string) (*types.AdminUser, error) {
	return p.getAdminUser(ctx, `SELECT * FROM admin_users WHERE id = $1`, id)
}

func (p *Postgres) GetAdminUserByEmail(ctx context.Context, email string) (*types.AdminUser, error) {
	return p.getAdminUser(ctx, `SELECT * FROM admin_users WHERE email = $1`, email)
}

func (p *Postgres) getAdminUser(ctx context.Context, query string, arg interface{}) (*types.AdminUser, error) {
	var u adminUserRow
	if err := p.db.GetContext(ctx, &u, query, arg); err != nil {
		return nil, wrapStorageErr(err, "get admin user")
	}
	return u.toDomain(), nil
}

// adminUserRow mirrors AdminUser but with Permissions as pq.StringArray
// for sqlx scanning; AdminUser itself keeps a plain []string for JSON
// friendliness.
type adminUserRow struct {
	types.AdminUser
	Permissions pq.StringArray `db:"permissions"`
}

func (r *adminUserRow) toDomain() *types.AdminUser {
	u := r.AdminUser
	u.Permissions = []string(r.Permissions)
	return &u
}

func (p *Postgres) ListAdminUsers(ctx context.Context) ([]*types.AdminUser, error) {
	var rows []adminUserRow
	if err := p.db.SelectContext(ctx, &rows, `SELECT * FROM admin_users ORDER BY created_at`); err != nil {
		return nil, wrapStorageErr(err, "list admin users")
	}
	out := make([]*types.AdminUser, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (p *Postgres) UpdateAdminUser(ctx context.Context, u *types.AdminUser) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE admin_users SET email=$2, password_hash=$3, first_name=$4, last_name=$5,
			role=$6, permissions=$7, active=$8, last_login_at=$9, updated_at=$10
		WHERE id=$1`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, pq.Array(u.Permissions), u.Active, u.LastLoginAt, u.UpdatedAt)
	if err != nil {
		return wrapStorageErr(err, "update admin user")
	}
	return checkAffected(res, "admin user")
}

func (p *Postgres) DeleteAdminUser(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id=$1`, id)
	if err != nil {
		return wrapStorageErr(err, "delete admin user")
	}
	return checkAffected(res, "admin user")
}

func checkAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "check rows affected")
	}
	if n == 0 {
		return errs.NewNotFoundError(entity)
	}
	return nil
}

// --- Audit ---

func (p *Postgres) AppendAuditLog(ctx context.Context, e *types.AuditLogEntry) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, user_id, action, resource, resource_id, detail, ip, user_agent, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.UserID, e.Action, e.Resource, e.ResourceID, e.DetailRaw, e.IP, e.UserAgent, e.CreatedAt)
	return wrapStorageErr(err, "append audit log")
}

func (p *Postgres) ListAuditLog(ctx context.Context, limit, offset int) ([]*types.AuditLogEntry, error) {
	var out []*types.AuditLogEntry
	err := p.db.SelectContext(ctx, &out,
		`SELECT * FROM audit_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	return out, wrapStorageErr(err, "list audit log")
}

// --- Rate limit / IP block / request log ---

func (p *Postgres) CreateRateLimitRule(ctx context.Context, r *types.RateLimitRule) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO rate_limit_rules (id, endpoint_pattern, method, limit_count, window_seconds, enabled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.EndpointPattern, r.Method, r.LimitCount, r.WindowSeconds, r.Enabled, r.CreatedAt, r.UpdatedAt)
	return wrapStorageErr(err, "create rate limit rule")
}

func (p *Postgres) UpdateRateLimitRule(ctx context.Context, r *types.RateLimitRule) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE rate_limit_rules SET endpoint_pattern=$2, method=$3, limit_count=$4,
			window_seconds=$5, enabled=$6, updated_at=$7 WHERE id=$1`,
		r.ID, r.EndpointPattern, r.Method, r.LimitCount, r.WindowSeconds, r.Enabled, r.UpdatedAt)
	if err != nil {
		return wrapStorageErr(err, "update rate limit rule")
	}
	return checkAffected(res, "rate limit rule")
}

func (p *Postgres) DeleteRateLimitRule(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM rate_limit_rules WHERE id=$1`, id)
	if err != nil {
		return wrapStorageErr(err, "delete rate limit rule")
	}
	return checkAffected(res, "rate limit rule")
}

func (p *Postgres) ListRateLimitRules(ctx context.Context) ([]*types.RateLimitRule, error) {
	var out []*types.RateLimitRule
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM rate_limit_rules ORDER BY created_at`)
	return out, wrapStorageErr(err, "list rate limit rules")
}

func (p *Postgres) GetRateLimitRule(ctx context.Context, id string) (*types.RateLimitRule, error) {
	var out types.RateLimitRule
	err := p.db.GetContext(ctx, &out, `SELECT * FROM rate_limit_rules WHERE id=$1`, id)
	if err != nil {
		return nil, wrapStorageErr(err, "get rate limit rule")
	}
	return &out, nil
}

func (p *Postgres) CreateIPBlockRule(ctx context.Context, r *types.IPBlockRule) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO ip_block_rules (id, ip, reason, blocked_by, blocked_at, expires_at, enabled)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.IP, r.Reason, r.BlockedBy, r.BlockedAt, r.ExpiresAt, r.Enabled)
	return wrapStorageErr(err, "create ip block rule")
}

func (p *Postgres) DeleteIPBlockRule(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM ip_block_rules WHERE id=$1`, id)
	if err != nil {
		return wrapStorageErr(err, "delete ip block rule")
	}
	return checkAffected(res, "ip block rule")
}

func (p *Postgres) ListIPBlockRules(ctx context.Context) ([]*types.IPBlockRule, error) {
	var out []*types.IPBlockRule
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM ip_block_rules ORDER BY blocked_at DESC`)
	return out, wrapStorageErr(err, "list ip block rules")
}

func (p *Postgres) FindIPBlockRuleByIP(ctx context.Context, ip string) (*types.IPBlockRule, error) {
	var out types.IPBlockRule
	err := p.db.GetContext(ctx, &out, `SELECT * FROM ip_block_rules WHERE ip=$1 AND enabled ORDER BY blocked_at DESC LIMIT 1`, ip)
	if err != nil {
		return nil, wrapStorageErr(err, "find ip block rule")
	}
	return &out, nil
}

func (p *Postgres) AppendRequestLog(ctx context.Context, e *types.RequestLogEntry) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO request_log (id, ip, method, path, status_code, latency_ms, user_agent, received_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.IP, e.Method, e.Path, e.StatusCode, e.LatencyMs, e.UserAgent, e.ReceivedAt)
	return wrapStorageErr(err, "append request log")
}

func (p *Postgres) ClientIPStats(ctx context.Context, since int64) ([]*types.ClientIPStat, error) {
	var out []*types.ClientIPStat
	err := p.db.SelectContext(ctx, &out, `
		SELECT ip,
			COUNT(*) AS request_count,
			COUNT(*) FILTER (WHERE status_code >= 400) AS error_count,
			MAX(received_at) AS last_request_at,
			FALSE AS blocked
		FROM request_log
		WHERE EXTRACT(EPOCH FROM received_at) >= $1
		GROUP BY ip`, since)
	return out, wrapStorageErr(err, "client ip stats")
}

// --- Sync log ---

func (p *Postgres) AppendSyncLog(ctx context.Context, l *types.SyncJobLog) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sync_job_log (id, job_name, resource, started_at, finished_at, status, error_text, duration_ms, records_processed, records_failed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		l.ID, l.JobName, l.Resource, l.StartedAt, l.FinishedAt, l.Status, l.ErrorText, l.DurationMs, l.RecordsProcessed, l.RecordsFailed)
	return wrapStorageErr(err, "append sync log")
}

func (p *Postgres) LastSyncLog(ctx context.Context, jobName, resource string) (*types.SyncJobLog, error) {
	var out types.SyncJobLog
	err := p.db.GetContext(ctx, &out, `
		SELECT * FROM sync_job_log WHERE job_name=$1 AND resource=$2
		ORDER BY started_at DESC LIMIT 1`, jobName, resource)
	if err != nil {
		return nil, wrapStorageErr(err, "last sync log")
	}
	return &out, nil
}

func (p *Postgres) ListSyncLogs(ctx context.Context, limit, offset int) ([]*types.SyncJobLog, error) {
	var out []*types.SyncJobLog
	err := p.db.SelectContext(ctx, &out,
		`SELECT * FROM sync_job_log ORDER BY started_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	return out, wrapStorageErr(err, "list sync logs")
}

// --- Job control ---

func (p *Postgres) CreateJobStatus(ctx context.Context, j *types.JobStatusRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO job_status (job_id, job_name, job_type, status, progress_percentage, priority,
			started_at, completed_at, created_at, updated_at, error_text, cancel_flag)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		j.JobID, j.JobName, j.JobType, j.Status, j.Progress, j.Priority,
		j.StartedAt, j.CompletedAt, j.CreatedAt, j.UpdatedAt, j.ErrorText, j.CancelFlag)
	return wrapStorageErr(err, "create job status")
}

func (p *Postgres) UpdateJobStatus(ctx context.Context, j *types.JobStatusRecord) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE job_status SET status=$2, progress_percentage=$3, priority=$4,
			started_at=$5, completed_at=$6, updated_at=$7, error_text=$8, cancel_flag=$9
		WHERE job_id=$1`,
		j.JobID, j.Status, j.Progress, j.Priority, j.StartedAt, j.CompletedAt, j.UpdatedAt, j.ErrorText, j.CancelFlag)
	if err != nil {
		return wrapStorageErr(err, "update job status")
	}
	return checkAffected(res, "job")
}

func (p *Postgres) GetJobStatus(ctx context.Context, jobID string) (*types.JobStatusRecord, error) {
	var out types.JobStatusRecord
	err := p.db.GetContext(ctx, &out, `SELECT * FROM job_status WHERE job_id=$1`, jobID)
	if err != nil {
		return nil, wrapStorageErr(err, "get job status")
	}
	return &out, nil
}

func (p *Postgres) DeleteJobStatus(ctx context.Context, jobID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM job_status WHERE job_id=$1`, jobID)
	if err != nil {
		return wrapStorageErr(err, "delete job status")
	}
	return checkAffected(res, "job")
}

func (p *Postgres) ListJobStatuses(ctx context.Context, f types.JobListFilters, pg types.Pagination) (*types.JobListResult, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argN := 1
	add := func(clause string, val interface{}) {
		where += fmt.Sprintf(" AND %s $%d", clause, argN)
		args = append(args, val)
		argN++
	}
	if f.Status != nil {
		add("status =", *f.Status)
	}
	if f.JobType != nil {
		add("job_type =", *f.JobType)
	}
	if f.Priority != nil {
		add("priority =", *f.Priority)
	}
	if f.StartDate != nil {
		add("created_at >=", *f.StartDate)
	}
	if f.EndDate != nil {
		add("created_at <=", *f.EndDate)
	}

	var total int
	if err := p.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM job_status "+where, args...); err != nil {
		return nil, wrapStorageErr(err, "count job statuses")
	}

	limit, offset := pg.Limit, pg.Offset
	if limit <= 0 {
		limit = 50
	}
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	query := fmt.Sprintf("SELECT * FROM job_status %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d", where, argN, argN+1)

	var jobs []*types.JobStatusRecord
	if err := p.db.SelectContext(ctx, &jobs, query, listArgs...); err != nil {
		return nil, wrapStorageErr(err, "list job statuses")
	}

	return &types.JobListResult{
		Jobs:    jobs,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(jobs) < total,
	}, nil
}

func (p *Postgres) CountJobsByStatus(ctx context.Context) (types.QueueStatusCounters, error) {
	rows, err := p.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM job_status GROUP BY status`)
	if err != nil {
		return types.QueueStatusCounters{}, wrapStorageErr(err, "count jobs by status")
	}
	defer rows.Close()

	var c types.QueueStatusCounters
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return types.QueueStatusCounters{}, wrapStorageErr(err, "scan job status count")
		}
		switch types.JobStatus(status) {
		case types.JobStatusPending:
			c.Waiting = n
		case types.JobStatusRunning:
			c.Active = n
		case types.JobStatusCompleted:
			c.Completed = n
		case types.JobStatusFailed:
			c.Failed = n
		case types.JobStatusPaused:
			c.Paused = n
		}
	}
	return c, nil
}

func (p *Postgres) GetJobSchedule(ctx context.Context, jt types.JobType) (*types.JobSchedule, error) {
	var out types.JobSchedule
	err := p.db.GetContext(ctx, &out, `SELECT * FROM job_schedules WHERE job_type=$1`, jt)
	if err != nil {
		return nil, wrapStorageErr(err, "get job schedule")
	}
	return &out, nil
}

func (p *Postgres) ListJobSchedules(ctx context.Context) ([]*types.JobSchedule, error) {
	var out []*types.JobSchedule
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM job_schedules ORDER BY job_type`)
	return out, wrapStorageErr(err, "list job schedules")
}

func (p *Postgres) UpsertJobSchedule(ctx context.Context, s *types.JobSchedule) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO job_schedules (job_type, enabled, cron_expression, priority, max_concurrency, timeout_minutes, retry_attempts, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (job_type) DO UPDATE SET
			enabled=EXCLUDED.enabled, cron_expression=EXCLUDED.cron_expression, priority=EXCLUDED.priority,
			max_concurrency=EXCLUDED.max_concurrency, timeout_minutes=EXCLUDED.timeout_minutes,
			retry_attempts=EXCLUDED.retry_attempts, updated_at=EXCLUDED.updated_at`,
		s.JobType, s.Enabled, s.CronExpression, s.Priority, s.MaxConcurrency, s.TimeoutMinutes, s.RetryAttempts, s.UpdatedAt)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "upsert job schedule")
	}
	return nil
}

// --- Provider credentials ---

func (p *Postgres) SaveProviderCredential(ctx context.Context, c *types.ProviderCredential) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO provider_credentials (provider, encrypted_key, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (provider) DO UPDATE SET encrypted_key=EXCLUDED.encrypted_key, updated_at=EXCLUDED.updated_at`,
		c.Provider, c.EncryptedKey, c.UpdatedAt)
	if err != nil && !isUniqueViolation(err) {
		return wrapStorageErr(err, "save provider credential")
	}
	return nil
}

func (p *Postgres) GetProviderCredential(ctx context.Context, provider string) (*types.ProviderCredential, error) {
	var out types.ProviderCredential
	err := p.db.GetContext(ctx, &out, `SELECT * FROM provider_credentials WHERE provider=$1`, provider)
	if err != nil {
		return nil, wrapStorageErr(err, "get provider credential")
	}
	return &out, nil
}

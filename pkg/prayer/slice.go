package prayer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/syncengine"
	"github.com/deenmate/sync-core/pkg/types"
)

const jobName = "prayer-sync"

// DateRange bounds a slice sync; End is inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SliceOptions mirrors the options a single (location, method, school)
// slice invocation recognizes.
type SliceOptions struct {
	Force                    bool
	DateRange                *DateRange
	LatitudeAdjustmentMethod int
	Tune                     string
	Timezone                 string
}

type timingsDTO struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

type timingsDataDTO struct {
	Timings timingsDTO `json:"timings"`
}

type timingsRespDTO struct {
	Data timingsDataDTO `json:"data"`
}

// Syncer fetches and upserts prayer times for a single (location,
// method, school) slice across a date range. The fan-out Planner owns
// enumerating slices and dispatching them under a concurrency cap;
// Syncer owns the per-day fetch/map/upsert that makes up one slice.
type Syncer struct {
	client  *httpclient.Client
	gateway storage.Prayer
	engine  *syncengine.Engine
	baseURL string
}

func NewSyncer(client *httpclient.Client, gateway storage.Prayer, engine *syncengine.Engine, baseURL string) *Syncer {
	return &Syncer{client: client, gateway: gateway, engine: engine, baseURL: baseURL}
}

// SyncOne runs a single slice: one location, one calculation method,
// one school, across `days` days (or the explicit DateRange when set).
func (s *Syncer) SyncOne(ctx context.Context, lat, lng float64, method types.PrayerMethod, school types.PrayerSchool, days int, opts SliceOptions) (*syncengine.Result, error) {
	dr, err := resolveDateRange(days, opts.DateRange)
	if err != nil {
		return nil, err
	}

	locKey := LocationKey(lat, lng)
	resource := fmt.Sprintf("%s:%s:%s", locKey, method, school)

	return s.engine.Run(ctx, jobName, resource, syncengine.Options{Force: opts.Force, DryRun: false}, func(ctx context.Context, engineOpts syncengine.Options) (syncengine.StepResult, error) {
		var result syncengine.StepResult

		for d := dr.Start; !d.After(dr.End); d = d.AddDate(0, 0, 1) {
			result.Processed++

			var resp timingsRespDTO
			reqURL := s.buildTimingsURL(lat, lng, method, school, d, opts)
			if err := s.client.GetJSON(ctx, "prayer", reqURL, &resp); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", d.Format("2006-01-02"), err))
				continue
			}

			pt, err := mapTimings(locKey, method, school, d, resp.Data.Timings)
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}

			if err := s.gateway.BulkUpsertPrayerTimes(ctx, []*types.PrayerTimes{pt}); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Updated++
		}

		return result, nil
	})
}

func (s *Syncer) buildTimingsURL(lat, lng float64, method types.PrayerMethod, school types.PrayerSchool, day time.Time, opts SliceOptions) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("method", string(method))
	q.Set("school", string(school))
	if opts.LatitudeAdjustmentMethod != 0 {
		q.Set("latitudeAdjustmentMethod", strconv.Itoa(opts.LatitudeAdjustmentMethod))
	}
	if opts.Tune != "" {
		q.Set("tune", opts.Tune)
	}
	if opts.Timezone != "" {
		q.Set("timezonestring", opts.Timezone)
	}
	return fmt.Sprintf("%s/timings/%s?%s", s.baseURL, day.Format("02-01-2006"), q.Encode())
}

func mapTimings(locKey string, method types.PrayerMethod, school types.PrayerSchool, day time.Time, dto timingsDTO) (*types.PrayerTimes, error) {
	if dto.Fajr == "" || dto.Isha == "" {
		return nil, fmt.Errorf("%s: upstream returned incomplete timings", day.Format("2006-01-02"))
	}
	return &types.PrayerTimes{
		LocationKey: locKey,
		Method:      method,
		School:      school,
		Date:        day.Format("2006-01-02"),
		Fajr:        stripTimezoneSuffix(dto.Fajr),
		Sunrise:     stripTimezoneSuffix(dto.Sunrise),
		Dhuhr:       stripTimezoneSuffix(dto.Dhuhr),
		Asr:         stripTimezoneSuffix(dto.Asr),
		Maghrib:     stripTimezoneSuffix(dto.Maghrib),
		Isha:        stripTimezoneSuffix(dto.Isha),
	}, nil
}

// stripTimezoneSuffix removes aladhan's " (BST)"-style suffix, leaving
// a bare "HH:mm".
func stripTimezoneSuffix(t string) string {
	if i := strings.IndexByte(t, ' '); i >= 0 {
		return t[:i]
	}
	return t
}

func resolveDateRange(days int, explicit *DateRange) (DateRange, error) {
	if explicit != nil {
		span := explicit.End.Sub(explicit.Start)
		if span < 0 || span >= 365*24*time.Hour {
			return DateRange{}, errs.NewValidationError("dateRange must satisfy 0 <= (end - start) < 365 days")
		}
		return *explicit, nil
	}
	if days < 1 || days > 365 {
		return DateRange{}, errs.NewValidationError("days must be between 1 and 365")
	}
	today := time.Now().Truncate(24 * time.Hour)
	return DateRange{Start: today, End: today.AddDate(0, 0, days-1)}, nil
}

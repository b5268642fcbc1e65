package prayer

import (
	"context"
	"sync"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/syncengine"
	"github.com/deenmate/sync-core/pkg/types"
)

// PrewarmResult aggregates every slice invocation a Prewarm call
// dispatched.
type PrewarmResult struct {
	SlicesDispatched int
	RecordsProcessed int
	RecordsUpdated   int
	RecordsFailed    int
	Errors           []string
	DurationMs       int64
}

type combo struct {
	location types.PrayerLocation
	method   types.PrayerCalculationMethod
	school   types.PrayerSchool
}

// Planner enumerates the Cartesian product of persisted locations,
// persisted calculation methods, and the two schools, and dispatches
// one Syncer.SyncOne call per combination under a concurrency cap.
// Work is partitioned across workers by location id so that every
// combination sharing a location lands on the same worker, keeping
// the politeness delay meaningful per upstream-facing location.
type Planner struct {
	syncer           *Syncer
	gateway          storage.Prayer
	maxConcurrency   int
	politenessDelay  time.Duration
	maxDateRangeDays int
}

func NewPlanner(syncer *Syncer, gateway storage.Prayer, cfg Config) *Planner {
	concurrency := cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Planner{
		syncer:           syncer,
		gateway:          gateway,
		maxConcurrency:   concurrency,
		politenessDelay:  cfg.PolitenessDelay,
		maxDateRangeDays: cfg.MaxDateRangeDays,
	}
}

// Config mirrors pkg/config's PrayerConfig without importing it
// directly, so this package has no dependency on the admin-facing
// config layer.
type Config struct {
	MaxConcurrency   int
	PolitenessDelay  time.Duration
	MaxDateRangeDays int
}

// SyncOne runs a single (location, method, school) slice, delegating
// to the underlying Syncer. Exposed on Planner so callers driving C6
// from the admin API (C8) have one entry point for both the bulk and
// single-slice contracts.
func (p *Planner) SyncOne(ctx context.Context, lat, lng float64, method types.PrayerMethod, school types.PrayerSchool, days int, opts SliceOptions) (*syncengine.Result, error) {
	return p.syncer.SyncOne(ctx, lat, lng, method, school, days, opts)
}

// Prewarm bulk-populates prayer times for the next `days` days across
// every persisted location, method, and school.
func (p *Planner) Prewarm(ctx context.Context, days int) (*PrewarmResult, error) {
	if days < 1 || days > p.maxDateRangeDays {
		return nil, errs.NewValidationError("days must be between 1 and the configured maximum date range")
	}

	locations, err := p.gateway.ListPrayerLocations(ctx)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "list prayer locations")
	}
	methods, err := p.gateway.ListPrayerCalculationMethods(ctx)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "list prayer calculation methods")
	}
	if len(locations) == 0 || len(methods) == 0 {
		return &PrewarmResult{}, nil
	}

	schools := []types.PrayerSchool{types.SchoolShafi, types.SchoolHanafi}

	var combos []combo
	for _, loc := range locations {
		for _, m := range methods {
			for _, sc := range schools {
				combos = append(combos, combo{location: *loc, method: *m, school: sc})
			}
		}
	}

	started := time.Now()
	result := p.dispatch(ctx, combos, days)
	result.DurationMs = time.Since(started).Milliseconds()
	return result, nil
}

// dispatch partitions combos across p.maxConcurrency workers by
// location id mod concurrency and runs each worker's assigned combos
// sequentially with a politeness delay between upstream calls.
func (p *Planner) dispatch(ctx context.Context, combos []combo, days int) *PrewarmResult {
	buckets := make([][]combo, p.maxConcurrency)
	for _, c := range combos {
		idx := int(c.location.ID) % p.maxConcurrency
		if idx < 0 {
			idx += p.maxConcurrency
		}
		buckets[idx] = append(buckets[idx], c)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = &PrewarmResult{}
	)

	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		wg.Add(1)
		go func(bucket []combo) {
			defer wg.Done()
			for i, c := range bucket {
				if ctx.Err() != nil {
					return
				}
				if i > 0 && p.politenessDelay > 0 {
					time.Sleep(p.politenessDelay)
				}

				sliceResult, err := p.syncer.SyncOne(ctx, c.location.Latitude, c.location.Longitude, c.method.Code, c.school, days, SliceOptions{Timezone: c.location.Timezone})

				mu.Lock()
				result.SlicesDispatched++
				if err != nil {
					result.RecordsFailed++
					result.Errors = append(result.Errors, err.Error())
					metrics.PrayerFanoutSlicesTotal.WithLabelValues("failed").Inc()
				} else {
					metrics.PrayerFanoutSlicesTotal.WithLabelValues("success").Inc()
					result.RecordsProcessed += sliceResult.RecordsProcessed
					result.RecordsUpdated += sliceResult.RecordsUpdated
					result.RecordsFailed += sliceResult.RecordsFailed
					result.Errors = append(result.Errors, sliceResult.Errors...)
				}
				mu.Unlock()
			}
		}(bucket)
	}

	wg.Wait()
	log.Logger.Info().
		Int("slices", result.SlicesDispatched).
		Int("records_processed", result.RecordsProcessed).
		Int("records_failed", result.RecordsFailed).
		Msg("prayer prewarm complete")
	return result
}

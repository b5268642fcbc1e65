package prayer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/syncengine"
	"github.com/deenmate/sync-core/pkg/types"
)

func TestStripTimezoneSuffix(t *testing.T) {
	cases := map[string]string{
		"04:32 (+06)": "04:32",
		"04:32":       "04:32",
		"":            "",
	}
	for in, want := range cases {
		if got := stripTimezoneSuffix(in); got != want {
			t.Errorf("stripTimezoneSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapTimingsRejectsIncompleteResponse(t *testing.T) {
	_, err := mapTimings("loc", types.PrayerMethod("2"), types.SchoolShafi, time.Now(), timingsDTO{})
	if err == nil {
		t.Fatal("mapTimings() should reject a response missing Fajr/Isha")
	}
}

func TestMapTimingsMapsFields(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pt, err := mapTimings("loc1", types.PrayerMethod("2"), types.SchoolHanafi, day, timingsDTO{
		Fajr: "04:32 (+06)", Sunrise: "05:50", Dhuhr: "12:10", Asr: "15:45", Maghrib: "18:20", Isha: "19:35",
	})
	if err != nil {
		t.Fatalf("mapTimings() error: %v", err)
	}
	if pt.LocationKey != "loc1" || pt.Date != "2026-03-01" || pt.Fajr != "04:32" || pt.School != types.SchoolHanafi {
		t.Errorf("mapTimings() = %+v, unexpected", pt)
	}
}

func TestResolveDateRangeRejectsOutOfBoundsDays(t *testing.T) {
	if _, err := resolveDateRange(0, nil); err == nil {
		t.Error("resolveDateRange(0, nil) should reject days=0")
	}
	if _, err := resolveDateRange(366, nil); err == nil {
		t.Error("resolveDateRange(366, nil) should reject days>365")
	}
}

func TestResolveDateRangeRejectsInvertedExplicitRange(t *testing.T) {
	now := time.Now()
	_, err := resolveDateRange(1, &DateRange{Start: now, End: now.AddDate(0, 0, -1)})
	if err == nil {
		t.Error("resolveDateRange() should reject an explicit range where end precedes start")
	}
}

func TestResolveDateRangeDefaultsFromDays(t *testing.T) {
	dr, err := resolveDateRange(3, nil)
	if err != nil {
		t.Fatalf("resolveDateRange() error: %v", err)
	}
	if dr.End.Sub(dr.Start) != 2*24*time.Hour {
		t.Errorf("date range span = %v, want 2 days for days=3 inclusive", dr.End.Sub(dr.Start))
	}
}

type fakePrayerGateway struct {
	upserted []*types.PrayerTimes
}

func (f *fakePrayerGateway) BulkUpsertPrayerTimes(ctx context.Context, pts []*types.PrayerTimes) (int, error) {
	f.upserted = append(f.upserted, pts...)
	return len(pts), nil
}
func (f *fakePrayerGateway) FindPrayerTimes(ctx context.Context, locationKey string, method types.PrayerMethod, school types.PrayerSchool, date string) (*types.PrayerTimes, error) {
	return nil, nil
}
func (f *fakePrayerGateway) CreatePrayerLocation(ctx context.Context, loc *types.PrayerLocation) error {
	return nil
}
func (f *fakePrayerGateway) ListPrayerLocations(ctx context.Context) ([]*types.PrayerLocation, error) {
	return nil, nil
}
func (f *fakePrayerGateway) CreatePrayerCalculationMethod(ctx context.Context, m *types.PrayerCalculationMethod) error {
	return nil
}
func (f *fakePrayerGateway) ListPrayerCalculationMethods(ctx context.Context) ([]*types.PrayerCalculationMethod, error) {
	return nil, nil
}

var _ storage.Prayer = (*fakePrayerGateway)(nil)

type fakeSliceSyncLog struct {
	last *types.SyncJobLog
}

func (f *fakeSliceSyncLog) AppendSyncLog(ctx context.Context, l *types.SyncJobLog) error {
	f.last = l
	return nil
}
func (f *fakeSliceSyncLog) LastSyncLog(ctx context.Context, jobName, resource string) (*types.SyncJobLog, error) {
	if f.last != nil && (f.last.JobName != jobName || f.last.Resource != resource) {
		return nil, nil
	}
	return f.last, nil
}
func (f *fakeSliceSyncLog) ListSyncLogs(ctx context.Context, limit, offset int) ([]*types.SyncJobLog, error) {
	return nil, nil
}

func TestSyncOneUpsertsEachDayInRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(timingsRespDTO{Data: timingsDataDTO{Timings: timingsDTO{
			Fajr: "04:30", Sunrise: "05:45", Dhuhr: "12:05", Asr: "15:40", Maghrib: "18:15", Isha: "19:30",
		}}})
	}))
	defer srv.Close()

	gw := &fakePrayerGateway{}
	sl := &fakeSliceSyncLog{}
	engine := syncengine.NewEngine(sl, 24*time.Hour)
	client := httpclient.New("test-agent", httpclient.WithRetryPolicy(httpclient.RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond}))
	syncer := NewSyncer(client, gw, engine, srv.URL)

	result, err := syncer.SyncOne(context.Background(), 23.81, 90.41, types.PrayerMethod("2"), types.SchoolShafi, 3, SliceOptions{})
	if err != nil {
		t.Fatalf("SyncOne() error: %v", err)
	}
	if !result.Success || result.RecordsProcessed != 3 || len(gw.upserted) != 3 {
		t.Errorf("result = %+v, upserted = %d, want processed=3 success=true", result, len(gw.upserted))
	}
}

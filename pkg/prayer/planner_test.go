package prayer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/syncengine"
	"github.com/deenmate/sync-core/pkg/types"
)

type fakePlannerGateway struct {
	fakePrayerGateway
	locations []*types.PrayerLocation
	methods   []*types.PrayerCalculationMethod
}

func (f *fakePlannerGateway) ListPrayerLocations(ctx context.Context) ([]*types.PrayerLocation, error) {
	return f.locations, nil
}
func (f *fakePlannerGateway) ListPrayerCalculationMethods(ctx context.Context) ([]*types.PrayerCalculationMethod, error) {
	return f.methods, nil
}

func TestPrewarmDispatchesCartesianProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(timingsRespDTO{Data: timingsDataDTO{Timings: timingsDTO{
			Fajr: "04:30", Sunrise: "05:45", Dhuhr: "12:05", Asr: "15:40", Maghrib: "18:15", Isha: "19:30",
		}}})
	}))
	defer srv.Close()

	gw := &fakePlannerGateway{
		locations: []*types.PrayerLocation{
			{ID: 1, Latitude: 23.81, Longitude: 90.41, Timezone: "Asia/Dhaka"},
			{ID: 2, Latitude: 51.50, Longitude: -0.12, Timezone: "Europe/London"},
		},
		methods: []*types.PrayerCalculationMethod{
			{Code: "2", Name: "ISNA"},
			{Code: "3", Name: "MWL"},
			{Code: "5", Name: "Egyptian"},
		},
	}
	sl := &fakeSliceSyncLog{}
	engine := syncengine.NewEngine(sl, 24*time.Hour)
	client := httpclient.New("test-agent", httpclient.WithRetryPolicy(httpclient.RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond}))
	syncer := NewSyncer(client, gw, engine, srv.URL)
	planner := NewPlanner(syncer, gw, Config{MaxConcurrency: 2, PolitenessDelay: time.Millisecond, MaxDateRangeDays: 365})

	result, err := planner.Prewarm(context.Background(), 2)
	if err != nil {
		t.Fatalf("Prewarm() error: %v", err)
	}
	// 2 locations * 3 methods * 2 schools = 12 slices, each covering 2 days = 24 processed.
	if result.SlicesDispatched != 12 {
		t.Errorf("SlicesDispatched = %d, want 12", result.SlicesDispatched)
	}
	if result.RecordsProcessed != 24 {
		t.Errorf("RecordsProcessed = %d, want 24", result.RecordsProcessed)
	}
	if result.RecordsFailed != 0 {
		t.Errorf("RecordsFailed = %d, want 0, errs: %v", result.RecordsFailed, result.Errors)
	}
}

func TestPrewarmRejectsDaysOutsideConfiguredMax(t *testing.T) {
	gw := &fakePlannerGateway{}
	sl := &fakeSliceSyncLog{}
	engine := syncengine.NewEngine(sl, 24*time.Hour)
	client := httpclient.New("test-agent")
	syncer := NewSyncer(client, gw, engine, "http://example.invalid")
	planner := NewPlanner(syncer, gw, Config{MaxConcurrency: 1, MaxDateRangeDays: 30})

	if _, err := planner.Prewarm(context.Background(), 31); err == nil {
		t.Error("Prewarm() should reject days beyond maxDateRangeDays")
	}
}

func TestPrewarmNoLocationsReturnsEmptyResult(t *testing.T) {
	gw := &fakePlannerGateway{}
	sl := &fakeSliceSyncLog{}
	engine := syncengine.NewEngine(sl, 24*time.Hour)
	client := httpclient.New("test-agent")
	syncer := NewSyncer(client, gw, engine, "http://example.invalid")
	planner := NewPlanner(syncer, gw, Config{MaxConcurrency: 2, MaxDateRangeDays: 365})

	result, err := planner.Prewarm(context.Background(), 5)
	if err != nil {
		t.Fatalf("Prewarm() error: %v", err)
	}
	if result.SlicesDispatched != 0 {
		t.Errorf("SlicesDispatched = %d, want 0 when no locations are persisted", result.SlicesDispatched)
	}
}

package admission

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/deenmate/sync-core/pkg/types"
)

// fakeGateway implements the small storage.IPBlock/storage.RateLimit/
// storage.RequestLog surface this package depends on, in memory.
type fakeGateway struct {
	ipRules    []*types.IPBlockRule
	rateRules  []*types.RateLimitRule
	logEntries []*types.RequestLogEntry
}

func (f *fakeGateway) ListIPBlockRules(ctx context.Context) ([]*types.IPBlockRule, error) {
	return f.ipRules, nil
}
func (f *fakeGateway) CreateIPBlockRule(ctx context.Context, r *types.IPBlockRule) error { return nil }
func (f *fakeGateway) DeleteIPBlockRule(ctx context.Context, id string) error            { return nil }
func (f *fakeGateway) FindIPBlockRuleByIP(ctx context.Context, ip string) (*types.IPBlockRule, error) {
	for _, r := range f.ipRules {
		if r.IP == ip {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeGateway) ListRateLimitRules(ctx context.Context) ([]*types.RateLimitRule, error) {
	return f.rateRules, nil
}
func (f *fakeGateway) CreateRateLimitRule(ctx context.Context, r *types.RateLimitRule) error {
	return nil
}
func (f *fakeGateway) UpdateRateLimitRule(ctx context.Context, r *types.RateLimitRule) error {
	return nil
}
func (f *fakeGateway) DeleteRateLimitRule(ctx context.Context, id string) error { return nil }
func (f *fakeGateway) GetRateLimitRule(ctx context.Context, id string) (*types.RateLimitRule, error) {
	return nil, nil
}

func (f *fakeGateway) AppendRequestLog(ctx context.Context, e *types.RequestLogEntry) error {
	f.logEntries = append(f.logEntries, e)
	return nil
}
func (f *fakeGateway) ClientIPStats(ctx context.Context, since int64) ([]*types.ClientIPStat, error) {
	return nil, nil
}

func TestIPBlockCheckerBlocksActiveRule(t *testing.T) {
	gw := &fakeGateway{ipRules: []*types.IPBlockRule{
		{ID: "1", IP: "1.2.3.4", Enabled: true, Reason: "abuse"},
	}}
	c, err := NewIPBlockChecker(context.Background(), gw, time.Minute)
	if err != nil {
		t.Fatalf("NewIPBlockChecker() error: %v", err)
	}

	blocked, rule := c.IsBlocked("1.2.3.4", time.Now())
	if !blocked || rule.Reason != "abuse" {
		t.Errorf("IsBlocked() = %v, %v; want blocked with reason abuse", blocked, rule)
	}

	blocked, _ = c.IsBlocked("9.9.9.9", time.Now())
	if blocked {
		t.Error("unlisted IP should not be blocked")
	}
}

func TestIPBlockCheckerFailsOpenWhenUncached(t *testing.T) {
	gw := &fakeGateway{}
	c, err := NewIPBlockChecker(context.Background(), gw, time.Minute)
	if err != nil {
		t.Fatalf("NewIPBlockChecker() error: %v", err)
	}
	blocked, rule := c.IsBlocked("5.5.5.5", time.Now())
	if blocked || rule != nil {
		t.Errorf("expected fail-open for uncached IP, got blocked=%v rule=%v", blocked, rule)
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	s := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: s.Addr()})
}

func TestRateLimiterAllowsThenRejects(t *testing.T) {
	rc := newTestRedis(t)
	gw := &fakeGateway{rateRules: []*types.RateLimitRule{
		{ID: "r1", EndpointPattern: "/api/v1/quran/*", Method: types.MethodGET, LimitCount: 2, WindowSeconds: 60, Enabled: true},
	}}
	l, err := NewRateLimiter(context.Background(), rc, gw)
	if err != nil {
		t.Fatalf("NewRateLimiter() error: %v", err)
	}

	ctx := context.Background()
	d1 := l.Check(ctx, "1.1.1.1", "GET", "/api/v1/quran/chapters")
	d2 := l.Check(ctx, "1.1.1.1", "GET", "/api/v1/quran/chapters")
	d3 := l.Check(ctx, "1.1.1.1", "GET", "/api/v1/quran/chapters")

	if !d1.Allowed || !d2.Allowed {
		t.Errorf("first two requests should be allowed, got %v %v", d1.Allowed, d2.Allowed)
	}
	if d3.Allowed {
		t.Error("third request should exceed limit of 2")
	}
	if d3.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d3.Remaining)
	}
}

func TestRateLimiterNoMatchingRuleAllowsUnbounded(t *testing.T) {
	rc := newTestRedis(t)
	gw := &fakeGateway{}
	l, err := NewRateLimiter(context.Background(), rc, gw)
	if err != nil {
		t.Fatalf("NewRateLimiter() error: %v", err)
	}
	d := l.Check(context.Background(), "1.1.1.1", "GET", "/anything")
	if !d.Allowed || d.Rule != nil {
		t.Errorf("expected unbounded allow with no rule, got %+v", d)
	}
}

func TestRateLimiterPrefersMostSpecificRule(t *testing.T) {
	rc := newTestRedis(t)
	gw := &fakeGateway{rateRules: []*types.RateLimitRule{
		{ID: "wide", EndpointPattern: "/api/*", Method: types.MethodALL, LimitCount: 100, WindowSeconds: 60, Enabled: true},
		{ID: "narrow", EndpointPattern: "/api/v1/quran/*", Method: types.MethodGET, LimitCount: 1, WindowSeconds: 60, Enabled: true},
	}}
	l, err := NewRateLimiter(context.Background(), rc, gw)
	if err != nil {
		t.Fatalf("NewRateLimiter() error: %v", err)
	}

	d := l.Check(context.Background(), "2.2.2.2", "GET", "/api/v1/quran/chapters")
	if d.Rule == nil || d.Rule.ID != "narrow" {
		t.Errorf("expected narrow rule to win, got %+v", d.Rule)
	}
}

func TestPipelineBlocksIPBeforeHandler(t *testing.T) {
	gw := &fakeGateway{ipRules: []*types.IPBlockRule{
		{ID: "1", IP: "203.0.113.1", Enabled: true, Reason: "abuse"},
	}}
	ipChecker, err := NewIPBlockChecker(context.Background(), gw, time.Minute)
	if err != nil {
		t.Fatalf("NewIPBlockChecker() error: %v", err)
	}

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	p := NewPipeline(ipChecker, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quran/chapters", nil)
	req.RemoteAddr = "203.0.113.1:5555"
	rw := httptest.NewRecorder()

	p.Middleware(handler).ServeHTTP(rw, req)

	if called {
		t.Error("handler should not be called for a blocked IP")
	}
	if rw.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rw.Code)
	}
}

func TestPipelineAllowsThenLogsRequest(t *testing.T) {
	gw := &fakeGateway{}
	reqLog := NewRequestLogger(gw, 10)
	p := NewPipeline(nil, nil, reqLog)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) })
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger", nil)
	rw := httptest.NewRecorder()

	p.Middleware(handler).ServeHTTP(rw, req)
	if rw.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rw.Code)
	}

	reqLog.Close()
	if len(gw.logEntries) != 1 {
		t.Fatalf("logEntries = %d, want 1", len(gw.logEntries))
	}
	if gw.logEntries[0].StatusCode != http.StatusCreated {
		t.Errorf("logged status = %d, want 201", gw.logEntries[0].StatusCode)
	}
}

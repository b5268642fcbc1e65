package admission

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

// RateLimiter enforces per-(endpoint pattern, method) request quotas
// using a fixed window counter in Redis: INCR the window's key, set
// its expiry on first increment, compare against the rule's limit.
// This trades a little precision at window edges for one round trip
// per decision instead of maintaining a sorted set per client.
type RateLimiter struct {
	redis   *redis.Client
	gateway storage.RateLimit

	mu    sync.RWMutex
	rules []*types.RateLimitRule
}

// NewRateLimiter creates a limiter and performs an initial rule load.
func NewRateLimiter(ctx context.Context, redisClient *redis.Client, gateway storage.RateLimit) (*RateLimiter, error) {
	l := &RateLimiter{redis: redisClient, gateway: gateway}
	if err := l.Invalidate(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Invalidate reloads the rule set, used after an admin creates,
// updates, or deletes a rate-limit rule.
func (l *RateLimiter) Invalidate(ctx context.Context) error {
	rules, err := l.gateway.ListRateLimitRules(ctx)
	if err != nil {
		return err
	}
	enabled := make([]*types.RateLimitRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	l.mu.Lock()
	l.rules = enabled
	l.mu.Unlock()
	return nil
}

// Decision is the outcome of a rate-limit check, carrying the headers
// the admin API surfaces on both allow and reject.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	Rule      *types.RateLimitRule
}

// Check evaluates ip+method+path against the most specific matching
// enabled rule, incrementing its window counter. If no rule matches,
// the request is allowed with no limit applied. On a Redis error the
// pipeline fails open (allowed=true) rather than rejecting every
// request because the counter store is briefly unavailable.
func (l *RateLimiter) Check(ctx context.Context, ip, method, path string) Decision {
	rule := l.matchRule(method, path)
	if rule == nil {
		return Decision{Allowed: true}
	}

	key := fmt.Sprintf("ratelimit:%s:%s:%s", rule.ID, ip, windowBucket(rule.WindowSeconds))

	count, err := l.incrWithExpiry(ctx, key, rule.WindowSeconds)
	if err != nil {
		log.Logger.Warn().Err(err).Str("key", key).Msg("rate limit counter unavailable, failing open")
		metrics.AdmissionPipelineErrorsTotal.WithLabelValues("rate_limit").Inc()
		return Decision{Allowed: true, Rule: rule}
	}

	remaining := rule.LimitCount - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   int(count) <= rule.LimitCount,
		Limit:     rule.LimitCount,
		Remaining: remaining,
		ResetAt:   nextWindowBoundary(rule.WindowSeconds),
		Rule:      rule,
	}
}

func (l *RateLimiter) incrWithExpiry(ctx context.Context, key string, windowSeconds int) (int64, error) {
	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Duration(windowSeconds)*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func windowBucket(windowSeconds int) int64 {
	return time.Now().Unix() / int64(windowSeconds)
}

func nextWindowBoundary(windowSeconds int) time.Time {
	bucket := windowBucket(windowSeconds)
	return time.Unix((bucket+1)*int64(windowSeconds), 0)
}

// matchRule picks the most specific enabled rule matching method and
// path: an exact-path match beats a wildcard match, a narrower
// wildcard (fewer '*' segments) beats a wider one, and a
// method-specific rule beats an ALL-methods rule.
func (l *RateLimiter) matchRule(method, path string) *types.RateLimitRule {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var best *types.RateLimitRule
	var bestWildcards = -1
	var bestMethodSpecific = false

	for _, r := range l.rules {
		if r.Method != types.MethodALL && string(r.Method) != method {
			continue
		}
		if !patternMatches(r.EndpointPattern, path) {
			continue
		}

		_, wildcards, methodSpecific := r.Specificity()

		if best == nil ||
			(methodSpecific && !bestMethodSpecific) ||
			(methodSpecific == bestMethodSpecific && wildcards < bestWildcards) {
			best = r
			bestWildcards = wildcards
			bestMethodSpecific = methodSpecific
		}
	}
	return best
}

// patternMatches supports '*' as a wildcard matching exactly one path
// segment, matching the admin API's documented pattern syntax (e.g.
// "/api/v1/quran/*" matches "/api/v1/quran/2" but not
// "/api/v1/quran/2/verses/5"). Pattern and path must have the same
// number of segments; each non-wildcard segment must match literally.
func patternMatches(pattern, path string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == path
	}

	patternSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(path, "/")
	if len(patternSegs) != len(pathSegs) {
		return false
	}
	for i, seg := range patternSegs {
		if seg == "*" {
			continue
		}
		if seg != pathSegs[i] {
			return false
		}
	}
	return true
}

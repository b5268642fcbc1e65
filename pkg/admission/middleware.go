package admission

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/types"
)

// Pipeline wires the admission checks in the fixed order spec.md
// requires: IP block, then rate limit, then request log. It is a
// standard net/http middleware (func(http.Handler) http.Handler) so it
// composes directly with chi's Router.Use.
type Pipeline struct {
	ipBlock   *IPBlockChecker
	rateLimit *RateLimiter
	reqLog    *RequestLogger
}

// NewPipeline assembles the three admission stages. Any stage may be
// nil to disable it, which is useful for tests that only want to
// exercise one check in isolation.
func NewPipeline(ipBlock *IPBlockChecker, rateLimit *RateLimiter, reqLog *RequestLogger) *Pipeline {
	return &Pipeline{ipBlock: ipBlock, rateLimit: rateLimit, reqLog: reqLog}
}

// Middleware returns the composed http.Handler wrapper.
func (p *Pipeline) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := ClientIP(r)

		if p.ipBlock != nil {
			if blocked, rule := p.ipBlock.IsBlocked(ip, start); blocked {
				log.Logger.Info().Str("ip", ip).Str("reason", rule.Reason).Msg("request blocked")
				metrics.AdmissionDecisionsTotal.WithLabelValues("ip_blocked").Inc()
				writeBlocked(w, rule)
				p.logRequest(ip, r, http.StatusForbidden, start)
				return
			}
		}

		if p.rateLimit != nil {
			decision := p.rateLimit.Check(r.Context(), ip, r.Method, r.URL.Path)
			setRateLimitHeaders(w, decision)
			if !decision.Allowed {
				metrics.AdmissionDecisionsTotal.WithLabelValues("rate_limited").Inc()
				writeRateLimited(w, decision)
				p.logRequest(ip, r, http.StatusTooManyRequests, start)
				return
			}
		}

		metrics.AdmissionDecisionsTotal.WithLabelValues("allowed").Inc()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		p.logRequest(ip, r, rec.status, start)
	})
}

func (p *Pipeline) logRequest(ip string, r *http.Request, status int, start time.Time) {
	if p.reqLog == nil {
		return
	}
	p.reqLog.Log(ip, r.Method, r.URL.Path, status, time.Since(start), r.UserAgent())
}

func setRateLimitHeaders(w http.ResponseWriter, d Decision) {
	if d.Rule == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// rateLimitedBody is the 429 body spec.md requires: {retry_after_seconds}.
type rateLimitedBody struct {
	RetryAfterSeconds int `json:"retry_after_seconds"`
}

func writeRateLimited(w http.ResponseWriter, d Decision) {
	retryAfter := int(time.Until(d.ResetAt).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	if err := json.NewEncoder(w).Encode(rateLimitedBody{RetryAfterSeconds: retryAfter}); err != nil {
		log.Logger.Error().Err(err).Msg("failed to encode rate limited response")
	}
}

// blockedBody is the 403 body spec.md requires: {reason, expires_at}.
type blockedBody struct {
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func writeBlocked(w http.ResponseWriter, rule *types.IPBlockRule) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	body := blockedBody{Reason: rule.Reason, ExpiresAt: rule.ExpiresAt}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Logger.Error().Err(err).Msg("failed to encode blocked response")
	}
}

// statusRecorder captures the status code the handler wrote, so it can
// be attached to the request log entry after ServeHTTP returns.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

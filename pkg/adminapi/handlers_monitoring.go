package adminapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/types"
)

func (h *handlers) listRateLimits(w http.ResponseWriter, r *http.Request) {
	rules, err := h.deps.Gateway.ListRateLimitRules(r.Context())
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list rate limit rules"))
		return
	}
	writeOK(w, rules)
}

type rateLimitRequest struct {
	EndpointPattern string `json:"endpointPattern"`
	Method          string `json:"method"`
	LimitCount      int    `json:"limitCount"`
	WindowSeconds   int    `json:"windowSeconds"`
	Enabled         bool   `json:"enabled"`
}

func (h *handlers) createRateLimit(w http.ResponseWriter, r *http.Request) {
	var req rateLimitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.EndpointPattern == "" || req.LimitCount <= 0 || req.WindowSeconds <= 0 {
		writeErr(w, errs.NewValidationError("endpointPattern, limitCount and windowSeconds are required"))
		return
	}

	rule := &types.RateLimitRule{
		ID:              ruleID(),
		EndpointPattern: req.EndpointPattern,
		Method:          methodPattern(req.Method),
		LimitCount:      req.LimitCount,
		WindowSeconds:   req.WindowSeconds,
		Enabled:         req.Enabled,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := h.deps.Gateway.CreateRateLimitRule(r.Context(), rule); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "create rate limit rule"))
		return
	}
	h.invalidateRateLimiter(r)

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionCreateRateLimitRule, "rate_limit_rule", &rule.ID,
		map[string]interface{}{"endpointPattern": rule.EndpointPattern, "method": string(rule.Method)}, ip, ua)

	writeData(w, http.StatusCreated, rule)
}

func (h *handlers) updateRateLimit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, err := h.deps.Gateway.GetRateLimitRule(r.Context(), id)
	if err != nil || rule == nil {
		writeErr(w, errs.NewNotFoundError("rate limit rule"))
		return
	}

	var req rateLimitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.EndpointPattern != "" {
		rule.EndpointPattern = req.EndpointPattern
	}
	if req.Method != "" {
		rule.Method = methodPattern(req.Method)
	}
	if req.LimitCount > 0 {
		rule.LimitCount = req.LimitCount
	}
	if req.WindowSeconds > 0 {
		rule.WindowSeconds = req.WindowSeconds
	}
	rule.Enabled = req.Enabled
	rule.UpdatedAt = time.Now()

	if err := h.deps.Gateway.UpdateRateLimitRule(r.Context(), rule); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "update rate limit rule"))
		return
	}
	h.invalidateRateLimiter(r)

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionUpdateRateLimitRule, "rate_limit_rule", &rule.ID, nil, ip, ua)

	writeOK(w, rule)
}

func (h *handlers) deleteRateLimit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Gateway.DeleteRateLimitRule(r.Context(), id); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "delete rate limit rule"))
		return
	}
	h.invalidateRateLimiter(r)

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionDeleteRateLimitRule, "rate_limit_rule", &id, nil, ip, ua)

	writeMessage(w, http.StatusOK, "rate limit rule deleted")
}

func (h *handlers) invalidateRateLimiter(r *http.Request) {
	if h.deps.RateLimiter == nil {
		return
	}
	if err := h.deps.RateLimiter.Invalidate(r.Context()); err != nil {
		log.Logger.Error().Err(err).Msg("failed to invalidate rate limiter cache")
	}
}

func methodPattern(m string) types.HTTPMethodPattern {
	if m == "" {
		return types.MethodALL
	}
	return types.HTTPMethodPattern(m)
}

func ruleID() string {
	return uuid.New().String()
}

func (h *handlers) listIPBlocks(w http.ResponseWriter, r *http.Request) {
	rules, err := h.deps.Gateway.ListIPBlockRules(r.Context())
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list ip block rules"))
		return
	}
	writeOK(w, rules)
}

type ipBlockRequest struct {
	IP        string     `json:"ip"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (h *handlers) createIPBlock(w http.ResponseWriter, r *http.Request) {
	var req ipBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.IP == "" {
		writeErr(w, errs.NewValidationError("ip is required"))
		return
	}

	if existing, err := h.deps.Gateway.FindIPBlockRuleByIP(r.Context(), req.IP); err == nil && existing != nil {
		writeErr(w, errs.NewConflictError("ip already has an active block rule"))
		return
	}

	actor := currentUser(r)
	rule := &types.IPBlockRule{
		ID:        ruleID(),
		IP:        req.IP,
		Reason:    req.Reason,
		BlockedBy: actor.ID,
		BlockedAt: time.Now(),
		ExpiresAt: req.ExpiresAt,
		Enabled:   true,
	}
	if err := h.deps.Gateway.CreateIPBlockRule(r.Context(), rule); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "create ip block rule"))
		return
	}
	h.invalidateIPBlock(r)

	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionCreateIPBlockRule, "ip_block_rule", &rule.ID,
		map[string]interface{}{"ip": rule.IP, "reason": rule.Reason}, ip, ua)

	writeData(w, http.StatusCreated, rule)
}

func (h *handlers) deleteIPBlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Gateway.DeleteIPBlockRule(r.Context(), id); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "delete ip block rule"))
		return
	}
	h.invalidateIPBlock(r)

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionDeleteIPBlockRule, "ip_block_rule", &id, nil, ip, ua)

	writeMessage(w, http.StatusOK, "ip block rule deleted")
}

func (h *handlers) invalidateIPBlock(r *http.Request) {
	if h.deps.IPBlock == nil {
		return
	}
	if err := h.deps.IPBlock.Invalidate(r.Context()); err != nil {
		log.Logger.Error().Err(err).Msg("failed to invalidate ip block cache")
	}
}

type analyticsResponse struct {
	TimeRange string                `json:"timeRange"`
	Clients   []*types.ClientIPStat `json:"clients"`
}

// analytics reports per-IP request volume and error rate over the
// requested window, read from the admission pipeline's request log.
func (h *handlers) analytics(w http.ResponseWriter, r *http.Request) {
	timeRange := r.URL.Query().Get("timeRange")
	since := sinceUnixForRange(timeRange)

	stats, err := h.deps.Gateway.ClientIPStats(r.Context(), since)
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "load client ip stats"))
		return
	}
	if timeRange == "" {
		timeRange = "24h"
	}
	writeOK(w, analyticsResponse{TimeRange: timeRange, Clients: stats})
}

func sinceUnixForRange(timeRange string) int64 {
	var window time.Duration
	switch timeRange {
	case "1h":
		window = time.Hour
	case "7d":
		window = 7 * 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	default:
		window = 24 * time.Hour
	}
	return time.Now().Add(-window).Unix()
}

// cacheClear invalidates the admission pipeline's in-memory rule
// caches. Job control reads directly from storage.JobControl on every
// call and keeps no cache of its own, so there is nothing further to
// invalidate there.
func (h *handlers) cacheClear(w http.ResponseWriter, r *http.Request) {
	if h.deps.RateLimiter != nil {
		if err := h.deps.RateLimiter.Invalidate(r.Context()); err != nil {
			writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "invalidate rate limiter cache"))
			return
		}
	}
	if h.deps.IPBlock != nil {
		if err := h.deps.IPBlock.Invalidate(r.Context()); err != nil {
			writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "invalidate ip block cache"))
			return
		}
	}

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionCacheClear, "cache", nil, nil, ip, ua)

	writeMessage(w, http.StatusOK, "caches invalidated")
}

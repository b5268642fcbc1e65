package admission

import (
	"context"
	"sync"
	"time"

	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

// IPBlockChecker answers "is this IP currently blocked" from an
// in-memory cache refreshed on an interval, so the admission pipeline
// never makes a database round trip per request.
type IPBlockChecker struct {
	gateway storage.IPBlock

	mu       sync.RWMutex
	byIP     map[string]*types.IPBlockRule
	refresh  time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewIPBlockChecker creates a checker and performs an initial
// synchronous load so the pipeline is never unprotected immediately
// after startup.
func NewIPBlockChecker(ctx context.Context, gateway storage.IPBlock, refresh time.Duration) (*IPBlockChecker, error) {
	c := &IPBlockChecker{
		gateway: gateway,
		byIP:    make(map[string]*types.IPBlockRule),
		refresh: refresh,
		stopCh:  make(chan struct{}),
	}
	if err := c.reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Start runs the periodic reload loop until Stop is called.
func (c *IPBlockChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(c.refresh)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.reload(ctx); err != nil {
					log.Logger.Error().Err(err).Msg("failed to reload ip block rules")
					metrics.AdmissionPipelineErrorsTotal.WithLabelValues("ip_block").Inc()
				}
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop ends the periodic reload loop.
func (c *IPBlockChecker) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *IPBlockChecker) reload(ctx context.Context) error {
	rules, err := c.gateway.ListIPBlockRules(ctx)
	if err != nil {
		return err
	}

	// ListIPBlockRules is ordered newest-first, so the first enabled row
	// seen per IP is the one that should gate requests; skip disabled
	// rows entirely and any IP already resolved by a newer row.
	byIP := make(map[string]*types.IPBlockRule, len(rules))
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if _, exists := byIP[r.IP]; exists {
			continue
		}
		byIP[r.IP] = r
	}

	c.mu.Lock()
	c.byIP = byIP
	c.mu.Unlock()
	return nil
}

// IsBlocked reports whether ip is blocked as of now. Fail-open: if the
// cache has never loaded successfully this returns false rather than
// blocking every request.
func (c *IPBlockChecker) IsBlocked(ip string, now time.Time) (bool, *types.IPBlockRule) {
	c.mu.RLock()
	rule, ok := c.byIP[ip]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return rule.IsActive(now), rule
}

// Invalidate forces an immediate reload, used right after an admin
// creates or deletes an IP block rule so the change takes effect
// without waiting for the next tick.
func (c *IPBlockChecker) Invalidate(ctx context.Context) error {
	return c.reload(ctx)
}

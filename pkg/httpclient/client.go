// Package httpclient implements the Upstream Fetch Adapter (C2): a
// single configurable JSON HTTP client shared by every per-provider
// fetcher in pkg/syncengine, with a uniform retry policy and error
// classification.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/metrics"
)

// RetryPolicy controls how many times and how long a request is
// retried after a network error or a 5xx response.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	RetryOn5xx  bool
}

// DefaultRetryPolicy matches the house default: three attempts, a
// 500ms backoff that grows linearly with the attempt number, retry on
// 5xx.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond, RetryOn5xx: true}
}

// Client is the shared upstream HTTP client.
type Client struct {
	httpClient *http.Client
	userAgent  string
	retry      RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the client's request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// New creates a Client with a 15s default timeout, overridable per
// call site (the sync engine uses a longer timeout for bulk fetches).
func New(userAgent string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  userAgent,
		retry:      DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET request and decodes a JSON response body into
// out. provider names the upstream for error classification and
// logging; it is not part of the URL.
func (c *Client) GetJSON(ctx context.Context, provider, url string, out interface{}) error {
	return c.doJSON(ctx, provider, http.MethodGet, url, nil, out)
}

// PostJSON issues a POST request with a JSON body and decodes the
// response into out (out may be nil if the caller only needs the
// status).
func (c *Client) PostJSON(ctx context.Context, provider, url string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errs.NewProtocolError(provider, fmt.Sprintf("encode request body: %v", err))
		}
	}
	return c.doJSON(ctx, provider, http.MethodPost, url, &buf, out)
}

func (c *Client) doJSON(ctx context.Context, provider, method, url string, body io.Reader, out interface{}) error {
	var lastErr error
	timer := metrics.NewTimer()

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		resp, err := c.do(ctx, method, url, body)
		if err != nil {
			lastErr = errs.NewNetworkError(provider, err)
			c.logRetry(provider, attempt, lastErr)
			metrics.UpstreamRequestsTotal.WithLabelValues(provider, "network_error").Inc()
			c.sleep(ctx, attempt)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = errs.NewNetworkError(provider, readErr)
			c.logRetry(provider, attempt, lastErr)
			metrics.UpstreamRequestsTotal.WithLabelValues(provider, "network_error").Inc()
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 && c.retry.RetryOn5xx && attempt < c.retry.MaxAttempts {
			lastErr = errs.NewUpstreamError(provider, resp.StatusCode, snippet(data))
			c.logRetry(provider, attempt, lastErr)
			metrics.UpstreamRequestsTotal.WithLabelValues(provider, "retry").Inc()
			c.sleep(ctx, attempt)
			continue
		}

		timer.ObserveDurationVec(metrics.UpstreamRequestDuration, provider)

		if resp.StatusCode >= 400 {
			metrics.UpstreamRequestsTotal.WithLabelValues(provider, "upstream_error").Inc()
			return errs.NewUpstreamError(provider, resp.StatusCode, snippet(data))
		}

		if out == nil {
			metrics.UpstreamRequestsTotal.WithLabelValues(provider, "success").Inc()
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			metrics.UpstreamRequestsTotal.WithLabelValues(provider, "protocol_error").Inc()
			return errs.NewProtocolError(provider, fmt.Sprintf("decode response: %v", err))
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(provider, "success").Inc()
		return nil
	}

	timer.ObserveDurationVec(metrics.UpstreamRequestDuration, provider)
	metrics.UpstreamRequestsTotal.WithLabelValues(provider, "network_error").Inc()
	return lastErr
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	d := c.retry.Backoff * time.Duration(attempt)
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (c *Client) logRetry(provider string, attempt int, err error) {
	log.Logger.Warn().
		Str("provider", provider).
		Int("attempt", attempt).
		Int("max_attempts", c.retry.MaxAttempts).
		Err(err).
		Msg("upstream request failed, retrying")
}

func snippet(data []byte) string {
	const max = 256
	if len(data) > max {
		return string(data[:max])
	}
	return string(data)
}

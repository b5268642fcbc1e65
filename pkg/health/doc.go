/*
Package health provides reachability checks for the dependencies the
sync core relies on: upstream content providers (Quran, Hadith, audio,
gold price, prayer-times APIs) and the Postgres/Redis connections
backing storage and rate limiting.

# Architecture

	Checker (interface)
	├── HTTPChecker — GET a provider's base URL, check the status range
	└── TCPChecker  — dial a host:port, check the connection succeeds

Both satisfy:

	type Checker interface {
		Check(ctx context.Context) Result
		Type() CheckType
	}

# Status Tracking

Status implements hysteresis over repeated Check calls so a single
transient failure doesn't flip a provider to unhealthy:

	Healthy → 1 failure → still healthy
	Healthy → Retries consecutive failures → unhealthy
	Unhealthy → 1 success → healthy again

# Usage

	checker := health.NewHTTPChecker(cfg.Upstream.Providers["quran"].BaseURL).
		WithTimeout(5 * time.Second)
	result := checker.Check(ctx)

	checker := health.NewTCPChecker(cfg.Redis.Addr).WithTimeout(2 * time.Second)
	result := checker.Check(ctx)

A Prober aggregates several named checkers into one readiness snapshot,
used by the admin API's /ready route.
*/
package health

/*
Package metrics defines and registers the sync core's Prometheus
metrics and exposes them at GET /metrics via Handler().

# Metrics Catalog

Admission (C3):
  - deenmate_admission_decisions_total{outcome} — allowed, ip_blocked, rate_limited
  - deenmate_admission_pipeline_errors_total{stage} — fail-open storage errors

HTTP (C8):
  - deenmate_http_requests_total{method,status}
  - deenmate_http_request_duration_seconds{method,route}

Sync engine (C5/C6):
  - deenmate_sync_runs_total{resource,status}
  - deenmate_sync_records_processed_total{resource}
  - deenmate_sync_records_failed_total{resource}
  - deenmate_sync_duration_seconds{resource}
  - deenmate_prayer_fanout_slices_total{status}

Job control (C7):
  - deenmate_jobs_by_status{status} — gauge, current queue depth per status
  - deenmate_job_transitions_total{from,to}

Upstream HTTP client (C2):
  - deenmate_upstream_requests_total{provider,outcome}
  - deenmate_upstream_request_duration_seconds{provider}

Auth (C4):
  - deenmate_auth_login_attempts_total{outcome}

Storage (C1):
  - deenmate_storage_operation_duration_seconds{entity,operation}

# Usage

	metrics.SyncRunsTotal.WithLabelValues("quran", "success").Inc()

	timer := metrics.NewTimer()
	// ... do the work ...
	timer.ObserveDurationVec(metrics.SyncDuration, "quran")

Every metric is registered at package init via MustRegister, so
importing the package is enough to make it show up in Handler()'s
exposition — no separate registration call is needed at call sites.
*/
package metrics

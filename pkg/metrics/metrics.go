// Package metrics exposes the Prometheus instrumentation for the sync
// core: admission pipeline decisions, sync engine throughput, prayer
// fan-out, job control, and auth.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Admission pipeline metrics (C3)
	AdmissionDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_admission_decisions_total",
			Help: "Total admission pipeline decisions by outcome",
		},
		[]string{"outcome"}, // allowed, ip_blocked, rate_limited
	)

	AdmissionPipelineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_admission_pipeline_errors_total",
			Help: "Total admission pipeline storage errors (fail-open events)",
		},
		[]string{"stage"}, // ip_block, rate_limit
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_http_requests_total",
			Help: "Total HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deenmate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Sync engine metrics (C5/C6)
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_sync_runs_total",
			Help: "Total sync runs by resource and status",
		},
		[]string{"resource", "status"},
	)

	SyncRecordsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_sync_records_processed_total",
			Help: "Total records processed by sync runs",
		},
		[]string{"resource"},
	)

	SyncRecordsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_sync_records_failed_total",
			Help: "Total records that failed mapping/upsert during sync",
		},
		[]string{"resource"},
	)

	SyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deenmate_sync_duration_seconds",
			Help:    "Sync run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"resource"},
	)

	PrayerFanoutSlicesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_prayer_fanout_slices_total",
			Help: "Total prayer fan-out slice invocations by status",
		},
		[]string{"status"},
	)

	// Job control metrics (C7)
	JobsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deenmate_jobs_by_status",
			Help: "Current number of jobs by status",
		},
		[]string{"status"},
	)

	JobTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_job_transitions_total",
			Help: "Total job state transitions",
		},
		[]string{"from", "to"},
	)

	// Upstream HTTP client metrics (C2)
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_upstream_requests_total",
			Help: "Total outbound upstream requests by provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: success, retry, upstream_error, network_error, protocol_error
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deenmate_upstream_request_duration_seconds",
			Help:    "Outbound upstream request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// Auth metrics (C4)
	AuthLoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deenmate_auth_login_attempts_total",
			Help: "Total login attempts by outcome",
		},
		[]string{"outcome"}, // success, bad_credentials, disabled_user
	)

	StorageOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deenmate_storage_operation_duration_seconds",
			Help:    "Persistence gateway operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		AdmissionDecisionsTotal,
		AdmissionPipelineErrorsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SyncRunsTotal,
		SyncRecordsProcessed,
		SyncRecordsFailed,
		SyncDuration,
		PrayerFanoutSlicesTotal,
		JobsByStatus,
		JobTransitionsTotal,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		AuthLoginAttemptsTotal,
		StorageOperationDuration,
	)
}

// Handler returns the Prometheus HTTP exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small helper for timing operations into a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer { return &Timer{start: time.Now()} }

// ObserveDuration records the elapsed duration into a plain histogram.
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration into a labeled histogram.
func (t *Timer) ObserveDurationVec(h prometheus.ObserverVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration { return time.Since(t.start) }

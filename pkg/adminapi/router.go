package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/deenmate/sync-core/pkg/admission"
	"github.com/deenmate/sync-core/pkg/auth"
	"github.com/deenmate/sync-core/pkg/health"
	"github.com/deenmate/sync-core/pkg/jobcontrol"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/prayer"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/syncengine"
)

// SyncRunners is the per-domain sync entry points. The /sync/{module}
// handler does not call them: it triggers a job through the job
// control plane. Of these, the handlers read only Prayer; when it is
// nil, /sync/prayer/prewarm and /sync/prayer/times respond 503.
type SyncRunners struct {
	Quran   *syncengine.QuranSyncer
	Hadith  *syncengine.HadithSyncer
	Audio   *syncengine.AudioSyncer
	Finance *syncengine.FinanceSyncer
	Prayer  *prayer.Planner
}

// Deps is everything NewRouter needs to wire the full route table.
type Deps struct {
	Gateway      storage.Gateway
	AuthService  *auth.Service
	Tokens       *auth.TokenIssuer
	Auditor      *auth.Auditor
	Admission    *admission.Pipeline
	RateLimiter  *admission.RateLimiter
	IPBlock      *admission.IPBlockChecker
	Plane        *jobcontrol.Plane
	Scheduler    *jobcontrol.Scheduler
	Health       *health.Prober
	Sync         SyncRunners
	CORSOrigins  []string
	BcryptCost   int
}

// NewRouter wires every route in spec.md §6 behind the admission
// pipeline. Every route but /health, /ready, /metrics and the public
// auth trio also gets a bearer token check, and every token-checked
// route but /auth/change-password a permission check.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	if deps.Admission != nil {
		r.Use(deps.Admission.Middleware)
	}

	h := &handlers{deps: deps}

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Get("/password-requirements", h.passwordRequirements)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(deps.Tokens, deps.Gateway))
			r.Post("/change-password", h.changePassword)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(deps.Tokens, deps.Gateway))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", requirePermission("read:users", h.listUsers))
			r.Post("/", requirePermission("create:users", h.createUser))
			r.Get("/stats", requirePermission("read:users", h.userStats))
			r.Get("/{id}", requirePermission("read:users", h.getUser))
			r.Put("/{id}", requirePermission("update:users", h.updateUser))
			r.Delete("/{id}", requirePermission("delete:users", h.deleteUser))
			r.Put("/{id}/permissions", requirePermission("update:users", h.updateUserPermissions))
			r.Post("/{id}/reset-password", requirePermission("update:users", h.resetUserPassword))
			r.Get("/audit-logs", requirePermission("read:audit", h.auditLogs))
		})

		r.Get("/summary", requirePermission("read:analytics", h.summary))
		r.Get("/sync-logs", requirePermission("read:analytics", h.syncLogs))

		r.Route("/sync", func(r chi.Router) {
			r.Post("/{module}", requirePermission("trigger:sync", h.triggerSync))
			r.Post("/prayer/prewarm", requirePermission("trigger:sync", h.prayerPrewarm))
			r.Post("/prayer/times", requirePermission("trigger:sync", h.prayerTimes))
		})

		r.Route("/monitoring/api/rate-limits", func(r chi.Router) {
			r.Get("/", requirePermission("manage:rate-limits", h.listRateLimits))
			r.Post("/", requirePermission("manage:rate-limits", h.createRateLimit))
			r.Put("/{id}", requirePermission("manage:rate-limits", h.updateRateLimit))
			r.Delete("/{id}", requirePermission("manage:rate-limits", h.deleteRateLimit))
		})

		r.Route("/monitoring/api/ip-blocking", func(r chi.Router) {
			r.Get("/", requirePermission("manage:ip-blocking", h.listIPBlocks))
			r.Post("/", requirePermission("manage:ip-blocking", h.createIPBlock))
			r.Delete("/{id}", requirePermission("manage:ip-blocking", h.deleteIPBlock))
		})

		r.Get("/monitoring/api/analytics", requirePermission("read:analytics", h.analytics))

		r.Route("/job-control", func(r chi.Router) {
			r.Get("/", requirePermission("manage:job-control", h.listJobs))
			r.Post("/trigger", requirePermission("manage:job-control", h.triggerJob))
			r.Post("/{id}/pause", requirePermission("manage:job-control", h.pauseJob))
			r.Post("/{id}/resume", requirePermission("manage:job-control", h.resumeJob))
			r.Post("/{id}/cancel", requirePermission("manage:job-control", h.cancelJob))
			r.Delete("/{id}", requirePermission("manage:job-control", h.deleteJob))
			r.Put("/{id}/priority", requirePermission("manage:job-control", h.updateJobPriority))
			r.Post("/bulk", requirePermission("manage:job-control", h.bulkJobs))
			r.Get("/schedules", requirePermission("manage:job-control", h.listSchedules))
			r.Put("/schedules/{jobType}", requirePermission("manage:job-control", h.updateSchedule))
			r.Put("/schedules/{jobType}/toggle", requirePermission("manage:job-control", h.toggleSchedule))
			r.Get("/queue-status", requirePermission("manage:job-control", h.queueStatus))
		})

		r.Post("/cache/clear", requirePermission("manage:job-control", h.cacheClear))
	})

	return r
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pratik-mahalle/sentrydesk/internal/api/handlers"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/config"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/metrics"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Alert    *handlers.AlertHandler
	Cluster  *handlers.ClusterHandler
	Incident *handlers.IncidentHandler
	Playbook *handlers.PlaybookHandler
	Category *handlers.CategoryHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200
	r.Use(metrics.Middleware)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())

		r.Post("/api/v1/auth/register", h.Auth.Register)
		r.Post("/api/v1/auth/login", h.Auth.Login)
		r.Post("/api/v1/auth/refresh", h.Auth.RefreshToken)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

		r.Get("/api/v1/auth/me", h.Auth.Me)
		r.Get("/api/v1/categories", h.Category.Visible)

		// Alerts
		r.Route("/api/v1/alerts", func(r chi.Router) {
			r.Get("/", h.Alert.List)
			r.Get("/summary", h.Alert.GetSummary)
			r.Post("/ingest", h.Alert.Ingest)
			r.Get("/{id}", h.Alert.Get)
			r.Get("/{id}/history", h.Alert.History)
			r.Post("/{id}/investigate", h.Alert.Investigate)
			r.Post("/{id}/resolve", h.Alert.Resolve)
			r.Post("/{id}/escalate", h.Alert.Escalate)
		})

		// Correlation clusters
		r.Route("/api/v1/clusters", func(r chi.Router) {
			r.Post("/sweep", h.Cluster.Sweep)
			r.Get("/{id}", h.Cluster.Members)
		})

		// Incidents
		r.Route("/api/v1/incidents", func(r chi.Router) {
			r.Get("/", h.Incident.List)
			r.Get("/{id}", h.Incident.Get)
			r.Put("/{id}/status", h.Incident.UpdateStatus)
			r.Put("/{id}/assignee", h.Incident.Reassign)
		})

		// Playbooks: reads are open, authoring is super admin only
		r.Route("/api/v1/playbooks", func(r chi.Router) {
			r.Get("/", h.Playbook.List)
			r.Get("/{id}", h.Playbook.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(user.RoleSuperAdmin))
				r.Post("/", h.Playbook.Create)
				r.Put("/{id}", h.Playbook.Update)
				r.Post("/{id}/activate", h.Playbook.Activate)
				r.Post("/{id}/retire", h.Playbook.Retire)
				r.Delete("/{id}", h.Playbook.Delete)
			})
		})
	})

	return r
}

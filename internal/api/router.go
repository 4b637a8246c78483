package api

import (
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/userix/userix/internal/api/handler"
	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/auth"
	"github.com/userix/userix/internal/class"
	"github.com/userix/userix/internal/metrics"
	"github.com/userix/userix/internal/student"
	"github.com/userix/userix/internal/teacher"
	"github.com/userix/userix/internal/tenant"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger handler.DBPinger
	Version  string

	AuthService *auth.Service
	Tenants     tenant.Repository
	Classes     class.Repository
	Students    student.Repository
	Teachers    teacher.Repository

	// Collector and Gatherer are optional. Without a Gatherer /metrics is not mounted.
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer

	// OpenAPISpec is the raw YAML document served at /api/openapi.json.
	OpenAPISpec []byte

	CORSOrigins []string
	// TrustedProxies lists the peers whose forwarding headers are honored.
	TrustedProxies []netip.Prefix
	LoginLimiter   *middleware.RateLimiter
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP(deps.TrustedProxies))
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.CORS(deps.CORSOrigins))
	r.Use(middleware.Metrics(deps.Collector))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if deps.Gatherer != nil {
		r.Method("GET", "/metrics", metrics.Handler(deps.Gatherer))
	}

	if deps.OpenAPISpec != nil {
		r.Get("/api/openapi.json", handler.NewOpenAPIHandler(deps.OpenAPISpec).ServeHTTP)
	}

	if deps.AuthService == nil {
		return r
	}

	authenticate := middleware.Authenticate(deps.AuthService.Tokens(), deps.Collector)

	r.Route("/api", func(r chi.Router) {
		authHandler := handler.NewAuthHandler(deps.AuthService, deps.Collector)
		r.Route("/auth", func(r chi.Router) {
			r.Get("/health", authHandler.Health)
			r.Group(func(r chi.Router) {
				if deps.LoginLimiter != nil {
					r.Use(deps.LoginLimiter.Middleware(deps.Collector))
				}
				r.Post("/login", authHandler.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/profile", authHandler.Profile)
				r.Post("/refresh", authHandler.Refresh)
			})
		})

		if deps.Tenants != nil {
			tenantHandler := handler.NewTenantHandler(deps.Tenants)
			adminHandler := handler.NewTenantAdminHandler(deps.Tenants, deps.AuthService)
			r.Route("/admin", func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireSystemAdmin())

				r.Get("/stats", tenantHandler.Stats)
				r.Route("/tenants", func(r chi.Router) {
					r.Post("/", tenantHandler.Create)
					r.Get("/", tenantHandler.List)
					r.Get("/{id}", tenantHandler.GetByID)
					r.Patch("/{id}", tenantHandler.Update)
					r.Patch("/{id}/status", tenantHandler.UpdateStatus)
					r.Delete("/{id}", tenantHandler.Delete)
					r.Post("/{id}/admins", adminHandler.Create)
					r.Get("/{id}/admins", adminHandler.List)
					r.Post("/{id}/reset-password", adminHandler.ResetPassword)
				})
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireTenantAdmin())

			if deps.Classes != nil {
				classHandler := handler.NewClassHandler(deps.Classes)
				r.Route("/classes", func(r chi.Router) {
					r.Post("/", classHandler.Create)
					r.Get("/", classHandler.List)
					r.Get("/{id}", classHandler.GetByID)
					r.Patch("/{id}", classHandler.Update)
					r.Delete("/{id}", classHandler.Delete)
				})
			}

			if deps.Students != nil && deps.Classes != nil && deps.Teachers != nil && deps.Tenants != nil {
				studentHandler := handler.NewStudentHandler(deps.Students, deps.Classes, deps.Teachers, deps.Tenants)
				r.Route("/students", func(r chi.Router) {
					r.Post("/", studentHandler.Create)
					r.Get("/", studentHandler.List)
					r.Get("/{id}", studentHandler.GetByID)
					r.Patch("/{id}", studentHandler.Update)
					r.Delete("/{id}", studentHandler.Delete)
				})
			}

			if deps.Teachers != nil && deps.Students != nil && deps.Tenants != nil {
				teacherHandler := handler.NewTeacherHandler(deps.Teachers, deps.Students, deps.Tenants)
				r.Route("/teachers", func(r chi.Router) {
					r.Post("/", teacherHandler.Create)
					r.Get("/", teacherHandler.List)
					r.Get("/{id}", teacherHandler.GetByID)
					r.Patch("/{id}", teacherHandler.Update)
					r.Delete("/{id}", teacherHandler.Delete)
					r.Get("/{id}/students", teacherHandler.Students)
				})
			}
		})
	})

	return r
}

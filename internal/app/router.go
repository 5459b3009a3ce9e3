package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shiftgate/shiftgate/internal/analytics"
	"github.com/shiftgate/shiftgate/internal/auth"
	"github.com/shiftgate/shiftgate/internal/clock"
	"github.com/shiftgate/shiftgate/internal/locations"
	"github.com/shiftgate/shiftgate/internal/observability"
	"github.com/shiftgate/shiftgate/internal/shifts"
	"github.com/shiftgate/shiftgate/internal/staff"
	"github.com/shiftgate/shiftgate/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthMiddleware   auth.Middleware
	AuthHandler      *auth.Handler
	StaffHandler     *staff.Handler
	LocationsHandler *locations.Handler
	ShiftsHandler    *shifts.Handler
	ClockHandler     *clock.Handler
	AnalyticsHandler *analytics.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r, params.AuthMiddleware)
		})

		// Worker surface.
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Require)
			r.Route("/clock", params.ClockHandler.MountRoutes)
			r.Route("/shifts", params.ShiftsHandler.MountWorkerRoutes)
		})

		// Manager surface.
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireManager)
			r.Route("/staff", params.StaffHandler.MountRoutes)
			r.Route("/locations", params.LocationsHandler.MountRoutes)
			r.Route("/schedule", params.ShiftsHandler.MountManagerRoutes)
			r.Route("/dashboard", params.AnalyticsHandler.MountRoutes)
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}

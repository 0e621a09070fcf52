package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/hospitalia/hospitalia/internal/allocation"
	"github.com/hospitalia/hospitalia/internal/hospitals"
	"github.com/hospitalia/hospitalia/internal/inventory"
	"github.com/hospitalia/hospitalia/internal/medicalnotes"
	"github.com/hospitalia/hospitalia/internal/nurses"
	"github.com/hospitalia/hospitalia/internal/observability"
	"github.com/hospitalia/hospitalia/internal/patients"
	"github.com/hospitalia/hospitalia/internal/services"
	"github.com/hospitalia/hospitalia/internal/shifts"
	"github.com/hospitalia/hospitalia/internal/stats"
	"github.com/hospitalia/hospitalia/internal/trainings"
)

// StatsInvalidator bumps the cached dashboard aggregates after record
// mutations; *stats.Service implements it.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	// Per-family handlers: medication and supply screens share code but
	// mount under their own prefixes.
	MedicationItems       *inventory.Handler
	SupplyItems           *inventory.Handler
	MedicationAssignments *allocation.Handler
	SupplyAssignments     *allocation.Handler

	Hospitals *hospitals.Handler
	Services  *services.Handler
	Patients  *patients.Handler
	Nurses    *nurses.Handler
	Shifts    *shifts.Handler
	Trainings *trainings.Handler
	Notes     *medicalnotes.Handler
	Stats     *stats.Handler

	Metrics *observability.Metrics

	// StatsCache, when set, is bumped after every successful mutating
	// request so the dashboard never serves aggregates older than one write.
	StatsCache StatsInvalidator
}

// NewRouter constructs the chi.Router serving the console API.
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
	if params.StatsCache != nil {
		r.Use(bumpStatsOnWrite(params.Logger, params.StatsCache))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/medicamentos", func(r chi.Router) {
			// Assignment routes first so /asignar is not captured by /{id}.
			if params.MedicationAssignments != nil {
				params.MedicationAssignments.MountRoutes(r)
			}
			if params.MedicationItems != nil {
				params.MedicationItems.MountRoutes(r)
			}
		})
		r.Route("/insumos", func(r chi.Router) {
			if params.SupplyAssignments != nil {
				params.SupplyAssignments.MountRoutes(r)
			}
			if params.SupplyItems != nil {
				params.SupplyItems.MountRoutes(r)
			}
		})
		if params.Hospitals != nil {
			r.Route("/hospitales", params.Hospitals.MountRoutes)
		}
		if params.Services != nil {
			r.Route("/servicios", params.Services.MountRoutes)
		}
		if params.Patients != nil {
			r.Route("/pacientes", params.Patients.MountRoutes)
		}
		if params.Nurses != nil {
			r.Route("/enfermeros", params.Nurses.MountRoutes)
		}
		if params.Shifts != nil {
			r.Route("/turnos", params.Shifts.MountRoutes)
		}
		if params.Trainings != nil {
			r.Route("/capacitaciones", params.Trainings.MountRoutes)
		}
		// PDF rendering and the dashboard aggregates are the two expensive
		// surfaces, so they get a tighter per-IP budget.
		if params.Notes != nil {
			r.Route("/notas", func(r chi.Router) {
				r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
				params.Notes.MountRoutes(r)
			})
		}
		if params.Stats != nil {
			r.Route("/estadisticas", func(r chi.Router) {
				r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
				params.Stats.MountRoutes(r)
			})
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// bumpStatsOnWrite invalidates the dashboard cache after any successful
// POST/PUT/DELETE. The bump is best effort; a failed publish only delays
// refresh until the cache TTL expires.
func bumpStatsOnWrite(logger *slog.Logger, cache StatsInvalidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= 400 {
				return
			}
			if err := cache.Invalidate(context.WithoutCancel(r.Context())); err != nil && logger != nil {
				logger.Warn("stats cache bump failed", slog.Any("error", err))
			}
		})
	}
}

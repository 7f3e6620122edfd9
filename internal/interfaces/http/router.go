package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/handlers"
	"github.com/turtacn/phreeqprep/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree.  Nil handlers leave their routes unmounted.
type RouterConfig struct {
	HealthHandler     *handlers.HealthHandler
	DatabaseHandler   *handlers.DatabaseHandler
	SpeciationHandler *handlers.SpeciationHandler
	ChemistryHandler  *handlers.ChemistryHandler

	Logger  logging.Logger
	Logging middleware.LoggingConfig

	// Recorder observes every request; MetricsHandler is served at
	// MetricsPath (default /metrics).
	Recorder       middleware.RequestRecorder
	MetricsHandler http.Handler
	MetricsPath    string

	// MaxBodySize caps request bodies in bytes.  Zero leaves them unbounded.
	MaxBodySize int64

	// Debug mounts the pprof endpoints under /debug.
	Debug bool
}

// NewRouter constructs the complete HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	}
	if cfg.Recorder != nil {
		r.Use(middleware.Metrics(cfg.Recorder))
	}

	if h := cfg.HealthHandler; h != nil {
		r.Get("/healthz", h.Liveness)
		r.Get("/readyz", h.Readiness)
		r.Get("/healthz/detail", h.Detailed)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}
	if cfg.Debug {
		r.Mount("/debug", chimw.Profiler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.MaxBodySize > 0 {
			api.Use(chimw.RequestSize(cfg.MaxBodySize))
		}
		api.Use(chimw.AllowContentType("application/json"))

		registerChemistryRoutes(api, cfg.ChemistryHandler)
		registerDatabaseRoutes(api, cfg.DatabaseHandler, cfg.SpeciationHandler)
	})

	return r
}

// registerChemistryRoutes mounts the database-independent formula tools.
func registerChemistryRoutes(r chi.Router, h *handlers.ChemistryHandler) {
	if h == nil {
		return
	}
	r.Post("/decompose", h.Decompose)
	r.Post("/classify", h.Classify)
}

// registerDatabaseRoutes mounts the database queries and, under the same
// {database} item, the speciation operations.
func registerDatabaseRoutes(r chi.Router, db *handlers.DatabaseHandler, sp *handlers.SpeciationHandler) {
	if db == nil && sp == nil {
		return
	}
	r.Route("/databases", func(dr chi.Router) {
		if db != nil {
			dr.Get("/", db.List)
		}
		dr.Route("/{database}", func(item chi.Router) {
			if db != nil {
				item.Get("/sections", db.Sections)
				item.Get("/sections/{section}", db.Section)
				item.Get("/species", db.Species)
				item.Get("/phases", db.Phases)
				item.Get("/master", db.Master)
				item.Get("/valid", db.Valid)
				item.Delete("/cache", db.Invalidate)
			}
			if sp != nil {
				item.Post("/check", sp.Check)
				item.Post("/input", sp.Input)
				item.Post("/jobs", sp.Submit)
			}
		})
	})
}

//Personal.AI order the ending

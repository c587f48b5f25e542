// Package rest exposes the tracker over a JSON HTTP API for the browser
// front-end.
package rest

import (
	"net/http"

	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/metrics"
	"github.com/dmitrijs2005/sitepins/internal/tracker"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router creates and configures the HTTP router.
type Router struct {
	tracker *tracker.Tracker
	metrics metrics.Provider
	logger  logging.Logger
	origins []string
}

func NewRouter(t *tracker.Tracker, m metrics.Provider, logger logging.Logger, origins []string) *Router {
	if m == nil {
		m = metrics.Noop{}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Router{
		tracker: t,
		metrics: m,
		logger:  logger.With("module", "http"),
		origins: origins,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(rt.logger))
	router.Use(observeRequests(rt.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(rt.requireReady)
		r.Route("/points", func(r chi.Router) {
			r.Get("/", rt.listPoints)
			r.Post("/", rt.createPoint)
			r.Get("/{pointID}", rt.getPoint)
			r.Delete("/{pointID}", rt.resolvePoint)
			r.Post("/{pointID}/comments", rt.addComment)
			r.Put("/{pointID}/group", rt.reclassifyPoint)
		})
		r.Get("/resolved", rt.listResolved)
		r.Get("/history", rt.history)
		r.Get("/groups", rt.groups)
		r.Get("/export", rt.exportState)
		r.Post("/import", rt.importState)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	rt.respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready once the start-up reconciliation is done.
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if !rt.tracker.Ready() {
		rt.respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	rt.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

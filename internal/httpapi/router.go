// Package httpapi exposes the job query engine and the geocode cache over
// HTTP.
//
// Routes:
//
//	GET /health        → liveness and store reachability
//	GET /jobs          → keyword/faceted search
//	GET /jobs/nearby   → jobs within a radius, nearest first
//	GET /jobs/{id}     → one job
//	GET /geo/reverse   → cached reverse geocode
//	GET /sources       → source registry with last run times
//	GET /metrics       → Prometheus exposition
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobmate/govjobs-service/internal/metrics"
	"jobmate/govjobs-service/internal/model"
	"jobmate/govjobs-service/internal/search"
)

// Geocoder resolves coordinates through the geocode cache.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// SourceLister lists the source registry.
type SourceLister interface {
	ListSources(ctx context.Context) ([]model.JobSource, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds shared dependencies.
type Handler struct {
	search  *search.Service
	geo     Geocoder
	sources SourceLister
	pinger  Pinger
	service string
	version string
}

// NewHandler returns a configured Handler.
func NewHandler(svc *search.Service, geo Geocoder, sources SourceLister, pinger Pinger, service, version string) *Handler {
	return &Handler{search: svc, geo: geo, sources: sources, pinger: pinger, service: service, version: version}
}

// Router builds the chi router with the middleware chain and all routes.
func (h *Handler) Router(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger, "http"))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.searchJobs)
		r.Get("/nearby", h.nearbyJobs)
		r.Get("/{id}", h.getJob)
	})
	r.Get("/geo/reverse", h.reverseGeocode)
	r.Get("/sources", h.listSources)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

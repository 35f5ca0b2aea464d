package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/geocode"
	"jobmate/govjobs-service/internal/search"
	"jobmate/govjobs-service/internal/store"
)

// ─── Handlers ────────────────────────────────────────────────────────────────

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":  "ok",
		"service": h.service,
		"version": h.version,
	}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			zap.S().Named("http").Warnw("health check: store unreachable", "error", err)
			resp["status"] = "degraded"
			jsonStatus(w, resp, http.StatusServiceUnavailable)
			return
		}
	}
	jsonOK(w, resp)
}

// searchJobs handles GET /jobs
func (h *Handler) searchJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := search.SearchParams{
		Q:             q.Get("q"),
		State:         q.Get("state"),
		District:      q.Get("district"),
		Category:      q.Get("category"),
		Qualification: q.Get("qualification"),
		Status:        q.Get("status"),
		Sort:          q.Get("sort"),
	}
	var err error
	if p.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, err)
		return
	}
	if p.PageSize, err = queryInt(r, "pageSize"); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.search.Search(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, res)
}

// nearbyJobs handles GET /jobs/nearby
func (h *Handler) nearbyJobs(w http.ResponseWriter, r *http.Request) {
	var (
		p   search.NearbyParams
		err error
	)
	if p.Lat, err = queryFloat(r, "lat"); err != nil {
		writeError(w, err)
		return
	}
	if p.Lon, err = queryFloat(r, "lon"); err != nil {
		writeError(w, err)
		return
	}
	if p.RadiusKm, err = queryFloat(r, "radiusKm"); err != nil {
		writeError(w, err)
		return
	}
	if p.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.search.Nearby(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, res)
}

// getJob handles GET /jobs/{id}
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.search.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, job)
}

// reverseGeocode handles GET /geo/reverse
func (h *Handler) reverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		writeError(w, err)
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		writeError(w, err)
		return
	}
	if lat == nil || lon == nil {
		writeError(w, &search.ValidationError{Msg: "lat and lon are required"})
		return
	}
	if !geo.ValidCoordinate(*lat, *lon) {
		writeError(w, &search.ValidationError{Msg: "lat must be within [-90, 90] and lon within [-180, 180]"})
		return
	}

	res, err := h.geo.Reverse(r.Context(), *lat, *lon)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res)
}

// listSources handles GET /sources
func (h *Handler) listSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sources.ListSources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{"sources": sources})
}

// ─── Query parsing ───────────────────────────────────────────────────────────

// queryInt returns 0 when the parameter is absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &search.ValidationError{Msg: fmt.Sprintf("%s must be an integer", name)}
	}
	return n, nil
}

// queryFloat returns nil when the parameter is absent.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &search.ValidationError{Msg: fmt.Sprintf("%s must be a finite number", name)}
	}
	return &f, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *search.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, geocode.ErrProviderUnavailable):
		zap.S().Named("http").Warnw("geocode provider unavailable", "error", err)
		jsonError(w, "geocoding service unavailable", http.StatusServiceUnavailable)
	default:
		zap.S().Named("http").Errorw("request failed", "error", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, v, http.StatusOK)
}

func jsonStatus(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonStatus(w, map[string]string{"error": msg}, code)
}

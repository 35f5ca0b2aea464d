// Package metrics defines the Prometheus collectors of the govjobs service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	govjobs = "govjobs"

	// Labels
	sourceLabel  = "source"
	outcomeLabel = "outcome"
	resultLabel  = "result"
)

// Source run results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Geocode lookup results.
const (
	GeocodeHotHit     = "hot_hit"
	GeocodeDurableHit = "durable_hit"
	GeocodeMiss       = "miss"
	GeocodeError      = "unavailable"
)

/**
* Metrics definition
**/
var listingsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: govjobs,
		Name:      "ingest_listings_total",
		Help:      "listings processed by ingestion, by source and dedup outcome",
	},
	[]string{sourceLabel, outcomeLabel},
)

var sourceRunsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: govjobs,
		Name:      "ingest_source_runs_total",
		Help:      "source runs, by source and result",
	},
	[]string{sourceLabel, resultLabel},
)

var sourceRunSecondsMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: govjobs,
		Name:      "ingest_source_run_seconds",
		Help:      "duration of one source run",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120},
	},
	[]string{sourceLabel},
)

var geocodeLookupsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: govjobs,
		Name:      "geocode_lookups_total",
		Help:      "reverse geocode lookups, by result",
	},
	[]string{resultLabel},
)

var httpRequestsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: govjobs,
		Name:      "http_requests_total",
		Help:      "HTTP requests partitioned by status code, method and route",
	},
	[]string{"code", "method", "path"},
)

var httpLatencyMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: govjobs,
		Name:      "http_request_duration_milliseconds",
		Help:      "time spent on the request partitioned by status code, method and route",
		Buckets:   []float64{5, 25, 100, 300, 1000, 5000},
	},
	[]string{"code", "method", "path"},
)

// AddListings records n listings of one outcome (inserted, updated,
// unchanged, rejected, failed) for a source.
func AddListings(source, outcome string, n int) {
	if n <= 0 {
		return
	}
	listingsTotalMetric.With(prometheus.Labels{sourceLabel: source, outcomeLabel: outcome}).Add(float64(n))
}

// ObserveSourceRun records the result and duration of one source run.
func ObserveSourceRun(source, result string, d time.Duration) {
	sourceRunsTotalMetric.With(prometheus.Labels{sourceLabel: source, resultLabel: result}).Inc()
	sourceRunSecondsMetric.With(prometheus.Labels{sourceLabel: source}).Observe(d.Seconds())
}

// IncGeocodeLookup counts one reverse geocode lookup.
func IncGeocodeLookup(result string) {
	geocodeLookupsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

// Middleware counts requests and latency by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rp := rctx.RoutePattern()
			code := strconv.Itoa(ww.Status())
			httpRequestsTotalMetric.WithLabelValues(code, r.Method, rp).Inc()
			httpLatencyMetric.WithLabelValues(code, r.Method, rp).Observe(float64(time.Since(start).Milliseconds()))
		}
	}
	return http.HandlerFunc(fn)
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(listingsTotalMetric)
	prometheus.MustRegister(sourceRunsTotalMetric)
	prometheus.MustRegister(sourceRunSecondsMetric)
	prometheus.MustRegister(geocodeLookupsTotalMetric)
	prometheus.MustRegister(httpRequestsTotalMetric)
	prometheus.MustRegister(httpLatencyMetric)
}

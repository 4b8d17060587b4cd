package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics for the application. All
// methods are nil-safe so callers never have to guard instrumentation.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	authzCacheHits   prometheus.Counter
	authzCacheMisses prometheus.Counter
	authzDenials     *prometheus.CounterVec
	syncRuns         *prometheus.CounterVec
	syncGenerated    prometheus.Counter
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driftboard_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "driftboard_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftboard_authz_cache_hits_total",
		Help: "Resolved permission sets served from cache.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftboard_authz_cache_misses_total",
		Help: "Permission resolutions recomputed on cache miss.",
	})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driftboard_authz_denials_total",
		Help: "Authorization denials by permission slug.",
	}, []string{"permission"})
	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driftboard_authz_sync_runs_total",
		Help: "Permission synchronizer runs by outcome.",
	}, []string{"outcome"})
	syncGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftboard_authz_sync_generated_total",
		Help: "Catalog entries created by the synchronizer.",
	})
	registry.MustRegister(requests, duration, cacheHits, cacheMisses, denials, syncRuns, syncGenerated)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		authzCacheHits:   cacheHits,
		authzCacheMisses: cacheMisses,
		authzDenials:     denials,
		syncRuns:         syncRuns,
		syncGenerated:    syncGenerated,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// AuthzCacheHit counts a resolved set served from cache.
func (m *Metrics) AuthzCacheHit() {
	if m != nil {
		m.authzCacheHits.Inc()
	}
}

// AuthzCacheMiss counts a resolution recomputed on miss.
func (m *Metrics) AuthzCacheMiss() {
	if m != nil {
		m.authzCacheMisses.Inc()
	}
}

// AuthzDenied counts a denial for the given permission slug.
func (m *Metrics) AuthzDenied(permission string) {
	if m != nil {
		m.authzDenials.WithLabelValues(permission).Inc()
	}
}

// SyncRun counts a synchronizer run and the entries it generated.
func (m *Metrics) SyncRun(outcome string, generated int) {
	if m != nil {
		m.syncRuns.WithLabelValues(outcome).Inc()
		m.syncGenerated.Add(float64(generated))
	}
}

// Registerer exposes the registry for registering custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

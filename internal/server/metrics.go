package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	renders       *prometheus.CounterVec
	storeWarnings *prometheus.CounterVec
	blocks        prometheus.Gauge
	swaps         prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockreg",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blockreg",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockreg",
			Name:      "preview_renders_total",
			Help:      "Preview renders by mode and outcome code.",
		}, []string{"mode", "code"}),
		storeWarnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockreg",
			Name:      "resolver_warnings_total",
			Help:      "Content resolution warnings by code.",
		}, []string{"code"}),
		blocks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockreg",
			Name:      "registry_blocks",
			Help:      "Public blocks in the served registry.",
		}),
		swaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "blockreg",
			Name:      "registry_swaps_total",
			Help:      "Registry snapshots installed since start.",
		}),
	}
}

// instrument records request counts and latency keyed by route pattern.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

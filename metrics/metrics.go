// Package metrics exposes Prometheus collectors for stop list merges,
// favourite resolution, widget precompute and the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hkbuseta"

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	mergeDuration   prometheus.Histogram
	mergedBranches  prometheus.Histogram
	resolutions     *prometheus.CounterVec
	precomputes     *prometheus.CounterVec
	dataSheetLoads  *prometheus.CounterVec
	dataSheetRoutes prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors on a private registry, so repeated calls in
// tests never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stop_merge_duration_seconds",
			Help:      "Time spent merging branch stop lists of one route.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		mergedBranches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stop_merge_branches",
			Help:      "Number of branches merged per route lookup.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favourite_resolutions_total",
			Help:      "Favourite stop resolutions by effective mode.",
		}, []string{"mode"}),
		precomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_precomputes_total",
			Help:      "Widget precompute builds by operator and result.",
		}, []string{"co", "result"}),
		dataSheetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasheet_loads_total",
			Help:      "Data sheet loads and reloads by result.",
		}, []string{"result"}),
		dataSheetRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasheet_routes",
			Help:      "Routes in the active data sheet.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"path", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
	m.registry.MustRegister(
		m.mergeDuration, m.mergedBranches, m.resolutions, m.precomputes,
		m.dataSheetLoads, m.dataSheetRoutes, m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveMerge(branches int, d time.Duration) {
	if m == nil {
		return
	}
	m.mergeDuration.Observe(d.Seconds())
	m.mergedBranches.Observe(float64(branches))
}

func (m *Metrics) ObserveResolution(mode string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(mode).Inc()
}

func (m *Metrics) ObservePrecompute(co string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.precomputes.WithLabelValues(co, result).Inc()
}

// ObserveDataSheetLoad counts a load attempt and, on success, records the
// route count.
func (m *Metrics) ObserveDataSheetLoad(routes int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.dataSheetLoads.WithLabelValues("error").Inc()
		return
	}
	m.dataSheetLoads.WithLabelValues("ok").Inc()
	m.dataSheetRoutes.Set(float64(routes))
}

func (m *Metrics) ObserveHTTP(path string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(path).Observe(d.Seconds())
}

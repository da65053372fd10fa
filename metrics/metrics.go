// Package metrics exposes Prometheus instruments for the render loop,
// pointer input, model rebuilds and exports.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	FramesTotal        prometheus.Counter
	TickDuration       prometheus.Histogram
	PaintDuration      prometheus.Histogram
	PointerEventsTotal *prometheus.CounterVec
	RebuildsTotal      *prometheus.CounterVec
	RebuildFailures    *prometheus.CounterVec
	ExportsTotal       *prometheus.CounterVec
	Nodes              prometheus.Gauge
	Links              prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WebsocketClients    prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric registered
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initLoopMetrics()
	r.initModelMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initLoopMetrics() {
	factory := promauto.With(r.registry)

	r.FramesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "keywordgraph_frames_total",
		Help: "Total number of painted frames",
	})

	r.TickDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "keywordgraph_tick_duration_seconds",
		Help:    "Time spent advancing the force simulation by one tick",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})

	r.PaintDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "keywordgraph_paint_duration_seconds",
		Help:    "Time spent painting one frame",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	})

	r.PointerEventsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keywordgraph_pointer_events_total",
		Help: "Pointer events by kind",
	}, []string{"kind"})
}

func (r *Registry) initModelMetrics() {
	factory := promauto.With(r.registry)

	r.RebuildsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keywordgraph_rebuilds_total",
		Help: "Model rebuilds by reason",
	}, []string{"reason"})

	r.RebuildFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keywordgraph_rebuild_failures_total",
		Help: "Rejected model rebuilds by reason",
	}, []string{"reason"})

	r.ExportsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keywordgraph_exports_total",
		Help: "Snapshot exports by format",
	}, []string{"format"})

	r.Nodes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "keywordgraph_nodes",
		Help: "Number of nodes in the current model",
	})

	r.Links = factory.NewGauge(prometheus.GaugeOpts{
		Name: "keywordgraph_links",
		Help: "Number of links in the current model",
	})
}

func (r *Registry) initHTTPMetrics() {
	factory := promauto.With(r.registry)

	r.HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keywordgraph_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	r.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "keywordgraph_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	r.WebsocketClients = factory.NewGauge(prometheus.GaugeOpts{
		Name: "keywordgraph_websocket_clients",
		Help: "Connected websocket clients",
	})
}

// RecordFrame records one tick and paint
func (r *Registry) RecordFrame(tick, paint time.Duration) {
	r.FramesTotal.Inc()
	r.TickDuration.Observe(tick.Seconds())
	r.PaintDuration.Observe(paint.Seconds())
}

// RecordPointer counts a pointer event
func (r *Registry) RecordPointer(kind string) {
	r.PointerEventsTotal.WithLabelValues(kind).Inc()
}

// RecordRebuild counts a successful rebuild and updates the model gauges
func (r *Registry) RecordRebuild(reason string, nodes, links int) {
	r.RebuildsTotal.WithLabelValues(reason).Inc()
	r.Nodes.Set(float64(nodes))
	r.Links.Set(float64(links))
}

// RecordRebuildFailure counts a rebuild rejected by validation
func (r *Registry) RecordRebuildFailure(reason string) {
	r.RebuildFailures.WithLabelValues(reason).Inc()
}

// RecordExport counts an export
func (r *Registry) RecordExport(format string) {
	r.ExportsTotal.WithLabelValues(format).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

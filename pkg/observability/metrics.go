package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Conversion metrics
	ConversionsTotal          *prometheus.CounterVec
	ConversionDuration        *prometheus.HistogramVec
	SymbolsTotal              *prometheus.CounterVec
	RelationshipsTotal        prometheus.Counter
	SchemaDecodeFailuresTotal prometheus.Counter
	CatalogFilesWrittenTotal  prometheus.Counter

	// Publish metrics
	PublishedObjectsTotal *prometheus.CounterVec
	PublishedBytesTotal   prometheus.Counter

	// Preview server metrics
	PreviewRequestsTotal   *prometheus.CounterVec
	PreviewRequestDuration *prometheus.HistogramVec
	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics. A nil registry creates a
// private one so tests and repeated runs never collide on registration.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,

		ConversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbolgraph_conversions_total",
				Help: "Total number of conversion runs",
			},
			[]string{"status"},
		),
		ConversionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "symbolgraph_conversion_duration_seconds",
				Help:    "Conversion phase duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		SymbolsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbolgraph_symbols_total",
				Help: "Total number of symbols emitted",
			},
			[]string{"kind"},
		),
		RelationshipsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "symbolgraph_relationships_total",
				Help: "Total number of relationships emitted",
			},
		),
		SchemaDecodeFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "symbolgraph_schema_decode_failures_total",
				Help: "Total number of schemas replaced by placeholders",
			},
		),
		CatalogFilesWrittenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "symbolgraph_catalog_files_written_total",
				Help: "Total number of catalog files written",
			},
		),

		PublishedObjectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbolgraph_published_objects_total",
				Help: "Total number of catalog objects uploaded",
			},
			[]string{"status"},
		),
		PublishedBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "symbolgraph_published_bytes_total",
				Help: "Total number of bytes uploaded",
			},
		),

		PreviewRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbolgraph_preview_requests_total",
				Help: "Total number of preview server requests",
			},
			[]string{"method", "route", "status"},
		),
		PreviewRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "symbolgraph_preview_request_duration_seconds",
				Help:    "Preview request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbolgraph_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbolgraph_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		m.ConversionsTotal,
		m.ConversionDuration,
		m.SymbolsTotal,
		m.RelationshipsTotal,
		m.SchemaDecodeFailuresTotal,
		m.CatalogFilesWrittenTotal,
		m.PublishedObjectsTotal,
		m.PublishedBytesTotal,
		m.PreviewRequestsTotal,
		m.PreviewRequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteToTextfile dumps the current values in the text exposition format,
// for collection by the node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordConversion records the outcome of one conversion run
func (m *Metrics) RecordConversion(err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ConversionsTotal.WithLabelValues(status).Inc()
	m.ConversionDuration.WithLabelValues("total").Observe(duration.Seconds())
}

// ObservePhase records the duration of one conversion phase
func (m *Metrics) ObservePhase(phase string, duration time.Duration) {
	m.ConversionDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordPreviewRequest records one preview server request
func (m *Metrics) RecordPreviewRequest(method, route string, status int, duration time.Duration) {
	m.PreviewRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.PreviewRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordPublish records one uploaded object
func (m *Metrics) RecordPublish(err error, bytes int64) {
	if err != nil {
		m.PublishedObjectsTotal.WithLabelValues("error").Inc()
		return
	}
	m.PublishedObjectsTotal.WithLabelValues("success").Inc()
	m.PublishedBytesTotal.Add(float64(bytes))
}

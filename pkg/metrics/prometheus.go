// Package metrics provides Prometheus metrics for the bracketeer service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns all Prometheus instruments for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Bracket engine
	templatesBuilt  *prometheus.CounterVec
	bracketsCreated prometheus.Counter
	gamesAdvanced   prometheus.Counter
	byesResolved    prometheus.Counter
	resolvePasses   prometheus.Histogram
	engineErrors    *prometheus.CounterVec

	// Seeding rankings
	rankingRecomputes prometheus.Counter
	teamsRanked       prometheus.Gauge
	teamsUnranked     prometheus.Gauge

	// Score report intake
	reportsAccepted  prometheus.Counter
	reportsDuplicate prometheus.Counter
	reportErrors     prometheus.Counter

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	enqueueErrors prometheus.Counter
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram

	// Storage
	storeLatency *prometheus.HistogramVec
	storeErrors  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager wired to a private registry so default Go collectors never
// pollute the scrape.
var (
	customRegistry = prometheus.NewRegistry()        //nolint:gochecknoglobals // singleton registry
	globalManager  *Manager                          //nolint:gochecknoglobals // singleton manager
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all instruments.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bracketeer",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	histOpts := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets}
	}

	m.templatesBuilt = prometheus.NewCounterVec(factory("templates_built_total", "Bracket templates generated, by size."), []string{"size"})
	m.bracketsCreated = prometheus.NewCounter(factory("brackets_created_total", "Brackets instantiated from entries."))
	m.gamesAdvanced = prometheus.NewCounter(factory("games_advanced_total", "Game results recorded and propagated."))
	m.byesResolved = prometheus.NewCounter(factory("byes_resolved_total", "Games resolved as byes during fixpoint passes."))
	m.resolvePasses = prometheus.NewHistogram(histOpts("resolve_passes", "Fixpoint passes needed per bye resolution.", []float64{1, 2, 3, 4, 6, 8, 12, 16}))
	m.engineErrors = prometheus.NewCounterVec(factory("errors_total", "Engine errors, by kind."), []string{"kind"})

	m.rankingRecomputes = prometheus.NewCounter(factory("ranking_recomputes_total", "Full seeding ranking recomputations."))
	m.teamsRanked = prometheus.NewGauge(gaugeOpts("teams_ranked", "Teams holding a seed rank after the last recompute."))
	m.teamsUnranked = prometheus.NewGauge(gaugeOpts("teams_unranked", "Teams without recorded scores after the last recompute."))

	m.reportsAccepted = prometheus.NewCounter(factory("score_reports_accepted_total", "Score reports accepted for processing."))
	m.reportsDuplicate = prometheus.NewCounter(factory("score_reports_duplicate_total", "Score reports rejected as duplicates."))
	m.reportErrors = prometheus.NewCounter(factory("score_report_errors_total", "Score reports that failed processing."))

	m.queueSize = prometheus.NewGauge(gaugeOpts("queue_size", "Score reports currently queued."))
	m.queueCapacity = prometheus.NewGauge(gaugeOpts("queue_capacity", "Configured queue capacity."))
	m.enqueueErrors = prometheus.NewCounter(factory("queue_enqueue_errors_total", "Enqueue attempts rejected by the queue."))
	m.workerCount = prometheus.NewGauge(gaugeOpts("worker_count", "Running score workers."))
	m.workerLatency = prometheus.NewHistogram(histOpts("worker_latency_ms", "Per-report worker processing latency.", m.histogramBuckets))

	m.storeLatency = prometheus.NewHistogramVec(histOpts("store_latency_ms", "Storage operation latency.", m.histogramBuckets), []string{"op"})
	m.storeErrors = prometheus.NewCounter(factory("store_errors_total", "Storage operation failures."))

	m.httpRequests = prometheus.NewCounterVec(factory("http_requests_total", "HTTP requests, by endpoint, method and status."), []string{"endpoint", "method", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(histOpts("http_request_duration_ms", "HTTP request latency.", m.histogramBuckets), []string{"endpoint", "method"})

	m.registry.MustRegister(
		m.templatesBuilt, m.bracketsCreated, m.gamesAdvanced, m.byesResolved, m.resolvePasses, m.engineErrors,
		m.rankingRecomputes, m.teamsRanked, m.teamsUnranked,
		m.reportsAccepted, m.reportsDuplicate, m.reportErrors,
		m.queueSize, m.queueCapacity, m.enqueueErrors, m.workerCount, m.workerLatency,
		m.storeLatency, m.storeErrors,
		m.httpRequests, m.httpRequestDuration,
	)

	return m
}

// GetRegistry returns the private registry the global manager reports into.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers against the global manager.

func RecordTemplateBuilt(size string)      { globalManager.templatesBuilt.WithLabelValues(size).Inc() }
func RecordBracketCreated()                { globalManager.bracketsCreated.Inc() }
func RecordGameAdvanced()                  { globalManager.gamesAdvanced.Inc() }
func RecordByesResolved(n int) {
	// Advancing a bye game shrinks the bye count; only growth is recorded.
	if n > 0 {
		globalManager.byesResolved.Add(float64(n))
	}
}
func ObserveResolvePasses(passes int)      { globalManager.resolvePasses.Observe(float64(passes)) }
func RecordEngineError(kind string)        { globalManager.engineErrors.WithLabelValues(kind).Inc() }
func RecordRankingRecompute()              { globalManager.rankingRecomputes.Inc() }
func UpdateTeamsRanked(ranked, total int)  { globalManager.teamsRanked.Set(float64(ranked)); globalManager.teamsUnranked.Set(float64(total - ranked)) }
func RecordReportAccepted()                { globalManager.reportsAccepted.Inc() }
func RecordReportDuplicate()               { globalManager.reportsDuplicate.Inc() }
func RecordReportError()                   { globalManager.reportErrors.Inc() }
func UpdateQueueSize(n int)                { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)            { globalManager.queueCapacity.Set(float64(n)) }
func RecordQueueEnqueueError()             { globalManager.enqueueErrors.Inc() }
func UpdateWorkerCount(n int)              { globalManager.workerCount.Set(float64(n)) }
func ObserveWorkerLatency(ms float64)      { globalManager.workerLatency.Observe(ms) }
func ObserveStoreLatency(op string, ms float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(ms)
}
func RecordStoreError() { globalManager.storeErrors.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func ObserveHTTPDuration(endpoint, method string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}

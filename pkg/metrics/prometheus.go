// Package metrics provides Prometheus metrics for the RBC fusion pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons for entries that did not contribute to an accumulator.
const (
	SkipOutOfCoverage     = "out_of_coverage"
	SkipUnregisteredTopic = "unregistered_topic"
)

// Manager manages all Prometheus metrics for a fusion process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ingestion
	runsIngested       prometheus.Counter
	entriesAccumulated prometheus.Counter
	entriesSkipped     *prometheus.CounterVec
	ingestDuration     prometheus.Histogram

	// Accumulators
	accumulatorRehashes prometheus.Counter
	topics              prometheus.Gauge
	documents           prometheus.Gauge
	weightCoverage      prometheus.Gauge

	// Selection
	selectDuration prometheus.Histogram

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rbc",
		subsystem:        "fusion",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.runsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_ingested_total",
		Help:        "Total number of runs accumulated",
		ConstLabels: labels,
	})

	m.entriesAccumulated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entries_accumulated_total",
		Help:        "Total number of run entries that contributed weight to an accumulator",
		ConstLabels: labels,
	})

	m.entriesSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "entries_skipped_total",
			Help:        "Total number of run entries skipped, by reason",
			ConstLabels: labels,
		},
		[]string{"reason"},
	)

	m.ingestDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ingest_duration_milliseconds",
		Help:        "Time spent accumulating a single run",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.accumulatorRehashes = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "accumulator_rehash_total",
		Help:        "Total number of accumulator table rehashes",
		ConstLabels: labels,
	})

	m.topics = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "topics",
		Help:        "Number of registered topics",
		ConstLabels: labels,
	})

	m.documents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "documents",
		Help:        "Number of distinct (topic, document) accumulators",
		ConstLabels: labels,
	})

	m.weightCoverage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "weight_coverage",
		Help:        "Deepest rank covered by the weight vector",
		ConstLabels: labels,
	})

	m.selectDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "select_duration_milliseconds",
		Help:        "Time spent extracting the top-k ranking of a topic",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_total",
			Help:        "Total number of fatal errors by component and type",
			ConstLabels: labels,
		},
		[]string{"component", "type"},
	)
}

// RecordRunIngested increments the ingested runs counter.
func RecordRunIngested() {
	globalManager.runsIngested.Inc()
}

// RecordEntriesAccumulated adds n contributing entries.
func RecordEntriesAccumulated(n int) {
	globalManager.entriesAccumulated.Add(float64(n))
}

// RecordEntriesSkipped adds n skipped entries for the given reason.
func RecordEntriesSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.entriesSkipped.WithLabelValues(reason).Add(float64(n))
}

// RecordIngestLatency records the time spent on one run in milliseconds.
func RecordIngestLatency(latencyMs float64) {
	globalManager.ingestDuration.Observe(latencyMs)
}

// RecordAccumulatorRehash increments the rehash counter.
func RecordAccumulatorRehash() {
	globalManager.accumulatorRehashes.Inc()
}

// UpdateTopicCount sets the number of registered topics.
func UpdateTopicCount(count int) {
	globalManager.topics.Set(float64(count))
}

// UpdateDocumentCount sets the number of accumulated documents.
func UpdateDocumentCount(count int) {
	globalManager.documents.Set(float64(count))
}

// UpdateWeightCoverage sets the weight vector length.
func UpdateWeightCoverage(depth int) {
	globalManager.weightCoverage.Set(float64(depth))
}

// RecordSelectLatency records top-k extraction latency for one topic.
func RecordSelectLatency(latencyMs float64) {
	globalManager.selectDuration.Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current state of the registry to path in the
// text exposition format understood by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// Package metrics provides Prometheus instrumentation for the trajectory pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons used as label values.
const (
	ReasonMalformedJSON   = "malformed_json"
	ReasonMissingIdentity = "missing_identity"
	ReasonDuplicate       = "duplicate"
	ReasonStoreError      = "store_error"
)

// Phase names used as label values.
const (
	PhaseIngest  = "ingest"
	PhaseAnalyze = "analyze"
	PhaseExport  = "export"
)

// Manager owns the pipeline metrics registered on one registry.
type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	registry        *prometheus.Registry

	// Ingestion
	linesRead      prometheus.Counter
	recordsLoaded  prometheus.Counter
	recordsSkipped *prometheus.CounterVec
	rowsWritten    *prometheus.CounterVec
	filesRead      prometheus.Counter

	// Phases
	phaseDuration *prometheus.HistogramVec
	phaseFailures *prometheus.CounterVec

	// Analytics output
	metricEntries *prometheus.GaugeVec
	lastRunUnix   prometheus.Gauge
}

var globalManager = NewManager() //nolint:gochecknoglobals // process-wide metrics singleton

// Configure replaces the process-wide manager with one built from opts on a
// fresh private registry. Call it once at startup, before any Record function.
func Configure(opts ...Option) {
	globalManager = NewManager(opts...)
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "trajectory",
		subsystem:       "pipeline",
		durationBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		registry:        prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.linesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lines_read_total",
		Help:      "Non-blank corpus lines read",
	})
	m.filesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_read_total",
		Help:      "Corpus files fully consumed",
	})
	m.recordsLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_loaded_total",
		Help:      "Person records persisted to the relational store",
	})
	m.recordsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_skipped_total",
		Help:      "Lines or records skipped during ingestion, by reason",
	}, []string{"reason"})
	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_written_total",
		Help:      "Rows inserted into the relational store, by table",
	}, []string{"table"})
	m.phaseDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "phase_duration_seconds",
		Help:      "Wall time of each pipeline phase",
		Buckets:   m.durationBuckets,
	}, []string{"phase"})
	m.phaseFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "phase_failures_total",
		Help:      "Pipeline phases that aborted the run",
	}, []string{"phase"})
	m.metricEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "metric_entries",
		Help:      "Source keys per aggregate metric before and after trimming",
	}, []string{"metric", "stage"})
	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_unixtime",
		Help:      "Unix time of the last successfully exported run",
	})
}

// Registry returns the registry the manager's collectors live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the manager's registry in the Prometheus text format.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteTextfile, path, err)
	}
	return nil
}

// RecordLineRead increments the lines read counter.
func RecordLineRead() { globalManager.linesRead.Inc() }

// RecordFileRead increments the files read counter.
func RecordFileRead() { globalManager.filesRead.Inc() }

// RecordRecordLoaded increments the loaded records counter.
func RecordRecordLoaded() { globalManager.recordsLoaded.Inc() }

// RecordRecordSkipped increments the skipped counter for reason.
func RecordRecordSkipped(reason string) {
	globalManager.recordsSkipped.WithLabelValues(reason).Inc()
}

// RecordRowsWritten adds n to the rows written counter for table.
func RecordRowsWritten(table string, n int) {
	globalManager.rowsWritten.WithLabelValues(table).Add(float64(n))
}

// ObservePhase records how long phase took.
func ObservePhase(phase string, d time.Duration) {
	globalManager.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordPhaseFailure increments the failure counter for phase.
func RecordPhaseFailure(phase string) {
	globalManager.phaseFailures.WithLabelValues(phase).Inc()
}

// UpdateMetricEntries sets the number of source keys of metric at stage ("computed" or "exported").
func UpdateMetricEntries(metric, stage string, n int) {
	globalManager.metricEntries.WithLabelValues(metric, stage).Set(float64(n))
}

// MarkRunSucceeded stamps the last successful run time.
func MarkRunSucceeded(at time.Time) { globalManager.lastRunUnix.Set(float64(at.Unix())) }

// WriteTextfile writes the global registry to path in the Prometheus text format.
func WriteTextfile(path string) error { return globalManager.WriteTextfile(path) }

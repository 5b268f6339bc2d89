package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "content_sweep"

// Metrics holds the counters of a sweep process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// ItemsProcessed counts processed items by outcome action
	ItemsProcessed *prometheus.CounterVec

	// Writes counts verified writes
	Writes prometheus.Counter

	// Wraps counts cursor wraparounds
	Wraps prometheus.Counter

	// Remediations counts duplicate remediations by source (generator, fallback, unresolved)
	Remediations *prometheus.CounterVec

	// Aborts counts runs stopped by an unrecoverable error, by stage
	Aborts *prometheus.CounterVec

	// LastRunTimestamp is the unix time the last run finished
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics registers the sweep metrics on reg. A nil reg creates a private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ItemsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "items_processed_total",
				Help:      "Items processed by outcome",
			},
			[]string{"action"},
		),
		Writes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "writes_total",
			Help:      "Verified item writes",
		}),
		Wraps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "wraps_total",
			Help:      "Cursor wraparounds",
		}),
		Remediations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "remediations_total",
				Help:      "Duplicate remediations by source",
			},
			[]string{"source"},
		),
		Aborts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "aborts_total",
				Help:      "Runs aborted by an unrecoverable error, by stage",
			},
			[]string{"stage"},
		),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveItem records one processed item.
func (m *Metrics) ObserveItem(action string) {
	if m == nil {
		return
	}
	m.ItemsProcessed.WithLabelValues(action).Inc()
}

// ObserveWrite records one verified write.
func (m *Metrics) ObserveWrite() {
	if m == nil {
		return
	}
	m.Writes.Inc()
}

// ObserveWrap records a cursor wraparound.
func (m *Metrics) ObserveWrap() {
	if m == nil {
		return
	}
	m.Wraps.Inc()
}

// ObserveRemediation records a duplicate remediation.
func (m *Metrics) ObserveRemediation(source string) {
	if m == nil {
		return
	}
	m.Remediations.WithLabelValues(source).Inc()
}

// ObserveAbort records a run aborted at stage.
func (m *Metrics) ObserveAbort(stage string) {
	if m == nil {
		return
	}
	m.Aborts.WithLabelValues(stage).Inc()
}

// ObserveRunFinished stamps the last-run gauge.
func (m *Metrics) ObserveRunFinished(at time.Time) {
	if m == nil {
		return
	}
	m.LastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes the metrics in text exposition format for a node
// exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

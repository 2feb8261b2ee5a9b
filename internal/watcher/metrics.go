package watcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "keyword_monitor"
	metricsSubsystem = "watcher"
)

// Metrics holds the Prometheus metrics for the watcher.
type Metrics struct {
	CyclesTotal       prometheus.Counter
	CycleDuration     prometheus.Histogram
	MonitorsDue       prometheus.Gauge
	KeywordsProcessed *prometheus.CounterVec
	ReportsPurged     prometheus.Counter
}

// NewMetrics creates and registers the watcher metrics. A nil registerer
// falls back to the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "cycles_total",
				Help:      "Total number of check cycles run",
			},
		),
		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of one check cycle in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~41s
			},
		),
		MonitorsDue: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "monitors_due",
				Help:      "Due monitors found in the most recent cycle",
			},
		),
		KeywordsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "keywords_processed_total",
				Help:      "Total monitor checks by outcome",
			},
			[]string{"status"},
		),
		ReportsPurged: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "reports_purged_total",
				Help:      "Total reports removed by retention purges",
			},
		),
	}
}

// RecordCycle records one completed check cycle.
func (m *Metrics) RecordCycle(d time.Duration) {
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// SetMonitorsDue records how many monitors the last cycle found due.
func (m *Metrics) SetMonitorsDue(count int) {
	m.MonitorsDue.Set(float64(count))
}

// RecordCheck records the outcome of one monitor check.
func (m *Metrics) RecordCheck(status string) {
	m.KeywordsProcessed.WithLabelValues(status).Inc()
}

// RecordPurged adds to the purged report total.
func (m *Metrics) RecordPurged(count int64) {
	if count > 0 {
		m.ReportsPurged.Add(float64(count))
	}
}

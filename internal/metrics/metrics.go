// Package metrics exposes Prometheus instrumentation for table loading and
// validation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MobilityData/gtfs-validator-sub012/internal/parsing"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

const (
	namespace = "gtfs"
	subsystem = "validator"
)

// Run outcomes.
const (
	OutcomeValid   = "valid"   // no ERROR notice
	OutcomeInvalid = "invalid" // at least one ERROR notice or system error
	OutcomeFailed  = "failed"  // the run did not complete
)

// Metrics holds the collectors of one registry. It implements table.Observer.
type Metrics struct {
	tablesLoaded  *prometheus.CounterVec
	rowsParsed    *prometheus.CounterVec
	tableLoadTime *prometheus.HistogramVec
	cacheHitRatio *prometheus.GaugeVec
	cacheSize     *prometheus.GaugeVec
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	activeRuns    prometheus.Gauge
	notices       *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	rejected      prometheus.Counter
}

var _ table.Observer = (*Metrics)(nil)

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tablesLoaded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tables_loaded_total",
			Help:      "Tables loaded, by filename and final status",
		}, []string{"table", "status"}),
		rowsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rows_parsed_total",
			Help:      "Data rows parsed, by filename",
		}, []string{"table"}),
		tableLoadTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "table_load_duration_seconds",
			Help:      "Time taken to load one table",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"table"}),
		cacheHitRatio: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "field_cache_hit_ratio",
			Help:      "Hit ratio of the field cache of a column in the last load",
		}, []string{"table", "column"}),
		cacheSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "field_cache_size",
			Help:      "Distinct values interned for a column in the last load",
		}, []string{"table", "column"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Validation runs, by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Time taken by a validation run",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		activeRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_runs",
			Help:      "Validation runs in progress",
		}),
		notices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notices_total",
			Help:      "Validation notices emitted, by severity",
		}, []string{"severity"}),
		skipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validators_skipped_total",
			Help:      "Validators that did not run, by reason",
		}, []string{"reason"}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_rejected_total",
			Help:      "Validation requests rejected because every slot was busy",
		}),
	}
}

// TableLoaded implements table.Observer.
func (m *Metrics) TableLoaded(filename string, status table.Status, rows int, elapsed time.Duration) {
	m.tablesLoaded.WithLabelValues(filename, status.String()).Inc()
	m.rowsParsed.WithLabelValues(filename).Add(float64(rows))
	m.tableLoadTime.WithLabelValues(filename).Observe(elapsed.Seconds())
}

// CacheStats implements table.Observer.
func (m *Metrics) CacheStats(filename, column string, stats parsing.CacheStats) {
	ratio := 0.0
	if stats.Lookups > 0 {
		ratio = float64(stats.Hits) / float64(stats.Lookups)
	}
	m.cacheHitRatio.WithLabelValues(filename, column).Set(ratio)
	m.cacheSize.WithLabelValues(filename, column).Set(float64(stats.Size))
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunFinished records a run that ended with outcome.
func (m *Metrics) RunFinished(outcome string, elapsed time.Duration) {
	m.activeRuns.Dec()
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// RunRejected counts a request turned away by the concurrency limiter.
func (m *Metrics) RunRejected() {
	m.rejected.Inc()
}

// NoticesEmitted adds count notices of severity.
func (m *Metrics) NoticesEmitted(severity string, count int) {
	m.notices.WithLabelValues(severity).Add(float64(count))
}

// ValidatorsSkipped adds count validators skipped for reason.
func (m *Metrics) ValidatorsSkipped(reason string, count int) {
	m.skipped.WithLabelValues(reason).Add(float64(count))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

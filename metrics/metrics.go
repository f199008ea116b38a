package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feemeta"

// Refresh results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the metadata service collectors
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheErrors     prometheus.Counter
	exchangeRows    *prometheus.GaugeVec
	tableRows       prometheus.Gauge
}

// New creates the collectors, and registers them with the given registerer
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refreshes_total",
				Help:      "Total number of metadata regenerations, by result",
			},
			[]string{"result"},
		),
		refreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Duration of the metadata regeneration, in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of metadata requests served from the cache",
			},
		),
		cacheErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_read_errors_total",
				Help:      "Total number of unreadable cache reads",
			},
		),
		exchangeRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "exchange_rows",
				Help:      "Number of symbols in the latest per-exchange table",
			},
			[]string{"exchange"},
		),
		tableRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "table_rows",
				Help:      "Number of symbols in the latest merged metadata table",
			},
		),
	}

	registerer.MustRegister(
		m.refreshes,
		m.refreshDuration,
		m.cacheHits,
		m.cacheErrors,
		m.exchangeRows,
		m.tableRows,
	)

	return m
}

// ObserveRefresh records a finished regeneration
func (m *Metrics) ObserveRefresh(duration time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}

	m.refreshes.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(duration.Seconds())
}

// CacheHit records a request served from the cache
func (m *Metrics) CacheHit() {
	m.cacheHits.Inc()
}

// CacheError records an unreadable cache
func (m *Metrics) CacheError() {
	m.cacheErrors.Inc()
}

// SetExchangeRows records the size of an exchange's table
func (m *Metrics) SetExchangeRows(exchange string, rows int) {
	m.exchangeRows.WithLabelValues(exchange).Set(float64(rows))
}

// SetTableRows records the size of the merged table
func (m *Metrics) SetTableRows(rows int) {
	m.tableRows.Set(float64(rows))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions prometheus.Counter
	cacheEntries   prometheus.Gauge
	cacheCandles   prometheus.Gauge
	importRows     *prometheus.CounterVec
	replayOps      *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartflux_cache_hits_total",
				Help: "Series cache hits per (symbol, timeframe)",
			},
			[]string{"symbol", "tf"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartflux_cache_misses_total",
				Help: "Series cache misses per (symbol, timeframe)",
			},
			[]string{"symbol", "tf"},
		),
		cacheEvictions: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chartflux_cache_evictions_total",
				Help: "Series cache LRU evictions",
			},
		),
		cacheEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chartflux_cache_entries",
				Help: "Resident series cache entries",
			},
		),
		cacheCandles: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chartflux_cache_candles",
				Help: "Total candles resident in the series cache",
			},
		),
		importRows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartflux_import_rows_total",
				Help: "CSV import rows by outcome",
			},
			[]string{"symbol", "outcome"},
		),
		replayOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartflux_replay_ops_total",
				Help: "Replay engine operations by kind",
			},
			[]string{"op"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartflux_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartflux_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCacheHit records a series cache hit.
func (r *Recorder) RecordCacheHit(symbol, tf string) {
	r.cacheHits.WithLabelValues(symbol, tf).Inc()
}

// RecordCacheMiss records a series cache miss.
func (r *Recorder) RecordCacheMiss(symbol, tf string) {
	r.cacheMisses.WithLabelValues(symbol, tf).Inc()
}

// RecordCacheEviction records one LRU eviction.
func (r *Recorder) RecordCacheEviction() {
	r.cacheEvictions.Inc()
}

// SetCacheResidency updates the resident entry/candle gauges.
func (r *Recorder) SetCacheResidency(entries, candles int) {
	r.cacheEntries.Set(float64(entries))
	r.cacheCandles.Set(float64(candles))
}

// RecordImportRows records accepted and skipped rows of one import.
func (r *Recorder) RecordImportRows(symbol string, accepted, skipped int) {
	r.importRows.WithLabelValues(symbol, "accepted").Add(float64(accepted))
	r.importRows.WithLabelValues(symbol, "skipped").Add(float64(skipped))
}

// RecordReplayOp records a replay engine operation.
func (r *Recorder) RecordReplayOp(op string) {
	r.replayOps.WithLabelValues(op).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	FeedTicksReceived  prometheus.Counter
	FeedMessagesBad    prometheus.Counter
	FeedReconnects     prometheus.Counter
	FeedMessageLatency prometheus.Histogram

	// Recording metrics
	TicksStored   prometheus.Counter
	FlushDuration prometheus.Histogram
	FlushErrors   prometheus.Counter

	// Backtest metrics
	WindowsEvaluated prometheus.Counter
	FaultsSurvived   prometheus.Counter
	TradesSimulated  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "binary_window_lab"
	}

	return &Metrics{
		// Feed metrics
		FeedTicksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ticks_received_total",
			Help:      "Total number of trade ticks received from the feed",
		}),
		FeedMessagesBad: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_bad_total",
			Help:      "Total number of malformed feed messages skipped",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnect attempts",
		}),
		FeedMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "message_latency_seconds",
			Help:      "Feed message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Recording metrics
		TicksStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recording",
			Name:      "ticks_stored_total",
			Help:      "Total number of ticks flushed to storage",
		}),
		FlushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recording",
			Name:      "flush_duration_seconds",
			Help:      "Storage flush duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		FlushErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recording",
			Name:      "flush_errors_total",
			Help:      "Total number of failed storage flushes",
		}),

		// Backtest metrics
		WindowsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "windows_evaluated_total",
			Help:      "Total number of windows evaluated",
		}),
		FaultsSurvived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "faults_survived_total",
			Help:      "Total number of per-event strategy/execution faults survived",
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTickReceived increments the feed ticks received counter.
func RecordTickReceived() {
	DefaultMetrics.FeedTicksReceived.Inc()
}

// RecordBadMessage increments the malformed message counter.
func RecordBadMessage() {
	DefaultMetrics.FeedMessagesBad.Inc()
}

// RecordReconnect increments the feed reconnect counter.
func RecordReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}

// RecordFlush records one storage flush.
func RecordFlush(ticks int, seconds float64, err error) {
	DefaultMetrics.FlushDuration.Observe(seconds)
	if err != nil {
		DefaultMetrics.FlushErrors.Inc()
		return
	}
	DefaultMetrics.TicksStored.Add(float64(ticks))
}

// RecordWindowEvaluated records one evaluated window and its outcome counts.
func RecordWindowEvaluated(trades, faults int) {
	DefaultMetrics.WindowsEvaluated.Inc()
	DefaultMetrics.TradesSimulated.Add(float64(trades))
	DefaultMetrics.FaultsSurvived.Add(float64(faults))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

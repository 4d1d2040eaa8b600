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
	// Ingestion metrics
	TradesReceived  *prometheus.CounterVec
	TradesStored    prometheus.Counter
	TradesSkipped   prometheus.Counter
	FeedErrors      *prometheus.CounterVec
	FeedReconnects  prometheus.Counter
	TradeBufferSize prometheus.Gauge
	LastTradeSeen   prometheus.Gauge
	FlushDuration   prometheus.Histogram

	// Sampling and labeling metrics
	BarsBuilt     *prometheus.CounterVec
	LabelsEmitted *prometheus.CounterVec

	// Plugin metrics
	FunctionCalls    *prometheus.CounterVec
	FunctionDuration *prometheus.HistogramVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	SymbolsProcessed  *prometheus.CounterVec
	ReportsGenerated  prometheus.Counter

	// Sink metrics
	MessagesPublished *prometheus.CounterVec
	PublishErrors     *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulPipeline  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "tick_feature_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		TradesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_received_total",
			Help:      "Total number of trades received from the feed by symbol",
		}, []string{"symbol"}),
		TradesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_stored_total",
			Help:      "Total number of trades stored to database",
		}),
		TradesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_skipped_total",
			Help:      "Total number of trades at or before the saved ingest position",
		}),
		FeedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_errors_total",
			Help:      "Total number of feed errors by type",
		}, []string{"error_type"}),
		FeedReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_reconnects_total",
			Help:      "Total number of websocket reconnects",
		}),
		TradeBufferSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trade_buffer_size",
			Help:      "Current number of buffered trades awaiting flush",
		}),
		LastTradeSeen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "last_trade_timestamp_ms",
			Help:      "Timestamp of the newest trade seen",
		}),
		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "flush_duration_seconds",
			Help:      "Trade buffer flush latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Sampling and labeling metrics
		BarsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bars",
			Name:      "built_total",
			Help:      "Total number of bars built by kind",
		}, []string{"kind"}),
		LabelsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "labels",
			Name:      "emitted_total",
			Help:      "Total number of labels by event",
		}, []string{"event"}),

		// Plugin metrics
		FunctionCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plugin",
			Name:      "calls_total",
			Help:      "Total number of series function calls by function and status",
		}, []string{"function", "status"}),
		FunctionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "plugin",
			Name:      "call_duration_seconds",
			Help:      "Series function latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"function"}),

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		SymbolsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "symbols_processed_total",
			Help:      "Total number of symbols featurized by status",
		}, []string{"status"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Sink metrics
		MessagesPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "messages_published_total",
			Help:      "Total number of messages published by type",
		}, []string{"type"}),
		PublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "publish_errors_total",
			Help:      "Total number of failed publishes by type",
		}, []string{"type"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"store", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful flush",
		}),
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer, "")

// RecordTradesReceived counts trades decoded from the feed.
func RecordTradesReceived(symbol string, n int) {
	DefaultMetrics.TradesReceived.WithLabelValues(symbol).Add(float64(n))
}

// RecordFeedError records a feed failure.
func RecordFeedError(errorType string) {
	DefaultMetrics.FeedErrors.WithLabelValues(errorType).Inc()
}

// RecordBarsBuilt counts bars produced for a kind.
func RecordBarsBuilt(kind string, n int) {
	DefaultMetrics.BarsBuilt.WithLabelValues(kind).Add(float64(n))
}

// RecordLabel counts one emitted label. Unresolved labels use event "none".
func RecordLabel(event *int8) {
	name := "none"
	if event != nil {
		switch *event {
		case -1:
			name = "stop_loss"
		case 0:
			name = "vertical"
		case 1:
			name = "profit_take"
		}
	}
	DefaultMetrics.LabelsEmitted.WithLabelValues(name).Inc()
}

// RecordFunctionCall records one series function invocation.
func RecordFunctionCall(function string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.FunctionCalls.WithLabelValues(function, status).Inc()
	DefaultMetrics.FunctionDuration.WithLabelValues(function).Observe(seconds)
}

// RecordPublish records a sink publish attempt.
func RecordPublish(msgType string, err error) {
	if err != nil {
		DefaultMetrics.PublishErrors.WithLabelValues(msgType).Inc()
		return
	}
	DefaultMetrics.MessagesPublished.WithLabelValues(msgType).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(store, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(store, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.Observe(durationSeconds)
}

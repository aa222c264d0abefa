package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "signalscope_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	loadTotal   *prometheus.CounterVec
	loadLatency *prometheus.HistogramVec

	alignTotal *prometheus.CounterVec
	alignRows  prometheus.Histogram

	chartRenderTotal   *prometheus.CounterVec
	chartRenderLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	sessionsActive prometheus.Gauge
	actionsTotal   *prometheus.CounterVec
)

// Init registers the metrics with the default Prometheus registry. It is
// safe to call more than once; Observe helpers are no-ops until then.
func Init() {
	registerOnce.Do(func() {
		loadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "load_total",
				Help: "Total snapshot loads by source type and result",
			},
			[]string{"source", "result"},
		)
		loadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "load_latency_seconds",
				Help:    "Snapshot load latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "result"},
		)

		alignTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "align_total",
				Help: "Total series alignments by caller",
			},
			[]string{"caller"},
		)
		alignRows = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "align_rows",
				Help:    "Rows produced per alignment",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		)

		chartRenderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "chart_render_total",
				Help: "Total chart renders by result",
			},
			[]string{"result"},
		)
		chartRenderLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "chart_render_latency_seconds",
				Help:    "Chart render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		sessionsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "sessions_active",
				Help: "Open selection sessions",
			},
		)
		actionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "session_actions_total",
				Help: "Selection actions applied by kind and result",
			},
			[]string{"action", "result"},
		)

		prometheus.MustRegister(
			loadTotal,
			loadLatency,
			alignTotal,
			alignRows,
			chartRenderTotal,
			chartRenderLatency,
			exportTotal,
			exportLatency,
			sessionsActive,
			actionsTotal,
		)
	})
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveLoad records a snapshot load.
func ObserveLoad(source string, err error, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	result := resultOf(err)
	if loadTotal != nil {
		loadTotal.WithLabelValues(source, result).Inc()
	}
	if loadLatency != nil {
		loadLatency.WithLabelValues(source, result).Observe(duration.Seconds())
	}
}

// ObserveAlign records an alignment and the number of rows it produced.
func ObserveAlign(caller string, rows int) {
	if caller == "" {
		caller = "unknown"
	}
	if alignTotal != nil {
		alignTotal.WithLabelValues(caller).Inc()
	}
	if alignRows != nil {
		alignRows.Observe(float64(rows))
	}
}

// ObserveChartRender records chart render latency and result.
func ObserveChartRender(err error, duration time.Duration) {
	result := resultOf(err)
	if chartRenderTotal != nil {
		chartRenderTotal.WithLabelValues(result).Inc()
	}
	if chartRenderLatency != nil {
		chartRenderLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	result := resultOf(err)
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// SessionOpened and SessionClosed track live selection sessions.
func SessionOpened() {
	if sessionsActive != nil {
		sessionsActive.Inc()
	}
}

func SessionClosed() {
	if sessionsActive != nil {
		sessionsActive.Dec()
	}
}

// ObserveAction counts an applied selection action.
func ObserveAction(action string, err error) {
	if action == "" {
		action = "unknown"
	}
	if actionsTotal != nil {
		actionsTotal.WithLabelValues(action, resultOf(err)).Inc()
	}
}

package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "tbill_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ledgerOpsTotal *prometheus.CounterVec

	seriesOpsTotal   *prometheus.CounterVec
	seriesOpsLatency *prometheus.HistogramVec

	repoOpsTotal   *prometheus.CounterVec
	repoOpsLatency *prometheus.HistogramVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	eventsPublishedTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ledgerOpsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_ops_total",
				Help: "Total bill ledger operations by op and result",
			},
			[]string{"op", "result"},
		)

		seriesOpsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "series_ops_total",
				Help: "Total series engine operations by op and result",
			},
			[]string{"op", "result"},
		)
		seriesOpsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "series_ops_latency_seconds",
				Help:    "Series engine operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)

		repoOpsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "repo_ops_total",
				Help: "Total repo market operations by op and result",
			},
			[]string{"op", "result"},
		)
		repoOpsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "repo_ops_latency_seconds",
				Help:    "Repo market operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total accounting report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Accounting report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		eventsPublishedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_published_total",
				Help: "Total domain events published by type",
			},
			[]string{"event"},
		)

		prometheus.MustRegister(
			ledgerOpsTotal,
			seriesOpsTotal,
			seriesOpsLatency,
			repoOpsTotal,
			repoOpsLatency,
			reportExportTotal,
			reportExportLatency,
			eventsPublishedTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveLedgerOp records a bill ledger operation result.
func ObserveLedgerOp(op string, err error) {
	if op == "" {
		op = "unknown"
	}
	if ledgerOpsTotal != nil {
		ledgerOpsTotal.WithLabelValues(op, resultFor(err)).Inc()
	}
}

// ObserveSeriesOp records series engine operation latency and result.
func ObserveSeriesOp(op string, err error, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	result := resultFor(err)
	if seriesOpsTotal != nil {
		seriesOpsTotal.WithLabelValues(op, result).Inc()
	}
	if seriesOpsLatency != nil {
		seriesOpsLatency.WithLabelValues(op, result).Observe(duration.Seconds())
	}
}

// ObserveRepoOp records repo market operation latency and result.
func ObserveRepoOp(op string, err error, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	result := resultFor(err)
	if repoOpsTotal != nil {
		repoOpsTotal.WithLabelValues(op, result).Inc()
	}
	if repoOpsLatency != nil {
		repoOpsLatency.WithLabelValues(op, result).Observe(duration.Seconds())
	}
}

// ObserveReportExport records accounting export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncEventPublished increments the published-event counter.
func IncEventPublished(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	if eventsPublishedTotal != nil {
		eventsPublishedTotal.WithLabelValues(eventType).Inc()
	}
}

func resultFor(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

// Package metrics provides Prometheus metrics for the store monitoring
// report pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storepulse_reports_triggered_total",
			Help: "Total number of report jobs triggered",
		},
	)
	ReportsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storepulse_reports_completed_total",
			Help: "Total number of report jobs completed",
		},
	)
	ReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storepulse_report_duration_seconds",
			Help:    "End-to-end report generation duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
	StoreComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storepulse_store_compute_duration_seconds",
			Help:    "Per-store aggregation duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
	StoreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storepulse_store_failures_total",
			Help: "Total number of stores omitted from a report after a computation fault",
		},
	)
	MalformedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storepulse_malformed_rows_total",
			Help: "Total number of malformed input rows dropped",
		},
		[]string{"table"},
	)
	JobsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storepulse_jobs",
			Help: "Current number of report jobs by status",
		},
		[]string{"status"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storepulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storepulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordReportTriggered() {
	ReportsTriggered.Inc()
}

func RecordReportCompleted(duration time.Duration) {
	ReportsCompleted.Inc()
	ReportDuration.Observe(duration.Seconds())
}

func RecordStoreComputed(duration time.Duration) {
	StoreComputeDuration.Observe(duration.Seconds())
}

func RecordStoreFailure() {
	StoreFailures.Inc()
}

func RecordMalformedRows(table string, count int) {
	if count > 0 {
		MalformedRows.WithLabelValues(table).Add(float64(count))
	}
}

func UpdateJobGauges(jobsByStatus map[string]int) {
	JobsByStatus.Reset()
	for status, count := range jobsByStatus {
		JobsByStatus.WithLabelValues(status).Set(float64(count))
	}
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

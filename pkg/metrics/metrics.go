// Package metrics declares the Prometheus collectors for gmpaudit.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Export outcome labels.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusFailure = "failure"
)

var (
	// ReportExportsTotal counts report exports by outcome.
	ReportExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmpaudit_report_exports_total",
			Help: "Total number of audit report exports",
		},
		[]string{"status"},
	)

	// ReportExportDuration observes report export latency.
	ReportExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gmpaudit_report_export_duration_seconds",
			Help:    "Duration of audit report exports in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"format"},
	)

	// ReportPages observes the page count of successful exports.
	ReportPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gmpaudit_report_pages",
			Help:    "Number of pages in generated audit reports",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	// FormSavesTotal counts form persistence attempts by outcome.
	FormSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmpaudit_form_saves_total",
			Help: "Total number of form saves",
		},
		[]string{"backend", "status"},
	)

	// PhotosProcessedTotal counts processed photo uploads by outcome.
	PhotosProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmpaudit_photos_processed_total",
			Help: "Total number of processed photo uploads",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal counts HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmpaudit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gmpaudit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// WebSocketClients tracks connected websocket clients.
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gmpaudit_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)

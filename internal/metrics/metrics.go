// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Discovery cycle timing and outcomes
// - Browser extraction per tracked account
// - Deduplication store query performance (DuckDB)
// - Fanout delivery per sink
// - WebSocket connections
// - API endpoint latency and throughput

var (
	// Discovery Cycle Metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_cycles_total",
			Help: "Total number of discovery cycles",
		},
		[]string{"result"}, // "ok", "aborted"
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_cycle_duration_seconds",
			Help:    "Duration of full discovery cycles in seconds",
			Buckets: []float64{5, 10, 30, 60, 120, 300, 600}, // Cycles visit accounts sequentially
		},
	)

	PostsDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_posts_discovered_total",
			Help: "Total number of previously-unseen posts confirmed by the store",
		},
		[]string{"handle"},
	)

	// Extraction Metrics
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_extraction_duration_seconds",
			Help:    "Duration of single-account browser extractions in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 60},
		},
		[]string{"handle"},
	)

	ExtractionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_extraction_errors_total",
			Help: "Total number of failed single-account extractions",
		},
		[]string{"handle", "error_type"}, // "timeout", "timeline_missing", "browser"
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Fanout Metrics
	FanoutDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_deliveries_total",
			Help: "Total number of sink delivery attempts",
		},
		[]string{"sink", "result"}, // result: "ok", "error"
	)

	// WebSocket Metrics
	WSConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connected_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordDBQuery records query duration and any error for an operation.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordExtraction records one single-account extraction attempt.
func RecordExtraction(handle string, duration time.Duration, errType string) {
	ExtractionDuration.WithLabelValues(handle).Observe(duration.Seconds())
	if errType != "" {
		ExtractionErrors.WithLabelValues(handle, errType).Inc()
	}
}

// RecordCycle records a completed discovery cycle.
func RecordCycle(duration time.Duration, aborted bool) {
	CycleDuration.Observe(duration.Seconds())
	result := "ok"
	if aborted {
		result = "aborted"
	}
	CyclesTotal.WithLabelValues(result).Inc()
}

// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package metrics exposes Prometheus instrumentation for the pipeline:
// per-stage run outcomes and durations, trusted-table row gauges, and HTTP
// request counters.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageRunsTotal counts stage executions by outcome.
	StageRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigline_stage_runs_total",
			Help: "Total pipeline stage executions",
		},
		[]string{"stage", "status"}, // status: "success" | "error"
	)

	// StageDuration observes wall-clock stage durations.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gigline_stage_duration_seconds",
			Help:    "Duration of pipeline stage executions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// TrustedRows tracks the current row count of each trusted table.
	TrustedRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gigline_trusted_rows",
			Help: "Current row count per trusted table",
		},
		[]string{"source"},
	)

	// SnapshotsSkipped counts snapshots skipped for unrecognized naming or
	// mismatched schemas.
	SnapshotsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigline_snapshots_skipped_total",
			Help: "Snapshot files skipped by a pipeline stage",
		},
		[]string{"stage"},
	)

	// HTTPRequestsTotal counts API requests by path and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigline_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	// HTTPRequestDuration observes API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gigline_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

// ObserveStage records one stage execution.
func ObserveStage(stage string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StageRunsTotal.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one API request.
func ObserveHTTP(path, method string, status int, start time.Time) {
	HTTPRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
}

// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

// Package metrics exposes Prometheus instrumentation for the extraction
// and synchronization pipeline. All collectors are registered on the
// default registry via promauto and served by the operational HTTP
// listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal counts upstream API calls by endpoint and
	// outcome (ok, retry, not_found, unauthorized, exhausted, error).
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skooldata",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	// UpstreamRequestDuration observes per-attempt request latency.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skooldata",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream API request latency per attempt.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// UpstreamRetriesTotal counts transient failures that triggered a
	// backoff sleep and another attempt.
	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skooldata",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Retry attempts after transient upstream failures.",
		},
		[]string{"endpoint"},
	)

	// BuildRefreshesTotal counts build identifier refreshes triggered by
	// stale-build 404 responses.
	BuildRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "skooldata",
			Subsystem: "upstream",
			Name:      "build_refreshes_total",
			Help:      "Build identifier refreshes after stale-build responses.",
		},
	)

	// CircuitBreakerState exports the breaker state per upstream host
	// (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "skooldata",
			Subsystem: "upstream",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"host"},
	)

	// SyncItemsTotal counts synchronization writes by community and kind
	// (member_upserted, member_churned, member_reactivated, like_inserted,
	// status_assigned, tag_assigned).
	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skooldata",
			Subsystem: "sync",
			Name:      "items_total",
			Help:      "Synchronization writes by community and kind.",
		},
		[]string{"community", "kind"},
	)

	// SyncFailuresTotal counts per-item terminal-fatal skips (malformed
	// payloads, failed batches) that did not abort the surrounding run.
	SyncFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skooldata",
			Subsystem: "sync",
			Name:      "failures_total",
			Help:      "Items skipped or batches failed during synchronization.",
		},
		[]string{"community", "kind"},
	)

	// SyncDuration observes full per-community sync runs.
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skooldata",
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Wall time of a full per-community sync run.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"community"},
	)

	// CommunityMRR exports the most recently computed monthly recurring
	// revenue per community.
	CommunityMRR = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "skooldata",
			Subsystem: "revenue",
			Name:      "mrr",
			Help:      "Monthly recurring revenue per community.",
		},
		[]string{"community"},
	)

	// CommunityChurnRate exports the most recently computed trailing
	// 30-day churn rate per community.
	CommunityChurnRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "skooldata",
			Subsystem: "revenue",
			Name:      "churn_rate_30d",
			Help:      "Trailing 30-day churn rate per community.",
		},
		[]string{"community"},
	)
)

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the answers
// service. Metrics are exposed at /metrics; all operations are thread-safe
// via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "aleutian"
	answersSubsystem = "answers"
)

// Metrics holds all Prometheus metrics for the answers service.
// Initialize once at startup; Default is the process-wide instance.
type Metrics struct {
	// ChatRequestsTotal counts chat turns by outcome.
	// Labels: status (success, invalid_input, generation_failed, error)
	ChatRequestsTotal *prometheus.CounterVec

	// GenerationDurationSeconds measures LLM generation latency.
	// Labels: status (success, error)
	GenerationDurationSeconds *prometheus.HistogramVec

	// RetrievalFallbacksTotal counts turns where ranked search came back
	// empty and the substring fallback produced the context.
	RetrievalFallbacksTotal prometheus.Counter

	// RetrievalUnavailableTotal counts turns that degraded to empty
	// context because the document store was unreachable.
	RetrievalUnavailableTotal prometheus.Counter

	// AnalyticsRecordFailuresTotal counts swallowed query-log failures.
	AnalyticsRecordFailuresTotal prometheus.Counter

	// SessionsEvictedTotal counts sessions removed by the size cap or
	// the idle sweeper (explicit clears are not evictions).
	SessionsEvictedTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: answersSubsystem,
			Name:      "chat_requests_total",
			Help:      "Total chat turns processed, by outcome.",
		}, []string{"status"}),
		GenerationDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: answersSubsystem,
			Name:      "generation_duration_seconds",
			Help:      "LLM generation latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"status"}),
		RetrievalFallbacksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: answersSubsystem,
			Name:      "retrieval_fallbacks_total",
			Help:      "Turns answered from substring-fallback retrieval.",
		}),
		RetrievalUnavailableTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: answersSubsystem,
			Name:      "retrieval_unavailable_total",
			Help:      "Turns that degraded to empty context on store failure.",
		}),
		AnalyticsRecordFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: answersSubsystem,
			Name:      "analytics_record_failures_total",
			Help:      "Query-log record failures that were swallowed.",
		}),
		SessionsEvictedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: answersSubsystem,
			Name:      "sessions_evicted_total",
			Help:      "Sessions evicted by the size cap or idle sweeper.",
		}),
	}
}

// Default is the singleton Metrics instance registered against the
// default Prometheus registry.
var Default = NewMetrics(prometheus.DefaultRegisterer)

// RegisterSessionGauge exposes a live session count gauge backed by the
// provided function. Called once from main after the store exists.
func RegisterSessionGauge(count func() float64) {
	promauto.With(prometheus.DefaultRegisterer).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: answersSubsystem,
		Name:      "active_sessions",
		Help:      "Number of sessions currently held in memory.",
	}, count)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the orchestrator.
//
// # Description
//
// Metrics cover both pipelines:
//   - Request counters by endpoint and status
//   - Guardrail refusal and normalization counters
//   - Plan outcomes (accepted, rejected, parse errors)
//   - Execution outcomes and latency
//   - Generation latency by backend
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "plambo"

// PipelineMetrics holds the Prometheus metrics for the answering and
// analytical pipelines. Initialize once at startup via InitMetrics().
type PipelineMetrics struct {
	// RequestsTotal counts requests by endpoint and terminal status.
	// Labels: endpoint (query, analytics_query, insights), status
	RequestsTotal *prometheus.CounterVec

	// RefusalsTotal counts guardrail refusals by reason.
	// Labels: reason (no_context, not_found_normalized, generation_failure)
	RefusalsTotal *prometheus.CounterVec

	// RetrievedFragments observes how many fragments survive the relevance
	// threshold per query. Labels: tenant
	RetrievedFragments *prometheus.HistogramVec

	// PlanOutcomesTotal counts compiler/validator outcomes.
	// Labels: outcome (accepted, rejected, parse_error)
	PlanOutcomesTotal *prometheus.CounterVec

	// ExecutionsTotal counts statement executions by outcome.
	// Labels: status (success, no_data, error)
	ExecutionsTotal *prometheus.CounterVec

	// ExecutionSeconds measures statement execution latency.
	ExecutionSeconds prometheus.Histogram

	// GenerationSeconds measures generation backend latency.
	// Labels: purpose (answer, plan, insights)
	GenerationSeconds *prometheus.HistogramVec
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

var initOnce sync.Once

// InitMetrics creates and registers all Prometheus metrics. Safe to call
// more than once; registration happens only on the first call.
func InitMetrics() *PipelineMetrics {
	initOnce.Do(registerMetrics)
	return DefaultMetrics
}

func registerMetrics() {
	m := &PipelineMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Requests by endpoint and terminal status.",
		}, []string{"endpoint", "status"}),

		RefusalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refusals_total",
			Help:      "Guardrail refusals by reason.",
		}, []string{"reason"}),

		RetrievedFragments: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "retrieved_fragments",
			Help:      "Fragments surviving the relevance threshold per query.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		}, []string{"tenant"}),

		PlanOutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "plan_outcomes_total",
			Help:      "Query plan outcomes after validation.",
		}, []string{"outcome"}),

		ExecutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "executions_total",
			Help:      "Statement executions by outcome.",
		}, []string{"status"}),

		ExecutionSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "execution_seconds",
			Help:      "Statement execution latency.",
			Buckets:   prometheus.DefBuckets,
		}),

		GenerationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_seconds",
			Help:      "Generation backend latency by purpose.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 500},
		}, []string{"purpose"}),
	}
	DefaultMetrics = m
}

// RecordRequest increments the request counter if metrics are initialized.
func RecordRequest(endpoint, status string) {
	if DefaultMetrics != nil {
		DefaultMetrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	}
}

// RecordRefusal increments the refusal counter if metrics are initialized.
func RecordRefusal(reason string) {
	if DefaultMetrics != nil {
		DefaultMetrics.RefusalsTotal.WithLabelValues(reason).Inc()
	}
}

// RecordRetrieval observes the retrieval result count for a tenant.
func RecordRetrieval(tenant string, fragments int) {
	if DefaultMetrics != nil {
		DefaultMetrics.RetrievedFragments.WithLabelValues(tenant).Observe(float64(fragments))
	}
}

// RecordPlanOutcome increments the plan outcome counter.
func RecordPlanOutcome(outcome string) {
	if DefaultMetrics != nil {
		DefaultMetrics.PlanOutcomesTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordExecution records an execution outcome and its latency in seconds.
func RecordExecution(status string, seconds float64) {
	if DefaultMetrics != nil {
		DefaultMetrics.ExecutionsTotal.WithLabelValues(status).Inc()
		DefaultMetrics.ExecutionSeconds.Observe(seconds)
	}
}

// RecordGeneration records generation latency for one purpose.
func RecordGeneration(purpose string, seconds float64) {
	if DefaultMetrics != nil {
		DefaultMetrics.GenerationSeconds.WithLabelValues(purpose).Observe(seconds)
	}
}

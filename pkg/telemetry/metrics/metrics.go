// Package metrics exposes prometheus instrumentation for the policy
// pipeline: catalog discovery, engine invocations and bundle
// evaluations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Catalog metrics
	catalogLoadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "themis_catalog_loads_total",
		Help: "Total number of catalog discovery passes",
	})

	catalogModulesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "themis_catalog_modules",
		Help: "Number of modules in the most recently loaded catalog",
	})

	catalogParseFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "themis_catalog_parse_failures_total",
		Help: "Total number of rule files skipped as malformed during discovery",
	})

	catalogLoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "themis_catalog_load_duration_seconds",
		Help:    "Duration of catalog discovery passes",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// Engine metrics
	engineInvocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "themis_engine_invocations_total",
		Help: "Total number of decision engine invocations by status",
	}, []string{"status"})

	engineInvocationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "themis_engine_invocation_duration_seconds",
		Help:    "Duration of decision engine invocations",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})

	// Evaluation metrics
	evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "themis_policy_evaluations_total",
		Help: "Total number of per-module policy evaluations by outcome",
	}, []string{"outcome"})

	bundleEvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "themis_bundle_evaluation_duration_seconds",
		Help:    "Duration of full bundle evaluations",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(
		catalogLoadsTotal,
		catalogModulesGauge,
		catalogParseFailuresTotal,
		catalogLoadDuration,
		engineInvocationsTotal,
		engineInvocationDuration,
		evaluationsTotal,
		bundleEvaluationDuration,
	)
}

// RecordCatalogLoad records one catalog discovery pass.
func RecordCatalogLoad(modules, skipped int, durationSeconds float64) {
	catalogLoadsTotal.Inc()
	catalogModulesGauge.Set(float64(modules))
	catalogParseFailuresTotal.Add(float64(skipped))
	catalogLoadDuration.Observe(durationSeconds)
}

// RecordEngineInvocation records one decision engine invocation.
// status is "success", "error" or "timeout".
func RecordEngineInvocation(status string, durationSeconds float64) {
	engineInvocationsTotal.WithLabelValues(status).Inc()
	engineInvocationDuration.Observe(durationSeconds)
}

// RecordEvaluation records one per-module evaluation outcome.
// outcome is "compliant", "non_compliant", "placeholder" or "error".
func RecordEvaluation(outcome string) {
	evaluationsTotal.WithLabelValues(outcome).Inc()
}

// RecordBundleEvaluation records the duration of a full bundle
// evaluation.
func RecordBundleEvaluation(durationSeconds float64) {
	bundleEvaluationDuration.Observe(durationSeconds)
}

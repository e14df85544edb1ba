package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TestsTotal counts completed tests by result.
	TestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "havoc_tests_total",
			Help: "Total number of tests completed",
		},
		[]string{"result"},
	)

	// AttemptsTotal counts operation invocations across all tests.
	AttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "havoc_attempts_total",
			Help: "Total number of operation invocation attempts",
		},
	)

	// ChaosInjections counts injected failures per operation and class.
	ChaosInjections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "havoc_chaos_injections_total",
			Help: "Total number of injected failures",
		},
		[]string{"operation", "class"},
	)

	// PolicyDecisions counts retry verdicts by deciding policy and action.
	PolicyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "havoc_policy_decisions_total",
			Help: "Total number of retry decisions",
		},
		[]string{"decided_by", "action"},
	)

	// ReasonerFallbacks counts decisions recovered by the heuristic after
	// a reasoner failure.
	ReasonerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "havoc_reasoner_fallbacks_total",
			Help: "Total number of reasoner failures recovered by heuristic fallback",
		},
	)

	// BackoffSeconds observes applied backoff delays.
	BackoffSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "havoc_backoff_seconds",
			Help:    "Backoff delay applied between attempts in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// SuiteDuration observes wall-clock duration of suite runs.
	SuiteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "havoc_suite_duration_seconds",
			Help:    "Duration of complete suite runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)
)

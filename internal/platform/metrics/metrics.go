package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_queries_total",
			Help: "Total number of queries by detected intent",
		},
		[]string{"intent"},
	)

	PlanFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_plan_fallbacks_total",
			Help: "Total number of plans produced by the keyword fallback planner",
		},
		[]string{"reason"},
	)

	PlanValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_plan_validation_failures_total",
			Help: "Total number of analytics plans rejected by the allowlists",
		},
	)

	PlanCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_plan_cache_lookups_total",
			Help: "Plan cache lookups by result",
		},
		[]string{"result"},
	)

	AgentRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_agent_runs_total",
			Help: "Total number of domain agent runs by outcome",
		},
		[]string{"domain", "outcome"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_agent_duration_seconds",
			Help:    "Domain agent run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"domain"},
	)
)

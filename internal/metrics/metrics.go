package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Orchestrator metrics for production monitoring
var (
	// Remediation metrics
	RemediationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridwatch_orchestrator_remediations_total",
			Help: "Total number of remediation runs triggered",
		},
		[]string{"result"}, // success / error
	)

	RemediationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridwatch_orchestrator_remediation_duration_seconds",
			Help:    "End-to-end remediation run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
	)

	ConversationRecoveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridwatch_orchestrator_conversation_recoveries_total",
			Help: "Total number of stale-conversation recovery cycles performed",
		},
	)

	// Catalog metrics
	CatalogFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridwatch_orchestrator_catalog_fetches_total",
			Help: "Total number of catalog fetches against the upstream",
		},
		[]string{"result"}, // success / error / empty
	)

	CatalogCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridwatch_orchestrator_catalog_cache_hits_total",
			Help: "Total number of catalog reads served from the TTL cache",
		},
	)

	// Resolution metrics
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridwatch_orchestrator_resolutions_total",
			Help: "Total number of canonical system id resolutions",
		},
		[]string{"method"}, // exact / alias / positional / not_found
	)

	// Agent call metrics
	AgentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridwatch_orchestrator_agent_requests_total",
			Help: "Total number of A2A requests sent to the agent runtime",
		},
		[]string{"method", "status"},
	)

	AgentRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridwatch_orchestrator_agent_request_duration_seconds",
			Help:    "A2A request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"method"},
	)

	// Session metrics
	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridwatch_orchestrator_session_transitions_total",
			Help: "Total number of session state machine transitions applied",
		},
		[]string{"action"},
	)
)

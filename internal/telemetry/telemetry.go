// Package telemetry defines the service's prometheus collectors. They are
// registered on the default registry and exposed through /metrics on the
// API server.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsTotal counts streaming fact-check sessions by terminal
	// outcome (completed, interrupted, transport_error, timeout,
	// cancelled, empty_input).
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factlens_sessions_total",
		Help: "Streaming fact-check sessions by terminal outcome",
	}, []string{"outcome"})

	// CacheLookupsTotal counts result-cache lookups by tier outcome
	// (memory_hit, store_hit, miss).
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factlens_cache_lookups_total",
		Help: "Result cache lookups by tier outcome",
	}, []string{"result"})

	// CacheEvictionsTotal counts entries removed by the eviction policy.
	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factlens_cache_evictions_total",
		Help: "Cache entries removed by oldest-first eviction",
	})

	// PartialUpdatesTotal counts streamed partial-text callbacks delivered
	// to the host surface.
	PartialUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factlens_partial_updates_total",
		Help: "Partial analysis updates delivered to callers",
	})

	// VerdictsTotal counts completed checks by classified verdict.
	VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factlens_verdicts_total",
		Help: "Completed checks by classified verdict",
	}, []string{"verdict"})
)

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anidex_interactions_total",
			Help: "Inbound interactions by kind and decoded action",
		},
		[]string{"kind", "action"},
	)

	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anidex_catalog_requests_total",
			Help: "Catalog API calls by endpoint and outcome (ok, empty, unavailable)",
		},
		[]string{"endpoint", "outcome"},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anidex_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by entity kind and result (hit, miss)",
		},
		[]string{"kind", "result"},
	)

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anidex_external_call_duration_seconds",
			Help:    "Latency of calls to external collaborators",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"collaborator"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "anidex_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	AchievementsGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anidex_achievements_granted_total",
			Help: "Achievements granted by kind",
		},
		[]string{"kind"},
	)

	TranslationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anidex_translation_fallbacks_total",
			Help: "Renders that fell back to untranslated text",
		},
	)

	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anidex_enrichment_lookups_total",
			Help: "Enrichment lookups by outcome (cached, found, no_match, error)",
		},
		[]string{"outcome"},
	)

	StaleReferences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anidex_stale_references_total",
			Help: "Navigation identifiers that pointed at expired or out-of-range session data",
		},
	)
)

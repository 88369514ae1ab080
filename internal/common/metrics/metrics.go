package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_recommendations_served_total",
			Help: "Total recommendations delivered, by generation path",
		},
		[]string{"path"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "engine_recommendation_duration_seconds",
			Help: "Duration of recommendation request processing in seconds",
		},
		[]string{"status"},
	)

	LlmAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_llm_attempts_total",
			Help: "Total LLM call attempts, by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_llm_cache_lookups_total",
			Help: "LLM response cache lookups, by result",
		},
		[]string{"result"},
	)

	AIResourcesActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_ai_resources_active",
			Help: "AI-generated resources currently stored, per skill",
		},
		[]string{"skill_id"},
	)
)

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal counts processed conversation turns by intent and outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of processed conversation turns",
		},
		[]string{"intent", "status"},
	)

	// TurnDuration measures end-to-end turn duration.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Turn processing duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"intent"},
	)

	// VectorSearchDuration measures similarity search duration.
	VectorSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vector_search_duration_seconds",
			Help:    "Vector index search duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"},
	)

	// RetrievedChunks observes how many chunks cleared the similarity threshold.
	RetrievedChunks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrieved_chunks_per_query",
			Help:    "Number of chunks above threshold per retrieval",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		},
	)

	// IntentTotal counts classified intents.
	IntentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_classified_total",
			Help: "Total classified intents by label",
		},
		[]string{"intent"},
	)

	// IntentFallbacks counts classifications that fell back to document_query.
	IntentFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intent_fallback_total",
			Help: "Intent classifications that fell back to the document_query default",
		},
	)

	// SummariesTotal counts background summarization outcomes.
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_summaries_total",
			Help: "Background summarization attempts by outcome",
		},
		[]string{"status"},
	)

	// ChunkCacheHits counts retrieval cache hits and misses.
	ChunkCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunk_cache_requests_total",
			Help: "Retrieval cache lookups by result",
		},
		[]string{"result"},
	)

	// LLMRequestDuration measures model gateway call duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Model gateway request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
)

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip stages reported by IncrementSkipped.
const (
	StageExtractTable   = "extract_table"
	StageSampleTable    = "sample_table"
	StageForeignKey     = "foreign_key"
	StageHistoryTurn    = "history_turn"
	StageCorruptedCache = "cache_entry"
)

// Cache lookup results reported by ObserveCacheLookup.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheForced     = "forced"
	CacheResample   = "resample"
	CacheWriteError = "write_error"
)

var (
	skippedItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_skipped_items_total",
			Help: "Items dropped without failing the request, by pipeline stage.",
		},
		[]string{"stage"},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_schema_cache_lookups_total",
			Help: "Schema cache lookups by result.",
		},
		[]string{"result"},
	)

	schemaExtractionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlsql_schema_extraction_duration_seconds",
			Help:    "Schema extraction latency by database type.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"db_type"},
	)

	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_translations_total",
			Help: "Translation requests by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	providerLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlsql_provider_request_duration_seconds",
			Help:    "AI provider request latency by provider and call kind (probe, completion).",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "kind"},
	)
)

func init() {
	prometheus.MustRegister(
		skippedItemsTotal,
		cacheLookupsTotal,
		schemaExtractionDurationSeconds,
		translationsTotal,
		providerLatencySeconds,
	)
}

func IncrementSkipped(stage string, n int) {
	if n <= 0 {
		return
	}
	skippedItemsTotal.WithLabelValues(stage).Add(float64(n))
}

func ObserveCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

func ObserveSchemaExtraction(dbType string, elapsed time.Duration) {
	schemaExtractionDurationSeconds.WithLabelValues(dbType).Observe(elapsed.Seconds())
}

func ObserveTranslation(provider, outcome string) {
	translationsTotal.WithLabelValues(provider, outcome).Inc()
}

func ObserveProviderRequest(provider, kind string, elapsed time.Duration) {
	providerLatencySeconds.WithLabelValues(provider, kind).Observe(elapsed.Seconds())
}

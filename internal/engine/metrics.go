package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	LLMCalls          atomic.Int64
	LLMErrors         atomic.Int64
	EmbedCalls        atomic.Int64
	EmbedErrors       atomic.Int64
	AggregateRuns     atomic.Int64
	AggregateErrors   atomic.Int64
	SimilarityRuns    atomic.Int64
	SimilarityErrors  atomic.Int64
	RerankFallbacks   atomic.Int64
	ScheduledFirings  atomic.Int64
	ReentrancySkips   atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"llm_calls":         metrics.LLMCalls.Load(),
		"llm_errors":        metrics.LLMErrors.Load(),
		"embed_calls":       metrics.EmbedCalls.Load(),
		"embed_errors":      metrics.EmbedErrors.Load(),
		"aggregate_runs":    metrics.AggregateRuns.Load(),
		"aggregate_errors":  metrics.AggregateErrors.Load(),
		"similarity_runs":   metrics.SimilarityRuns.Load(),
		"similarity_errors": metrics.SimilarityErrors.Load(),
		"rerank_fallbacks":  metrics.RerankFallbacks.Load(),
		"scheduled_firings": metrics.ScheduledFirings.Load(),
		"reentrancy_skips":  metrics.ReentrancySkips.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"llm_calls", "llm_errors",
		"embed_calls", "embed_errors",
		"aggregate_runs", "aggregate_errors",
		"similarity_runs", "similarity_errors",
		"rerank_fallbacks",
		"scheduled_firings", "reentrancy_skips",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for this package and the trend/ sub-package.
func IncrLLMCalls()         { metrics.LLMCalls.Add(1) }
func IncrLLMErrors()        { metrics.LLMErrors.Add(1) }
func IncrEmbedCalls()       { metrics.EmbedCalls.Add(1) }
func IncrEmbedErrors()      { metrics.EmbedErrors.Add(1) }
func IncrAggregateRuns()    { metrics.AggregateRuns.Add(1) }
func IncrAggregateErrors()  { metrics.AggregateErrors.Add(1) }
func IncrSimilarityRuns()   { metrics.SimilarityRuns.Add(1) }
func IncrSimilarityErrors() { metrics.SimilarityErrors.Add(1) }
func IncrRerankFallbacks()  { metrics.RerankFallbacks.Add(1) }
func IncrScheduledFirings() { metrics.ScheduledFirings.Add(1) }
func IncrReentrancySkips()  { metrics.ReentrancySkips.Add(1) }

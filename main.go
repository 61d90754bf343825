// go_career is a skill-trend aggregation & candidate-ranking MCP server.
//
// Aggregates a posting corpus into daily skill-frequency statistics per job
// role, recomputes profile-to-posting embedding similarity, re-ranks with a
// generative model, and analyzes skill gaps. A daily batch scheduler drives
// the whole pipeline; MCP tools expose queries and manual triggers.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_career/internal/careerserver"
	"github.com/anatolykoptev/go_career/internal/engine"
	"github.com/anatolykoptev/go_career/internal/engine/trend"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	if err := initEngine(); err != nil {
		slog.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting go_career",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_career",
		Version: version,
	}, nil)

	careerserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 13))

	trend.GetScheduler().Start()

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_career",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() error {
	c := engine.Config{
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://openrouter.ai/api/v1"),
		LLMModel:             env.Str("LLM_MODEL", "google/gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 8192),
		EmbedURL:             env.Str("EMBED_URL", "http://127.0.0.1:8895"),
		EmbedServiceSecret:   env.Str("INTERNAL_SERVICE_SECRET", ""),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		CorpusPath:           env.Str("CORPUS_PATH", "corpus.db"),
		StatsTimezone:        env.Str("STATS_TIMEZONE", "Asia/Seoul"),
		ScheduleHour:         env.Int("SCHEDULE_HOUR", 8),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)

	engine.Init(c)

	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		slog.Warn("invalid STATS_TIMEZONE, using UTC", slog.String("tz", c.StatsTimezone), slog.Any("error", err))
		loc = time.UTC
	}
	trend.SetStatsLocation(loc)

	ctx := context.Background()

	db, err := trend.ConnectTrendDB(ctx, c.DatabaseURL)
	if err != nil {
		return err
	}
	trend.SetTrendDB(db)

	corpus, err := trend.OpenCorpus(c.CorpusPath)
	if err != nil {
		return err
	}
	trend.SetCorpus(corpus)

	embed := trend.NewEmbedClient(c.EmbedURL, c.EmbedServiceSecret)

	aggregator := trend.NewAggregator(db, corpus)
	ranker := trend.NewRanker(db, corpus, embed)
	trend.SetAggregator(aggregator)
	trend.SetRanker(ranker)
	trend.SetReranker(trend.NewReranker())
	trend.SetGapAnalyzer(trend.NewGapAnalyzer(db))

	sched, err := trend.NewScheduler(aggregator, ranker, loc, c.ScheduleHour)
	if err != nil {
		return err
	}
	trend.SetScheduler(sched)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	return nil
}

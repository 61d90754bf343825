package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int

	EmbedURL           string // embedding service base URL
	EmbedServiceSecret string // internal auth header, empty = unauthenticated

	DatabaseURL string // Postgres trend store
	CorpusPath  string // SQLite posting-corpus snapshot

	StatsTimezone string // IANA name for "current week" and as-of dates
	ScheduleHour  int    // daily batch fire hour in StatsTimezone

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
	LLMClient  *llm.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}

// Package config loads the scanner's configuration surface from the
// environment with typed getters and defaults, following the same pattern
// the rest of this codebase uses for its ambient concerns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full configuration surface for a scan.
type Config struct {
	// Application
	LogLevel string
	HTTPAddr string

	// Venue API
	GammaBaseURL  string
	CLOBBaseURL   string
	EventsBaseURL string

	// scan.*
	ScanTags             []string
	ScanMarketLimit      int
	ScanMinLiquidityUSD  float64
	ScanMinProfitPct     float64
	ScanMinAPY           float64
	ScanSimilarityThresh float64
	ScanMaxLLMCalls      int
	ScanPlanMaxAgeSec    int
	ScanTargetNotionalUSD float64
	ScanMinDepthUSD       float64
	ScanTimeToleranceSec  int

	// concurrency.*
	NSource int
	NEmbed  int
	NLLM    int
	NBook   int
	BEmbed  int

	// rate.*
	RequestsPerSecond float64

	// thresholds.*
	ThresholdMono       float64
	ThresholdImpl       float64
	ThresholdEquiv      float64
	ThresholdExhaustive float64

	// strategies.enabled
	StrategiesEnabled map[string]bool

	// Market discovery fetch-cap interaction (spec.md §9)
	EnableFullFetch bool
	FetchMaxPerTag  int

	// Retry / timeouts
	CatalogTimeout   time.Duration
	LLMTimeout       time.Duration
	OrderBookTimeout time.Duration
	MaxRetries       int

	// llm.*
	LLMAPIKeyEnv      string
	LLMModel          string
	LLMEmbeddingModel string

	// storage.*
	StorageDSN string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8080"),

		GammaBaseURL:  getEnvOrDefault("GAMMA_BASE_URL", "https://gamma-api.polymarket.com"),
		CLOBBaseURL:   getEnvOrDefault("CLOB_BASE_URL", "https://clob.polymarket.com"),
		EventsBaseURL: getEnvOrDefault("EVENTS_BASE_URL", "https://gamma-api.polymarket.com/events"),

		ScanTags:              getStringSliceOrDefault("SCAN_TAGS", nil),
		ScanMarketLimit:       getIntOrDefault("SCAN_MARKET_LIMIT", 1000),
		ScanMinLiquidityUSD:   getFloat64OrDefault("SCAN_MIN_LIQUIDITY_USD", 10000),
		ScanMinProfitPct:      getFloat64OrDefault("SCAN_MIN_PROFIT_PCT", 0.005),
		ScanMinAPY:            getFloat64OrDefault("SCAN_MIN_APY", 0.15),
		ScanSimilarityThresh:  getFloat64OrDefault("SCAN_SIMILARITY_THRESHOLD", 0.86),
		ScanMaxLLMCalls:       getIntOrDefault("SCAN_MAX_LLM_CALLS", 200),
		ScanPlanMaxAgeSec:     getIntOrDefault("SCAN_PLAN_MAX_AGE_SECONDS", 60),
		ScanTargetNotionalUSD: getFloat64OrDefault("SCAN_TARGET_NOTIONAL_USD", 500),
		ScanMinDepthUSD:       getFloat64OrDefault("SCAN_MIN_DEPTH_USD", 10000),
		ScanTimeToleranceSec:  getIntOrDefault("SCAN_TIME_TOLERANCE_SECONDS", 86400),

		NSource: getIntOrDefault("CONCURRENCY_N_SOURCE", 4),
		NEmbed:  getIntOrDefault("CONCURRENCY_N_EMBED", 4),
		NLLM:    getIntOrDefault("CONCURRENCY_N_LLM", 3),
		NBook:   getIntOrDefault("CONCURRENCY_N_BOOK", 8),
		BEmbed:  getIntOrDefault("CONCURRENCY_B_EMBED", 32),

		RequestsPerSecond: getFloat64OrDefault("RATE_REQUESTS_PER_SECOND", 10),

		ThresholdMono:       getFloat64OrDefault("THRESHOLDS_MONO", 0.01),
		ThresholdImpl:       getFloat64OrDefault("THRESHOLDS_IMPL", 0.90),
		ThresholdEquiv:      getFloat64OrDefault("THRESHOLDS_EQUIV", 0.90),
		ThresholdExhaustive: getFloat64OrDefault("THRESHOLDS_EXHAUSTIVE", 0.85),

		StrategiesEnabled: getEnabledSetOrDefault("STRATEGIES_ENABLED",
			[]string{"MONOTONICITY", "INTERVAL", "EXHAUSTIVE", "IMPLICATION", "EQUIVALENT", "TEMPORAL"}),

		EnableFullFetch: getBoolOrDefault("ENABLE_FULL_FETCH", false),
		FetchMaxPerTag:  getIntOrDefault("FETCH_MAX_PER_TAG", 1000),

		CatalogTimeout:   getDurationOrDefault("CATALOG_TIMEOUT", 10*time.Second),
		LLMTimeout:       getDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		OrderBookTimeout: getDurationOrDefault("ORDER_BOOK_TIMEOUT", 5*time.Second),
		MaxRetries:       getIntOrDefault("MAX_RETRIES", 3),

		LLMAPIKeyEnv:      getEnvOrDefault("LLM_API_KEY_ENV", "GEMINI_API_KEY"),
		LLMModel:          getEnvOrDefault("LLM_MODEL", "gemini-2.0-flash"),
		LLMEmbeddingModel: getEnvOrDefault("LLM_EMBEDDING_MODEL", "text-embedding-004"),

		StorageDSN: os.Getenv("STORAGE_DSN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are internally consistent.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR cannot be empty")
	}
	if c.GammaBaseURL == "" {
		return errors.New("GAMMA_BASE_URL cannot be empty")
	}

	if c.ScanMinProfitPct < 0 {
		return fmt.Errorf("SCAN_MIN_PROFIT_PCT must be non-negative, got %f", c.ScanMinProfitPct)
	}
	if c.ScanMinAPY < 0 {
		return fmt.Errorf("SCAN_MIN_APY must be non-negative, got %f", c.ScanMinAPY)
	}
	if c.ScanSimilarityThresh <= 0 || c.ScanSimilarityThresh > 1 {
		return fmt.Errorf("SCAN_SIMILARITY_THRESHOLD must be in (0, 1], got %f", c.ScanSimilarityThresh)
	}
	if c.ScanMaxLLMCalls < 0 {
		return fmt.Errorf("SCAN_MAX_LLM_CALLS must be non-negative, got %d", c.ScanMaxLLMCalls)
	}
	if c.ScanPlanMaxAgeSec <= 0 {
		return fmt.Errorf("SCAN_PLAN_MAX_AGE_SECONDS must be positive, got %d", c.ScanPlanMaxAgeSec)
	}
	if c.ScanTargetNotionalUSD <= 0 {
		return fmt.Errorf("SCAN_TARGET_NOTIONAL_USD must be positive, got %f", c.ScanTargetNotionalUSD)
	}
	if c.ScanMinDepthUSD < 0 {
		return fmt.Errorf("SCAN_MIN_DEPTH_USD must be non-negative, got %f", c.ScanMinDepthUSD)
	}

	if c.NSource < 1 || c.NEmbed < 1 || c.NLLM < 1 || c.NBook < 1 {
		return errors.New("all concurrency pool sizes must be at least 1")
	}
	if c.BEmbed < 1 {
		return errors.New("CONCURRENCY_B_EMBED must be at least 1")
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("RATE_REQUESTS_PER_SECOND must be positive, got %f", c.RequestsPerSecond)
	}

	for _, t := range []struct {
		name string
		v    float64
	}{
		{"THRESHOLDS_MONO", c.ThresholdMono},
		{"THRESHOLDS_IMPL", c.ThresholdImpl},
		{"THRESHOLDS_EQUIV", c.ThresholdEquiv},
		{"THRESHOLDS_EXHAUSTIVE", c.ThresholdExhaustive},
	} {
		if t.v < 0 || t.v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", t.name, t.v)
		}
	}

	if c.FetchMaxPerTag < 0 {
		return fmt.Errorf("FETCH_MAX_PER_TAG must be non-negative (0 = unlimited), got %d", c.FetchMaxPerTag)
	}
	if c.ScanMarketLimit < 0 {
		return fmt.Errorf("SCAN_MARKET_LIMIT must be non-negative, got %d", c.ScanMarketLimit)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be non-negative, got %d", c.MaxRetries)
	}

	return nil
}

// FetchUnlimited reports whether the tag-paging cap should be disabled,
// resolving the enable_full_fetch / fetch_max_per_tag interaction per
// spec.md's design note: either condition alone removes the cap.
func (c *Config) FetchUnlimited() bool {
	return c.EnableFullFetch || c.FetchMaxPerTag == 0
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnabledSetOrDefault(key string, defaultValue []string) map[string]bool {
	names := getStringSliceOrDefault(key, defaultValue)
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[strings.ToUpper(n)] = true
	}
	return out
}

func getIntOrDefault(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

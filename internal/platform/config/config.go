package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errConcurrencyOutOfRange = errors.New("config: CRAWL_CONCURRENCY must be 1-100")
	errNegativeDuration      = errors.New("config: durations must not be negative")
)

// Config holds all application configuration loaded from the environment
// and an optional .env file.
type Config struct {
	Port     string
	LogLevel string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	GA4CredentialsFile string

	SEODataPath      string
	SEOCrawlURLs     []string
	CrawlConcurrency int

	RedisAddr    string
	RedisDB      int
	PlanCacheTTL time.Duration

	TracingEnabled bool
	OTLPEndpoint   string
}

// Load reads configuration with sensible defaults. Variables already set in
// the process environment win over the .env file.
func Load() (Config, error) {
	return load(".env")
}

func load(envFile string) (Config, error) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LLMBaseURL:         v.GetString("LLM_BASE_URL"),
		LLMAPIKey:          v.GetString("LLM_API_KEY"),
		LLMModel:           v.GetString("LLM_MODEL"),
		LLMTimeout:         v.GetDuration("LLM_TIMEOUT"),
		GA4CredentialsFile: v.GetString("GA4_CREDENTIALS_FILE"),
		SEODataPath:        v.GetString("SEO_DATA_PATH"),
		SEOCrawlURLs:       splitList(v.GetString("SEO_CRAWL_URLS")),
		CrawlConcurrency:   v.GetInt("CRAWL_CONCURRENCY"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisDB:            v.GetInt("REDIS_DB"),
		PlanCacheTTL:       v.GetDuration("PLAN_CACHE_TTL"),
		TracingEnabled:     v.GetBool("TRACING_ENABLED"),
		OTLPEndpoint:       v.GetString("OTLP_ENDPOINT"),
	}

	return cfg, cfg.validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "ERROR")
	v.SetDefault("LLM_TIMEOUT", 30*time.Second)
	v.SetDefault("GA4_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("SEO_DATA_PATH", "screamingfrog.csv")
	v.SetDefault("CRAWL_CONCURRENCY", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PLAN_CACHE_TTL", time.Hour)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.CrawlConcurrency < 1 || c.CrawlConcurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.CrawlConcurrency)
	}

	if c.LLMTimeout < 0 || c.PlanCacheTTL < 0 {
		return errNegativeDuration
	}

	return nil
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OpenAIConfig holds credentials for the external analysis provider.
// BaseURL is optional and allows pointing at an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Enabled reports whether the AI provider is configured. A missing API key
// is a configuration error, not a runtime AI failure, and callers must
// surface it as such.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	OpenAI OpenAIConfig
	Kafka  KafkaConfig

	SessionTTL      time.Duration // auth session token lifetime
	TestDuration    int           // test-taking window in seconds
	AnalysisTimeout time.Duration // per-call deadline for the AI provider
	AnalysisRetries int           // retries on transient AI failures
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "ai-assist.events"),
		},
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		TestDuration:    getEnvInt("TEST_DURATION_SECONDS", 3600),
		AnalysisTimeout: getEnvDuration("ANALYSIS_TIMEOUT", 60*time.Second),
		AnalysisRetries: getEnvInt("ANALYSIS_RETRIES", 2),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	// Auth tokens and test sessions live in Redis; without it every
	// authenticated request would fail.
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.TestDuration <= 0 {
		return fmt.Errorf("TEST_DURATION_SECONDS must be positive")
	}
	if c.AnalysisRetries < 0 {
		return fmt.Errorf("ANALYSIS_RETRIES cannot be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// BaseCollection is the collection name the OpenAI binding uses; the
	// Voyage binding routes to "<base>_voyage".
	BaseCollection string `envconfig:"BASE_COLLECTION" default:"relaydesk_kb"`

	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER" default:"openai"`
	EmbeddingModel    string `envconfig:"EMBEDDING_MODEL"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	VoyageAPIKey string `envconfig:"VOYAGE_API_KEY"`

	OpenRouterAPIKey   string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterSiteURL  string `envconfig:"OPENROUTER_SITE_URL"`
	OpenRouterSiteName string `envconfig:"OPENROUTER_SITE_NAME" default:"RelayDesk"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"relaydesk-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN        string  `envconfig:"SENTRY_DSN"`
	SentryEnv        string  `envconfig:"SENTRY_ENVIRONMENT"`
	SentrySampleRate float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE" default:"1.0"`

	// EmbeddingCacheSize > 0 enables the in-process query-embedding cache.
	EmbeddingCacheSize int           `envconfig:"EMBEDDING_CACHE_SIZE" default:"512"`
	EmbeddingCacheTTL  time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"10m"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`

	// WidgetKeys is a comma separated list of "key:businessID:widgetID"
	// entries. When empty the API runs without authentication.
	WidgetKeys string `envconfig:"WIDGET_KEYS"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RELAYDESK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasVoyage() bool {
	return c.VoyageAPIKey != ""
}

func (c *Config) HasOpenRouter() bool {
	return c.OpenRouterAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

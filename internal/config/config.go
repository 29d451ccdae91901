// Package config loads process configuration from the environment using
// struct tags, the same way across all three entry points (producer,
// worker, dashboard).
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config is the full set of environment-derived settings shared by
// cmd/producer, cmd/worker, and cmd/dashboard. Each binary only reads the
// fields it needs; unused fields cost nothing.
type Config struct {
	// AppEnv selects the logging/tracing posture: "dev", "staging", "prod".
	AppEnv string `env:"APP_ENV" envDefault:"dev"`

	// Coordination store.
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Identity.
	Hostname string `env:"HOSTNAME" envDefault:"worker-local"`

	// Worker pool.
	WorkerTimeoutSeconds int `env:"WORKER_TIMEOUT" envDefault:"5"`
	BatchSize            int `env:"BATCH_SIZE" envDefault:"4"`
	MaxThreads           int `env:"MAX_THREADS" envDefault:"4"`

	// Historical index data.
	ColcapDataPath string `env:"COLCAP_DATA_PATH" envDefault:"data/colcap_historico.csv"`

	// Producer pacing.
	DelayBetweenIndexesSeconds int      `env:"DELAY_BETWEEN_INDEXES" envDefault:"15"`
	DelayBetweenDomainsSeconds int      `env:"DELAY_BETWEEN_DOMAINS" envDefault:"5"`
	TargetDomains              []string `env:"TARGET_DOMAINS" envDefault:"eltiempo.com,elespectador.com,portafolio.co,larepublica.co" envSeparator:","`

	// Worker fetch pacing: politeness delay before each archive segment
	// download, independent of the producer's inter-domain pacing above.
	FetchPoliteDelaySeconds int `env:"FETCH_POLITE_DELAY" envDefault:"5"`

	// Retry policy.
	MaxRetries        int `env:"MAX_RETRIES" envDefault:"5"`
	RetryDelaySeconds int `env:"RETRY_DELAY" envDefault:"5"`

	// Dashboard.
	DashboardMaxResults int    `env:"DASHBOARD_MAX_RESULTS" envDefault:"500"`
	DashboardAddr       string `env:"DASHBOARD_ADDR" envDefault:":8080"`

	// Observability.
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"colcap-pipeline"`
	MetricsAddr     string `env:"METRICS_ADDR" envDefault:":9090"`

	// Optional NLP backend.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Optional downstream mirrors.
	PostgresDSN    string   `env:"POSTGRES_DSN" envDefault:""`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string   `env:"KAFKA_RESULTS_TOPIC" envDefault:"colcap.results"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether AppEnv is "dev".
func (c Config) IsDev() bool { return strings.EqualFold(c.AppEnv, "dev") }

// IsProd reports whether AppEnv is "prod".
func (c Config) IsProd() bool { return strings.EqualFold(c.AppEnv, "prod") }

// IsTest reports whether AppEnv is "test".
func (c Config) IsTest() bool { return strings.EqualFold(c.AppEnv, "test") }

// KafkaEnabled reports whether the optional result-stream mirror should
// be wired up.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// PostgresEnabled reports whether the optional operational-store mirror
// should be wired up.
func (c Config) PostgresEnabled() bool { return c.PostgresDSN != "" }

// OpenAIEnabled reports whether the optional LLM-backed NLP analyzer
// should be used instead of the heuristic default.
func (c Config) OpenAIEnabled() bool { return c.OpenAIAPIKey != "" }

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel     OTelConfig
	Webhook  WebhookConfig
	Hub      HubConfig
	AgentLLM AgentLLMConfig
	Pool     PoolConfig
	Ledger   LedgerConfig
	Audit    AuditConfig
	DB       DBConfig
	Env      string
	Port     string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// WebhookConfig holds the shared secret presented by the hub on every
// delivery. An empty secret rejects all webhook traffic; the gap is
// reported by /health rather than failing startup.
type WebhookConfig struct {
	Secret string
}

// HubConfig configures the upstream tag collection API.
type HubConfig struct {
	BaseURL string
	Token   string
}

type AgentLLMConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int
	MaxIterations int
}

// PoolConfig bounds the background processing capacity. QueueDepth is the
// backpressure limit: enqueue is rejected once the queue is full.
type PoolConfig struct {
	Workers    int
	QueueDepth int
}

type LedgerConfig struct {
	MaxRecords int
	WindowSize int
}

// AuditConfig configures the optional Redis stream that mirrors terminal
// operation records off-process.
type AuditConfig struct {
	RedisURL string
	Stream   string
}

type DBConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Load loads configuration from environment variables. In development a
// .env file is loaded first when present.
func Load() Config {
	if getEnv("TAGGER_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	return Config{
		Env:  getEnv("TAGGER_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "tagger"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		Hub: HubConfig{
			BaseURL: getEnv("HUB_API_URL", "https://hub.example.com/api"),
			Token:   getEnv("HUB_TOKEN", ""),
		},
		AgentLLM: AgentLLMConfig{
			APIKey:        getEnv("AGENT_LLM_API_KEY", ""),
			BaseURL:       getEnv("AGENT_LLM_BASE_URL", ""),
			Model:         getEnv("AGENT_LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:     getEnvInt("AGENT_LLM_MAX_TOKENS", 2048),
			MaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", 6),
		},
		Pool: PoolConfig{
			Workers:    getEnvInt("POOL_WORKERS", 4),
			QueueDepth: getEnvInt("POOL_QUEUE_DEPTH", 64),
		},
		Ledger: LedgerConfig{
			MaxRecords: getEnvInt("LEDGER_MAX_RECORDS", 1000),
			WindowSize: getEnvInt("LEDGER_WINDOW_SIZE", 50),
		},
		Audit: AuditConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			Stream:   getEnv("AUDIT_STREAM", "tagger_operations"),
		},
		DB: DBConfig{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c WebhookConfig) Enabled() bool {
	return c.Secret != ""
}

func (c HubConfig) Enabled() bool {
	return c.BaseURL != "" && c.Token != ""
}

func (c AgentLLMConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c AuditConfig) Enabled() bool {
	return c.RedisURL != ""
}

func (c DBConfig) Enabled() bool {
	return c.DSN != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

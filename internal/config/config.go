// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App           AppConfig           `koanf:"app"`
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Redis         RedisConfig         `koanf:"redis"`
	Identity      IdentityConfig      `koanf:"identity"`
	Billing       BillingConfig       `koanf:"billing"`
	Storage       StorageConfig       `koanf:"storage"`
	Transcription TranscriptionConfig `koanf:"transcription"`
	Generation    GenerationConfig    `koanf:"generation"`
	Downloader    DownloaderConfig    `koanf:"downloader"`
	Plans         PlansConfig         `koanf:"plans"`
	Pipeline      PipelineConfig      `koanf:"pipeline"`
	RateLimit     RateLimitConfig     `koanf:"rate_limit"`
	CORS          CORSConfig          `koanf:"cors"`
	Log           LogConfig           `koanf:"log"`
	Otel          OtelConfig          `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// IdentityConfig describes the external identity provider. Session tokens
// are verified against JWKSURL when set, otherwise against PublicKeyPath.
type IdentityConfig struct {
	JWKSURL       string `koanf:"jwks_url"`
	PublicKeyPath string `koanf:"public_key_path"`
	Issuer        string `koanf:"issuer"`
	Audience      string `koanf:"audience"`
	WebhookSecret string `koanf:"webhook_secret"`
}

type BillingConfig struct {
	StripeSecretKey     string `koanf:"stripe_secret_key"`
	StripeWebhookSecret string `koanf:"stripe_webhook_secret"`
}

type StorageConfig struct {
	SupabaseURL   string `koanf:"supabase_url"`
	SupabaseKey   string `koanf:"supabase_key"`
	Bucket        string `koanf:"bucket"`
	PublicBaseURL string `koanf:"public_base_url"`
	MaxUploadSize int64  `koanf:"max_upload_size"`
}

// TranscriptionConfig bounds a whole transcription job with Timeout and
// each API call with RequestTimeout.
type TranscriptionConfig struct {
	APIKey         string        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url"`
	PollInterval   time.Duration `koanf:"poll_interval"`
	Timeout        time.Duration `koanf:"timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type GenerationConfig struct {
	APIKey          string        `koanf:"api_key"`
	BaseURL         string        `koanf:"base_url"`
	APIVersion      string        `koanf:"api_version"`
	Model           string        `koanf:"model"`
	MaxOutputTokens int           `koanf:"max_output_tokens"`
	SEOMaxTokens    int           `koanf:"seo_max_tokens"`
	Temperature     float64       `koanf:"temperature"`
	Timeout         time.Duration `koanf:"timeout"`
}

type DownloaderConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// PlansConfig carries the billing price ids for the paid tiers. Plan
// quotas themselves are static.
type PlansConfig struct {
	BasicPriceID     string `koanf:"basic_price_id"`
	ProPriceID       string `koanf:"pro_price_id"`
	BasicPaymentLink string `koanf:"basic_payment_link"`
	ProPaymentLink   string `koanf:"pro_payment_link"`
}

type PipelineConfig struct {
	GuardTTL    time.Duration `koanf:"guard_ttl"`
	ProgressTTL time.Duration `koanf:"progress_ttl"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		loaded, err := load(configPath)
		if err != nil {
			loadErr = err
			return
		}

		if err := validate(loaded); err != nil {
			loadErr = fmt.Errorf("validate config: %w", err)
			return
		}

		cfg = loaded
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

// LoadUnvalidated reads configuration without the server-only checks.
// The admin CLI uses it because it only needs the database and plans.
func LoadUnvalidated(configPath string) (*Config, error) {
	return load(configPath)
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	loaded := &Config{}
	if err := k.Unmarshal("", loaded); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return loaded, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Blogsy",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "5m",
		"server.write_timeout":    "10m",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"storage.bucket":          "media",
		"storage.max_upload_size": 500 * 1024 * 1024,

		"transcription.base_url":        "https://api.assemblyai.com",
		"transcription.poll_interval":   "3s",
		"transcription.timeout":         "15m",
		"transcription.request_timeout": "30s",

		"generation.base_url":          "https://generativelanguage.googleapis.com/",
		"generation.api_version":       "v1beta",
		"generation.model":             "gemini-2.0-flash",
		"generation.max_output_tokens": 3000,
		"generation.seo_max_tokens":    500,
		"generation.temperature":       0.7,
		"generation.timeout":           "90s",

		"downloader.timeout": "5m",

		"pipeline.guard_ttl":    "20m",
		"pipeline.progress_ttl": "1h",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "blogsy",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"IDENTITY_JWKS_URL":           "identity.jwks_url",
	"IDENTITY_PUBLIC_KEY_PATH":    "identity.public_key_path",
	"IDENTITY_ISSUER":             "identity.issuer",
	"IDENTITY_AUDIENCE":           "identity.audience",
	"IDENTITY_WEBHOOK_SECRET":     "identity.webhook_secret",
	"STRIPE_SECRET_KEY":           "billing.stripe_secret_key",
	"STRIPE_WEBHOOK_SECRET":       "billing.stripe_webhook_secret",
	"SUPABASE_URL":                "storage.supabase_url",
	"SUPABASE_KEY":                "storage.supabase_key",
	"STORAGE_BUCKET":              "storage.bucket",
	"STORAGE_PUBLIC_BASE_URL":     "storage.public_base_url",
	"ASSEMBLY_AI_API_KEY":         "transcription.api_key",
	"ASSEMBLY_AI_BASE_URL":        "transcription.base_url",
	"TRANSCRIPTION_TIMEOUT":       "transcription.timeout",
	"GEMINI_API_KEY":              "generation.api_key",
	"GEMINI_MODEL":                "generation.model",
	"GEMINI_MAX_OUTPUT_TOKENS":    "generation.max_output_tokens",
	"DOWNLOADER_URL":              "downloader.url",
	"BASIC_PRICE_ID":              "plans.basic_price_id",
	"PRO_PRICE_ID":                "plans.pro_price_id",
	"BASIC_PAYMENT_LINK":          "plans.basic_payment_link",
	"PRO_PAYMENT_LINK":            "plans.pro_payment_link",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Identity.JWKSURL == "" && c.Identity.PublicKeyPath == "" {
		return fmt.Errorf(
			"IDENTITY_JWKS_URL or IDENTITY_PUBLIC_KEY_PATH is required",
		)
	}

	if c.Identity.WebhookSecret == "" {
		return fmt.Errorf("IDENTITY_WEBHOOK_SECRET is required")
	}

	if c.Billing.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required")
	}

	if c.Transcription.APIKey == "" {
		return fmt.Errorf("ASSEMBLY_AI_API_KEY is required")
	}

	if c.Generation.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	if c.Downloader.URL == "" {
		return fmt.Errorf("DOWNLOADER_URL is required")
	}

	if c.Generation.MaxOutputTokens <= 0 {
		return fmt.Errorf("generation.max_output_tokens must be positive")
	}

	if c.Pipeline.GuardTTL > 0 && c.Transcription.Timeout >= c.Pipeline.GuardTTL {
		return fmt.Errorf(
			"transcription.timeout (%s) must be shorter than pipeline.guard_ttl (%s)",
			c.Transcription.Timeout,
			c.Pipeline.GuardTTL,
		)
	}

	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("storage.max_upload_size must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	pkgconfig "github.com/utafrali/ApartmentAdmin/pkg/config"
)

// DefaultMockJWTSecret signs mock-server tokens in development.
const DefaultMockJWTSecret = "change-this-to-a-secure-secret"

// Session storage backends.
const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds all configuration for adminctl.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Admin API
	APIBaseURL     string        `env:"ADMIN_API_BASE_URL" envDefault:"http://localhost:8000/api/"`
	HTTPTimeout    time.Duration `env:"ADMIN_HTTP_TIMEOUT" envDefault:"30s"`
	LogoutOn401    bool          `env:"ADMIN_LOGOUT_ON_401" envDefault:"false"`
	RateLimitRPS   float64       `env:"ADMIN_RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int           `env:"ADMIN_RATE_LIMIT_BURST" envDefault:"10"`
	CBEnabled      bool          `env:"ADMIN_CB_ENABLED" envDefault:"true"`

	// Query cache
	QueryStaleTime time.Duration `env:"ADMIN_QUERY_STALE_TIME" envDefault:"5m"`
	QueryGCTime    time.Duration `env:"ADMIN_QUERY_GC_TIME" envDefault:"10m"`
	QueryRetry     int           `env:"ADMIN_QUERY_RETRY" envDefault:"1"`
	PollInterval   time.Duration `env:"ADMIN_POLL_INTERVAL" envDefault:"30s"`

	// Session storage
	SessionBackend     string `env:"ADMIN_SESSION_BACKEND" envDefault:"file"`
	SessionFile        string `env:"ADMIN_SESSION_FILE,expand" envDefault:"${HOME}/.adminctl/session.json"`
	SessionRedisPrefix string `env:"ADMIN_SESSION_REDIS_PREFIX" envDefault:"adminctl:"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled    bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaAuditTopic string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"admin.console.audit"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Metrics
	MetricsAddr string `env:"METRICS_ADDR"`

	// Mock server
	MockServerPort int    `env:"MOCK_SERVER_PORT" envDefault:"8000"`
	MockJWTSecret  string `env:"MOCK_JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
}

// Load reads configuration from the process environment.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load adminctl config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid ADMIN_API_BASE_URL %q: must be an absolute URL", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid ADMIN_HTTP_TIMEOUT %s: must be positive", c.HTTPTimeout)
	}
	if c.QueryRetry < 0 {
		return fmt.Errorf("invalid ADMIN_QUERY_RETRY %d: must not be negative", c.QueryRetry)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid ADMIN_POLL_INTERVAL %s: must be positive", c.PollInterval)
	}
	backends := []string{SessionBackendFile, SessionBackendRedis, SessionBackendMemory}
	if !slices.Contains(backends, c.SessionBackend) {
		return fmt.Errorf("invalid ADMIN_SESSION_BACKEND %q: must be one of %v", c.SessionBackend, backends)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE %v: must be within [0, 1]", c.OTELSampleRate)
	}
	if c.MockServerPort < 1 || c.MockServerPort > 65535 {
		return fmt.Errorf("invalid MOCK_SERVER_PORT: %d", c.MockServerPort)
	}

	// Outside development the mock server must not sign with the shared default.
	if c.Environment != "development" && c.MockJWTSecret == DefaultMockJWTSecret {
		return fmt.Errorf("MOCK_JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
	}
	return nil
}

// IsDevelopment reports whether the console runs against a development setup.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

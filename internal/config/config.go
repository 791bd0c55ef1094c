package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/utafrali/storefront-sync/pkg/config"
	"github.com/utafrali/storefront-sync/pkg/database"
)

// Config holds all configuration for the storefront-sync service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8086"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"catalog"`
	PostgresSSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresMinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"storefront-sync"`

	CloudflareZoneID   string        `env:"CLOUDFLARE_ZONE_ID" envDefault:""`
	CloudflareAPIToken string        `env:"CLOUDFLARE_API_TOKEN" envDefault:""`
	CloudflareAPIBase  string        `env:"CLOUDFLARE_API_BASE" envDefault:"https://api.cloudflare.com/client/v4"`
	CDNPurgeTimeout    time.Duration `env:"CDN_PURGE_TIMEOUT" envDefault:"10s"`

	RevalidateSecret string `env:"REVALIDATE_SECRET" envDefault:""`

	SnapshotDir             string `env:"SNAPSHOT_DIR" envDefault:"public"`
	SnapshotIntervalMinutes int    `env:"SNAPSHOT_INTERVAL_MINUTES" envDefault:"0"`

	BrandName        string   `env:"BRAND_NAME" envDefault:""`
	LegacyBrandNames []string `env:"LEGACY_BRAND_NAMES" envDefault:""`

	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if c.SnapshotIntervalMinutes < 0 {
		return fmt.Errorf("SNAPSHOT_INTERVAL_MINUTES must not be negative")
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be between 0 and 1")
	}
	if (c.CloudflareZoneID == "") != (c.CloudflareAPIToken == "") {
		return fmt.Errorf("CLOUDFLARE_ZONE_ID and CLOUDFLARE_API_TOKEN must be set together")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// CDNConfigured reports whether Cloudflare purge credentials are present.
func (c *Config) CDNConfigured() bool {
	return c.CloudflareZoneID != "" && c.CloudflareAPIToken != ""
}

// PostgresConfig returns the database pool configuration.
func (c *Config) PostgresConfig() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSLMode,

		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// RedisConfig returns the Redis client configuration.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// SnapshotInterval returns the scheduled rebuild interval, or zero when
// scheduled rebuilds are disabled.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMinutes) * time.Minute
}

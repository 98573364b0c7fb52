package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/meridian-commerce/storefront/pkg/config"
	"github.com/meridian-commerce/storefront/pkg/database"
)

// Config holds all configuration for the storefront server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Postgres
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 7 days)
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Admin auth
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTExpiry     time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	AdminEmail    string        `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassHash string        `env:"ADMIN_PASSWORD_HASH" envDefault:""`

	// Payment provider
	PaymentBaseURL  string        `env:"PAYMENT_BASE_URL" envDefault:"http://localhost:9090"`
	PaymentAPIKey   string        `env:"PAYMENT_API_KEY" envDefault:""`
	PaymentTimeout  time.Duration `env:"PAYMENT_TIMEOUT" envDefault:"10s"`
	WebhookSecret   string        `env:"PAYMENT_WEBHOOK_SECRET" envDefault:""`
	CheckoutSuccess string        `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/checkout/success"`
	CheckoutCancel  string        `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:3000/cart"`

	// Rate limiting (requests per second per client, with burst)
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// CORS
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSample   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"0.1"`

	// Slow query logging threshold in milliseconds. Zero disables it.
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Debug endpoints
	PprofEnabled bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowed []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTL < 1 {
		return fmt.Errorf("cart TTL must be at least 1 hour, got %d", c.CartTTL)
	}
	if c.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit RPS must be positive, got %d", c.RateLimitRPS)
	}
	if c.Environment == "production" && c.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// PostgresConfig builds the pool configuration for the storefront database.
func (c *Config) PostgresConfig() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPass,
		DBName:   c.PostgresDB,
	}
}

// RedisConfig builds the client configuration for the cart store.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// CartTTLDuration returns the cart TTL as a duration.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

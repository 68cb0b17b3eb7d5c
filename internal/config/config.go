package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/Abdallah85/Collaborative-Notes-App/pkg/config"
)

// Config holds all configuration for the auth service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"AUTH_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"notes"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"notes_secret"`
	PostgresDB   string `env:"AUTH_DB_NAME" envDefault:"auth_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTTokenExpiry time.Duration `env:"JWT_TOKEN_EXPIRY" envDefault:"24h"`

	// Password reset
	ResetSecretTTL time.Duration `env:"RESET_SECRET_TTL" envDefault:"1h"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load auth config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.JWTTokenExpiry <= 0 {
		return nil, fmt.Errorf("invalid JWT token expiry: %s", cfg.JWTTokenExpiry)
	}
	if cfg.ResetSecretTTL <= 0 {
		return nil, fmt.Errorf("invalid reset secret TTL: %s", cfg.ResetSecretTTL)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

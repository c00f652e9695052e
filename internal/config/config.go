package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the arbor service.
// Environment variables are parsed from the ARBOR_ prefix.
type Config struct {
	// Build target selects the high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration (local target)
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./data/arbor.db"`

	// Auth Configuration
	JWTSecret string        `envconfig:"JWT_SECRET" default:""`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"1h"`

	// Search Configuration
	SearchDefaultLimit int `envconfig:"SEARCH_DEFAULT_LIMIT" default:"10"`

	// Event bus buffer size
	EventBuffer int `envconfig:"EVENT_BUFFER" default:"256"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set
// to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("ARBOR_POSTGRES_DSN required for postgres driver")
	}
	if c.JWTSecret == "" && c.Environment == EnvProduction {
		return fmt.Errorf("ARBOR_JWT_SECRET required in production")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with ARBOR_, e.g. ARBOR_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ARBOR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("sqlite_path", cfg.SQLitePath).
		Dur("jwt_ttl", cfg.JWTTTL).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:        "local",
		DBDriver:           "sqlite",
		Environment:        EnvTesting,
		HTTPPort:           8080,
		SQLitePath:         ":memory:",
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		SearchDefaultLimit: 10,
		EventBuffer:        16,
	}
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the batch service.
type Config struct {
	Server       ServerConfig
	Batch        BatchConfig
	Collaborator CollaboratorConfig
	Predictions  PredictionStoreConfig
	Database     DatabaseConfig `envPrefix:"DATABASE_"`
	Redis        RedisConfig
	Auth         AuthConfig
}

type ServerConfig struct {
	Port            int           `env:"BATCH_PORT" envDefault:"8005"`
	Env             string        `env:"BATCH_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"BATCH_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// BatchConfig tunes the job engine.
type BatchConfig struct {
	MaxBatchSize       int           `env:"BATCH_MAX_BATCH_SIZE" envDefault:"1000" json:"max_batch_size"`
	ChunkSize          int           `env:"BATCH_CHUNK_SIZE" envDefault:"100" json:"chunk_size"`
	ChunkPause         time.Duration `env:"BATCH_CHUNK_PAUSE" envDefault:"100ms" json:"chunk_pause"`
	HighRiskThreshold  float64       `env:"BATCH_HIGH_RISK_THRESHOLD" envDefault:"0.8" json:"high_risk_threshold"`
	HistoryLimit       int           `env:"BATCH_HISTORY_LIMIT" envDefault:"100" json:"history_limit"`
	MaxConcurrentJobs  int           `env:"BATCH_MAX_CONCURRENT_JOBS" envDefault:"4" json:"max_concurrent_jobs"`
	PersistConcurrency int           `env:"BATCH_PERSIST_CONCURRENCY" envDefault:"8" json:"persist_concurrency"`
}

// CollaboratorConfig holds the base URLs of the services the engine calls.
type CollaboratorConfig struct {
	ScoringURL      string        `env:"SCORING_URL" envDefault:"http://localhost:8001"`
	PersistenceURL  string        `env:"PERSISTENCE_URL" envDefault:"http://localhost:8003"`
	NotificationURL string        `env:"NOTIFICATION_URL" envDefault:"http://localhost:8004"`
	Timeout         time.Duration `env:"COLLABORATOR_TIMEOUT" envDefault:"60s"`
}

// PredictionStoreConfig selects where scored predictions are written.
type PredictionStoreConfig struct {
	Backend string `env:"PREDICTION_STORE" envDefault:"http"`
}

type DatabaseConfig struct {
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	MigrationsDir   string        `env:"MIGRATIONS_DIR" envDefault:"migrations"`
}

// RedisConfig is optional; an empty URL disables rate limiting and the status mirror.
type RedisConfig struct {
	URL                string `env:"REDIS_URL"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
}

// AuthConfig lists bcrypt hashes of accepted API keys. Empty disables auth.
type AuthConfig struct {
	APIKeyHashes []string `env:"API_KEY_HASHES" envSeparator:","`
}

const (
	StoreHTTP     = "http"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

var validStores = map[string]bool{
	StoreHTTP:     true,
	StorePostgres: true,
	StoreNone:     true,
}

// Load reads configuration from environment variables (and a .env file when present)
// and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("BATCH_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Batch.MaxBatchSize <= 0 {
		return fmt.Errorf("BATCH_MAX_BATCH_SIZE must be positive, got %d", c.Batch.MaxBatchSize)
	}
	if c.Batch.ChunkSize <= 0 {
		return fmt.Errorf("BATCH_CHUNK_SIZE must be positive, got %d", c.Batch.ChunkSize)
	}
	if c.Batch.ChunkPause < 0 {
		return fmt.Errorf("BATCH_CHUNK_PAUSE must not be negative, got %s", c.Batch.ChunkPause)
	}
	if c.Batch.HighRiskThreshold < 0 || c.Batch.HighRiskThreshold > 1 {
		return fmt.Errorf("BATCH_HIGH_RISK_THRESHOLD must be within [0, 1], got %v", c.Batch.HighRiskThreshold)
	}
	if c.Batch.HistoryLimit <= 0 {
		return fmt.Errorf("BATCH_HISTORY_LIMIT must be positive, got %d", c.Batch.HistoryLimit)
	}
	if c.Batch.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("BATCH_MAX_CONCURRENT_JOBS must be positive, got %d", c.Batch.MaxConcurrentJobs)
	}
	if c.Batch.PersistConcurrency <= 0 {
		return fmt.Errorf("BATCH_PERSIST_CONCURRENCY must be positive, got %d", c.Batch.PersistConcurrency)
	}

	if err := validateURL("SCORING_URL", c.Collaborator.ScoringURL); err != nil {
		return err
	}
	if err := validateURL("NOTIFICATION_URL", c.Collaborator.NotificationURL); err != nil {
		return err
	}

	if !validStores[c.Predictions.Backend] {
		return fmt.Errorf("PREDICTION_STORE must be one of http, postgres, none; got %q", c.Predictions.Backend)
	}
	if c.Predictions.Backend == StoreHTTP {
		if err := validateURL("PERSISTENCE_URL", c.Collaborator.PersistenceURL); err != nil {
			return err
		}
	}
	if c.Predictions.Backend == StorePostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when PREDICTION_STORE is postgres")
	}
	return nil
}

func validateURL(name, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", name)
	}
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		return fmt.Errorf("%s must start with http:// or https://, got %q", name, v)
	}
	return nil
}

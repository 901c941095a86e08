// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	LLM         LLMConfig
	Matching    MatchingConfig
	Ingest      IngestConfig
	Enrich      EnrichConfig
	Maintenance MaintenanceConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration. An empty URL disables event
// publishing without disabling the service.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// LLMConfig selects the judge provider. An empty API key leaves the judge
// unconfigured; the matching cycle then fails closed.
type LLMConfig struct {
	Provider string
	APIKey   string
}

// MatchingConfig holds matching cycle configuration
type MatchingConfig struct {
	TrendLimit  int
	EventsTopic string
}

// IngestConfig holds RSS ingestion configuration
type IngestConfig struct {
	Schedule     string
	FetchTimeout time.Duration
	EventsTopic  string
}

// EnrichConfig holds client enrichment configuration
type EnrichConfig struct {
	MaxResults   int
	FetchTimeout time.Duration
}

// MaintenanceConfig holds the orphan cleanup schedule
type MaintenanceConfig struct {
	Schedule string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "innovaradar"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", ""),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", "anthropic"),
			APIKey:   getEnv("LLM_API_KEY", ""),
		},
		Matching: MatchingConfig{
			TrendLimit:  getEnvAsInt("MATCHING_TREND_LIMIT", 5),
			EventsTopic: getEnv("MATCHING_EVENTS_TOPIC", "opportunity"),
		},
		Ingest: IngestConfig{
			Schedule:     getEnv("INGEST_SCHEDULE", "@every 2h"),
			FetchTimeout: getEnvAsDuration("INGEST_FETCH_TIMEOUT", 10*time.Second),
			EventsTopic:  getEnv("INGEST_EVENTS_TOPIC", "trend"),
		},
		Enrich: EnrichConfig{
			MaxResults:   getEnvAsInt("ENRICH_MAX_RESULTS", 3),
			FetchTimeout: getEnvAsDuration("ENRICH_FETCH_TIMEOUT", 15*time.Second),
		},
		Maintenance: MaintenanceConfig{
			Schedule: getEnv("MAINTENANCE_SCHEDULE", "@hourly"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Matching.TrendLimit < 1 || config.Matching.TrendLimit > 20 {
		return fmt.Errorf("matching trend limit must be between 1 and 20, got %d", config.Matching.TrendLimit)
	}

	switch config.LLM.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unsupported llm provider: %s", config.LLM.Provider)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

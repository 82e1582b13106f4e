// Package config provides configuration management for the wallet radar
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Exchange  ExchangeConfig
	Pipeline  PipelineConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
	TTL            time.Duration
}

// ExchangeConfig holds exchange API configuration
type ExchangeConfig struct {
	BaseURL         string
	RequestsPerSec  float64
	RequestTimeout  time.Duration
	LeaderboardSize int
}

// PipelineConfig holds scan pipeline configuration
type PipelineConfig struct {
	ScanInterval   time.Duration
	FillLookback   time.Duration
	MaxConcurrency int
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSec float64
	Burst          int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_radar"),
				User:           getEnv("POSTGRES_USER", "radar"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "wallet_radar"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
				TTL:            getEnvAsDuration("REDIS_TTL", 60*time.Second),
			},
		},
		Exchange: ExchangeConfig{
			BaseURL:         getEnv("EXCHANGE_BASE_URL", "https://api.hyperliquid.xyz"),
			RequestsPerSec:  getEnvAsFloat("EXCHANGE_REQUESTS_PER_SEC", 10),
			RequestTimeout:  getEnvAsDuration("EXCHANGE_REQUEST_TIMEOUT", 15*time.Second),
			LeaderboardSize: getEnvAsInt("EXCHANGE_LEADERBOARD_SIZE", 100),
		},
		Pipeline: PipelineConfig{
			ScanInterval:   getEnvAsDuration("SCAN_INTERVAL", 10*time.Minute),
			FillLookback:   getEnvAsDuration("FILL_LOOKBACK", 31*24*time.Hour),
			MaxConcurrency: getEnvAsInt("SCAN_MAX_CONCURRENCY", 8),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSec: getEnvAsFloat("API_RATE_LIMIT_PER_SEC", 10),
			Burst:          getEnvAsInt("API_RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks configuration invariants that would otherwise surface as
// runtime failures deep in the pipeline.
func (c *Config) Validate() error {
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("EXCHANGE_BASE_URL must not be empty")
	}
	if c.Exchange.RequestsPerSec <= 0 {
		return fmt.Errorf("EXCHANGE_REQUESTS_PER_SEC must be positive, got %v", c.Exchange.RequestsPerSec)
	}
	if c.Pipeline.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive, got %v", c.Pipeline.ScanInterval)
	}
	if c.Pipeline.MaxConcurrency < 1 {
		return fmt.Errorf("SCAN_MAX_CONCURRENCY must be at least 1, got %d", c.Pipeline.MaxConcurrency)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

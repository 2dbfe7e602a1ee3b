// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Shivanand-hulikatti/library-lending/internal/database"
	"github.com/Shivanand-hulikatti/library-lending/internal/events"
	"github.com/Shivanand-hulikatti/library-lending/internal/policy"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	Store       string

	DB database.Config

	// JWT Configuration
	JWTSecret string

	Policy policy.Policy

	// Redis caches blacklist lookups when RedisAddr is set.
	RedisAddr string
	RedisTTL  time.Duration

	// Events go to Kafka when brokers are set, otherwise to the log.
	Kafka events.KafkaConfig

	// SeedBooks preloads the memory store, book id to copy count.
	SeedBooks map[string]int
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := policy.Default()
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Store:       strings.ToLower(getEnv("STORE", StorePostgres)),
		DB: database.Config{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "library"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 20)),
			ConnectAttempts: getEnvAsInt("DB_CONNECT_ATTEMPTS", 5),
		},
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production-min-32-chars"),
		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisTTL:  getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		Kafka: events.KafkaConfig{
			Brokers:  splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:    getEnv("KAFKA_TOPIC_RESERVATIONS", "library.reservations"),
			ClientID: getEnv("KAFKA_CLIENT_ID", "library-lending"),
			Retries:  getEnvAsInt("KAFKA_RETRIES", 3),
		},
	}

	// Lending limits have no fallback for a malformed value.
	var err error
	if cfg.Policy.MaxRenewals, err = getEnvAsStrictInt("MAX_RENEWALS", defaults.MaxRenewals); err != nil {
		return nil, err
	}
	if cfg.Policy.MaxActiveReservations, err = getEnvAsStrictInt("MAX_ACTIVE_RESERVATIONS", defaults.MaxActiveReservations); err != nil {
		return nil, err
	}
	if cfg.Policy.DueSoonDays, err = getEnvAsStrictInt("DUE_SOON_DAYS", defaults.DueSoonDays); err != nil {
		return nil, err
	}

	seed, err := parseSeed(getEnv("MEMORY_SEED_BOOKS", ""))
	if err != nil {
		return nil, err
	}
	cfg.SeedBooks = seed

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

// getEnvAsStrictInt is getEnvAsInt that reports a malformed value.
func getEnvAsStrictInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return result, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return result
}

// parseSeed reads "id:copies,id:copies".
func parseSeed(s string) (map[string]int, error) {
	seed := make(map[string]int)
	for _, item := range splitList(s) {
		id, copies, ok := strings.Cut(item, ":")
		n, err := strconv.Atoi(strings.TrimSpace(copies))
		if !ok || err != nil || n < 1 || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("MEMORY_SEED_BOOKS: invalid entry %q", item)
		}
		seed[strings.TrimSpace(id)] = n
	}
	return seed, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Redis  RedisConfig
	Combat CombatConfig
}

// RedisConfig holds Redis-specific configuration. An empty Addr means
// encounters are kept in memory only.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CombatConfig holds combat-engine configuration
type CombatConfig struct {
	ActionsPath  string
	EncounterTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Combat: CombatConfig{
			ActionsPath:  getEnvOrDefault("ACTIONS_PATH", "data/actions.json"),
			EncounterTTL: getEnvAsDurationOrDefault("ENCOUNTER_TTL", 7*24*time.Hour),
		},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

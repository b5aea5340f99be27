package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Geolocation provider
	ProviderURL string

	// Map tiles
	TileURL         string
	TileAttribution string

	// Logging
	LogLevel  string
	LogPretty bool

	// Rate limiting of lookups coming through the web UI
	RateLimitType   string        // "memory" or "redis"
	RateLimit       int           // lookups allowed per window
	RateLimitWindow time.Duration // window length

	// Redis configuration (only used by the redis limiter)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() *Config {
	// Missing .env is the normal case outside local development
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "3000"),

		ProviderURL: getEnv("PROVIDER_URL", "https://ipinfo.io"),

		TileURL:         getEnv("TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		TileAttribution: getEnv("TILE_ATTRIBUTION", `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		// Default: 30 lookups per minute per client
		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 30),
		RateLimitWindow: time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer.
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as a boolean.
// Accepts anything strconv.ParseBool does; returns default otherwise
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

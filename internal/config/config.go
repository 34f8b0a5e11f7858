// Package config loads server settings from the environment.
package config

import (
	"os"
	"strconv"
)

// Config holds everything the arena-server binary needs.
type Config struct {
	Env  string // "prod" switches to JSON logs at info level
	Addr string

	HistoryLimit int

	RateLimitPerSecond float64
	RateLimitBurst     int
	RateLimitEnabled   bool
}

// Load reads the environment with sane defaults. Call godotenv.Load first if
// a .env file should participate.
func Load() Config {
	return Config{
		Env:                getEnv("APP_ENV", "dev"),
		Addr:               getEnv("ARENA_ADDR", ":8088"),
		HistoryLimit:       getEnvInt("ARENA_HISTORY_LIMIT", 100),
		RateLimitPerSecond: getEnvFloat("ARENA_RATE_LIMIT_PER_SECOND", 100),
		RateLimitBurst:     getEnvInt("ARENA_RATE_LIMIT_BURST", 200),
		RateLimitEnabled:   getEnvBool("ARENA_RATE_LIMIT_ENABLED", true),
	}
}

// getEnv returns the env var or a default.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

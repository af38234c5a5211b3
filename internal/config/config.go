package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DataFile      string
	DatabaseURL   string
	MigrationsDir string
	JWTSecret     string
	CORSOrigin    string
	// Redis - empty by default, token revocation disabled if not configured
	RedisURL string
	// Sentiment analysis simulation
	AnalysisDelay       time.Duration
	AnalysisFailureRate float64
}

func Load() Config {
	return Config{
		Addr:                getenv("API_ADDR", ":4000"),
		DataFile:            getenv("CF_DATA_FILE", "./data/db.json"),
		DatabaseURL:         getenv("DATABASE_URL", ""),
		MigrationsDir:       getenv("CF_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:           getenv("CF_JWT_SECRET", "changeflow-dev-secret"),
		CORSOrigin:          getenv("CF_CORS_ORIGIN", "*"),
		RedisURL:            getenv("REDIS_URL", ""),
		AnalysisDelay:       time.Duration(getenvInt("CF_ANALYSIS_DELAY_MS", 500)) * time.Millisecond,
		AnalysisFailureRate: getenvFloat("CF_ANALYSIS_FAILURE_RATE", 0.2),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	// Server
	HTTPAddr  string
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Backend
	BackendBaseURL string

	// Chain
	ChainRPCURL     string
	ChainPrivateKey string
	ContractAddress string
	GasLimit        uint64

	// Session
	RevalidateInterval time.Duration
	ActivityDebounce   time.Duration

	// Optional purchase journal. Empty disables it.
	PostgresDSN string
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8090"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8080"),

		ChainRPCURL:     getEnv("CHAIN_RPC_URL", ""),
		ChainPrivateKey: getEnv("CHAIN_PRIVATE_KEY", ""),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		GasLimit:        uint64(getEnvInt("CHAIN_GAS_LIMIT", 500000)),

		RevalidateInterval: getEnvDuration("SESSION_REVALIDATE_INTERVAL", 3*time.Minute),
		ActivityDebounce:   getEnvDuration("SESSION_ACTIVITY_DEBOUNCE", time.Second),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

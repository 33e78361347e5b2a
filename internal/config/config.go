package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/popmadice/backend/internal/currency"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Game Settings
	MinBet                  currency.Amount
	MaxBet                  currency.Amount
	MaxRounds               int
	MatchTolerancePercent   int64
	QueueStaleSeconds       int
	QueueCleanupPollSeconds int

	// Blockchain settlement
	ChainRPCURL      string
	DiceGameContract string

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/popmadice?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Game Settings (bets in wei)
		MinBet:                  getEnvAmount("MIN_BET_WEI", "1000000000000000"),    // 0.001 ETH
		MaxBet:                  getEnvAmount("MAX_BET_WEI", "1000000000000000000"), // 1 ETH
		MaxRounds:               getEnvInt("MAX_ROUNDS", 10),
		MatchTolerancePercent:   int64(getEnvInt("MATCH_TOLERANCE_PERCENT", 10)),
		QueueStaleSeconds:       getEnvInt("QUEUE_STALE_SECONDS", 300),
		QueueCleanupPollSeconds: getEnvInt("QUEUE_CLEANUP_POLL_SECONDS", 60),

		// Blockchain settlement
		ChainRPCURL:      getEnv("CHAIN_RPC_URL", "https://mainnet.base.org"),
		DiceGameContract: getEnv("DICE_GAME_CONTRACT", ""),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAmount(key, defaultValue string) currency.Amount {
	if value := os.Getenv(key); value != "" {
		if a, err := currency.Parse(value); err == nil {
			return a
		}
	}
	return currency.MustParse(defaultValue)
}

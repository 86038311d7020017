// Package config loads application configuration directly from the
// environment, following the teacher's root-module convention rather than
// pulling in a third-party config loader for a single flat struct.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/wingmanmatch/wingman/internal/pkg/models"
)

// InitConfig loads configuration from the environment for the named service.
func InitConfig(appName string) *models.Config {
	cfg := loadConfigFromEnv()
	cfg.App.Name = appName
	return cfg
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Environment = getEnv("APP_ENV", "development")
	configs.App.Debug = getEnvAsBool("APP_DEBUG", true)
	configs.App.Version = getEnv("APP_VERSION", "1.0.0")

	// Server config
	configs.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	configs.Server.Port = getEnvAsInt("SERVER_PORT", 8080)
	configs.Server.ReadTimeout = getEnvAsInt("SERVER_READ_TIMEOUT", 60)
	configs.Server.WriteTimeout = getEnvAsInt("SERVER_WRITE_TIMEOUT", 60)
	configs.Server.ShutdownTimeout = getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30)

	// Database config
	configs.Database.Driver = getEnv("DB_DRIVER", "pgx")
	configs.Database.Host = getEnv("DB_HOST", "localhost")
	configs.Database.Port = getEnvAsInt("DB_PORT", 5432)
	configs.Database.Username = getEnv("DB_USERNAME", "postgres")
	configs.Database.Password = getEnv("DB_PASSWORD", "postgres")
	configs.Database.Database = getEnv("DB_DATABASE", "wingmanmatch")
	configs.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")
	configs.Database.MaxConns = getEnvAsInt("DB_MAX_CONNS", 20)
	configs.Database.IdleConns = getEnvAsInt("DB_IDLE_CONNS", 5)

	// Redis config
	configs.Redis.Host = getEnv("REDIS_HOST", "localhost")
	configs.Redis.Port = getEnvAsInt("REDIS_PORT", 6379)
	configs.Redis.Password = getEnv("REDIS_PASSWORD", "")
	configs.Redis.DB = getEnvAsInt("REDIS_DB", 0)
	configs.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", 10)

	// NSQ config
	configs.NSQ.NSQDAddress = getEnv("NSQD_ADDRESS", "localhost:4150")
	configs.NSQ.LookupdAddress = getEnv("NSQ_LOOKUPD_ADDRESS", "localhost:4161")
	configs.NSQ.NotifyTopic = getEnv("NSQ_NOTIFY_TOPIC", "wingman.notifications")
	configs.NSQ.NotifyChannel = getEnv("NSQ_NOTIFY_CHANNEL", "wingmand")

	// JWT config
	configs.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key-here")
	configs.JWT.Expiration = getEnvAsInt("JWT_EXPIRATION", 60)
	configs.JWT.Issuer = getEnv("JWT_ISSUER", "wingmanmatch")

	// Test-auth and rate limiting feature flags
	configs.TestAuth.Enabled = getEnvAsBool("ENABLE_TEST_AUTH", false)
	configs.TestAuth.SharedSecretHash = getEnv("TEST_AUTH_SECRET_HASH", "")
	configs.RateLimit.Enabled = getEnvAsBool("ENABLE_RATE_LIMITING", true)

	// Matcher tunables
	configs.Matcher.DefaultRadiusMiles = getEnvAsInt("MATCH_DEFAULT_RADIUS_MILES", 25)
	configs.Matcher.RecencyWindowDays = getEnvAsInt("MATCH_RECENCY_WINDOW_DAYS", 7)
	configs.Matcher.MaxCandidateResults = getEnvAsInt("MATCH_MAX_CANDIDATES", 10)

	// Logger config
	configs.Logger.Level = getEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = getEnv("LOG_FILE_PATH", "")

	return configs
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

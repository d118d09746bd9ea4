package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Upload settings
	MaxUploadSizeBytes int64

	// CORS settings
	AllowedOrigins []string

	// Cache settings
	StatsCacheExpiry time.Duration

	// Startup behavior
	SeedDefaultClients bool
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// --- File Size Limits ---
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	// --- Populate the Global Config Struct ---
	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./alfapay.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Uploads
		MaxUploadSizeBytes: maxUploadSizeBytes,

		// CORS
		AllowedOrigins: getStringList("ALLOWED_ORIGINS", "http://localhost:3000"),

		// Cache
		StatsCacheExpiry: getEnvAsDuration("STATS_CACHE_EXPIRY", 5*time.Minute),

		// Startup
		SeedDefaultClients: getEnvAsBool("SEED_DEFAULT_CLIENTS", true),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getStringList retrieves and parses a comma-separated list from the environment.
func getStringList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

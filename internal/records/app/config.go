package app

import (
	"os"
	"strconv"
	"time"

	"github.com/folioworks/folio/pkg/jwtx"
)

type Config struct {
	DBDriver string // Database driver (sqlite, postgres) (default: sqlite)
	DBDSN    string // Driver DSN: file path for sqlite, URL for postgres (default: ./records.db)

	PepperFile string // Path to file containing pepper for credential hashing (default: ./pepper)

	JWTSecret string        // HS256 signing secret; empty generates an ephemeral per-boot key
	JWTIssuer string        // Issuer claim for minted tokens (default: folio-records)
	TokenTTL  time.Duration // Access token lifetime (default: 15m)

	RetentionWindow   time.Duration // How long soft-deleted records are kept; 0 disables the sweeper
	RetentionInterval time.Duration // How often the sweeper runs (default: 1h)

	EnforceOwnership bool // Require document mutations to come from the owning account
	StrictDelete     bool // Fail repeated soft deletes instead of re-stamping

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		DBDriver:   getEnvOrDefault("RECORDS_DB_DRIVER", "sqlite"),
		DBDSN:      getEnvOrDefault("RECORDS_DB_DSN", "records.db"),
		PepperFile: getEnvOrDefault("RECORDS_PEPPER_FILE", "pepper"),

		JWTSecret: os.Getenv("RECORDS_JWT_SECRET"), // Optional: ephemeral key when unset
		JWTIssuer: getEnvOrDefault("RECORDS_JWT_ISSUER", "folio-records"),
		TokenTTL:  getEnvDurationOrDefault("RECORDS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),

		RetentionWindow:   getEnvDurationOrDefault("RECORDS_RETENTION_WINDOW", 0),
		RetentionInterval: getEnvDurationOrDefault("RECORDS_RETENTION_INTERVAL", 1*time.Hour),

		EnforceOwnership: getEnvBoolOrDefault("RECORDS_ENFORCE_OWNERSHIP", false),
		StrictDelete:     getEnvBoolOrDefault("RECORDS_STRICT_DELETE", false),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("RECORDS_LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("RECORDS_LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("RECORDS_PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("RECORDS_SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	// AllowPublicAccess lets unauthenticated callers read and write
	// ownerless check-in records. Off by default.
	AllowPublicAccess bool

	// OTP and session settings
	OTPTTL             time.Duration
	OTPResendInterval  time.Duration
	TokenTTL           time.Duration
	JWTSecret          string
	DefaultRedirectURL string
	AppBaseURL         string

	// Email delivery (Amazon SES)
	SESRegion    string
	SESFromEmail string
	SESFromName  string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		ServerPort:         getEnv("PORT", "8080"),
		DatabaseType:       getEnv("DB_TYPE", "sqlite"),
		DatabasePath:       getEnv("DB_PATH", "./attune.db"),
		DatabaseURL:        getEnv("DB_URL", ""),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "./migrations"),
		AllowPublicAccess:  getEnvBool("ALLOW_PUBLIC_ACCESS", false),
		OTPTTL:             getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPResendInterval:  getEnvDuration("OTP_RESEND_INTERVAL", time.Minute),
		TokenTTL:           getEnvDuration("TOKEN_TTL", time.Hour),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		DefaultRedirectURL: getEnv("DEFAULT_REDIRECT_URL", ""),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		SESRegion:          getEnv("SES_REGION", "us-east-1"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "Attune"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool reads a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean for %s: %q, using default", key, value)
		return defaultValue
	}
	return parsed
}

// getEnvDuration reads a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s: %q, using default", key, value)
		return defaultValue
	}
	return parsed
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string // optional; rate limiting falls back to in-memory windows when empty

	JWTSecret        string
	TokenTTLMinutes  int
	ResetTTLMinutes  int // password-reset token validity window
	ResetTokenInBody bool

	ForgotPasswordMaxAttempts   int
	ForgotPasswordWindowMinutes int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_MINUTES: %w", err)
	}

	resetTTL, err := strconv.Atoi(getEnv("RESET_TOKEN_TTL_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESET_TOKEN_TTL_MINUTES: %w", err)
	}

	forgotMax, err := strconv.Atoi(getEnv("FORGOT_PASSWORD_MAX_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid FORGOT_PASSWORD_MAX_ATTEMPTS: %w", err)
	}

	forgotWindow, err := strconv.Atoi(getEnv("FORGOT_PASSWORD_WINDOW_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid FORGOT_PASSWORD_WINDOW_MINUTES: %w", err)
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "tenantportal"),
		DBPassword: getEnv("DB_PASSWORD", "dev"),
		DBName:     getEnv("DB_NAME", "tenantportal"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLMinutes: tokenTTL,
		ResetTTLMinutes: resetTTL,

		// Placeholder for the missing email integration: when true the
		// plaintext reset token is returned in the API response.
		ResetTokenInBody: getEnv("RESET_TOKEN_IN_RESPONSE", "true") == "true",

		ForgotPasswordMaxAttempts:   forgotMax,
		ForgotPasswordWindowMinutes: forgotWindow,

		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

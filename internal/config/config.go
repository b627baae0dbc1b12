package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything the server reads from the environment
type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string

	DirectionsBaseURL string
	DirectionsEnabled bool

	FirebaseCredentialsBase64 string
	FirebaseCredentialsFile   string

	LogLevel string
	LogFile  string

	APIRateLimit int // requests per minute per IP
}

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("⚠️  .env file not found, using environment variables from system")
	}

	cfg := &Config{
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		Port:                      getEnv("PORT", "8080"),
		JWTSecret:                 os.Getenv("APP_JWT_SECRET"),
		DirectionsBaseURL:         strings.TrimRight(getEnv("DIRECTIONS_BASE_URL", "https://router.project-osrm.org"), "/"),
		DirectionsEnabled:         getEnvBool("DIRECTIONS_ENABLED", true),
		FirebaseCredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseCredentialsFile:   getEnv("FIREBASE_CREDENTIALS_FILE", "./firebase-service-account.json"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		LogFile:                   os.Getenv("LOG_FILE"),
		APIRateLimit:              getEnvInt("API_RATE_LIMIT", 600),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("⚠️  Invalid boolean %q, using default %t", v, fallback)
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logrus.WithField("key", key).Warnf("⚠️  Invalid integer %q, using default %d", v, fallback)
		return fallback
	}
	return n
}

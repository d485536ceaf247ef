// Package config loads process settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	DevSeed     bool
	Currency    string

	KafkaBrokers     []string
	KafkaTopicPrefix string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	CORSOrigins []string
}

// Load reads .env when present and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "json")),
		DevSeed:          getEnvBool("DEV_SEED"),
		Currency:         strings.ToUpper(getEnv("CURRENCY", "INR")),
		KafkaBrokers:     getEnvSlice("KAFKA_BROKERS", nil),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "tms"),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_HS256_SECRET")),
		JWTIssuer:        strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		JWTAudience:      strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
		CORSOrigins:      getEnvSlice("CORS_ORIGINS", []string{"*"}),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

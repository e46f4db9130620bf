package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all app configuration
type Config struct {
	Env string

	// Server
	HTTPPort string

	// ClickHouse warehouse
	ClickhouseAddr     string
	ClickhouseDatabase string
	ClickhouseUsername string
	ClickhousePassword string
	ClickhouseTimeout  int // seconds

	// Redis result cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      int // seconds, matches the dashboard's one hour query cache

	// Kafka usage-event sink
	KafkaBrokers []string
	KafkaTopic   string

	// Usage tracking
	TrackingDBPath string

	// OpenAI narration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAIMaxTokens   int

	// Analysis defaults
	DefaultPrimaryThreshold float64 // percent
	RequestBufferSize       int
	UseMockData             bool
}

// LoadConfig loads configuration from environment variables, with optional .env file
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "local"),

		HTTPPort: getEnv("HTTP_PORT", "8080"),

		ClickhouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickhouseDatabase: getEnv("CLICKHOUSE_DATABASE", "default"),
		ClickhouseUsername: getEnv("CLICKHOUSE_USERNAME", ""),
		ClickhousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ClickhouseTimeout:  getEnvAsInt("CLICKHOUSE_TIMEOUT", 10),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsInt("CACHE_TTL_SECONDS", 3600),

		KafkaBrokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}, ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "usage-events"),

		TrackingDBPath: getEnv("TRACKING_DB_PATH", "usage_tracking.db"),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
		OpenAIMaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 2000),

		DefaultPrimaryThreshold: getEnvAsFloat("DEFAULT_PRIMARY_THRESHOLD", 60),
		RequestBufferSize:       getEnvAsInt("REQUEST_BUFFER_SIZE", 100),
		UseMockData:             getEnvAsBool("USE_MOCK_DATA", false),
	}

	return cfg
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, sep)
}

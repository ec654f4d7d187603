package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vytor/vocabflash/internal/logger"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DefaultAIBaseURL points at Groq's OpenAI-compatible endpoint.
const DefaultAIBaseURL = "https://api.groq.com/openai/v1"

type Config struct {
	Addr                   string
	DBDriver               string
	DBPath                 string
	DatabaseURL            string
	LogLevel               string
	LogFormat              string
	AIBaseURL              string
	AIAPIKey               string
	AIModel                string
	AIChatModel            string
	AITimeoutSeconds       int
	AIMaxRetries           int
	AIRatePerSecond        float64
	AIBurst                int
	PronunciationCacheSize int
	PrefetchWorkerCount    int
	PrefetchQueueSize      int
	CORSAllowedOrigins     []string
	SessionTTLMinutes      int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                   envOr("ADDR", ":8080"),
		DBDriver:               strings.ToLower(envOr("DB_DRIVER", DriverSQLite)),
		DBPath:                 envOr("DB_PATH", "file:vocabflash.db"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		LogLevel:               envOr("LOG_LEVEL", "INFO"),
		LogFormat:              envOr("LOG_FORMAT", "text"),
		AIBaseURL:              envOr("AI_BASE_URL", DefaultAIBaseURL),
		AIAPIKey:               os.Getenv("AI_API_KEY"),
		AIModel:                envOr("AI_MODEL", "llama-3.1-8b-instant"),
		AIChatModel:            envOr("AI_CHAT_MODEL", "llama3-70b-8192"),
		AITimeoutSeconds:       envIntOr("AI_TIMEOUT_SECONDS", 30),
		AIMaxRetries:           envIntOr("AI_MAX_RETRIES", 2),
		AIRatePerSecond:        envFloatOr("AI_RATE_PER_SECOND", 2),
		AIBurst:                envIntOr("AI_BURST", 4),
		PronunciationCacheSize: envIntOr("PRONUNCIATION_CACHE_SIZE", 256),
		PrefetchWorkerCount:    envIntOr("PREFETCH_WORKER_COUNT", 2),
		PrefetchQueueSize:      envIntOr("PREFETCH_QUEUE_SIZE", 64),
		CORSAllowedOrigins:     envListOr("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		SessionTTLMinutes:      envIntOr("SESSION_TTL_MINUTES", 60),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH cannot be empty"))
		}
	case DriverPostgres, DriverMySQL:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for DB_DRIVER=%s", c.DBDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of sqlite, postgres, mysql (got %q)", c.DBDriver))
	}

	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be DEBUG, INFO, WARN or ERROR (got %q)", c.LogLevel))
	}
	if c.AIBaseURL == "" {
		errs = append(errs, errors.New("AI_BASE_URL cannot be empty"))
	}
	if c.AITimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("AI_TIMEOUT_SECONDS must be positive (got %d)", c.AITimeoutSeconds))
	}
	if c.AIMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("AI_MAX_RETRIES cannot be negative (got %d)", c.AIMaxRetries))
	}
	if c.AIRatePerSecond <= 0 {
		errs = append(errs, fmt.Errorf("AI_RATE_PER_SECOND must be positive (got %v)", c.AIRatePerSecond))
	}
	if c.AIBurst <= 0 {
		errs = append(errs, fmt.Errorf("AI_BURST must be positive (got %d)", c.AIBurst))
	}
	if c.PronunciationCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("PRONUNCIATION_CACHE_SIZE must be positive (got %d)", c.PronunciationCacheSize))
	}
	if c.PrefetchWorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("PREFETCH_WORKER_COUNT must be positive (got %d)", c.PrefetchWorkerCount))
	}
	if c.PrefetchQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("PREFETCH_QUEUE_SIZE must be positive (got %d)", c.PrefetchQueueSize))
	}
	if c.SessionTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL_MINUTES must be positive (got %d)", c.SessionTTLMinutes))
	}

	return errors.Join(errs...)
}

// AIEnabled reports whether an API key was configured. Without one every
// generation call goes straight to fallback content.
func (c Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

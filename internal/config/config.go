package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	LoanPort      string
	AllowedOrigin string
	CookieSecure  bool
	// Chat completion
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	PersonaFile   string
	// Zero means the completion call runs until the upstream answers
	ChatTimeout time.Duration
	// Loan model artifacts
	ModelPath  string
	ScalerPath string
	// Optional prediction audit log
	DatabaseURL   string
	MigrationsDir string
	// Optional prediction cache; in-memory when RedisAddr is empty
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	PredictionCacheTTL time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:               getEnvDefault("PORT", "8080"),
		LoanPort:           getEnvDefault("LOAN_PORT", "8081"),
		AllowedOrigin:      getEnvDefault("ALLOWED_ORIGIN", "*"),
		CookieSecure:       getEnvBoolDefault("COOKIE_SECURE", false),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		Model:              getEnvDefault("OPENAI_MODEL", "gpt-4"),
		PersonaFile:        getEnvDefault("PERSONA_FILE", "prompts/genie.yaml"),
		ChatTimeout:        getEnvDurationDefault("CHAT_TIMEOUT", 0),
		ModelPath:          getEnvDefault("MODEL_PATH", "model.json"),
		ScalerPath:         getEnvDefault("SCALER_PATH", "scale.json"),
		DatabaseURL:        os.Getenv("DB_URL"),
		MigrationsDir:      getEnvDefault("MIGRATIONS_DIR", "migrations"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvIntDefault("REDIS_DB", 0),
		PredictionCacheTTL: getEnvDurationDefault("PREDICTION_CACHE_TTL", time.Hour),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; chat completions will fail until provided")
	}
	return cfg
}

// Validate checks the settings every binary depends on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if strings.TrimSpace(c.LoanPort) == "" {
		return fmt.Errorf("LOAN_PORT cannot be empty")
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("OPENAI_MODEL cannot be empty")
	}
	if c.ModelPath == "" || c.ScalerPath == "" {
		return fmt.Errorf("MODEL_PATH and SCALER_PATH cannot be empty")
	}
	if c.ChatTimeout < 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be >= 0")
	}
	if c.PredictionCacheTTL < 0 {
		return fmt.Errorf("PREDICTION_CACHE_TTL must be >= 0")
	}
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
		log.Printf("warning: %s=%q is not an integer, using %d", key, v, def)
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err == nil {
			return d
		}
		log.Printf("warning: %s=%q is not a duration, using %s", key, v, def)
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string
	LogFile  string

	DefaultProvider string
	OllamaURL       string
	OllamaModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string

	RequestTimeout     time.Duration
	MaxUploadMB        int
	PromptCharBudget   int
	PromptHistoryTurns int

	SessionStore string
	SessionTTL   time.Duration
	RedisURL     string
	DatabaseURL  string

	CORSOrigins []string
	StaticDir   string

	// Warnings collects values that were rejected in favour of defaults. They
	// are logged once the logger exists.
	Warnings []string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.AppEnv = getEnv("APP_ENV", "development")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFile = getEnv("LOG_FILE", "")

	cfg.DefaultProvider = getEnv("DEFAULT_PROVIDER", "ollama")
	cfg.OllamaURL = getEnv("OLLAMA_URL", "http://localhost:11434")
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", "mistral")
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", "")
	cfg.AnthropicModel = getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest")
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-1.5-flash")

	cfg.RequestTimeout = cfg.getEnvDuration("REQUEST_TIMEOUT", 60*time.Second)
	cfg.MaxUploadMB = cfg.getEnvInt("MAX_UPLOAD_MB", 50)
	cfg.PromptCharBudget = cfg.getEnvInt("PROMPT_CHAR_BUDGET", 4000)
	cfg.PromptHistoryTurns = cfg.getEnvInt("PROMPT_HISTORY_TURNS", 6)

	cfg.SessionStore = strings.ToLower(getEnv("SESSION_STORE", "memory"))
	cfg.SessionTTL = cfg.getEnvDuration("SESSION_TTL", 30*time.Minute)
	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")

	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"})
	cfg.StaticDir = getEnv("STATIC_DIR", "./web")

	switch cfg.SessionStore {
	case "memory", "redis":
	case "postgres":
		if cfg.DatabaseURL == "" {
			cfg.warn("SESSION_STORE=postgres needs DATABASE_URL, using memory")
			cfg.SessionStore = "memory"
		}
	default:
		cfg.warn("SESSION_STORE=%q is not memory, redis or postgres, using memory", cfg.SessionStore)
		cfg.SessionStore = "memory"
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// MaxUploadBytes is the request body cap for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func (c *Config) getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.warn("%s=%q not a positive int, using default %d", key, v, def)
		return def
	}
	return n
}

func (c *Config) getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		c.warn("%s=%q not a positive duration, using default %s", key, v, def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

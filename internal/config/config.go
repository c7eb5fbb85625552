// Package config loads configuration from the environment, with optional
// .env and YAML file overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM provider identifiers.
const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Backend identifiers for the CLI session.
const (
	BackendAPI   = "api"
	BackendLocal = "local"
)

// Config holds all configuration values.
type Config struct {
	// REST server
	Port       string
	CORSOrigin string // single origin, comma-separated list, or "*"

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Optional Redis list cache; empty disables it
	RedisAddr string

	// Session backend ("api" or "local")
	Backend   string
	ServerURL string
	StorePath string

	// LLM
	LLMProvider     string
	LLMModel        string
	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Batch processing
	DescribeTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() Config {
	// Same convenience as the node backend: local development keeps
	// credentials in .env.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			slog.Warn("failed to load .env file", "error", err)
		}
	}

	return Config{
		Port:       getEnv("PORT", "8000"),
		CORSOrigin: getEnv("FRONTEND_URL", "*"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "prodcat"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		Backend:   getEnv("PRODCAT_BACKEND", BackendAPI),
		ServerURL: getEnv("PRODCAT_SERVER_URL", "http://localhost:8000"),
		StorePath: getEnv("PRODCAT_STORE_PATH", defaultStorePath()),

		LLMProvider:     getEnv("PRODCAT_LLM_PROVIDER", ProviderGoogleAI),
		LLMModel:        getEnv("PRODCAT_LLM_MODEL", "gemini-1.5-flash"),
		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		DescribeTimeout: getDuration("PRODCAT_DESCRIBE_TIMEOUT", 2*time.Minute),

		LogFile:  getEnv("PRODCAT_LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("PRODCAT_LOG_LEVEL", "INFO")),
	}
}

// fileConfig is the YAML override file shape; only set fields apply.
type fileConfig struct {
	ServerURL   string `yaml:"server_url"`
	Backend     string `yaml:"backend"`
	StorePath   string `yaml:"store_path"`
	LLMProvider string `yaml:"llm_provider"`
	LLMModel    string `yaml:"llm_model"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
}

// ApplyFile overlays settings from a YAML config file onto cfg. A missing
// file is not an error; a malformed one is.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.Backend != "" {
		c.Backend = fc.Backend
	}
	if fc.StorePath != "" {
		c.StorePath = fc.StorePath
	}
	if fc.LLMProvider != "" {
		c.LLMProvider = fc.LLMProvider
	}
	if fc.LLMModel != "" {
		c.LLMModel = fc.LLMModel
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

// DefaultConfigPath is the YAML override file the CLI looks for.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".prodcat.yaml")
}

// AllowedOrigins expands the CORS origin policy for the router: a single
// origin, a comma-separated list, or the wildcard.
func (c Config) AllowedOrigins() []string {
	if c.CORSOrigin == "" || c.CORSOrigin == "*" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORSOrigin, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prodcat"
	}
	return filepath.Join(home, ".local", "share", "prodcat")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		slog.Warn("invalid duration, using default", "key", key, "value", val, "default", defaultVal)
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

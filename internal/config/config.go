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

// Config stores all the configuration of the application.
// Values are loaded from environment variables with optional
// loading from a .env file via godotenv.
type Config struct {
	AppName     string
	Environment string
	Debug       bool

	// Database settings
	DatabaseURL    string
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Redis settings
	RedisHost       string
	RedisPort       string
	RedisUsername   string
	RedisPassword   string
	APIKeyCacheTTL  time.Duration
	HistoryCacheTTL time.Duration

	// Server settings
	ServerPort      string
	FrontendURL     string
	APIKeyHeader    string
	AllowAnonymous  bool
	UpstreamTimeout time.Duration

	// Conversation settings
	DefaultProvider    string
	MaxHistoryMessages int

	// OpenAI settings
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Gemini settings
	GoogleAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	// Ollama settings
	OllamaHost         string
	OllamaDefaultModel string
	OllamaTemperature  float64
}

// LoadConfig reads configuration from environment variables and .env file.
// It returns the loaded configuration or an error if required values are missing.
func LoadConfig() (*Config, error) {
	// Try to load .env file, but proceed even if it doesn't exist
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Println("No .env file found, using environment variables only")
		} else {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Environment loaded from .env file")
	}

	config := FromEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromEnv builds a Config from the current process environment without
// touching .env files or validating the result.
func FromEnv() *Config {
	return &Config{
		AppName:     getEnv("APP_NAME", "LLM Chat Gateway"),
		Environment: getEnv("ENVIRONMENT", "local"),
		Debug:       getEnvAsBool("DEBUG", false),

		// Database settings
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBHost:         getEnv("DB_HOST", ""),
		DBUser:         getEnv("DB_USER", ""),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", ""),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),

		// Redis settings
		RedisHost:       getEnv("REDIS_HOST", ""),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisUsername:   getEnv("REDIS_USERNAME", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		APIKeyCacheTTL:  getEnvAsSeconds("API_KEY_CACHE_TTL_SECONDS", 60),
		HistoryCacheTTL: getEnvAsSeconds("HISTORY_CACHE_TTL_SECONDS", 300),

		// Server settings
		ServerPort:      getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		APIKeyHeader:    getEnv("API_KEY_HEADER_NAME", "X-API-Key"),
		AllowAnonymous:  getEnvAsBool("ALLOW_ANONYMOUS", true),
		UpstreamTimeout: getEnvAsSeconds("UPSTREAM_TIMEOUT_SECONDS", 60),

		DefaultProvider:    strings.ToLower(getEnv("DEFAULT_LLM_PROVIDER", "openai")),
		MaxHistoryMessages: getEnvAsInt("MAX_HISTORY_MESSAGES", 15),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		GoogleAPIKey:  getEnv("GOOGLE_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		// Ollama settings
		OllamaHost:         getEnv("OLLAMA_HOST", ""),
		OllamaDefaultModel: getEnv("OLLAMA_DEFAULT_MODEL", "llama3"),
		OllamaTemperature:  getEnvAsFloat64("OLLAMA_TEMPERATURE", 0.7),
	}
}

// Validate checks if the required configuration values are set and logs warnings
// for optional values that aren't set.
func (c *Config) Validate() error {
	var problems []string

	if c.DatabaseURL == "" && (c.DBHost == "" || c.DBUser == "" || c.DBName == "") {
		problems = append(problems, "DATABASE_URL (or DB_HOST, DB_USER, DB_NAME)")
	}
	if c.MaxHistoryMessages <= 0 {
		problems = append(problems, "MAX_HISTORY_MESSAGES must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		problems = append(problems, "UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	if strings.TrimSpace(c.APIKeyHeader) == "" {
		problems = append(problems, "API_KEY_HEADER_NAME")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid or missing environment variables: %s", strings.Join(problems, ", "))
	}

	// Log warnings for optional configurations
	if c.RedisHost == "" {
		log.Println("Warning: REDIS_HOST is not set, caching will be disabled")
	}
	if c.FrontendURL == "" {
		log.Println("Warning: FRONTEND_URL is not set, CORS will allow all origins")
	}
	if c.OpenAIAPIKey == "" && c.GoogleAPIKey == "" && c.OllamaHost == "" {
		log.Println("Warning: no LLM provider credentials are set, chat requests will fail with 503")
	}
	if c.AllowAnonymous {
		log.Println("Warning: ALLOW_ANONYMOUS is enabled, requests without an API key are accepted")
	}

	return nil
}

// GetDSN returns the storage connection string. DATABASE_URL wins when set,
// otherwise a PostgreSQL DSN is assembled from the DB_* settings.
func (c *Config) GetDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// RedisEnabled reports whether a Redis host has been configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// GetRedisAddr returns the Redis address in the format host:port
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// getEnv retrieves the value of the environment variable named by the key.
// If the variable is not present, the defaultValue is returned.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsFloat64 retrieves the value of the environment variable named by the key as a float64.
// If the variable is not present or cannot be converted to a float64, the defaultValue is returned.
func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

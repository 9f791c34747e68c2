package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"agriconnect/backend/pkg/logger"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	// JWT configuration
	JWT struct {
		Secret string
		Expiry time.Duration
	}

	// Assistant configuration (remote text-generation service)
	Assistant struct {
		APIKey       string
		ModelURL     string
		CallTimeout  time.Duration
		ReplyTimeout time.Duration
	}

	// Chat configuration
	Chat struct {
		PrivateHistoryLimit   int
		CommunityHistoryLimit int
	}

	// Redis configuration (optional chat-history cache)
	Redis struct {
		Addr    string
		Enabled bool
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "5001")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "agriconnect")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")

		// JWT config
		instance.JWT.Secret = getEnvString("JWT_SECRET", "")
		instance.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 7*24*time.Hour)

		// Assistant config
		instance.Assistant.APIKey = getEnvString("HUGGINGFACE_API_KEY", "")
		instance.Assistant.ModelURL = getEnvString("HUGGINGFACE_MODEL_URL",
			"https://api-inference.huggingface.co/models/facebook/blenderbot-400M-distill")
		instance.Assistant.CallTimeout = getEnvDuration("ASSISTANT_CALL_TIMEOUT", 10*time.Second)
		instance.Assistant.ReplyTimeout = getEnvDuration("ASSISTANT_REPLY_TIMEOUT", 15*time.Second)

		// Chat config
		instance.Chat.PrivateHistoryLimit = getEnvInt("PRIVATE_HISTORY_LIMIT", 20)
		instance.Chat.CommunityHistoryLimit = getEnvInt("COMMUNITY_HISTORY_LIMIT", 50)

		// Redis config
		instance.Redis.Addr = getEnvString("REDIS_URL", "")
		instance.Redis.Enabled = instance.Redis.Addr != ""

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// DSN builds the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// LogStartup reports which options are configured and which fall back to
// degraded-mode defaults. Every recognized option has a safe fallback.
func (c *Config) LogStartup(log *logger.Logger) {
	log.Info("environment check",
		"port", c.Server.Port,
		"db_host", c.Database.Host,
		"db_name", c.Database.Name,
	)
	if c.JWT.Secret == "" {
		log.Warn("JWT_SECRET not set, using development default")
	}
	if c.Assistant.APIKey == "" {
		log.Warn("HUGGINGFACE_API_KEY not set, assistant runs in fallback mode")
	}
	if !c.Redis.Enabled {
		log.Info("REDIS_URL not set, chat history cache disabled")
	}
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

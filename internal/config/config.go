package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minProductionSecretLength is the shortest HS256 secret accepted in production
const minProductionSecretLength = 32

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Chat      ChatConfig      `yaml:"chat"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	LogLevel       string        `yaml:"log_level"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	Namespace string `yaml:"namespace"`
	Database  string `yaml:"database"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
}

// JWTConfig holds the shared signing secret and token settings
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	Issuer         string `yaml:"issuer"`
	ExpirationMins int    `yaml:"expiration_mins"`
}

// ChatConfig holds realtime socket settings
type ChatConfig struct {
	MaxMessageLength int           `yaml:"max_message_length"`
	SendBuffer       int           `yaml:"send_buffer"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	ReadLimit        int64         `yaml:"read_limit"`
	// OriginPatterns are host patterns allowed to open cross-origin sockets
	OriginPatterns []string `yaml:"origin_patterns"`
	// EventsPerMinute and EventBurst throttle each connection
	EventsPerMinute int `yaml:"events_per_minute"`
	EventBurst      int `yaml:"event_burst"`
}

// RateLimitConfig holds HTTP rate limiting settings
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Rate    int           `yaml:"rate"`
	Window  time.Duration `yaml:"window"`
	Burst   int           `yaml:"burst"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			LogLevel:       "info",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "questline",
			Database:  "main",
			User:      "root",
			Password:  "root",
		},
		JWT: JWTConfig{
			Issuer:         "",
			ExpirationMins: 60,
		},
		Chat: ChatConfig{
			MaxMessageLength: 1000,
			SendBuffer:       64,
			WriteTimeout:     5 * time.Second,
			PingInterval:     30 * time.Second,
			ReadLimit:        16 << 10,
			OriginPatterns:   []string{"localhost:3000"},
			EventsPerMinute:  60,
			EventBurst:       10,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Rate:    100,
			Window:  time.Minute,
			Burst:   20,
		},
	}
}

// Load builds configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if path := os.Getenv("JWT_SECRET_FILE"); path != "" {
		secret, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading JWT_SECRET_FILE: %w", err)
		}
		cfg.JWT.Secret = strings.TrimSpace(string(secret))
	}

	return &cfg, nil
}

// loadYAMLFile parses path into cfg. Fields absent from the file keep their
// current values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(c *Config) {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Env = getEnv("SERVER_ENV", c.Server.Env)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.AllowedOrigins = getSliceEnv("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.Namespace = getEnv("DB_NAMESPACE", c.Database.Namespace)
	c.Database.Database = getEnv("DB_DATABASE", c.Database.Database)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)

	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.JWT.Issuer = getEnv("JWT_ISSUER", c.JWT.Issuer)
	c.JWT.ExpirationMins = getIntEnv("JWT_EXPIRATION_MINS", c.JWT.ExpirationMins)

	c.Chat.MaxMessageLength = getIntEnv("CHAT_MAX_MESSAGE_LENGTH", c.Chat.MaxMessageLength)
	c.Chat.SendBuffer = getIntEnv("CHAT_SEND_BUFFER", c.Chat.SendBuffer)
	c.Chat.WriteTimeout = getDurationEnv("CHAT_WRITE_TIMEOUT", c.Chat.WriteTimeout)
	c.Chat.PingInterval = getDurationEnv("CHAT_PING_INTERVAL", c.Chat.PingInterval)
	c.Chat.ReadLimit = int64(getIntEnv("CHAT_READ_LIMIT", int(c.Chat.ReadLimit)))
	c.Chat.OriginPatterns = getSliceEnv("CHAT_ORIGIN_PATTERNS", c.Chat.OriginPatterns)
	c.Chat.EventsPerMinute = getIntEnv("CHAT_EVENTS_PER_MINUTE", c.Chat.EventsPerMinute)
	c.Chat.EventBurst = getIntEnv("CHAT_EVENT_BURST", c.Chat.EventBurst)

	c.RateLimit.Enabled = getBoolEnv("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.Rate = getIntEnv("RATE_LIMIT_RATE", c.RateLimit.Rate)
	c.RateLimit.Window = getDurationEnv("RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.RateLimit.Burst = getIntEnv("RATE_LIMIT_BURST", c.RateLimit.Burst)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
// frameOverhead covers the event name and JSON keys around a chat message
const frameOverhead = 1 << 10

// MinReadLimit is the smallest socket frame size that fits a message of
// maxChars characters even when every one is sent as an escaped surrogate
// pair (12 bytes).
func MinReadLimit(maxChars int) int64 {
	return int64(maxChars)*12 + frameOverhead
}

func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// JWT validation - the secret is injected, never defaulted
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.JWT.Secret) < minProductionSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLength))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Chat validation
	if c.Chat.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("CHAT_MAX_MESSAGE_LENGTH must be positive"))
	}
	if c.Chat.MaxMessageLength > 0 && c.Chat.ReadLimit < MinReadLimit(c.Chat.MaxMessageLength) {
		errs = append(errs, fmt.Errorf("CHAT_READ_LIMIT must be at least %d bytes for CHAT_MAX_MESSAGE_LENGTH %d",
			MinReadLimit(c.Chat.MaxMessageLength), c.Chat.MaxMessageLength))
	}
	if c.Chat.SendBuffer <= 0 {
		errs = append(errs, errors.New("CHAT_SEND_BUFFER must be positive"))
	}
	if c.Chat.WriteTimeout <= 0 {
		errs = append(errs, errors.New("CHAT_WRITE_TIMEOUT must be positive"))
	}
	if c.Chat.PingInterval < 0 {
		errs = append(errs, errors.New("CHAT_PING_INTERVAL must not be negative"))
	}
	if c.Chat.EventsPerMinute < 0 || c.Chat.EventBurst < 0 {
		errs = append(errs, errors.New("CHAT_EVENTS_PER_MINUTE and CHAT_EVENT_BURST must not be negative"))
	}

	// Rate limit validation
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RATE and RATE_LIMIT_WINDOW must be positive when rate limiting is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Env  string `json:"env"`
	Port int    `json:"port"`
	Host string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`
	DBPath     string `json:"db_path"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret         string        `json:"jwt_secret"`
	SessionCookieName string        `json:"session_cookie_name"`
	SessionTTL        time.Duration `json:"session_ttl"`

	// Optional backing services, disabled when empty
	RedisURL     string `json:"redis_url"`
	S3BucketName string `json:"s3_bucket_name"`
	AWSRegion    string `json:"aws_region"`

	// Recipe creation
	RecipeLinkTimeout     time.Duration `json:"recipe_link_timeout"`
	RecipeLinkConcurrency int           `json:"recipe_link_concurrency"`
	RecipeCreateAtomic    bool          `json:"recipe_create_atomic"`

	AchievementAwardOnce bool `json:"achievement_award_once"`

	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], DBPath: %s, LogLevel: %s, JWTSecret: [REDACTED], RedisURL: %s, S3BucketName: %s, RecipeLinkTimeout: %s, RecipeLinkConcurrency: %d, RecipeCreateAtomic: %t, AchievementAwardOnce: %t}",
		c.Env, c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.DBPath, c.LogLevel,
		maskURL(c.RedisURL), c.S3BucketName, c.RecipeLinkTimeout, c.RecipeLinkConcurrency,
		c.RecipeCreateAtomic, c.AchievementAwardOnce)
}

// maskURL masks the password in a connection URL
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		if _, ok := parsed.User.Password(); ok {
			parsed.User = url.UserPassword(parsed.User.Username(), "REDACTED")
		}
	}

	return parsed.String()
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any environment variable is present but invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	ttlHours, err := strconv.Atoi(GetEnvWithDefault("SESSION_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL_HOURS: %q", os.Getenv("SESSION_TTL_HOURS"))
	}

	linkTimeout := GetEnvAsType("RECIPE_LINK_TIMEOUT_SECONDS", 10)
	if linkTimeout <= 0 {
		return nil, fmt.Errorf("RECIPE_LINK_TIMEOUT_SECONDS must be positive, got %d", linkTimeout)
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		if _, err := url.ParseRequestURI(redisURL); err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
	}

	config := &Config{
		Env:                   GetEnvWithDefault("APP_ENV", "development"),
		Port:                  port,
		Host:                  GetEnvWithDefault("APP_HOST", "localhost"),
		DBDriver:              strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite")),
		DBHost:                GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:                GetEnvWithDefault("DB_PORT", "5432"),
		DBName:                GetEnvWithDefault("DB_NAME", "recipes"),
		DBUser:                GetEnvWithDefault("DB_USER", "recipes"),
		DBPassword:            GetEnvWithDefault("DB_PASSWORD", ""),
		DBSSLMode:             GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:                GetEnvWithDefault("DB_PATH", "recipes.sqlite"),
		LogLevel:              GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:             GetEnvWithDefault("JWT_SECRET", "secret"),
		SessionCookieName:     GetEnvWithDefault("SESSION_COOKIE_NAME", "session-id"),
		SessionTTL:            time.Duration(ttlHours) * time.Hour,
		RedisURL:              os.Getenv("REDIS_URL"),
		S3BucketName:          os.Getenv("S3_BUCKET_NAME"),
		AWSRegion:             GetEnvWithDefault("AWS_REGION", "us-east-1"),
		RecipeLinkTimeout:     time.Duration(linkTimeout) * time.Second,
		RecipeLinkConcurrency: GetEnvAsType("RECIPE_LINK_CONCURRENCY", 8),
		RecipeCreateAtomic:    GetEnvAsType("RECIPE_CREATE_ATOMIC", false),
		AchievementAwardOnce:  GetEnvAsType("ACHIEVEMENT_AWARD_ONCE", false),
		CORSAllowedOrigins:    splitList(GetEnvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
	}
	if config.RecipeLinkConcurrency <= 0 {
		config.RecipeLinkConcurrency = 1
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue
	}
}

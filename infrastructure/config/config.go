package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backend selectors
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage configuration
	StorageBackend string
	SQLitePath     string

	// AWS configuration
	AWSRegion      string
	UsersTable     string
	BooksTable     string
	UserBooksTable string

	// Metadata fetching
	MetadataQueueURL  string
	GoogleBooksAPIURL string
	GoogleBooksAPIKey string
	FetchTimeout      time.Duration

	// Authentication
	SessionSecret string
	SessionIssuer string
	SessionTTL    time.Duration

	// Logging and features
	LogLevel   string
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendSQLite),
		SQLitePath:     getEnv("SQLITE_PATH", "booklib.db"),

		AWSRegion:      getEnv("AWS_REGION", "us-west-2"),
		UsersTable:     getEnv("USERS_TABLE", "BookLibrary-Users"),
		BooksTable:     getEnv("BOOKS_TABLE", "BookLibrary-Books"),
		UserBooksTable: getEnv("USER_BOOKS_TABLE", "BookLibrary-UserBooks"),

		MetadataQueueURL:  getEnv("METADATA_QUEUE_URL", ""),
		GoogleBooksAPIURL: getEnv("GOOGLE_BOOKS_API_URL", "https://www.googleapis.com/books/v1"),
		GoogleBooksAPIKey: getEnv("GOOGLE_BOOKS_API_KEY", ""),
		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 30*time.Second),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionIssuer: getEnv("SESSION_ISSUER", "booklib-backend"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.StorageBackend != BackendSQLite && c.StorageBackend != BackendDynamoDB {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", BackendSQLite, BackendDynamoDB)
	}

	if c.Environment == "production" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		if c.StorageBackend == BackendDynamoDB {
			if c.UsersTable == "" || c.BooksTable == "" || c.UserBooksTable == "" {
				return fmt.Errorf("USERS_TABLE, BOOKS_TABLE and USER_BOOKS_TABLE are required")
			}
		}
	}

	if c.SessionSecret == "" {
		// Development fallback; Validate above rejects this in production.
		c.SessionSecret = "development-secret-change-in-production"
	}

	return nil
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

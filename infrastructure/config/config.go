package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Remote backend selectors for SYNC_BACKEND.
const (
	BackendNone   = ""
	BackendDynamo = "dynamo"
	BackendHTTP   = "http"
)

// placeholderEndpoint is what the bundled .env.example ships with; seeing it
// means the user never configured a real sync endpoint.
const placeholderEndpoint = "https://demo.invalid"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Local storage
	DataDir string

	// Remote sync configuration
	SyncBackend      string
	SyncHTTPEndpoint string
	AWSRegion        string
	DynamoDBTable    string
	SyncListID       string

	// Remote calls are best-effort once unless retries are configured.
	SyncTimeout      time.Duration
	SyncRetries      int
	SyncPollInterval time.Duration

	// Sync document server (cmd/syncd)
	SyncServerAddress string
	SyncServerDataDir string

	// Logging and features
	LogLevel   string
	EnableCORS bool
}

// LoadConfig loads configuration from the environment, reading a .env file
// first when one exists next to the binary.
func LoadConfig() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		DataDir: getEnv("DATA_DIR", "./data"),

		SyncBackend:      getEnv("SYNC_BACKEND", BackendNone),
		SyncHTTPEndpoint: getEnv("SYNC_HTTP_ENDPOINT", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable:    getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "lista-compras")),
		SyncListID:       getEnv("SYNC_LIST_ID", "lista-compras"),

		SyncTimeout:      getEnvDuration("SYNC_TIMEOUT_MS", 10*time.Second),
		SyncRetries:      getEnvInt("SYNC_RETRIES", 0),
		SyncPollInterval: getEnvDuration("SYNC_POLL_INTERVAL_MS", 15*time.Second),

		SyncServerAddress: getEnv("SYNCD_ADDRESS", ":8090"),
		SyncServerDataDir: getEnv("SYNCD_DATA_DIR", "./syncdata"),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.SyncBackend {
	case BackendNone, BackendDynamo, BackendHTTP:
	default:
		return fmt.Errorf("SYNC_BACKEND must be one of %q, %q or empty", BackendDynamo, BackendHTTP)
	}
	if c.SyncRetries < 0 {
		return fmt.Errorf("SYNC_RETRIES cannot be negative")
	}
	return nil
}

// RemoteEnabled decides, once at startup, whether the remote sync path is
// usable at all. Absent or placeholder configuration means the process runs
// local-only for its whole lifetime.
func (c *Config) RemoteEnabled() bool {
	switch c.SyncBackend {
	case BackendDynamo:
		return c.DynamoDBTable != ""
	case BackendHTTP:
		return c.SyncHTTPEndpoint != "" && c.SyncHTTPEndpoint != placeholderEndpoint
	default:
		return false
	}
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
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
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration reads a millisecond count with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported storage backends
const (
	DBTypeMongo    = "mongo"
	DBTypePostgres = "postgres"
	DBTypeMemory   = "memory"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
	RequestTimeout time.Duration
	ActorPoolSize  int
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type string // "mongo", "postgres" or "memory"

	// MongoDB
	MongoURI string
	MongoDB  string

	// PostgreSQL
	URI      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	JWTSecret     string
	JWTExpiration time.Duration
}

// RedisConfig enables the Redis event bus when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Auth           *AuthConfig
	Redis          *RedisConfig
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           5000,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
		RequestTimeout: 5 * time.Second,
		ActorPoolSize:  8,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type:     DBTypeMongo,
		MongoURI: "mongodb://localhost:27017",
		MongoDB:  "devconnector",
		Port:     5432,
		SSLMode:  "require",
	}
}

// DefaultAuthConfig provides default token settings. The secret is left empty on purpose.
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		JWTExpiration: 120 * time.Hour,
	}
}

// debugJWTSecret is only used when DEBUG=true and no JWT_SECRET is configured.
const debugJWTSecret = "devconnector-debug-secret"

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",          // Current directory
		"../../.env",    // Project root when running from cmd/server
		"../../../.env", // Even higher directory
		filepath.Join(os.Getenv("GOPATH"), "src/dev-connector/.env"),
	}

	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	return FromEnv()
}

// FromEnv builds the configuration from the current process environment only.
func FromEnv() (*Config, error) {
	serverConfig := DefaultConfig()

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		serverConfig.Port = port
	}

	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	timeout, err := durationFromEnv("REQUEST_TIMEOUT", serverConfig.RequestTimeout)
	if err != nil {
		return nil, err
	}
	serverConfig.RequestTimeout = timeout

	if sizeStr := os.Getenv("ACTOR_POOL_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid ACTOR_POOL_SIZE %q", sizeStr)
		}
		serverConfig.ActorPoolSize = size
	}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		Auth:           DefaultAuthConfig(),
		Redis:          &RedisConfig{},
		AllowedOrigins: []string{"*"},
		Debug:          os.Getenv("DEBUG") == "true",
	}

	config.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if config.Auth.JWTSecret == "" {
		if !config.Debug {
			return nil, errors.New("JWT_SECRET environment variable is required")
		}
		config.Auth.JWTSecret = debugJWTSecret
	}

	expiration, err := durationFromEnv("JWT_EXPIRATION", config.Auth.JWTExpiration)
	if err != nil {
		return nil, err
	}
	config.Auth.JWTExpiration = expiration

	config.Redis.Addr = os.Getenv("REDIS_ADDR")
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		db, err := strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", redisDB, err)
		}
		config.Redis.DB = db
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = splitAndTrim(origins)
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	dbConfig := DefaultDatabaseConfig()

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		dbConfig.Type = strings.ToLower(dbType)
	}

	switch dbConfig.Type {
	case DBTypeMongo:
		dbConfig.MongoURI = getEnvOrDefault("MONGO_URI", dbConfig.MongoURI)
		dbConfig.MongoDB = getEnvOrDefault("MONGO_DB", dbConfig.MongoDB)

	case DBTypePostgres:
		// Prioritize DATABASE_URL if provided
		if uri := os.Getenv("DATABASE_URL"); uri != "" {
			dbConfig.URI = uri
			dbConfig.SSLMode = getSSLModeFromURI(uri)
			return dbConfig, nil
		}

		dbConfig.Host = getEnvOrDefault("DB_HOST", "localhost")
		if portStr := os.Getenv("DB_PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return nil, fmt.Errorf("invalid DB_PORT %q: %w", portStr, err)
			}
			dbConfig.Port = port
		}

		dbConfig.User = os.Getenv("DB_USER")
		if dbConfig.User == "" {
			return nil, errors.New("DB_USER environment variable is required when DB_TYPE is postgres and DATABASE_URL is not set")
		}
		dbConfig.Password = os.Getenv("DB_PASSWORD")
		if dbConfig.Password == "" {
			return nil, errors.New("DB_PASSWORD environment variable is required when DB_TYPE is postgres and DATABASE_URL is not set")
		}
		dbConfig.Name = getEnvOrDefault("DB_NAME", "postgres")
		dbConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", "require")

		dbConfig.URI = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			dbConfig.User,
			dbConfig.Password,
			dbConfig.Host,
			dbConfig.Port,
			dbConfig.Name,
			dbConfig.SSLMode,
		)

	case DBTypeMemory:
		// nothing to configure

	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (want mongo, postgres or memory)", dbConfig.Type)
	}

	return dbConfig, nil
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationFromEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func splitAndTrim(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper function to extract sslmode from a DSN, defaults to "require"
func getSSLModeFromURI(uri string) string {
	parts := strings.SplitN(uri, "?", 2)
	if len(parts) < 2 {
		return "require"
	}
	for _, param := range strings.Split(parts[1], "&") {
		kv := strings.SplitN(param, "=", 2)
		if len(kv) == 2 && kv[0] == "sslmode" {
			return kv[1]
		}
	}
	return "require"
}

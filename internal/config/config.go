package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Queue         QueueConfig
	Geo           GeoConfig
	App           AppConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// CacheConfig holds the Redis caching layer configuration
type CacheConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	TTL      time.Duration
}

// QueueConfig holds the RabbitMQ connection and click queue configuration
type QueueConfig struct {
	Host      string
	Port      string
	User      string
	Password  string
	Name      string
	Consumers int
}

// GeoConfig holds the local geo database configuration.
// An empty or missing database path disables country resolution;
// redirects still work, clicks just carry no country.
type GeoConfig struct {
	DBPath string
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	BaseURL        string // Base URL for generating short links (display only)
	KeyLength      int
	KeyMaxAttempts int
}

// ObservabilityConfig holds telemetry configuration
type ObservabilityConfig struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "shortener"),
			Password: getEnv("DB_PASSWORD", "shortener_secret"),
			DBName:   getEnv("DB_NAME", "shortener"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Cache: CacheConfig{
			Host:     getEnv("RDB_HOST", "localhost"),
			Port:     getEnv("RDB_PORT", "6379"),
			User:     getEnv("RDB_USER", ""),
			Password: getEnv("RDB_PASSWORD", ""),
			TTL:      getEnvDuration("RDB_TTL", time.Hour),
		},
		Queue: QueueConfig{
			Host:      getEnv("MQ_HOST", "localhost"),
			Port:      getEnv("MQ_PORT", "5672"),
			User:      getEnv("MQ_USER", "guest"),
			Password:  getEnv("MQ_PASSWORD", "guest"),
			Name:      getEnv("MQ_CLICK_QUEUE", "clicks"),
			Consumers: getEnvInt("MQ_CONSUMERS", 4),
		},
		Geo: GeoConfig{
			DBPath: getEnv("GEOIP_DB_PATH", ""),
		},
		App: AppConfig{
			BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
			KeyLength:      getEnvInt("KEY_LENGTH", 7),
			KeyMaxAttempts: getEnvInt("KEY_MAX_ATTEMPTS", 10),
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnv("SERVICE_NAME", "url-shortener"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
		},
	}, nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// ConnectionString returns the Redis connection string
func (c *CacheConfig) ConnectionString() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/0", c.User, c.Password, c.Host, c.Port)
}

// ConnectionString returns the AMQP connection string
func (q *QueueConfig) ConnectionString() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", q.User, q.Password, q.Host, q.Port)
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

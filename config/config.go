package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	CORS        CORSConfig        `yaml:"cors"`
	Request     RequestConfig     `yaml:"request"`
	Performance PerformanceConfig `yaml:"performance"`

	// File is the optional YAML overlay path (CONFIG_FILE). Not read from YAML.
	File string `yaml:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CORSConfig holds cross-origin settings. An empty AllowedHeaders list means
// the headers named in a preflight request are reflected back.
type CORSConfig struct {
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AllowedMethods []string      `yaml:"allowed_methods"`
	AllowedHeaders []string      `yaml:"allowed_headers"`
	MaxAge         time.Duration `yaml:"max_age"`
}

// RequestConfig holds request body handling configuration
type RequestConfig struct {
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// PerformanceConfig holds request metrics configuration
type PerformanceConfig struct {
	MetricsEnabled       bool          `yaml:"metrics_enabled"`
	MetricsEndpoint      string        `yaml:"metrics_endpoint"`
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold"`
}

// Defaults shared by LoadConfig and the tests.
const (
	DefaultPort            = "3000"
	DefaultMaxBodyBytes    = 100 * 1024
	DefaultMetricsEndpoint = "/debug/metrics"
)

// DefaultAllowedMethods matches the method list browsers are told they may use.
var DefaultAllowedMethods = []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", DefaultPort),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getListEnv("CORS_ALLOWED_METHODS", DefaultAllowedMethods),
			AllowedHeaders: getListEnv("CORS_ALLOWED_HEADERS", nil),
			MaxAge:         getDurationEnv("CORS_MAX_AGE", 0),
		},
		Request: RequestConfig{
			MaxBodyBytes: int64(getIntEnv("MAX_BODY_BYTES", DefaultMaxBodyBytes)),
		},
		Performance: PerformanceConfig{
			MetricsEnabled:       getBoolEnv("METRICS_ENABLED", true),
			MetricsEndpoint:      getEnv("METRICS_ENDPOINT", DefaultMetricsEndpoint),
			SlowRequestThreshold: getDurationEnv("SLOW_REQUEST_THRESHOLD", time.Second),
		},
		File: getEnv("CONFIG_FILE", ""),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets duration from environment variable with default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets integer from environment variable with default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets boolean from environment variable with default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated variable, dropping blank items
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// reservedPaths are the service routes the metrics endpoint must not shadow.
var reservedPaths = []string{"/health", "/webhook", "/wallboard", "/metrics/", "/events/"}

// Validate validates the configuration
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return &ConfigError{Field: "PORT", Message: "must be a number in [1, 65535], got " + strconv.Quote(c.Server.Port)}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "LOG_LEVEL", Message: "unknown level " + strconv.Quote(c.Logging.Level)}
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return &ConfigError{Field: "LOG_FORMAT", Message: "want json or text, got " + strconv.Quote(c.Logging.Format)}
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return &ConfigError{Field: "CORS_ALLOWED_ORIGINS", Message: "at least one origin is required"}
	}
	if c.CORS.MaxAge < 0 {
		return &ConfigError{Field: "CORS_MAX_AGE", Message: "must not be negative"}
	}

	if c.Request.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "MAX_BODY_BYTES", Message: "must be positive"}
	}

	if c.Performance.SlowRequestThreshold < 0 {
		return &ConfigError{Field: "SLOW_REQUEST_THRESHOLD", Message: "must not be negative"}
	}

	if c.Performance.MetricsEnabled {
		endpoint := c.Performance.MetricsEndpoint
		if !strings.HasPrefix(endpoint, "/") {
			return &ConfigError{Field: "METRICS_ENDPOINT", Message: "must start with /"}
		}
		// Routes match in any case and with a trailing slash.
		normalized := strings.ToLower(strings.TrimRight(endpoint, "/"))
		if normalized == "" {
			return &ConfigError{Field: "METRICS_ENDPOINT", Message: "must not be the root path"}
		}
		for _, reserved := range reservedPaths {
			if normalized == strings.TrimSuffix(reserved, "/") || strings.HasPrefix(normalized, reserved) {
				return &ConfigError{Field: "METRICS_ENDPOINT", Message: endpoint + " collides with a service route"}
			}
		}
	}

	return nil
}

// ConfigError represents configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

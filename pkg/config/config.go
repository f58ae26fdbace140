package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	API      APIConfig
	Auth     AuthConfig
	Debounce DebounceConfig
	Cache    CacheConfig
	Redis    RedisConfig
	OTEL     OTELConfig
}

// AppConfig holds process-level settings
type AppConfig struct {
	Env      string
	LogLevel string
}

// APIConfig holds the doctor-connect backend settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds login entry point and optional CLI credentials
type AuthConfig struct {
	LoginPath string
	Email     string
	Password  string
}

// DebounceConfig holds directory filter debounce delays
type DebounceConfig struct {
	// Text applies to specialty, city and the price bounds
	Text time.Duration
	// Toggle applies to onlyVerified and sort
	Toggle time.Duration
}

// CacheConfig selects the doctor profile cache backend
type CacheConfig struct {
	Backend    string
	ProfileTTL time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
			Timeout: getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			LoginPath: getEnv("LOGIN_PATH", "/"),
			Email:     getEnv("DOCTORCONNECT_EMAIL", ""),
			Password:  getEnv("DOCTORCONNECT_PASSWORD", ""),
		},
		Debounce: DebounceConfig{
			Text:   getEnvAsDuration("DEBOUNCE_TEXT", 200*time.Millisecond),
			Toggle: getEnvAsDuration("DEBOUNCE_TOGGLE", 100*time.Millisecond),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
			ProfileTTL: getEnvAsDuration("DOCTOR_PROFILE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "doctorconnect"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.Cache.Backend)
	}

	return cfg, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

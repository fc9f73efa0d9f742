package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Event queue. An empty RedisAddr disables publishing.
	RedisAddr     string
	EventQueueCap int64

	// Observability
	LogFormat   string
	TraceStdout bool
}

// Load reads configuration from BLOGAPI_* environment variables. Command
// line flags override these values. A variable that is set but cannot be
// parsed is an error.
func Load() (*Config, error) {
	var errs []error
	cfg := &Config{
		Addr:            getEnv("BLOGAPI_ADDR", ":8000"),
		ReadTimeout:     getEnvDuration("BLOGAPI_READ_TIMEOUT", 15*time.Second, &errs),
		WriteTimeout:    getEnvDuration("BLOGAPI_WRITE_TIMEOUT", 15*time.Second, &errs),
		ShutdownTimeout: getEnvDuration("BLOGAPI_SHUTDOWN_TIMEOUT", 5*time.Second, &errs),
		RedisAddr:       getEnv("BLOGAPI_REDIS_ADDR", ""),
		EventQueueCap:   int64(getEnvInt("BLOGAPI_EVENT_QUEUE_CAP", 1000, &errs)),
		LogFormat:       getEnv("BLOGAPI_LOG_FORMAT", LogFormatConsole),
		TraceStdout:     getEnvBool("BLOGAPI_TRACE_STDOUT", false, &errs),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration after flags have been applied.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.EventQueueCap < 1 {
		return fmt.Errorf("event queue capacity must be at least 1")
	}
	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(value)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, value))
			return defaultValue
		}
		return intValue
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool, errs *[]error) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, value))
			return defaultValue
		}
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, value))
			return defaultValue
		}
		return duration
	}
	return defaultValue
}

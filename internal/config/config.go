// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	APIBaseURL     string
	AuthBaseURL    string
	DBPath         string
	LogOutput      string
	LogLevel       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	apiURL := getEnv("REPLIFY_API_URL", "http://localhost:8000")

	cfg := &Config{
		APIBaseURL:     apiURL,
		AuthBaseURL:    getEnv("REPLIFY_AUTH_URL", apiURL),
		DBPath:         getEnv("DB_PATH", "./data/replify.db"),
		LogOutput:      getEnv("LOG_OUTPUT", "./data/replify.log"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PollInterval:   time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)) * time.Second,
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("REPLIFY_API_URL cannot be empty")
	}
	if _, err := url.Parse(c.APIBaseURL); err != nil {
		return fmt.Errorf("REPLIFY_API_URL is not a valid URL: %w", err)
	}
	if c.AuthBaseURL == "" {
		return fmt.Errorf("REPLIFY_AUTH_URL cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// Package config loads the pipeline configuration from the environment.
// Components never read the environment themselves: the Config object is
// passed in at construction.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Source site
	ListingURL string

	// Persistence
	DatabaseURL string

	// Downstream endpoints
	NotifyBaseURL string
	SummarizerURL string
	GeminiAPIKey  string

	// Categorizer
	KeywordsPath string

	// Scheduling
	Schedule string // cron spec for the ingestion tick

	// Content policy
	MaxContentLength int  // display budget in runes before summarization kicks in
	DedupeLines      bool // drop duplicate lines across the whole article text

	// App settings
	RequestTimeout   time.Duration
	Debug            bool
	EnableMonitoring bool
	MonitoringPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		ListingURL:       "https://nerehta-adm.ru/news",
		KeywordsPath:     "configs/categories.yaml",
		Schedule:         "@every 1m",
		MaxContentLength: 3500,
		RequestTimeout:   15 * time.Second,
		MonitoringPort:   "8080",
	}

	// Load from environment
	cfg.ListingURL = getEnvOrDefault("LISTING_URL", cfg.ListingURL)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.NotifyBaseURL = os.Getenv("NOTIFY_BASE_URL")
	cfg.SummarizerURL = os.Getenv("SUMMARIZER_URL")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.KeywordsPath = getEnvOrDefault("CATEGORIES_CONFIG_PATH", cfg.KeywordsPath)
	cfg.Schedule = getEnvOrDefault("SCHEDULE", cfg.Schedule)
	cfg.MaxContentLength = getEnvIntOrDefault("MAX_CONTENT_LENGTH", cfg.MaxContentLength)
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}

	cfg.DedupeLines = os.Getenv("CONTENT_DEDUPE_LINES") == "true"
	cfg.Debug = os.Getenv("DEBUG") == "true"
	cfg.EnableMonitoring = os.Getenv("ENABLE_HTTP_MONITORING") == "true"

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.NotifyBaseURL == "" {
		return fmt.Errorf("NOTIFY_BASE_URL is required")
	}
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must be positive")
	}
	return nil
}
